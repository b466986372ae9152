package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/hiway/sampleset/pkg/config"
	"github.com/hiway/sampleset/pkg/logging"
	"github.com/hiway/sampleset/pkg/pipeline"
	"github.com/hiway/sampleset/pkg/terminal"
)

var (
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
)

type flags struct {
	config     string
	root       string
	out        string
	workers    int
	formats    string
	logLevel   string
	logDir     string
	noProgress bool
}

func parseFlags() (*flags, map[string]bool) {
	f := &flags{}
	flag.StringVar(&f.config, "config", "", "extra TOML config file, applied after the standard locations")
	flag.StringVar(&f.root, "root", "", "directory holding the sample folders")
	flag.StringVar(&f.out, "out", "", "directory the dataset is written to")
	flag.IntVar(&f.workers, "workers", 0, "number of directories built concurrently")
	flag.StringVar(&f.formats, "format", "", "comma-separated output formats: pickle, csv, sqlite")
	flag.StringVar(&f.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	flag.StringVar(&f.logDir, "log-dir", "", "directory for the rotated log file")
	flag.BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cfg *config.Config, f *flags, set map[string]bool) {
	if set["root"] {
		cfg.Root = f.root
	}
	if set["out"] {
		cfg.OutputDir = f.out
	}
	if set["workers"] {
		cfg.Workers = f.workers
	}
	if set["format"] {
		cfg.Formats = config.SplitList(f.formats)
	}
	if set["log-level"] {
		cfg.Log.Level = f.logLevel
	}
	if set["log-dir"] {
		cfg.Log.Dir = f.logDir
	}
}

func main() {
	if err := run(); err != nil {
		red.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	f, set := parseFlags()

	bootLog := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel).With().Timestamp().Logger()
	cfg, err := config.Load(f.config, bootLog)
	if err != nil {
		return err
	}
	applyFlags(cfg, f, set)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, err := logging.Setup(cfg.Log, os.Stderr)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := pipeline.New(cfg, log.Logger, nil)
	if err != nil {
		return err
	}
	defer p.Stop()

	var (
		progress *mpb.Progress
		bar      *mpb.Bar
	)
	term := terminal.NewTerminal(os.Stdout, log.Logger)
	if !f.noProgress && term.IsTerminal() {
		p.OnScan = func(total int) {
			if total == 0 {
				return
			}
			progress = mpb.New(mpb.WithWidth(min(64, term.Width()/2)))
			bar = progress.AddBar(int64(total),
				mpb.PrependDecorators(
					decor.Name("Building: "),
					decor.CountersNoUnit("%d / %d"),
				),
				mpb.AppendDecorators(
					decor.Percentage(),
					decor.EwmaETA(decor.ET_STYLE_GO, 60),
				),
			)
		}
		p.OnProgress = func() { bar.Increment() }
	}

	res, err := p.Run(ctx)
	if progress != nil {
		if !bar.Completed() {
			bar.Abort(false)
		}
		progress.Wait()
	}
	if err != nil {
		return err
	}

	printSummary(res)
	return nil
}

func printSummary(res *pipeline.Result) {
	s := res.Summary
	green.Printf("Saved %s labeled samples\n", humanize.Comma(int64(s.Kept)))
	fmt.Printf("  directories scanned: %s\n", humanize.Comma(int64(res.Directories)))
	fmt.Printf("  records assembled:   %s\n", humanize.Comma(int64(res.Assembled)))
	if s.Missing > 0 {
		yellow.Printf("  missing label:       %s (%.2f%%)\n", humanize.Comma(int64(s.Missing)), s.Percent)
	}

	labels := make([]string, 0, len(s.Labels))
	for name := range s.Labels {
		labels = append(labels, name)
	}
	sort.Strings(labels)
	for _, name := range labels {
		fmt.Printf("  %-14s %s\n", name, humanize.Comma(int64(s.Labels[name])))
	}
	fmt.Printf("  output: %s\n", strings.Join(res.Paths, ", "))
}
