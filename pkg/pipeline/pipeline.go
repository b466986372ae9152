// Package pipeline wires the scanner, record builder, cleaner and writers
// into one dataset build.
package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/config"
	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/label"
	"github.com/hiway/sampleset/pkg/metadata"
	"github.com/hiway/sampleset/pkg/queue"
	"github.com/hiway/sampleset/pkg/sample"
	"github.com/hiway/sampleset/pkg/scanner"
	"github.com/hiway/sampleset/pkg/writer"
)

// Result describes a finished build.
type Result struct {
	Directories int              // candidate directories found below the root
	Assembled   int              // rows before cleaning
	Summary     dataset.Summary  // cleaning report
	Dataset     *dataset.Dataset // cleaned dataset
	Paths       []string         // written artifacts
}

// Pipeline builds the labeled dataset for one configuration.
type Pipeline struct {
	cfg       *config.Config
	log       zerolog.Logger
	sink      diag.Sink
	scanner   *scanner.Scanner
	assembler *dataset.Assembler
	queue     *queue.Queue
	writers   []writer.Writer
	stopOnce  sync.Once

	// OnScan, when set, receives the number of directories about to be built.
	OnScan func(total int)
	// OnProgress, when set, is called once per built directory.
	OnProgress func()
}

// New creates a Pipeline. Diagnostics go to sink, or to log when sink is nil.
func New(cfg *config.Config, log zerolog.Logger, sink diag.Sink) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	log = log.With().Str("component", "pipeline").Logger()
	if sink == nil {
		sink = diag.NewLogSink(log)
	}

	validator := sample.NewValidator(cfg.AudioPattern, cfg.AudioCaseInsensitive)
	matcher := label.NewMatcher(label.NewVocabulary(cfg.Instruments))
	builder := dataset.NewBuilder(validator, metadata.NewLoader(), matcher, dataset.BuilderOptions{
		MetadataFile:  cfg.MetadataFile,
		OnDecodeError: dataset.DecodePolicy(cfg.OnDecodeError),
	})

	writers, err := writer.NewAll(cfg.Formats, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create writers: %w", err)
	}

	// A single worker runs directories in order on the calling goroutine.
	q, err := queue.NewQueue(cfg.Workers, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue: %w", err)
	}

	return &Pipeline{
		cfg:       cfg,
		log:       log,
		sink:      sink,
		scanner:   scanner.New(sink),
		assembler: dataset.NewAssembler(builder, q, sink),
		queue:     q,
		writers:   writers,
	}, nil
}

// Run scans the root, builds and cleans the dataset and writes it out.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.log.Info().
		Str("root", p.cfg.Root).
		Str("output_dir", p.cfg.OutputDir).
		Int("workers", p.cfg.Workers).
		Msg("Building music dataset")

	dirs, err := p.scanner.Scan(ctx, p.cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", p.cfg.Root, err)
	}
	p.log.Debug().Int("directories", len(dirs)).Msg("Scan finished")
	if p.OnScan != nil {
		p.OnScan(len(dirs))
	}

	p.assembler.OnProgress = p.OnProgress
	ds, err := p.assembler.Assemble(ctx, dirs)
	if err != nil {
		return nil, fmt.Errorf("failed to assemble dataset: %w", err)
	}

	cleaned, summary, err := p.assembler.Clean(ds)
	if err != nil {
		return nil, err
	}

	paths, err := writer.Save(cleaned, p.cfg.OutputDir, p.sink, p.writers...)
	if err != nil {
		return nil, err
	}

	p.log.Info().
		Int("rows", summary.Kept).
		Strs("paths", paths).
		Msg("Successfully saved music dataset")

	return &Result{
		Directories: len(dirs),
		Assembled:   ds.Len(),
		Summary:     summary,
		Dataset:     cleaned,
		Paths:       paths,
	}, nil
}

// Stop releases the worker pool.
func (p *Pipeline) Stop() {
	p.stopOnce.Do(func() {
		p.queue.Stop()
		p.log.Debug().Msg("Pipeline stopped")
	})
}
