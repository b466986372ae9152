// Package sampleset builds a labeled dataset of music samples from a tree of
// per-sample directories, each holding one audio file and one metadata record.
package sampleset

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/hiway/sampleset/pkg/config"
	"github.com/hiway/sampleset/pkg/dataset"
	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/label"
	"github.com/hiway/sampleset/pkg/metadata"
	"github.com/hiway/sampleset/pkg/pipeline"
	"github.com/hiway/sampleset/pkg/sample"
	"github.com/hiway/sampleset/pkg/writer"
)

// Result describes a finished build.
type Result = pipeline.Result

// Options tune a build. The zero value is not usable, start from DefaultOptions.
type Options struct {
	// MetadataFile is the metadata file name inside each sample directory.
	MetadataFile string
	// AudioPattern is the glob audio file names must match.
	AudioPattern string
	// CaseInsensitive matches AudioPattern regardless of case.
	CaseInsensitive bool
	// Workers bounds the number of directories built at once.
	Workers int
	// SkipUndecodable drops samples whose metadata cannot be decoded
	// instead of failing the build.
	SkipUndecodable bool
	// Formats lists the output formats, pickle being the primary one.
	Formats []string
	// Instruments is the label vocabulary.
	Instruments []string
	// Logger receives debug output.
	Logger zerolog.Logger
	// Sink receives per-directory and summary diagnostics. Defaults to Logger.
	Sink diag.Sink
}

// DefaultOptions returns the options of a plain sequential pickle build.
func DefaultOptions() Options {
	return Options{
		MetadataFile: metadata.DefaultFileName,
		AudioPattern: sample.DefaultAudioPattern,
		Workers:      1,
		Formats:      []string{writer.FormatPickle},
		Instruments:  label.Default().Names(),
		Logger:       zerolog.Nop(),
	}
}

// Process scans root, builds and cleans the dataset and writes it into out.
func Process(ctx context.Context, root, out string, opts Options) (*Result, error) {
	cfg := config.Default()
	cfg.Root = root
	cfg.OutputDir = out
	cfg.MetadataFile = opts.MetadataFile
	cfg.AudioPattern = opts.AudioPattern
	cfg.AudioCaseInsensitive = opts.CaseInsensitive
	cfg.Workers = opts.Workers
	cfg.Formats = opts.Formats
	cfg.Instruments = opts.Instruments
	cfg.Log.Dir = ""
	if opts.SkipUndecodable {
		cfg.OnDecodeError = string(dataset.DecodeSkip)
	}

	p, err := pipeline.New(cfg, opts.Logger, opts.Sink)
	if err != nil {
		return nil, err
	}
	defer p.Stop()
	return p.Run(ctx)
}
