package dataset

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/label"
	"github.com/hiway/sampleset/pkg/metadata"
	"github.com/hiway/sampleset/pkg/sample"
)

// SkipReason explains why a directory produced no record.
type SkipReason string

const (
	SkipNoAudio        SkipReason = "no audio files"
	SkipNoMetadata     SkipReason = "no metadata file"
	SkipAmbiguousAudio SkipReason = "multiple or no audio files"
	SkipUndecodable    SkipReason = "undecodable metadata"
)

// DecodePolicy selects what happens when a metadata file cannot be decoded.
type DecodePolicy string

const (
	// DecodeAbort fails the whole run.
	DecodeAbort DecodePolicy = "abort"
	// DecodeSkip drops the directory and carries on.
	DecodeSkip DecodePolicy = "skip"
)

// Valid reports whether p is a known policy.
func (p DecodePolicy) Valid() bool {
	return p == DecodeAbort || p == DecodeSkip
}

// Outcome is the result of building one directory.
type Outcome struct {
	Dir     string
	Record  *Record
	Skip    SkipReason
	Detail  diag.Fields
	Name    string   // sound name used for labeling
	Matches []string // vocabulary entries found in Name
}

// Skipped reports whether the directory yielded no record.
func (o Outcome) Skipped() bool {
	return o.Record == nil
}

// BuilderOptions tune the record builder.
type BuilderOptions struct {
	MetadataFile  string       // defaults to metadata.DefaultFileName
	OnDecodeError DecodePolicy // defaults to DecodeAbort
}

// Builder turns one sample directory into a Record.
type Builder struct {
	validator    *sample.Validator
	loader       *metadata.Loader
	matcher      *label.Matcher
	metadataFile string
	policy       DecodePolicy
}

// NewBuilder creates a Builder.
func NewBuilder(validator *sample.Validator, loader *metadata.Loader, matcher *label.Matcher, opts BuilderOptions) *Builder {
	if opts.MetadataFile == "" {
		opts.MetadataFile = metadata.DefaultFileName
	}
	if opts.OnDecodeError == "" {
		opts.OnDecodeError = DecodeAbort
	}
	return &Builder{
		validator:    validator,
		loader:       loader,
		matcher:      matcher,
		metadataFile: opts.MetadataFile,
		policy:       opts.OnDecodeError,
	}
}

// Build inspects dir. Directories that are not valid samples come back as a
// skipped Outcome, not an error. Missing directories and, under DecodeAbort,
// undecodable metadata are errors.
func (b *Builder) Build(dir string) (Outcome, error) {
	out := Outcome{Dir: dir}

	hasAudio, err := b.validator.HasAudio(dir)
	if err != nil {
		return out, err
	}
	if !hasAudio {
		out.Skip = SkipNoAudio
		return out, nil
	}

	metadataPath := filepath.Join(dir, b.metadataFile)
	hasMetadata, err := b.validator.HasMetadata(metadataPath)
	if err != nil {
		return out, err
	}
	if !hasMetadata {
		out.Skip = SkipNoMetadata
		return out, nil
	}

	audioPath, ok := b.validator.ResolveAudio(dir)
	if !ok {
		out.Skip = SkipAmbiguousAudio
		out.Detail = diag.Fields{"audio_files": len(b.validator.FindAudio(dir))}
		return out, nil
	}

	meta, err := b.loader.Load(metadataPath)
	if err != nil {
		if b.policy == DecodeSkip && errors.Is(err, metadata.ErrDeserialization) {
			out.Skip = SkipUndecodable
			out.Detail = diag.Fields{"error": err.Error()}
			return out, nil
		}
		return out, fmt.Errorf("failed to load metadata for %s: %w", dir, err)
	}

	out.Name = meta.Get(metadata.FieldName).String()
	out.Matches = b.matcher.Matches(out.Name)
	instrument := b.matcher.Match(out.Name)

	out.Record = &Record{
		RelativePath:   audioPath,
		Channels:       meta.Get(metadata.FieldChannels),
		Filesize:       meta.Get(metadata.FieldFilesize),
		Bitrate:        meta.Get(metadata.FieldBitrate),
		Bitdepth:       meta.Get(metadata.FieldBitdepth),
		Duration:       meta.Get(metadata.FieldDuration),
		Samplerate:     meta.Get(metadata.FieldSamplerate),
		InstrumentName: instrument,
	}
	return out, nil
}
