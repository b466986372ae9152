package dataset

import (
	"context"
	"fmt"
	"math"

	"github.com/hiway/sampleset/pkg/diag"
	"github.com/hiway/sampleset/pkg/queue"
)

// Summary describes a cleaning pass.
type Summary struct {
	Total   int            // rows before cleaning
	Missing int            // rows without an instrument label
	Percent float64        // Missing as a percentage of Total, two decimals
	Kept    int            // rows after cleaning
	Labels  map[string]int // kept rows per instrument
}

// Assembler applies a Builder to candidate directories and collects the rows.
type Assembler struct {
	builder *Builder
	queue   *queue.Queue
	sink    diag.Sink

	// OnProgress, when set, is called once per processed directory.
	OnProgress func()
}

// NewAssembler creates an Assembler. A nil queue builds directories one by
// one on the calling goroutine; a nil sink discards diagnostics.
func NewAssembler(builder *Builder, q *queue.Queue, sink diag.Sink) *Assembler {
	if sink == nil {
		sink = diag.Nop{}
	}
	return &Assembler{builder: builder, queue: q, sink: sink}
}

// Assemble builds every directory and returns the surviving records in input
// order. Skips are reported as warnings in input order too.
func (a *Assembler) Assemble(ctx context.Context, dirs []string) (*Dataset, error) {
	outcomes, err := a.buildAll(ctx, dirs)
	if err != nil {
		return nil, err
	}

	rows := make([]Record, 0, len(outcomes))
	for _, o := range outcomes {
		if o.Skipped() {
			fields := diag.Fields{"dir": o.Dir, "reason": string(o.Skip)}
			for k, v := range o.Detail {
				fields[k] = v
			}
			a.sink.Warn("Skipping directory", fields)
			continue
		}
		if !o.Record.Labeled() {
			a.sink.Warn("No unambiguous instrument label", diag.Fields{
				"dir":     o.Dir,
				"name":    o.Name,
				"matches": o.Matches,
			})
		}
		rows = append(rows, *o.Record)
	}
	return New(rows), nil
}

func (a *Assembler) buildAll(ctx context.Context, dirs []string) ([]Outcome, error) {
	if a.queue == nil {
		outcomes := make([]Outcome, 0, len(dirs))
		for _, dir := range dirs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			o, err := a.builder.Build(dir)
			if a.OnProgress != nil {
				a.OnProgress()
			}
			if err != nil {
				return nil, err
			}
			outcomes = append(outcomes, o)
		}
		return outcomes, nil
	}

	values, err := a.queue.Run(ctx, len(dirs), func(i int) (interface{}, error) {
		return a.builder.Build(dirs[i])
	}, a.OnProgress)
	if err != nil {
		return nil, err
	}
	outcomes := make([]Outcome, len(values))
	for i, v := range values {
		outcomes[i] = v.(Outcome)
	}
	return outcomes, nil
}

// Clean reports and removes unlabeled rows through the assembler's sink.
func (a *Assembler) Clean(ds *Dataset) (*Dataset, Summary, error) {
	return Clean(ds, a.sink)
}

// Clean drops rows with an empty instrument name. The count and percentage of
// dropped rows is reported to sink. An empty input is ErrEmptyDataset.
func Clean(ds *Dataset, sink diag.Sink) (*Dataset, Summary, error) {
	if ds.Empty() {
		return nil, Summary{}, fmt.Errorf("failed to clean dataset: %w", ErrEmptyDataset)
	}
	if sink == nil {
		sink = diag.Nop{}
	}

	total := ds.Len()
	cleaned := ds.Filter(Record.Labeled)
	missing := total - cleaned.Len()
	pct := math.Round(10000*float64(missing)/float64(total)) / 100

	sink.Info("Records missing target variable", diag.Fields{
		"missing":         missing,
		"total":           total,
		"removed_percent": pct,
	})

	summary := Summary{
		Total:   total,
		Missing: missing,
		Percent: pct,
		Kept:    cleaned.Len(),
		Labels:  cleaned.LabelCounts(),
	}
	sink.Info("Label distribution", diag.Fields{"labels": summary.Labels, "rows": summary.Kept})
	return cleaned, summary, nil
}
