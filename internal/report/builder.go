package report

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/Zuo-Peng/p4-changelist-report/internal/parse"
)

// Describer fetches the raw describe text of a change; "" means no output.
type Describer interface {
	Describe(ctx context.Context, change string) string
}

type Options struct {
	Offset  time.Duration // added to UTC submit times
	Exclude AuthorFilter  // nil = keep every author
	Files   *FileFilter   // nil = keep every file
	Shape   Shaper        // nil = ByAction
	Workers int           // <= 1 = sequential
	Logger  *zap.Logger
}

type Stats struct {
	Changes  int
	Empty    int // no describe output
	Excluded int // dropped by the author filter
	NoFiles  int // header but nothing to report
	Rows     int
}

func (s Stats) String() string {
	return fmt.Sprintf("changes=%d rows=%d excluded=%d empty=%d nofiles=%d",
		s.Changes, s.Rows, s.Excluded, s.Empty, s.NoFiles)
}

type outcome int

const (
	outcomeRows outcome = iota
	outcomeEmpty
	outcomeExcluded
	outcomeNoFiles
)

type result struct {
	rows    []Row
	outcome outcome
}

type Builder struct {
	src  Describer
	opts Options
	log  *zap.Logger
}

func NewBuilder(src Describer, opts Options) *Builder {
	if opts.Shape == nil {
		opts.Shape = ByAction
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{src: src, opts: opts, log: log}
}

// Describe returns the report rows of one change.
func (b *Builder) Describe(ctx context.Context, change string) []Row {
	return b.describe(ctx, change).rows
}

// Rows shapes already fetched describe output.
func (b *Builder) Rows(change, output string) []Row {
	return b.rowsFor(change, output).rows
}

// Build describes every change and returns the rows grouped by change in the
// order of changes, whether or not describes run in parallel.
func (b *Builder) Build(ctx context.Context, changes []string) ([]Row, Stats, error) {
	var results []result
	var err error
	if b.opts.Workers > 1 && len(changes) > 1 {
		results, err = b.buildPooled(ctx, changes)
	} else {
		results, err = b.buildSequential(ctx, changes)
	}

	stats := Stats{Changes: len(changes)}
	var rows []Row
	for _, r := range results {
		switch r.outcome {
		case outcomeEmpty:
			stats.Empty++
		case outcomeExcluded:
			stats.Excluded++
		case outcomeNoFiles:
			stats.NoFiles++
		}
		rows = append(rows, r.rows...)
	}
	stats.Rows = len(rows)
	return rows, stats, err
}

func (b *Builder) buildSequential(ctx context.Context, changes []string) ([]result, error) {
	results := make([]result, 0, len(changes))
	for _, change := range changes {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, b.describe(ctx, change))
	}
	return results, nil
}

type describeParam struct {
	idx     int
	ctx     context.Context
	change  string
	results []result
	wg      *sync.WaitGroup
}

func (b *Builder) buildPooled(ctx context.Context, changes []string) ([]result, error) {
	results := make([]result, len(changes))
	var wg sync.WaitGroup

	pool, err := ants.NewPoolWithFunc(b.opts.Workers, func(args any) {
		param, ok := args.(*describeParam)
		if !ok {
			panic("describe pool args type error")
		}
		defer param.wg.Done()
		if param.ctx.Err() != nil {
			return
		}
		param.results[param.idx] = b.describe(param.ctx, param.change)
	})
	if err != nil {
		return nil, fmt.Errorf("create describe pool: %w", err)
	}
	defer pool.Release()

	for i, change := range changes {
		wg.Add(1)
		param := &describeParam{idx: i, ctx: ctx, change: change, results: results, wg: &wg}
		if err := pool.Invoke(param); err != nil {
			wg.Done()
			wg.Wait()
			return nil, fmt.Errorf("submit describe %s: %w", change, err)
		}
	}
	wg.Wait()
	return results, ctx.Err()
}

func (b *Builder) describe(ctx context.Context, change string) result {
	return b.rowsFor(change, b.src.Describe(ctx, change))
}

func (b *Builder) rowsFor(change, output string) result {
	log := b.log.With(zap.String("change", change))

	cl := parse.Describe(change, output)
	if cl == nil {
		log.Debug("empty describe output, skipping")
		return result{outcome: outcomeEmpty}
	}

	submitted, err := parse.ShiftSubmitted(cl.Submitted, b.opts.Offset)
	if err != nil {
		log.Error("convert submit time", zap.String("submitted", cl.Submitted), zap.Error(err))
	}
	date, clock := parse.SplitDateTime(submitted)

	if b.opts.Exclude != nil && b.opts.Exclude(cl.Author) {
		log.Debug("author excluded", zap.String("author", cl.Author))
		return result{outcome: outcomeExcluded}
	}

	if cl.HasHeader && !cl.HasAffected {
		// kept as zero rows; the change is still listed by `p4 changes`
		log.Warn("no affected files section in describe output")
	}
	b.opts.Files.Apply(cl)

	base := Row{
		Change:      change,
		Date:        date,
		Time:        clock,
		Author:      cl.Author,
		Description: cl.Description,
		JiraURL:     parse.JoinIssueURLs(cl.IssueURLs),
	}
	rows := b.opts.Shape(base, cl)
	if len(rows) == 0 {
		return result{outcome: outcomeNoFiles}
	}
	return result{rows: rows, outcome: outcomeRows}
}
