package grounding

import (
	"context"
	"sort"

	"nl2sql-grounding/internal/contextutil"
	"nl2sql-grounding/internal/metrics"
	"nl2sql-grounding/internal/schema"
	"nl2sql-grounding/internal/textnorm"
)

const (
	DefaultThreshold    = 70
	DefaultMaxPerColumn = 5
	DefaultCandidateCap = 100
)

// GroundedValue is a literal column value that matched a question keyword.
type GroundedValue struct {
	Table      string `json:"table"`
	Column     string `json:"column"`
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
}

// Matches maps "table.column" to its grounded values, best first.
type Matches map[string][]GroundedValue

// Keys returns the column keys in sorted order.
func (m Matches) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the total number of grounded values.
func (m Matches) Count() int {
	n := 0
	for _, v := range m {
		n += len(v)
	}
	return n
}

// Options tunes grounding. A negative Threshold and non-positive limits fall
// back to the defaults; a zero Threshold keeps every candidate.
type Options struct {
	Threshold    int
	MaxPerColumn int
	CandidateCap int
}

func (o Options) withDefaults() Options {
	if o.Threshold < 0 {
		o.Threshold = DefaultThreshold
	}
	if o.MaxPerColumn <= 0 {
		o.MaxPerColumn = DefaultMaxPerColumn
	}
	if o.CandidateCap <= 0 {
		o.CandidateCap = DefaultCandidateCap
	}
	return o
}

// Grounder matches question keywords against live column values.
type Grounder struct {
	opts Options
}

// NewGrounder creates a Grounder with opts.
func NewGrounder(opts Options) *Grounder {
	return &Grounder{opts: opts.withDefaults()}
}

// Ground samples every eligible column of tables and returns the values that
// score at least the threshold against a keyword of question. A column whose
// query fails is skipped. No query is issued when question has no keywords.
// The only error is cancellation of ctx.
func (g *Grounder) Ground(ctx context.Context, question string, tables []schema.Table, sampler Sampler) (Matches, error) {
	matches := Matches{}
	keywords := textnorm.Keywords(question)
	if len(keywords) == 0 {
		return matches, nil
	}

	logger := contextutil.LoggerFromContext(ctx)
	for _, t := range tables {
		for _, c := range EligibleColumns(t) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			candidates, err := sampler.SampleValues(ctx, t.Name, c.Name, keywords, g.opts.CandidateCap)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return nil, ctxErr
				}
				logger.WarnContext(ctx, "skipping column in value grounding",
					"table", t.Name,
					"column", c.Name,
					"error", err,
				)
				metrics.ObserveGroundingColumnFailure()
				continue
			}

			values := g.score(t.Name, c.Name, candidates, keywords)
			if len(values) > 0 {
				matches[t.Name+"."+c.Name] = values
			}
		}
	}

	metrics.ObserveGroundedValues(matches.Count())
	logger.DebugContext(ctx, "values grounded",
		"keywords", keywords,
		"columns", len(matches),
		"values", matches.Count(),
	)
	return matches, nil
}

func (g *Grounder) score(table, column string, candidates, keywords []string) []GroundedValue {
	var values []GroundedValue
	for _, candidate := range candidates {
		score := BestScore(candidate, keywords)
		if score < g.opts.Threshold {
			continue
		}
		values = append(values, GroundedValue{
			Table:      table,
			Column:     column,
			Value:      candidate,
			Confidence: score,
		})
	}
	sort.SliceStable(values, func(i, j int) bool {
		return values[i].Confidence > values[j].Confidence
	})
	if len(values) > g.opts.MaxPerColumn {
		values = values[:g.opts.MaxPerColumn]
	}
	return values
}
