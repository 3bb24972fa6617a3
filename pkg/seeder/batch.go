package seeder

import (
	"context"

	"github.com/Lumos-Labs-HQ/relix/pkg/errs"
	"github.com/Lumos-Labs-HQ/relix/pkg/rules"
	"github.com/Lumos-Labs-HQ/relix/pkg/schema"
)

// Batch seeds tables one call at a time while sharing a single Run: the
// random sequence and unique value tracking span every call, so a batch
// built from a fixed seed reproduces the same data.
type Batch struct {
	s        *Seeder
	snapshot *schema.Schema
	run      *Run
	res      *Resolver
}

// NewBatch starts a batch over snapshot, introspecting when it is nil. A zero
// seed picks a time based one.
func (s *Seeder) NewBatch(ctx context.Context, snapshot *schema.Schema, seed int64) (*Batch, error) {
	if snapshot == nil {
		var err error
		if snapshot, err = s.Introspect(ctx); err != nil {
			return nil, err
		}
	}

	run, err := s.newRun(seed)
	if err != nil {
		return nil, err
	}
	return &Batch{
		s:        s,
		snapshot: snapshot,
		run:      run,
		res:      NewResolver(s.conn, s.factory, snapshot, run),
	}, nil
}

// Seed is the seed the batch runs with.
func (b *Batch) Seed() int64 { return b.run.Seed() }

func (b *Batch) Schema() *schema.Schema { return b.snapshot }

// SeedTable fills one table. Exclusions do not apply and opts.Seed is
// ignored; the batch seed wins.
func (b *Batch) SeedTable(ctx context.Context, name string, rs *rules.Ruleset, opts SeedOptions) (*TableResult, error) {
	if rs == nil {
		rs = rules.Empty()
	}
	if err := CheckRuleset(rs); err != nil {
		return nil, err
	}

	table := b.snapshot.Table(name)
	if table == nil {
		return nil, errs.Configuration("table %q does not exist in %s", name, b.snapshot.Database)
	}

	if opts.Truncate {
		if err := b.s.truncate(ctx, []string{name}); err != nil {
			return nil, err
		}
	}
	return b.s.seedTable(ctx, b.run, b.res, table, rs, opts.Count)
}
