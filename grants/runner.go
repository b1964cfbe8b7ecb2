/*
runner.go - Orchestration of one allocation run

PURPOSE:
  Wires the pipeline together for a single batch run: optional
  allow-list fetch, budget fetch, pending-order load, contact
  resolution, aggregation, optimization, request building, report, and
  audit export.

ERROR TAXONOMY (applied here):
  Fatal:     budget fetch, pending-order fetch, export write — the run
             aborts with no partial output persisted.
  Degraded:  allow-list fetch — the run continues unfiltered, logged as
             a warning.
  Per-item:  contact resolution — handled inside ResolveAll.

CONCURRENT RUNS:
  This is a single-operator batch tool. Nothing guards against two
  simultaneous runs seeing the same pending orders; the operator must
  mark a run's orders fulfilled or rejected before running again, or
  narrow the eligibility filter.

SEE ALSO:
  - cmd/grantgiver: Operator prompt and dependency wiring
*/
package grants

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Runner holds the injected collaborators for allocation runs.
// AllowList may be nil when no approval source is configured.
type Runner struct {
	Budget    BudgetSource
	Orders    OrderSource
	Resolver  ContactResolver
	AllowList AllowListSource
	Exporter  ExportSink

	// ResolveWorkers bounds the contact-resolution fan-out.
	// Zero means DefaultResolveWorkers.
	ResolveWorkers int

	Log zerolog.Logger

	// Now is the clock, overridable in tests. Nil means time.Now.
	Now func() time.Time
}

// Options controls a single run.
type Options struct {
	// UseAllowList applies the external approval filter when true.
	// The operator prompt in the CLI decides this.
	UseAllowList bool
}

// Run executes one allocation run and writes the report to out.
// It returns ErrNoPendingOrders when there is nothing to do; callers
// treat that as a clean exit, not a failure.
func (r *Runner) Run(ctx context.Context, out io.Writer, opts Options) (*Result, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	startedAt := now()

	// Allow-list: degraded path. A fetch failure logs and continues
	// unfiltered.
	var allowList map[string]struct{}
	if opts.UseAllowList && r.AllowList != nil {
		ids, err := r.AllowList.FetchApprovedUserIDs(ctx)
		if err != nil {
			r.Log.Warn().Err(err).Msg("allow-list fetch failed, continuing without filtering")
		} else {
			allowList = ids
			r.Log.Info().Int("approved_users", len(ids)).Msg("fetched allow-list")
		}
	}

	// Budget: fatal path. No allocation without a ceiling.
	budget, err := r.Budget.FetchBudget(ctx)
	if err != nil {
		return nil, &BudgetError{Cause: err}
	}
	r.Log.Info().Str("budget", budget.StringFixed(2)).Msg("fetched budget")

	// Pending orders: fatal path.
	pending, err := r.Orders.ListPendingGrantOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching pending grant orders: %w", err)
	}
	r.Log.Info().Int("orders", len(pending)).Msg("fetched pending grant orders")

	if len(pending) == 0 {
		return nil, ErrNoPendingOrders
	}

	eligible := FilterEligible(pending, allowList, r.Log)

	contacts := ResolveAll(ctx, r.Resolver, eligible, r.ResolveWorkers, r.Log)

	grouped := Aggregate(eligible, contacts, r.Log)
	if len(grouped) == 0 {
		return nil, ErrNoPendingOrders
	}

	totalRequested := decimal.Zero
	for _, g := range grouped {
		totalRequested = totalRequested.Add(g.TotalUSDCost)
	}
	if totalRequested.LessThanOrEqual(budget) {
		r.Log.Info().Str("requested", totalRequested.StringFixed(2)).
			Msg("budget is sufficient to fulfill all requests")
	} else {
		r.Log.Warn().
			Str("requested", totalRequested.StringFixed(2)).
			Str("shortfall", totalRequested.Sub(budget).StringFixed(2)).
			Msg("budget shortfall, optimizing within budget")
	}

	allocations := Optimize(grouped, budget, r.Log)
	requests := BuildRequests(allocations, r.Log)
	unfulfilled := Complement(grouped, allocations)

	totalAllocated := decimal.Zero
	for _, alloc := range allocations {
		totalAllocated = totalAllocated.Add(alloc.GrantAmount)
	}

	res := &Result{
		Budget:         budget,
		Grouped:        grouped,
		Allocations:    allocations,
		Unfulfilled:    unfulfilled,
		Requests:       requests,
		TotalAllocated: totalAllocated,
		StartedAt:      startedAt,
	}

	WriteReport(out, *res)

	// Export: fatal path. The audit record must land.
	path, err := r.Exporter.Export(ctx, NewExportRecord(*res, now()))
	if err != nil {
		return nil, fmt.Errorf("writing run export: %w", err)
	}
	r.Log.Info().Str("path", path).Msg("wrote grant request export")

	return res, nil
}
