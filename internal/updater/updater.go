// Package updater drives the bulk MODS update: for each org it reconciles local files with
// the catalog and calls the update binary for every item not yet marked complete.
package updater

import (
	"context"
	"errors"
	"fmt"

	"github.com/brown-library/bdr-scripts/internal/catalog"
	"github.com/brown-library/bdr-scripts/internal/ledger"
	"github.com/brown-library/bdr-scripts/internal/reconcile"
	"github.com/brown-library/bdr-scripts/internal/scanner"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

// ErrMissingPID is recorded for items the catalog returned no PID for.
var ErrMissingPID = errors.New("missing pid")

// Catalog supplies the catalog documents for an org.
type Catalog interface {
	OrgDocs(ctx context.Context, org string) ([]catalog.Doc, error)
}

// Updater applies a MODS file to the repository object identified by pid.
type Updater interface {
	Update(ctx context.Context, modsPath, pid string) error
}

// RunSummary tallies one Run.
type RunSummary struct {
	Orgs        int
	OrgsSkipped int
	OrgsFailed  []string
	Items       int
	Updated     int
	Skipped     int
	Problems    int
	MissingPID  int
}

func (s *RunSummary) add(o ledger.OrgSummary) {
	s.Items += o.Items
	s.Updated += o.Updated
	s.Skipped += o.Skipped
	s.Problems += o.Problems
	s.MissingPID += o.MissingPID
}

// Invoker processes orgs against a mods directory and a completion ledger.
type Invoker struct {
	catalog Catalog
	updater Updater
	ledger  *ledger.Ledger
	modsDir string
}

// NewInvoker creates an Invoker.
func NewInvoker(cat Catalog, upd Updater, l *ledger.Ledger, modsDir string) *Invoker {
	return &Invoker{
		catalog: cat,
		updater: upd,
		ledger:  l,
		modsDir: modsDir,
	}
}

// Run processes orgs in the given order. A failure to build an org's worklist aborts that
// org only; the returned error joins every such failure.
func (inv *Invoker) Run(ctx context.Context, orgs []string) (RunSummary, error) {
	var summary RunSummary

	unlock, err := inv.ledger.Lock()
	if err != nil {
		return summary, err
	}
	defer unlock()

	logger.Info("Starting run %s for %d orgs", inv.ledger.RunID(), len(orgs))
	var errs []error
	for _, org := range orgs {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		summary.Orgs++

		if inv.ledger.OrgDone(org) {
			logger.Info("Org %s already processed; skipping", org)
			summary.OrgsSkipped++
			continue
		}

		orgSummary, err := inv.runOrg(ctx, org)
		summary.add(orgSummary)
		if err != nil {
			logger.Error("Org %s aborted: %v", org, err)
			summary.OrgsFailed = append(summary.OrgsFailed, org)
			errs = append(errs, fmt.Errorf("org %s: %w", org, err))
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if err := inv.ledger.RecordOrgResult(org, orgSummary); err != nil {
			summary.OrgsFailed = append(summary.OrgsFailed, org)
			errs = append(errs, err)
			continue
		}
		logger.Info("Org %s done: %d items, %d updated, %d skipped, %d problems",
			org, orgSummary.Items, orgSummary.Updated, orgSummary.Skipped, orgSummary.Problems)
	}
	return summary, errors.Join(errs...)
}

// worklist builds the reconciled item list for org.
func (inv *Invoker) worklist(ctx context.Context, org string) (reconcile.Worklist, error) {
	if err := scanner.ValidateOrgID(org); err != nil {
		return reconcile.Worklist{}, err
	}
	paths, err := scanner.Scan(inv.modsDir, org)
	if err != nil {
		return reconcile.Worklist{}, fmt.Errorf("scanning %s: %w", inv.modsDir, err)
	}
	logger.Info("Found %d MODS files for org %s", paths.Len(), org)

	docs, err := inv.catalog.OrgDocs(ctx, org)
	if err != nil {
		return reconcile.Worklist{}, err
	}
	return reconcile.Merge(paths, docs), nil
}

func (inv *Invoker) runOrg(ctx context.Context, org string) (ledger.OrgSummary, error) {
	var s ledger.OrgSummary

	wl, err := inv.worklist(ctx, org)
	if err != nil {
		return s, err
	}
	s.Items = len(wl.Records)

	for i, rec := range wl.Records {
		if err := ctx.Err(); err != nil {
			return s, err
		}
		if inv.ledger.ItemDone(rec.ID) {
			logger.Debug("Item %s already updated; skipping", rec.ID)
			s.Skipped++
			continue
		}

		var updateErr error
		if !rec.HasPID() {
			s.MissingPID++
			updateErr = ErrMissingPID
		} else {
			logger.Info("Updating %s (%s) from %s [%d/%d]", rec.ID, rec.PID, utils.RelPath(inv.modsDir, rec.LocalPath), i+1, len(wl.Records))
			updateErr = inv.updater.Update(ctx, rec.LocalPath, rec.PID)
			if updateErr != nil && ctx.Err() != nil {
				// Interrupted, not a verdict on the item.
				return s, ctx.Err()
			}
		}

		if updateErr != nil {
			s.Problems++
			logger.Warn("Problem with %s at %s: %s", rec.ID, rec.LocalPath, utils.TruncateError(updateErr.Error(), 300))
		} else {
			s.Updated++
		}
		if err := inv.ledger.RecordItemResult(rec.ID, updateErr); err != nil {
			return s, err
		}
	}
	return s, nil
}
