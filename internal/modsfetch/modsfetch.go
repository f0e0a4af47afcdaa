// Package modsfetch downloads MODS records for a list of PIDs into a directory.
package modsfetch

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brown-library/bdr-scripts/internal/modsxml"
	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
	"github.com/brown-library/bdr-scripts/pkg/utils"
)

// PIDPlaceholder is replaced by the PID in the URL pattern.
const PIDPlaceholder = "{PID_VAR}"

// Result is the outcome for one PID.
type Result struct {
	PID  string
	Path string
	// Written is true when a file was saved, even if it later failed the XML check.
	Written bool
	Err     error
}

// Downloader fetches MODS records with a bounded worker pool.
type Downloader struct {
	http       *utils.HTTPClient
	urlPattern string
	outDir     string
	workers    int
	retries    int
	retryDelay time.Duration
}

// NewDownloader creates a downloader writing into outDir.
func NewDownloader(cfg config.SaveModsConfig, httpClient *utils.HTTPClient, outDir string) *Downloader {
	return &Downloader{
		http:       httpClient,
		urlPattern: cfg.URLPattern,
		outDir:     outDir,
		workers:    max(cfg.Processes, 1),
		retries:    utils.DefaultRetryAttempts,
		retryDelay: utils.DefaultInitialDelay,
	}
}

// URL returns the MODS URL for pid.
func (d *Downloader) URL(pid string) string {
	return strings.ReplaceAll(d.urlPattern, PIDPlaceholder, pid)
}

// OutputPath returns where the MODS for pid is saved, e.g. bdr_abc123__MODS.xml.
func (d *Downloader) OutputPath(pid string) string {
	return filepath.Join(d.outDir, strings.ReplaceAll(pid, ":", "_")+"__MODS.xml")
}

// Run downloads every PID and returns one Result per PID in input order.
// A failed PID never stops the others.
func (d *Downloader) Run(ctx context.Context, pids []string) []Result {
	results := make([]Result, len(pids))
	var grp errgroup.Group
	grp.SetLimit(d.workers)
	for i, pid := range pids {
		i, pid := i, pid
		grp.Go(func() error {
			results[i] = d.fetch(ctx, pid)
			return nil
		})
	}
	_ = grp.Wait()
	return results
}

func (d *Downloader) fetch(ctx context.Context, pid string) Result {
	res := Result{PID: pid, Path: d.OutputPath(pid)}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	url := d.URL(pid)
	logger.Debug("Fetching MODS for %s from %s", pid, url)
	var body []byte
	err := utils.Retry(ctx, d.retries, d.retryDelay, func() error {
		var getErr error
		body, getErr = d.http.GetBytes(ctx, url)
		return getErr
	}, utils.IsTransientError)
	if err != nil {
		res.Err = fmt.Errorf("failed to retrieve MODS for %s: %w", pid, err)
		logger.Warn("%v", res.Err)
		return res
	}

	if err := utils.WriteFileAtomic(res.Path, body, 0o644); err != nil {
		res.Err = fmt.Errorf("saving MODS for %s: %w", pid, err)
		logger.Warn("%v", res.Err)
		return res
	}
	res.Written = true

	if err := modsxml.CheckWellFormed(body); err != nil {
		res.Err = fmt.Errorf("MODS for %s: %w", pid, err)
		logger.Warn("%v", res.Err)
		return res
	}
	logger.Info("Saved %s", res.Path)
	return res
}

// ReadPIDs reads one PID per line, skipping blank lines.
func ReadPIDs(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pids file: %w", err)
	}
	defer f.Close()

	var pids []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if pid := strings.TrimSpace(sc.Text()); pid != "" {
			pids = append(pids, pid)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading pids file: %w", err)
	}
	return pids, nil
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if r.Err != nil {
			out = append(out, r)
		}
	}
	return out
}
