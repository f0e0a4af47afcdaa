package updater

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/brown-library/bdr-scripts/pkg/config"
	"github.com/brown-library/bdr-scripts/pkg/logger"
)

// waitDelay bounds how long Update waits for output pipes after the binary is killed.
const waitDelay = 2 * time.Second

// BinaryUpdater runs the external update-mods binary once per item.
type BinaryUpdater struct {
	path    string
	env     []string
	timeout time.Duration
}

// NewBinaryUpdater creates an updater from the update section of the config.
func NewBinaryUpdater(cfg config.UpdateConfig) *BinaryUpdater {
	return &BinaryUpdater{
		path:    cfg.BinaryPath,
		env:     cfg.Binary.Environ(),
		timeout: cfg.Timeout,
	}
}

// Update calls `<binary> --mods_filepath <modsPath> --bdr_pid <pid>`.
// Anything written to stderr is treated as a failure and returned as the error text.
func (b *BinaryUpdater) Update(ctx context.Context, modsPath, pid string) error {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	logger.Debug("Running {binary: %s, mods_filepath: %s, bdr_pid: %s}", b.path, modsPath, pid)
	cmd := exec.CommandContext(ctx, b.path, "--mods_filepath", modsPath, "--bdr_pid", pid)
	cmd.Env = append(os.Environ(), b.env...)
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if out := strings.TrimSpace(stdout.String()); out != "" {
		logger.Debug("update binary output for %s: %s", pid, out)
	}
	if msg := strings.TrimSpace(stderr.String()); msg != "" {
		return errors.New(msg)
	}
	if runErr != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("update binary timed out after %s: %w", b.timeout, runErr)
		}
		return fmt.Errorf("update binary error: %w", runErr)
	}
	return nil
}
