//go:build !unix

package updater

import "os/exec"

func killProcessGroup(cmd *exec.Cmd) {}
