//go:build !windows

package build

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcGroup starts cmd in its own process group so the game the
// compiler launches is stopped with it.
func setProcGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func killProcGroup(cmd *exec.Cmd) error {
	return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
}
