//go:build !windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr detaches the child on Unix-like systems.
// A new session (setsid) keeps the service running after the launcher exits
// and detaches it from the controlling terminal.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
