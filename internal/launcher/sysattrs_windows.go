//go:build windows

package launcher

import (
	"os/exec"
	"syscall"
)

// configureSysProcAttr detaches the child on Windows via a new process group.
func configureSysProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: syscall.CREATE_NEW_PROCESS_GROUP}
}
