//go:build !windows

package execshell

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
)

const unixShellConstant = "sh"

func newShellProcess(executionContext context.Context, commandLine string) *exec.Cmd {
	executable := exec.CommandContext(executionContext, unixShellConstant, "-c", commandLine)
	executable.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	return executable
}

// requestStop sends SIGTERM to the process group so the shell and the audit tool both
// receive it.
func requestStop(process *os.Process) error {
	if process == nil {
		return nil
	}
	groupError := syscall.Kill(-process.Pid, syscall.SIGTERM)
	if groupError == nil {
		return nil
	}
	if errors.Is(groupError, syscall.ESRCH) {
		return nil
	}
	return process.Signal(syscall.SIGTERM)
}
