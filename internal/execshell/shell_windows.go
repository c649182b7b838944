//go:build windows

package execshell

import (
	"context"
	"os"
	"os/exec"
	"syscall"
)

const (
	windowsShellConstant             = "cmd"
	windowsCommandLineTemplatePrefix = "cmd /C "
)

func newShellProcess(executionContext context.Context, commandLine string) *exec.Cmd {
	executable := exec.CommandContext(executionContext, windowsShellConstant)
	executable.SysProcAttr = &syscall.SysProcAttr{CmdLine: windowsCommandLineTemplatePrefix + commandLine}
	return executable
}

// requestStop kills the process. Windows offers no polite stop signal for console
// children started without a console of their own.
func requestStop(process *os.Process) error {
	if process == nil {
		return nil
	}
	return process.Kill()
}
