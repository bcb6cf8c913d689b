//go:build windows

package bootstrap

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// elevationCancelledCode is what a declined UAC prompt reports.
const elevationCancelledCode = int(windows.ERROR_CANCELLED)

func elevatedCommand(path string, args []string) (*exec.Cmd, error) {
	cmd := exec.Command("powershell.exe",
		"-NoProfile",
		"-NonInteractive",
		"-ExecutionPolicy", "Bypass",
		"-Command", elevationScript(path, args),
	)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true}
	return cmd, nil
}
