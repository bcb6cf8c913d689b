package bootstrap

import (
	"context"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// Process is a started installer.
type Process interface {
	// Wait blocks until the process exits. A nonzero exit is an error.
	Wait() error
}

// Launcher starts the installer binary, optionally asking the OS for elevation.
type Launcher interface {
	Launch(path string, args []string, elevated bool) (Process, error)
}

// WaitForExit waits for proc to exit, for timeout to elapse, or for ctx to
// be done, whichever comes first. The process is never killed; on timeout
// the waiter goroutine finishes on its own once the process exits.
func WaitForExit(ctx context.Context, proc Process, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- proc.Wait()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return ErrInstallTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execLauncher starts installers with os/exec. Elevated launches go through
// a platform helper, see elevatedCommand.
type execLauncher struct{}

// NewSystemLauncher returns the Launcher used outside of tests.
func NewSystemLauncher() Launcher {
	return execLauncher{}
}

func (execLauncher) Launch(path string, args []string, elevated bool) (Process, error) {
	var cmd *exec.Cmd
	if elevated {
		c, err := elevatedCommand(path, args)
		if err != nil {
			return nil, err
		}
		cmd = c
	} else {
		cmd = exec.Command(path, args...)
	}

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &cmdProcess{cmd: cmd, elevated: elevated}, nil
}

type cmdProcess struct {
	cmd      *exec.Cmd
	elevated bool
}

func (p *cmdProcess) Wait() error {
	err := p.cmd.Wait()
	var exitErr *exec.ExitError
	if p.elevated && errors.As(err, &exitErr) && exitErr.ExitCode() == elevationCancelledCode {
		return ErrElevationCancelled
	}
	return err
}

// elevationScript is the PowerShell program that runs path with the "runas"
// verb, waits for it, and exits with its exit code. A declined UAC prompt
// surfaces as elevationCancelledCode.
func elevationScript(path string, args []string) string {
	argList := ""
	if len(args) > 0 {
		quoted := make([]string, 0, len(args))
		for _, a := range args {
			quoted = append(quoted, psQuote(a))
		}
		argList = " -ArgumentList @(" + strings.Join(quoted, ",") + ")"
	}

	code := strconv.Itoa(elevationCancelledCode)
	return "$ErrorActionPreference = 'Stop'; " +
		"try { " +
		"$p = Start-Process -FilePath " + psQuote(path) + argList + " -Verb RunAs -PassThru -Wait; " +
		"exit $p.ExitCode " +
		"} catch { " +
		"$e = $_.Exception; " +
		"while ($e) { if ($e.NativeErrorCode -eq " + code + ") { exit " + code + " }; $e = $e.InnerException }; " +
		"exit 1 " +
		"}"
}

func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
