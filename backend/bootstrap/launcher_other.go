//go:build !windows

package bootstrap

import (
	"errors"
	"os/exec"
)

// Matches ERROR_CANCELLED on Windows so scripts stay portable.
const elevationCancelledCode = 1223

func elevatedCommand(path string, args []string) (*exec.Cmd, error) {
	return nil, errors.New("elevated install is only supported on windows")
}
