//go:build !windows

package main

import (
	"context"

	"mdviewer/backend"
)

// The system webview is part of the OS outside of Windows.
func ensureRuntime(ctx context.Context, cfg backend.ViewerConfig) error {
	return nil
}
