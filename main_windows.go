//go:build windows

package main

import (
	"context"
	"fmt"

	"mdviewer/backend"
	"mdviewer/backend/bootstrap"
)

func ensureRuntime(ctx context.Context, cfg backend.ViewerConfig) error {
	fetcher, err := bootstrap.NewHTTPFetcher(cfg.DownloadTimeout())
	if err != nil {
		return err
	}

	b := bootstrap.New(bootstrap.Options{
		Detector:       bootstrap.NewSystemDetector(),
		Fetcher:        fetcher,
		Launcher:       bootstrap.NewSystemLauncher(),
		InstallerURL:   cfg.InstallerURL,
		MaxAge:         cfg.InstallerMaxAge(),
		InstallTimeout: cfg.InstallTimeout(),
		Status: func(message string, isError bool) {
			if isError {
				log.Warn(message)
				return
			}
			log.Info(message)
		},
	})

	report, err := b.EnsureRuntime(ctx)
	if err != nil {
		if report.Cancelled {
			return fmt.Errorf("%w: installation cancelled by user", err)
		}
		return fmt.Errorf("%w\n\nPlease install WebView2 manually from:\nhttps://developer.microsoft.com/microsoft-edge/webview2/", err)
	}
	return nil
}
