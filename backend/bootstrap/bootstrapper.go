// Package bootstrap makes sure the embedded-browser runtime is installed
// before any window is created, downloading and running the vendor
// installer when it is missing.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	DefaultInstallerURL    = "https://go.microsoft.com/fwlink/p/?LinkId=2124703"
	DefaultInstallerName   = "MicrosoftEdgeWebview2Setup.exe"
	DefaultDownloadTimeout = 30 * time.Second
	DefaultInstallTimeout  = 120 * time.Second
	DefaultInstallerMaxAge = 24 * time.Hour
)

var (
	// ErrDownloadFailed means the installer could not be fetched. Fatal.
	ErrDownloadFailed = errors.New("failed to download WebView2 installer")
	// ErrRuntimeUnavailable means the runtime is still missing after installing. Fatal.
	ErrRuntimeUnavailable = errors.New("WebView2 Runtime is not available")
	// ErrElevationCancelled means the user declined the elevation prompt.
	ErrElevationCancelled = errors.New("installation cancelled by user")
	// ErrInstallTimeout means the installer did not exit in time.
	ErrInstallTimeout = errors.New("installer did not finish in time")
)

var log = logrus.WithField("component", "bootstrap")

var (
	silentArgs      = []string{"/silent", "/install"}
	interactiveArgs = []string{"/install"}
)

// Detector reports whether the runtime is usable. Query failures count as
// not installed.
type Detector interface {
	Installed() bool
}

// DetectorFunc adapts a function to Detector.
type DetectorFunc func() bool

func (f DetectorFunc) Installed() bool { return f() }

// StatusFunc receives progress and non-fatal status messages.
type StatusFunc func(message string, isError bool)

// Options configures a Bootstrapper. Zero values take the defaults.
type Options struct {
	Detector       Detector
	Fetcher        Fetcher
	Launcher       Launcher
	InstallerURL   string
	CachePath      string
	MaxAge         time.Duration
	InstallTimeout time.Duration
	Status         StatusFunc
	Now            func() time.Time
}

// Report describes what EnsureRuntime did.
type Report struct {
	AlreadyInstalled  bool
	Downloaded        bool
	SilentInstalled   bool
	ElevatedAttempted bool
	Cancelled         bool
}

// Bootstrapper installs the runtime on demand.
type Bootstrapper struct {
	detector       Detector
	fetcher        Fetcher
	launcher       Launcher
	installerURL   string
	cachePath      string
	maxAge         time.Duration
	installTimeout time.Duration
	status         StatusFunc
	now            func() time.Time
}

// DefaultCachePath is the deterministic installer location in the system temp dir.
func DefaultCachePath() string {
	return filepath.Join(os.TempDir(), DefaultInstallerName)
}

// New creates a Bootstrapper. Detector, Fetcher and Launcher must be set.
func New(opts Options) *Bootstrapper {
	b := &Bootstrapper{
		detector:       opts.Detector,
		fetcher:        opts.Fetcher,
		launcher:       opts.Launcher,
		installerURL:   opts.InstallerURL,
		cachePath:      opts.CachePath,
		maxAge:         opts.MaxAge,
		installTimeout: opts.InstallTimeout,
		status:         opts.Status,
		now:            opts.Now,
	}
	if b.installerURL == "" {
		b.installerURL = DefaultInstallerURL
	}
	if b.cachePath == "" {
		b.cachePath = DefaultCachePath()
	}
	if b.maxAge <= 0 {
		b.maxAge = DefaultInstallerMaxAge
	}
	if b.installTimeout <= 0 {
		b.installTimeout = DefaultInstallTimeout
	}
	if b.status == nil {
		b.status = func(string, bool) {}
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// IsRuntimeInstalled reports whether the runtime is present.
func (b *Bootstrapper) IsRuntimeInstalled() bool {
	return b.detector.Installed()
}

// EnsureRuntime returns nil once the runtime is usable. The returned error
// wraps ErrDownloadFailed or ErrRuntimeUnavailable; both are fatal. A
// declined elevation prompt is reported through the status callback and in
// the Report, not as its own error.
func (b *Bootstrapper) EnsureRuntime(ctx context.Context) (Report, error) {
	var report Report

	if b.IsRuntimeInstalled() {
		report.AlreadyInstalled = true
		return report, nil
	}

	log.Info("WebView2 runtime not found, installing")
	b.status("Installing WebView2 Runtime...", false)

	downloaded, err := b.ensureInstaller(ctx)
	if err != nil {
		log.WithError(err).Error("installer download failed")
		return report, fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	report.Downloaded = downloaded

	err = b.runInstaller(ctx, silentArgs, false)
	if err == nil {
		report.SilentInstalled = true
	} else {
		log.WithError(err).Warn("silent install failed, retrying with elevation")
		report.ElevatedAttempted = true

		err = b.runInstaller(ctx, interactiveArgs, true)
		if errors.Is(err, ErrElevationCancelled) {
			report.Cancelled = true
			b.status("WebView2 installation cancelled by user.", true)
		} else if err != nil {
			log.WithError(err).Warn("elevated install failed")
		}
	}

	if !b.IsRuntimeInstalled() {
		return report, ErrRuntimeUnavailable
	}

	log.Info("WebView2 runtime installed")
	return report, nil
}

// ensureInstaller makes sure a fresh installer sits at the cache path and
// reports whether it had to be downloaded.
func (b *Bootstrapper) ensureInstaller(ctx context.Context) (bool, error) {
	if installerIsFresh(b.cachePath, b.maxAge, b.now()) {
		log.WithField("path", b.cachePath).Debug("reusing cached installer")
		return false, nil
	}

	log.WithFields(logrus.Fields{
		"url":  b.installerURL,
		"path": b.cachePath,
	}).Info("downloading installer")

	if err := downloadInstaller(ctx, b.fetcher, b.installerURL, b.cachePath); err != nil {
		return false, err
	}
	return true, nil
}

func (b *Bootstrapper) runInstaller(ctx context.Context, args []string, elevated bool) error {
	proc, err := b.launcher.Launch(b.cachePath, args, elevated)
	if err != nil {
		return fmt.Errorf("failed to start installer: %w", err)
	}
	return WaitForExit(ctx, proc, b.installTimeout)
}
