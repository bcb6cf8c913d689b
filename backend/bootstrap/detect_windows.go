//go:build windows

package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/wailsapp/go-webview2/webviewloader"
	"golang.org/x/sys/windows/registry"
)

const installKeyPath = `Software\Microsoft\EdgeUpdate\ClientState\`

// WebView2 client GUIDs: stable, beta, dev, canary
var channelUUIDs = []string{
	"{F3017226-FE2A-4295-8BDF-00C3A9A7E4C5}",
	"{2CD8A007-E189-409D-A2C8-9AF4EF3C72AA}",
	"{0D50BFEC-CD6A-4F9A-964C-C7416E3ACB10}",
	"{65C35B14-6C1D-4122-AC46-7148CC9D6497}",
}

type systemDetector struct{}

// NewSystemDetector returns a Detector that asks the WebView2 loader for the
// installed browser version and falls back to the EdgeUpdate registry keys.
func NewSystemDetector() Detector {
	return systemDetector{}
}

func (d systemDetector) Installed() (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Warn("runtime version query panicked")
			ok = false
		}
	}()

	if v, err := webviewloader.GetAvailableCoreWebView2BrowserVersionString(""); err == nil && v != "" {
		log.WithField("version", v).Debug("webview2 loader reports runtime")
		return true
	}

	v, err := findRegistryInstallation()
	if err != nil {
		log.WithError(err).Debug("webview2 not found in registry")
		return false
	}
	log.WithField("version", v.String()).WithField("channel", v.Channel).Debug("webview2 found in registry")
	return true
}

func findRegistryInstallation() (*Version, error) {
	minimum, err := ParseVersion(MinimumVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to parse minimum version: %w", err)
	}

	for _, uuid := range channelUUIDs {
		for _, root := range []registry.Key{registry.LOCAL_MACHINE, registry.CURRENT_USER} {
			for _, access := range []uint32{registry.READ, registry.READ | registry.WOW64_32KEY} {
				v, err := readRegistryVersion(root, installKeyPath+uuid, access)
				if err != nil {
					continue
				}
				if v.Compare(minimum) >= 0 {
					v.Channel = channelName(uuid)
					return v, nil
				}
			}
		}
	}

	return nil, fmt.Errorf("WebView2 not found or version too old")
}

func readRegistryVersion(root registry.Key, keyPath string, access uint32) (*Version, error) {
	key, err := registry.OpenKey(root, keyPath, access)
	if err != nil {
		return nil, err
	}
	defer key.Close()

	// EBWebView holds the install folder, whose last element is the version
	folder, _, err := key.GetStringValue("EBWebView")
	if err != nil {
		return nil, err
	}
	if folder == "" {
		return nil, fmt.Errorf("empty EBWebView value")
	}

	v, err := ParseVersion(filepath.Base(folder))
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(folder); err != nil {
		return nil, fmt.Errorf("WebView2 path does not exist: %s", folder)
	}

	v.Path = folder
	return &v, nil
}
