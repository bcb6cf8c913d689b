//go:build !windows

package bootstrap

type systemDetector struct{}

// NewSystemDetector returns a Detector for platforms whose webview ships
// with the OS. It always reports the runtime as present.
func NewSystemDetector() Detector {
	return systemDetector{}
}

func (systemDetector) Installed() bool {
	return true
}
