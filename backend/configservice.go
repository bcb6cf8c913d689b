package backend

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/sirupsen/logrus"

	"mdviewer/backend/bootstrap"
	"mdviewer/backend/render"
)

const configFileName = "mdviewer.config"

var configLog = logrus.WithField("component", "config")

type ViewerConfig struct {
	RenderEndpoint         string `json:"renderEndpoint" koanf:"render_endpoint"`
	RenderMode             string `json:"renderMode" koanf:"render_mode"`
	RenderTimeoutSeconds   int    `json:"renderTimeoutSeconds" koanf:"render_timeout_seconds"`
	RenderCacheMinutes     int    `json:"renderCacheMinutes" koanf:"render_cache_minutes"`
	UserAgent              string `json:"userAgent" koanf:"user_agent"`
	GitHubToken            string `json:"githubToken" koanf:"github_token"`
	InstallerURL           string `json:"installerUrl" koanf:"installer_url"`
	DownloadTimeoutSeconds int    `json:"downloadTimeoutSeconds" koanf:"download_timeout_seconds"`
	InstallTimeoutSeconds  int    `json:"installTimeoutSeconds" koanf:"install_timeout_seconds"`
	InstallerMaxAgeHours   int    `json:"installerMaxAgeHours" koanf:"installer_max_age_hours"`
	LogLevel               string `json:"logLevel" koanf:"log_level"`
}

var DefaultViewerConfig = ViewerConfig{
	RenderEndpoint:         render.DefaultEndpoint,
	RenderMode:             render.DefaultMode,
	RenderTimeoutSeconds:   int(render.DefaultTimeout / time.Second),
	RenderCacheMinutes:     5,
	UserAgent:              render.DefaultUserAgent,
	GitHubToken:            "",
	InstallerURL:           bootstrap.DefaultInstallerURL,
	DownloadTimeoutSeconds: int(bootstrap.DefaultDownloadTimeout / time.Second),
	InstallTimeoutSeconds:  int(bootstrap.DefaultInstallTimeout / time.Second),
	InstallerMaxAgeHours:   int(bootstrap.DefaultInstallerMaxAge / time.Hour),
	LogLevel:               "info",
}

// RenderOptions maps the config onto render client options.
func (c ViewerConfig) RenderOptions() render.Options {
	return render.Options{
		Endpoint:  c.RenderEndpoint,
		Mode:      c.RenderMode,
		UserAgent: c.UserAgent,
		Token:     c.GitHubToken,
		Timeout:   time.Duration(c.RenderTimeoutSeconds) * time.Second,
		CacheTTL:  time.Duration(c.RenderCacheMinutes) * time.Minute,
	}
}

func (c ViewerConfig) DownloadTimeout() time.Duration {
	return time.Duration(c.DownloadTimeoutSeconds) * time.Second
}

func (c ViewerConfig) InstallTimeout() time.Duration {
	return time.Duration(c.InstallTimeoutSeconds) * time.Second
}

func (c ViewerConfig) InstallerMaxAge() time.Duration {
	return time.Duration(c.InstallerMaxAgeHours) * time.Hour
}

// ConfigService is bound to the frontend, which reads and edits the settings
// through it.
type ConfigService struct {
	path     string
	onUpdate []func(ViewerConfig)
}

// NewConfigService uses path when given, otherwise the portable or per-user location.
func NewConfigService(path string) *ConfigService {
	if path == "" {
		path = defaultConfigPath()
	}
	return &ConfigService{path: path}
}

// Path is where the config file lives, shown in the settings panel.
func (g *ConfigService) Path() string {
	return g.path
}

// OnUpdate registers fn to run after every successful UpdateConfig.
func (g *ConfigService) OnUpdate(fn func(ViewerConfig)) {
	g.onUpdate = append(g.onUpdate, fn)
}

// GetConfig loads the config file, creating it with defaults when missing.
func (g *ConfigService) GetConfig() ViewerConfig {
	if _, err := os.Stat(g.path); os.IsNotExist(err) {
		configLog.WithField("path", g.path).Info("created a new viewer config")
		if err := g.save(DefaultViewerConfig); err != nil {
			configLog.WithError(err).Warn("failed to write default config")
		}
		return DefaultViewerConfig
	}

	data, _ := os.ReadFile(g.path)
	if len(data) == 0 {
		configLog.WithField("path", g.path).Warn("config file is empty")
		return DefaultViewerConfig
	}

	return g.load()
}

func (g *ConfigService) UpdateConfig(config ViewerConfig) error {
	if err := validateConfig(config); err != nil {
		return err
	}
	if err := g.save(config); err != nil {
		configLog.WithError(err).Warn("failed to save config")
		return err
	}
	configLog.WithField("path", g.path).Info("config updated")
	for _, fn := range g.onUpdate {
		fn(config)
	}
	return nil
}

func validateConfig(c ViewerConfig) error {
	if u, err := url.Parse(c.RenderEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("render endpoint must be an absolute URL")
	}
	if c.RenderMode != "gfm" && c.RenderMode != "markdown" {
		return fmt.Errorf("render mode must be gfm or markdown")
	}
	if c.RenderTimeoutSeconds < 1 || c.RenderTimeoutSeconds > 120 {
		return fmt.Errorf("render timeout must be between 1 and 120 seconds")
	}
	if c.RenderCacheMinutes < 0 {
		return fmt.Errorf("render cache minutes must not be negative")
	}
	if u, err := url.Parse(c.InstallerURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("installer URL must be an absolute URL")
	}
	if c.DownloadTimeoutSeconds < 1 {
		return fmt.Errorf("download timeout must be at least 1 second")
	}
	if c.InstallTimeoutSeconds < 1 {
		return fmt.Errorf("install timeout must be at least 1 second")
	}
	if c.InstallerMaxAgeHours < 1 {
		return fmt.Errorf("installer max age must be at least 1 hour")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

func defaultConfigPath() string {
	// portable config next to the working directory wins
	if wd, err := os.Getwd(); err == nil {
		portable := filepath.Join(wd, configFileName)
		if _, err := os.Stat(portable); err == nil {
			return portable
		}
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "mdviewer", configFileName)
}

func (g *ConfigService) save(config ViewerConfig) error {
	k := koanf.New(".")
	if err := k.Load(structs.Provider(config, "koanf"), nil); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(g.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	b, err := k.Marshal(yaml.Parser())
	if err != nil {
		return err
	}
	return os.WriteFile(g.path, b, 0600)
}

func (g *ConfigService) load() ViewerConfig {
	c := DefaultViewerConfig
	k := koanf.New(".")
	if err := k.Load(file.Provider(g.path), yaml.Parser()); err != nil {
		configLog.WithError(err).Warn("error parsing viewer config")
		return DefaultViewerConfig
	}
	if err := k.Unmarshal("", &c); err != nil {
		configLog.WithError(err).Warn("error unmarshaling viewer config")
		return DefaultViewerConfig
	}

	// invalid values fall back to defaults one by one
	d := DefaultViewerConfig
	if u, err := url.Parse(c.RenderEndpoint); err != nil || u.Scheme == "" || u.Host == "" {
		c.RenderEndpoint = d.RenderEndpoint
	}
	if c.RenderMode != "gfm" && c.RenderMode != "markdown" {
		c.RenderMode = d.RenderMode
	}
	if c.RenderTimeoutSeconds < 1 || c.RenderTimeoutSeconds > 120 {
		c.RenderTimeoutSeconds = d.RenderTimeoutSeconds
	}
	if c.RenderCacheMinutes < 0 {
		c.RenderCacheMinutes = d.RenderCacheMinutes
	}
	if c.UserAgent == "" {
		c.UserAgent = d.UserAgent
	}
	if u, err := url.Parse(c.InstallerURL); err != nil || u.Scheme == "" || u.Host == "" {
		c.InstallerURL = d.InstallerURL
	}
	if c.DownloadTimeoutSeconds < 1 {
		c.DownloadTimeoutSeconds = d.DownloadTimeoutSeconds
	}
	if c.InstallTimeoutSeconds < 1 {
		c.InstallTimeoutSeconds = d.InstallTimeoutSeconds
	}
	if c.InstallerMaxAgeHours < 1 {
		c.InstallerMaxAgeHours = d.InstallerMaxAgeHours
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		c.LogLevel = d.LogLevel
	}

	return c
}
