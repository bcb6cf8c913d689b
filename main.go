package main

import (
	"context"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/sqweek/dialog"
	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"

	"mdviewer/backend"
	"mdviewer/backend/render"
)

// The toolbar, status banner and viewer frame live in frontend/dist and are
// embedded into the binary.
//
//go:embed all:frontend/dist
var assets embed.FS

var log = logrus.WithField("component", "main")

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:          "mdviewer [file]",
		Short:        "Open a Markdown file and view it rendered by the GitHub markdown API",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			var file string
			if len(args) == 1 {
				file = args[0]
			}
			return run(cmd.Context(), configPath, file)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to the viewer config file")
	return cmd
}

func run(ctx context.Context, configPath, startupFile string) error {
	configService := backend.NewConfigService(configPath)
	cfg := configService.GetConfig()
	setupLogging(cfg.LogLevel)

	if err := ensureRuntime(ctx, cfg); err != nil {
		return fatal("WebView2 Runtime Required", err)
	}

	userDataDir, err := webviewDataDir()
	if err != nil {
		return fatal("Startup error", err)
	}

	dialogs := backend.NativeDialogs{}
	viewer := backend.NewViewerService(render.NewClient(cfg.RenderOptions()), nil, dialogs, dialogs)

	// settings saved from the frontend apply to the next load
	configService.OnUpdate(func(c backend.ViewerConfig) {
		setupLogging(c.LogLevel)
		viewer.SetRenderer(render.NewClient(c.RenderOptions()))
	})

	app := application.New(application.Options{
		Name:        "MDViewer",
		Description: "Markdown viewer backed by the GitHub markdown API",
		Services: []application.Service{
			application.NewService(configService),
		},
		Assets: application.AssetOptions{
			Handler: application.AssetFileServerFS(assets),
		},
		Mac: application.MacOptions{
			ApplicationShouldTerminateAfterLastWindowClosed: true,
		},
		Windows: application.WindowsOptions{
			WebviewUserDataPath: userDataDir,
		},
		PanicHandler: func(details *application.PanicDetails) {
			viewer.ReportFault(details.Error, details.StackTrace)
		},
	})

	window := app.Window.NewWithOptions(application.WebviewWindowOptions{
		Title:             "MDViewer",
		EnableDragAndDrop: true,
		BackgroundColour:  application.NewRGB(255, 255, 255),
		URL:               "/",
		Width:             1100,
		Height:            800,
	})

	viewer.SetSurface(backend.NewWindowSurface(app, window))

	window.OnWindowEvent(events.Common.WindowFilesDropped, func(event *application.WindowEvent) {
		viewer.HandleDrop(event.Context().DroppedFiles())
	})

	// the frontend announces itself once its listeners are in place
	var startup sync.Once
	app.Event.On(backend.EventReady, func(*application.CustomEvent) {
		viewer.PublishState()
		startup.Do(func() {
			viewer.OpenStartupFile(startupFile)
		})
	})
	app.Event.On(backend.EventOpen, func(*application.CustomEvent) {
		go viewer.OpenFile()
	})
	app.Event.On(backend.EventReload, func(*application.CustomEvent) {
		viewer.ReloadAsync()
	})
	app.Event.On(backend.EventPrint, func(*application.CustomEvent) {
		go viewer.Print()
	})

	if err := app.Run(); err != nil {
		log.WithError(err).Error("application exited with error")
		return err
	}
	viewer.Wait()
	return nil
}

func setupLogging(level string) {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
}

// webviewDataDir returns the per-user profile directory for the embedded
// browser, creating it if needed.
func webviewDataDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to locate local data directory: %w", err)
	}
	dir := filepath.Join(base, "MDViewer", "WebView2")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create WebView2 data folder: %w", err)
	}
	return dir, nil
}

func fatal(title string, err error) error {
	log.WithError(err).Error(title)
	dialog.Message("%s", err.Error()).Title(title).Error()
	return err
}
