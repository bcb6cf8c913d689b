package backend

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"mdviewer/backend/render"
)

var log = logrus.WithField("component", "viewer")

// printScript prints the viewer frame, not the toolbar around it.
const printScript = `(document.getElementById('viewer')?.contentWindow || window).print();`

// Renderer turns Markdown into an HTML fragment.
type Renderer interface {
	Render(ctx context.Context, markdown string) (string, error)
}

// Surface is the embedded browser the viewer draws into. Calls are made
// while the service lock is held and must not call back into the service.
type Surface interface {
	LoadHTML(doc RenderedDocument)
	RunScript(js string) error
	PublishState(ev StateEvent)
}

// Notifier shows modal messages.
type Notifier interface {
	Info(title, message string)
	Error(title, message string)
}

// FilePicker asks the user for a Markdown file. An empty path means cancelled.
type FilePicker interface {
	PickMarkdown() (string, error)
}

// ViewerService owns the current document and runs the
// read → render → template → display pipeline.
type ViewerService struct {
	renderer Renderer
	surface  Surface
	notifier Notifier
	picker   FilePicker

	mu         sync.Mutex
	state      DocumentState
	generation uint64
	seq        uint64
	cancel     context.CancelFunc

	wg sync.WaitGroup
}

func NewViewerService(renderer Renderer, surface Surface, notifier Notifier, picker FilePicker) *ViewerService {
	return &ViewerService{
		renderer: renderer,
		surface:  surface,
		notifier: notifier,
		picker:   picker,
	}
}

// SetRenderer swaps the renderer used by loads that start afterwards.
func (s *ViewerService) SetRenderer(renderer Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.renderer = renderer
}

// SetSurface attaches the display surface once the window exists.
func (s *ViewerService) SetSurface(surface Surface) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.surface = surface
	s.publishLocked()
}

// PublishState re-sends the current state, e.g. once the frontend is listening.
func (s *ViewerService) PublishState() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publishLocked()
}

// State returns a snapshot of the document state.
func (s *ViewerService) State() DocumentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LoadDocument runs the whole pipeline for path and returns once the result
// is displayed. Paths that do not name an existing file are ignored. A newer
// call supersedes this one: its render is cancelled and its result dropped.
func (s *ViewerService) LoadDocument(ctx context.Context, path string) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.WithField("path", path).Debug("ignoring load of missing file")
		return
	}

	gen, loadCtx, loadID, renderer := s.begin(ctx, path)
	defer s.finish(gen)

	l := log.WithFields(logrus.Fields{"load_id": loadID, "path": path})
	l.Info("loading document")

	data, err := os.ReadFile(path)
	if err != nil {
		l.WithError(err).Warn("failed to read document")
		s.setStatus(gen, Status{Message: fmt.Sprintf("Error loading file: %v", err), IsError: true, Visible: true})
		return
	}
	markdown := string(data)

	s.setStatus(gen, Status{Message: "Rendering document...", Visible: true})

	doc := RenderedDocument{
		LoadID: loadID,
		Path:   path,
		Title:  filepath.Base(path),
	}

	body, err := renderer.Render(loadCtx, markdown)
	if err != nil {
		if !s.isCurrent(gen) {
			l.Debug("render superseded")
			return
		}

		var rerr *render.Error
		if !errors.As(err, &rerr) {
			rerr = &render.Error{Kind: render.KindUnknown, Message: err.Error(), Err: err}
		}
		l.WithField("kind", rerr.Kind.String()).WithError(err).Warn("render failed, showing source")

		msg := fmt.Sprintf("Rendering error: %s", rerr.Message)
		if rerr.Unreachable() {
			msg = fmt.Sprintf("Connection error: %s", rerr.Message)
		}
		s.setStatus(gen, Status{Message: msg, IsError: true, Visible: true})

		body = FallbackPanel(rerr, markdown)
		doc.Fallback = true
	} else {
		s.setStatus(gen, Status{})
		if outline, oerr := render.Outline(body); oerr == nil {
			doc.Outline = outline
		}
	}

	full, err := BuildDocument(doc.Title, body)
	if err != nil {
		l.WithError(err).Error("failed to build document")
		s.setStatus(gen, Status{Message: fmt.Sprintf("Error loading file: %v", err), IsError: true, Visible: true})
		return
	}
	doc.HTML = full

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		l.Debug("dropping stale document")
		return
	}
	if s.surface != nil {
		s.seq++
		doc.Seq = s.seq
		s.surface.LoadHTML(doc)
	}
	l.WithField("fallback", doc.Fallback).Info("document displayed")
}

// LoadDocumentAsync starts LoadDocument on its own goroutine.
func (s *ViewerService) LoadDocumentAsync(path string) {
	s.goLoad("load", func(ctx context.Context) {
		s.LoadDocument(ctx, path)
	})
}

func (s *ViewerService) goLoad(where string, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.recoverFault(where)
		fn(context.Background())
	}()
}

// Wait blocks until every async load has returned.
func (s *ViewerService) Wait() {
	s.wg.Wait()
}

// Reload re-reads the current document from disk.
func (s *ViewerService) Reload(ctx context.Context) {
	path := s.State().CurrentPath
	if path == "" {
		return
	}
	s.LoadDocument(ctx, path)
}

// ReloadAsync is Reload on its own goroutine.
func (s *ViewerService) ReloadAsync() {
	s.goLoad("reload", s.Reload)
}

// Print asks the surface to print the current document.
func (s *ViewerService) Print() {
	s.mu.Lock()
	hasFile := s.state.CurrentPath != ""
	surface := s.surface
	s.mu.Unlock()

	if !hasFile || surface == nil {
		s.notifier.Info("Warning", "There is no document to print. Open a Markdown file first.")
		return
	}
	if err := surface.RunScript(printScript); err != nil {
		log.WithError(err).Warn("print failed")
		s.notifier.Error("Error", fmt.Sprintf("Print error: %v", err))
	}
}

// OpenFile shows the file picker and loads the chosen file.
func (s *ViewerService) OpenFile() {
	path, err := s.picker.PickMarkdown()
	if err != nil {
		log.WithError(err).Warn("file dialog failed")
		s.ShowStatus(fmt.Sprintf("Unable to open file dialog: %v", err), true)
		return
	}
	if path == "" {
		return
	}
	s.LoadDocumentAsync(path)
}

// HandleDrop loads the first of the dropped paths.
func (s *ViewerService) HandleDrop(paths []string) {
	if len(paths) == 0 {
		return
	}
	log.WithField("paths", paths).Debug("files dropped")
	s.LoadDocumentAsync(paths[0])
}

// OpenStartupFile loads the file named on the command line, reporting a
// missing file in the status banner.
func (s *ViewerService) OpenStartupFile(path string) {
	if path == "" {
		return
	}
	if info, err := os.Stat(path); err != nil || info.IsDir() {
		s.ShowStatus(fmt.Sprintf("File not found: %s", path), true)
		return
	}
	s.LoadDocumentAsync(path)
}

// ShowStatus replaces the status banner outside of a load.
func (s *ViewerService) ShowStatus(message string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = Status{Message: message, IsError: isError, Visible: message != ""}
	s.publishLocked()
}

// ReportFault is the last-resort handler for unexpected failures. The
// process keeps running.
func (s *ViewerService) ReportFault(err error, stack string) {
	log.WithError(err).WithField("stack", stack).Error("unhandled fault")
	s.notifier.Error("Error", fmt.Sprintf("Unhandled error:\n%v", err))
}

func (s *ViewerService) recoverFault(where string) {
	if r := recover(); r != nil {
		s.ReportFault(fmt.Errorf("%s: %v", where, r), string(debug.Stack()))
	}
}

// begin makes path the current document and cancels any load in flight.
func (s *ViewerService) begin(ctx context.Context, path string) (uint64, context.Context, string, Renderer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	loadCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.generation++

	loadID := uuid.NewString()
	s.state.CurrentPath = path
	s.state.Loading = true
	s.state.LoadID = loadID
	s.state.Status = Status{}
	s.publishLocked()

	return s.generation, loadCtx, loadID, s.renderer
}

// finish clears the loading flag unless a newer load has taken over.
func (s *ViewerService) finish(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state.Loading = false
	s.publishLocked()
}

func (s *ViewerService) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

func (s *ViewerService) setStatus(gen uint64, status Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	s.state.Status = status
	s.publishLocked()
}

func (s *ViewerService) publishLocked() {
	if s.surface == nil {
		return
	}
	s.seq++
	s.surface.PublishState(StateEvent{DocumentState: s.state, Affordances: s.state.Affordances(), Seq: s.seq})
}
