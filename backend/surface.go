package backend

import (
	"github.com/wailsapp/wails/v3/pkg/application"
)

// Event names shared with the frontend.
const (
	EventDocument = "viewer:document"
	EventState    = "viewer:state"
	EventOpen     = "viewer:open"
	EventReload   = "viewer:reload"
	EventPrint    = "viewer:print"
	EventReady    = "viewer:ready"
)

// WindowSurface displays documents in the viewer frame of a Wails window.
type WindowSurface struct {
	app    *application.App
	window *application.WebviewWindow
}

func NewWindowSurface(app *application.App, window *application.WebviewWindow) *WindowSurface {
	return &WindowSurface{app: app, window: window}
}

// newEvent carries data as the event payload itself. Event.Emit would wrap
// its variadic data in a slice, and the page reads ev.data as one object.
func newEvent(name string, data any) *application.CustomEvent {
	return &application.CustomEvent{Name: name, Data: data}
}

func (w *WindowSurface) LoadHTML(doc RenderedDocument) {
	w.app.Event.EmitEvent(newEvent(EventDocument, doc))
	w.window.SetTitle(doc.Title + " - MDViewer")
}

func (w *WindowSurface) RunScript(js string) error {
	w.window.ExecJS(js)
	return nil
}

func (w *WindowSurface) PublishState(ev StateEvent) {
	w.app.Event.EmitEvent(newEvent(EventState, ev))
}
