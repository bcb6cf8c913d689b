package backend

import "mdviewer/backend/render"

// Status is the banner shown above the viewer.
type Status struct {
	Message string `json:"message"`
	IsError bool   `json:"isError"`
	Visible bool   `json:"visible"`
}

// Affordances tells the frontend which toolbar actions are enabled.
type Affordances struct {
	CanOpen   bool `json:"canOpen"`
	CanReload bool `json:"canReload"`
	CanPrint  bool `json:"canPrint"`
}

// DocumentState is the single source of truth for the viewer UI.
type DocumentState struct {
	CurrentPath string `json:"currentPath"`
	Loading     bool   `json:"loading"`
	LoadID      string `json:"loadId"`
	Status      Status `json:"status"`
}

// Affordances derives the enabled toolbar actions from the state.
func (s DocumentState) Affordances() Affordances {
	hasFile := s.CurrentPath != ""
	return Affordances{
		CanOpen:   !s.Loading,
		CanReload: !s.Loading && hasFile,
		CanPrint:  hasFile,
	}
}

// StateEvent is emitted whenever DocumentState changes. Seq orders it
// against every other event the service emits, since the page may receive
// them out of order.
type StateEvent struct {
	DocumentState
	Affordances Affordances `json:"affordances"`
	Seq         uint64      `json:"seq"`
}

// RenderedDocument is a complete HTML document ready for display.
type RenderedDocument struct {
	LoadID   string           `json:"loadId"`
	Path     string           `json:"path"`
	Title    string           `json:"title"`
	HTML     string           `json:"html"`
	Outline  []render.Heading `json:"outline"`
	Fallback bool             `json:"fallback"`
	Seq      uint64           `json:"seq"`
}
