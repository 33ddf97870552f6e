// Package capture turns raw page interactions into structured action records
// with attached visual, textual and positional evidence.
package capture

import (
	"context"

	"github.com/replaykit/replaykit/pkg/models"
)

// PageEventKind enumerates the page-side events a recorder session consumes.
type PageEventKind string

const (
	PageEventClick         PageEventKind = "click"
	PageEventInput         PageEventKind = "input"
	PageEventScroll        PageEventKind = "scroll"
	PageEventNavigation    PageEventKind = "navigation"
	PageEventFileSelected  PageEventKind = "file_selected"
	PageEventNodeInserted  PageEventKind = "node_inserted"
	PageEventFrameAttached PageEventKind = "frame_attached"
)

// Navigation mechanisms reported on PageEventNavigation.
const (
	NavigationHistory = "history"
	NavigationReload  = "reload"
	NavigationPolled  = "poll"
)

// ElementInfo describes the event's target element. NodeID is a stable
// identity for the underlying node, used to deduplicate observed containers.
type ElementInfo struct {
	NodeID          string
	Selector        string
	Text            string
	SurroundingText []string
	Position        models.Position
	BoundingBox     models.BoundingBox
	InputType       string
	InputName       string
	InputID         string
	Placeholder     string
	CrossOrigin     bool
}

// PageEvent is one observation from the live page.
type PageEvent struct {
	Kind      PageEventKind
	Timestamp int64
	Target    ElementInfo
	Value     string
	URL       string
	Mechanism string
	DeltaX    float64
	DeltaY    float64
	File      string
	Viewport  models.Viewport
}

// PageEventSource is the abstract page-change event source a session
// subscribes to. Implementations wrap whatever browser transport delivers
// the events; the session layers the dedupe-by-node-identity guarantee on
// top.
type PageEventSource interface {
	Subscribe(ctx context.Context) (<-chan PageEvent, error)
	Unsubscribe()
}

// ContainerAttacher is an optional source capability: sources that must
// explicitly hook newly inserted overlay subtrees or same-origin iframes
// implement it. The session guarantees Attach is called at most once per
// node identity.
type ContainerAttacher interface {
	Attach(ctx context.Context, target ElementInfo) error
}

// URLSource is an optional source capability backing the navigation polling
// fallback for URL changes neither history interception nor reload
// interception observes.
type URLSource interface {
	CurrentURL(ctx context.Context) (string, error)
}

// ScreenshotCapturer captures raster evidence for a target element. Capture
// runs asynchronously relative to the interaction event; results are joined
// to the already-emitted record by its timestamp key.
type ScreenshotCapturer interface {
	CaptureElement(ctx context.Context, target ElementInfo) (models.ImageRef, error)
	CaptureContext(ctx context.Context, target ElementInfo) (models.ImageRef, error)
}

// Sink receives emitted raw records. The record pointer stays live after
// Emit: asynchronous enrichment mutates the record's fingerprint in place.
type Sink interface {
	Emit(ctx context.Context, record *models.RawRecord) error
}
