// Package models defines the core domain models for visual recording and replay.
package models

import (
	"encoding/base64"
	"strings"
)

// ImageRef holds raster image evidence in one of two admissible
// representations: inline-encoded data (a data URL or bare base64 payload) or
// a relative file path written by the screenshot externalization pass. All
// consumers accept either form.
type ImageRef string

const dataURLPrefix = "data:"

// IsZero reports whether no image is attached.
func (r ImageRef) IsZero() bool {
	return r == ""
}

// IsInline reports whether the reference carries the encoded image bytes
// rather than a file path. Bare payloads are detected by base64
// decodability: standard base64 output routinely contains '/', so no
// path-character heuristic can tell the two apart.
func (r ImageRef) IsInline() bool {
	if r.IsZero() {
		return false
	}

	if strings.HasPrefix(string(r), dataURLPrefix) {
		return true
	}

	_, err := base64.StdEncoding.DecodeString(string(r))

	return err == nil
}

// IsPath reports whether the reference is a relative file path.
func (r ImageRef) IsPath() bool {
	return !r.IsZero() && !r.IsInline()
}

// InlineData returns the raw image bytes for an inline reference. Path
// references and malformed payloads yield nil.
func (r ImageRef) InlineData() []byte {
	if r.IsZero() {
		return nil
	}

	payload := string(r)
	if strings.HasPrefix(payload, dataURLPrefix) {
		idx := strings.Index(payload, ",")
		if idx < 0 {
			return nil
		}

		payload = payload[idx+1:]
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}

	return data
}

// ByteSize returns the decoded size of an inline image, or 0 for path
// references (their on-disk size is outside the action's storage budget).
func (r ImageRef) ByteSize() int {
	return len(r.InlineData())
}

// NewInlineImage encodes raw image bytes as an inline data-URL reference.
func NewInlineImage(mime string, data []byte) ImageRef {
	return ImageRef(dataURLPrefix + mime + ";base64," + base64.StdEncoding.EncodeToString(data))
}

// Point is an absolute page coordinate in CSS pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// RelativePoint locates an element as a fraction of the viewport, which
// survives window resizes better than absolute coordinates.
type RelativePoint struct {
	XPercent float64 `json:"xPercent"`
	YPercent float64 `json:"yPercent"`
}

// Position records where the element was at capture time, in both absolute
// and viewport-relative terms.
type Position struct {
	Absolute Point         `json:"absolute"`
	Relative RelativePoint `json:"relative"`
}

// BoundingBox is the element's layout rectangle at capture time.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Viewport is the window size at capture time.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Fingerprint is the multi-modal descriptor of a UI element captured during
// recording and used to relocate the element during replay. It is created
// once by the recorder; the only later mutations are optimizer transforms and
// the screenshot externalization rewrite.
type Fingerprint struct {
	Screenshot        ImageRef    `json:"screenshot,omitempty"`
	ContextScreenshot ImageRef    `json:"contextScreenshot,omitempty"`
	Text              string      `json:"text,omitempty"`
	Position          Position    `json:"position"`
	BoundingBox       BoundingBox `json:"boundingBox"`
	SurroundingText   []string    `json:"surroundingText,omitempty"`
	Timestamp         int64       `json:"timestamp"`
	Viewport          Viewport    `json:"viewport"`
}

// Clone returns a deep copy so optimizer transforms never alias the stored
// fingerprint.
func (f *Fingerprint) Clone() *Fingerprint {
	if f == nil {
		return nil
	}

	clone := *f
	if f.SurroundingText != nil {
		clone.SurroundingText = append([]string(nil), f.SurroundingText...)
	}

	return &clone
}
