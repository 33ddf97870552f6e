package fingerprint

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/replaykit/replaykit/pkg/models"
)

const exportFileMode = 0o600

// ExternalizeScreenshots writes an action's inline screenshots to standalone
// files under dir and rewrites the fingerprint references to relative paths.
// Path references and actions without fingerprints pass through untouched.
// The action is mutated in place; the semantic content of the fingerprint is
// unchanged, only its representation.
func ExternalizeScreenshots(action *models.Action, dir string) error {
	fp, err := action.Fingerprint()
	if err != nil {
		return fmt.Errorf("action %s: %w", action.ID, err)
	}

	if fp == nil {
		return nil
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create screenshot directory: %w", err)
	}

	fp.Screenshot, err = externalizeImage(fp.Screenshot, dir, action.ID+"_screenshot.jpg")
	if err != nil {
		return fmt.Errorf("action %s: %w", action.ID, err)
	}

	fp.ContextScreenshot, err = externalizeImage(fp.ContextScreenshot, dir, action.ID+"_context.jpg")
	if err != nil {
		return fmt.Errorf("action %s: %w", action.ID, err)
	}

	action.Params[models.ParamFingerprint] = fp

	return nil
}

func externalizeImage(ref models.ImageRef, dir, name string) (models.ImageRef, error) {
	if !ref.IsInline() {
		return ref, nil
	}

	data := ref.InlineData()
	if data == nil {
		return ref, nil
	}

	if err := os.WriteFile(filepath.Join(dir, name), data, exportFileMode); err != nil {
		return ref, fmt.Errorf("failed to write screenshot file %s: %w", name, err)
	}

	// Downstream consumers accept the relative path as a valid
	// representation of the same screenshot.
	return models.ImageRef(name), nil
}
