package web

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// sessionExportSchema validates the shape of an uploaded recording export
// before any decoding happens. Record payloads stay loose on purpose: the
// converter classifies raw versus canonical records itself.
const sessionExportSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["name", "records"],
	"properties": {
		"id": {"type": "string"},
		"name": {"type": "string", "minLength": 1},
		"platform": {"type": "string"},
		"startUrl": {"type": "string"},
		"recorded_at": {"type": "string"},
		"records": {
			"type": "array",
			"items": {"type": "object"}
		}
	}
}`

var sessionSchemaLoader = gojsonschema.NewStringLoader(sessionExportSchema)

// validateSessionDocument returns schema violations, or an error when the
// document is not valid JSON at all.
func validateSessionDocument(raw []byte) ([]string, error) {
	result, err := gojsonschema.Validate(sessionSchemaLoader, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse session document: %w", err)
	}

	if result.Valid() {
		return nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return violations, nil
}
