// Copyright 2025 James Ross
package jobservice

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/flyingrobots/videoapi/internal/apierr"
)

// requestSchema describes the generation request body's structural shape,
// checked before any tier/duration/quota rule runs so a malformed body
// (missing field, wrong type, out-of-enum value) never touches admission
// state.
var requestSchema = gojsonschema.NewStringLoader(`{
	"type": "object",
	"required": ["prompt", "duration"],
	"properties": {
		"prompt": {"type": "string", "minLength": 1, "maxLength": 2000},
		"duration": {"type": "integer", "minimum": 1, "maximum": 300},
		"resolution": {"type": "string", "enum": ["480p", "720p", "1080p", "4k"]},
		"aspect_ratio": {"type": "string", "enum": ["16:9", "9:16", "1:1", "4:3"]},
		"style": {"type": "string", "enum": ["cinematic", "anime", "realistic", "artistic", "documentary"]},
		"model": {"type": "string"},
		"webhook_url": {"type": "string"},
		"metadata": {"type": "object"}
	}
}`)

// ValidateSchema checks raw against requestSchema, returning a
// VALIDATION_ERROR apierr listing every violation found (not just the
// first).
func ValidateSchema(raw []byte) error {
	var probe any
	if err := json.Unmarshal(raw, &probe); err != nil {
		return apierr.ValidationFailed("request body is not valid JSON", map[string]any{"parse_error": err.Error()})
	}

	result, err := gojsonschema.Validate(requestSchema, gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return apierr.ValidationFailed("could not validate request schema", map[string]any{"error": err.Error()})
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return apierr.ValidationFailed(fmt.Sprintf("request body failed schema validation: %s", strings.Join(msgs, "; ")),
			map[string]any{"violations": msgs})
	}
	return nil
}
