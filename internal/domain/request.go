package domain

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/xeipuuv/gojsonschema"
)

// requestSchema checks the shape of an assessment request. Mode values are
// validated by AllocationMode so the error names the allowed set consistently.
const requestSchema = `{
  "type": "object",
  "properties": {
    "request_id": {"type": "string"},
    "gauge_ids": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "zone_ids": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "zone_probabilities": {"type": "object", "additionalProperties": {"type": "number"}},
    "total_units": {"type": "integer"},
    "mode": {"type": "string"},
    "horizon_hours": {"type": "integer"}
  },
  "required": ["total_units"],
  "anyOf": [
    {"required": ["gauge_ids"]},
    {"required": ["zone_probabilities"]}
  ]
}`

var compiledRequestSchema = mustCompileSchema(requestSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return schema
}

// ParseAssessmentRequest validates a raw message against the request schema
// and decodes it. A request without an id takes the message key, or a fresh
// UUID when the key is empty.
func ParseAssessmentRequest(raw RawEvent) (AssessmentRequest, error) {
	result, err := compiledRequestSchema.Validate(gojsonschema.NewBytesLoader(raw.Value))
	if err != nil {
		return AssessmentRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return AssessmentRequest{}, fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, "; "))
	}

	var req AssessmentRequest
	if err := json.Unmarshal(raw.Value, &req); err != nil {
		return AssessmentRequest{}, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if req.ID == "" {
		req.ID = string(raw.Key)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	return req, nil
}
