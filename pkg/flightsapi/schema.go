package flightsapi

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// airportsSchema describes the payload of GET /api/v1/airports.
// Extra fields on an airport are tolerated.
const airportsSchema = `{
	"type": "object",
	"required": ["data"],
	"properties": {
		"data": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["code", "name"],
				"properties": {
					"code": {"type": "string"},
					"name": {"type": "string"}
				}
			}
		}
	}
}`

var airportsSchemaLoader = gojsonschema.NewStringLoader(airportsSchema)

// MalformedPayloadError lists the schema violations of a backend response
type MalformedPayloadError struct {
	Violations []string
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("malformed airports payload: %s", strings.Join(e.Violations, "; "))
}

func validateAirports(body []byte) error {
	result, err := gojsonschema.Validate(airportsSchemaLoader, gojsonschema.NewBytesLoader(body))
	if err != nil {
		return &MalformedPayloadError{Violations: []string{err.Error()}}
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, resultErr := range result.Errors() {
		violations = append(violations, resultErr.String())
	}
	return &MalformedPayloadError{Violations: violations}
}
