/* Minindn AVS - adaptive video selection over NDN
 *
 * This file is licensed under the terms of the MIT License, as found in LICENSE.md.
 */

package protocol

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const rangeParamsSchemaJSON = `{
  "type": "object",
  "required": ["client_id", "acceptable_resolutions"],
  "properties": {
    "client_id": {"type": "string", "minLength": 1},
    "acceptable_resolutions": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "priority": {"type": "integer"},
    "timestamp": {"type": "number"}
  }
}`

const reportSchemaJSON = `{
  "type": "object",
  "required": ["forwarder_id", "client_requests"],
  "properties": {
    "forwarder_id": {"type": "string", "minLength": 1},
    "client_requests": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["client_id", "acceptable_resolutions", "TitleID", "chunk"],
        "properties": {
          "client_id": {"type": "string", "minLength": 1},
          "acceptable_resolutions": {
            "type": "array",
            "minItems": 1,
            "items": {"type": "string"}
          },
          "TitleID": {"type": "string"},
          "chunk": {"type": "integer", "minimum": 0},
          "timestamp": {"type": "number"}
        }
      }
    },
    "local_network_state": {"type": "object"}
  }
}`

var (
	rangeParamsSchema = mustSchema("range-params", rangeParamsSchemaJSON)
	reportSchema      = mustSchema("report", reportSchemaJSON)
)

type payloadSchema struct {
	name   string
	schema *gojsonschema.Schema
}

type schemaError struct {
	*gojsonschema.Result
	SchemaName string
}

func (e schemaError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s document failed schema validation:", ErrMalformedPayload, e.SchemaName)
	for _, desc := range e.Result.Errors() {
		fmt.Fprint(&b, " ", desc)
	}
	return b.String()
}

func (e schemaError) Unwrap() error {
	return ErrMalformedPayload
}

func mustSchema(name string, source string) payloadSchema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(source))
	if err != nil {
		panic(fmt.Sprintf("invalid %s schema: %v", name, err))
	}
	return payloadSchema{name: name, schema: schema}
}

func (s payloadSchema) check(b []byte) error {
	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		// not JSON at all
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if !result.Valid() {
		return schemaError{Result: result, SchemaName: s.name}
	}
	return nil
}
