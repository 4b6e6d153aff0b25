package httpapi

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// requestSchemaRaw constrains job submissions before they reach the service:
// non-empty asset list, string dates, optional interval list.
const requestSchemaRaw = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["assets", "start_date", "end_date"],
  "properties": {
    "assets": {
      "type": "array",
      "minItems": 1,
      "items": {"type": "string", "minLength": 1}
    },
    "intervals": {
      "type": "array",
      "items": {"type": "string", "minLength": 1}
    },
    "start_date": {"type": "string", "minLength": 1},
    "end_date": {"type": "string", "minLength": 1}
  }
}`

var requestSchema = compileRequestSchema()

func compileRequestSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("request.json", strings.NewReader(requestSchemaRaw)); err != nil {
		panic("httpapi: bad request schema: " + err.Error())
	}
	return compiler.MustCompile("request.json")
}

// validateRequestBody checks the raw JSON against the submission schema and
// returns a readable reason on failure.
func validateRequestBody(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("body is not valid JSON: %v", err)
	}
	if err := requestSchema.Validate(v); err != nil {
		return fmt.Errorf("body does not match the request schema: %v", err)
	}
	return nil
}
