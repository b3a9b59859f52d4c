package intent

import (
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const schemaURL = "https://rollcall.schemas.local/intent.schema.json"

// rawSchema only pins the JSON types of known fields. Which fields are
// required depends on the intent kind and is checked by Normalize so that
// the caller gets a precise message.
const rawSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "error":      {"type": ["string", "null"]},
    "intent":     {"type": ["string", "null"]},
    "className":  {"type": ["string", "null"]},
    "date":       {"type": ["string", "null"]},
    "defaultStatus": {"type": ["string", "null"]},
    "action":     {"type": ["string", "null"]},
    "exceptions": {"type": ["array", "null"], "items": {"type": "string"}},
    "students":   {"type": ["array", "null"], "items": {"$ref": "#/$defs/student"}},
    "filter":     {"$ref": "#/$defs/filter"},
    "updates": {
      "type": ["object", "null"],
      "properties": {
        "renameClass": {
          "type": ["object", "null"],
          "properties": {"newClassName": {"type": ["string", "null"]}}
        },
        "renameStudent": {
          "type": ["object", "null"],
          "properties": {
            "from": {"type": ["string", "null"]},
            "to":   {"type": ["string", "null"]}
          }
        },
        "setStatuses": {"type": ["array", "null"], "items": {"$ref": "#/$defs/student"}}
      }
    },
    "resultKind": {"type": ["string", "null"]},
    "query":      {"type": ["string", "null"]}
  },
  "$defs": {
    "student": {
      "type": "object",
      "properties": {
        "name":   {"type": ["string", "null"]},
        "status": {"type": ["string", "null"]}
      }
    },
    "filter": {
      "type": ["object", "null"],
      "properties": {
        "className": {"type": ["string", "null"]},
        "date":      {"type": ["string", "null"]}
      }
    }
  }
}`

var intentSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(schemaURL, strings.NewReader(rawSchema)); err != nil {
		panic(fmt.Sprintf("intent: schema load failed: %v", err))
	}
	s, err := c.Compile(schemaURL)
	if err != nil {
		panic(fmt.Sprintf("intent: schema compile failed: %v", err))
	}
	return s
}
