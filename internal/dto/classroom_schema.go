package dto

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidClassroomDocument indicates a classroom payload that does not match its schema.
var ErrInvalidClassroomDocument = errors.New("invalid classroom document")

// Each exam must carry the fields of its own kind: tests need questions and per-result
// scores; assignments need per-result grade and submission date.
const classroomSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["subject", "year", "semester", "teacher_national_id", "students", "exams"],
  "properties": {
    "subject": {"type": "string"},
    "year": {"type": "integer"},
    "semester": {"type": "integer"},
    "teacher_national_id": {"type": "string"},
    "students": {"type": "array", "items": {"type": "string"}},
    "exams": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["kind", "name", "date", "max_value", "results"],
        "properties": {
          "kind": {"enum": ["test", "assignment"]},
          "name": {"type": "string"},
          "date": {"type": "string", "pattern": "^[0-9]{1,2}/[0-9]{1,2}/[0-9]{1,4}$"},
          "max_value": {"type": "number"},
          "questions": {"type": "integer"},
          "expected_runtime": {"type": "integer"},
          "results": {"type": "array", "items": {"type": "object", "required": ["enrollment_id"]}}
        },
        "if": {"properties": {"kind": {"const": "test"}}},
        "then": {
          "required": ["questions"],
          "properties": {
            "results": {
              "items": {
                "required": ["scores"],
                "properties": {"scores": {"type": "array", "items": {"type": "number"}}}
              }
            }
          }
        },
        "else": {
          "required": ["expected_runtime"],
          "properties": {
            "results": {
              "items": {
                "required": ["grade", "submitted_on", "runtime"],
                "properties": {
                  "grade": {"type": "number"},
                  "submitted_on": {"type": "string"},
                  "runtime": {"type": "integer"}
                }
              }
            }
          }
        }
      }
    }
  }
}`

var classroomSchema = jsonschema.MustCompileString("classroom.schema.json", classroomSchemaJSON)

// ValidateClassroomDocument checks a raw classroom payload against the classroom schema.
func ValidateClassroomDocument(raw []byte) error {
	var document interface{}
	if err := json.Unmarshal(raw, &document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidClassroomDocument, err)
	}
	if err := classroomSchema.Validate(document); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidClassroomDocument, err)
	}
	return nil
}
