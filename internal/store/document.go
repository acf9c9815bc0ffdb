package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// StateKey is the slot key the store persists its document under.
const StateKey = "buildfront:state"

const documentVersion = 1

// ErrIncompatibleState reports a persisted document the store cannot restore.
var ErrIncompatibleState = errors.New("store: incompatible persisted state")

type document struct {
	Version int `json:"version"`
	Snapshot
}

const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "projects", "clients", "contacts", "subscribers"],
  "properties": {
    "version": {"type": "integer"},
    "projects": {"type": "array", "items": {"$ref": "#/definitions/project"}},
    "clients": {"type": "array", "items": {"$ref": "#/definitions/client"}},
    "contacts": {"type": "array", "items": {"$ref": "#/definitions/contact"}},
    "subscribers": {"type": "array", "items": {"$ref": "#/definitions/subscriber"}}
  },
  "definitions": {
    "id": {"type": "string", "minLength": 1},
    "project": {
      "type": "object",
      "required": ["id", "name", "description", "imageUrl"],
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "name": {"type": "string"},
        "description": {"type": "string"},
        "imageUrl": {"type": "string"}
      }
    },
    "client": {
      "type": "object",
      "required": ["id", "name", "description", "designation", "imageUrl"],
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "name": {"type": "string"},
        "description": {"type": "string"},
        "designation": {"type": "string"},
        "imageUrl": {"type": "string"}
      }
    },
    "contact": {
      "type": "object",
      "required": ["id", "fullName", "email", "mobile", "city", "submittedAt"],
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "fullName": {"type": "string"},
        "email": {"type": "string"},
        "mobile": {"type": "string"},
        "city": {"type": "string"},
        "submittedAt": {"type": "string", "format": "date-time"}
      }
    },
    "subscriber": {
      "type": "object",
      "required": ["id", "email", "subscribedAt"],
      "properties": {
        "id": {"$ref": "#/definitions/id"},
        "email": {"type": "string"},
        "subscribedAt": {"type": "string", "format": "date-time"}
      }
    }
  }
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(documentSchema))
	if err != nil {
		panic(fmt.Sprintf("store: compile document schema: %v", err))
	}
	return schema
}

// EncodeSnapshot serializes snap into the persisted document layout.
func EncodeSnapshot(snap Snapshot) ([]byte, error) {
	data, err := json.MarshalIndent(document{Version: documentVersion, Snapshot: snap.Clone()}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("store: encode state: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeSnapshot parses a persisted document. Documents that fail the schema,
// carry another version or repeat an id within a collection are rejected with
// ErrIncompatibleState.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return Snapshot{}, fmt.Errorf("store: decode state: %w", err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return Snapshot{}, fmt.Errorf("%w: %s", ErrIncompatibleState, strings.Join(problems, "; "))
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Snapshot{}, fmt.Errorf("store: decode state: %w", err)
	}
	if doc.Version != documentVersion {
		return Snapshot{}, fmt.Errorf("%w: version %d", ErrIncompatibleState, doc.Version)
	}
	for name, dup := range map[string]string{
		"projects":    duplicateID(doc.Projects),
		"clients":     duplicateID(doc.Clients),
		"contacts":    duplicateID(doc.Contacts),
		"subscribers": duplicateID(doc.Subscribers),
	} {
		if dup != "" {
			return Snapshot{}, fmt.Errorf("%w: duplicate id %q in %s", ErrIncompatibleState, dup, name)
		}
	}
	return doc.Snapshot.Clone(), nil
}

func duplicateID[T entity](items []T) string {
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		id := item.entityID()
		if _, ok := seen[id]; ok {
			return id
		}
		seen[id] = struct{}{}
	}
	return ""
}
