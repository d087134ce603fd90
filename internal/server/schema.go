package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/p-n-ai/pai-suggest/internal/recommend"
)

// suggestionRequestSchema accepts the element under any of the names the
// editor clients send. A null element counts as absent. Unknown fields are ignored.
const suggestionRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "definitions": {
    "element": {
      "type": ["object", "null"],
      "properties": {
        "id": {"type": "string"},
        "_id": {"type": "string"},
        "title": {"type": "string"},
        "description": {"type": ["string", "null"]},
        "type": {"enum": ["overallGoal", "goal", "subgoal", "requirement"]},
        "level": {"type": ["integer", "null"]}
      },
      "required": ["title"]
    }
  },
  "properties": {
    "element": {"$ref": "#/definitions/element"},
    "gdtaElement": {"$ref": "#/definitions/element"},
    "gdtaNode": {"$ref": "#/definitions/element"},
    "limit": {"type": "integer"}
  }
}`

var requestSchema = mustCompileSchema(suggestionRequestSchema)

func mustCompileSchema(src string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("compile request schema: %v", err))
	}
	return schema
}

type elementBody struct {
	ID          string `json:"id"`
	MongoID     string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Level       int    `json:"level"`
}

type suggestionBody struct {
	Element     *elementBody `json:"element"`
	GDTAElement *elementBody `json:"gdtaElement"`
	GDTANode    *elementBody `json:"gdtaNode"`
	Limit       *int         `json:"limit"`
}

// parseSuggestionRequest validates a request body and converts it to a
// service request. An empty body is the unranked request.
func parseSuggestionRequest(body []byte) (recommend.Request, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	result, err := requestSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return recommend.Request{}, fmt.Errorf("%w: malformed JSON: %w", recommend.ErrInvalidRequest, err)
	}
	if !result.Valid() {
		problems := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return recommend.Request{}, fmt.Errorf("%w: %s", recommend.ErrInvalidRequest, strings.Join(problems, "; "))
	}

	var b suggestionBody
	if err := json.Unmarshal(body, &b); err != nil {
		return recommend.Request{}, fmt.Errorf("%w: decode request: %w", recommend.ErrInvalidRequest, err)
	}

	req := recommend.Request{Limit: b.Limit}
	if e := firstElement(b.Element, b.GDTAElement, b.GDTANode); e != nil {
		id := e.ID
		if id == "" {
			id = e.MongoID
		}
		req.Element = &recommend.Element{
			ID:          id,
			Title:       e.Title,
			Description: e.Description,
			Type:        recommend.ElementType(e.Type),
			Level:       e.Level,
		}
	}
	return req, nil
}

func firstElement(candidates ...*elementBody) *elementBody {
	for _, e := range candidates {
		if e != nil {
			return e
		}
	}
	return nil
}
