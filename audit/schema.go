package audit

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

const metricSchema = `{
	"type": "object",
	"required": ["name", "score", "status", "description"],
	"properties": {
		"name": {"type": "string"},
		"score": {"type": "number", "minimum": 0, "maximum": 100},
		"status": {"type": "string", "enum": ["good", "average", "poor"]},
		"description": {"type": "string"}
	}
}`

// resultSchemaJSON is the contract the prompt asks the model to follow.
// Lists are optional; a missing list is treated as empty.
var resultSchemaJSON = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["overallScore", "summary", "metrics"],
	"properties": {
		"overallScore": {"type": "number", "minimum": 0, "maximum": 100},
		"summary": {"type": "string"},
		"metrics": {
			"type": "object",
			"required": ["seo", "ux", "performance", "content"],
			"properties": {
				"seo": ` + metricSchema + `,
				"ux": ` + metricSchema + `,
				"performance": ` + metricSchema + `,
				"content": ` + metricSchema + `
			}
		},
		"recommendations": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["priority", "category", "issue", "fix"],
				"properties": {
					"priority": {"type": "string", "enum": ["High", "Medium", "Low"]},
					"category": {"type": "string"},
					"issue": {"type": "string"},
					"fix": {"type": "string"}
				}
			}
		},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"competitors": {"type": "array", "items": {"type": "string"}}
	}
}`

var resultSchema = mustCompileSchema(resultSchemaJSON)

func mustCompileSchema(raw string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
	if err != nil {
		panic(fmt.Sprintf("audit: invalid result schema: %v", err))
	}
	return schema
}

// validateBody checks a fenced block against the result schema. A non-nil
// error means the block is not valid JSON; problems lists schema violations.
func validateBody(body []byte) (problems []string, err error) {
	result, err := resultSchema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	if result.Valid() {
		return nil, nil
	}

	problems = make([]string, len(result.Errors()))
	for i, desc := range result.Errors() {
		problems[i] = desc.String()
	}
	return problems, nil
}
