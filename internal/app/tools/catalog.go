package tools

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var schemaReflector = jsonschema.Reflector{
	AllowAdditionalProperties:  true,
	DoNotReference:             true,
	ExpandedStruct:             true,
	RequiredFromJSONSchemaTags: true,
}

func buildCatalog(specs []toolSpec) ([]*mcp.Tool, error) {
	catalog := make([]*mcp.Tool, 0, len(specs))
	for _, spec := range specs {
		schema, err := inputSchema(spec.args)
		if err != nil {
			return nil, fmt.Errorf("tools: schema for %s: %w", spec.name, err)
		}
		catalog = append(catalog, &mcp.Tool{
			Name:        spec.name,
			Title:       spec.title,
			Description: spec.description,
			InputSchema: schema,
			Annotations: &mcp.ToolAnnotations{
				ReadOnlyHint:  true,
				OpenWorldHint: boolPtr(true),
			},
		})
	}
	return catalog, nil
}

// inputSchema reflects an argument struct into a plain JSON object schema.
func inputSchema(args any) (map[string]any, error) {
	raw, err := json.Marshal(schemaReflector.Reflect(args))
	if err != nil {
		return nil, err
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, err
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	if _, ok := schema["required"]; !ok {
		schema["required"] = []any{}
	}
	return schema, nil
}

func boolPtr(v bool) *bool {
	return &v
}
