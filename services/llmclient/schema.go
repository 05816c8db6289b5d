package llmclient

import (
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/invopop/jsonschema"
	"github.com/tmc/langchaingo/llms"
)

// ToolFor reflects a JSON schema from the parameter struct T and wraps it
// in a langchaingo function-calling tool. Field constraints come from
// jsonschema struct tags on T.
func ToolFor[T any](name, description string) llms.Tool {
	schema := reflectSchema[T]()

	raw, err := json.Marshal(schema)
	if err != nil {
		panic(fmt.Sprintf("failed to marshal schema for tool %s: %v", name, err))
	}

	var params map[string]any
	if err := json.Unmarshal(raw, &params); err != nil {
		panic(fmt.Sprintf("failed to build parameters for tool %s: %v", name, err))
	}
	delete(params, "$schema")
	delete(params, "$id")

	return llms.Tool{
		Type: "function",
		Function: &llms.FunctionDefinition{
			Name:        name,
			Description: description,
			Parameters:  params,
		},
	}
}

// AnthropicSchemaFor reflects the same parameter struct into the Anthropic
// tool input shape.
func AnthropicSchemaFor[T any]() anthropic.ToolInputSchemaParam {
	schema := reflectSchema[T]()
	return anthropic.ToolInputSchemaParam{
		Properties: schema.Properties,
	}
}

func reflectSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
