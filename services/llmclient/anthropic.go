package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/tmc/langchaingo/llms"
)

// AnthropicClient is a hosted-API implementation of StructuredCaller.
// Interchangeable with the local Ollama-backed Client wherever a
// StructuredCaller is consumed.
type AnthropicClient struct {
	client  *anthropic.Client
	timeout time.Duration
}

func NewAnthropicClient(apiKey string, timeout time.Duration) *AnthropicClient {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicClient{
		client:  &client,
		timeout: timeout,
	}
}

// IsAlive always reports true: the hosted API exposes no cheap probe
// endpoint, so connection failures surface on the call itself and map to
// ErrBackendUnavailable there.
func (c *AnthropicClient) IsAlive(ctx context.Context) bool {
	return true
}

func (c *AnthropicClient) GenerateStructured(ctx context.Context, prompt string, tool llms.Tool, out any) error {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	inputSchema := anthropic.ToolInputSchemaParam{}
	if params, ok := tool.Function.Parameters.(map[string]any); ok {
		if props, ok := params["properties"]; ok {
			inputSchema.Properties = props
		}
	}

	started := time.Now()
	log.Printf("[INFO] Calling Anthropic API for structured output via tool %s", tool.Function.Name)
	response, err := c.client.Messages.New(callCtx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaude4Sonnet20250514,
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Tools: []anthropic.ToolUnionParam{
			{
				OfTool: &anthropic.ToolParam{
					Name:        tool.Function.Name,
					Description: anthropic.String(tool.Function.Description),
					InputSchema: inputSchema,
				},
			},
		},
		ToolChoice: anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: tool.Function.Name},
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			log.Printf("[ERROR] Anthropic structured call timed out after %s", time.Since(started))
			return &TimeoutError{Elapsed: time.Since(started), Limit: c.timeout}
		}
		log.Printf("[ERROR] Failed to call Anthropic API: %v", err)
		return fmt.Errorf("anthropic call failed: %w", ErrBackendUnavailable)
	}

	for _, block := range response.Content {
		if toolUse, ok := block.AsAny().(anthropic.ToolUseBlock); ok && toolUse.Name == tool.Function.Name {
			inputJSON, err := json.Marshal(toolUse.Input)
			if err != nil {
				return &SchemaError{Tool: tool.Function.Name, Reason: "tool input not serializable", Err: err}
			}
			if err := json.Unmarshal(inputJSON, out); err != nil {
				log.Printf("[ERROR] Failed to parse %s arguments: %v", tool.Function.Name, err)
				return &SchemaError{Tool: tool.Function.Name, Reason: "arguments did not match schema", Err: err}
			}
			return nil
		}
	}

	log.Printf("[ERROR] No tool use block in Anthropic response for %s", tool.Function.Name)
	return &SchemaError{Tool: tool.Function.Name, Reason: "no tool use block in response"}
}
