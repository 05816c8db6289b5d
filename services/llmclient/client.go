package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

// StructuredCaller produces schema-validated objects from free-text
// prompts. This layer never retries: retry is the caller's job, since only
// the caller knows the domain-specific repair strategy.
type StructuredCaller interface {
	GenerateStructured(ctx context.Context, prompt string, tool llms.Tool, out any) error
	IsAlive(ctx context.Context) bool
}

// Client wraps a chat-completion backend with a pre-flight liveness probe,
// a bounded per-call timeout, and tool-call based structured output.
type Client struct {
	llm          llms.Model
	pinger       Pinger
	timeout      time.Duration
	probeTimeout time.Duration
}

// Pinger is the cheap liveness probe against the backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewClient builds a structured client around any langchaingo model.
func NewClient(llm llms.Model, pinger Pinger, timeout, probeTimeout time.Duration) *Client {
	return &Client{
		llm:          llm,
		pinger:       pinger,
		timeout:      timeout,
		probeTimeout: probeTimeout,
	}
}

// NewOllamaClient builds a structured client against a local Ollama server,
// with the server's tags endpoint as the liveness probe.
func NewOllamaClient(serverURL, model string, timeout, probeTimeout time.Duration) (*Client, error) {
	llm, err := ollama.New(
		ollama.WithModel(model),
		ollama.WithServerURL(serverURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return NewClient(llm, &ollamaPinger{serverURL: serverURL}, timeout, probeTimeout), nil
}

// IsAlive runs the liveness probe with its own short timeout.
func (c *Client) IsAlive(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, c.probeTimeout)
	defer cancel()

	if err := c.pinger.Ping(probeCtx); err != nil {
		log.Printf("[WARN] LLM backend liveness probe failed: %v", err)
		return false
	}
	return true
}

// GenerateStructured prompts the backend with a single required tool and
// unmarshals the tool call arguments into out, which must be a pointer to
// the tool's parameter struct.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, tool llms.Tool, out any) error {
	if !c.IsAlive(ctx) {
		return fmt.Errorf("liveness probe failed: %w", ErrBackendUnavailable)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := time.Now()
	log.Printf("[INFO] Calling LLM for structured output via tool %s", tool.Function.Name)
	resp, err := c.llm.GenerateContent(callCtx,
		[]llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)},
		llms.WithTools([]llms.Tool{tool}),
		llms.WithTemperature(0.7),
		llms.WithToolChoice("required"))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || callCtx.Err() == context.DeadlineExceeded {
			log.Printf("[ERROR] Structured call timed out after %s", time.Since(started))
			return &TimeoutError{Elapsed: time.Since(started), Limit: c.timeout}
		}
		log.Printf("[ERROR] Failed to generate structured response: %v", err)
		return fmt.Errorf("failed to generate structured response: %w", err)
	}

	return decodeToolCall(resp, tool, out)
}

func decodeToolCall(resp *llms.ContentResponse, tool llms.Tool, out any) error {
	if len(resp.Choices) == 0 || len(resp.Choices[0].ToolCalls) == 0 {
		log.Printf("[ERROR] No tool calls in LLM response for %s", tool.Function.Name)
		return &SchemaError{Tool: tool.Function.Name, Reason: "no tool calls in response"}
	}

	toolCall := resp.Choices[0].ToolCalls[0]
	if toolCall.FunctionCall.Name != tool.Function.Name {
		log.Printf("[ERROR] Unexpected function call: %s", toolCall.FunctionCall.Name)
		return &SchemaError{
			Tool:   tool.Function.Name,
			Reason: fmt.Sprintf("backend called %s instead", toolCall.FunctionCall.Name),
		}
	}

	if err := json.Unmarshal([]byte(toolCall.FunctionCall.Arguments), out); err != nil {
		log.Printf("[ERROR] Failed to parse %s arguments: %v", tool.Function.Name, err)
		return &SchemaError{Tool: tool.Function.Name, Reason: "arguments did not match schema", Err: err}
	}

	return nil
}

// ollamaPinger hits the Ollama tags endpoint, which answers without
// touching a model.
type ollamaPinger struct {
	serverURL string
}

func (p *ollamaPinger) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.serverURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to build probe request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("probe request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("probe returned status %d", resp.StatusCode)
	}
	return nil
}
