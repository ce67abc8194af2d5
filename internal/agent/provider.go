package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/corerun/agentcore/pkg/models"
)

// Tool is the shared contract every tool executor implements: a JSON-schema
// function-calling definition plus a single-argument execute. A malformed
// argument payload is the caller's concern (dispatch_tool_call parses
// Arguments before calling Execute); Execute itself returns operational
// failures as a *ToolResult with Success=false rather than an error, and
// reserves the returned error for conditions that should terminate the
// agent loop.
type Tool interface {
	Name() string
	Description() string
	Schema() json.RawMessage
	Execute(ctx context.Context, args json.RawMessage) (*ToolResult, error)
}

// ToolResult is the outcome of a single tool execution. Successful results
// carry Output; failed results carry Error only. ToModelContent renders the
// string form fed back to the provider as a tool-role message.
type ToolResult struct {
	Success   bool
	Output    string
	Error     string
	Truncated bool
	Metadata  map[string]string
}

// NewToolSuccess builds a successful ToolResult.
func NewToolSuccess(output string) *ToolResult {
	return &ToolResult{Success: true, Output: output, Metadata: map[string]string{}}
}

// NewToolFailure builds a failed, operational ToolResult (not a hard error).
func NewToolFailure(format string, args ...any) *ToolResult {
	return &ToolResult{Success: false, Error: fmt.Sprintf(format, args...), Metadata: map[string]string{}}
}

// WithMetadata merges key into the result's metadata map and returns the
// receiver for chaining.
func (r *ToolResult) WithMetadata(key, value string) *ToolResult {
	if r.Metadata == nil {
		r.Metadata = map[string]string{}
	}
	r.Metadata[key] = value
	return r
}

// ToModelContent renders the string fed back to the provider as a tool
// message's content: Output (plus a truncation sentinel if truncated) on
// success, "Error: "+Error on failure.
func (r *ToolResult) ToModelContent() string {
	if !r.Success {
		return "Error: " + r.Error
	}
	if r.Truncated {
		return r.Output + "\n... (truncated)"
	}
	return r.Output
}

// Truncate caps Output at maxSize bytes, marking Truncated when it had to
// cut. A non-positive maxSize is treated as "no cap".
func (r *ToolResult) Truncate(maxSize int) {
	if maxSize <= 0 || len(r.Output) <= maxSize {
		return
	}
	r.Output = r.Output[:maxSize]
	r.Truncated = true
}

// CompletionRequest is the synchronous completion contract's input: the
// conversation so far, the tool schemas available this turn, and model
// parameters.
type CompletionRequest struct {
	System    string
	Messages  []models.Message
	Tools     []Tool
	Model     string
	MaxTokens int
}

// CompletionResponse is the synchronous completion contract's output: the
// assistant message the provider produced, plus usage when the provider
// reports it.
type CompletionResponse struct {
	Message models.Message
	Usage   *models.TokenUsage
}

// ModelInfo describes one model a Provider can be asked to use.
type ModelInfo struct {
	ID             string
	Name           string
	ContextWindow  int
	SupportsVision bool
}

// ErrNotSupported is returned by a Provider's optional introspection
// operations when the concrete adapter does not implement them.
var ErrNotSupported = ConfigError("operation not supported by this provider")

// Provider is the abstract completion contract every concrete LLM adapter
// implements. Complete is the only required operation; the core holds
// Providers by shared handle and calls them from possibly-concurrent
// subagents, so implementations must be safe for concurrent use.
type Provider interface {
	// Name returns a stable, lowercase provider identifier.
	Name() string

	// Complete sends one completion request and blocks for the result.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// Models lists the provider's available models. Returns ErrNotSupported
	// if the adapter does not implement listing.
	Models() ([]ModelInfo, error)

	// SupportsTools reports whether this provider can be given Tools.
	SupportsTools() bool
}
