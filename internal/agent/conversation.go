package agent

import (
	"fmt"
	"strings"
	"time"

	"github.com/corerun/agentcore/pkg/models"
)

// ConversationConfig bounds a Conversation's token accounting and pruning
// behaviour. All fields are sanitised by NewConversation.
type ConversationConfig struct {
	// MaxTokens is the heuristic budget a Conversation tries to stay under.
	MaxTokens int

	// MinRetainTurns is the minimum number of trailing user turns a prune
	// must leave in place.
	MinRetainTurns int

	// PruneThreshold is the fraction of MaxTokens, in [0,1], above which an
	// append triggers a prune.
	PruneThreshold float64
}

// DefaultConversationConfig returns sensible defaults: a 100K-token budget,
// retaining the last 10 user turns, pruning above 80% usage.
func DefaultConversationConfig() ConversationConfig {
	return ConversationConfig{
		MaxTokens:      100_000,
		MinRetainTurns: 10,
		PruneThreshold: 0.8,
	}
}

func sanitizeConversationConfig(cfg ConversationConfig) ConversationConfig {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultConversationConfig().MaxTokens
	}
	if cfg.MinRetainTurns <= 0 {
		cfg.MinRetainTurns = DefaultConversationConfig().MinRetainTurns
	}
	if cfg.PruneThreshold <= 0 || cfg.PruneThreshold > 1 {
		cfg.PruneThreshold = DefaultConversationConfig().PruneThreshold
	}
	return cfg
}

// ContextInfo is a derived, point-in-time snapshot of a Conversation's token
// usage against its configured window.
type ContextInfo struct {
	MaxTokens       int
	UsedTokens      int
	RemainingTokens int
	PercentageUsed  float64
}

// Conversation is an append-only, role-tagged message log with heuristic
// token accounting and a summarising prune policy. A Conversation is owned
// exclusively by its Agent; it is never shared across agents in a spawn
// tree.
type Conversation struct {
	messages   []models.Message
	tokenCount int
	config     ConversationConfig
	usage      models.TokenUsage
}

// NewConversation returns an empty conversation with the given config
// sanitised against DefaultConversationConfig.
func NewConversation(cfg ConversationConfig) *Conversation {
	return &Conversation{config: sanitizeConversationConfig(cfg)}
}

// AppendUser appends a user-role message and runs the prune check.
func (c *Conversation) AppendUser(content string) {
	c.append(models.Message{Role: models.RoleUser, Content: content, CreatedAt: time.Now()})
}

// AppendAssistant appends an assistant-role message, optionally carrying
// tool calls, and runs the prune check.
func (c *Conversation) AppendAssistant(content string, toolCalls []models.ToolCall) {
	c.append(models.Message{
		Role:      models.RoleAssistant,
		Content:   content,
		ToolCalls: toolCalls,
		CreatedAt: time.Now(),
	})
}

// AppendSystem appends a system-role message and runs the prune check.
func (c *Conversation) AppendSystem(content string) {
	c.append(models.Message{Role: models.RoleSystem, Content: content, CreatedAt: time.Now()})
}

// AppendToolResult appends a tool-role message carrying the result of a
// single tool call, and runs the prune check.
func (c *Conversation) AppendToolResult(toolCallID, content string) {
	c.append(models.Message{
		Role:       models.RoleTool,
		Content:    content,
		ToolCallID: toolCallID,
		CreatedAt:  time.Now(),
	})
}

func (c *Conversation) append(msg models.Message) {
	c.messages = append(c.messages, msg)
	c.tokenCount += messageTokens(msg)
	c.pruneIfNeeded()
}

// Messages returns the current message log. Callers must not mutate the
// returned slice.
func (c *Conversation) Messages() []models.Message {
	return c.messages
}

// TokenCount returns the heuristic token tally.
func (c *Conversation) TokenCount() int {
	return c.tokenCount
}

// MaxTokens returns the configured token budget.
func (c *Conversation) MaxTokens() int {
	return c.config.MaxTokens
}

// SetMaxTokens updates the token budget used for pruning triggers and
// ContextInfo.
func (c *Conversation) SetMaxTokens(max int) {
	if max > 0 {
		c.config.MaxTokens = max
	}
}

// RemainingTokens returns MaxTokens minus the heuristic token count, floored
// at zero.
func (c *Conversation) RemainingTokens() int {
	remaining := c.config.MaxTokens - c.tokenCount
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Clear empties the message log and resets accounting.
func (c *Conversation) Clear() {
	c.messages = nil
	c.tokenCount = 0
	c.usage = models.TokenUsage{}
}

// UpdateFromProviderUsage accumulates provider-reported prompt/completion
// token counts into the stored TokenUsage.
func (c *Conversation) UpdateFromProviderUsage(promptTokens, completionTokens int) {
	c.usage.Add(promptTokens, completionTokens)
}

// GetContextInfo derives a ContextInfo snapshot. UsedTokens prefers the
// provider-reported total when one has been recorded, falling back to the
// heuristic token count.
func (c *Conversation) GetContextInfo() ContextInfo {
	maxTokens := c.config.MaxTokens
	used := c.tokenCount
	if c.usage.TotalTokens > 0 {
		used = c.usage.TotalTokens
	}
	if used > maxTokens {
		used = maxTokens
	}
	percentage := 0.0
	if maxTokens > 0 {
		percentage = float64(used) / float64(maxTokens) * 100
	}
	return ContextInfo{
		MaxTokens:       maxTokens,
		UsedTokens:      used,
		RemainingTokens: maxTokens - used,
		PercentageUsed:  percentage,
	}
}

// messageTokens estimates a message's token contribution using the
// chars/4 heuristic: content plus, for each tool call, the name and
// arguments. This is known-bad for non-ASCII and very short strings; it is
// the pruning trigger, and GetContextInfo reports it only while no
// provider-reported total has been recorded.
func messageTokens(msg models.Message) int {
	total := charsToTokens(len(msg.Content))
	for _, tc := range msg.ToolCalls {
		total += charsToTokens(len(tc.Name))
		total += charsToTokens(len(tc.Arguments))
	}
	return total
}

func charsToTokens(chars int) int {
	return (chars + 3) / 4
}

// pruneIfNeeded implements the summarising prune policy: triggered whenever
// token_count exceeds prune_threshold * max_tokens, it retains all system
// messages, the last MinRetainTurns user turns and everything after the
// earliest of them, and folds everything dropped into one synthesised
// system summary message.
func (c *Conversation) pruneIfNeeded() {
	threshold := float64(c.config.MaxTokens) * c.config.PruneThreshold
	if float64(c.tokenCount) <= threshold {
		return
	}

	keepFrom := c.findKeepFromIndex()
	if keepFrom <= 0 {
		return
	}

	var systems []models.Message
	var tail []models.Message
	var pruned []models.Message
	for i, msg := range c.messages {
		switch {
		case msg.Role == models.RoleSystem:
			systems = append(systems, msg)
		case i < keepFrom:
			pruned = append(pruned, msg)
		default:
			tail = append(tail, msg)
		}
	}

	if len(pruned) == 0 {
		return
	}

	systems = append(systems, summarizePruned(pruned))

	newLog := make([]models.Message, 0, len(systems)+len(tail))
	newLog = append(newLog, systems...)
	newLog = append(newLog, tail...)
	c.messages = newLog

	c.tokenCount = 0
	for _, msg := range c.messages {
		c.tokenCount += messageTokens(msg)
	}
}

// findKeepFromIndex scans newest-to-oldest counting user-role messages,
// returning the earliest index that still leaves at least MinRetainTurns
// user messages to its right. Returns 0 when there are not enough user
// turns to safely retain.
func (c *Conversation) findKeepFromIndex() int {
	userSeen := 0
	for i := len(c.messages) - 1; i >= 0; i-- {
		if c.messages[i].Role == models.RoleUser {
			userSeen++
			if userSeen == c.config.MinRetainTurns {
				return i
			}
		}
	}
	return 0
}

// summarizePruned synthesises a short system message describing a run of
// pruned messages: role-activity counts plus an excerpt of the first (and,
// if more than one was dropped, the last) message.
func summarizePruned(pruned []models.Message) models.Message {
	var users, assistants, toolCalls int
	for _, msg := range pruned {
		switch msg.Role {
		case models.RoleUser:
			users++
		case models.RoleAssistant:
			assistants++
			toolCalls += len(msg.ToolCalls)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Summary of %d pruned messages (%d user, %d assistant, %d tool calls). ",
		len(pruned), users, assistants, toolCalls)
	fmt.Fprintf(&b, "First: %q", excerpt(pruned[0].Content))
	if len(pruned) > 1 {
		fmt.Fprintf(&b, " Last: %q", excerpt(pruned[len(pruned)-1].Content))
	}

	return models.Message{
		Role:      models.RoleSystem,
		Content:   b.String(),
		CreatedAt: time.Now(),
	}
}

func excerpt(s string) string {
	const max = 100
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
