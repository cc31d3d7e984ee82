// Package chat drives one chat turn: ask the model, execute the tools it
// requests, feed results back, repeat until a final answer or the round
// cap. Callers own conversation history before and after the turn.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/cipchat/orchestrator/pkg/exchangelog"
	"github.com/cipchat/orchestrator/pkg/llms"
	"github.com/cipchat/orchestrator/pkg/mcp"
	"github.com/cipchat/orchestrator/pkg/tools"
)

const (
	DefaultRoundLimit      = 3
	DefaultContextMessages = 10

	// roundLimitFallback is returned when the model kept requesting tools
	// through the last round and produced no text at all.
	roundLimitFallback = "Tool call limit reached."
)

// tenantContextBlock is appended to every system prompt. It tells the
// model the tenant is implicit; the tenant id itself never appears here.
const tenantContextBlock = `

Context: this conversation belongs to the current tenant. The tenant identifier is already known to the system and is injected automatically when gallery and document tools are called. Never ask the user for a tenant_id, tenant UUID or any other internal identifier. For questions like "which galleries" or "which documents", call list_galleries or list_documents right away.

Gallery images: the show_gallery tool returns a list of image URL paths (each line is one path of the form /api/v1/tenants/.../me/gallery/.../file). The system prompt defines how image links should be presented.`

const telegramContextNote = "\n\nNote: this request was relayed from the Telegram bot."

type Config struct {
	PublicBaseURL   string
	RoundLimit      int
	ContextMessages int
}

// TurnOptions vary per call site. The admin surface sets Admin (which
// enables exchange logging) and usually its own ContextMessages.
type TurnOptions struct {
	FromTelegram bool
	Admin        bool
	Test         bool
	SessionID    string

	// ContextMessages overrides the configured window for this turn; zero
	// means the configured default.
	ContextMessages int

	// ChatType overrides the exchange-log category; empty derives
	// testchat/prodchat from Test.
	ChatType string
}

type Orchestrator struct {
	llm     llms.Provider
	catalog *tools.Catalog
	router  *tools.Router
	sink    exchangelog.Sink
	cfg     Config
}

func NewOrchestrator(llm llms.Provider, catalog *tools.Catalog, router *tools.Router, sink exchangelog.Sink, cfg Config) *Orchestrator {
	if cfg.RoundLimit <= 0 {
		cfg.RoundLimit = DefaultRoundLimit
	}
	if cfg.ContextMessages <= 0 {
		cfg.ContextMessages = DefaultContextMessages
	}
	if sink == nil {
		sink = exchangelog.Discard{}
	}

	return &Orchestrator{
		llm:     llm,
		catalog: catalog,
		router:  router,
		sink:    sink,
		cfg:     cfg,
	}
}

// RunTurn produces the final answer text for one user message. The only
// error it returns is the completion backend's own failure; tool-side
// failures are downgraded to tool results the model can react to.
func (o *Orchestrator) RunTurn(ctx context.Context, tenantID uuid.UUID, systemPrompt string, history []llms.Message, opts TurnOptions) (string, error) {
	prompt := strings.TrimSpace(systemPrompt) + tenantContextBlock
	if opts.FromTelegram {
		prompt += telegramContextNote
	}

	window := opts.ContextMessages
	if window <= 0 {
		window = o.cfg.ContextMessages
	}

	chatType := opts.ChatType
	if chatType == "" {
		chatType = exchangelog.ChatTypeProd
		if opts.Test {
			chatType = exchangelog.ChatTypeTest
		}
	}
	sessionID := opts.SessionID
	if sessionID == "" {
		sessionID = "user"
	}

	catalog := o.catalog.Build(ctx, tenantID)

	// With nothing to offer the model, a single plain completion is both
	// cheaper and behaviorally different on the backend side (no tools
	// parameter at all), so it gets its own path.
	if len(catalog) == 0 {
		working := truncate(history, window)

		completion, err := o.llm.Chat(ctx, prompt, working, nil)
		if err != nil {
			return "", err
		}

		o.logExchange(chatType, tenantID, sessionID, buildRequestText(prompt, working), completion.Text, true, opts.Admin)

		return RewriteGalleryPaths(completion.Text, o.cfg.PublicBaseURL), nil
	}

	defs := toDefinitions(catalog)

	working := append([]llms.Message(nil), history...)
	lastText := ""

	for round := 0; round < o.cfg.RoundLimit; round++ {
		// The window is re-applied fresh each round so the request never
		// grows without bound however many results get appended.
		requestMessages := truncate(working, window)

		completion, err := o.llm.Chat(ctx, prompt, requestMessages, defs)
		if err != nil {
			return "", err
		}
		lastText = completion.Text

		o.logExchange(chatType, tenantID, sessionID,
			buildRequestText(prompt, requestMessages),
			buildResponseText(completion),
			round == 0, opts.Admin)

		if len(completion.ToolCalls) == 0 {
			return RewriteGalleryPaths(completion.Text, o.cfg.PublicBaseURL), nil
		}

		working = append(working, llms.Message{
			Role:      llms.RoleAssistant,
			Content:   completion.Text,
			ToolCalls: completion.ToolCalls,
		})
		working = append(working, o.executeRound(ctx, tenantID, completion.ToolCalls)...)
	}

	slog.Warn("Tool round limit reached", "tenant", tenantID, "limit", o.cfg.RoundLimit)

	if lastText == "" {
		return roundLimitFallback, nil
	}
	return RewriteGalleryPaths(lastText, o.cfg.PublicBaseURL), nil
}

// StreamTurn streams a plain completion with no tool catalog, for the
// streaming chat surface. Tool-calling turns go through RunTurn; gallery
// path rewriting is skipped because a path can straddle chunk boundaries.
func (o *Orchestrator) StreamTurn(ctx context.Context, _ uuid.UUID, systemPrompt string, history []llms.Message, opts TurnOptions) (<-chan llms.StreamChunk, error) {
	prompt := strings.TrimSpace(systemPrompt) + tenantContextBlock
	if opts.FromTelegram {
		prompt += telegramContextNote
	}

	window := opts.ContextMessages
	if window <= 0 {
		window = o.cfg.ContextMessages
	}

	return o.llm.Stream(ctx, prompt, truncate(history, window))
}

// executeRound runs all requested calls in parallel and returns one tool
// message per call. Results land at the requesting call's index, so each
// message carries the right tool_call_id regardless of completion order.
func (o *Orchestrator) executeRound(ctx context.Context, tenantID uuid.UUID, calls []llms.ToolCall) []llms.Message {
	results := make([]string, len(calls))

	g, gctx := errgroup.WithContext(ctx)
	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			results[i] = o.router.Dispatch(gctx, tenantID, call.Name, call.Arguments)
			return nil
		})
	}
	_ = g.Wait()

	messages := make([]llms.Message, len(calls))
	for i, call := range calls {
		messages[i] = llms.Message{
			Role:       llms.RoleTool,
			Content:    results[i],
			ToolCallID: call.ID,
		}
	}
	return messages
}

func (o *Orchestrator) logExchange(chatType string, tenantID uuid.UUID, sessionID, request, response string, newSession, admin bool) {
	if !admin {
		return
	}
	o.sink.Append(exchangelog.Exchange{
		ChatType:   chatType,
		TenantID:   tenantID,
		SessionID:  sessionID,
		Request:    request,
		Response:   response,
		NewSession: newSession,
	})
}

func truncate(messages []llms.Message, window int) []llms.Message {
	if len(messages) <= window {
		return messages
	}

	start := len(messages) - window
	// A tool result without the assistant message that requested it is
	// rejected by OpenAI-compatible backends; widen past the boundary so
	// the block stays intact.
	for start > 0 && messages[start].Role == llms.RoleTool {
		start--
	}
	return messages[start:]
}

func toDefinitions(catalog []mcp.ToolDescriptor) []llms.ToolDefinition {
	defs := make([]llms.ToolDefinition, len(catalog))
	for i, tool := range catalog {
		params := tool.InputSchema
		if params == nil {
			params = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		defs[i] = llms.ToolDefinition{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  params,
		}
	}
	return defs
}

func buildRequestText(prompt string, messages []llms.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[system]\n%s\n\n[messages]\n", prompt)
	for _, m := range messages {
		fmt.Fprintf(&b, "%s:\n%s\n", m.Role, m.Content)
	}
	return b.String()
}

func buildResponseText(completion *llms.Completion) string {
	if len(completion.ToolCalls) == 0 {
		return completion.Text
	}

	var b strings.Builder
	b.WriteString(completion.Text)
	b.WriteString("\n[tool_calls]\n")
	for _, tc := range completion.ToolCalls {
		fmt.Fprintf(&b, "  %s(...)\n", tc.Name)
	}
	return b.String()
}
