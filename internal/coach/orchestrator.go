// Package coach runs one conversational turn end to end: safety gate,
// skill routing, context assembly, model generation with tool access,
// streaming, and the decoupled post-turn steps (memory extraction, summary
// refresh, quality sampling).
package coach

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/jhartinger/vitacoach-go/internal/assembler"
	"github.com/jhartinger/vitacoach-go/internal/memory"
	"github.com/jhartinger/vitacoach-go/internal/metrics"
	"github.com/jhartinger/vitacoach-go/internal/models"
	"github.com/jhartinger/vitacoach-go/internal/router"
	"github.com/jhartinger/vitacoach-go/internal/safety"
	"github.com/jhartinger/vitacoach-go/internal/wellness"
)

// Turn states, logged as the pipeline advances.
const (
	StateReceived           = "received"
	StateSafetyChecked      = "safety_checked"
	StateBlocked            = "blocked"
	StateContextAssembled   = "context_assembled"
	StateGenerating         = "generating"
	StateFallbackGenerating = "fallback_generating"
	StateStreamOK           = "stream_ok"
	StateStreamFailed       = "stream_failed"
)

const (
	historyLimit     = 10
	extractionLimit  = 20
	maxToolRounds    = 3
	summaryEvery     = 8
	fallbackTitleLen = 40
	titleTimeout     = 10 * time.Second
	postTurnTimeout  = 60 * time.Second
)

// SessionStore is the conversation persistence surface. *db.Client
// satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, owner string) (*models.Session, error)
	GetSession(ctx context.Context, id string) (*models.Session, error)
	AppendMessage(ctx context.Context, sessionID, role, content string, history *string) (int, error)
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]models.Message, error)
	RenameSession(ctx context.Context, id, title string) error
	UpdateSessionSummary(ctx context.Context, id, summary string) error
	GetPreference(ctx context.Context, owner string) (*models.Preference, error)
	SetPreference(ctx context.Context, owner, personality string) error
}

// MemorySource is the long-term memory surface. *memory.Store satisfies it.
type MemorySource interface {
	ForSkills(ctx context.Context, owner string, skills []string) ([]models.Memory, error)
	ExtractAndStore(ctx context.Context, owner, sessionID string, msgs []models.Message) int
}

// TurnModel is the LLM surface. *llm.Model satisfies it.
type TurnModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
	GenerateWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Evaluator samples finished turns for quality scoring. Implementations
// must never block the turn; the orchestrator already calls it off the
// request path.
type Evaluator interface {
	MaybeEvaluate(ctx context.Context, owner, sessionID, userMessage, reply, contextText string)
}

// Request is one inbound user message.
type Request struct {
	Owner       string `json:"owner"`
	Message     string `json:"message"`
	SessionID   string `json:"session_id,omitempty"`
	Personality string `json:"personality,omitempty"`
}

// Frame is one unit of the streamed reply. The stream is terminated by a
// frame with Complete set; Error carries a generic marker, never internal
// detail.
type Frame struct {
	TextDelta         string `json:"text_delta,omitempty"`
	SessionID         string `json:"session_id,omitempty"`
	ConversationTitle string `json:"conversation_title,omitempty"`
	Complete          bool   `json:"complete"`
	Error             string `json:"error,omitempty"`
}

// Response is the aggregated non-streaming result.
type Response struct {
	Text             string `json:"text"`
	SessionID        string `json:"session_id"`
	Title            string `json:"conversation_title,omitempty"`
	SafetyRedirected bool   `json:"safety_redirected"`
}

// Orchestrator wires the pipeline components for turn execution.
type Orchestrator struct {
	sessions  SessionStore
	memories  MemorySource
	model     TurnModel
	reader    wellness.Reader
	assembler *assembler.Assembler
	evaluator Evaluator
	collector *metrics.Collector
	logger    *slog.Logger

	// spawn runs the post-turn steps; a goroutine by default.
	spawn func(fn func())
}

// New creates a turn orchestrator. evaluator and collector may be nil.
func New(sessions SessionStore, memories MemorySource, model TurnModel, reader wellness.Reader, asm *assembler.Assembler, logger *slog.Logger, collector *metrics.Collector) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sessions:  sessions,
		memories:  memories,
		model:     model,
		reader:    reader,
		assembler: asm,
		collector: collector,
		logger:    logger,
		spawn:     func(fn func()) { go fn() },
	}
}

// WithEvaluator attaches the sampled quality judge.
func (o *Orchestrator) WithEvaluator(e Evaluator) *Orchestrator {
	o.evaluator = e
	return o
}

// WithInlineBackground runs post-turn steps on the caller's goroutine.
// Used in tests.
func (o *Orchestrator) WithInlineBackground() *Orchestrator {
	o.spawn = func(fn func()) { fn() }
	return o
}

// Stream executes one turn and emits frames in model-arrival order. The
// channel is closed after the terminating complete frame. A consumer that
// stops reading drops the stream; there is no cancellation protocol beyond
// ctx.
func (o *Orchestrator) Stream(ctx context.Context, req Request) <-chan Frame {
	frames := make(chan Frame, 16)
	go func() {
		defer close(frames)
		o.run(ctx, req, func(f Frame) {
			select {
			case frames <- f:
			case <-ctx.Done():
			}
		})
	}()
	return frames
}

// Respond executes one turn and returns the aggregated reply.
func (o *Orchestrator) Respond(ctx context.Context, req Request) Response {
	var resp Response
	var text strings.Builder
	result := o.run(ctx, req, func(f Frame) {
		text.WriteString(f.TextDelta)
		if f.SessionID != "" {
			resp.SessionID = f.SessionID
		}
		if f.ConversationTitle != "" {
			resp.Title = f.ConversationTitle
		}
	})
	resp.Text = text.String()
	resp.SafetyRedirected = result.redirected
	return resp
}

// turnResult carries the terminal state of one run.
type turnResult struct {
	state      string
	redirected bool
	sessionID  string
}

func (o *Orchestrator) run(ctx context.Context, req Request, emit func(Frame)) turnResult {
	start := time.Now()
	defer func() {
		if o.collector != nil {
			o.collector.RecordTiming(metrics.OpTurn, time.Since(start))
		}
	}()

	log := o.logger.With("owner", req.Owner)
	log.Debug("turn state", "state", StateReceived)

	decision := safety.Classify(req.Message)
	log.Debug("turn state", "state", StateSafetyChecked, "action", decision.Action, "category", decision.Category)

	session, isNew := o.resolveSession(ctx, req)
	sessionID := ""
	if session != nil {
		sessionID = models.MustRecordIDString(session.ID)
		if _, err := o.sessions.AppendMessage(ctx, sessionID, models.RoleHuman, req.Message, nil); err != nil {
			log.Warn("persist user message failed", "session", sessionID, "error", err)
		}
	}

	// BLOCK short-circuits before any model call. The fixed message is the
	// whole reply.
	if decision.Action == safety.ActionBlock {
		emit(Frame{TextDelta: decision.Message})
		o.persistReply(ctx, sessionID, decision.Message)
		title := o.finishTitle(ctx, sessionID, isNew, req.Message, false)
		emit(Frame{Complete: true, SessionID: sessionID, ConversationTitle: title})
		log.Info("turn blocked", "category", decision.Category, "keywords", decision.Keywords)
		return turnResult{state: StateBlocked, sessionID: sessionID}
	}

	personality := o.resolvePersonality(ctx, req)
	route := router.Route(req.Message)

	memText := ""
	if records, err := o.memories.ForSkills(ctx, req.Owner, route.Skills); err != nil {
		log.Warn("memory retrieval failed", "error", err)
	} else {
		memText = memory.FormatForPrompt(records)
	}

	conversationSummary := ""
	if session != nil && session.Summary != nil {
		conversationSummary = *session.Summary
	}

	actx := o.assembler.Build(ctx, req.Owner, route.QueryTypes, memText, conversationSummary)
	log.Debug("turn state", "state", StateContextAssembled, "included", actx.Summary.Included, "dropped", actx.Summary.Dropped)

	systemPrompt := ComposeSystemPrompt(PromptInput{
		Personality:         personality,
		Skills:              route.Skills,
		ConversationSummary: actx.Conversation,
		Memories:            actx.Memories,
		Stats:               joinBlocks(actx.Tier1, actx.Tier2),
		HealthWarnings:      actx.HealthWarnings,
	})

	messages := o.buildMessages(ctx, systemPrompt, sessionID, req.Message)

	log.Debug("turn state", "state", StateGenerating, "skills", route.Skills, "query_types", route.QueryTypes)
	reply, state := o.generate(ctx, messages, req.Owner, emit)

	redirected := false
	if state == StateStreamOK {
		if decision.Action == safety.ActionRedirect || safety.ScanResponse(reply) {
			emit(Frame{TextDelta: safety.Disclaimer})
			reply += safety.Disclaimer
			redirected = true
		}
	}

	o.persistReply(ctx, sessionID, reply)
	title := o.finishTitle(ctx, sessionID, isNew, req.Message, state == StateStreamOK)

	final := Frame{Complete: true, SessionID: sessionID, ConversationTitle: title}
	if state == StateStreamFailed {
		final.Error = "generation_failed"
	}
	emit(final)
	log.Debug("turn state", "state", state)

	if state == StateStreamOK && sessionID != "" {
		owner, userMsg, contextText := req.Owner, req.Message, actx.Text
		messageCount := 0
		if session != nil {
			messageCount = session.MessageCount + 2
		}
		o.spawn(func() {
			o.postTurn(owner, sessionID, userMsg, reply, contextText, messageCount)
		})
	}

	return turnResult{state: state, redirected: redirected, sessionID: sessionID}
}

// generate runs the primary tool-bound call and, for tool-schema failures
// only, exactly one tool-less retry. Any residual failure emits the fixed
// apology.
func (o *Orchestrator) generate(ctx context.Context, messages []llms.MessageContent, owner string, emit func(Frame)) (string, string) {
	ts := &toolset{reader: o.reader, memories: o.memories, owner: owner, logger: o.logger}

	reply, err := o.generateWithTools(ctx, messages, ts, emit)
	if err == nil {
		return reply, StateStreamOK
	}

	if !isToolSchemaError(err) {
		o.logger.Error("generation failed", "owner", owner, "error", err)
		emit(Frame{TextDelta: Apology})
		return Apology, StateStreamFailed
	}

	o.logger.Warn("tool-bound generation failed, retrying without tools", "owner", owner, "error", err)
	o.logger.Debug("turn state", "state", StateFallbackGenerating)

	reply, err = o.generatePlain(ctx, messages, emit)
	if err != nil {
		o.logger.Error("fallback generation failed", "owner", owner, "error", err)
		emit(Frame{TextDelta: Apology})
		return Apology, StateStreamFailed
	}
	return reply, StateStreamOK
}

// generateWithTools drives the tool-call loop. Streamed deltas are emitted
// in arrival order; providers that do not stream fall back to one delta
// with the final content.
func (o *Orchestrator) generateWithTools(ctx context.Context, messages []llms.MessageContent, ts *toolset, emit func(Frame)) (string, error) {
	var streamed strings.Builder
	streamFn := llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		streamed.Write(chunk)
		emit(Frame{TextDelta: string(chunk)})
		return nil
	})

	msgs := messages
	for round := 0; round < maxToolRounds; round++ {
		resp, err := o.model.GenerateContent(ctx, msgs, llms.WithTools(ts.definitions()), streamFn)
		if err != nil {
			return "", err
		}
		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("empty model response")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			return finishReply(&streamed, choice.Content, emit), nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, tc := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, tc)
		}
		msgs = append(msgs, assistant)

		for _, tc := range choice.ToolCalls {
			out, err := ts.call(ctx, tc.FunctionCall.Name)
			if err != nil {
				return "", err
			}
			msgs = append(msgs, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: tc.ID,
					Name:       tc.FunctionCall.Name,
					Content:    out,
				}},
			})
		}
	}

	return "", fmt.Errorf("tool rounds exhausted after %d iterations", maxToolRounds)
}

func (o *Orchestrator) generatePlain(ctx context.Context, messages []llms.MessageContent, emit func(Frame)) (string, error) {
	var streamed strings.Builder
	resp, err := o.model.GenerateContent(ctx, messages, llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
		streamed.Write(chunk)
		emit(Frame{TextDelta: string(chunk)})
		return nil
	}))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	return finishReply(&streamed, resp.Choices[0].Content, emit), nil
}

// finishReply reconciles streamed deltas with the final content: when the
// provider streamed nothing, the content is emitted as a single delta.
func finishReply(streamed *strings.Builder, content string, emit func(Frame)) string {
	if streamed.Len() > 0 {
		return streamed.String()
	}
	if content != "" {
		emit(Frame{TextDelta: content})
	}
	return content
}

func (o *Orchestrator) resolveSession(ctx context.Context, req Request) (*models.Session, bool) {
	if req.SessionID != "" {
		session, err := o.sessions.GetSession(ctx, req.SessionID)
		if err == nil && session != nil {
			return session, false
		}
		o.logger.Warn("session lookup failed, starting new", "session", req.SessionID, "error", err)
	}

	session, err := o.sessions.CreateSession(ctx, req.Owner)
	if err != nil {
		o.logger.Error("create session failed", "owner", req.Owner, "error", err)
		return nil, false
	}
	return session, true
}

// resolvePersonality reads the persisted per-owner preference, updating it
// first when the request names one.
func (o *Orchestrator) resolvePersonality(ctx context.Context, req Request) string {
	if req.Personality != "" {
		p := NormalizePersonality(req.Personality)
		if err := o.sessions.SetPreference(ctx, req.Owner, p); err != nil {
			o.logger.Warn("persist personality failed", "owner", req.Owner, "error", err)
		}
		return p
	}

	pref, err := o.sessions.GetPreference(ctx, req.Owner)
	if err != nil {
		o.logger.Warn("load personality failed", "owner", req.Owner, "error", err)
		return DefaultPersonality
	}
	if pref == nil {
		return DefaultPersonality
	}
	return NormalizePersonality(pref.Personality)
}

// buildMessages assembles the model exchange: system prompt, prior turns,
// current message.
func (o *Orchestrator) buildMessages(ctx context.Context, systemPrompt, sessionID, userMessage string) []llms.MessageContent {
	messages := []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeSystem, systemPrompt)}

	if sessionID != "" {
		history, err := o.sessions.RecentMessages(ctx, sessionID, historyLimit)
		if err != nil {
			o.logger.Warn("history load failed", "session", sessionID, "error", err)
		}
		for _, m := range history {
			// The current user message was already appended; skip it so it
			// is not sent twice.
			if m.Role == models.RoleHuman && m.Content == userMessage {
				continue
			}
			role := llms.ChatMessageTypeHuman
			if m.Role == models.RoleAI {
				role = llms.ChatMessageTypeAI
			}
			messages = append(messages, llms.TextParts(role, m.Content))
		}
	}

	return append(messages, llms.TextParts(llms.ChatMessageTypeHuman, userMessage))
}

func (o *Orchestrator) persistReply(ctx context.Context, sessionID, reply string) {
	if sessionID == "" || reply == "" {
		return
	}
	if _, err := o.sessions.AppendMessage(ctx, sessionID, models.RoleAI, reply, nil); err != nil {
		o.logger.Warn("persist reply failed", "session", sessionID, "error", err)
	}
}

// finishTitle names a new session. Generation is best-effort with a
// truncation fallback; blocked turns never reach the model.
func (o *Orchestrator) finishTitle(ctx context.Context, sessionID string, isNew bool, message string, allowModel bool) string {
	if !isNew || sessionID == "" {
		return ""
	}

	title := ""
	if allowModel {
		tctx, cancel := context.WithTimeout(ctx, titleTimeout)
		defer cancel()
		generated, err := o.model.GenerateWithSystem(tctx, titleSystemPrompt, message)
		if err != nil {
			o.logger.Warn("title generation failed", "session", sessionID, "error", err)
		} else {
			title = strings.Trim(strings.TrimSpace(generated), `"`)
		}
	}
	if title == "" {
		title = fallbackTitle(message)
	}

	if err := o.sessions.RenameSession(ctx, sessionID, title); err != nil {
		o.logger.Warn("session rename failed", "session", sessionID, "error", err)
	}
	return title
}

func fallbackTitle(message string) string {
	t := strings.TrimSpace(message)
	if len(t) > fallbackTitleLen {
		t = strings.TrimSpace(t[:fallbackTitleLen]) + "..."
	}
	return t
}

// postTurn runs the decoupled steps: memory extraction, periodic summary
// refresh, and quality sampling. All best-effort; failures are logged and
// never surface.
func (o *Orchestrator) postTurn(owner, sessionID, userMessage, reply, contextText string, messageCount int) {
	ctx, cancel := context.WithTimeout(context.Background(), postTurnTimeout)
	defer cancel()

	msgs, err := o.sessions.RecentMessages(ctx, sessionID, extractionLimit)
	if err != nil {
		o.logger.Warn("post-turn history load failed", "session", sessionID, "error", err)
		msgs = nil
	}
	if len(msgs) > 0 {
		o.memories.ExtractAndStore(ctx, owner, sessionID, msgs)
	}

	if messageCount > 0 && messageCount%summaryEvery == 0 && len(msgs) > 0 {
		o.refreshSummary(ctx, sessionID, msgs)
	}

	if o.evaluator != nil {
		o.evaluator.MaybeEvaluate(ctx, owner, sessionID, userMessage, reply, contextText)
	}
}

func (o *Orchestrator) refreshSummary(ctx context.Context, sessionID string, msgs []models.Message) {
	var b strings.Builder
	for _, m := range msgs {
		fmt.Fprintf(&b, "%s: %s\n", m.Role, m.Content)
	}

	summary, err := o.model.GenerateWithSystem(ctx, summarySystemPrompt, b.String())
	if err != nil {
		o.logger.Warn("summary refresh failed", "session", sessionID, "error", err)
		return
	}
	if err := o.sessions.UpdateSessionSummary(ctx, sessionID, strings.TrimSpace(summary)); err != nil {
		o.logger.Warn("summary persist failed", "session", sessionID, "error", err)
	}
}

func joinBlocks(blocks ...string) string {
	var kept []string
	for _, b := range blocks {
		if b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
