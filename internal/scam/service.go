package scam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/raushan-in/dapa/internal/ai"
	"github.com/raushan-in/dapa/internal/ratelimit"
	"github.com/raushan-in/dapa/internal/session"
)

// Options tune one conversation turn.
type Options struct {
	SessionTTL    time.Duration
	HistoryLimit  int
	PolicyTimeout time.Duration
	ToolTimeout   time.Duration
}

func (o *Options) applyDefaults() {
	if o.SessionTTL <= 0 {
		o.SessionTTL = time.Hour
	}
	if o.HistoryLimit <= 0 {
		o.HistoryLimit = 40
	}
	if o.PolicyTimeout <= 0 {
		o.PolicyTimeout = 30 * time.Second
	}
	if o.ToolTimeout <= 0 {
		o.ToolTimeout = 10 * time.Second
	}
}

type service struct {
	tools    *Tools
	ai       ai.AI
	sessions session.Store
	limiter  ratelimit.Limiter
	opts     Options
}

// NewService wires the conversation controller. The dialog policy
// suggests; the controller and the tool layer decide.
func NewService(tools *Tools, aiClient ai.AI, sessions session.Store, limiter ratelimit.Limiter, opts Options) Service {
	opts.applyDefaults()
	return &service{
		tools:    tools,
		ai:       aiClient,
		sessions: sessions,
		limiter:  limiter,
		opts:     opts,
	}
}

const rephraseReply = "Sorry, I could not process that. Could you please rephrase?"

var newThreadID = func() string { return uuid.NewString() }

// HandleTurn runs one turn: admit, resolve thread, invoke policy,
// execute at most one tool, persist context, respond. Terminal state is
// always a response or a typed error.
func (s *service) HandleTurn(ctx context.Context, req *TurnRequest) (*TurnResponse, error) {
	userText := strings.TrimSpace(req.UserMessage)
	if userText == "" {
		return nil, fmt.Errorf("scam: empty user message")
	}

	threadID := strings.TrimSpace(req.ThreadID)
	if threadID == "" {
		threadID = newThreadID()
	}

	// Rate limit by reporter identity. Identity-less turns on an
	// existing thread are bounded per thread; turns with neither field
	// share one anonymous bucket, so sending neither cannot mint a
	// fresh key per request.
	limitKey := strings.TrimSpace(req.ReporterIdentity)
	if limitKey == "" {
		limitKey = strings.TrimSpace(req.ThreadID)
	}
	if limitKey == "" {
		limitKey = "anonymous"
	}
	if err := s.limiter.Allow(ctx, limitKey); err != nil {
		return nil, err
	}

	log.Printf("[svc] turn thread=%s text=%q", threadID, userText)

	cctx := s.loadContext(ctx, threadID)

	// Reporter email travels with the message so the policy can pass it
	// to register_scam without asking again.
	if IsEmail(req.ReporterIdentity) {
		userText = userText + "\nReporter Email: " + strings.TrimSpace(req.ReporterIdentity)
	}
	cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleUser, Text: userText})

	var resp *TurnResponse
	var err error
	if cctx.Pending != nil && isAffirmative(req.UserMessage) {
		resp, err = s.executePending(ctx, threadID, cctx)
	} else {
		resp, err = s.invokePolicy(ctx, threadID, cctx)
	}
	if err != nil {
		return nil, err
	}

	s.saveContext(ctx, threadID, cctx)
	return resp, nil
}

// invokePolicy asks the dialog policy for the next move and dispatches
// on its answer: direct reply, search, or a register request that is
// parked until the user confirms.
func (s *service) invokePolicy(ctx context.Context, threadID string, cctx *Context) (*TurnResponse, error) {
	reply, err := s.generateValid(ctx, cctx.Messages)
	if err != nil {
		return nil, err
	}
	if reply == nil {
		// Malformed twice; fail this turn only, the thread stays usable.
		cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleAssistant, Text: rephraseReply})
		return &TurnResponse{ResponseMessage: rephraseReply, Responder: ResponderAI, ThreadID: threadID}, nil
	}

	if len(reply.ToolCalls) == 0 {
		cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleAssistant, Text: reply.Text})
		return &TurnResponse{ResponseMessage: reply.Text, Responder: ResponderAI, ThreadID: threadID}, nil
	}

	call := reply.ToolCalls[0]
	switch call.Name {
	case ToolSearchScam:
		var args SearchArgs
		_ = json.Unmarshal(call.Args, &args) // shape already checked by generateValid

		result, err := s.runSearch(ctx, args.Mobile)
		if err != nil {
			var fe *FieldError
			if !errors.As(err, &fe) {
				return nil, err
			}
			result = relayFieldError(fe)
		}
		return s.finalizeToolResult(ctx, threadID, cctx, call, result)

	case ToolRegisterScam:
		var args RegisterArgs
		_ = json.Unmarshal(call.Args, &args)

		pending, err := ValidateRegister(args)
		if err != nil {
			var fe *FieldError
			if !errors.As(err, &fe) {
				return nil, err
			}
			return s.finalizeToolResult(ctx, threadID, cctx, call, relayFieldError(fe))
		}

		// Never register speculatively: park the request and ask for an
		// explicit yes on the exact number. A later request for a
		// different number replaces this one.
		cctx.Pending = pending
		question := confirmationQuestion(pending)
		cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleAssistant, Text: question})
		return &TurnResponse{ResponseMessage: question, Responder: ResponderAI, ThreadID: threadID}, nil

	default:
		// generateValid filters unknown tools; kept as a guard.
		return nil, fmt.Errorf("scam: unexpected tool %q", call.Name)
	}
}

// executePending runs the parked registration after the user's explicit
// affirmative. The pending slot is cleared regardless of outcome so a
// repeated yes cannot double-register.
func (s *service) executePending(ctx context.Context, threadID string, cctx *Context) (*TurnResponse, error) {
	pending := cctx.Pending
	cctx.Pending = nil

	toolCtx, cancel := context.WithTimeout(ctx, s.opts.ToolTimeout)
	defer cancel()
	result := s.tools.Register(toolCtx, pending)

	args, _ := json.Marshal(pending)
	call := ai.ToolCall{ID: "confirmed-" + newThreadID(), Name: ToolRegisterScam, Args: args}
	return s.finalizeToolResult(ctx, threadID, cctx, call, result)
}

func (s *service) runSearch(ctx context.Context, mobile string) (string, error) {
	toolCtx, cancel := context.WithTimeout(ctx, s.opts.ToolTimeout)
	defer cancel()
	return s.tools.Search(toolCtx, mobile)
}

// finalizeToolResult records the tool exchange in context and feeds the
// result back to the policy for the final user-facing text. If that call
// fails or asks for another tool, the tool's own text answers the turn.
func (s *service) finalizeToolResult(ctx context.Context, threadID string, cctx *Context, call ai.ToolCall, result string) (*TurnResponse, error) {
	cctx.Messages = append(cctx.Messages,
		ai.Message{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{call}},
		ai.Message{Role: ai.RoleTool, ToolCallID: call.ID, Text: result},
	)

	policyCtx, cancel := context.WithTimeout(ctx, s.opts.PolicyTimeout)
	defer cancel()
	reply, err := s.ai.Generate(policyCtx, Instructions, cctx.Messages, ToolDefs())
	if err != nil || reply == nil || len(reply.ToolCalls) > 0 || strings.TrimSpace(reply.Text) == "" {
		if err != nil {
			log.Printf("[svc] finalize error thread=%s: %v", threadID, err)
		}
		cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleAssistant, Text: result})
		return &TurnResponse{ResponseMessage: result, Responder: ResponderTool, ThreadID: threadID}, nil
	}

	cctx.Messages = append(cctx.Messages, ai.Message{Role: ai.RoleAssistant, Text: reply.Text})
	return &TurnResponse{ResponseMessage: reply.Text, Responder: ResponderAI, ThreadID: threadID}, nil
}

// generateValid calls the policy and enforces the output contract:
// plain text, or exactly one known tool with well-formed JSON arguments.
// One regenerate retry is attempted; nil, nil means malformed twice.
func (s *service) generateValid(ctx context.Context, history []ai.Message) (*ai.Reply, error) {
	policyCtx, cancel := context.WithTimeout(ctx, s.opts.PolicyTimeout)
	defer cancel()

	reply, err := s.ai.Generate(policyCtx, Instructions, history, ToolDefs())
	if err != nil {
		return nil, fmt.Errorf("scam: policy call: %w", err)
	}
	if conforms(reply) {
		return reply, nil
	}

	log.Printf("[svc] malformed policy output, regenerating")
	retryHistory := append(append([]ai.Message(nil), history...), ai.Message{Role: ai.RoleSystem, Text: RegeneratePrompt})

	retryCtx, cancel2 := context.WithTimeout(ctx, s.opts.PolicyTimeout)
	defer cancel2()
	reply, err = s.ai.Generate(retryCtx, Instructions, retryHistory, ToolDefs())
	if err != nil {
		return nil, fmt.Errorf("scam: policy retry call: %w", err)
	}
	if conforms(reply) {
		return reply, nil
	}

	log.Printf("[svc] policy output malformed after retry, giving up on this turn")
	return nil, nil
}

// conforms checks the tagged-variant contract for policy output.
func conforms(reply *ai.Reply) bool {
	if reply == nil {
		return false
	}
	if len(reply.ToolCalls) == 0 {
		return strings.TrimSpace(reply.Text) != ""
	}
	if len(reply.ToolCalls) != 1 {
		return false
	}

	call := reply.ToolCalls[0]
	switch call.Name {
	case ToolRegisterScam:
		var args RegisterArgs
		return json.Unmarshal(call.Args, &args) == nil
	case ToolSearchScam:
		var args SearchArgs
		return json.Unmarshal(call.Args, &args) == nil
	default:
		return false
	}
}

func confirmationQuestion(p *PendingReport) string {
	name := Categories[p.ScamCategoryID].Name
	return fmt.Sprintf(
		"You want to report %s for %q. Shall I register this report? Please reply yes to confirm.",
		p.ScammerMobile, name,
	)
}

var affirmatives = map[string]bool{
	"yes":        true,
	"y":          true,
	"yeah":       true,
	"yep":        true,
	"ok":         true,
	"okay":       true,
	"sure":       true,
	"confirm":    true,
	"yes please": true,
}

// isAffirmative is the deterministic confirmation check. The model's
// confidence never substitutes for it.
func isAffirmative(msg string) bool {
	cleaned := strings.ToLower(strings.TrimSpace(msg))
	cleaned = strings.Trim(cleaned, ".!")
	return affirmatives[cleaned]
}

func (s *service) loadContext(ctx context.Context, threadID string) *Context {
	cctx := &Context{}
	raw, err := s.sessions.Get(ctx, threadID)
	if err != nil {
		log.Printf("[svc] session read error thread=%s: %v", threadID, err)
		return cctx
	}
	if len(raw) == 0 {
		return cctx
	}
	if err := json.Unmarshal(raw, cctx); err != nil {
		log.Printf("[svc] session decode error thread=%s: %v", threadID, err)
		return &Context{}
	}
	return cctx
}

// saveContext persists the (trimmed) context. Context is contextual, not
// authoritative: a failed write is logged and tolerated.
func (s *service) saveContext(ctx context.Context, threadID string, cctx *Context) {
	if len(cctx.Messages) > s.opts.HistoryLimit {
		cctx.Messages = trimHistory(cctx.Messages, s.opts.HistoryLimit)
	}
	raw, err := json.Marshal(cctx)
	if err != nil {
		log.Printf("[svc] session encode error thread=%s: %v", threadID, err)
		return
	}
	if err := s.sessions.Put(ctx, threadID, raw, s.opts.SessionTTL); err != nil {
		log.Printf("[svc] session write error thread=%s: %v", threadID, err)
	}
}

// trimHistory keeps the most recent messages without splitting an
// assistant tool call from its tool result.
func trimHistory(msgs []ai.Message, limit int) []ai.Message {
	start := len(msgs) - limit
	for start < len(msgs) && msgs[start].Role == ai.RoleTool {
		start++
	}
	return msgs[start:]
}

// relayFieldError phrases a validation failure as tool output so the
// policy re-collects exactly the failing field.
func relayFieldError(fe *FieldError) string {
	return fmt.Sprintf("Invalid value for %s: %s. Ask the user to provide a corrected %s. Do not guess.", fe.Field, fe.Reason, fe.Field)
}
