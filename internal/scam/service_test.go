package scam

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushan-in/dapa/internal/ai"
	"github.com/raushan-in/dapa/internal/ratelimit"
	"github.com/raushan-in/dapa/internal/session"
)

type scriptedReply struct {
	reply *ai.Reply
	err   error
}

type fakeAI struct {
	script    []scriptedReply
	histories [][]ai.Message
}

func (f *fakeAI) Generate(_ context.Context, _ string, history []ai.Message, _ []ai.ToolDef) (*ai.Reply, error) {
	f.histories = append(f.histories, append([]ai.Message(nil), history...))
	idx := len(f.histories) - 1
	if idx >= len(f.script) {
		return &ai.Reply{Text: "unscripted reply"}, nil
	}
	return f.script[idx].reply, f.script[idx].err
}

func textReply(text string) scriptedReply {
	return scriptedReply{reply: &ai.Reply{Text: text}}
}

func toolReply(name string, args any) scriptedReply {
	raw, _ := json.Marshal(args)
	return scriptedReply{reply: &ai.Reply{ToolCalls: []ai.ToolCall{{ID: "call-1", Name: name, Args: raw}}}}
}

type testEnv struct {
	svc   Service
	repo  *fakeRepo
	model *fakeAI
	store session.Store
}

func newTestEnv(t *testing.T, script ...scriptedReply) *testEnv {
	t.Helper()
	repo := &fakeRepo{}
	model := &fakeAI{script: script}
	store := session.NewMemoryStore()
	limiter := ratelimit.NewMemoryLimiter(100, time.Hour)
	svc := NewService(NewTools(repo), model, store, limiter, Options{
		SessionTTL:    time.Hour,
		HistoryLimit:  40,
		PolicyTimeout: time.Second,
		ToolTimeout:   time.Second,
	})
	return &testEnv{svc: svc, repo: repo, model: model, store: store}
}

func TestHandleTurnDirectReply(t *testing.T) {
	env := newTestEnv(t, textReply("Hi there! I'm here to assist you."))

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi"})
	require.NoError(t, err)
	assert.Equal(t, "Hi there! I'm here to assist you.", resp.ResponseMessage)
	assert.Equal(t, ResponderAI, resp.Responder)
	assert.NotEmpty(t, resp.ThreadID, "a new thread id is minted when none is supplied")
	assert.Empty(t, env.repo.reports)
}

func TestHandleTurnKeepsThreadID(t *testing.T) {
	env := newTestEnv(t, textReply("first"), textReply("second"))

	first, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi", ThreadID: "thread-7"})
	require.NoError(t, err)
	assert.Equal(t, "thread-7", first.ThreadID)

	second, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Again", ThreadID: "thread-7"})
	require.NoError(t, err)
	assert.Equal(t, "thread-7", second.ThreadID)

	// second policy call sees the first exchange
	require.Len(t, env.model.histories, 2)
	history := env.model.histories[1]
	require.Len(t, history, 3)
	assert.Equal(t, "Hi", history[0].Text)
	assert.Equal(t, "first", history[1].Text)
	assert.Equal(t, "Again", history[2].Text)
}

func TestRegisterRequiresExplicitConfirmation(t *testing.T) {
	env := newTestEnv(t,
		toolReply(ToolRegisterScam, validRegisterArgs()),
		textReply("Your report has been registered. Thank you."),
	)

	// Turn 1: the policy requests register_scam. Nothing is written; the
	// controller asks for confirmation instead.
	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{
		UserMessage: "Received OTP scam call from +91-9876543210, my number is +1-2025550123",
		ThreadID:    "t-reg",
	})
	require.NoError(t, err)
	assert.Contains(t, resp.ResponseMessage, "+91-9876543210")
	assert.Contains(t, resp.ResponseMessage, "yes")
	assert.Equal(t, ResponderAI, resp.Responder)
	assert.Empty(t, env.repo.reports, "no speculative registration")

	// Turn 2: explicit affirmative. The parked report is written and the
	// tool result goes back to the policy for the final text.
	resp, err = env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Yes", ThreadID: "t-reg"})
	require.NoError(t, err)
	assert.Equal(t, "Your report has been registered. Thank you.", resp.ResponseMessage)
	assert.Equal(t, ResponderAI, resp.Responder)
	require.Len(t, env.repo.reports, 1)
	assert.Equal(t, "+91-9876543210", env.repo.reports[0].ScammerMobile)
	assert.Equal(t, 3, env.repo.reports[0].ScamCategoryID)

	// The finalize call saw the tool output.
	finalHistory := env.model.histories[len(env.model.histories)-1]
	last := finalHistory[len(finalHistory)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Contains(t, last.Text, "A report has been registered for +91-9876543210.")
}

func TestRepeatedYesDoesNotDoubleRegister(t *testing.T) {
	env := newTestEnv(t,
		toolReply(ToolRegisterScam, validRegisterArgs()),
		textReply("Registered."),
		textReply("Anything else I can help with?"),
	)

	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "report +91-9876543210", ThreadID: "t-dup"})
	require.NoError(t, err)
	_, err = env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "yes", ThreadID: "t-dup"})
	require.NoError(t, err)
	require.Len(t, env.repo.reports, 1)

	// The pending slot was cleared; another yes is just conversation.
	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "yes", ThreadID: "t-dup"})
	require.NoError(t, err)
	assert.Equal(t, "Anything else I can help with?", resp.ResponseMessage)
	assert.Len(t, env.repo.reports, 1)
}

func TestNewRegisterRequestReplacesPending(t *testing.T) {
	secondArgs := validRegisterArgs()
	secondArgs.ScammerMobile = "+91-1112223334"

	env := newTestEnv(t,
		toolReply(ToolRegisterScam, validRegisterArgs()),
		toolReply(ToolRegisterScam, secondArgs),
		textReply("Registered the corrected number."),
	)

	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "report +91-9876543210", ThreadID: "t-swap"})
	require.NoError(t, err)

	// The user corrects the number before confirming; the new request
	// replaces the parked one.
	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "sorry, the number is +91-1112223334", ThreadID: "t-swap"})
	require.NoError(t, err)
	assert.Contains(t, resp.ResponseMessage, "+91-1112223334")
	assert.Empty(t, env.repo.reports)

	_, err = env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "yes", ThreadID: "t-swap"})
	require.NoError(t, err)
	require.Len(t, env.repo.reports, 1, "only the corrected request registers")
	assert.Equal(t, "+91-1112223334", env.repo.reports[0].ScammerMobile)
}

func TestNonAffirmativeReplacesNothing(t *testing.T) {
	env := newTestEnv(t,
		toolReply(ToolRegisterScam, validRegisterArgs()),
		textReply("Okay, I will not register it. What would you like to change?"),
	)

	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "report +91-9876543210", ThreadID: "t-no"})
	require.NoError(t, err)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "no, wrong number", ThreadID: "t-no"})
	require.NoError(t, err)
	assert.Equal(t, ResponderAI, resp.Responder)
	assert.Empty(t, env.repo.reports)
}

func TestRegisterValidationFailureIsRelayedNotWritten(t *testing.T) {
	args := validRegisterArgs()
	args.ReporterMobile = ""
	args.ReporterEmail = ""

	env := newTestEnv(t,
		toolReply(ToolRegisterScam, args),
		textReply("Please share your mobile number or email to identify yourself."),
	)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{
		UserMessage: "Received OTP scam call from +91-9876543210",
		ThreadID:    "t-noid",
	})
	require.NoError(t, err)
	assert.Equal(t, "Please share your mobile number or email to identify yourself.", resp.ResponseMessage)
	assert.Empty(t, env.repo.reports, "validation failure must never write")

	// the relay named the failing field for the policy
	finalHistory := env.model.histories[1]
	last := finalHistory[len(finalHistory)-1]
	assert.Equal(t, ai.RoleTool, last.Role)
	assert.Contains(t, last.Text, "reporter_identity")
}

func TestSearchFlow(t *testing.T) {
	env := newTestEnv(t,
		toolReply(ToolSearchScam, SearchArgs{Mobile: "+91 98765 43210"}),
		textReply("That number has one prior report for an OTP scam. Stay alert."),
	)
	p, err := ValidateRegister(validRegisterArgs())
	require.NoError(t, err)
	NewTools(env.repo).Register(context.Background(), p)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "search +91 98765 43210", ThreadID: "t-search"})
	require.NoError(t, err)
	assert.Equal(t, ResponderAI, resp.Responder)
	assert.Contains(t, resp.ResponseMessage, "OTP scam")
	require.Len(t, env.repo.reports, 1, "search never mutates state")
}

func TestSearchFallsBackToToolTextWhenFinalizeFails(t *testing.T) {
	env := newTestEnv(t,
		toolReply(ToolSearchScam, SearchArgs{Mobile: "+91-1234567890"}),
		scriptedReply{err: errors.New("upstream down")},
	)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "search +91-1234567890", ThreadID: "t-fb"})
	require.NoError(t, err)
	assert.Equal(t, ResponderTool, resp.Responder)
	assert.Equal(t, "No scam reports found for +91-1234567890.", resp.ResponseMessage)
}

func TestMalformedOutputRetriedOnce(t *testing.T) {
	env := newTestEnv(t,
		scriptedReply{reply: &ai.Reply{}}, // neither text nor tool call
		textReply("Recovered answer."),
	)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi", ThreadID: "t-retry"})
	require.NoError(t, err)
	assert.Equal(t, "Recovered answer.", resp.ResponseMessage)

	require.Len(t, env.model.histories, 2)
	retryHistory := env.model.histories[1]
	last := retryHistory[len(retryHistory)-1]
	assert.Equal(t, ai.RoleSystem, last.Role)
	assert.Equal(t, RegeneratePrompt, last.Text)
}

func TestMalformedOutputTwiceFailsTheTurnOnly(t *testing.T) {
	env := newTestEnv(t,
		toolReply("unknown_tool", map[string]string{"x": "y"}),
		scriptedReply{reply: &ai.Reply{}},
		textReply("Next turn works."),
	)

	resp, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi", ThreadID: "t-bad"})
	require.NoError(t, err)
	assert.Equal(t, rephraseReply, resp.ResponseMessage)
	assert.Equal(t, ResponderAI, resp.Responder)

	// the thread stays usable
	resp, err = env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hello again", ThreadID: "t-bad"})
	require.NoError(t, err)
	assert.Equal(t, "Next turn works.", resp.ResponseMessage)
}

func TestPolicyErrorPropagatesAsTurnFailure(t *testing.T) {
	env := newTestEnv(t, scriptedReply{err: errors.New("connection reset")})

	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi", ThreadID: "t-err"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "rate limit")
}

func TestRateLimitByReporterIdentity(t *testing.T) {
	repo := &fakeRepo{}
	model := &fakeAI{}
	svc := NewService(NewTools(repo), model, session.NewMemoryStore(), ratelimit.NewMemoryLimiter(2, time.Hour), Options{})

	req := &TurnRequest{UserMessage: "Hi", ThreadID: "t-limit", ReporterIdentity: "reporter@example.com"}
	for i := 0; i < 2; i++ {
		_, err := svc.HandleTurn(context.Background(), req)
		require.NoError(t, err)
	}

	_, err := svc.HandleTurn(context.Background(), req)
	var limitErr *ratelimit.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "reporter@example.com", limitErr.Key)
	assert.Equal(t, 2, limitErr.Limit)
}

func TestRateLimitSharedAnonymousBucket(t *testing.T) {
	repo := &fakeRepo{}
	model := &fakeAI{}
	svc := NewService(NewTools(repo), model, session.NewMemoryStore(), ratelimit.NewMemoryLimiter(1, time.Hour), Options{})

	// neither identity nor thread id: each turn mints a new thread, but
	// all of them share one limiter bucket
	_, err := svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi"})
	require.NoError(t, err)

	_, err = svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "Hi again"})
	var limitErr *ratelimit.LimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "anonymous", limitErr.Key)
}

func TestReporterEmailAppendedForPolicy(t *testing.T) {
	env := newTestEnv(t, textReply("Noted."))

	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{
		UserMessage:      "I want to report a scam",
		ThreadID:         "t-email",
		ReporterIdentity: "reporter@example.com",
	})
	require.NoError(t, err)

	history := env.model.histories[0]
	require.Len(t, history, 1)
	assert.Contains(t, history[0].Text, "Reporter Email: reporter@example.com")
}

func TestEmptyMessageRejected(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.HandleTurn(context.Background(), &TurnRequest{UserMessage: "   "})
	require.Error(t, err)
	assert.Empty(t, env.model.histories, "the policy is never invoked")
}
