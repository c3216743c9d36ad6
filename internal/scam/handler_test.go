package scam

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raushan-in/dapa/internal/ratelimit"
)

type stubService struct {
	resp *TurnResponse
	err  error
	got  *TurnRequest
}

func (s *stubService) HandleTurn(_ context.Context, req *TurnRequest) (*TurnResponse, error) {
	s.got = req
	return s.resp, s.err
}

func postChat(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func newRouter(svc Service, secret string) http.Handler {
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc), secret)
	return r
}

func TestHandleChatOK(t *testing.T) {
	svc := &stubService{resp: &TurnResponse{
		ResponseMessage: "A report has been registered for +91-9876543210.",
		Responder:       ResponderTool,
		ThreadID:        "t-1",
	}}

	rec := postChat(t, newRouter(svc, ""), `{"user_message":"yes","thread_id":"t-1","reporter_identity":"r@example.com"}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"response_message": "A report has been registered for +91-9876543210.",
		"responder": "tool",
		"thread_id": "t-1"
	}`, rec.Body.String())

	require.NotNil(t, svc.got)
	assert.Equal(t, "yes", svc.got.UserMessage)
	assert.Equal(t, "t-1", svc.got.ThreadID)
	assert.Equal(t, "r@example.com", svc.got.ReporterIdentity)
}

func TestHandleChatNullThread(t *testing.T) {
	svc := &stubService{resp: &TurnResponse{ResponseMessage: "hi", Responder: ResponderAI, ThreadID: "minted"}}

	rec := postChat(t, newRouter(svc, ""), `{"user_message":"Hi","thread_id":null,"reporter_identity":null}`, nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, svc.got.ThreadID)
	assert.Empty(t, svc.got.ReporterIdentity)
}

func TestHandleChatBadRequests(t *testing.T) {
	svc := &stubService{}
	router := newRouter(svc, "")

	rec := postChat(t, router, `not json`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, router, `{"thread_id":"t-1"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postChat(t, router, `{"user_message":"   \n\t "}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.got, "service is never reached")
}

func TestHandleChatRateLimited(t *testing.T) {
	svc := &stubService{err: &ratelimit.LimitError{Key: "r@example.com", Limit: 10, Window: 24 * time.Hour}}

	rec := postChat(t, newRouter(svc, ""), `{"user_message":"hi"}`, nil)

	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")
}

func TestHandleChatInternalErrorIsGeneric(t *testing.T) {
	svc := &stubService{err: errors.New("pq: connection refused")}

	rec := postChat(t, newRouter(svc, ""), `{"user_message":"hi"}`, nil)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Unexpected error")
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestBearerAuth(t *testing.T) {
	svc := &stubService{resp: &TurnResponse{ResponseMessage: "hi", Responder: ResponderAI, ThreadID: "t"}}
	router := newRouter(svc, "s3cret")

	rec := postChat(t, router, `{"user_message":"hi"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postChat(t, router, `{"user_message":"hi"}`, map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postChat(t, router, `{"user_message":"hi"}`, map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, rec.Code)
}
