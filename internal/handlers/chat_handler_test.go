package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
)

type mockChatService struct {
	processFn  func(ctx context.Context, userID uint, message, chatHistory string) (string, error)
	gotMessage string
	gotHistory string
	gotUserID  uint
}

func (m *mockChatService) ProcessMessage(ctx context.Context, userID uint, message, chatHistory string) (string, error) {
	m.gotUserID = userID
	m.gotMessage = message
	m.gotHistory = chatHistory
	if m.processFn != nil {
		return m.processFn(ctx, userID, message, chatHistory)
	}
	return "Done!", nil
}

func setupChatRouter(handler *ChatHandler) *gin.Engine {
	r := gin.New()
	r.POST("/chat", injectUserID(1), handler.Chat)
	return r
}

func TestChat(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		svc := &mockChatService{
			processFn: func(_ context.Context, _ uint, _, _ string) (string, error) {
				return "Recorded ₹500 for food. Balance: ₹49,500.", nil
			},
		}
		r := setupChatRouter(NewChatHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/chat", `{"message": "spent 500 on food"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		body := parseJSON(t, rec)
		if body["response"] != "Recorded ₹500 for food. Balance: ₹49,500." {
			t.Errorf("unexpected response body: %v", body)
		}
		if svc.gotUserID != 1 || svc.gotMessage != "spent 500 on food" {
			t.Errorf("service called with userID=%d message=%q", svc.gotUserID, svc.gotMessage)
		}
	})

	t.Run("history_flattened", func(t *testing.T) {
		svc := &mockChatService{}
		r := setupChatRouter(NewChatHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/chat", `{
			"message": "yes",
			"history": [
				{"role": "user", "content": "got salary"},
				{"role": "assistant", "content": "How much?"}
			]
		}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		want := "user: got salary\nassistant: How much?\n"
		if svc.gotHistory != want {
			t.Errorf("expected history %q, got %q", want, svc.gotHistory)
		}
	})

	t.Run("missing_message", func(t *testing.T) {
		r := setupChatRouter(NewChatHandler(&mockChatService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/chat", `{"history": []}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("invalid_history_role", func(t *testing.T) {
		r := setupChatRouter(NewChatHandler(&mockChatService{}, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/chat", `{
			"message": "hi",
			"history": [{"role": "system", "content": "sneaky"}]
		}`)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("service_error", func(t *testing.T) {
		svc := &mockChatService{
			processFn: func(_ context.Context, _ uint, _, _ string) (string, error) {
				return "", apperrors.ErrInternalServer
			},
		}
		r := setupChatRouter(NewChatHandler(svc, &mockAuditService{}))

		rec := doRequest(r, http.MethodPost, "/chat", `{"message": "spent 500"}`)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})
}
