package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "paisa/internal/errors"
	"paisa/internal/services"
)

// ChatHandler handles the conversational endpoint.
type ChatHandler struct {
	chatService services.ChatServicer
	audit       services.AuditServicer
}

// NewChatHandler creates a new ChatHandler.
func NewChatHandler(chatService services.ChatServicer, audit services.AuditServicer) *ChatHandler {
	return &ChatHandler{chatService: chatService, audit: audit}
}

// ChatMessage is one turn of client-held conversation history.
type ChatMessage struct {
	Role    string `json:"role" binding:"required,oneof=user assistant"`
	Content string `json:"content" binding:"required"`
}

// ChatRequest represents the chat request payload. The client holds the
// conversation history and replays the recent turns with each message.
type ChatRequest struct {
	Message string        `json:"message" binding:"required,max=2000"`
	History []ChatMessage `json:"history" binding:"max=20,dive"`
}

// ChatResponse represents the chat response payload.
type ChatResponse struct {
	Response string `json:"response"`
}

// Chat handles one conversational message
// @Summary     Send a chat message
// @Description Interpret a natural-language message and apply the resulting ledger actions
// @Tags        chat
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ChatRequest true "Message and recent history"
// @Success     200 {object} ChatResponse "Assistant response"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /chat [post]
func (h *ChatHandler) Chat(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	response, err := h.chatService.ProcessMessage(c.Request.Context(), userID, req.Message, renderHistory(req.History))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.audit.Log(userID, "CHAT_MESSAGE", "chat", 0, c.ClientIP(), nil)

	c.JSON(http.StatusOK, ChatResponse{Response: response})
}

// renderHistory flattens the structured history into the plain text block
// the interpreter prompt expects.
func renderHistory(history []ChatMessage) string {
	var b strings.Builder
	for _, msg := range history {
		b.WriteString(msg.Role)
		b.WriteString(": ")
		b.WriteString(msg.Content)
		b.WriteString("\n")
	}
	return b.String()
}
