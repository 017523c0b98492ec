package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.Ask(c.Request.Context(), sessionID, req.Content)
	if err != nil {
		writeServiceError(c, err, "send message failed")
		return
	}
	response.OK(c, result)
}

// StreamMessage answers over server-sent events: one data line per chunk,
// then a "done" event carrying the recorded exchange as JSON, or an "error"
// event.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	result, err := h.chatService.StreamAsk(c.Request.Context(), sessionID, req.Content, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(chunk) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		writeSSEError(c, flusher, err)
		return
	}

	payload, err := json.Marshal(result)
	if err != nil {
		writeSSEError(c, flusher, err)
		return
	}
	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + string(payload) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func writeSSEError(c *gin.Context, flusher http.Flusher, err error) {
	message := "stream message failed"
	switch {
	case errors.Is(err, app.ErrSessionNotFound),
		errors.Is(err, app.ErrEmptyQuestion),
		errors.Is(err, app.ErrNoDocument):
		message = err.Error()
	default:
		_ = c.Error(err)
	}
	if _, writeErr := c.Writer.Write([]byte(fmt.Sprintf("event: error\ndata: %s\n\n", sanitizeSSE(message)))); writeErr == nil {
		flusher.Flush()
	}
}
