package handler

import (
	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/model"
	"pdfchat/internal/transport/http/response"
)

type ArchiveHandler struct {
	chatService *app.ChatService
}

type ArchiveResponse struct {
	Document string          `json:"document"`
	Messages []model.Message `json:"messages"`
}

func NewArchiveHandler(chatService *app.ChatService) *ArchiveHandler {
	return &ArchiveHandler{chatService: chatService}
}

func (h *ArchiveHandler) Get(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	name := c.Param("name")
	msgs, err := h.chatService.Archive(c.Request.Context(), sessionID, name)
	if err != nil {
		writeServiceError(c, err, "get archive failed")
		return
	}
	response.OK(c, ArchiveResponse{Document: name, Messages: msgs})
}

func (h *ArchiveHandler) Clear(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	snap, err := h.chatService.ClearDocument(c.Request.Context(), sessionID, c.Param("name"))
	if err != nil {
		writeServiceError(c, err, "clear archive failed")
		return
	}
	response.OK(c, snap)
}

func (h *ArchiveHandler) ClearAll(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	snap, err := h.chatService.ClearAll(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err, "clear archives failed")
		return
	}
	response.OK(c, snap)
}
