package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/pkg/jwtutil"
	"pdfchat/internal/transport/http/response"
)

type SessionHandler struct {
	chatService *app.ChatService
	tokenSecret string
	tokenTTL    time.Duration
}

type SetUserNameRequest struct {
	Name string `json:"name" binding:"max=256"`
}

type StartSessionResponse struct {
	Token   string       `json:"token"`
	Session app.Snapshot `json:"session"`
}

func NewSessionHandler(chatService *app.ChatService, tokenSecret string, tokenTTL time.Duration) *SessionHandler {
	return &SessionHandler{
		chatService: chatService,
		tokenSecret: tokenSecret,
		tokenTTL:    tokenTTL,
	}
}

func (h *SessionHandler) Start(c *gin.Context) {
	snap, err := h.chatService.StartSession(c.Request.Context())
	if err != nil {
		writeServiceError(c, err, "start session failed")
		return
	}

	token, err := jwtutil.GenerateToken(h.tokenSecret, h.tokenTTL, snap.SessionID)
	if err != nil {
		_ = h.chatService.EndSession(c.Request.Context(), snap.SessionID)
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue token failed")
		return
	}

	response.OK(c, StartSessionResponse{Token: token, Session: snap})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	snap, err := h.chatService.Snapshot(c.Request.Context(), sessionID)
	if err != nil {
		writeServiceError(c, err, "get session failed")
		return
	}
	response.OK(c, snap)
}

func (h *SessionHandler) End(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	if err := h.chatService.EndSession(c.Request.Context(), sessionID); err != nil {
		writeServiceError(c, err, "end session failed")
		return
	}
	response.OK(c, gin.H{"ended_session_id": sessionID})
}

func (h *SessionHandler) SetUserName(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	var req SetUserNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	snap, err := h.chatService.SetUserName(c.Request.Context(), sessionID, req.Name)
	if err != nil {
		writeServiceError(c, err, "set user name failed")
		return
	}
	response.OK(c, snap)
}
