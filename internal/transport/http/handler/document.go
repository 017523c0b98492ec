package handler

import (
	"errors"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/response"
)

type DocumentHandler struct {
	chatService *app.ChatService
}

func NewDocumentHandler(chatService *app.ChatService) *DocumentHandler {
	return &DocumentHandler{chatService: chatService}
}

// Upload accepts a multipart "file" field and an optional "scanned" flag.
// Validation and extraction problems come back as a normal result with the
// outcome set; only session and I/O failures are errors.
func (h *DocumentHandler) Upload(c *gin.Context) {
	sessionID, ok := sessionIDFromContext(c)
	if !ok {
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "request body too large")
			return
		}
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "missing file (form field 'file')")
		return
	}

	scanned := false
	if raw := c.PostForm("scanned"); raw != "" {
		scanned, err = strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid scanned flag")
			return
		}
	}

	f, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "failed to open uploaded file")
		return
	}
	defer f.Close()

	result, err := h.chatService.Upload(c.Request.Context(), app.UploadInput{
		SessionID: sessionID,
		Name:      filepath.Base(file.Filename),
		Size:      file.Size,
		Content:   f,
		Scanned:   scanned,
	})
	if err != nil {
		writeServiceError(c, err, "upload document failed")
		return
	}
	response.OK(c, result)
}
