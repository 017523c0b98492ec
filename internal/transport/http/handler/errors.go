package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/app"
	"pdfchat/internal/transport/http/middleware"
	"pdfchat/internal/transport/http/response"
)

func writeServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, app.ErrSessionNotFound):
		response.Error(c, http.StatusNotFound, response.CodeSessionNotFound, err.Error())
	case errors.Is(err, app.ErrArchiveNotFound):
		response.Error(c, http.StatusNotFound, response.CodeArchiveNotFound, err.Error())
	case errors.Is(err, app.ErrEmptyQuestion):
		response.Error(c, http.StatusBadRequest, response.CodeEmptyQuestion, err.Error())
	case errors.Is(err, app.ErrNoDocument):
		response.Error(c, http.StatusConflict, response.CodeNoDocument, err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, fallback)
	}
}

func sessionIDFromContext(c *gin.Context) (string, bool) {
	id, ok := middleware.SessionID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
	}
	return id, ok
}

func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	replaced = strings.ReplaceAll(replaced, "\n", "\\n")
	return replaced
}
