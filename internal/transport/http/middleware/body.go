package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/transport/http/response"
)

// LimitBody caps the request body at maxBytes. Requests that announce a
// larger body are refused up front; anything else is cut off while reading.
// maxBytes <= 0 disables the limit.
func LimitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeTooLarge, "request body too large")
			c.Abort()
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
