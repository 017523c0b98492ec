package http

import (
	"time"

	"github.com/gin-gonic/gin"

	"pdfchat/internal/bootstrap"
	"pdfchat/internal/transport/http/handler"
	"pdfchat/internal/transport/http/middleware"
)

// multipartOverhead leaves room for form boundaries and the other fields
// around the file part.
const multipartOverhead = 1 << 20

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestLogger(app.Logger), middleware.Recovery(app.Logger))
	// uploads above this spill to disk instead of memory
	router.MaxMultipartMemory = 32 << 20

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	tokenTTL := time.Duration(app.Config.Auth.TokenExpireMinute) * time.Minute
	sessionHandler := handler.NewSessionHandler(app.ChatService, app.Config.Auth.TokenSecret, tokenTTL)
	documentHandler := handler.NewDocumentHandler(app.ChatService)
	chatHandler := handler.NewChatHandler(app.ChatService)
	archiveHandler := handler.NewArchiveHandler(app.ChatService)

	v1 := router.Group("/api/v1")
	v1.POST("/sessions", sessionHandler.Start)

	authed := v1.Group("")
	authed.Use(middleware.RequireSession(app.Config.Auth.TokenSecret))

	authed.GET("/session", sessionHandler.Get)
	authed.DELETE("/session", sessionHandler.End)
	authed.PUT("/session/name", sessionHandler.SetUserName)

	var bodyLimit int64
	if maxUpload := app.Config.MaxUploadBytes(); maxUpload > 0 {
		bodyLimit = maxUpload + multipartOverhead
	}
	authed.POST("/documents", middleware.LimitBody(bodyLimit), documentHandler.Upload)

	chatGroup := authed.Group("/chat")
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.POST("/stream", chatHandler.StreamMessage)

	archiveGroup := authed.Group("/archives")
	archiveGroup.GET("/:name", archiveHandler.Get)
	archiveGroup.DELETE("/:name", archiveHandler.Clear)
	archiveGroup.DELETE("", archiveHandler.ClearAll)

	return router
}
