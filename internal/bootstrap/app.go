package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pdfchat/internal/ai"
	appsvc "pdfchat/internal/app"
	"pdfchat/internal/config"
	"pdfchat/internal/pkg/logger"
	"pdfchat/internal/pkg/pdfextract"
	"pdfchat/internal/pkg/pdfextract/mupdf"
	"pdfchat/internal/pkg/pdfextract/tesseract"
	rabbitmqClient "pdfchat/internal/platform/rabbitmq"
	redisClient "pdfchat/internal/platform/redis"
	"pdfchat/internal/session"
	"pdfchat/internal/upload"
)

type App struct {
	Config      *config.Config
	Logger      *zap.Logger
	ChatService *appsvc.ChatService
	// Redis is nil unless sessions are kept in Redis.
	Redis *redis.Client
	// MQConn is nil when event publishing is disabled.
	MQConn *amqp.Connection
	// ScannedMode reports whether OCR is available.
	ScannedMode bool

	StartedAt time.Time

	ocr *tesseract.Engine
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Log.File, cfg.App.Env == "prod")
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:    cfg,
		Logger:    log,
		StartedAt: time.Now(),
	}
	if err := a.wire(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg := a.Config
	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	var store session.Store
	switch cfg.Session.Backend {
	case "redis":
		client, err := redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return err
		}
		a.Redis = client
		store = session.NewRedisStore(client, sessionTTL)
	default:
		store = session.NewMemoryStore(sessionTTL)
	}

	generator, err := ai.NewGenerator(ctx, ai.ProviderConfig{
		Provider: cfg.LLM.Provider,
		BaseURL:  cfg.LLM.BaseURL,
		APIKey:   cfg.LLM.APIKey,
		Model:    cfg.LLM.Model,
	})
	if err != nil {
		return fmt.Errorf("create llm client failed: %w", err)
	}

	var publisher appsvc.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		conn, err := rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.EventQueue)
		if err != nil {
			return err
		}
		a.MQConn = conn
		publisher = rabbitmqClient.NewEventPublisher(conn, cfg.RabbitMQ.EventQueue)
	}

	a.ChatService = appsvc.NewChatService(
		store,
		upload.NewValidator(cfg.MaxUploadBytes()),
		a.newExtractor(),
		generator,
		publisher,
		a.Logger,
		appsvc.Options{
			TempDir:           cfg.Upload.TempDir,
			GenerationTimeout: time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
			MaxPromptChars:    cfg.LLM.MaxPromptChars,
		},
	)

	a.Logger.Info("app wired",
		zap.String("session_backend", cfg.Session.Backend),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("scanned_mode", a.ScannedMode),
		zap.Bool("events", a.MQConn != nil),
	)
	return nil
}

// newExtractor always supports the text layer. Scanned mode needs the
// tesseract language data; without it scanned uploads fail with an
// extraction error.
func (a *App) newExtractor() *pdfextract.Extractor {
	ocr, err := tesseract.New(a.Config.Extract.OCRLanguage, a.Config.Extract.OCRClients)
	if err != nil {
		a.Logger.Warn("ocr unavailable, scanned mode disabled", zap.Error(err))
		return pdfextract.New(pdfextract.TextLayer{}, nil, nil)
	}
	a.ocr = ocr
	a.ScannedMode = true
	raster := mupdf.New(a.Config.Extract.DPI, a.Config.Extract.MaxImageWidth)
	return pdfextract.New(pdfextract.TextLayer{}, raster, ocr)
}

func (a *App) Close() error {
	var closeErr error
	if a.ocr != nil {
		if err := a.ocr.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return closeErr
}
