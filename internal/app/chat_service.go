package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdfchat/internal/ai"
	"pdfchat/internal/model"
	"pdfchat/internal/session"
)

var (
	ErrSessionNotFound = session.ErrNotFound
	ErrEmptyQuestion   = errors.New("question is empty")
	ErrNoDocument      = errors.New("no document is ready")
	ErrArchiveNotFound = errors.New("no archived chat for this document")
)

const timestampLayout = "2006-01-02 15:04:05"

// TextExtractor turns a stored PDF into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, path string, scanned bool) (string, error)
}

// FileValidator accepts or rejects an upload before it is processed.
type FileValidator interface {
	Validate(name string, size int64, r io.ReadSeeker) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, model.Event) error { return nil }

type Options struct {
	TempDir           string
	GenerationTimeout time.Duration
	MaxPromptChars    int
}

// ChatService runs every user turn of a session: uploads, questions and
// archive maintenance. Each turn holds the session's turn lock from start to
// finish.
type ChatService struct {
	store     session.Store
	validator FileValidator
	extractor TextExtractor
	generator ai.Generator
	publisher EventPublisher
	logger    *zap.Logger

	tempDir        string
	genTimeout     time.Duration
	maxPromptChars int
	now            func() time.Time
}

func NewChatService(
	store session.Store,
	validator FileValidator,
	extractor TextExtractor,
	generator ai.Generator,
	publisher EventPublisher,
	logger *zap.Logger,
	opts Options,
) *ChatService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.GenerationTimeout <= 0 {
		opts.GenerationTimeout = 60 * time.Second
	}
	if opts.MaxPromptChars <= 0 || opts.MaxPromptChars > DefaultMaxPromptChars {
		opts.MaxPromptChars = DefaultMaxPromptChars
	}
	return &ChatService{
		store:          store,
		validator:      validator,
		extractor:      extractor,
		generator:      generator,
		publisher:      publisher,
		logger:         logger,
		tempDir:        opts.TempDir,
		genTimeout:     opts.GenerationTimeout,
		maxPromptChars: opts.MaxPromptChars,
		now:            time.Now,
	}
}

// Snapshot is the read-only view of a session handed to the presentation
// layer after each turn.
type Snapshot struct {
	SessionID         string               `json:"session_id"`
	CurrentDocument   string               `json:"current_document"`
	Status            model.DocumentStatus `json:"status"`
	CanAsk            bool                 `json:"can_ask"`
	UserName          string               `json:"user_name"`
	Messages          []model.Message      `json:"messages"`
	ArchivedDocuments []string             `json:"archived_documents"`
	LastFile          *model.FileRef       `json:"last_file,omitempty"`
	Warning           string               `json:"warning,omitempty"`
}

func newSnapshot(s *session.State, warning string) Snapshot {
	c := s.Clone()
	messages := c.Messages
	if messages == nil {
		messages = []model.Message{}
	}
	return Snapshot{
		SessionID:         c.ID,
		CurrentDocument:   c.CurrentDocument,
		Status:            c.Status,
		CanAsk:            c.CanAsk(),
		UserName:          c.UserName,
		Messages:          messages,
		ArchivedDocuments: c.ArchivedDocuments(),
		LastFile:          c.LastFile,
		Warning:           warning,
	}
}

type AskResult struct {
	Question model.Message `json:"question"`
	Answer   model.Message `json:"answer"`
	// Failed is set when the answer is the placeholder for a failed generation.
	Failed bool `json:"failed"`
}

func (s *ChatService) StartSession(ctx context.Context) (Snapshot, error) {
	state, err := s.store.Create(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	s.publish(ctx, model.EventSessionStarted, state.ID, "", "")
	return newSnapshot(state, ""), nil
}

// Snapshot returns the current view and consumes the pending warning.
func (s *ChatService) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot
	err := s.store.Update(ctx, sessionID, func(state *session.State) error {
		snap = newSnapshot(state, state.TakeWarning())
		return nil
	})
	return snap, err
}

func (s *ChatService) EndSession(ctx context.Context, sessionID string) error {
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return err
	}
	s.publish(ctx, model.EventSessionEnded, sessionID, "", "")
	return nil
}

func (s *ChatService) SetUserName(ctx context.Context, sessionID, name string) (Snapshot, error) {
	var snap Snapshot
	err := s.store.Update(ctx, sessionID, func(state *session.State) error {
		state.SetUserName(name)
		snap = newSnapshot(state, "")
		return nil
	})
	return snap, err
}

// Ask sends one question about the current document and records the
// exchange. A generation failure is not an error: the placeholder reply is
// recorded instead and the conversation stays usable.
func (s *ChatService) Ask(ctx context.Context, sessionID, question string) (*AskResult, error) {
	return s.ask(ctx, sessionID, question, func(ctx context.Context, prompt string) (string, error) {
		return s.generator.Generate(ctx, prompt)
	})
}

// StreamAsk is Ask with the reply forwarded chunk by chunk as it arrives.
func (s *ChatService) StreamAsk(
	ctx context.Context,
	sessionID, question string,
	onChunk func(string) error,
) (*AskResult, error) {
	return s.ask(ctx, sessionID, question, func(ctx context.Context, prompt string) (string, error) {
		return s.generator.GenerateStream(ctx, prompt, onChunk)
	})
}

func (s *ChatService) ask(
	ctx context.Context,
	sessionID, question string,
	generate func(ctx context.Context, prompt string) (string, error),
) (*AskResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}

	var (
		result   AskResult
		document string
		genErr   error
	)
	err := s.store.Update(ctx, sessionID, func(state *session.State) error {
		if !state.CanAsk() {
			return ErrNoDocument
		}
		document = state.CurrentDocument
		result.Question = model.UserMessage(question, s.now().Format(timestampLayout))
		state.Append(result.Question)

		prompt := BuildPrompt(state.Text, state.UserName, question, s.maxPromptChars)
		reply, err := s.generate(ctx, prompt, generate)
		if err != nil {
			genErr = err
			result.Failed = true
			reply = generationFailedReply
		}
		result.Answer = model.AssistantMessage(reply)
		state.Append(result.Answer)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if genErr != nil {
		s.logger.Warn("generation failed",
			zap.String("session_id", sessionID),
			zap.String("document", document),
			zap.Error(genErr),
		)
		s.publish(ctx, model.EventGenerationFailed, sessionID, document, genErr.Error())
	} else {
		s.publish(ctx, model.EventQuestionAnswered, sessionID, document, "")
	}
	return &result, nil
}

func (s *ChatService) generate(
	ctx context.Context,
	prompt string,
	generate func(ctx context.Context, prompt string) (string, error),
) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.genTimeout)
	defer cancel()

	reply, err := generate(genCtx, prompt)
	if err != nil {
		return "", err
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return "", errors.New(emptyReplyText)
	}
	return reply, nil
}

// Archive returns the stored chat of a document the session switched away
// from.
func (s *ChatService) Archive(ctx context.Context, sessionID, document string) ([]model.Message, error) {
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	msgs, ok := state.ArchiveFor(document)
	if !ok {
		return nil, ErrArchiveNotFound
	}
	return msgs, nil
}

// ClearDocument forgets one document's archived chat. Clearing the current
// document also empties the live conversation.
func (s *ChatService) ClearDocument(ctx context.Context, sessionID, document string) (Snapshot, error) {
	var snap Snapshot
	err := s.store.Update(ctx, sessionID, func(state *session.State) error {
		if !state.ClearDocument(document) {
			return ErrArchiveNotFound
		}
		snap = newSnapshot(state, "")
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.publish(ctx, model.EventArchiveCleared, sessionID, document, "")
	return snap, nil
}

func (s *ChatService) ClearAll(ctx context.Context, sessionID string) (Snapshot, error) {
	var snap Snapshot
	err := s.store.Update(ctx, sessionID, func(state *session.State) error {
		state.ClearAll()
		snap = newSnapshot(state, "")
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	s.publish(ctx, model.EventArchiveCleared, sessionID, "", "all")
	return snap, nil
}

// publish is fire-and-forget: a broker problem never fails the turn.
func (s *ChatService) publish(ctx context.Context, eventType, sessionID, document, detail string) {
	event := model.Event{
		Type:      eventType,
		SessionID: sessionID,
		Document:  document,
		Detail:    detail,
		At:        s.now(),
	}
	if err := s.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		s.logger.Warn("publish event failed",
			zap.String("type", eventType),
			zap.String("session_id", sessionID),
			zap.Error(err),
		)
	}
}
