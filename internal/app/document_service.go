package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"pdfchat/internal/model"
	"pdfchat/internal/session"
	"pdfchat/internal/upload"
)

type UploadOutcome string

const (
	UploadRejected  UploadOutcome = "rejected"
	UploadUnchanged UploadOutcome = "unchanged"
	UploadReady     UploadOutcome = "ready"
	UploadFailed    UploadOutcome = "failed"
)

type UploadInput struct {
	SessionID string
	Name      string
	Size      int64
	Content   io.ReadSeeker
	Scanned   bool
}

type UploadResult struct {
	Outcome  UploadOutcome `json:"outcome"`
	Reason   string        `json:"reason,omitempty"`
	Snapshot Snapshot      `json:"snapshot"`
}

// Upload validates a file and, when it differs from the current document,
// archives the outgoing chat and extracts the new document's text.
// Rejections and extraction failures are reported through the result and the
// chat, not as errors.
func (s *ChatService) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	var (
		result    UploadResult
		eventType string
		detail    string
	)
	err := s.store.Update(ctx, input.SessionID, func(state *session.State) error {
		if err := s.validator.Validate(input.Name, input.Size, input.Content); err != nil {
			result.Outcome = UploadRejected
			result.Reason = upload.Reason(err)
			state.Warn(result.Reason, model.AssistantMessage(rejectedUploadText(result.Reason)))
			eventType, detail = model.EventUploadRejected, result.Reason
			result.Snapshot = newSnapshot(state, state.TakeWarning())
			return nil
		}

		state.LastFile = &model.FileRef{Name: input.Name, Size: input.Size}
		if !state.BeginDocument(input.Name) {
			result.Outcome = UploadUnchanged
			result.Snapshot = newSnapshot(state, "")
			return nil
		}

		text, err := s.extract(ctx, state.ID, input)
		switch {
		case err != nil:
			s.logger.Warn("extract document failed",
				zap.String("session_id", state.ID),
				zap.String("document", input.Name),
				zap.Bool("scanned", input.Scanned),
				zap.Error(err),
			)
			state.MarkFailed(model.AssistantMessage(extractionFailedText(input.Name)))
			result.Outcome = UploadFailed
			eventType, detail = model.EventDocumentFailed, err.Error()
		case strings.TrimSpace(text) == "":
			state.MarkFailed(model.AssistantMessage(noTextFoundText(input.Name)))
			result.Outcome = UploadFailed
			eventType, detail = model.EventDocumentFailed, "no text found"
		default:
			state.MarkReady(text, model.AssistantMessage(welcomeText(input.Name, state.UserName)))
			result.Outcome = UploadReady
			eventType = model.EventDocumentReady
		}
		result.Snapshot = newSnapshot(state, "")
		return nil
	})
	if err != nil {
		return nil, err
	}

	if eventType != "" {
		s.publish(ctx, eventType, input.SessionID, input.Name, detail)
	}
	return &result, nil
}

// extract writes the upload to the session's temporary path, extracts it
// and removes the file again.
func (s *ChatService) extract(ctx context.Context, sessionID string, input UploadInput) (string, error) {
	path, err := s.writeTemp(sessionID, input.Content)
	if err != nil {
		return "", err
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			s.logger.Warn("remove temp upload failed", zap.String("path", path), zap.Error(rmErr))
		}
	}()

	return s.extractor.Extract(ctx, path, input.Scanned)
}

func (s *ChatService) writeTemp(sessionID string, content io.ReadSeeker) (string, error) {
	dir := s.tempDir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create temp dir failed: %w", err)
	}
	path := filepath.Join(dir, sessionID+".pdf")

	if _, err := content.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("rewind upload failed: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create temp upload failed: %w", err)
	}
	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write temp upload failed: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close temp upload failed: %w", err)
	}
	return path, nil
}
