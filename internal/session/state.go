// Package session holds per-user chat state: the current document, its live
// conversation and the archive of conversations for earlier documents.
package session

import (
	"sort"
	"strings"
	"unicode/utf8"

	"pdfchat/internal/model"
)

const maxUserNameRunes = 64

type State struct {
	ID              string                     `json:"id"`
	CurrentDocument string                     `json:"current_document"`
	Status          model.DocumentStatus       `json:"status"`
	Text            string                     `json:"text"`
	Messages        []model.Message            `json:"messages"`
	Archive         map[string][]model.Message `json:"archive"`
	UserName        string                     `json:"user_name"`
	LastFile        *model.FileRef             `json:"last_file,omitempty"`
	Warning         string                     `json:"warning,omitempty"`
}

func NewState(id string) *State {
	return &State{
		ID:      id,
		Status:  model.StatusEmpty,
		Archive: make(map[string][]model.Message),
	}
}

// BeginDocument moves the state to processing for a newly uploaded file.
// It returns false, changing nothing, when name is already the current
// document. Otherwise the outgoing document's live messages are archived and
// the text is dropped.
func (s *State) BeginDocument(name string) bool {
	if name != "" && name == s.CurrentDocument {
		return false
	}
	s.archiveLive()
	s.CurrentDocument = name
	s.Status = model.StatusProcessing
	s.Text = ""
	return true
}

// MarkReady stores the extracted text and appends the welcome message.
func (s *State) MarkReady(text string, welcome model.Message) {
	s.Text = text
	s.Status = model.StatusReady
	s.Messages = append(s.Messages, welcome)
}

// MarkFailed appends the error message and forgets the current document so
// that uploading the same file again is processed from scratch.
func (s *State) MarkFailed(msg model.Message) {
	s.Messages = append(s.Messages, msg)
	s.CurrentDocument = ""
	s.Status = model.StatusError
	s.Text = ""
}

// CanAsk reports whether a question may be sent for the current document.
func (s *State) CanAsk() bool {
	return s.Status == model.StatusReady && strings.TrimSpace(s.Text) != ""
}

func (s *State) Append(msgs ...model.Message) {
	s.Messages = append(s.Messages, msgs...)
}

// Warn records a rejected upload without touching the current document.
func (s *State) Warn(reason string, msg model.Message) {
	s.Warning = reason
	s.Messages = append(s.Messages, msg)
}

// TakeWarning returns the pending warning and clears it.
func (s *State) TakeWarning() string {
	w := s.Warning
	s.Warning = ""
	return w
}

func (s *State) SetUserName(name string) {
	name = strings.TrimSpace(name)
	if utf8.RuneCountInString(name) > maxUserNameRunes {
		name = string([]rune(name)[:maxUserNameRunes])
	}
	s.UserName = name
}

func (s *State) ArchiveFor(name string) ([]model.Message, bool) {
	msgs, ok := s.Archive[name]
	if !ok {
		return nil, false
	}
	return append([]model.Message(nil), msgs...), true
}

// ClearDocument drops the archive entry for name. When name is the current
// document the state returns to empty as well. It reports whether anything
// was removed.
func (s *State) ClearDocument(name string) bool {
	_, archived := s.Archive[name]
	delete(s.Archive, name)
	if name != "" && name == s.CurrentDocument {
		s.reset()
		return true
	}
	return archived
}

func (s *State) ClearAll() {
	s.Archive = make(map[string][]model.Message)
	s.reset()
}

func (s *State) ArchivedDocuments() []string {
	names := make([]string, 0, len(s.Archive))
	for name := range s.Archive {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (s *State) Clone() *State {
	c := *s
	c.Messages = append([]model.Message(nil), s.Messages...)
	c.Archive = make(map[string][]model.Message, len(s.Archive))
	for k, v := range s.Archive {
		c.Archive[k] = append([]model.Message(nil), v...)
	}
	if s.LastFile != nil {
		ref := *s.LastFile
		c.LastFile = &ref
	}
	return &c
}

func (s *State) archiveLive() {
	if len(s.Messages) > 0 && s.CurrentDocument != "" {
		if s.Archive == nil {
			s.Archive = make(map[string][]model.Message)
		}
		s.Archive[s.CurrentDocument] = append(s.Archive[s.CurrentDocument], s.Messages...)
	}
	s.Messages = nil
}

func (s *State) reset() {
	s.CurrentDocument = ""
	s.Status = model.StatusEmpty
	s.Text = ""
	s.Messages = nil
}
