package model

// FileRef identifies the last upload that passed validation.
type FileRef struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// DocumentStatus is the state of the session's current-document slot.
type DocumentStatus string

const (
	StatusEmpty      DocumentStatus = "empty"
	StatusProcessing DocumentStatus = "processing"
	StatusReady      DocumentStatus = "ready"
	StatusError      DocumentStatus = "error"
)
