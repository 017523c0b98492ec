package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat entry. Messages are never edited after creation.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

func UserMessage(content, timestamp string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: timestamp}
}

func AssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}
