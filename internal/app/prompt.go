package app

import (
	"fmt"
	"strings"
)

// DefaultMaxPromptChars bounds how much document text goes into one prompt.
// Smaller limits are honoured, larger ones are not.
const DefaultMaxPromptChars = 50000

const (
	generationFailedReply = "Sorry, I couldn't get an answer right now. Please try asking again."
	emptyReplyText        = "The model returned an empty response."
)

// BuildPrompt pairs the document text with the question. Text longer than
// maxChars runes is cut off, never summarised.
func BuildPrompt(text, userName, question string, maxChars int) string {
	if maxChars <= 0 || maxChars > DefaultMaxPromptChars {
		maxChars = DefaultMaxPromptChars
	}

	var b strings.Builder
	b.WriteString("PDF Content:\n")
	b.WriteString(truncateRunes(text, maxChars))
	b.WriteString("\n\n")
	if name := strings.TrimSpace(userName); name != "" {
		b.WriteString("User name: ")
		b.WriteString(name)
		b.WriteString("\n\n")
	}
	b.WriteString("Question: ")
	b.WriteString(question)
	return b.String()
}

func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}

func welcomeText(document, userName string) string {
	if userName != "" {
		return fmt.Sprintf("Hi %s! I've read %s. Ask me anything about it.", userName, document)
	}
	return fmt.Sprintf("I've read %s. Ask me anything about it.", document)
}

func noTextFoundText(document string) string {
	return fmt.Sprintf("I couldn't find any text in %s. If it is a scanned document, upload it again with scanned mode turned on.", document)
}

func extractionFailedText(document string) string {
	return fmt.Sprintf("Sorry, I couldn't read %s. The file may be corrupted or password-protected.", document)
}

func rejectedUploadText(reason string) string {
	return fmt.Sprintf("Upload rejected: %s.", reason)
}
