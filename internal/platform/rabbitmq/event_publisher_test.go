package rabbitmq

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdfchat/internal/model"
)

func TestEncodeEvent(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	payload, err := encodeEvent(model.Event{
		Type:      model.EventDocumentReady,
		SessionID: "s1",
		Document:  "fox.pdf",
		At:        at,
	})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "document_ready", decoded["type"])
	assert.Equal(t, "s1", decoded["session_id"])
	assert.Equal(t, "fox.pdf", decoded["document"])
	assert.Equal(t, "2024-05-01T09:30:00Z", decoded["at"])
	assert.NotContains(t, decoded, "detail")
}
