package worker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestHandleLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	w := NewEventLogWorker(nil, zap.New(core), "pdfchat.events")

	err := w.handle([]byte(`{"type":"document_ready","session_id":"s1","document":"fox.pdf","at":"2024-05-01T09:30:00Z"}`))
	require.NoError(t, err)

	entries := logs.FilterMessage("session event").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "document_ready", fields["type"])
	assert.Equal(t, "s1", fields["session_id"])
	assert.Equal(t, "fox.pdf", fields["document"])
}

func TestHandleRejectsBadPayload(t *testing.T) {
	w := NewEventLogWorker(nil, zap.NewNop(), "q")

	assert.Error(t, w.handle([]byte("not json")))
	assert.Error(t, w.handle([]byte(`{"type":"document_ready"}`)))
}
