package coretypes

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventType_Key(t *testing.T) {
	tests := []struct {
		name      string
		eventType EventType
		expected  string
	}{
		{"person created", PersonCreated, "PersonCreated"},
		{"person updated", PersonUpdated, "PersonUpdated"},
		{"conversation created", ConversationCreated, "ConversationCreated"},
		{"memory extracted", MemoryExtracted, "MemoryExtracted"},
		{"ai request completed", AIRequestCompleted, "AIRequestCompleted"},
		{"custom", Custom("reminder_due"), `Custom("reminder_due")`},
		{"custom with quotes", Custom(`say "hi"`), `Custom("say \"hi\"")`},
		{"zero value", EventType{}, `Custom("")`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.eventType.Key())
			assert.Equal(t, tt.expected, tt.eventType.String())
		})
	}
}

func TestEventType_CustomDoesNotCollideWithBuiltin(t *testing.T) {
	assert.NotEqual(t, PersonCreated.Key(), Custom("PersonCreated").Key())
	assert.Equal(t, Custom("x").Key(), Custom("x").Key())
	assert.True(t, Custom("x").IsCustom())
	assert.False(t, MemoryExtracted.IsCustom())
	assert.Equal(t, "x", Custom("x").CustomName())
}

func TestParseEventType(t *testing.T) {
	for _, et := range []EventType{PersonCreated, PersonUpdated, ConversationCreated, MemoryExtracted, AIRequestCompleted, Custom("a b"), Custom("")} {
		parsed, err := ParseEventType(et.Key())
		require.NoError(t, err)
		assert.Equal(t, et, parsed)
	}

	_, err := ParseEventType("Nope")
	assert.Error(t, err)

	_, err = ParseEventType("Custom(unquoted)")
	assert.Error(t, err)
}

func TestEvent_JSONUsesRenderedKey(t *testing.T) {
	evt := NewEvent(Custom("ping"), "tests", map[string]any{"n": 1})

	data, err := json.Marshal(evt)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"event_type":"Custom(\"ping\")"`)

	var decoded Event
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, evt.Type, decoded.Type)
	assert.Equal(t, "tests", decoded.Source)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Kind
	}{
		{"nil", nil, ""},
		{"not configured", ErrNotConfigured, KindConfiguration},
		{"wrapped not configured", fmt.Errorf("openai: %w", ErrNotConfigured), KindConfiguration},
		{"duplicate app", &DuplicateAppError{ID: "memory"}, KindDuplicate},
		{"not found", fmt.Errorf("person 3: %w", ErrNotFound), KindNotFound},
		{"request failed", &RequestFailedError{Provider: "openai", Reason: "timeout"}, KindTransport},
		{"invalid response", &InvalidResponseError{Provider: "openai", Reason: "not json"}, KindValidation},
		{"store", &StoreError{Op: "create person", Err: errors.New("disk full")}, KindStore},
		{"store not found", &StoreError{Op: "get person", Err: ErrNotFound}, KindNotFound},
		{"other", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, KindOf(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "app 'memory' already registered", (&DuplicateAppError{ID: "memory"}).Error())
	assert.Equal(t, "ollama: request failed: connection refused", (&RequestFailedError{Provider: "ollama", Reason: "connection refused"}).Error())
	assert.Equal(t, "openai: invalid response: empty", (&InvalidResponseError{Provider: "openai", Reason: "empty"}).Error())

	inner := errors.New("locked")
	err := &RequestFailedError{Provider: "x", Reason: "locked", Err: inner}
	assert.ErrorIs(t, err, inner)
}
