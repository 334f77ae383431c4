package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"corelab/pkg/coretypes"
)

// Importance bounds for extracted memories.
const (
	MinImportance = 1
	MaxImportance = 5
)

const extractionSystemPrompt = `You extract durable facts about a person from conversation notes.
Return ONLY a JSON object of the form:
{"memories":[{"key":"string","value":"string","importance":1,"confidence":0.5}]}
- key: short snake_case label (e.g. "favorite_food", "job", "birthday")
- value: the fact itself, in the language of the notes
- importance: integer 1 (trivia) to 5 (essential)
- confidence: number between 0 and 1
Return {"memories":[]} when nothing is worth remembering.`

type completeFunc func(ctx context.Context, req coretypes.AIRequest) (coretypes.AIResponse, error)

// extractWith runs the structured-output prompt through complete and
// validates the answer.
func extractWith(ctx context.Context, provider string, complete completeFunc, text string) ([]coretypes.ExtractedMemory, error) {
	if strings.TrimSpace(text) == "" {
		return []coretypes.ExtractedMemory{}, nil
	}

	resp, err := complete(ctx, coretypes.AIRequest{
		Prompt:       "Conversation notes:\n" + text,
		SystemPrompt: extractionSystemPrompt,
		Temperature:  coretypes.Float(0),
		JSON:         true,
	})
	if err != nil {
		return nil, err
	}

	return ParseMemories(provider, resp.Content)
}

type rawMemory struct {
	Key        string   `json:"key"`
	Value      any      `json:"value"`
	Importance *float64 `json:"importance"`
	Confidence *float64 `json:"confidence"`
}

// ParseMemories decodes a model answer into validated memories. It accepts
// {"memories":[...]} or a bare array, optionally inside a markdown code fence.
// Entries without key or value are dropped; importance is clamped to
// [MinImportance, MaxImportance] and confidence to [0, 1].
func ParseMemories(provider, raw string) ([]coretypes.ExtractedMemory, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return nil, invalidResponse(provider, "empty extraction payload")
	}

	var items []rawMemory
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, invalidResponse(provider, fmt.Sprintf("parse memories: %v", err))
		}
	} else {
		var payload struct {
			Memories *[]rawMemory `json:"memories"`
		}
		if err := json.Unmarshal([]byte(body), &payload); err != nil {
			return nil, invalidResponse(provider, fmt.Sprintf("parse memories: %v", err))
		}
		if payload.Memories == nil {
			return nil, invalidResponse(provider, "missing \"memories\" field")
		}
		items = *payload.Memories
	}

	memories := make([]coretypes.ExtractedMemory, 0, len(items))
	for _, item := range items {
		key := strings.TrimSpace(item.Key)
		value := strings.TrimSpace(stringify(item.Value))
		if key == "" || value == "" {
			continue
		}

		importance := MinImportance
		if item.Importance != nil {
			importance = clampImportance(*item.Importance)
		}
		confidence := 0.5
		if item.Confidence != nil {
			confidence = clamp01(*item.Confidence)
		}

		memories = append(memories, coretypes.ExtractedMemory{
			Key:        key,
			Value:      value,
			Importance: importance,
			Confidence: confidence,
		})
	}
	return memories, nil
}

// structuredPayload returns content as raw JSON when it parses as JSON.
func structuredPayload(content string) json.RawMessage {
	body := stripCodeFence(content)
	if body == "" || !json.Valid([]byte(body)) {
		return nil
	}
	return json.RawMessage(body)
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// clampImportance rounds v into [MinImportance, MaxImportance]. It clamps
// before converting so huge values cannot overflow int.
func clampImportance(v float64) int {
	switch {
	case math.IsNaN(v) || v < MinImportance:
		return MinImportance
	case v > MaxImportance:
		return MaxImportance
	default:
		return int(math.Round(v))
	}
}
