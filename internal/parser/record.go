package parser

import (
	"bytes"
	"encoding/json"
)

// OptString decodes a JSON string. Any other JSON value, null included,
// leaves it empty instead of failing the enclosing record.
type OptString string

func (o *OptString) UnmarshalJSON(b []byte) error {
	var s string
	if json.Unmarshal(b, &s) == nil {
		*o = OptString(s)
	} else {
		*o = ""
	}
	return nil
}

// recordKind discriminates the log record types the parser cares about
type recordKind int

const (
	kindOther recordKind = iota
	kindAssistant
	kindCustomTitle
)

// envelope is the top-level shape of a Claude Code JSONL line. Message is kept
// raw and only decoded for assistant records.
type envelope struct {
	Type        OptString       `json:"type"`
	SessionID   OptString       `json:"sessionId"`
	Timestamp   OptString       `json:"timestamp"`
	CustomTitle OptString       `json:"customTitle"`
	CWD         OptString       `json:"cwd"`
	Message     json.RawMessage `json:"message"`
}

type message struct {
	Model OptString `json:"model"`
	Usage usage     `json:"usage"`
}

type usage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

func (e *envelope) kind() recordKind {
	switch e.Type {
	case "assistant":
		return kindAssistant
	case "custom-title":
		return kindCustomTitle
	default:
		return kindOther
	}
}

// decodeMessage decodes the message field. It reports false when the field is
// absent, not a JSON object, or malformed.
func (e *envelope) decodeMessage() (message, bool) {
	var msg message
	raw := bytes.TrimSpace(e.Message)
	if len(raw) == 0 || raw[0] != '{' {
		return msg, false
	}
	if err := json.Unmarshal(raw, &msg); err != nil {
		return msg, false
	}
	return msg, true
}

// decodeLine parses one non-blank line into an envelope
func decodeLine(line []byte) (envelope, error) {
	var env envelope
	err := json.Unmarshal(line, &env)
	return env, err
}
