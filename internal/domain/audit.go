package domain

import (
	"encoding/json"
	"time"
)

type ToolCall struct {
	ID         string          `json:"id"`
	Server     string          `json:"server"` // amadeus|coralogix
	Tool       string          `json:"tool"`
	Arguments  json.RawMessage `json:"arguments,omitempty"`
	IsError    bool            `json:"is_error"`
	ErrorText  *string         `json:"error_text,omitempty"`
	DurationMS int64           `json:"duration_ms"`
	CreatedAt  time.Time       `json:"created_at"`
}
