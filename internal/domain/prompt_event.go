package domain

import (
	"time"
)

// PromptEvent is one journaled prompt build.
type PromptEvent struct {
	Timestamp  time.Time `json:"ts"`
	Pair       string    `json:"pair"`
	Platform   string    `json:"platform,omitempty"`
	Prediction string    `json:"prediction"`
	Prompt     string    `json:"prompt"`
}

// PromptEventRecord bundles a journaled prompt event with its log index.
type PromptEventRecord struct {
	Index uint64
	Event PromptEvent
}
