package model

import "time"

// Notice 发给某个用户的提示，经 Kafka 投递后落到站内信箱
type Notice struct {
	UserID      uint64         `json:"userId"`
	SenderID    uint64         `json:"senderId,omitempty"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Variant     string         `json:"variant,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
