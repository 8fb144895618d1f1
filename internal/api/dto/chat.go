package dto

import "time"

// StartConversationReq 发起会话
type StartConversationReq struct {
	TargetUserID uint64 `json:"target_user_id" binding:"required"`
}

// SendMessageReq 发送消息
type SendMessageReq struct {
	Text string `json:"text" binding:"required" validate:"max=2000"`
}

// MessageDTO 消息
type MessageDTO struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       uint64    `json:"sender_id"`
	Text           string    `json:"text"`
	Seq            uint64    `json:"seq"`
	Timestamp      time.Time `json:"timestamp"`
	IsMine         bool      `json:"is_mine"`
}

// ConversationDTO 会话列表项
type ConversationDTO struct {
	ID          string      `json:"id"`
	PeerID      uint64      `json:"peer_id"`
	Name        string      `json:"name"`
	Avatar      string      `json:"avatar"`
	Role        string      `json:"role"`
	LastMessage *MessageDTO `json:"last_message,omitempty"`
	LastActive  time.Time   `json:"last_active"`
	UnreadCount int         `json:"unread_count"`
	CreatedAt   time.Time   `json:"created_at"`
}

// ConversationDetailDTO 会话详情，含完整消息历史
type ConversationDetailDTO struct {
	ConversationDTO
	Messages []*MessageDTO `json:"messages"`
}

// UnreadDTO 未读数
type UnreadDTO struct {
	UnreadCount int `json:"unread_count"`
}
