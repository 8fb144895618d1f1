package dto

// SysBoxDTO 站内通知返回对象
type SysBoxDTO struct {
	ID          string         `json:"id"`
	SenderID    uint64         `json:"sender_id"`
	SenderName  string         `json:"sender_name"`
	AvatarURL   string         `json:"avatar_url"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Variant     string         `json:"variant"`
	Payload     map[string]any `json:"payload"`
	IsRead      bool           `json:"is_read"`
	CreatedAt   string         `json:"created_at"`
}

// SysBoxUnreadDTO 未读数返回
type SysBoxUnreadDTO struct {
	UnreadCount int64 `json:"unread_count"`
}

// SysBoxReadReq 标记单条已读
type SysBoxReadReq struct {
	ID string `json:"id" binding:"required"`
}
