package model

import "time"

// Conversation 单聊会话，Messages 按写入顺序即时间顺序排列
type Conversation struct {
	ID         string    `bson:"id" json:"id"`
	Name       string    `bson:"name" json:"name"`           // 对方显示名
	Avatar     string    `bson:"avatar" json:"avatar"`       // 对方头像
	Role       Role      `bson:"role" json:"role"`           // 对方角色
	UserIDs    [2]uint64 `bson:"user_ids" json:"userIds"`    // [会话拥有者, 对方]
	Messages   []Message `bson:"messages" json:"messages"`   // 不可重排
	LastActive time.Time `bson:"last_active" json:"lastActive"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// PeerID 返回除 userID 之外的另一方
func (c *Conversation) PeerID(userID uint64) uint64 {
	if c.UserIDs[0] == userID {
		return c.UserIDs[1]
	}
	return c.UserIDs[0]
}

// HasMember 判断用户是否属于该会话
func (c *Conversation) HasMember(userID uint64) bool {
	return c.UserIDs[0] == userID || c.UserIDs[1] == userID
}

// LastSeq 当前会话最大消息序号，空会话为 0
func (c *Conversation) LastSeq() uint64 {
	if len(c.Messages) == 0 {
		return 0
	}
	return c.Messages[len(c.Messages)-1].Seq
}

// Message 消息，创建后不可修改
type Message struct {
	ID             string    `bson:"id" json:"id"`
	ConversationID string    `bson:"conversation_id" json:"conversationId"`
	SenderID       uint64    `bson:"sender_id" json:"senderId"`
	Text           string    `bson:"text" json:"text"`
	Seq            uint64    `bson:"seq" json:"seq"` // 会话内单调递增序号，已读进度以此为准
	Timestamp      time.Time `bson:"timestamp" json:"timestamp"`
}

// ChatUser 当前会话的操作者
type ChatUser struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
	Email  string `json:"email,omitempty"`
}

// Counterpart 发起会话时的对方信息
type Counterpart struct {
	ID     uint64 `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
	Role   Role   `json:"role"`
}
