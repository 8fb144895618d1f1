package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SysBoxModel 站内通知模型，由 Kafka 通知消费者写入
type SysBoxModel struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ReceiverID  uint64             `bson:"receiver_id" json:"receiverId"`   // 接收者ID
	SenderID    uint64             `bson:"sender_id" json:"senderId"`       // 触发者ID (系统通知为0)
	Title       string             `bson:"title" json:"title"`              // 标题
	Description string             `bson:"description" json:"description"` // 正文
	Variant     string             `bson:"variant" json:"variant"`          // default / success / destructive
	Payload     map[string]any     `bson:"payload" json:"payload"`          // 额外元数据，如会话ID
	IsRead      bool               `bson:"is_read" json:"isRead"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
}
