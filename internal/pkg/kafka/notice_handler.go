package kafka

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/mongo"
	"context"
	log "log/slog"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// NoticeHandler 消费通知 topic，写入站内信箱
type NoticeHandler struct {
	sysBoxRepo mongo.SysBoxRepo
}

func NewNoticeHandler(sysBoxRepo mongo.SysBoxRepo) *NoticeHandler {
	return &NoticeHandler{sysBoxRepo: sysBoxRepo}
}

func (h *NoticeHandler) Setup(sarama.ConsumerGroupSession) error {
	log.Info("notice consumer setup")
	return nil
}

func (h *NoticeHandler) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("notice consumer cleanup")
	return nil
}

func (h *NoticeHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	if err := pullMessageBatch(session, claim, h.logic); err != nil {
		log.Error("topic-notice process batch error", "err", err)
		return err
	}
	return nil
}

func (h *NoticeHandler) logic(ctx context.Context, msg *sarama.ConsumerMessage) error {
	notice, ok := decodeNotice(msg.Value)
	if !ok {
		// 坏消息直接丢弃，避免阻塞整个分区
		log.Warn("drop malformed notice", "offset", msg.Offset, "partition", msg.Partition)
		return nil
	}
	return h.sysBoxRepo.Create(ctx, toSysBox(notice))
}

func decodeNotice(value []byte) (*model.Notice, bool) {
	var notice model.Notice
	if err := json.Unmarshal(value, &notice); err != nil {
		return nil, false
	}
	if notice.UserID == 0 || notice.Title == "" {
		return nil, false
	}
	return &notice, true
}

func toSysBox(n *model.Notice) *mongo.SysBoxModel {
	variant := n.Variant
	if variant == "" {
		variant = consts.NoticeVariantDefault
	}
	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	return &mongo.SysBoxModel{
		ReceiverID:  n.UserID,
		SenderID:    n.SenderID,
		Title:       n.Title,
		Description: n.Description,
		Variant:     variant,
		Payload:     n.Payload,
		CreatedAt:   createdAt,
	}
}
