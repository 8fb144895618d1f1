package service

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"context"
	log "log/slog"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
)

// Notifier 提示消息出口，投递失败只记录日志
type Notifier interface {
	Notify(ctx context.Context, notice model.Notice)
}

// KafkaNotifier 以接收者ID为 key 异步投递到通知 topic
type KafkaNotifier struct {
	producer sarama.AsyncProducer
	topic    string
	now      func() time.Time
	done     chan struct{}
}

func NewKafkaNotifier(producer sarama.AsyncProducer, topic string) *KafkaNotifier {
	n := &KafkaNotifier{
		producer: producer,
		topic:    topic,
		now:      time.Now,
		done:     make(chan struct{}),
	}
	go n.drainErrors()
	return n
}

func (n *KafkaNotifier) Notify(ctx context.Context, notice model.Notice) {
	if notice.Variant == "" {
		notice.Variant = consts.NoticeVariantDefault
	}
	if notice.CreatedAt.IsZero() {
		notice.CreatedAt = n.now()
	}
	value, err := json.Marshal(notice)
	if err != nil {
		log.ErrorContext(ctx, "marshal notice failed", "err", err)
		return
	}
	msg := &sarama.ProducerMessage{
		Topic: n.topic,
		Key:   sarama.StringEncoder(strconv.FormatUint(notice.UserID, 10)),
		Value: sarama.ByteEncoder(value),
	}
	select {
	case n.producer.Input() <- msg:
	case <-ctx.Done():
		log.WarnContext(ctx, "notice dropped, context done", "userID", notice.UserID)
	}
}

// Close 关闭生产者并等待错误通道排空
func (n *KafkaNotifier) Close() error {
	err := n.producer.Close()
	<-n.done
	return err
}

func (n *KafkaNotifier) drainErrors() {
	defer close(n.done)
	for perr := range n.producer.Errors() {
		log.Error("deliver notice failed", "topic", perr.Msg.Topic, "err", perr.Err)
	}
}

// LogNotifier 未接入 Kafka 时使用，仅输出日志
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (LogNotifier) Notify(ctx context.Context, notice model.Notice) {
	log.InfoContext(ctx, "notice",
		"userID", notice.UserID,
		"title", notice.Title,
		"description", notice.Description,
		"variant", notice.Variant,
	)
}
