package kafka

import (
	"EdVix/internal/api/config"
	"EdVix/internal/pkg/mongo"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
)

// ConsumerManager 管理所有 Kafka 消费者
type ConsumerManager struct {
	noticeConsumer sarama.ConsumerGroup
	noticeHandler  sarama.ConsumerGroupHandler
}

// NewConsumerManager 构造函数
func NewConsumerManager(cfg *config.Config, sysBoxRepo mongo.SysBoxRepo) (*ConsumerManager, error) {
	saramaCfg := newSaramaConfig(cfg.Kafka)

	noticeConsumer, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaNoticeConsumer.GroupID, saramaCfg)
	if err != nil {
		return nil, err
	}

	return &ConsumerManager{
		noticeConsumer: noticeConsumer,
		noticeHandler:  NewNoticeHandler(sysBoxRepo),
	}, nil
}

// Start 启动所有消费者，阻塞到 ctx 结束
func (m *ConsumerManager) Start(ctx context.Context, cfg *config.Config) error {
	go func() {
		topic := cfg.KafkaNoticeConsumer.Topic
		log.Info("Notice consumer started", "topic", topic)
		for {
			if err := m.noticeConsumer.Consume(ctx, []string{topic}, m.noticeHandler); err != nil {
				log.Error("Error from consumer", "err", err)
			}
			if ctx.Err() != nil {
				return
			}
		}
	}()

	go func() {
		for err := range m.noticeConsumer.Errors() {
			log.Error("notice consumer error", "err", err)
		}
	}()

	<-ctx.Done()
	log.Info("Kafka Manager shutting down...")

	if err := m.noticeConsumer.Close(); err != nil {
		log.Error("Failed to close notice consumer", "err", err)
	}
	return nil
}
