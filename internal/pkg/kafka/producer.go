package kafka

import (
	"EdVix/internal/api/config"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// NewAsyncProducer 创建异步生产者，调用方负责消费 Errors() 并在退出时 Close
func NewAsyncProducer(cfg config.KafkaConfig) (sarama.AsyncProducer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers 未配置")
	}
	producer, err := sarama.NewAsyncProducer(cfg.Brokers, newSaramaConfig(cfg))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return producer, nil
}
