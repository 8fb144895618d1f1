package kafka

import (
	"context"
	log "log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"
)

const (
	batchSize    = 32
	batchTimeout = 1 * time.Second
	// 单条消息最多重试次数，超过后记录并跳过，避免阻塞整个分区
	maxRetries       = 5
	maxRetryInterval = 5 * time.Second
)

type LogicFunc func(ctx context.Context, msg *sarama.ConsumerMessage) error

// pullMessageBatch 攒批拉取消息，满批或超时后处理并提交位点
func pullMessageBatch(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim, logic LogicFunc) error {
	batch := make([]*sarama.ConsumerMessage, 0, batchSize)
	ticker := time.NewTicker(batchTimeout)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-claim.Messages():
			if !ok {
				if len(batch) > 0 {
					processBatch(session, batch, logic)
				}
				return nil
			}
			batch = append(batch, msg)
			if len(batch) >= batchSize {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
				ticker.Reset(batchTimeout)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				processBatch(session, batch, logic)
				batch = make([]*sarama.ConsumerMessage, 0, batchSize)
			}
		case <-session.Context().Done():
			return nil
		}
	}
}

// processBatch 并发处理一批消息，全部结束后提交最后一条的位点
func processBatch(session sarama.ConsumerGroupSession, messages []*sarama.ConsumerMessage, logic LogicFunc) {
	var wg sync.WaitGroup
	for _, msg := range messages {
		wg.Add(1)
		go func(m *sarama.ConsumerMessage) {
			defer wg.Done()
			processWithRetry(session.Context(), m, logic)
		}(msg)
	}
	wg.Wait()

	// 会话已结束时不提交，由下一次分配重新消费
	if session.Context().Err() != nil {
		return
	}
	session.MarkMessage(messages[len(messages)-1], "")
	session.Commit()
}

func processWithRetry(ctx context.Context, m *sarama.ConsumerMessage, logic LogicFunc) {
	interval := 100 * time.Millisecond
	for attempt := 1; ; attempt++ {
		err := logic(ctx, m)
		if err == nil {
			return
		}
		if attempt >= maxRetries {
			log.ErrorContext(ctx, "message dropped after retries",
				"topic", m.Topic, "partition", m.Partition, "offset", m.Offset, "err", err)
			return
		}
		log.WarnContext(ctx, "process message error, retrying",
			"topic", m.Topic, "offset", m.Offset, "attempt", attempt, "err", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
		interval = min(interval*2, maxRetryInterval)
	}
}
