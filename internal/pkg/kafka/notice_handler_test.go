package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/mongo"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSysBoxRepo struct {
	mongo.SysBoxRepo
	mu      sync.Mutex
	created []*mongo.SysBoxModel
	failN   int
}

func (s *stubSysBoxRepo) Create(_ context.Context, n *mongo.SysBoxModel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return errors.New("mongo unavailable")
	}
	s.created = append(s.created, n)
	return nil
}

func noticeMessage(t *testing.T, n model.Notice) *sarama.ConsumerMessage {
	raw, err := json.Marshal(n)
	require.NoError(t, err)
	return &sarama.ConsumerMessage{Topic: "edvix.notice", Value: raw}
}

func TestNoticeHandler_StoresNotice(t *testing.T) {
	repo := &stubSysBoxRepo{}
	h := NewNoticeHandler(repo)

	msg := noticeMessage(t, model.Notice{UserID: 7, SenderID: 3, Title: "新消息", Description: "你好"})
	require.NoError(t, h.logic(context.Background(), msg))

	require.Len(t, repo.created, 1)
	got := repo.created[0]
	assert.Equal(t, uint64(7), got.ReceiverID)
	assert.Equal(t, uint64(3), got.SenderID)
	assert.Equal(t, consts.NoticeVariantDefault, got.Variant)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestNoticeHandler_DropsMalformed(t *testing.T) {
	repo := &stubSysBoxRepo{}
	h := NewNoticeHandler(repo)

	assert.NoError(t, h.logic(context.Background(), &sarama.ConsumerMessage{Value: []byte("{not json")}))
	assert.NoError(t, h.logic(context.Background(), noticeMessage(t, model.Notice{Title: "无接收者"})))
	assert.Empty(t, repo.created)
}

func TestProcessWithRetry_RecoversAfterFailure(t *testing.T) {
	repo := &stubSysBoxRepo{failN: 1}
	h := NewNoticeHandler(repo)

	processWithRetry(context.Background(), noticeMessage(t, model.Notice{UserID: 1, Title: "t"}), h.logic)
	assert.Len(t, repo.created, 1)
}

func TestProcessWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	logic := func(context.Context, *sarama.ConsumerMessage) error {
		calls++
		cancel()
		return errors.New("always fails")
	}

	done := make(chan struct{})
	go func() {
		processWithRetry(ctx, &sarama.ConsumerMessage{}, logic)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processWithRetry did not return after cancel")
	}
	assert.Equal(t, 1, calls)
}
