package service

import (
	"context"
	"testing"
	"time"

	"EdVix/internal/model"
	"EdVix/internal/pkg/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memorySysBoxRepo struct {
	items []*mongo.SysBoxModel
}

func (m *memorySysBoxRepo) Create(_ context.Context, n *mongo.SysBoxModel) error {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	m.items = append(m.items, n)
	return nil
}

func (m *memorySysBoxRepo) ListByReceiver(_ context.Context, receiverID uint64, limit, offset int64) ([]*mongo.SysBoxModel, error) {
	res := make([]*mongo.SysBoxModel, 0)
	for i := len(m.items) - 1; i >= 0; i-- {
		if m.items[i].ReceiverID == receiverID {
			res = append(res, m.items[i])
		}
	}
	if offset >= int64(len(res)) {
		return []*mongo.SysBoxModel{}, nil
	}
	res = res[offset:]
	if int64(len(res)) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (m *memorySysBoxRepo) MarkRead(_ context.Context, receiverID uint64, noticeID string) error {
	for _, it := range m.items {
		if it.ID.Hex() == noticeID && it.ReceiverID == receiverID {
			it.IsRead = true
			return nil
		}
	}
	return mongo.ErrNoticeNotFound
}

func (m *memorySysBoxRepo) MarkAllRead(_ context.Context, receiverID uint64) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.ReceiverID == receiverID && !it.IsRead {
			it.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *memorySysBoxRepo) CountUnread(_ context.Context, receiverID uint64) (int64, error) {
	var n int64
	for _, it := range m.items {
		if it.ReceiverID == receiverID && !it.IsRead {
			n++
		}
	}
	return n, nil
}

func TestSysBoxService(t *testing.T) {
	ctx := context.Background()
	users := newUserRepo(t)
	sender := createUser(t, users, "Grace", model.RoleTutor)
	repo := &memorySysBoxRepo{}
	svc := NewSysBoxService(repo, users)

	base := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Create(ctx, &mongo.SysBoxModel{ReceiverID: 1, Title: "登录成功", CreatedAt: base}))
	require.NoError(t, repo.Create(ctx, &mongo.SysBoxModel{ReceiverID: 1, SenderID: sender.ID, Title: "新消息", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &mongo.SysBoxModel{ReceiverID: 2, Title: "other", CreatedAt: base}))

	list, err := svc.GetNotificationList(ctx, 1, 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "新消息", list[0].Title)
	assert.Equal(t, "Grace", list[0].SenderName)
	assert.Equal(t, "系统通知", list[1].SenderName)
	assert.Equal(t, "2026-03-01T08:01:00Z", list[0].CreatedAt)

	unread, err := svc.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread.UnreadCount)

	require.NoError(t, svc.MarkRead(ctx, 1, list[0].ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, 2, list[1].ID), ErrSysBoxNotFound)

	n, err := svc.MarkAllRead(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	unread, err = svc.GetUnreadCount(ctx, 1)
	require.NoError(t, err)
	assert.Zero(t, unread.UnreadCount)
}
