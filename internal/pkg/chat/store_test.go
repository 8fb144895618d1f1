package chat

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/kv"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	student = model.ChatUser{ID: 1, Name: "Ada", Role: model.RoleStudent}
	tutor   = model.Counterpart{ID: 2, Name: "Grace", Role: model.RoleTutor}
	tutor2  = model.Counterpart{ID: 3, Name: "Alan", Role: model.RoleTutor}
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
}

// injectPeerMessage 以会话对方身份投递一条消息
func injectPeerMessage(t *testing.T, s *Store, convID string, text string) {
	t.Helper()
	conv, ok := s.GetConversation(convID)
	require.True(t, ok)
	_, err := s.Receive(context.Background(), model.Counterpart{
		ID:   conv.PeerID(s.Owner().ID),
		Name: conv.Name,
		Role: conv.Role,
	}, text)
	require.NoError(t, err)
}

func TestStore_SendMessagePreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)

	texts := []string{"hi", "are you free on monday?", "thanks", "see you"}
	for _, text := range texts {
		_, err := s.SendMessage(ctx, conv.ID, text)
		require.NoError(t, err)
	}

	msgs, err := s.GetMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(texts))
	for i, m := range msgs {
		assert.Equal(t, texts[i], m.Text)
		assert.Equal(t, uint64(i+1), m.Seq)
		assert.Equal(t, student.ID, m.SenderID)
	}
}

func TestStore_StartConversationIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)

	first, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	second, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, s.ListConversations(), 1)
	assert.Equal(t, [2]uint64{student.ID, tutor.ID}, first.UserIDs)
}

func TestStore_StartConversationRejectsSelf(t *testing.T) {
	s := NewStore(student)
	_, err := s.StartConversation(context.Background(), model.Counterpart{ID: student.ID})
	assert.ErrorIs(t, err, ErrTargetUserInvalid)
	_, err = s.StartConversation(context.Background(), model.Counterpart{})
	assert.ErrorIs(t, err, ErrTargetUserInvalid)
}

func TestStore_UnknownConversation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, conv.ID, "hello")
	require.NoError(t, err)
	before := s.ListConversations()

	_, err = s.SendMessage(ctx, "never-created", "hello")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, before, s.ListConversations())

	_, ok := s.GetConversation("never-created")
	assert.False(t, ok)
	_, err = s.GetMessages("never-created")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.MarkAsRead(ctx, "never-created"), ErrNotFound)
	_, err = s.GetUnreadCount("never-created")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_EmptyMessageRejected(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)

	_, err = s.SendMessage(ctx, conv.ID, "   ")
	assert.ErrorIs(t, err, ErrMessageEmpty)
	msgs, err := s.GetMessages(conv.ID)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestStore_UnreadTracking(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)

	t.Run("own messages are never unread", func(t *testing.T) {
		_, err := s.SendMessage(ctx, conv.ID, "question about homework")
		require.NoError(t, err)
		n, err := s.GetUnreadCount(conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		peer, err := s.UnreadCountFor(conv.ID, tutor.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, peer)
	})

	t.Run("counterpart messages count until read", func(t *testing.T) {
		injectPeerMessage(t, s, conv.ID, "sure")
		injectPeerMessage(t, s, conv.ID, "send it over")
		n, err := s.GetUnreadCount(conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 2, s.TotalUnread())
	})

	t.Run("mark as read resets to zero and is idempotent", func(t *testing.T) {
		require.NoError(t, s.MarkAsRead(ctx, conv.ID))
		n, err := s.GetUnreadCount(conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)

		require.NoError(t, s.MarkAsRead(ctx, conv.ID))
		n, err = s.GetUnreadCount(conv.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, n)
	})

	t.Run("non member", func(t *testing.T) {
		_, err := s.UnreadCountFor(conv.ID, 99)
		assert.ErrorIs(t, err, ErrNotMember)
	})
}

func TestStore_ListSortedByLastActive(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	s := NewStore(student, WithClock(clock.Now))

	older, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	clock.Advance(time.Minute)
	newer, err := s.StartConversation(ctx, tutor2)
	require.NoError(t, err)

	// 旧会话收到新消息后应排在前面
	clock.Advance(time.Minute)
	_, err = s.SendMessage(ctx, older.ID, "bump")
	require.NoError(t, err)

	list := s.ListConversations()
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID, "stored order is insertion order")

	SortByLastActive(list)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	stored := s.ListConversations()
	assert.Equal(t, older.ID, stored[0].ID)
	assert.Equal(t, newer.ID, stored[1].ID)
}

func TestSortByLastActive(t *testing.T) {
	t1 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	list := []model.Conversation{
		{ID: "a", LastActive: t1},
		{ID: "b", LastActive: t2},
	}
	SortByLastActive(list)
	assert.Equal(t, "b", list[0].ID)
	assert.Equal(t, "a", list[1].ID)
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, conv.ID, "original")
	require.NoError(t, err)

	msgs, err := s.GetMessages(conv.ID)
	require.NoError(t, err)
	msgs[0].Text = "tampered"

	got, ok := s.GetConversation(conv.ID)
	require.True(t, ok)
	assert.Equal(t, "original", got.Messages[0].Text)
}

func TestStore_PersistenceRoundTrip(t *testing.T) {
	ctx := context.Background()
	persister := NewKVPersister(kv.NewMemoryStore())

	s := Open(ctx, student, WithPersister(persister))
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, conv.ID, "persist me")
	require.NoError(t, err)
	injectPeerMessage(t, s, conv.ID, "reply")
	require.NoError(t, s.Flush(ctx))

	reopened := Open(ctx, student, WithPersister(persister))
	list := reopened.ListConversations()
	require.Len(t, list, 1)
	assert.Equal(t, conv.ID, list[0].ID)
	require.Len(t, list[0].Messages, 2)
	assert.Equal(t, "persist me", list[0].Messages[0].Text)

	n, err := reopened.GetUnreadCount(conv.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	again, err := reopened.StartConversation(ctx, tutor)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)
}

type brokenPersister struct{}

func (brokenPersister) Load(context.Context, uint64) (*Snapshot, error) {
	return nil, errors.New("storage unavailable")
}

func (brokenPersister) Save(context.Context, *Snapshot) error {
	return errors.New("storage unavailable")
}

func TestStore_ToleratesBrokenPersistence(t *testing.T) {
	ctx := context.Background()
	s := Open(ctx, student, WithPersister(brokenPersister{}))
	assert.Empty(t, s.ListConversations())

	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	_, err = s.SendMessage(ctx, conv.ID, "still works")
	require.NoError(t, err)
	assert.Error(t, s.Flush(ctx))
}

func TestKVPersister_CorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, snapshotKey(student.ID), "{not json"))

	s := Open(ctx, student, WithPersister(NewKVPersister(store)))
	assert.Empty(t, s.ListConversations())
}

func TestStore_ReceiveCreatesConversation(t *testing.T) {
	ctx := context.Background()
	s := NewStore(student)

	msg, err := s.Receive(ctx, tutor, "welcome to the course")
	require.NoError(t, err)
	assert.Equal(t, tutor.ID, msg.SenderID)
	assert.Equal(t, uint64(1), msg.Seq)

	convs := s.ListConversations()
	require.Len(t, convs, 1)
	assert.Equal(t, tutor.Name, convs[0].Name)
	assert.Equal(t, msg.ConversationID, convs[0].ID)
	assert.Equal(t, 1, s.TotalUnread())

	// 对方发来的消息复用已有会话
	conv, err := s.StartConversation(ctx, tutor)
	require.NoError(t, err)
	assert.Equal(t, convs[0].ID, conv.ID)

	_, err = s.Receive(ctx, model.Counterpart{ID: student.ID}, "echo")
	assert.ErrorIs(t, err, ErrTargetUserInvalid)
	_, err = s.Receive(ctx, tutor, "   ")
	assert.ErrorIs(t, err, ErrMessageEmpty)

	n, err := s.UnreadCountFor(conv.ID, tutor.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
