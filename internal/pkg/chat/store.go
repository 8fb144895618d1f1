package chat

import (
	"EdVix/internal/model"
	"context"
	log "log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store 单个用户的会话状态，拥有者在构造时显式传入
// 所有写操作由同一把锁串行化，消息追加顺序即调用顺序
type Store struct {
	mu        sync.RWMutex
	owner     model.ChatUser
	convs     []*model.Conversation
	index     map[string]*model.Conversation
	byPeer    map[uint64]*model.Conversation
	marks     map[string]map[uint64]uint64 // convID -> userID -> 已读序号
	persister Persister
	now       func() time.Time
}

type Option func(*Store)

// WithPersister 指定本地持久化，缺省不持久化
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persister = p }
}

// WithClock 替换时间来源
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore 创建空的会话存储
func NewStore(owner model.ChatUser, opts ...Option) *Store {
	s := &Store{
		owner:  owner,
		index:  make(map[string]*model.Conversation),
		byPeer: make(map[uint64]*model.Conversation),
		marks:  make(map[string]map[uint64]uint64),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open 创建会话存储并尝试从持久化中恢复，快照缺失或损坏时从空状态开始
func Open(ctx context.Context, owner model.ChatUser, opts ...Option) *Store {
	s := NewStore(owner, opts...)
	if s.persister == nil {
		return s
	}
	snap, err := s.persister.Load(ctx, owner.ID)
	if err != nil {
		log.WarnContext(ctx, "load chat snapshot failed, starting empty", "userID", owner.ID, "err", err)
		return s
	}
	if snap != nil {
		s.restore(snap)
	}
	return s
}

// Owner 当前会话拥有者
func (s *Store) Owner() model.ChatUser {
	return s.owner
}

// ListConversations 返回全部会话副本，保持插入顺序，排序交给展示层
func (s *Store) ListConversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		res = append(res, cloneConversation(c))
	}
	return res
}

// GetConversation 按 ID 查询，不存在时 ok 为 false
func (s *Store) GetConversation(id string) (model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.index[id]
	if !ok {
		return model.Conversation{}, false
	}
	return cloneConversation(c), true
}

// StartConversation 与对方已有会话则直接返回，否则新建
func (s *Store) StartConversation(ctx context.Context, cp model.Counterpart) (model.Conversation, error) {
	if cp.ID == 0 || cp.ID == s.owner.ID {
		return model.Conversation{}, ErrTargetUserInvalid
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, created := s.startLocked(cp)
	if created {
		s.persistLocked(ctx)
	}
	return cloneConversation(c), nil
}

func (s *Store) startLocked(cp model.Counterpart) (*model.Conversation, bool) {
	if c, ok := s.byPeer[cp.ID]; ok {
		return c, false
	}

	now := s.now()
	c := &model.Conversation{
		ID:         uuid.NewString(),
		Name:       cp.Name,
		Avatar:     cp.Avatar,
		Role:       cp.Role,
		UserIDs:    [2]uint64{s.owner.ID, cp.ID},
		Messages:   []model.Message{},
		LastActive: now,
		CreatedAt:  now,
	}
	s.convs = append(s.convs, c)
	s.index[c.ID] = c
	s.byPeer[cp.ID] = c
	s.marks[c.ID] = map[uint64]uint64{s.owner.ID: 0, cp.ID: 0}
	return c, true
}

// SendMessage 以拥有者身份追加一条消息
func (s *Store) SendMessage(ctx context.Context, conversationID string, text string) (model.Message, error) {
	if strings.TrimSpace(text) == "" {
		return model.Message{}, ErrMessageEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.index[conversationID]
	if !ok {
		return model.Message{}, ErrNotFound
	}

	msg := s.appendLocked(c, s.owner.ID, text)
	// 自己发出的消息不计入自己的未读
	s.marks[c.ID][s.owner.ID] = msg.Seq

	s.persistLocked(ctx)
	return msg, nil
}

// Receive 投递一条对方发来的消息，没有会话时自动创建；拥有者的已读进度不变
func (s *Store) Receive(ctx context.Context, from model.Counterpart, text string) (model.Message, error) {
	if from.ID == 0 || from.ID == s.owner.ID {
		return model.Message{}, ErrTargetUserInvalid
	}
	if strings.TrimSpace(text) == "" {
		return model.Message{}, ErrMessageEmpty
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c, _ := s.startLocked(from)
	msg := s.appendLocked(c, from.ID, text)
	s.marks[c.ID][from.ID] = msg.Seq

	s.persistLocked(ctx)
	return msg, nil
}

func (s *Store) appendLocked(c *model.Conversation, senderID uint64, text string) model.Message {
	msg := model.Message{
		ID:             uuid.NewString(),
		ConversationID: c.ID,
		SenderID:       senderID,
		Text:           text,
		Seq:            c.LastSeq() + 1,
		Timestamp:      s.now(),
	}
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.LastActive) {
		c.LastActive = msg.Timestamp
	}
	return msg
}

// GetMessages 返回完整历史，按发送顺序
func (s *Store) GetMessages(conversationID string) ([]model.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.index[conversationID]
	if !ok {
		return nil, ErrNotFound
	}
	res := make([]model.Message, len(c.Messages))
	copy(res, c.Messages)
	return res, nil
}

// MarkAsRead 将拥有者的已读进度推进到最新一条，可重复调用
func (s *Store) MarkAsRead(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.index[conversationID]
	if !ok {
		return ErrNotFound
	}
	last := c.LastSeq()
	if s.marks[c.ID][s.owner.ID] == last {
		return nil
	}
	s.marks[c.ID][s.owner.ID] = last
	s.persistLocked(ctx)
	return nil
}

// GetUnreadCount 拥有者在该会话中的未读数
func (s *Store) GetUnreadCount(conversationID string) (int, error) {
	return s.UnreadCountFor(conversationID, s.owner.ID)
}

// UnreadCountFor 指定成员的未读数：对方发送且序号大于其已读进度的消息条数
func (s *Store) UnreadCountFor(conversationID string, userID uint64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.index[conversationID]
	if !ok {
		return 0, ErrNotFound
	}
	if !c.HasMember(userID) {
		return 0, ErrNotMember
	}
	return unreadLocked(c, userID, s.marks[c.ID][userID]), nil
}

// TotalUnread 拥有者全部会话未读数之和
func (s *Store) TotalUnread() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, c := range s.convs {
		total += unreadLocked(c, s.owner.ID, s.marks[c.ID][s.owner.ID])
	}
	return total
}

// Flush 立即写入持久化，返回写入错误
func (s *Store) Flush(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persister.Save(ctx, s.snapshotLocked())
}

func unreadLocked(c *model.Conversation, userID uint64, mark uint64) int {
	n := 0
	// 序号递增，从尾部向前扫描到已读进度即可停止
	for i := len(c.Messages) - 1; i >= 0; i-- {
		m := c.Messages[i]
		if m.Seq <= mark {
			break
		}
		if m.SenderID != userID {
			n++
		}
	}
	return n
}

func (s *Store) persistLocked(ctx context.Context) {
	if s.persister == nil {
		return
	}
	if err := s.persister.Save(ctx, s.snapshotLocked()); err != nil {
		log.WarnContext(ctx, "save chat snapshot failed", "userID", s.owner.ID, "err", err)
	}
}

func (s *Store) snapshotLocked() *Snapshot {
	snap := &Snapshot{
		OwnerID:       s.owner.ID,
		Conversations: make([]model.Conversation, 0, len(s.convs)),
		SavedAt:       s.now(),
	}
	for _, c := range s.convs {
		snap.Conversations = append(snap.Conversations, cloneConversation(c))
		for uid, seq := range s.marks[c.ID] {
			snap.ReadMarks = append(snap.ReadMarks, ReadMark{ConversationID: c.ID, UserID: uid, Seq: seq})
		}
	}
	return snap
}

func (s *Store) restore(snap *Snapshot) {
	for i := range snap.Conversations {
		c := cloneConversation(&snap.Conversations[i])
		if !c.HasMember(s.owner.ID) {
			continue
		}
		s.convs = append(s.convs, &c)
		s.index[c.ID] = &c
		s.byPeer[c.PeerID(s.owner.ID)] = &c
		s.marks[c.ID] = map[uint64]uint64{c.UserIDs[0]: 0, c.UserIDs[1]: 0}
	}
	for _, m := range snap.ReadMarks {
		if marks, ok := s.marks[m.ConversationID]; ok {
			if _, member := marks[m.UserID]; member {
				marks[m.UserID] = m.Seq
			}
		}
	}
}

func cloneConversation(c *model.Conversation) model.Conversation {
	out := *c
	out.Messages = make([]model.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}
