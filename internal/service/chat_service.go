package service

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/chat"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/minio"
	"EdVix/internal/repository"
	"context"
	log "log/slog"
	"sync"
	"time"
	"unicode/utf8"
)

const noticePreviewLen = 40

// ChatService 师生单聊，每个用户一份独立的会话存储，按需从持久化加载
type ChatService interface {
	ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error)
	StartConversation(ctx context.Context, userID uint64, targetUserID uint64) (*dto.ConversationDTO, error)
	GetConversation(ctx context.Context, userID uint64, conversationID string) (*dto.ConversationDetailDTO, error)
	GetMessages(ctx context.Context, userID uint64, conversationID string) ([]*dto.MessageDTO, error)
	SendMessage(ctx context.Context, userID uint64, conversationID string, text string) (*dto.MessageDTO, error)
	MarkAsRead(ctx context.Context, userID uint64, conversationID string) error
	GetUnreadCount(ctx context.Context, userID uint64, conversationID string) (int, error)
	TotalUnread(ctx context.Context, userID uint64) (int, error)
	EvictIdle(ctx context.Context, idle time.Duration) int
	Close(ctx context.Context)
}

type storeEntry struct {
	store   *chat.Store
	touched time.Time
}

type chatServiceImpl struct {
	mu        sync.Mutex
	stores    map[uint64]*storeEntry
	userRepo  repository.UserRepo
	persister chat.Persister
	notifier  Notifier
	now       func() time.Time
}

func NewChatService(userRepo repository.UserRepo, persister chat.Persister, notifier Notifier) ChatService {
	return &chatServiceImpl{
		stores:    make(map[uint64]*storeEntry),
		userRepo:  userRepo,
		persister: persister,
		notifier:  notifier,
		now:       time.Now,
	}
}

// ListConversations 按最近活跃倒序，附带未读数
func (s *chatServiceImpl) ListConversations(ctx context.Context, userID uint64) ([]*dto.ConversationDTO, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	convs := store.ListConversations()
	chat.SortByLastActive(convs)

	res := make([]*dto.ConversationDTO, 0, len(convs))
	for i := range convs {
		unread, _ := store.GetUnreadCount(convs[i].ID)
		res = append(res, toConversationDTO(&convs[i], userID, unread))
	}
	return res, nil
}

func (s *chatServiceImpl) StartConversation(ctx context.Context, userID uint64, targetUserID uint64) (*dto.ConversationDTO, error) {
	if targetUserID == 0 || targetUserID == userID {
		return nil, chat.ErrTargetUserInvalid
	}
	store, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	target, err := s.userRepo.GetUserById(ctx, targetUserID)
	if err != nil {
		return nil, err
	}
	if target == nil {
		return nil, ErrUserNotFound
	}
	if target.IsBan {
		return nil, chat.ErrTargetUserInvalid
	}

	conv, err := store.StartConversation(ctx, target.ToCounterpart())
	if err != nil {
		return nil, err
	}
	unread, _ := store.GetUnreadCount(conv.ID)
	return toConversationDTO(&conv, userID, unread), nil
}

func (s *chatServiceImpl) GetConversation(ctx context.Context, userID uint64, conversationID string) (*dto.ConversationDetailDTO, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	conv, ok := store.GetConversation(conversationID)
	if !ok {
		return nil, chat.ErrNotFound
	}
	unread, _ := store.GetUnreadCount(conv.ID)
	return &dto.ConversationDetailDTO{
		ConversationDTO: *toConversationDTO(&conv, userID, unread),
		Messages:        toMessageDTOs(conv.Messages, userID),
	}, nil
}

func (s *chatServiceImpl) GetMessages(ctx context.Context, userID uint64, conversationID string) ([]*dto.MessageDTO, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	msgs, err := store.GetMessages(conversationID)
	if err != nil {
		return nil, err
	}
	return toMessageDTOs(msgs, userID), nil
}

// SendMessage 写入发送方会话后投递到对方会话，并提醒对方
func (s *chatServiceImpl) SendMessage(ctx context.Context, userID uint64, conversationID string, text string) (*dto.MessageDTO, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return nil, err
	}
	msg, err := store.SendMessage(ctx, conversationID, text)
	if err != nil {
		return nil, err
	}

	conv, _ := store.GetConversation(conversationID)
	peerID := conv.PeerID(userID)
	s.deliver(ctx, store.Owner(), peerID, msg)

	return toMessageDTO(&msg, userID), nil
}

func (s *chatServiceImpl) deliver(ctx context.Context, sender model.ChatUser, peerID uint64, msg model.Message) {
	peerStore, err := s.store(ctx, peerID)
	if err != nil {
		log.WarnContext(ctx, "open counterpart chat store failed", "peerID", peerID, "err", err)
		return
	}
	from := model.Counterpart{ID: sender.ID, Name: sender.Name, Avatar: sender.Avatar, Role: sender.Role}
	delivered, err := peerStore.Receive(ctx, from, msg.Text)
	if err != nil {
		log.WarnContext(ctx, "deliver chat message failed", "peerID", peerID, "err", err)
		return
	}
	s.notifier.Notify(ctx, model.Notice{
		UserID:      peerID,
		SenderID:    sender.ID,
		Title:       "新消息",
		Description: sender.Name + ": " + preview(msg.Text),
		Variant:     consts.NoticeVariantDefault,
		Payload:     map[string]any{"conversation_id": delivered.ConversationID},
	})
}

func (s *chatServiceImpl) MarkAsRead(ctx context.Context, userID uint64, conversationID string) error {
	store, err := s.store(ctx, userID)
	if err != nil {
		return err
	}
	return store.MarkAsRead(ctx, conversationID)
}

func (s *chatServiceImpl) GetUnreadCount(ctx context.Context, userID uint64, conversationID string) (int, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return 0, err
	}
	return store.GetUnreadCount(conversationID)
}

func (s *chatServiceImpl) TotalUnread(ctx context.Context, userID uint64) (int, error) {
	store, err := s.store(ctx, userID)
	if err != nil {
		return 0, err
	}
	return store.TotalUnread(), nil
}

// EvictIdle 写回并释放超过 idle 未访问的会话存储
func (s *chatServiceImpl) EvictIdle(ctx context.Context, idle time.Duration) int {
	cutoff := s.now().Add(-idle)
	var evicted []*chat.Store

	s.mu.Lock()
	for uid, e := range s.stores {
		if e.touched.After(cutoff) {
			continue
		}
		evicted = append(evicted, e.store)
		delete(s.stores, uid)
	}
	s.mu.Unlock()

	for _, st := range evicted {
		if err := st.Flush(ctx); err != nil {
			log.WarnContext(ctx, "flush chat store failed", "userID", st.Owner().ID, "err", err)
		}
	}
	return len(evicted)
}

// Close 退出前写回全部会话
func (s *chatServiceImpl) Close(ctx context.Context) {
	s.mu.Lock()
	stores := make([]*chat.Store, 0, len(s.stores))
	for _, e := range s.stores {
		stores = append(stores, e.store)
	}
	s.mu.Unlock()

	for _, st := range stores {
		if err := st.Flush(ctx); err != nil {
			log.WarnContext(ctx, "flush chat store failed", "userID", st.Owner().ID, "err", err)
		}
	}
}

// store 返回用户的会话存储，首次访问时加载
func (s *chatServiceImpl) store(ctx context.Context, userID uint64) (*chat.Store, error) {
	s.mu.Lock()
	if e, ok := s.stores[userID]; ok {
		e.touched = s.now()
		s.mu.Unlock()
		return e.store, nil
	}
	s.mu.Unlock()

	user, err := s.userRepo.GetUserById(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	var opts []chat.Option
	if s.persister != nil {
		opts = append(opts, chat.WithPersister(s.persister))
	}
	opened := chat.Open(ctx, user.ToChatUser(), opts...)

	s.mu.Lock()
	defer s.mu.Unlock()
	// 并发首次访问时以先写入者为准
	if e, ok := s.stores[userID]; ok {
		e.touched = s.now()
		return e.store, nil
	}
	s.stores[userID] = &storeEntry{store: opened, touched: s.now()}
	return opened, nil
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= noticePreviewLen {
		return text
	}
	runes := []rune(text)
	return string(runes[:noticePreviewLen]) + "..."
}

func toConversationDTO(c *model.Conversation, userID uint64, unread int) *dto.ConversationDTO {
	d := &dto.ConversationDTO{
		ID:          c.ID,
		PeerID:      c.PeerID(userID),
		Name:        c.Name,
		Avatar:      minio.GetPublicURL(c.Avatar),
		Role:        string(c.Role),
		LastActive:  c.LastActive,
		UnreadCount: unread,
		CreatedAt:   c.CreatedAt,
	}
	if n := len(c.Messages); n > 0 {
		d.LastMessage = toMessageDTO(&c.Messages[n-1], userID)
	}
	return d
}

func toMessageDTO(m *model.Message, userID uint64) *dto.MessageDTO {
	return &dto.MessageDTO{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Text:           m.Text,
		Seq:            m.Seq,
		Timestamp:      m.Timestamp,
		IsMine:         m.SenderID == userID,
	}
}

func toMessageDTOs(msgs []model.Message, userID uint64) []*dto.MessageDTO {
	res := make([]*dto.MessageDTO, 0, len(msgs))
	for i := range msgs {
		res = append(res, toMessageDTO(&msgs[i], userID))
	}
	return res
}
