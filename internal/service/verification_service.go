package service

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/security"
	"EdVix/internal/repository"
	"context"
	"fmt"
	log "log/slog"
	"sync"
	"time"
)

// VerificationService 手机号验证码登录，每个客户端会话一个独立的验证流程
type VerificationService interface {
	Start(ctx context.Context, sessionID string, phone string, role model.Role) (*dto.OTPSessionDTO, error)
	Resend(ctx context.Context, sessionID string) (*dto.OTPSessionDTO, error)
	Verify(ctx context.Context, sessionID string, code string) (*dto.OTPVerifyDTO, error)
	Reset(ctx context.Context, sessionID string) *dto.OTPSessionDTO
	Status(ctx context.Context, sessionID string) *dto.OTPSessionDTO
	EvictIdle(ctx context.Context, idle time.Duration) int
}

// FlowFactory 为新会话创建验证流程
type FlowFactory func() *otp.Flow

// defaultMaxSessions 同时存活的验证会话上限
const defaultMaxSessions = 10000

type flowEntry struct {
	flow    *otp.Flow
	role    model.Role
	touched time.Time
}

type verificationServiceImpl struct {
	mu          sync.Mutex
	sessions    map[string]*flowEntry
	maxSessions int
	newFlow     FlowFactory
	userRepo    repository.UserRepo
	notifier    Notifier
	now         func() time.Time
}

func NewVerificationService(newFlow FlowFactory, userRepo repository.UserRepo, notifier Notifier) VerificationService {
	return &verificationServiceImpl{
		sessions:    make(map[string]*flowEntry),
		maxSessions: defaultMaxSessions,
		newFlow:     newFlow,
		userRepo:    userRepo,
		notifier:    notifier,
		now:         time.Now,
	}
}

func (s *verificationServiceImpl) Start(ctx context.Context, sessionID string, phone string, role model.Role) (*dto.OTPSessionDTO, error) {
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, ErrRoleInvalid
	}
	entry, err := s.entry(sessionID, true)
	if err != nil {
		return nil, err
	}
	if err = entry.flow.StartVerification(ctx, phone); err != nil {
		return nil, err
	}
	s.mu.Lock()
	entry.role = role
	s.mu.Unlock()
	return sessionDTO(sessionID, entry.flow), nil
}

func (s *verificationServiceImpl) Resend(ctx context.Context, sessionID string) (*dto.OTPSessionDTO, error) {
	entry, err := s.entry(sessionID, false)
	if err != nil {
		return nil, err
	}
	if err = entry.flow.ResendCode(ctx); err != nil {
		return nil, err
	}
	return sessionDTO(sessionID, entry.flow), nil
}

// Verify 验证通过后按手机号查找或创建用户并签发登录令牌
// 验证码已通过但签发失败时流程停留在 verified，重试直接签发，成功后会话即回收
func (s *verificationServiceImpl) Verify(ctx context.Context, sessionID string, code string) (*dto.OTPVerifyDTO, error) {
	entry, err := s.entry(sessionID, false)
	if err != nil {
		return nil, err
	}
	if entry.flow.Session().Status != otp.StatusVerified {
		if _, err = entry.flow.VerifyOTP(ctx, code); err != nil {
			return nil, err
		}
	}

	session := entry.flow.Session()
	s.mu.Lock()
	role := entry.role
	s.mu.Unlock()

	user, err := s.findOrCreateUser(ctx, session.PhoneNumber, role)
	if err != nil {
		return nil, err
	}
	if user.IsBan {
		return nil, ErrUserBan
	}
	token, err := security.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(ctx, model.Notice{
		UserID:      user.ID,
		Title:       "登录成功",
		Description: fmt.Sprintf("欢迎回来，%s", user.Name),
		Variant:     consts.NoticeVariantSuccess,
	})

	res := &dto.OTPVerifyDTO{
		OTPSessionDTO: *sessionDTO(sessionID, entry.flow),
		Token:         token,
		User:          toUserDTO(user),
	}
	s.remove(sessionID, entry)
	return res, nil
}

func (s *verificationServiceImpl) Reset(_ context.Context, sessionID string) *dto.OTPSessionDTO {
	entry, err := s.entry(sessionID, false)
	if err != nil {
		return &dto.OTPSessionDTO{SessionID: sessionID, Status: string(otp.StatusIdle)}
	}
	entry.flow.Reset()
	s.remove(sessionID, entry)
	return sessionDTO(sessionID, entry.flow)
}

func (s *verificationServiceImpl) Status(_ context.Context, sessionID string) *dto.OTPSessionDTO {
	entry, err := s.entry(sessionID, false)
	if err != nil {
		return &dto.OTPSessionDTO{SessionID: sessionID, Status: string(otp.StatusIdle)}
	}
	return sessionDTO(sessionID, entry.flow)
}

// EvictIdle 回收超过 idle 未访问的会话，在途的流程不回收
func (s *verificationServiceImpl) EvictIdle(_ context.Context, idle time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := s.now().Add(-idle)
	n := 0
	for id, e := range s.sessions {
		if e.touched.After(cutoff) {
			continue
		}
		switch e.flow.Session().Status {
		case otp.StatusSending, otp.StatusVerifying:
			continue
		}
		delete(s.sessions, id)
		n++
	}
	return n
}

// entry 取出会话对应的流程，create 为 false 且不存在时返回 ErrInvalidState
func (s *verificationServiceImpl) entry(sessionID string, create bool) (*flowEntry, error) {
	if sessionID == "" {
		return nil, ErrSessionMissing
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[sessionID]
	if !ok {
		if !create {
			return nil, otp.ErrInvalidState
		}
		if len(s.sessions) >= s.maxSessions && !s.evictOldestLocked() {
			return nil, ErrTooManySessions
		}
		e = &flowEntry{flow: s.newFlow(), role: model.RoleStudent}
		s.sessions[sessionID] = e
	}
	e.touched = s.now()
	return e, nil
}

// remove 回收会话，期间被替换过的条目保留
func (s *verificationServiceImpl) remove(sessionID string, entry *flowEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[sessionID] == entry {
		delete(s.sessions, sessionID)
	}
}

// evictOldestLocked 淘汰最久未访问且不在途的会话
func (s *verificationServiceImpl) evictOldestLocked() bool {
	var (
		oldestID string
		oldest   *flowEntry
	)
	for id, e := range s.sessions {
		switch e.flow.Session().Status {
		case otp.StatusSending, otp.StatusVerifying:
			continue
		}
		if oldest == nil || e.touched.Before(oldest.touched) {
			oldestID, oldest = id, e
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.sessions, oldestID)
	return true
}

func (s *verificationServiceImpl) findOrCreateUser(ctx context.Context, phone string, role model.Role) (*model.User, error) {
	user, err := s.userRepo.GetUserByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}
	if user != nil {
		return user, nil
	}
	user = &model.User{
		Name:  defaultName(phone),
		Phone: &phone,
		Role:  role,
	}
	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	log.InfoContext(ctx, "user created by phone verification", "userID", user.ID, "role", role)
	return user, nil
}

func defaultName(target string) string {
	if len(target) > 4 {
		target = target[len(target)-4:]
	}
	return "用户" + target
}

func sessionDTO(sessionID string, flow *otp.Flow) *dto.OTPSessionDTO {
	session := flow.Session()
	d := &dto.OTPSessionDTO{
		SessionID:        sessionID,
		PhoneNumber:      session.PhoneNumber,
		Status:           string(session.Status),
		RemainingSeconds: otp.CeilSeconds(flow.RemainingCooldown()),
		Attempts:         session.Attempts,
	}
	if session.LastError != nil {
		d.LastError = session.LastError.Error()
	}
	return d
}
