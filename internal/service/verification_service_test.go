package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"EdVix/internal/model"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/security"
	"EdVix/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVerificationService(t *testing.T) (VerificationService, *recordingNotifier) {
	t.Helper()
	notifier := &recordingNotifier{}
	factory := func() *otp.Flow {
		return otp.NewFlow(otp.NewStaticProvider("123456", 0), otp.WithMaxAttempts(3))
	}
	return NewVerificationService(factory, newUserRepo(t), notifier), notifier
}

func TestVerificationService_LoginCreatesUser(t *testing.T) {
	ctx := context.Background()
	svc, notifier := newVerificationService(t)

	st, err := svc.Start(ctx, "s1", "+1 (555) 123-4567", model.RoleTutor)
	require.NoError(t, err)
	assert.Equal(t, string(otp.StatusAwaitingCode), st.Status)
	assert.Equal(t, "+15551234567", st.PhoneNumber)
	assert.Equal(t, 30, st.RemainingSeconds)

	res, err := svc.Verify(ctx, "s1", "123456")
	require.NoError(t, err)
	assert.Equal(t, string(otp.StatusVerified), res.Status)
	require.NotNil(t, res.User)
	assert.Equal(t, "tutor", res.User.Role)

	claims, err := security.ValidateToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, []string{"tutor"}, claims.Roles)

	notices := notifier.all()
	require.Len(t, notices, 1)
	assert.Equal(t, "登录成功", notices[0].Title)

	// 同一手机号再次登录复用账号
	svc.Reset(ctx, "s2")
	_, err = svc.Start(ctx, "s2", "+15551234567", model.RoleStudent)
	require.NoError(t, err)
	again, err := svc.Verify(ctx, "s2", "123456")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, again.User.ID)
	assert.Equal(t, "tutor", again.User.Role)
}

func TestVerificationService_SessionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)

	_, err := svc.Start(ctx, "a", "+15550000001", "")
	require.NoError(t, err)

	assert.Equal(t, string(otp.StatusIdle), svc.Status(ctx, "b").Status)
	_, err = svc.Verify(ctx, "b", "123456")
	assert.ErrorIs(t, err, otp.ErrInvalidState)

	_, err = svc.Resend(ctx, "a")
	var cd *otp.CooldownError
	require.ErrorAs(t, err, &cd)
	assert.ErrorIs(t, err, otp.ErrCooldownActive)
}

func TestVerificationService_WrongCodes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)

	_, err := svc.Start(ctx, "s", "+15550000002", "")
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "s", "12ab56")
	assert.ErrorIs(t, err, otp.ErrInvalidCode)
	assert.Equal(t, 0, svc.Status(ctx, "s").Attempts)

	for i := 0; i < 2; i++ {
		_, err = svc.Verify(ctx, "s", "000000")
		assert.ErrorIs(t, err, otp.ErrInvalidCode)
	}
	_, err = svc.Verify(ctx, "s", "000000")
	assert.ErrorIs(t, err, otp.ErrTooManyAttempts)
	assert.Equal(t, string(otp.StatusFailed), svc.Status(ctx, "s").Status)

	// failed 后允许重新开始
	_, err = svc.Start(ctx, "s", "+15550000002", "")
	require.NoError(t, err)
}

func TestVerificationService_InvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)

	_, err := svc.Start(ctx, "", "+15550000003", "")
	assert.ErrorIs(t, err, ErrSessionMissing)

	_, err = svc.Start(ctx, "s", "+15550000003", "admin")
	assert.ErrorIs(t, err, ErrRoleInvalid)

	_, err = svc.Start(ctx, "s", "12", "")
	assert.ErrorIs(t, err, otp.ErrInvalidPhone)
}

func TestVerificationService_EvictIdle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)
	impl := svc.(*verificationServiceImpl)

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }

	_, err := svc.Start(ctx, "old", "+15550000004", "")
	require.NoError(t, err)
	now = now.Add(20 * time.Minute)
	_, err = svc.Start(ctx, "fresh", "+15550000005", "")
	require.NoError(t, err)

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, svc.EvictIdle(ctx, 30*time.Minute))
	assert.Equal(t, string(otp.StatusIdle), svc.Status(ctx, "old").Status)
	assert.Equal(t, string(otp.StatusAwaitingCode), svc.Status(ctx, "fresh").Status)
}

type flakyUserRepo struct {
	repository.UserRepo
	failures int
}

func (r *flakyUserRepo) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	if r.failures > 0 {
		r.failures--
		return nil, errors.New("db down")
	}
	return r.UserRepo.GetUserByPhone(ctx, phone)
}

func TestVerificationService_RetryAfterIssueFailure(t *testing.T) {
	ctx := context.Background()
	repo := &flakyUserRepo{UserRepo: newUserRepo(t), failures: 1}
	factory := func() *otp.Flow {
		return otp.NewFlow(otp.NewStaticProvider("123456", 0))
	}
	svc := NewVerificationService(factory, repo, &recordingNotifier{})

	_, err := svc.Start(ctx, "s", "+15551234567", model.RoleTutor)
	require.NoError(t, err)

	_, err = svc.Verify(ctx, "s", "123456")
	require.EqualError(t, err, "db down")
	assert.Equal(t, string(otp.StatusVerified), svc.Status(ctx, "s").Status)

	// 验证码已消费，重试直接签发
	res, err := svc.Verify(ctx, "s", "")
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "tutor", res.User.Role)

	// 签发成功后会话回收，可重新开始
	assert.Equal(t, string(otp.StatusIdle), svc.Status(ctx, "s").Status)
	_, err = svc.Verify(ctx, "s", "123456")
	assert.ErrorIs(t, err, otp.ErrInvalidState)
	_, err = svc.Start(ctx, "s", "+15551234567", "")
	require.NoError(t, err)
}

func TestVerificationService_RejectedStartKeepsRole(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)

	_, err := svc.Start(ctx, "s", "+15550000006", model.RoleStudent)
	require.NoError(t, err)
	_, err = svc.Start(ctx, "s", "+15550000006", model.RoleTutor)
	assert.ErrorIs(t, err, otp.ErrInvalidState)

	res, err := svc.Verify(ctx, "s", "123456")
	require.NoError(t, err)
	assert.Equal(t, "student", res.User.Role)
}

func TestVerificationService_SessionCap(t *testing.T) {
	ctx := context.Background()
	svc, _ := newVerificationService(t)
	impl := svc.(*verificationServiceImpl)
	impl.maxSessions = 2

	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	impl.now = func() time.Time { return now }

	for _, id := range []string{"a", "b", "c"} {
		_, err := svc.Start(ctx, id, "+15550000007", "")
		require.NoError(t, err)
		now = now.Add(time.Second)
	}
	assert.Len(t, impl.sessions, 2)
	assert.Equal(t, string(otp.StatusIdle), svc.Status(ctx, "a").Status)
	assert.Equal(t, string(otp.StatusAwaitingCode), svc.Status(ctx, "c").Status)

	// reset 即回收
	assert.Equal(t, string(otp.StatusIdle), svc.Reset(ctx, "b").Status)
	assert.Len(t, impl.sessions, 1)
}
