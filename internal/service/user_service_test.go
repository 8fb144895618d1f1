package service

import (
	"bytes"
	"context"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/kv"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/security"

	"github.com/alicebob/miniredis/v2"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUploader struct {
	name        string
	contentType string
	data        []byte
}

func (f *fakeUploader) upload(_ context.Context, objectName string, reader io.Reader, _ int64, contentType string) (string, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	f.name, f.contentType, f.data = objectName, contentType, data
	return objectName, nil
}

type userFixture struct {
	svc      UserService
	sender   *captureSender
	uploader *fakeUploader
	notifier *recordingNotifier
	redis    *miniredis.Miniredis
}

func newUserFixture(t *testing.T) *userFixture {
	t.Helper()
	mr := setupRedis(t)
	sender := newCaptureSender()
	codes := NewCodeService(map[otp.Kind]CodeSender{otp.KindEmail: sender}, time.Minute, "")
	uploader := &fakeUploader{}
	notifier := &recordingNotifier{}
	svc := NewUserService(newUserRepo(t), nil, codes, kv.NewMemoryStore(), notifier, uploader.upload)
	return &userFixture{svc: svc, sender: sender, uploader: uploader, notifier: notifier, redis: mr}
}

func TestUserService_RegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	reg, err := f.svc.Register(ctx, &dto.RegisterDTO{Name: "Grace", Email: "Grace@EdVix.dev", Password: "hopper1", Role: "tutor"})
	require.NoError(t, err)
	assert.NotEmpty(t, reg.Token)
	assert.Equal(t, "tutor", reg.User.Role)
	require.NotNil(t, reg.User.Email)
	assert.Equal(t, "grace@edvix.dev", *reg.User.Email)
	require.Len(t, f.notifier.all(), 1)

	_, err = f.svc.Register(ctx, &dto.RegisterDTO{Name: "Dup", Email: "grace@edvix.dev", Password: "123456"})
	assert.ErrorIs(t, err, ErrUserEmailExist)

	_, err = f.svc.Register(ctx, &dto.RegisterDTO{Name: "X", Email: "x@edvix.dev", Password: "123456", Role: "admin"})
	assert.ErrorIs(t, err, ErrRoleInvalid)

	login, err := f.svc.Login(ctx, &dto.LoginDTO{Email: "grace@edvix.dev", Password: "hopper1"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, login.User.ID)

	_, err = f.svc.Login(ctx, &dto.LoginDTO{Email: "grace@edvix.dev", Password: "wrong"})
	assert.ErrorIs(t, err, ErrPasswordIncorrect)

	_, err = f.svc.Login(ctx, &dto.LoginDTO{Email: "nobody@edvix.dev", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_EmailCodeLogin(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	require.NoError(t, f.svc.SendEmailCode(ctx, "ada@edvix.dev"))
	code := f.sender.last("ada@edvix.dev")
	require.Len(t, code, 6)

	_, err := f.svc.LoginByEmailCode(ctx, &dto.EmailLoginDTO{Email: "ada@edvix.dev", Code: "00000x"})
	assert.ErrorIs(t, err, otp.ErrInvalidCode)

	res, err := f.svc.LoginByEmailCode(ctx, &dto.EmailLoginDTO{Email: "ada@edvix.dev", Code: code})
	require.NoError(t, err)
	assert.Equal(t, "ada", res.User.Name)
	assert.Equal(t, "student", res.User.Role)

	_, err = f.svc.LoginByEmailCode(ctx, &dto.EmailLoginDTO{Email: "ada@edvix.dev", Code: code})
	assert.ErrorIs(t, err, otp.ErrCodeExpired)
}

func TestUserService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	token, err := security.GenerateToken(1, "student")
	require.NoError(t, err)
	require.NoError(t, f.svc.Logout(ctx, token))

	sig, err := security.ExtractSignature(token)
	require.NoError(t, err)
	assert.True(t, f.redis.Exists(consts.JwtDenyKey+sig))
	assert.Greater(t, f.redis.TTL(consts.JwtDenyKey+sig), 23*time.Hour)

	assert.Error(t, f.svc.Logout(ctx, "garbage"))
}

func TestUserService_ListUsersByRole(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	_, err := f.svc.Register(ctx, &dto.RegisterDTO{Name: "T", Email: "t@edvix.dev", Password: "123456", Role: "tutor"})
	require.NoError(t, err)
	_, err = f.svc.Register(ctx, &dto.RegisterDTO{Name: "S", Email: "s@edvix.dev", Password: "123456"})
	require.NoError(t, err)

	tutors, err := f.svc.ListUsersByRole(ctx, model.RoleTutor)
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, "T", tutors[0].Name)
	assert.Nil(t, tutors[0].Email)

	_, err = f.svc.ListUsersByRole(ctx, "admin")
	assert.ErrorIs(t, err, ErrRoleInvalid)
}

func TestUserService_NoticeFlags(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	seen, err := f.svc.HasSeenNotice(ctx, 1, "dashboard_tour")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, f.svc.MarkNoticeSeen(ctx, 1, "dashboard_tour"))
	require.NoError(t, f.svc.MarkNoticeSeen(ctx, 1, "dashboard_tour"))

	seen, err = f.svc.HasSeenNotice(ctx, 1, "dashboard_tour")
	require.NoError(t, err)
	assert.True(t, seen)

	seen, err = f.svc.HasSeenNotice(ctx, 2, "dashboard_tour")
	require.NoError(t, err)
	assert.False(t, seen)

	assert.ErrorIs(t, f.svc.MarkNoticeSeen(ctx, 1, "Bad Key!"), ErrNoticeKeyInvalid)
}

func TestUserService_UploadAvatar(t *testing.T) {
	ctx := context.Background()
	f := newUserFixture(t)

	reg, err := f.svc.Register(ctx, &dto.RegisterDTO{Name: "Ada", Email: "ada@edvix.dev", Password: "123456"})
	require.NoError(t, err)

	var src bytes.Buffer
	require.NoError(t, png.Encode(&src, imaging.New(640, 480, color.NRGBA{R: 200, A: 255})))

	user, err := f.svc.UploadAvatar(ctx, reg.User.ID, &src, "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(f.uploader.name, "avatars/"))
	assert.Equal(t, "image/jpeg", f.uploader.contentType)
	assert.Equal(t, f.uploader.name, user.AvatarURL)

	img, err := imaging.Decode(bytes.NewReader(f.uploader.data))
	require.NoError(t, err)
	assert.Equal(t, consts.AvatarSize, img.Bounds().Dx())
	assert.Equal(t, consts.AvatarSize, img.Bounds().Dy())

	_, err = f.svc.UploadAvatar(ctx, reg.User.ID, strings.NewReader("plain"), "text/plain")
	assert.ErrorIs(t, err, ErrFileNotSupported)

	_, err = f.svc.UploadAvatar(ctx, reg.User.ID, strings.NewReader("not an image"), "image/png")
	assert.ErrorIs(t, err, ErrFileNotSupported)
}
