package service

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/kv"
	"EdVix/internal/pkg/minio"
	"EdVix/internal/pkg/otp"
	"EdVix/internal/pkg/redis"
	"EdVix/internal/pkg/security"
	"EdVix/internal/repository"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	log "log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

var noticeKeyRegex = regexp.MustCompile(`^[a-z0-9_\-]{1,64}$`)

// ObjectUploader 上传对象并返回对象名
type ObjectUploader func(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error)

type UserService interface {
	Register(ctx context.Context, dto *dto.RegisterDTO) (*dto.TokenDTO, error)
	Login(ctx context.Context, dto *dto.LoginDTO) (*dto.TokenDTO, error)
	SendEmailCode(ctx context.Context, email string) error
	LoginByEmailCode(ctx context.Context, dto *dto.EmailLoginDTO) (*dto.TokenDTO, error)
	Logout(ctx context.Context, token string) error
	GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error)
	ListUsersByRole(ctx context.Context, role model.Role) ([]*dto.UserDTO, error)
	UploadAvatar(ctx context.Context, id uint64, file io.Reader, contentType string) (*dto.UserDTO, error)
	HasSeenNotice(ctx context.Context, id uint64, key string) (bool, error)
	MarkNoticeSeen(ctx context.Context, id uint64, key string) error
}

type UserServiceImpl struct {
	userRepo  repository.UserRepo
	directory repository.UserDirectory
	codes     CodeService
	flags     kv.Store
	notifier  Notifier
	upload    ObjectUploader
	remove    func(ctx context.Context, objectName string) error
}

func NewUserService(
	userRepo repository.UserRepo,
	directory repository.UserDirectory,
	codes CodeService,
	flags kv.Store,
	notifier Notifier,
	upload ObjectUploader,
) UserService {
	if directory == nil {
		directory = userRepo
	}
	if upload == nil {
		upload = minio.UploadFile
	}
	return &UserServiceImpl{
		userRepo:  userRepo,
		directory: directory,
		codes:     codes,
		flags:     flags,
		notifier:  notifier,
		upload:    upload,
		remove:    minio.DeleteFile,
	}
}

func (s *UserServiceImpl) Register(ctx context.Context, regDTO *dto.RegisterDTO) (*dto.TokenDTO, error) {
	role, err := parseRole(regDTO.Role)
	if err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(regDTO.Email))
	exist, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return nil, ErrUserEmailExist
	}

	passwordHash, err := security.HashPassword(regDTO.Password)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     regDTO.Name,
		Email:    &email,
		Password: &passwordHash,
		Role:     role,
	}
	if err = s.userRepo.CreateUser(ctx, user); err != nil {
		return nil, err
	}
	s.notifier.Notify(ctx, model.Notice{
		UserID:      user.ID,
		Title:       "注册成功",
		Description: fmt.Sprintf("欢迎加入 EdVix，%s", user.Name),
		Variant:     consts.NoticeVariantSuccess,
	})
	return s.issueToken(user)
}

func (s *UserServiceImpl) Login(ctx context.Context, loginDTO *dto.LoginDTO) (*dto.TokenDTO, error) {
	user, err := s.userRepo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(loginDTO.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.Password == nil {
		return nil, ErrPasswordIncorrect
	}
	if err = security.CheckPasswordHash(loginDTO.Password, *user.Password); err != nil {
		if !errors.Is(err, security.ErrPasswordMismatch) {
			log.ErrorContext(ctx, "check password hash failed", "userID", user.ID, "err", err)
		}
		return nil, ErrPasswordIncorrect
	}
	if user.IsBan {
		return nil, ErrUserBan
	}
	return s.issueToken(user)
}

func (s *UserServiceImpl) SendEmailCode(ctx context.Context, email string) error {
	return s.codes.SendCode(ctx, strings.ToLower(strings.TrimSpace(email)), otp.KindEmail)
}

// LoginByEmailCode 验证码正确即登录，邮箱未注册时自动创建账号
func (s *UserServiceImpl) LoginByEmailCode(ctx context.Context, loginDTO *dto.EmailLoginDTO) (*dto.TokenDTO, error) {
	email := strings.ToLower(strings.TrimSpace(loginDTO.Email))
	if _, err := s.codes.CheckCode(ctx, email, loginDTO.Code, otp.KindEmail); err != nil {
		return nil, err
	}
	_ = s.codes.DelCheckToken(ctx, email)

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		role, err := parseRole(loginDTO.Role)
		if err != nil {
			return nil, err
		}
		name := loginDTO.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}
		user = &model.User{Name: name, Email: &email, Role: role}
		if err = s.userRepo.CreateUser(ctx, user); err != nil {
			return nil, err
		}
	}
	if user.IsBan {
		return nil, ErrUserBan
	}
	return s.issueToken(user)
}

// Logout 将令牌签名加入黑名单，直到令牌自然过期
func (s *UserServiceImpl) Logout(ctx context.Context, token string) error {
	signature, err := security.ExtractSignature(token)
	if err != nil {
		return err
	}
	ttl := 24 * time.Hour
	if claims, err := security.ValidateToken(token); err == nil && claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if ttl <= 0 {
		return nil
	}
	return redis.SetWithExpiration(ctx, consts.JwtDenyKey+signature, "1", ttl)
}

func (s *UserServiceImpl) GetUserInfo(ctx context.Context, id uint64) (*dto.UserDTO, error) {
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return toUserDTO(user), nil
}

func (s *UserServiceImpl) ListUsersByRole(ctx context.Context, role model.Role) ([]*dto.UserDTO, error) {
	if !role.Valid() {
		return nil, ErrRoleInvalid
	}
	users, err := s.directory.ListUsersByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	res := make([]*dto.UserDTO, 0, len(users))
	for _, u := range users {
		d := toUserDTO(u)
		d.Phone, d.Email = nil, nil
		res = append(res, d)
	}
	return res, nil
}

// UploadAvatar 居中裁剪为正方形并缩放后上传
func (s *UserServiceImpl) UploadAvatar(ctx context.Context, id uint64, file io.Reader, contentType string) (*dto.UserDTO, error) {
	if !strings.HasPrefix(contentType, consts.MimePrefixImage) {
		return nil, ErrFileNotSupported
	}
	user, err := s.userRepo.GetUserById(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return nil, ErrFileNotSupported
	}
	img = imaging.Fill(img, consts.AvatarSize, consts.AvatarSize, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("avatars/%d/%s.jpg", id, uuid.NewString())
	key, err := s.upload(ctx, objectName, &buf, int64(buf.Len()), "image/jpeg")
	if err != nil {
		return nil, err
	}
	if err = s.userRepo.UpdateAvatar(ctx, id, key); err != nil {
		return nil, err
	}
	// 旧头像清理失败不影响本次更新
	if old := user.AvatarURL; old != "" && old != key {
		if err = s.remove(ctx, old); err != nil {
			log.WarnContext(ctx, "delete old avatar failed", "userID", id, "object", old, "err", err)
		}
	}
	user.AvatarURL = key
	return toUserDTO(user), nil
}

func (s *UserServiceImpl) HasSeenNotice(ctx context.Context, id uint64, key string) (bool, error) {
	if !noticeKeyRegex.MatchString(key) {
		return false, ErrNoticeKeyInvalid
	}
	_, ok, err := s.flags.Get(ctx, noticeFlagKey(id, key))
	if err != nil {
		return false, err
	}
	return ok, nil
}

// MarkNoticeSeen 可重复调用
func (s *UserServiceImpl) MarkNoticeSeen(ctx context.Context, id uint64, key string) error {
	if !noticeKeyRegex.MatchString(key) {
		return ErrNoticeKeyInvalid
	}
	return s.flags.Set(ctx, noticeFlagKey(id, key), "true")
}

func noticeFlagKey(id uint64, key string) string {
	return consts.NoticeFlagKey + strconv.FormatUint(id, 10) + ":" + key
}

func (s *UserServiceImpl) issueToken(user *model.User) (*dto.TokenDTO, error) {
	token, err := security.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		return nil, err
	}
	return &dto.TokenDTO{Token: token, User: toUserDTO(user)}, nil
}

func parseRole(raw string) (model.Role, error) {
	if raw == "" {
		return model.RoleStudent, nil
	}
	role := model.Role(raw)
	if !role.Valid() {
		return "", ErrRoleInvalid
	}
	return role, nil
}

func toUserDTO(user *model.User) *dto.UserDTO {
	d := &dto.UserDTO{}
	_ = copier.Copy(d, user)
	d.Role = string(user.Role)
	avatar := user.AvatarURL
	if avatar == "" {
		avatar = consts.DefaultAvatarURL
	}
	d.AvatarURL = minio.GetPublicURL(avatar)
	return d
}
