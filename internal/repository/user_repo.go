package repository

import (
	"EdVix/internal/model"
	"context"
	"errors"

	"gorm.io/gorm"
)

// UserDirectory 按角色列出可联系的用户
type UserDirectory interface {
	ListUsersByRole(ctx context.Context, role model.Role) ([]*model.User, error)
}

type UserRepo interface {
	UserDirectory
	GetUserById(ctx context.Context, id uint64) (*model.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	UpdateAvatar(ctx context.Context, id uint64, avatarURL string) error
	UpdateUserIsBan(ctx context.Context, id uint64, isBan bool) (int64, error)
}

type UserRepoImpl struct {
	db *gorm.DB
}

func NewUserRepo(db *gorm.DB) UserRepo {
	return &UserRepoImpl{db: db}
}

// GetUserById 不存在时返回 nil, nil
func (s *UserRepoImpl) GetUserById(ctx context.Context, id uint64) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).First(user, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return user, nil
}

func (s *UserRepoImpl) GetUserByPhone(ctx context.Context, phone string) (*model.User, error) {
	return s.firstWhere(ctx, "phone = ?", phone)
}

func (s *UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return s.firstWhere(ctx, "email = ?", email)
}

func (s *UserRepoImpl) firstWhere(ctx context.Context, query string, arg any) (*model.User, error) {
	user := &model.User{}
	result := s.db.WithContext(ctx).Where(query, arg).First(user)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return user, nil
}

// ListUsersByRole 列出指定角色下未封禁的用户，按注册顺序
func (s *UserRepoImpl) ListUsersByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	users := make([]*model.User, 0)
	result := s.db.WithContext(ctx).
		Where("role = ? AND is_ban = ?", role, false).
		Order("id ASC").
		Find(&users)
	if result.Error != nil {
		return nil, result.Error
	}
	return users, nil
}

func (s *UserRepoImpl) CreateUser(ctx context.Context, user *model.User) error {
	return s.db.WithContext(ctx).Create(user).Error
}

func (s *UserRepoImpl) UpdateAvatar(ctx context.Context, id uint64, avatarURL string) error {
	return s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("avatar_url", avatarURL).Error
}

func (s *UserRepoImpl) UpdateUserIsBan(ctx context.Context, id uint64, isBan bool) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		Update("is_ban", isBan)

	return result.RowsAffected, result.Error
}
