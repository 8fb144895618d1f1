package service

import (
	"EdVix/internal/api/dto"
	"EdVix/internal/pkg/minio"
	"EdVix/internal/pkg/mongo"
	"EdVix/internal/repository"
	"context"
	"errors"
	"time"

	"github.com/jinzhu/copier"
)

const maxSysBoxPageSize = 50

type SysBoxService interface {
	GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error)
	GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error)
	MarkRead(ctx context.Context, userID uint64, noticeID string) error
	MarkAllRead(ctx context.Context, userID uint64) (int64, error)
}

type sysBoxServiceImpl struct {
	sysBoxRepo mongo.SysBoxRepo
	userRepo   repository.UserRepo
}

func NewSysBoxService(sysBox mongo.SysBoxRepo, user repository.UserRepo) SysBoxService {
	return &sysBoxServiceImpl{
		sysBoxRepo: sysBox,
		userRepo:   user,
	}
}

// GetNotificationList 获取通知列表并补全发送者信息
func (s *sysBoxServiceImpl) GetNotificationList(ctx context.Context, userID uint64, page, pageSize int) ([]*dto.SysBoxDTO, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > maxSysBoxPageSize {
		pageSize = 20
	}
	limit := int64(pageSize)
	offset := int64((page - 1) * pageSize)

	list, err := s.sysBoxRepo.ListByReceiver(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	senders := make(map[uint64]*dto.SysBoxDTO)
	res := make([]*dto.SysBoxDTO, 0, len(list))
	for _, m := range list {
		d := &dto.SysBoxDTO{}
		_ = copier.Copy(d, m)
		d.ID = m.ID.Hex()
		d.CreatedAt = m.CreatedAt.UTC().Format(time.RFC3339)

		// SenderID 为 0 代表系统发送
		if m.SenderID == 0 {
			d.SenderName = "系统通知"
		} else if cached, ok := senders[m.SenderID]; ok {
			d.SenderName, d.AvatarURL = cached.SenderName, cached.AvatarURL
		} else {
			user, err := s.userRepo.GetUserById(ctx, m.SenderID)
			if err == nil && user != nil {
				d.SenderName = user.Name
				d.AvatarURL = minio.GetPublicURL(user.AvatarURL)
			}
			senders[m.SenderID] = d
		}

		res = append(res, d)
	}

	return res, nil
}

// GetUnreadCount 获取未读数
func (s *sysBoxServiceImpl) GetUnreadCount(ctx context.Context, userID uint64) (*dto.SysBoxUnreadDTO, error) {
	count, err := s.sysBoxRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &dto.SysBoxUnreadDTO{UnreadCount: count}, nil
}

// MarkRead 标记单条已读，只能操作自己的通知
func (s *sysBoxServiceImpl) MarkRead(ctx context.Context, userID uint64, noticeID string) error {
	err := s.sysBoxRepo.MarkRead(ctx, userID, noticeID)
	if errors.Is(err, mongo.ErrNoticeNotFound) {
		return ErrSysBoxNotFound
	}
	return err
}

// MarkAllRead 一键已读
func (s *sysBoxServiceImpl) MarkAllRead(ctx context.Context, userID uint64) (int64, error) {
	return s.sysBoxRepo.MarkAllRead(ctx, userID)
}
