package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const sysBoxCollection = "sys_box"

// ErrNoticeNotFound 通知不存在或不属于该用户
var ErrNoticeNotFound = errors.New("通知不存在")

type SysBoxRepo interface {
	Create(ctx context.Context, notice *SysBoxModel) error
	ListByReceiver(ctx context.Context, receiverID uint64, limit, offset int64) ([]*SysBoxModel, error)
	MarkRead(ctx context.Context, receiverID uint64, noticeID string) error
	MarkAllRead(ctx context.Context, receiverID uint64) (int64, error)
	CountUnread(ctx context.Context, receiverID uint64) (int64, error)
}

type sysBoxRepoImpl struct {
	col *mongo.Collection
}

func NewSysBoxRepo(db *mongo.Database) SysBoxRepo {
	return &sysBoxRepoImpl{
		col: db.Collection(sysBoxCollection),
	}
}

// Create 插入新通知
func (s *sysBoxRepoImpl) Create(ctx context.Context, notice *SysBoxModel) error {
	if notice.ID.IsZero() {
		notice.ID = primitive.NewObjectID()
	}
	_, err := s.col.InsertOne(ctx, notice)
	return err
}

// ListByReceiver 分页获取通知，按时间倒序
func (s *sysBoxRepoImpl) ListByReceiver(ctx context.Context, receiverID uint64, limit, offset int64) ([]*SysBoxModel, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(limit).
		SetSkip(offset)

	cursor, err := s.col.Find(ctx, bson.M{"receiver_id": receiverID}, opts)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = cursor.Close(ctx)
	}()

	list := make([]*SysBoxModel, 0)
	if err = cursor.All(ctx, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// MarkRead 标记单条通知为已读
func (s *sysBoxRepoImpl) MarkRead(ctx context.Context, receiverID uint64, noticeID string) error {
	objectID, err := primitive.ObjectIDFromHex(noticeID)
	if err != nil {
		return ErrNoticeNotFound
	}
	filter := bson.M{"_id": objectID, "receiver_id": receiverID}
	result, err := s.col.UpdateOne(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return ErrNoticeNotFound
	}
	return nil
}

// MarkAllRead 将用户所有未读通知标记为已读，返回受影响条数
func (s *sysBoxRepoImpl) MarkAllRead(ctx context.Context, receiverID uint64) (int64, error) {
	filter := bson.M{"receiver_id": receiverID, "is_read": false}
	result, err := s.col.UpdateMany(ctx, filter, bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// CountUnread 未读通知数
func (s *sysBoxRepoImpl) CountUnread(ctx context.Context, receiverID uint64) (int64, error) {
	return s.col.CountDocuments(ctx, bson.M{"receiver_id": receiverID, "is_read": false})
}
