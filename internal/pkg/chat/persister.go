package chat

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/kv"
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const snapshotKeyPrefix = "chat:snapshot:"

// Snapshot 会话存储的持久化形态
type Snapshot struct {
	OwnerID       uint64               `bson:"owner_id" json:"ownerId"`
	Conversations []model.Conversation `bson:"conversations" json:"conversations"`
	ReadMarks     []ReadMark           `bson:"read_marks" json:"readMarks"`
	SavedAt       time.Time            `bson:"saved_at" json:"savedAt"`
}

// ReadMark 某成员在某会话中的已读序号
type ReadMark struct {
	ConversationID string `bson:"conversation_id" json:"conversationId"`
	UserID         uint64 `bson:"user_id" json:"userId"`
	Seq            uint64 `bson:"seq" json:"seq"`
}

// Persister 快照读写，Load 在无快照时返回 nil, nil
type Persister interface {
	Load(ctx context.Context, ownerID uint64) (*Snapshot, error)
	Save(ctx context.Context, snap *Snapshot) error
}

// KVPersister 以 JSON 形式保存到键值存储
type KVPersister struct {
	store kv.Store
}

func NewKVPersister(store kv.Store) *KVPersister {
	return &KVPersister{store: store}
}

func (p *KVPersister) Load(ctx context.Context, ownerID uint64) (*Snapshot, error) {
	raw, ok, err := p.store.Get(ctx, snapshotKey(ownerID))
	if err != nil || !ok || raw == "" {
		return nil, err
	}
	var snap Snapshot
	if err = json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (p *KVPersister) Save(ctx context.Context, snap *Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return p.store.Set(ctx, snapshotKey(snap.OwnerID), string(data))
}

func snapshotKey(ownerID uint64) string {
	return snapshotKeyPrefix + strconv.FormatUint(ownerID, 10)
}

// MongoPersister 每个用户一条快照文档
type MongoPersister struct {
	col *mongo.Collection
}

func NewMongoPersister(db *mongo.Database) *MongoPersister {
	return &MongoPersister{col: db.Collection("chat_snapshot")}
}

func (p *MongoPersister) Load(ctx context.Context, ownerID uint64) (*Snapshot, error) {
	var snap Snapshot
	err := p.col.FindOne(ctx, bson.M{"owner_id": ownerID}).Decode(&snap)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &snap, nil
}

func (p *MongoPersister) Save(ctx context.Context, snap *Snapshot) error {
	_, err := p.col.ReplaceOne(ctx,
		bson.M{"owner_id": snap.OwnerID},
		snap,
		options.Replace().SetUpsert(true),
	)
	return err
}
