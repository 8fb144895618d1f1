package repository

import (
	"EdVix/internal/model"
	"EdVix/internal/pkg/consts"
	"EdVix/internal/pkg/kv"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/goccy/go-json"
)

// KVUserDirectory 演示环境的用户目录，每个角色一份 JSON 列表
type KVUserDirectory struct {
	mu    sync.Mutex
	store kv.Store
}

func NewKVUserDirectory(store kv.Store) *KVUserDirectory {
	return &KVUserDirectory{store: store}
}

func directoryKey(role model.Role) string {
	return consts.DemoUsersKey + string(role)
}

// ListUsersByRole 缺失或损坏的记录按空列表处理
func (d *KVUserDirectory) ListUsersByRole(ctx context.Context, role model.Role) ([]*model.User, error) {
	return d.load(ctx, role)
}

// SaveUser 按 ID 覆盖或追加
func (d *KVUserDirectory) SaveUser(ctx context.Context, user *model.User) error {
	if user == nil || user.ID == 0 {
		return errors.New("用户ID不能为空")
	}
	if !user.Role.Valid() {
		return fmt.Errorf("未知角色: %s", user.Role)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	users, err := d.load(ctx, user.Role)
	if err != nil {
		return err
	}
	replaced := false
	for i, u := range users {
		if u.ID == user.ID {
			users[i] = user
			replaced = true
			break
		}
	}
	if !replaced {
		users = append(users, user)
	}

	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return d.store.Set(ctx, directoryKey(user.Role), string(raw))
}

func (d *KVUserDirectory) load(ctx context.Context, role model.Role) ([]*model.User, error) {
	raw, ok, err := d.store.Get(ctx, directoryKey(role))
	if err != nil {
		return nil, err
	}
	users := make([]*model.User, 0)
	if !ok || raw == "" {
		return users, nil
	}
	if err = json.Unmarshal([]byte(raw), &users); err != nil {
		return make([]*model.User, 0), nil
	}
	return users, nil
}
