package service

import (
	"context"
	"sync"
	"testing"

	"EdVix/internal/model"
	"EdVix/internal/repository"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newUserRepo(t *testing.T) repository.UserRepo {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return repository.NewUserRepo(db)
}

func createUser(t *testing.T, repo repository.UserRepo, name string, role model.Role) *model.User {
	t.Helper()
	u := &model.User{Name: name, Role: role}
	require.NoError(t, repo.CreateUser(context.Background(), u))
	return u
}

type recordingNotifier struct {
	mu      sync.Mutex
	notices []model.Notice
}

func (r *recordingNotifier) Notify(_ context.Context, n model.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
}

func (r *recordingNotifier) all() []model.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Notice(nil), r.notices...)
}
