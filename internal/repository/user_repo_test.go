package repository

import (
	"context"
	"testing"

	"EdVix/internal/model"
	"EdVix/internal/pkg/kv"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))
	return db
}

func strPtr(s string) *string { return &s }

func TestUserRepo_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))

	u := &model.User{Name: "Ada", Phone: strPtr("+15550000001"), Email: strPtr("ada@edvix.dev"), Role: model.RoleTutor}
	require.NoError(t, repo.CreateUser(ctx, u))
	require.NotZero(t, u.ID)

	got, err := repo.GetUserById(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Ada", got.Name)

	got, err = repo.GetUserByPhone(ctx, "+15550000001")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, u.ID, got.ID)

	got, err = repo.GetUserByEmail(ctx, "ada@edvix.dev")
	require.NoError(t, err)
	require.NotNil(t, got)

	missing, err := repo.GetUserById(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, repo.UpdateAvatar(ctx, u.ID, "avatars/1.png"))
	got, _ = repo.GetUserById(ctx, u.ID)
	assert.Equal(t, "avatars/1.png", got.AvatarURL)
}

func TestUserRepo_ListUsersByRole(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepo(newTestDB(t))

	require.NoError(t, repo.CreateUser(ctx, &model.User{Name: "T1", Phone: strPtr("1"), Role: model.RoleTutor}))
	require.NoError(t, repo.CreateUser(ctx, &model.User{Name: "S1", Phone: strPtr("2"), Role: model.RoleStudent}))
	banned := &model.User{Name: "T2", Phone: strPtr("3"), Role: model.RoleTutor}
	require.NoError(t, repo.CreateUser(ctx, banned))

	n, err := repo.UpdateUserIsBan(ctx, banned.ID, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	tutors, err := repo.ListUsersByRole(ctx, model.RoleTutor)
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, "T1", tutors[0].Name)

	students, err := repo.ListUsersByRole(ctx, model.RoleStudent)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, model.RoleStudent, students[0].Role)
}

func TestKVUserDirectory(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	dir := NewKVUserDirectory(store)

	empty, err := dir.ListUsersByRole(ctx, model.RoleTutor)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, dir.SaveUser(ctx, &model.User{ID: 1, Name: "T1", Role: model.RoleTutor}))
	require.NoError(t, dir.SaveUser(ctx, &model.User{ID: 2, Name: "S1", Role: model.RoleStudent}))
	require.NoError(t, dir.SaveUser(ctx, &model.User{ID: 1, Name: "T1 renamed", Role: model.RoleTutor}))

	tutors, err := dir.ListUsersByRole(ctx, model.RoleTutor)
	require.NoError(t, err)
	require.Len(t, tutors, 1)
	assert.Equal(t, "T1 renamed", tutors[0].Name)

	assert.Error(t, dir.SaveUser(ctx, &model.User{Name: "no id", Role: model.RoleTutor}))
	assert.Error(t, dir.SaveUser(ctx, &model.User{ID: 3, Role: "admin"}))

	require.NoError(t, store.Set(ctx, directoryKey(model.RoleStudent), "{broken"))
	students, err := dir.ListUsersByRole(ctx, model.RoleStudent)
	require.NoError(t, err)
	assert.Empty(t, students)
}
