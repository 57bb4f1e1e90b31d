package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/db"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.Migrate(conn))

	t.Cleanup(func() {
		conn.Exec("DELETE FROM permissions")
		conn.Exec("DELETE FROM chat_exchanges")
		conn.Exec("DELETE FROM resources")
		conn.Exec("DELETE FROM users")
	})
	return conn
}

func strptr(s string) *string { return &s }

func TestUserStoreCreateAndVerify(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserStore(conn)
	ctx := context.Background()

	user, err := users.Create(ctx, "alice", "secret123", models.UserRoleUser)
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, models.UserRoleUser, user.Role)
	require.NotEqual(t, "secret123", user.PasswordHash)

	verified, err := users.Verify(ctx, "alice", "secret123")
	require.NoError(t, err)
	require.Equal(t, user.ID, verified.ID)

	_, err = users.Verify(ctx, "alice", "wrong")
	require.Error(t, err)
}

func TestUserStoreDuplicateUsername(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserStore(conn)
	ctx := context.Background()

	_, err := users.Create(ctx, "bob", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	_, err = users.Create(ctx, "bob", "other456", models.UserRoleAdmin)
	require.ErrorIs(t, err, ErrUsernameTaken)
}

func TestUserStoreUpdateRole(t *testing.T) {
	conn := newTestDB(t)
	users := NewUserStore(conn)
	ctx := context.Background()

	user, err := users.Create(ctx, "carol", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	require.NoError(t, users.UpdateRole(ctx, user.ID, models.UserRoleAdmin))

	reloaded, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.UserRoleAdmin, reloaded.Role)
}

func TestResourceUpsertByURLCreatesThenUpdates(t *testing.T) {
	conn := newTestDB(t)
	resources := NewResourceStore(conn)
	ctx := context.Background()

	first, err := resources.UpsertByURL(ctx, Upsert{
		Name:          "guide.pdf",
		URL:           "https://drive.google.com/file/d/abc123/view?usp=sharing",
		FileType:      "pdf",
		UploadedBy:    "admin",
		ExtractedText: strptr("first extraction"),
	})
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.NotNil(t, first.LastSyncTime)

	second, err := resources.UpsertByURL(ctx, Upsert{
		Name:          "guide-v2.pdf",
		URL:           "https://drive.google.com/file/d/abc123/view?usp=sharing",
		FileType:      "pdf",
		UploadedBy:    "admin",
		ExtractedText: strptr("second extraction"),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, "guide-v2.pdf", second.Name)
	require.Equal(t, "second extraction", second.Text())

	all, err := resources.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestResourceUpsertNilTextKeepsExisting(t *testing.T) {
	conn := newTestDB(t)
	resources := NewResourceStore(conn)
	ctx := context.Background()

	url := "https://drive.google.com/file/d/keepme/view?usp=sharing"
	_, err := resources.UpsertByURL(ctx, Upsert{
		Name: "doc", URL: url, FileType: "txt", UploadedBy: "admin",
		ExtractedText: strptr("good text"),
	})
	require.NoError(t, err)

	// Re-sync without a new extraction must not erase the stored text.
	updated, err := resources.UpsertByURL(ctx, Upsert{
		Name: "doc", URL: url, FileType: "txt", UploadedBy: "admin",
		ExtractedText: nil,
	})
	require.NoError(t, err)
	require.Equal(t, "good text", updated.Text())
}

func TestListReadableFiltersBadText(t *testing.T) {
	conn := newTestDB(t)
	resources := NewResourceStore(conn)
	ctx := context.Background()

	seed := []Upsert{
		{Name: "good", URL: "u1", FileType: "txt", UploadedBy: "a", ExtractedText: strptr("hello world")},
		{Name: "empty", URL: "u2", FileType: "txt", UploadedBy: "a", ExtractedText: strptr("")},
		{Name: "failed", URL: "u3", FileType: "pdf", UploadedBy: "a", ExtractedText: strptr("[ERROR: could not parse]")},
		{Name: "pending", URL: "u4", FileType: "pdf", UploadedBy: "a", ExtractedText: nil},
	}
	for _, up := range seed {
		_, err := resources.UpsertByURL(ctx, up)
		require.NoError(t, err)
	}

	readable, err := resources.ListReadable(ctx)
	require.NoError(t, err)
	require.Len(t, readable, 1)
	require.Equal(t, "good", readable[0].Name)
}

func TestListGrantedToRequiresExplicitGrant(t *testing.T) {
	conn := newTestDB(t)
	resources := NewResourceStore(conn)
	perms := NewPermissionStore(conn)
	users := NewUserStore(conn)
	ctx := context.Background()

	user, err := users.Create(ctx, "dave", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	granted, err := resources.UpsertByURL(ctx, Upsert{
		Name: "granted", URL: "g1", FileType: "txt", UploadedBy: "a",
		ExtractedText: strptr("visible"),
	})
	require.NoError(t, err)

	_, err = resources.UpsertByURL(ctx, Upsert{
		Name: "ungranted", URL: "g2", FileType: "txt", UploadedBy: "a",
		ExtractedText: strptr("hidden"),
	})
	require.NoError(t, err)

	revoked, err := resources.UpsertByURL(ctx, Upsert{
		Name: "revoked", URL: "g3", FileType: "txt", UploadedBy: "a",
		ExtractedText: strptr("hidden too"),
	})
	require.NoError(t, err)

	require.NoError(t, perms.Grant(ctx, user.ID, granted.ID, "admin"))
	require.NoError(t, perms.Grant(ctx, user.ID, revoked.ID, "admin"))
	require.NoError(t, perms.Revoke(ctx, user.ID, revoked.ID, "admin"))

	list, err := resources.ListGrantedTo(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "granted", list[0].Name)
}

func TestPermissionGrantRevokeIsUpsert(t *testing.T) {
	conn := newTestDB(t)
	perms := NewPermissionStore(conn)
	users := NewUserStore(conn)
	resources := NewResourceStore(conn)
	ctx := context.Background()

	user, err := users.Create(ctx, "erin", "secret123", models.UserRoleUser)
	require.NoError(t, err)
	res, err := resources.UpsertByURL(ctx, Upsert{
		Name: "doc", URL: "p1", FileType: "txt", UploadedBy: "a",
		ExtractedText: strptr("text"),
	})
	require.NoError(t, err)

	require.NoError(t, perms.Grant(ctx, user.ID, res.ID, "admin"))
	require.NoError(t, perms.Revoke(ctx, user.ID, res.ID, "admin"))
	require.NoError(t, perms.Grant(ctx, user.ID, res.ID, "admin"))

	// Repeated grant/revoke cycles keep a single row per pair.
	var count int64
	require.NoError(t, conn.Model(&models.Permission{}).
		Where("user_id = ? AND resource_id = ?", user.ID, res.ID).
		Count(&count).Error)
	require.EqualValues(t, 1, count)

	row, err := perms.Get(ctx, user.ID, res.ID)
	require.NoError(t, err)
	require.True(t, row.CanAccess)
}

func TestBumpAccess(t *testing.T) {
	conn := newTestDB(t)
	resources := NewResourceStore(conn)
	ctx := context.Background()

	res, err := resources.UpsertByURL(ctx, Upsert{
		Name: "doc", URL: "b1", FileType: "txt", UploadedBy: "a",
		ExtractedText: strptr("text"),
	})
	require.NoError(t, err)

	require.NoError(t, resources.BumpAccess(ctx, []string{res.ID}))
	require.NoError(t, resources.BumpAccess(ctx, []string{res.ID}))
	require.NoError(t, resources.BumpAccess(ctx, nil))

	reloaded, err := resources.GetByID(ctx, res.ID)
	require.NoError(t, err)
	require.True(t, reloaded.IsAccessed)
	require.Equal(t, 2, reloaded.AccessCount)
}

func TestChatStoreHistoryNewestFirst(t *testing.T) {
	conn := newTestDB(t)
	chats := NewChatStore(conn)
	users := NewUserStore(conn)
	ctx := context.Background()

	user, err := users.Create(ctx, "frank", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	require.NoError(t, chats.Append(ctx, user.ID, "q1", "a1"))
	require.NoError(t, chats.Append(ctx, user.ID, "q2", "a2"))
	require.NoError(t, chats.Append(ctx, user.ID, "q3", "a3"))

	history, err := chats.History(ctx, user.ID, 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
}
