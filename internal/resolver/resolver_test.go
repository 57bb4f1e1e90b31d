package resolver

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/db"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/models"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/store"
)

type fixture struct {
	resolver  *Resolver
	users     *store.UserStore
	resources *store.ResourceStore
	perms     *store.PermissionStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))

	users := store.NewUserStore(conn)
	resources := store.NewResourceStore(conn)
	perms := store.NewPermissionStore(conn)

	return &fixture{
		resolver:  New(users, resources),
		users:     users,
		resources: resources,
		perms:     perms,
	}
}

func (f *fixture) addResource(t *testing.T, name, url, text string) *models.Resource {
	t.Helper()
	res, err := f.resources.UpsertByURL(context.Background(), store.Upsert{
		Name: name, URL: url, FileType: "txt", UploadedBy: "seed",
		ExtractedText: &text,
	})
	require.NoError(t, err)
	return res
}

func TestAdminSeesAllReadableResources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	admin, err := f.users.Create(ctx, "root", "secret123", models.UserRoleAdmin)
	require.NoError(t, err)

	f.addResource(t, "one", "r1", "alpha")
	f.addResource(t, "two", "r2", "beta")
	f.addResource(t, "broken", "r3", "[ERROR: parse failed]")

	list, err := f.resolver.Resolve(ctx, admin.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
}

func TestUserSeesOnlyGrantedResources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Create(ctx, "plain", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	granted := f.addResource(t, "mine", "r1", "alpha")
	f.addResource(t, "not-mine", "r2", "beta")

	require.NoError(t, f.perms.Grant(ctx, user.ID, granted.ID, "root"))

	list, err := f.resolver.Resolve(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "mine", list[0].Name)
}

func TestRevokedResourceDisappears(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Create(ctx, "plain", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	res := f.addResource(t, "doc", "r1", "alpha")
	require.NoError(t, f.perms.Grant(ctx, user.ID, res.ID, "root"))

	list, err := f.resolver.Resolve(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, f.perms.Revoke(ctx, user.ID, res.ID, "root"))

	list, err = f.resolver.Resolve(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestUnknownUserFailsClosed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.addResource(t, "doc", "r1", "alpha")

	// A user ID with no row must never get the admin-wide view.
	list, err := f.resolver.Resolve(ctx, uuid.New().String())
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestEmptyAccessibleSetIsNotAnError(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.users.Create(ctx, "plain", "secret123", models.UserRoleUser)
	require.NoError(t, err)

	list, err := f.resolver.Resolve(ctx, user.ID)
	require.NoError(t, err)
	require.Empty(t, list)
}
