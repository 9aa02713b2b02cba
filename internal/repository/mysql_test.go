package repository

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/campaign-tracker/internal/database"
	"github.com/iliyamo/campaign-tracker/internal/model"
)

// openTestDB connects to the database named by MYSQL_TEST_DSN. The DSN must
// carry parseTime=true&clientFoundRows=true.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := os.Getenv("MYSQL_TEST_DSN")
	if dsn == "" {
		t.Skip("MYSQL_TEST_DSN not set")
	}
	db, err := sql.Open("mysql", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db))
	return db
}

func TestMySQLVideoAndDeletionFlow(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	videos, deletions := NewVideoRepo(db), NewDeletionRepo(db)

	owner := uuid.NewString()
	v := model.VideoRecord{
		ID: uuid.NewString(),
		VideoFields: model.VideoFields{
			Channel: "TechReviews", VideoLink: "https://youtu.be/x", Status: model.VideoPending,
			Price: 250, Brand: "Acme", Platform: model.PlatformYouTube, ContactInfo: "c@x", Date: "2024-05-01",
		},
		OwnerUID: owner, OwnerEmail: "w@example.com", Payment: model.PaymentPending,
	}
	require.NoError(t, videos.Create(ctx, v))
	t.Cleanup(func() { _ = videos.Delete(ctx, v.ID) })

	got, err := videos.Get(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, "2024-05-01", got.Date)

	assert.ErrorIs(t, videos.Update(ctx, v.ID, v.VideoFields, uuid.NewString()), ErrConflict)
	require.NoError(t, videos.Update(ctx, v.ID, v.VideoFields, owner), "unchanged write still matches")

	d, err := deletions.Request(ctx, uuid.NewString(), v.ID, owner, time.Now())
	require.NoError(t, err)
	_, err = deletions.Request(ctx, uuid.NewString(), v.ID, owner, time.Now())
	assert.ErrorIs(t, err, ErrConflict)

	_, err = deletions.Reject(ctx, d.ID)
	require.NoError(t, err)
	got, _ = videos.Get(ctx, v.ID)
	assert.False(t, got.DeletionPending)

	d, err = deletions.Request(ctx, uuid.NewString(), v.ID, owner, time.Now())
	require.NoError(t, err)
	_, err = deletions.Approve(ctx, d.ID)
	require.NoError(t, err)
	_, err = videos.Get(ctx, v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = deletions.Approve(ctx, d.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMySQLProfileCreateIfAbsent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	profiles := NewProfileRepo(db)

	uid := uuid.NewString()
	t.Cleanup(func() { _ = profiles.Delete(ctx, uid) })

	p, created, err := profiles.CreateIfAbsent(ctx, model.UserProfile{UID: uid, Email: "n@example.com", Role: model.RoleNew})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, model.RoleNew, p.Role)

	require.NoError(t, profiles.SetRole(ctx, uid, model.RoleWorker, true))
	p, created, err = profiles.CreateIfAbsent(ctx, model.UserProfile{UID: uid, Email: "n@example.com", Role: model.RoleNew})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, model.RoleWorker, p.Role)
}
