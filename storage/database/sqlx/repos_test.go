package sqlxrepos_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
	"github.com/3bdulrahman-M3/Front/storage/database"
	sqlxrepos "github.com/3bdulrahman-M3/Front/storage/database/sqlx"
	"github.com/3bdulrahman-M3/Front/tests"
)

// openTestDB connects to TEST_DATABASE_URL, migrates it and empties every table.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, database.Migrate(db.DB))
	_, err = db.Exec("TRUNCATE users, notifications, conversations, messages RESTART IDENTITY CASCADE")
	require.NoError(t, err)
	return db
}

func TestUserRepository(t *testing.T) {
	db := openTestDB(t)
	repo := sqlxrepos.NewUserRepository(db)
	ctx := context.Background()

	jane := testutil.CreateUser(t, repo, "Jane", "jane@example.com", "Sup3r-S3cret!", user.RoleInstructor, true)
	assert.NotZero(t, jane.ID)

	_, err := repo.CreateUser(ctx, user.User{Name: "Other", Email: "jane@example.com", CreatedAt: time.Now(), UpdatedAt: time.Now()})
	assert.True(t, errors.Is(err, user.ErrEmailExists))

	got, err := repo.GetUserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, jane.ID, got.ID)
	assert.NoError(t, got.CheckPassword("Sup3r-S3cret!"))
	assert.True(t, got.LastLogin.IsZero())

	got.LastLogin = time.Now().UTC().Truncate(time.Microsecond)
	_, err = repo.UpdateUser(ctx, got)
	require.NoError(t, err)
	got, err = repo.GetUserByID(ctx, jane.ID)
	require.NoError(t, err)
	assert.False(t, got.LastLogin.IsZero())

	_, err = repo.GetUserByID(ctx, 9999)
	assert.True(t, core.IsNotFound(err))
	_, err = repo.UpdateUser(ctx, user.User{ID: 9999, Email: "x@example.com"})
	assert.True(t, core.IsNotFound(err))

	users, err := repo.QueryUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestNotificationRepository(t *testing.T) {
	db := openTestDB(t)
	usr := testutil.CreateUser(t, sqlxrepos.NewUserRepository(db), "Jane", "jane@example.com", "", user.RoleStudent, true)
	repo := sqlxrepos.NewNotificationRepository(db)
	ctx := context.Background()

	now := time.Now().UTC()
	var ids []int
	for i := 0; i < 3; i++ {
		n, err := repo.CreateNotification(ctx, notification.Notification{
			UserID: usr.ID, Title: "t", Message: "m", Type: notification.TypeInfo, SenderName: "Admin",
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		ids = append(ids, n.ID)
	}

	ns, err := repo.QueryUnread(ctx, usr.ID, 2)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, ids[2], ns[0].ID)
	assert.Equal(t, "Admin", ns[0].SenderName)

	require.NoError(t, repo.MarkRead(ctx, usr.ID, ids[2]))
	assert.True(t, core.IsNotFound(repo.MarkRead(ctx, usr.ID+1, ids[1])))

	count, err := repo.CountUnread(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	n, err := repo.MarkAllRead(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestChatRepository(t *testing.T) {
	db := openTestDB(t)
	usrRepo := sqlxrepos.NewUserRepository(db)
	student := testutil.CreateUser(t, usrRepo, "Sam", "sam@example.com", "", user.RoleStudent, true)
	admin := testutil.CreateUser(t, usrRepo, "Ada", "ada@example.com", "", user.RoleAdmin, true)
	repo := sqlxrepos.NewChatRepository(db)
	ctx := context.Background()

	_, err := repo.GetConversationByUser(ctx, student.ID)
	assert.True(t, core.IsNotFound(err))

	conv, err := repo.CreateConversation(ctx, chat.Conversation{UserID: student.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, "Sam", conv.UserName)
	assert.Nil(t, conv.LastMessagePreview)

	again, err := repo.CreateConversation(ctx, chat.Conversation{UserID: student.ID, CreatedAt: time.Now()})
	require.NoError(t, err)
	assert.Equal(t, conv.ID, again.ID)

	now := time.Now().UTC()
	var msgs []chat.Message
	for i, sender := range []user.User{student, student, admin} {
		msg, err := repo.CreateMessage(ctx, chat.Message{
			ConversationID: conv.ID, SenderID: sender.ID, SenderRole: sender.Role,
			Content: "msg", MessageType: chat.MessageTypeText, CreatedAt: now.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
		msgs = append(msgs, msg)
	}
	_, err = repo.CreateMessage(ctx, chat.Message{ConversationID: 9999, SenderID: student.ID, SenderRole: "student", Content: "x", MessageType: "text", CreatedAt: now})
	assert.True(t, core.IsNotFound(err))

	staffUnread, err := repo.CountUnread(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, staffUnread)
	ownerUnread, err := repo.CountUnread(ctx, 0, false)
	require.NoError(t, err)
	assert.Equal(t, 1, ownerUnread)

	page, count, err := repo.QueryMessages(ctx, conv.ID, core.PageRequest{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, page, 2)
	assert.Equal(t, msgs[1].ID, page[0].ID)
	assert.Equal(t, msgs[2].ID, page[1].ID)
	assert.Equal(t, "Ada", page[1].SenderName)

	convs, count, err := repo.QueryConversations(ctx, chat.ConversationFilter{Search: "SAM", UnreadOnly: true}, core.PageRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, convs, 1)
	assert.Equal(t, 2, convs[0].UnreadCount)
	require.NotNil(t, convs[0].LastMessagePreview)
	assert.Equal(t, "admin", convs[0].LastMessagePreview.SenderRole)

	n, err := repo.MarkMessagesRead(ctx, []int{msgs[0].ID, msgs[2].ID}, student.ID, student.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = repo.MarkRead(ctx, conv.ID, true)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	convs, count, err = repo.QueryConversations(ctx, chat.ConversationFilter{UnreadOnly: true}, core.PageRequest{})
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, convs)
}
