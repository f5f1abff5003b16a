package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
)

// ownerSent matches the messages sent by the user owning the conversation: those the staff has to read.
const ownerSent = "m.sender_id = c.user_id"

const conversationSelect = `
SELECT c.id, c.user_id, u.name AS user_name, u.email AS user_email, c.last_message_at, c.created_at,
	lm.content AS preview_content, lm.sender_role AS preview_role, lm.created_at AS preview_at,
	(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id AND NOT m.is_read AND ` + ownerSent + `) AS unread_count
FROM conversations c
JOIN users u ON u.id = c.user_id
LEFT JOIN LATERAL (
	SELECT content, sender_role, created_at FROM messages WHERE conversation_id = c.id ORDER BY id DESC LIMIT 1
) lm ON TRUE`

type conversationRow struct {
	ID             int         `db:"id"`
	UserID         int         `db:"user_id"`
	UserName       string      `db:"user_name"`
	UserEmail      string      `db:"user_email"`
	LastMessageAt  null.Time   `db:"last_message_at"`
	CreatedAt      time.Time   `db:"created_at"`
	PreviewContent null.String `db:"preview_content"`
	PreviewRole    null.String `db:"preview_role"`
	PreviewAt      null.Time   `db:"preview_at"`
	UnreadCount    int         `db:"unread_count"`
}

func (row conversationRow) conversation() chat.Conversation {
	conv := chat.Conversation{
		ID:          row.ID,
		UserID:      row.UserID,
		UserName:    row.UserName,
		UserEmail:   row.UserEmail,
		UnreadCount: row.UnreadCount,
		CreatedAt:   row.CreatedAt.UTC(),
	}
	if row.LastMessageAt.Valid {
		at := row.LastMessageAt.Time.UTC()
		conv.LastMessageAt = &at
	}
	if row.PreviewContent.Valid {
		conv.LastMessagePreview = &chat.MessagePreview{
			Content:    row.PreviewContent.String,
			SenderRole: row.PreviewRole.String,
			CreatedAt:  row.PreviewAt.Time.UTC(),
		}
	}
	return conv
}

type messageRow struct {
	ID             int       `db:"id"`
	ConversationID int       `db:"conversation_id"`
	SenderID       int       `db:"sender_id"`
	SenderName     string    `db:"sender_name"`
	SenderRole     string    `db:"sender_role"`
	Content        string    `db:"content"`
	MessageType    string    `db:"message_type"`
	IsRead         bool      `db:"is_read"`
	CreatedAt      time.Time `db:"created_at"`
}

func (row messageRow) message() chat.Message {
	return chat.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		SenderID:       row.SenderID,
		SenderName:     row.SenderName,
		SenderRole:     row.SenderRole,
		Content:        row.Content,
		MessageType:    row.MessageType,
		IsRead:         row.IsRead,
		CreatedAt:      row.CreatedAt.UTC(),
	}
}

type chatRepository struct {
	exec core.DBExecutor
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(exec core.DBExecutor) chat.Repository {
	return &chatRepository{exec: exec}
}

func (repo *chatRepository) getConversation(ctx context.Context, where string, arg interface{}) (chat.Conversation, error) {
	var row conversationRow
	if err := repo.exec.GetContext(ctx, &row, conversationSelect+" WHERE "+where, arg); err != nil {
		return chat.Conversation{}, trapNoRowsErr(err, chat.ErrNotFound, "getting conversation")
	}
	return row.conversation(), nil
}

func (repo *chatRepository) GetConversationByUser(ctx context.Context, userID int) (chat.Conversation, error) {
	return repo.getConversation(ctx, "c.user_id = $1", userID)
}

func (repo *chatRepository) GetConversation(ctx context.Context, id int) (chat.Conversation, error) {
	return repo.getConversation(ctx, "c.id = $1", id)
}

func (repo *chatRepository) CreateConversation(ctx context.Context, conv chat.Conversation) (chat.Conversation, error) {
	var id int
	err := repo.exec.QueryRowxContext(
		ctx, "INSERT INTO conversations (user_id, created_at) VALUES ($1, $2) RETURNING id", conv.UserID, conv.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		switch pqCode(err) {
		case uniqueViolation: // started concurrently
			return repo.GetConversationByUser(ctx, conv.UserID)
		case foreignKeyViolation:
			return chat.Conversation{}, errors.Wrapf(core.ErrNotFound, "user %d", conv.UserID)
		}
		return chat.Conversation{}, errors.Wrap(err, "inserting conversation")
	}
	return repo.GetConversation(ctx, id)
}

func (repo *chatRepository) QueryConversations(ctx context.Context, filter chat.ConversationFilter, page core.PageRequest) ([]chat.Conversation, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		conds = append(conds, "(u.name ILIKE ? OR u.email ILIKE ?)")
		args = append(args, args[len(args)-1])
	}
	if filter.UnreadOnly {
		conds = append(conds, "EXISTS (SELECT 1 FROM messages m WHERE m.conversation_id = c.id AND NOT m.is_read AND "+ownerSent+")")
	}
	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var count int
	countQ := repo.exec.Rebind("SELECT COUNT(*) FROM conversations c JOIN users u ON u.id = c.user_id" + where)
	if err := repo.exec.GetContext(ctx, &count, countQ, args...); err != nil {
		return nil, 0, errors.Wrap(err, "counting conversations")
	}

	page.Clean()
	q := repo.exec.Rebind(conversationSelect + where + " ORDER BY c.last_message_at DESC NULLS LAST, c.id DESC LIMIT ? OFFSET ?")
	var rows []conversationRow
	if err := repo.exec.SelectContext(ctx, &rows, q, append(args, page.PageSize, page.Offset())...); err != nil {
		return nil, 0, errors.Wrap(err, "querying conversations")
	}
	convs := make([]chat.Conversation, 0, len(rows))
	for _, row := range rows {
		convs = append(convs, row.conversation())
	}
	return convs, count, nil
}

func (repo *chatRepository) QueryMessages(ctx context.Context, convID int, page core.PageRequest) ([]chat.Message, int, error) {
	var count int
	if err := repo.exec.GetContext(ctx, &count, "SELECT COUNT(*) FROM messages WHERE conversation_id = $1", convID); err != nil {
		return nil, 0, errors.Wrap(err, "counting messages")
	}

	page.Clean()
	q := `SELECT * FROM (
		SELECT m.id, m.conversation_id, m.sender_id, COALESCE(u.name, '') AS sender_name, m.sender_role,
			m.content, m.message_type, m.is_read, m.created_at
		FROM messages m LEFT JOIN users u ON u.id = m.sender_id
		WHERE m.conversation_id = $1
		ORDER BY m.id DESC LIMIT $2 OFFSET $3
	) pg ORDER BY id`
	var rows []messageRow
	if err := repo.exec.SelectContext(ctx, &rows, q, convID, page.PageSize, page.Offset()); err != nil {
		return nil, 0, errors.Wrap(err, "querying messages")
	}
	msgs := make([]chat.Message, 0, len(rows))
	for _, row := range rows {
		msgs = append(msgs, row.message())
	}
	return msgs, count, nil
}

func (repo *chatRepository) CreateMessage(ctx context.Context, msg chat.Message) (chat.Message, error) {
	q := `WITH msg AS (
			INSERT INTO messages (conversation_id, sender_id, sender_role, content, message_type, is_read, created_at)
			VALUES ($1, $2, $3, $4, $5, FALSE, $6) RETURNING id
		), conv AS (
			UPDATE conversations SET last_message_at = $6 WHERE id = $1
		)
		SELECT id FROM msg`
	msg.CreatedAt = msg.CreatedAt.UTC()
	err := repo.exec.QueryRowxContext(
		ctx, q, msg.ConversationID, msg.SenderID, msg.SenderRole, msg.Content, msg.MessageType, msg.CreatedAt,
	).Scan(&msg.ID)
	if err != nil {
		if pqCode(err) == foreignKeyViolation {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, errors.Wrap(err, "inserting message")
	}
	return msg, nil
}

func (repo *chatRepository) MarkRead(ctx context.Context, convID int, staff bool) (int, error) {
	q := `UPDATE messages m SET is_read = TRUE FROM conversations c
		WHERE c.id = m.conversation_id AND m.conversation_id = $1 AND NOT m.is_read AND (` + ownerSent + `) = $2`
	res, err := repo.exec.ExecContext(ctx, q, convID, staff)
	if err != nil {
		return 0, errors.Wrap(err, "marking conversation read")
	}
	return rowsAffected(res, "marking conversation read")
}

func (repo *chatRepository) MarkMessagesRead(ctx context.Context, ids []int, readerID, ownerID int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	q := `UPDATE messages m SET is_read = TRUE FROM conversations c
		WHERE c.id = m.conversation_id AND m.id IN (?) AND NOT m.is_read AND m.sender_id <> ?`
	args := []interface{}{ids, readerID}
	if ownerID != 0 {
		q += " AND c.user_id = ?"
		args = append(args, ownerID)
	}
	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return 0, errors.Wrap(err, "building query")
	}
	res, err := repo.exec.ExecContext(ctx, repo.exec.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	return rowsAffected(res, "marking messages read")
}

func (repo *chatRepository) CountUnread(ctx context.Context, convID int, staff bool) (int, error) {
	q := `SELECT COUNT(*) FROM messages m JOIN conversations c ON c.id = m.conversation_id
		WHERE NOT m.is_read AND (` + ownerSent + `) = $1`
	args := []interface{}{staff}
	if convID != 0 {
		q += " AND m.conversation_id = $2"
		args = append(args, convID)
	}
	var count int
	err := repo.exec.GetContext(ctx, &count, q, args...)
	return count, errors.Wrap(err, "counting unread messages")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }
