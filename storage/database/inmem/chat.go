package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
)

type chatRepository struct {
	db  *chatTables
	all *DB
}

var _ chat.Repository = (*chatRepository)(nil) // interface compliance check

func NewChatRepository(db *DB) chat.Repository {
	return &chatRepository{db: db.chat, all: db}
}

// fill sets the user fields and the last message preview. Must be called with the tables locked.
func (repo *chatRepository) fill(conv chat.Conversation) chat.Conversation {
	conv.UserName, conv.UserEmail = repo.all.userName(conv.UserID)
	conv.LastMessagePreview = nil
	if last := repo.lastMessage(conv.ID); last != nil {
		conv.LastMessagePreview = &chat.MessagePreview{Content: last.Content, SenderRole: last.SenderRole, CreatedAt: last.CreatedAt}
	}
	return conv
}

// must be called with the tables locked
func (repo *chatRepository) lastMessage(convID int) *chat.Message {
	var last *chat.Message
	for _, m := range repo.db.messages {
		if m.ConversationID == convID && (last == nil || m.ID > last.ID) {
			last = m
		}
	}
	return last
}

// fromOwner reports whether msg was sent by the user owning the conversation. Must be called with the tables locked.
func (repo *chatRepository) fromOwner(msg *chat.Message) bool {
	conv, ok := repo.db.conversations[msg.ConversationID]
	return ok && msg.SenderID == conv.UserID
}

// must be called with the tables locked
func (repo *chatRepository) countUnread(convID int, staff bool) int {
	var count int
	for _, m := range repo.db.messages {
		if m.IsRead || (convID != 0 && m.ConversationID != convID) {
			continue
		}
		// staff wait on the owners' messages, owners on everybody else's
		if repo.fromOwner(m) == staff {
			count++
		}
	}
	return count
}

func (repo *chatRepository) GetConversationByUser(_ context.Context, userID int) (chat.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, conv := range repo.db.conversations {
		if conv.UserID == userID {
			return repo.fill(*conv), nil
		}
	}
	return chat.Conversation{}, chat.ErrNotFound
}

func (repo *chatRepository) GetConversation(_ context.Context, id int) (chat.Conversation, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if conv, ok := repo.db.conversations[id]; ok {
		return repo.fill(*conv), nil
	}
	return chat.Conversation{}, chat.ErrNotFound
}

func (repo *chatRepository) CreateConversation(_ context.Context, conv chat.Conversation) (chat.Conversation, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	repo.db.convPkCount++
	conv.ID = repo.db.convPkCount
	repo.db.conversations[conv.ID] = &conv
	return repo.fill(conv), nil
}

func (repo *chatRepository) QueryConversations(_ context.Context, filter chat.ConversationFilter, page core.PageRequest) ([]chat.Conversation, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	search := strings.ToLower(filter.Search)
	convs := make([]chat.Conversation, 0, len(repo.db.conversations))
	for _, c := range repo.db.conversations {
		conv := repo.fill(*c)
		if search != "" &&
			!strings.Contains(strings.ToLower(conv.UserName), search) &&
			!strings.Contains(strings.ToLower(conv.UserEmail), search) {
			continue
		}
		conv.UnreadCount = repo.countUnread(conv.ID, true)
		if filter.UnreadOnly && conv.UnreadCount == 0 {
			continue
		}
		convs = append(convs, conv)
	}

	// most recently active first; never active ones last, newest first
	lastIDs := make(map[int]int, len(convs))
	for _, conv := range convs {
		if last := repo.lastMessage(conv.ID); last != nil {
			lastIDs[conv.ID] = last.ID
		}
	}
	sort.Slice(convs, func(i, j int) bool {
		ti, tj := convs[i].LastMessageAt, convs[j].LastMessageAt
		switch {
		case ti == nil && tj == nil:
			return convs[i].ID > convs[j].ID
		case ti == nil:
			return false
		case tj == nil:
			return true
		case ti.Equal(*tj):
			return lastIDs[convs[i].ID] > lastIDs[convs[j].ID]
		default:
			return ti.After(*tj)
		}
	})
	return paginate(convs, page), len(convs), nil
}

func (repo *chatRepository) QueryMessages(_ context.Context, convID int, page core.PageRequest) ([]chat.Message, int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	msgs := make([]chat.Message, 0)
	for _, m := range repo.db.messages {
		if m.ConversationID == convID {
			msgs = append(msgs, *m)
		}
	}
	// newest first to cut the page, then back to chronological order
	sort.Slice(msgs, func(i, j int) bool { return msgs[i].ID > msgs[j].ID })
	pg := paginate(msgs, page)
	sort.Slice(pg, func(i, j int) bool { return pg[i].ID < pg[j].ID })
	return pg, len(msgs), nil
}

func (repo *chatRepository) CreateMessage(_ context.Context, msg chat.Message) (chat.Message, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	conv, ok := repo.db.conversations[msg.ConversationID]
	if !ok {
		return chat.Message{}, chat.ErrNotFound
	}
	repo.db.msgPkCount++
	msg.ID = repo.db.msgPkCount
	repo.db.messages[msg.ID] = &msg

	at := msg.CreatedAt
	conv.LastMessageAt = &at
	return msg, nil
}

func (repo *chatRepository) MarkRead(_ context.Context, convID int, staff bool) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, m := range repo.db.messages {
		if m.ConversationID == convID && !m.IsRead && repo.fromOwner(m) == staff {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

func (repo *chatRepository) MarkMessagesRead(_ context.Context, ids []int, readerID, ownerID int) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var count int
	for _, id := range ids {
		m, ok := repo.db.messages[id]
		if !ok || m.IsRead || m.SenderID == readerID {
			continue
		}
		if conv := repo.db.conversations[m.ConversationID]; ownerID != 0 && (conv == nil || conv.UserID != ownerID) {
			continue
		}
		m.IsRead = true
		count++
	}
	return count, nil
}

func (repo *chatRepository) CountUnread(_ context.Context, convID int, staff bool) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.countUnread(convID, staff), nil
}

func paginate[T any](items []T, page core.PageRequest) []T {
	page.Clean()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.PageSize
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
