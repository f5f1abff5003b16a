package chat

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

var (
	// errors
	ErrNotFound = fmt.Errorf("conversation %w", core.ErrNotFound)

	nowFunc = time.Now // mockable
)

// Viewer is the user a request is made for.
// Staff viewers (admins) see every conversation; others only their own.
type Viewer struct {
	UserID int
	Name   string
	Role   string
	Staff  bool
}

type (
	Repository interface {
		// GetConversationByUser returns ErrNotFound when the user has not started a conversation.
		GetConversationByUser(ctx context.Context, userID int) (Conversation, error)
		GetConversation(ctx context.Context, id int) (Conversation, error)
		CreateConversation(ctx context.Context, conv Conversation) (Conversation, error)
		// QueryConversations returns a page of conversations, most recently active first,
		// with unread counts as seen by the staff.
		QueryConversations(ctx context.Context, filter ConversationFilter, page core.PageRequest) ([]Conversation, int, error)
		// QueryMessages returns the page-th most recent page of the conversation, oldest first.
		QueryMessages(ctx context.Context, convID int, page core.PageRequest) ([]Message, int, error)
		// CreateMessage also bumps the conversation's last message.
		CreateMessage(ctx context.Context, msg Message) (Message, error)
		// MarkRead marks read the messages of the conversation sent by the other side.
		MarkRead(ctx context.Context, convID int, staff bool) (int, error)
		// MarkMessagesRead marks read the given messages not sent by readerID, in conversations of ownerID
		// (any conversation when ownerID is 0).
		MarkMessagesRead(ctx context.Context, ids []int, readerID, ownerID int) (int, error)
		// CountUnread counts the unread messages sent by the other side, in conversation convID (or all when 0).
		CountUnread(ctx context.Context, convID int, staff bool) (int, error)
	}

	// Service is the server side of the support chat.
	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		logger     core.Logger
	}
)

func NewService(repo Repository, validate *validator.Validate, translator ut.Translator, logger core.Logger) *Service {
	return &Service{repo: repo, validate: validate, translator: translator, logger: logger}
}

// MyConversation returns the viewer's own conversation.
func (svc *Service) MyConversation(ctx context.Context, v Viewer) (Conversation, error) {
	conv, err := svc.repo.GetConversationByUser(ctx, v.UserID)
	if err != nil {
		return Conversation{}, errors.Wrap(err, "getting user conversation")
	}
	return svc.withUnread(ctx, conv, v)
}

// StartConversation returns the viewer's conversation, creating it if needed.
func (svc *Service) StartConversation(ctx context.Context, v Viewer) (Conversation, bool, error) {
	conv, err := svc.repo.GetConversationByUser(ctx, v.UserID)
	if err == nil {
		conv, err = svc.withUnread(ctx, conv, v)
		return conv, false, err
	}
	if !errors.Is(err, core.ErrNotFound) {
		return Conversation{}, false, errors.Wrap(err, "getting user conversation")
	}

	conv, err = svc.repo.CreateConversation(ctx, Conversation{UserID: v.UserID, CreatedAt: nowFunc().UTC()})
	if err != nil {
		return Conversation{}, false, errors.Wrap(err, "creating conversation")
	}
	svc.logger.Info(fmt.Sprintf("conversation %d started by user %d", conv.ID, v.UserID))
	return conv, true, nil
}

// Conversations lists every conversation. Staff only.
func (svc *Service) Conversations(ctx context.Context, v Viewer, filter ConversationFilter, page core.PageRequest) (core.Page[Conversation], error) {
	if !v.Staff {
		return core.Page[Conversation]{}, core.ErrForbidden
	}
	filter.Clean()
	page.Clean()
	convs, count, err := svc.repo.QueryConversations(ctx, filter, page)
	if err != nil {
		return core.Page[Conversation]{}, errors.Wrap(err, "querying conversations")
	}
	return core.NewPage(convs, count, page), nil
}

// Conversation returns a conversation the viewer can access.
func (svc *Service) Conversation(ctx context.Context, v Viewer, id int) (Conversation, error) {
	conv, err := svc.repo.GetConversation(ctx, id)
	if err != nil {
		return Conversation{}, errors.Wrapf(err, "getting conversation %d", id)
	}
	if !v.Staff && conv.UserID != v.UserID {
		return Conversation{}, ErrNotFound
	}
	return svc.withUnread(ctx, conv, v)
}

func (svc *Service) Messages(ctx context.Context, v Viewer, convID int, page core.PageRequest) (core.Page[Message], error) {
	if _, err := svc.Conversation(ctx, v, convID); err != nil {
		return core.Page[Message]{}, err
	}
	page.Clean()
	msgs, count, err := svc.repo.QueryMessages(ctx, convID, page)
	if err != nil {
		return core.Page[Message]{}, errors.Wrap(err, "querying messages")
	}
	return core.NewPage(msgs, count, page), nil
}

func (svc *Service) Send(ctx context.Context, v Viewer, convID int, nm NewMessage) (Message, error) {
	nm.Clean()
	if err := svc.validate.Struct(nm); err != nil {
		return Message{}, core.TranslateValidationErrors(err, svc.translator)
	}
	if _, err := svc.Conversation(ctx, v, convID); err != nil {
		return Message{}, err
	}

	msg, err := svc.repo.CreateMessage(ctx, Message{
		ConversationID: convID,
		SenderID:       v.UserID,
		SenderName:     v.Name,
		SenderRole:     senderRole(v),
		Content:        nm.Content,
		MessageType:    nm.MessageType,
		CreatedAt:      nowFunc().UTC(),
	})
	if err != nil {
		return Message{}, errors.Wrap(err, "creating message")
	}
	return msg, nil
}

// MarkConversationRead marks read every message the other side sent in the conversation.
func (svc *Service) MarkConversationRead(ctx context.Context, v Viewer, convID int) (int, error) {
	if _, err := svc.Conversation(ctx, v, convID); err != nil {
		return 0, err
	}
	n, err := svc.repo.MarkRead(ctx, convID, v.Staff)
	if err != nil {
		return 0, errors.Wrap(err, "marking conversation read")
	}
	return n, nil
}

// MarkMessagesRead marks the given messages read; messages the viewer cannot see or sent are skipped.
func (svc *Service) MarkMessagesRead(ctx context.Context, v Viewer, ids []int) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	ownerID := v.UserID
	if v.Staff {
		ownerID = 0
	}
	n, err := svc.repo.MarkMessagesRead(ctx, ids, v.UserID, ownerID)
	if err != nil {
		return 0, errors.Wrap(err, "marking messages read")
	}
	return n, nil
}

// UnreadCount counts the messages waiting for the viewer: in their own conversation,
// or in every conversation for staff.
func (svc *Service) UnreadCount(ctx context.Context, v Viewer) (int, error) {
	if v.Staff {
		n, err := svc.repo.CountUnread(ctx, 0, true)
		return n, errors.Wrap(err, "counting unread messages")
	}
	conv, err := svc.repo.GetConversationByUser(ctx, v.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "getting user conversation")
	}
	n, err := svc.repo.CountUnread(ctx, conv.ID, false)
	return n, errors.Wrap(err, "counting unread messages")
}

func (svc *Service) ConversationUnreadCount(ctx context.Context, v Viewer, convID int) (int, error) {
	conv, err := svc.Conversation(ctx, v, convID)
	if err != nil {
		return 0, err
	}
	return conv.UnreadCount, nil
}

func (svc *Service) withUnread(ctx context.Context, conv Conversation, v Viewer) (Conversation, error) {
	n, err := svc.repo.CountUnread(ctx, conv.ID, v.Staff)
	if err != nil {
		return Conversation{}, errors.Wrap(err, "counting unread messages")
	}
	conv.UnreadCount = n
	return conv, nil
}

func senderRole(v Viewer) string {
	switch {
	case v.Staff:
		return SenderAdmin
	case v.Role == SenderInstructor:
		return SenderInstructor
	default:
		return SenderStudent
	}
}
