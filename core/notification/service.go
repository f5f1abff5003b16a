package notification

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

// RecentLimit is the maximum number of notifications in a Feed.
const RecentLimit = 20

var (
	// errors
	ErrNotFound = fmt.Errorf("notification %w", core.ErrNotFound)

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		CreateNotification(ctx context.Context, n Notification) (Notification, error)
		// QueryUnread returns the newest unread notifications of the user, sender names filled in.
		QueryUnread(ctx context.Context, userID int, limit int) ([]Notification, error)
		CountUnread(ctx context.Context, userID int) (int, error)
		// MarkRead returns ErrNotFound when the notification does not belong to the user.
		MarkRead(ctx context.Context, userID, id int) error
		MarkAllRead(ctx context.Context, userID int) (int, error)
	}

	// Service is the server side of the notifications feed.
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

func (svc *Service) Create(ctx context.Context, nn NewNotification) (Notification, error) {
	nn.Clean()
	if err := svc.validate.Struct(nn); err != nil {
		return Notification{}, core.TranslateValidationErrors(err, svc.translator)
	}
	n := Notification{
		UserID:     nn.UserID,
		SenderID:   nn.SenderID,
		SenderName: nn.SenderName,
		Title:      nn.Title,
		Message:    nn.Message,
		Type:       nn.Type,
		CreatedAt:  nowFunc().UTC(),
	}
	n, err := svc.repo.CreateNotification(ctx, n)
	if err != nil {
		return Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

// Recent returns the feed served to pollers.
func (svc *Service) Recent(ctx context.Context, userID int) (Feed, error) {
	ns, err := svc.repo.QueryUnread(ctx, userID, RecentLimit)
	if err != nil {
		return Feed{}, errors.Wrap(err, "querying unread notifications")
	}
	count, err := svc.repo.CountUnread(ctx, userID)
	if err != nil {
		return Feed{}, errors.Wrap(err, "counting unread notifications")
	}
	if ns == nil {
		ns = []Notification{}
	}
	return Feed{
		Notifications: ns,
		UnreadCount:   count,
		Timestamp:     nowFunc().UTC().Format(time.RFC3339Nano),
	}, nil
}

func (svc *Service) MarkRead(ctx context.Context, userID, id int) error {
	if err := svc.repo.MarkRead(ctx, userID, id); err != nil {
		return errors.Wrapf(err, "marking notification %d as read", id)
	}
	return nil
}

func (svc *Service) MarkAllRead(ctx context.Context, userID int) (int, error) {
	n, err := svc.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, errors.Wrap(err, "marking all notifications as read")
	}
	return n, nil
}
