package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/user"
)

// NewValidator returns a validator with every app validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

func NewConfig() *core.Config {
	return &core.Config{
		Env:                  "TEST",
		AppName:              "Educational Platform",
		SecretKey:            "test-secret",
		FrontendBaseURL:      "http://localhost:5173",
		PasswordResetTimeout: 3 * 24 * time.Hour,
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 7 * 24 * time.Hour,
		},
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// MailServiceMock records the messages it is asked to send.
type MailServiceMock struct {
	mu       sync.Mutex
	Messages []*core.EmailMessage
}

var _ core.EmailService = (*MailServiceMock)(nil)

func (svc *MailServiceMock) SendMessages(msgs ...*core.EmailMessage) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.Messages = append(svc.Messages, msgs...)
}

func (svc *MailServiceMock) Sent() []*core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	return append([]*core.EmailMessage{}, svc.Messages...)
}
