package user

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
)

var (
	// errors
	ErrNotFound           = fmt.Errorf("user %w", core.ErrNotFound)
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountDeactivated = errors.New("account deactivated")

	nowFunc = time.Now // mockable
)

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id int) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		QueryUsers(ctx context.Context) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo       Repository
		validate   *validator.Validate
		translator ut.Translator
		mailSvc    core.EmailService
		tokens     tokenGenerator
		conf       *core.Config
	}
)

func NewService(
	repo Repository,
	validate *validator.Validate,
	translator ut.Translator,
	mailSvc core.EmailService,
	conf *core.Config,
) *Service {
	return &Service{
		repo:       repo,
		validate:   validate,
		translator: translator,
		mailSvc:    mailSvc,
		tokens:     tokenGenerator{secret: []byte(conf.SecretKey), timeout: conf.PasswordResetTimeout},
		conf:       conf,
	}
}

func (svc *Service) Create(ctx context.Context, nu NewUser) (User, error) {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return User{}, core.TranslateValidationErrors(err, svc.translator)
	}

	now := nowFunc().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *Service) QueryAll(ctx context.Context) ([]User, error) {
	return svc.repo.QueryUsers(ctx)
}

func (svc *Service) GetByID(ctx context.Context, id int) (User, error) {
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

// Authenticate checks the credentials and records the login.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	usr.LastLogin = nowFunc().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting last login")
}

// SetPassword replaces the password of the user without any policy check. Used by the admin tools.
func (svc *Service) SetPassword(ctx context.Context, usr User, pwd string) (User, error) {
	if err := usr.SetPassword(pwd); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = nowFunc().UTC()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

// RequestPasswordReset mails a reset link to the user. Unknown emails return ErrNotFound.
func (svc *Service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	token, err := svc.tokens.makeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Name":  usr.Name,
			"Token": token,
			"Hours": int(svc.conf.PasswordResetTimeout.Hours()),
		},
	})
	return nil
}

// ResetPassword sets a new password after checking the reset token.
func (svc *Service) ResetPassword(ctx context.Context, rp ResetPassword) error {
	if err := svc.validate.Struct(rp); err != nil {
		return core.TranslateValidationErrors(err, svc.translator)
	}

	id, err := decodeUID(rp.Token)
	if err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	usr, err := svc.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.NewValidationError(errInvalidToken, core.FieldError{Field: "token", Error: errInvalidToken.Error()})
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokens.verifyToken(usr, rp.Token); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "token", Error: err.Error()})
	}
	if err = checkPasswordPolicy(rp.NewPassword, usr.Name, usr.Email); err != nil {
		return core.NewValidationError(err, core.FieldError{Field: "new_password", Error: err.Error()})
	}

	_, err = svc.SetPassword(ctx, usr, rp.NewPassword)
	return err
}
