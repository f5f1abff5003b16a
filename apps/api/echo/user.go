package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/user"
)

type userApi struct {
	svc    *user.Service
	auth   *authenticator
	logger core.Logger
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *authenticator, svc *user.Service, logger core.Logger) {
	api := userApi{svc: svc, auth: auth, logger: logger}

	ag := g.Group("/auth")

	// un-authed endpoints
	// TODO: rate limit `/login` & `/password-reset/request`
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/logout", api.logout)
	ag.POST("/token/refresh", api.refreshToken)
	ag.POST("/password-reset/request", api.resetPassword)
	ag.POST("/password-reset/confirm", api.confirmPasswordReset)

	// authed endpoints
	ag.GET("/profile", api.profile, jwt)
	ag.GET("/users", api.query, jwt, adminMiddleware)
}

type (
	LoginRequest struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	LoginResponse struct {
		Access  string    `json:"access"`
		Refresh string    `json:"refresh"`
		User    user.User `json:"user"`
	}

	RefreshRequest struct {
		Refresh string `json:"refresh"`
	}

	PasswordResetRequest struct {
		Email string `json:"email"`
	}
)

// Handlers

func (api *userApi) register(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	// admins are created with the admin tools
	if core.CleanString(data.Role, true /* lower */) == user.RoleAdmin {
		return core.NewValidationError(nil, core.FieldError{Field: "role", Error: "cannot register as admin"})
	}

	usr, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, usr)
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if data.Email == "" || data.Password == "" {
		return errAuthenticationFailed
	}

	usr, err := api.svc.Authenticate(ctx.Request().Context(), data.Email, data.Password)
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		return errAuthenticationFailed
	case errors.Is(err, user.ErrAccountDeactivated):
		return errAccountDeactivated
	case err != nil:
		return errors.Wrap(err, "authenticating")
	}

	access, refresh, err := api.auth.tokenPair(usr)
	if err != nil {
		return errors.Wrap(err, "generating tokens")
	}
	return ctx.JSON(http.StatusOK, LoginResponse{Access: access, Refresh: refresh, User: usr})
}

// logout always succeeds: tokens are stateless and the client drops its copies.
func (api *userApi) logout(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Successfully logged out."})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	var data RefreshRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshRequest")
	}
	access, refresh, err := api.auth.refresh(ctx.Request().Context(), data.Refresh, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"access": access, "refresh": refresh})
}

func (api *userApi) resetPassword(ctx echo.Context) error {
	var data PasswordResetRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to PasswordResetRequest")
	}

	if err := api.svc.RequestPasswordReset(ctx.Request().Context(), data.Email); err != nil && !errors.Is(err, core.ErrNotFound) {
		// do not return errors to attackers
		api.logger.Error("requesting password reset", err)
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: "If the email address supplied is associated with an active account on this system, " +
			"an email will arrive in your inbox shortly with instructions to reset your password.",
	})
}

func (api *userApi) confirmPasswordReset(ctx echo.Context) error {
	var data user.ResetPassword
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ResetPassword")
	}
	if err := api.svc.ResetPassword(ctx.Request().Context(), data); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Password has been reset with the new password."})
}

func (api *userApi) profile(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) query(ctx echo.Context) error {
	users, err := api.svc.QueryAll(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}
