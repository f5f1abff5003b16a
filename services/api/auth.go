package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
)

type (
	Registration struct {
		Name            string `json:"name"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"password_confirm"`
		Role            string `json:"role,omitempty"`
	}

	LoginResponse struct {
		Access  string       `json:"access"`
		Refresh string       `json:"refresh"`
		User    session.User `json:"user"`
	}

	// InstructorRequest is sent as multipart when it carries documents.
	InstructorRequest struct {
		FullName       string
		Degree         string
		Certifications string
		Motivation     string
		Files          []string // paths
	}
)

func (c *Client) Register(ctx context.Context, r Registration) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, "auth/register/", nil, r)
}

// Login authenticates and stores the session.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	err := c.post(ctx, "auth/login/", map[string]string{"email": email, "password": password}, &out)
	if err != nil {
		return LoginResponse{}, err
	}
	return out, c.saveLogin(out)
}

func (c *Client) saveLogin(res LoginResponse) error {
	if res.Access == "" {
		return errors.New("login response has no access token")
	}
	return errors.Wrap(session.SaveLogin(c.store, res.Access, res.Refresh, &res.User), "saving session")
}

// Logout revokes the refresh token. Stored credentials are cleared even when the call fails.
func (c *Client) Logout(ctx context.Context) error {
	refresh, _ := c.store.Get(session.KeyRefreshToken)
	err := c.post(ctx, "auth/logout/", map[string]string{"refresh_token": refresh}, nil)
	if clearErr := session.Clear(c.store); clearErr != nil && err == nil {
		err = errors.Wrap(clearErr, "clearing session")
	}
	return err
}

// Profile fetches the signed in user and refreshes the cached copy.
func (c *Client) Profile(ctx context.Context) (session.User, error) {
	var usr session.User
	if err := c.get(ctx, "auth/profile/", nil, &usr); err != nil {
		return session.User{}, err
	}
	token := session.AccessToken(c.store)
	if token != "" {
		if err := session.SaveLogin(c.store, token, "", &usr); err != nil {
			return usr, errors.Wrap(err, "caching profile")
		}
	}
	return usr, nil
}

// UpdateProfile sends the profile form, which may carry an image.
func (c *Client) UpdateProfile(ctx context.Context, form *Form) (Object, error) {
	return call[Object](ctx, c, http.MethodPut, "auth/profile/update/", nil, form)
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "auth/password-reset/request/", map[string]string{"email": email}, nil)
}

func (c *Client) ConfirmPasswordReset(ctx context.Context, token, newPassword, confirmPassword string) error {
	return c.post(ctx, "auth/password-reset/confirm/", map[string]string{
		"token":            token,
		"new_password":     newPassword,
		"confirm_password": confirmPassword,
	}, nil)
}

func (c *Client) GoogleAuthURL(ctx context.Context, redirectURI string) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, "oauth2/google/auth-url/", Params{"redirect_uri": redirectURI}, nil)
}

// GoogleCallback exchanges the OAuth code and stores the session.
func (c *Client) GoogleCallback(ctx context.Context, code, redirectURI, role string) (LoginResponse, error) {
	payload := map[string]string{"code": code, "redirect_uri": redirectURI}
	if role != "" {
		payload["role"] = role
	}
	var out LoginResponse
	if err := c.post(ctx, "oauth2/google/callback/", payload, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, c.saveLogin(out)
}

// identity verification

func (c *Client) RequestIdentityVerification(ctx context.Context, docPath, notes string) (Object, error) {
	form := NewForm().AddPath("file", docPath).Set("notes", notes)
	return call[Object](ctx, c, http.MethodPost, "auth/verification/request/", nil, form)
}

func (c *Client) MyIdentityVerification(ctx context.Context) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, "auth/verification/request/me/", nil, nil)
}

func (c *Client) IdentityVerifications(ctx context.Context) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "auth/verification/requests/", nil, nil)
}

func (c *Client) ApproveIdentityVerification(ctx context.Context, id int) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("auth/verification/requests/%d/approve/", id), nil, nil)
}

func (c *Client) RejectIdentityVerification(ctx context.Context, id int, reason string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("auth/verification/requests/%d/reject/", id), nil, map[string]string{"reason": reason})
}

// instructor requests

func (c *Client) RequestInstructor(ctx context.Context, r InstructorRequest) (Object, error) {
	if len(r.Files) == 0 && r.FullName == "" && r.Degree == "" && r.Certifications == "" {
		return call[Object](ctx, c, http.MethodPost, "auth/instructor/request/", nil, map[string]string{"motivation": r.Motivation})
	}

	form := NewForm().
		Set("full_name", r.FullName).
		Set("name", r.FullName). // alias read by older backends
		Set("degree", r.Degree).
		Set("certifications", r.Certifications).
		Set("motivation", r.Motivation)
	for _, path := range r.Files {
		form.AddPath("files", path)
	}
	return call[Object](ctx, c, http.MethodPost, "auth/instructor/request/", nil, form)
}

func (c *Client) MyInstructorRequest(ctx context.Context) (Object, error) {
	return call[Object](ctx, c, http.MethodGet, "auth/instructor/request/me/", nil, nil)
}

func (c *Client) UploadInstructorPhoto(ctx context.Context, path string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, "auth/instructor/upload_photo/", nil, NewForm().AddPath("file", path))
}

func (c *Client) InstructorRequests(ctx context.Context) (core.Page[Object], error) {
	return call[core.Page[Object]](ctx, c, http.MethodGet, "auth/instructor/requests/", nil, nil)
}

func (c *Client) ApproveInstructor(ctx context.Context, id int) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("auth/instructor/requests/%d/approve/", id), nil, nil)
}

func (c *Client) RejectInstructor(ctx context.Context, id int, reason string) (Object, error) {
	return call[Object](ctx, c, http.MethodPost, fmt.Sprintf("auth/instructor/requests/%d/reject/", id), nil, map[string]string{"reason": reason})
}
