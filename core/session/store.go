// Package session holds the client-side credentials of the signed in user.
package session

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Well known keys.
const (
	KeyAccessToken           = "accessToken"
	KeyRefreshToken          = "refreshToken"
	KeyUser                  = "user"
	KeySessionExpiredMessage = "session_expired_message"
	KeyAPIEnvironment        = "api_environment"
)

// SessionExpiredMessage is stored for the login screen when a session expires.
const SessionExpiredMessage = "Your session has expired. Please log in again."

// Store is a persistent string key/value store.
// Get returns an error matching core.ErrNotFound for missing keys; Delete of a missing key is not an error.
type Store interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Delete(keys ...string) error
}

// User is the cached profile of the signed in user.
type User struct {
	ID    int      `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email"`
	Role  string   `json:"role,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// AccessToken returns the stored access token, or "" when signed out.
func AccessToken(s Store) string {
	token, err := s.Get(KeyAccessToken)
	if err != nil {
		return ""
	}
	return token
}

// HasToken reports whether an access token is stored.
func HasToken(s Store) bool { return AccessToken(s) != "" }

// SaveLogin stores the tokens and the user returned by a login.
func SaveLogin(s Store, access, refresh string, usr *User) error {
	if err := s.Set(KeyAccessToken, access); err != nil {
		return errors.Wrap(err, "storing access token")
	}
	if refresh != "" {
		if err := s.Set(KeyRefreshToken, refresh); err != nil {
			return errors.Wrap(err, "storing refresh token")
		}
	}
	if usr != nil {
		data, err := json.Marshal(usr)
		if err != nil {
			return errors.Wrap(err, "marshalling user")
		}
		if err = s.Set(KeyUser, string(data)); err != nil {
			return errors.Wrap(err, "storing user")
		}
	}
	return s.Delete(KeySessionExpiredMessage)
}

// Clear removes every stored credential.
func Clear(s Store) error {
	return s.Delete(KeyAccessToken, KeyRefreshToken, KeyUser)
}

// CurrentUser returns the cached user.
func CurrentUser(s Store) (User, error) {
	data, err := s.Get(KeyUser)
	if err != nil {
		return User{}, err
	}
	var usr User
	if err = json.Unmarshal([]byte(data), &usr); err != nil {
		return User{}, errors.Wrap(err, "unmarshalling user")
	}
	return usr, nil
}

// IsAdmin reports whether the cached user has an admin role.
func (u User) IsAdmin() bool {
	if u.Role == "admin" {
		return true
	}
	for _, r := range u.Roles {
		if len(r) >= 6 && r[:6] == "admin:" {
			return true
		}
	}
	return false
}

// TakeExpiredMessage returns and removes the pending session expired message, if any.
func TakeExpiredMessage(s Store) string {
	msg, err := s.Get(KeySessionExpiredMessage)
	if err != nil {
		return ""
	}
	_ = s.Delete(KeySessionExpiredMessage)
	return msg
}
