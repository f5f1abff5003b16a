package echoapi

import (
	"context"
	"strconv"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
	"github.com/3bdulrahman-M3/Front/core/user"
)

const (
	tokenContextKey = "userToken"
	contextUserKey  = "user"

	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

var nowFunc = time.Now // mockable

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64  `json:"oriat,omitempty"`
	TokenType    string `json:"token_type"`
	Name         string `json:"name,omitempty"`
	Email        string `json:"email,omitempty"`
	Role         string `json:"role,omitempty"`
}

func (c Claims) UserID() int {
	id, _ := strconv.Atoi(c.Subject)
	return id
}

func (c Claims) IsAdmin() bool { return c.Role == user.RoleAdmin }

// Viewer is the chat identity of the token holder.
func (c Claims) Viewer() chat.Viewer {
	return chat.Viewer{UserID: c.UserID(), Name: c.Name, Role: c.Role, Staff: c.IsAdmin()}
}

// authenticator signs and checks the tokens of the API.
type authenticator struct {
	appName      string
	secret       []byte
	expiration   time.Duration
	refreshDelta time.Duration
	jwtConfig    middleware.JWTConfig
}

func newAuthenticator(conf *core.Config) *authenticator {
	a := &authenticator{
		appName:      conf.AppName,
		secret:       []byte(conf.SecretKey),
		expiration:   conf.Server.JWTExpirationDelta,
		refreshDelta: conf.Server.JWTRefreshExpirationDelta,
	}
	a.jwtConfig = middleware.JWTConfig{
		SigningKey:    a.secret,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
	return a
}

// middleware only lets access tokens through.
func (a *authenticator) middleware() echo.MiddlewareFunc {
	jwtMW := middleware.JWTWithConfig(a.jwtConfig)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return jwtMW(func(ctx echo.Context) error {
			claims, err := getContextClaims(ctx)
			if err != nil {
				return err
			}
			if claims.TokenType != tokenTypeAccess {
				return errInvalidToken
			}
			return next(ctx)
		})
	}
}

// userClaims returns the claims of a token of type typ. origIat carries the first issue time over refreshes.
func (a *authenticator) userClaims(usr user.User, typ string, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	exp := now.Add(a.expiration)
	if typ == tokenTypeRefresh {
		exp = time.Unix(oriat, 0).Add(a.refreshDelta)
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    a.appName,
			Subject:   strconv.Itoa(usr.ID),
			ExpiresAt: exp.Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		TokenType:    typ,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
	}
}

// GenerateToken generates a signed JWT token string representing the user Claims.
func (a *authenticator) generateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(a.jwtConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(a.secret)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// tokenPair returns a fresh access token and a refresh token.
func (a *authenticator) tokenPair(usr user.User, origIat ...int64) (access, refresh string, err error) {
	if access, err = a.generateToken(a.userClaims(usr, tokenTypeAccess, origIat...)); err != nil {
		return "", "", err
	}
	refresh, err = a.generateToken(a.userClaims(usr, tokenTypeRefresh, origIat...))
	return access, refresh, err
}

// parseRefresh checks a refresh token.
func (a *authenticator) parseRefresh(tokenString string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != a.jwtConfig.SigningMethod {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid || claims.TokenType != tokenTypeRefresh {
		return nil, errInvalidToken
	}
	return claims, nil
}

// refresh issues new tokens from a refresh token, keeping its original issue time.
func (a *authenticator) refresh(ctx context.Context, tokenString string, svc *user.Service) (string, string, error) {
	claims, err := a.parseRefresh(tokenString)
	if err != nil {
		return "", "", err
	}

	usr, err := svc.GetByID(ctx, claims.UserID())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", "", errInvalidToken
		}
		return "", "", errors.Wrap(err, "finding user by ID")
	}
	// check if user is still active
	if !usr.IsActive {
		return "", "", errAccountDeactivated
	}
	return a.tokenPair(usr, claims.OrigIssuedAt)
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextUser(ctx echo.Context, svc *user.Service) (user.User, error) {
	if usr, ok := ctx.Get(contextUserKey).(user.User); ok {
		return usr, nil
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return user.User{}, errors.Wrap(err, "getting context claims")
	}
	usr, err := svc.GetByID(ctx.Request().Context(), claims.UserID())
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return user.User{}, errUnauthorized
		}
		return user.User{}, errors.Wrap(err, "finding user by ID")
	}
	ctx.Set(contextUserKey, usr)
	return usr, nil
}
