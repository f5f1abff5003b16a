package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/chat"
	"github.com/3bdulrahman-M3/Front/core/session"
	"github.com/3bdulrahman-M3/Front/storage/keystore"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *keystore.Memory, *[]string) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := keystore.NewMemory()
	var expired []string
	guard := session.NewExpiryGuard(store, core.NopLogger{}, func(msg string) { expired = append(expired, msg) })
	return New(srv.URL+"/api//", store, guard, 0), store, &expired
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestNormalizeBaseURL(t *testing.T) {
	assert.Equal(t, "http://x/api/", NormalizeBaseURL("http://x/api"))
	assert.Equal(t, "http://x/api/", NormalizeBaseURL(" http://x/api/// "))
}

func TestParams_encode(t *testing.T) {
	var nilPtr *int
	p := Params{
		"search":   "go lang",
		"category": []int{2, 1},
		"empty":    "",
		"nil":      nil,
		"ptr":      nilPtr,
		"page":     3,
	}
	assert.Equal(t, "category=2&category=1&page=3&search=go+lang", p.encode())
	assert.Equal(t, "", Params(nil).encode())
}

func TestClient_BearerHeader(t *testing.T) {
	var auth string
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/health/", r.URL.Path)
		auth = r.Header.Get("Authorization")
		writeJSON(w, http.StatusOK, Health{Status: "ok"})
	})

	h, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", h.Status)
	assert.Empty(t, auth)

	require.NoError(t, store.Set(session.KeyAccessToken, "tok"))
	_, err = c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok", auth)
}

func TestClient_Unauthorized(t *testing.T) {
	c, store, expired := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "token expired"})
	})
	ctx := context.Background()

	t.Run("without token", func(t *testing.T) {
		_, err := c.Profile(ctx)
		assert.True(t, errors.Is(err, core.ErrUnauthorized))
		assert.Empty(t, *expired)
	})

	t.Run("with token", func(t *testing.T) {
		require.NoError(t, session.SaveLogin(store, "tok", "ref", &session.User{ID: 1}))

		_, err := c.Profile(ctx)
		require.Error(t, err)
		assert.True(t, errors.Is(err, core.ErrUnauthorized))
		assert.Contains(t, err.Error(), "token expired")

		assert.False(t, session.HasToken(store))
		_, err = store.Get(session.KeyRefreshToken)
		assert.True(t, errors.Is(err, core.ErrNotFound))
		assert.Equal(t, []string{session.SessionExpiredMessage}, *expired)
	})
}

func TestParseAPIError(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		wantMsg  string
		wantFlds []core.FieldError
	}{
		{"error key", 404, `{"error":"not found"}`, "not found", nil},
		{"detail key", 403, `{"detail":"forbidden"}`, "forbidden", nil},
		{
			"field errors", 400, `{"email":["already taken","x"],"name":"required"}`, "",
			[]core.FieldError{{Field: "email", Error: "already taken"}, {Field: "name", Error: "required"}},
		},
		{"not json", 502, "<html>bad gateway</html>", "<html>bad gateway</html>", nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := parseAPIError(tc.status, []byte(tc.body))
			assert.Equal(t, tc.status, err.StatusCode)
			assert.Equal(t, tc.wantMsg, err.Message)
			assert.Equal(t, tc.wantFlds, err.Fields)
		})
	}

	apiErr := parseAPIError(400, []byte(`{"content":"required"}`))
	vErr, ok := apiErr.ValidationError()
	require.True(t, ok)
	assert.Equal(t, "content", vErr.Fields[0].Field)

	_, ok = parseAPIError(404, []byte(`{"error":"x"}`)).ValidationError()
	assert.False(t, ok)
	assert.True(t, errors.Is(parseAPIError(404, nil), core.ErrNotFound))
	assert.True(t, errors.Is(parseAPIError(403, nil), core.ErrForbidden))
	assert.False(t, errors.Is(parseAPIError(500, nil), core.ErrNotFound))
}

func TestClient_LoginLogout(t *testing.T) {
	var logoutBody map[string]string
	c, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login/":
			var creds map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
			if creds["password"] != "secret" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
				return
			}
			writeJSON(w, http.StatusOK, LoginResponse{
				Access:  "acc",
				Refresh: "ref",
				User:    session.User{ID: 7, Name: "Jane", Email: creds["email"], Role: "student"},
			})
		case "/api/auth/logout/":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&logoutBody))
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	_, err := c.Login(ctx, "jane@test.com", "wrong")
	assert.True(t, errors.Is(err, core.ErrUnauthorized))
	assert.False(t, session.HasToken(store))

	res, err := c.Login(ctx, "jane@test.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc", res.Access)
	assert.Equal(t, "acc", session.AccessToken(store))
	usr, err := session.CurrentUser(store)
	require.NoError(t, err)
	assert.Equal(t, 7, usr.ID)

	err = c.Logout(ctx)
	assert.Error(t, err)
	assert.Equal(t, "ref", logoutBody["refresh_token"])
	assert.False(t, session.HasToken(store))
}

func TestClient_Chat(t *testing.T) {
	var gotQuery string
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/chat/conversations/":
			gotQuery = r.URL.RawQuery
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"count": 1, "pages": 1,
				"results": []chat.Conversation{{ID: 4, UserName: "Jane", UnreadCount: 2}},
			})
		case r.URL.Path == "/api/chat/conversations/4/messages/" && r.Method == http.MethodPost:
			var nm chat.NewMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&nm))
			writeJSON(w, http.StatusCreated, chat.Message{ID: 9, ConversationID: 4, Content: nm.Content, MessageType: nm.MessageType})
		case r.URL.Path == "/api/chat/conversations/4/messages/":
			// bare arrays are accepted as a single page
			writeJSON(w, http.StatusOK, []chat.Message{{ID: 1}, {ID: 2}})
		case r.URL.Path == "/api/chat/unread-count/":
			writeJSON(w, http.StatusOK, chat.UnreadCount{UnreadCount: 5})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	convs, err := c.Conversations(ctx, chat.ConversationFilter{Search: "jane", UnreadOnly: true})
	require.NoError(t, err)
	assert.Equal(t, "search=jane&unread_only=true", gotQuery)
	require.Len(t, convs.Results, 1)
	assert.Equal(t, 2, convs.Results[0].UnreadCount)

	msgs, err := c.Messages(ctx, 4)
	require.NoError(t, err)
	assert.Len(t, msgs.Results, 2)

	msg, err := c.SendMessage(ctx, 4, chat.NewMessage{Content: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hello", msg.Content)
	assert.Equal(t, chat.MessageTypeText, msg.MessageType)

	n, err := c.UnreadCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	_, err = c.MyConversation(ctx)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestClient_MultipartUpload(t *testing.T) {
	c, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Go basics", r.FormValue("title"))
		_, hasEmpty := r.MultipartForm.Value["description"]
		assert.False(t, hasEmpty)

		f, hdr, err := r.FormFile("image")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "cover.png", hdr.Filename)
		assert.Equal(t, "PNG", string(data))

		writeJSON(w, http.StatusCreated, Course{ID: 3, Title: r.FormValue("title")})
	})

	form := NewForm().
		Set("title", "Go basics").
		Set("description", "").
		AddFile("image", "cover.png", strings.NewReader("PNG"))
	course, err := c.CreateCourse(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, 3, course.ID)
}

func TestResolveEnv(t *testing.T) {
	store := keystore.NewMemory()

	info := ResolveEnv(&core.Config{}, store)
	assert.Equal(t, EnvProduction, info.Current)
	assert.False(t, info.Manual)

	info = ResolveEnv(&core.Config{Debug: true}, store)
	assert.Equal(t, EnvLocal, info.Current)
	assert.Equal(t, Environments[EnvLocal], info.URL)

	require.NoError(t, SetEnvironment(store, "railway"))
	info = ResolveEnv(&core.Config{Debug: true}, store)
	assert.Equal(t, EnvRailway, info.Current)
	assert.True(t, info.Manual)

	conf := &core.Config{}
	conf.Client.APIBaseURL = "http://api.test/api"
	info = ResolveEnv(conf, store)
	assert.Equal(t, EnvCustom, info.Current)
	assert.Equal(t, "http://api.test/api/", info.URL)

	err := SetEnvironment(store, "mars")
	assert.True(t, errors.Is(err, ErrUnknownEnvironment))

	require.NoError(t, SetEnvironment(store, "auto"))
	assert.Equal(t, EnvProduction, ResolveEnv(&core.Config{}, store).Current)
}
