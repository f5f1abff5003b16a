package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/notification"
	"github.com/3bdulrahman-M3/Front/core/user"
	"github.com/3bdulrahman-M3/Front/storage/database/inmem"
	"github.com/3bdulrahman-M3/Front/tests"
)

type fixture struct {
	cli       *commandLine
	usrRepo   user.Repository
	notifRepo notification.Repository
	out       *bytes.Buffer
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	notifRepo := inmemdb.NewNotificationRepository(db)
	validate, translator := testutil.NewValidator()
	out := new(bytes.Buffer)

	return fixture{
		cli: &commandLine{
			db:       new(sql.DB), // never used: gooseRunFunc is mocked
			usrRepo:  usrRepo,
			notifSvc: notification.NewService(notifRepo, validate, translator, core.NopLogger{}),
			out:      out,
		},
		usrRepo:   usrRepo,
		notifRepo: notifRepo,
		out:       out,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

func Test_commandLine_usage(t *testing.T) {
	f := setup(t)
	for _, args := range [][]string{{"admin"}, {"admin", "lol"}} {
		assert.Equal(t, errHelp, f.cli.run(args))
	}
	assert.Contains(t, f.out.String(), "resetpassword -email EMAIL")
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	orig := gooseRunFunc
	defer func() { gooseRunFunc = orig }()
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}

	f.cli.db = nil
	assert.Equal(t, errNoDB, f.cli.run([]string{"admin", "migrate", "up"}))
}

func Test_commandLine_addUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	existing := testutil.CreateUser(t, f.usrRepo, "Old Name", "old@example.com", "old-pwd", user.RoleStudent, false)

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "email but no name", args: []string{"adduser", "-email", "x@example.com"}, wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-name", "X", "-email", "x@example.com"}, wantErr: errHelp},
		{name: "bad role", args: []string{"adduser", "-name", "X", "-email", "x@example.com", "-role", "king"}, extra: "pwd", wantErrStr: `unknown role "king"`},
		{name: "new admin", args: []string{"adduser", "-name", "Ada", "-email", " ADA@example.com"}, extra: "pwd"},
		{name: "update existing", args: []string{"adduser", "-name", "New Name", "-email", "old@example.com", "-role", "instructor"}, extra: "new-pwd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, _ := tt.extra.(string)
			mockPassword(t, pwd)

			err := f.cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				assert.NoError(t, err)
			}
		})
	}

	ada, err := f.usrRepo.GetUserByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, ada.Role)
	assert.True(t, ada.IsActive)
	assert.NoError(t, ada.CheckPassword("pwd"))

	updated, err := f.usrRepo.GetUserByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, user.RoleInstructor, updated.Role)
	assert.True(t, updated.IsActive)
	assert.NoError(t, updated.CheckPassword("new-pwd"))
}

func Test_commandLine_resetPassword(t *testing.T) {
	f := setup(t)
	usr := testutil.CreateUser(t, f.usrRepo, "User", "awe@test.cd", "mdr", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "lol"}, extra: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "AWE@test.cd"}, extra: "lmao"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pwd, _ := tt.extra.(string)
			mockPassword(t, pwd)

			err := f.cli.run(append([]string{"admin"}, tt.args...))
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			refreshed, err := f.usrRepo.GetUserByID(context.Background(), usr.ID)
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash))
			assert.NoError(t, refreshed.CheckPassword("lmao"))
		})
	}
}

func Test_commandLine_notify(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, f.usrRepo, "Sam", "sam@example.com", "", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no recipient", args: []string{"notify", "-title", "Hi"}, wantErr: errHelp},
		{name: "unknown recipient", args: []string{"notify", "-user", "99", "-title", "Hi", "-message", "Hello"}, wantErr: user.ErrNotFound},
		{name: "missing title", args: []string{"notify", "-user", "sam@example.com", "-message", "Hello"}, wantErrStr: "title"},
		{name: "by id", args: []string{"notify", "-user", strconv.Itoa(usr.ID), "-title", "Hi", "-message", "Hello", "-type", "course"}},
		{name: "by email", args: []string{"notify", "-user", "SAM@example.com", "-title", "Again", "-message", "Hello"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := f.cli.run(append([]string{"admin"}, tt.args...))
			switch {
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrStr)
			default:
				assert.NoError(t, err)
			}
		})
	}

	ns, err := f.notifRepo.QueryUnread(ctx, usr.ID, 10)
	require.NoError(t, err)
	require.Len(t, ns, 2)
	assert.Equal(t, "Again", ns[0].Title)
	assert.Equal(t, notification.TypeInfo, ns[0].Type)
	assert.Equal(t, notification.TypeCourse, ns[1].Type)
	assert.Equal(t, "Platform", ns[1].SenderName)
}
