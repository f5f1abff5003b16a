package logsvc

import (
	"log"
	"strconv"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/3bdulrahman-M3/Front/core"
	"github.com/3bdulrahman-M3/Front/core/session"
	"github.com/3bdulrahman-M3/Front/core/user"
)

type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to rollbar when conf.RollbarToken is set, and always prints to std.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "")
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// expected fmt: msg | error, map[string]interface{}, user.User | session.User
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var usrSet bool
	setPerson := func(id int, name, email string) {
		if !usrSet { // only set one User
			rollbar.SetPerson(strconv.Itoa(id), name, email)
			usrSet = true
		}
	}

	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	for _, arg := range args {
		switch usr := arg.(type) {
		case user.User:
			setPerson(usr.ID, usr.Name, usr.Email)
		case session.User:
			setPerson(usr.ID, usr.Name, usr.Email)
		case *session.User:
			if usr != nil {
				setPerson(usr.ID, usr.Name, usr.Email)
			}
		default:
			newArgs = append(newArgs, arg)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs
}

// print writes the prepared args, the user values are only sent to rollbar as the person.
func (l RollbarLogger) print(level string, args []interface{}) {
	l.std.Printf("%s: %s", level, args[0])
	for _, arg := range args[1:] {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Debug(args...)
	l.print("DEBUG", args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Info(args...)
	l.print("INFO", args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Warning(args...)
	l.print("WARN", args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Error(args...)
	l.print("ERROR", args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	args = l.prepare(msg, args)
	rollbar.Critical(args...)
	l.print("FATAL", args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
