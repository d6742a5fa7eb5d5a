// Package logsvc implements core.Logger.
package logsvc

import (
	"log"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/gothwad/classesx/core"
	"github.com/gothwad/classesx/core/user"
)

// RollbarLogger prints every entry to std and reports it to Rollbar when enabled.
type RollbarLogger struct {
	std *log.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// split pulls the user an entry is about out of args.
// expected fmt: msg | error, map[string]interface{}, user.User | *user.User
func split(msg string, args []interface{}) (*user.User, []interface{}) {
	var usr *user.User
	rest := make([]interface{}, 0, len(args)+1)
	rest = append(rest, msg)
	for _, arg := range args {
		switch u := arg.(type) {
		case user.User:
			if usr == nil {
				usr = &u
			}
		case *user.User:
			if usr == nil && u != nil {
				usr = u
			}
		default:
			rest = append(rest, arg)
		}
	}
	return usr, rest
}

// log prints the entry and reports it with report. Rollbar gets the user as the person
// and the remaining args as extras.
func (l RollbarLogger) log(level string, report func(...interface{}), msg string, args []interface{}) {
	usr, rest := split(msg, args)
	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Name, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	report(rest...)

	l.std.Printf("[%s] %s", level, msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log("DEBUG", rollbar.Debug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log("INFO", rollbar.Info, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log("WARN", rollbar.Warning, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log("ERROR", rollbar.Error, msg, args) }

// Fatal waits for pending reports before exiting.
func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log("FATAL", rollbar.Critical, msg, args)
	rollbar.Wait()
	l.std.Fatal(msg)
}
