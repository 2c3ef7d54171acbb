package logsvc

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/gakuseki/gakuseki/core"
	"github.com/gakuseki/gakuseki/core/user"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelFatal
)

var levelNames = map[level]string{
	levelDebug: "DEBUG",
	levelInfo:  "INFO",
	levelWarn:  "WARN",
	levelError: "ERROR",
	levelFatal: "FATAL",
}

// RollbarLogger writes every entry to std and reports it to rollbar.
// Debug entries are dropped unless the app runs in debug mode.
type RollbarLogger struct {
	std   *log.Logger
	debug bool
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{std: std, debug: conf.Debug}
}

func (l *RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// split separates the user.User (the first one only) from the other args.
// expected fmt: error, map[string]interface{}, user.User
func split(args []interface{}) (*user.User, []interface{}) {
	var usr *user.User
	rest := make([]interface{}, 0, len(args))
	for _, arg := range args {
		if u, ok := arg.(user.User); ok {
			if usr == nil {
				usr = &u
			}
			continue
		}
		rest = append(rest, arg)
	}
	return usr, rest
}

// format renders an entry on one line: LEVEL msg [user=...] err=... key=value
func format(lvl level, msg string, usr *user.User, args []interface{}) string {
	var b strings.Builder
	b.WriteString(levelNames[lvl])
	b.WriteByte(' ')
	b.WriteString(msg)
	if usr != nil {
		fmt.Fprintf(&b, " user=%s", usr.Username)
		if usr.Username == "" {
			fmt.Fprintf(&b, "%s", usr.Email)
		}
	}
	for _, arg := range args {
		switch a := arg.(type) {
		case error:
			fmt.Fprintf(&b, " err=%q", a.Error())
		case map[string]interface{}:
			keys := make([]string, 0, len(a))
			for k := range a {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, " %s=%v", k, a[k])
			}
		default:
			fmt.Fprintf(&b, " %+v", a)
		}
	}
	return b.String()
}

func (l *RollbarLogger) log(lvl level, msg string, args []interface{}) {
	if lvl == levelDebug && !l.debug {
		return
	}
	usr, rest := split(args)
	l.std.Println(format(lvl, msg, usr, rest))

	if usr != nil {
		rollbar.SetPerson(usr.ID, usr.Username, usr.Email)
	} else {
		rollbar.ClearPerson()
	}
	report := append([]interface{}{msg}, rest...)
	switch lvl {
	case levelDebug:
		rollbar.Debug(report...)
	case levelInfo:
		rollbar.Info(report...)
	case levelWarn:
		rollbar.Warning(report...)
	case levelError:
		rollbar.Error(report...)
	case levelFatal:
		rollbar.Critical(report...)
		rollbar.Wait()
	}
}

func (l *RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l *RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l *RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l *RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l *RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelFatal, msg, args)
	l.std.Fatal(msg)
}
