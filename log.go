package main

import (
	"fmt"
	"log/syslog"
	"os"
	"os/user"
	"runtime/debug"
)

var (
	logWriter *syslog.Writer
	newSyslog = syslog.New
)

// getLogger lazily connects to syslog.  Daemons run as root and log to the
// daemon facility, everything else (including tests) logs as a user process.
// If syslog is unavailable the message falls back to stderr.
func getLogger() *syslog.Writer {
	if logWriter != nil {
		return logWriter
	}
	facility := syslog.LOG_USER
	if u, err := user.Current(); err == nil && u.Username == "root" {
		facility = syslog.LOG_DAEMON
	}
	logWriter, _ = newSyslog(facility|syslog.LOG_INFO, "pool-monitor")
	return logWriter
}

func emit(level func(*syslog.Writer, string) error, format string, a ...interface{}) error {
	msg := fmt.Sprintf(format, a...)
	if w := getLogger(); w != nil {
		return level(w, msg)
	}
	fmt.Fprintln(os.Stderr, msg)
	return nil
}

// Alert logs a message with severity LOG_ALERT
func Alert(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Alert, format, a...)
}

// Crit logs a message with severity LOG_CRIT
func Crit(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Crit, format, a...)
}

// Emerg logs a message with severity LOG_EMERG
func Emerg(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Emerg, format, a...)
}

// Error logs a message with severity LOG_ERR
func Error(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Err, format, a...)
}

// Notice logs a message with severity LOG_NOTICE
func Notice(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Notice, format, a...)
}

// Warn logs a message with severity LOG_WARNING
func Warn(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Warning, format, a...)
}

// Info logs a message with severity LOG_INFO
func Info(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Info, format, a...)
}

// Debug logs a message with severity LOG_DEBUG
func Debug(format string, a ...interface{}) error {
	return emit((*syslog.Writer).Debug, format, a...)
}

// Log is an alias for Info
func Log(format string, a ...interface{}) error {
	return Info(format, a...)
}

// Trace logs a message and a stack trace with severity LOG_DEBUG
func Trace(format string, a ...interface{}) error {
	return Debug(format+"\n%s", append(a, string(debug.Stack()))...)
}

// Fatal logs a message with severity LOG_CRIT and exits the process
func Fatal(format string, a ...interface{}) {
	Crit(format, a...)
	os.Exit(1)
}

// check logs err if it is not nil and passes it back to the caller
func check(err error, format string, a ...interface{}) error {
	if err != nil {
		Error(format+": %s", append(a, err.Error())...)
	}
	return err
}
