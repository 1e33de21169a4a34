// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logger configures logrus for the CLI and carries a per-fetch
// identifier through contexts so catalog requests can be correlated with
// the controller that issued them.
package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

type ctxKey string

// FetchIDKey is the context key holding the fetch identifier.
const FetchIDKey ctxKey = "fetchId"

// SlowThreshold is the duration above which Track logs at warn level.
var SlowThreshold = 2 * time.Second

func init() {
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	logrus.SetLevel(logrus.WarnLevel)
}

// SetLevel parses a level name and applies it to the standard logger.
func SetLevel(name string) error {
	if name == "" {
		return nil
	}
	lvl, err := logrus.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", name, err)
	}
	logrus.SetLevel(lvl)
	return nil
}

// SetOutput redirects the standard logger.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// For returns a log entry carrying the fetch id stored in ctx, if any.
func For(ctx context.Context) *logrus.Entry {
	id, ok := ctx.Value(FetchIDKey).(string)
	if !ok {
		return logrus.NewEntry(logrus.StandardLogger())
	}
	return logrus.WithField("fetch_id", id)
}

// ContextWithID returns a child context tagged with id.
func ContextWithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, FetchIDKey, id)
}

// Track logs msg with its elapsed duration when the returned func runs.
func Track(ctx context.Context, msg string) func() {
	start := time.Now()
	return func() {
		dur := time.Since(start)
		entry := For(ctx).WithField("duration", dur.String())
		if dur > SlowThreshold {
			entry.Warnf("%s completed (slow)", msg)
		} else {
			entry.Debugf("%s completed", msg)
		}
	}
}
