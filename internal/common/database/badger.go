// internal/common/database/badger.go
package database

import (
	"fmt"
	"os"

	"opulanz-onboarding/internal/common/logger"

	"github.com/dgraph-io/badger/v4"
)

type BadgerOptions struct {
	Path     string
	InMemory bool
	Logger   logger.Logger
}

// badgerLogger routes badger's printf-style logging into the service logger.
type badgerLogger struct {
	log logger.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(format, args...), nil)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(fmt.Sprintf(format, args...), nil)
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), nil)
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, args...), nil)
}

// OpenBadger opens the embedded draft database. InMemory skips the disk entirely.
func OpenBadger(opts BadgerOptions) (*badger.DB, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Path == "" {
			return nil, fmt.Errorf("badger path is required for persistent mode")
		}
		if err := os.MkdirAll(opts.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger directory %s: %w", opts.Path, err)
		}
		bopts = badger.DefaultOptions(opts.Path).WithSyncWrites(true)
	}
	bopts = bopts.WithNumVersionsToKeep(1)

	if opts.Logger != nil {
		bopts = bopts.WithLogger(&badgerLogger{log: opts.Logger.WithFields(map[string]interface{}{"component": "badger"})})
	} else {
		bopts = bopts.WithLogger(nil)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return db, nil
}
