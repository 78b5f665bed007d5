// Package logging wraps the teacher's own logging dependency,
// github.com/datatrails/go-datatrails-common/logger, the same way every
// massifs.* constructor in the retrieval pack takes a logger.Logger and the
// package-level logger.Sugar for hot-path debug lines.
package logging

import (
	"github.com/datatrails/go-datatrails-common/logger"
)

// New initializes the process-wide logger under the given component tag.
// Call once, early, the same way the teacher's tests call logger.New("TEST").
func New(component string) {
	logger.New(component)
}

// OnExit flushes and releases logging resources; deferred by long running
// commands (verifier daemons, the ngverify CLI).
func OnExit() {
	logger.OnExit()
}

// Component returns a tagged logger.Logger for one package/subsystem, mirroring
// how MassifCommitter, LogDirCache and MassifReader each hold their own
// logger.Logger field built from logger.Sugar.WithServiceName rather than
// reaching for the package-level Sugar directly.
func Component(name string) logger.Logger {
	return logger.Sugar.WithServiceName(name)
}

// Logger is a re-export of the teacher's logger.Logger interface, so callers
// elsewhere in this module don't need their own import of the dependency
// just to name the type of a struct field.
type Logger = logger.Logger
