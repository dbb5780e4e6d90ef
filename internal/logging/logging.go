// Package logging configures the single logrus logger the pipeline
// stages share for trace-level observability. It is wired from
// internal/config's Debug flag - never from a CLI flag - and never
// writes to stdout, which stays reserved for the emitted assembly.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/skx/cish-compiler/internal/config"
)

// New builds the logger for one compilation run.
func New(cfg config.Config) *logrus.Logger {
	log := logrus.New()
	log.Out = os.Stderr
	log.Level = logrus.WarnLevel
	if cfg.Debug {
		log.Level = logrus.TraceLevel
	}
	return log
}

// Component scopes log to a single pipeline stage (tokenize/parse/emit).
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}
