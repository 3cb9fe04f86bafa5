// Package rules deduplicates and filters candidate tracks under a declarative rule set.
package rules

import (
	"io"

	log "github.com/sirupsen/logrus"
)

// Engine applies Rules to track lists. It holds no state between calls and is safe
// for concurrent use.
type Engine struct {
	logger *log.Logger
}

// NewEngine creates a rules engine. A nil logger discards output.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New()
		logger.SetOutput(io.Discard)
	}
	return &Engine{logger: logger}
}
