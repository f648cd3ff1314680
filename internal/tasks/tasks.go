// package tasks runs the background work behind a playback queue.
//
// [Engine] resolves batches of items concurrently and [Tracker] keeps their
// signed stream URLs ahead of expiry. Both report through channels with
// non-blocking sends so a slow consumer never stalls playback.
package tasks

import (
	"github.com/charmbracelet/log"

	"github.com/desertthunder/ytstream/internal/services"
	"github.com/desertthunder/ytstream/internal/shared"
)

// Engine resolves queue items against a catalog service.
type Engine struct {
	svc    services.Service
	logger *log.Logger
}

// NewEngine creates an Engine. A nil logger discards output.
func NewEngine(svc services.Service, logger *log.Logger) *Engine {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Engine{svc: svc, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
