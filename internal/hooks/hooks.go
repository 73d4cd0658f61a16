// Package hooks runs best-effort side effects after a listing is persisted.
package hooks

import (
	"context"
	"time"

	"equimarket/internal/cms"
	"equimarket/internal/common/logger"
	"equimarket/internal/common/metrics"
	"equimarket/internal/models"
)

const (
	EventListingCreated = "listing.created"
	EventListingUpdated = "listing.updated"
)

// Submission describes one persisted listing.
type Submission struct {
	Event    models.ListingEvent
	User     *models.User
	Document cms.Document
	AssetIDs []string
}

// Hook is one post-submit side effect.
type Hook interface {
	Name() string
	Run(ctx context.Context, s Submission) error
}

// Runner executes hooks in order. A failing hook is logged and counted and
// never stops the others.
type Runner struct {
	hooks   []Hook
	timeout time.Duration
	logger  logger.Logger
}

func NewRunner(log logger.Logger, hooks ...Hook) *Runner {
	return &Runner{
		hooks:   hooks,
		timeout: 10 * time.Second,
		logger:  log.WithFields(map[string]interface{}{"component": "post-submit-hooks"}),
	}
}

// Names lists the configured hooks.
func (r *Runner) Names() []string {
	names := make([]string, len(r.hooks))
	for i, h := range r.hooks {
		names[i] = h.Name()
	}
	return names
}

// Run returns the names of the hooks that failed.
func (r *Runner) Run(ctx context.Context, s Submission) []string {
	var failed []string
	for _, h := range r.hooks {
		hctx, cancel := context.WithTimeout(ctx, r.timeout)
		err := h.Run(hctx, s)
		cancel()
		if err != nil {
			failed = append(failed, h.Name())
			metrics.HookFailures.WithLabelValues(h.Name()).Inc()
			r.logger.Warn("post-submit hook failed", map[string]interface{}{
				"hook":       h.Name(),
				"documentId": s.Event.DocumentID,
				"error":      err,
			})
		}
	}
	return failed
}
