// internal/wizard/form.go
package wizard

import (
	"context"
	"sync/atomic"

	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
	"equimarket/internal/common/metrics"
	"equimarket/internal/common/validation"
	"equimarket/internal/models"
)

// Form is one wizard session: a record draft plus the step navigator over it.
// A Form has a single writer; callers serialize access.
type Form struct {
	ID     string
	Entity models.Entity
	Record models.Record
	// DocumentID is set when the wizard edits an existing document.
	DocumentID string

	steps   []StepDefinition
	current int
	errors  map[string]string
	store   StepStore
	logger  logger.Logger

	submitting atomic.Bool
}

// NewForm starts a wizard for a fresh record of entityType. The step index
// resumes from the store when one was saved for id.
func NewForm(ctx context.Context, id, entityType string, store StepStore, log logger.Logger) (*Form, error) {
	entity, ok := models.LookupEntity(entityType)
	if !ok {
		return nil, apperrors.NewUnknownEntityError(entityType)
	}
	return newForm(ctx, id, entity, entity.New(), store, log)
}

// EditForm starts a wizard over an existing document's fields.
func EditForm(ctx context.Context, id, documentID string, rec models.Record, store StepStore, log logger.Logger) (*Form, error) {
	entity, ok := models.LookupEntity(rec.EntityType())
	if !ok {
		return nil, apperrors.NewUnknownEntityError(rec.EntityType())
	}
	f, err := newForm(ctx, id, entity, rec, store, log)
	if err != nil {
		return nil, err
	}
	f.DocumentID = documentID
	return f, nil
}

func newForm(ctx context.Context, id string, entity models.Entity, rec models.Record, store StepStore, log logger.Logger) (*Form, error) {
	steps, ok := StepsFor(entity.Type)
	if !ok || len(steps) == 0 {
		return nil, apperrors.NewUnknownEntityError(entity.Type)
	}
	if store == nil {
		store = NewMemoryStepStore()
	}

	f := &Form{
		ID:      id,
		Entity:  entity,
		Record:  rec,
		steps:   steps,
		current: 1,
		store:   store,
		logger: log.WithFields(map[string]interface{}{
			"formId": id,
			"entity": entity.Type,
		}),
	}

	saved, found, err := store.Load(ctx, id)
	if err != nil {
		f.logger.Warn("failed to load step index, starting at step 1", map[string]interface{}{"error": err})
	} else if found {
		f.current = clamp(saved, 1, len(steps))
	}

	return f, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Current is the 1-based step index.
func (f *Form) Current() int { return f.current }

// Total is the number of steps.
func (f *Form) Total() int { return len(f.steps) }

// AtFinal reports whether the navigator is on the last step.
func (f *Form) AtFinal() bool { return f.current == len(f.steps) }

// Steps returns the step definitions.
func (f *Form) Steps() []StepDefinition { return f.steps }

// CurrentStep returns the definition of the current step.
func (f *Form) CurrentStep() StepDefinition { return f.steps[f.current-1] }

// Errors returns the messages from the last failed validation.
func (f *Form) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Next validates the current step and advances on success. On failure the
// state is unchanged and Errors holds the field messages.
func (f *Form) Next(ctx context.Context) bool {
	result := ValidateStep(f.Record, f.CurrentStep())
	if !result.Valid() {
		f.fail(result)
		metrics.StepTransitions.WithLabelValues(f.Entity.Type, "next", "blocked").Inc()
		f.logger.Debug("step validation failed", map[string]interface{}{
			"step":   f.current,
			"fields": f.errors,
		})
		return false
	}

	f.errors = nil
	f.current = clamp(f.current+1, 1, len(f.steps))
	f.persist(ctx)
	metrics.StepTransitions.WithLabelValues(f.Entity.Type, "next", "advanced").Inc()
	return true
}

// Prev moves back one step without validating.
func (f *Form) Prev(ctx context.Context) {
	f.errors = nil
	f.current = clamp(f.current-1, 1, len(f.steps))
	f.persist(ctx)
	metrics.StepTransitions.WithLabelValues(f.Entity.Type, "prev", "moved").Inc()
}

// ValidateForSubmit checks the final step and then the whole form. It
// records the failures as the form's errors.
func (f *Form) ValidateForSubmit() validation.ValidationResult {
	result := ValidateStep(f.Record, f.CurrentStep())
	result.Merge(ValidateAll(f.Record, f.steps))
	if result.Valid() {
		f.errors = nil
	} else {
		f.fail(result)
	}
	return result
}

// Reset restores the record defaults, returns to step 1 and clears the
// persisted index.
func (f *Form) Reset(ctx context.Context) {
	models.Reset(f.Record)
	f.DocumentID = ""
	f.errors = nil
	f.current = 1
	if err := f.store.Clear(ctx, f.ID); err != nil {
		f.logger.Warn("failed to clear step index", map[string]interface{}{"error": err})
	}
}

// BeginSubmit claims the form for one submission. It returns false while
// another submission of the same form is in flight.
func (f *Form) BeginSubmit() bool {
	return f.submitting.CompareAndSwap(false, true)
}

// EndSubmit releases the claim taken by BeginSubmit.
func (f *Form) EndSubmit() {
	f.submitting.Store(false)
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.submitting.Load()
}

func (f *Form) fail(result validation.ValidationResult) {
	f.errors = result.Failed()
	for field, msg := range f.errors {
		metrics.ValidationFailures.WithLabelValues(f.Entity.Type, field, msg).Inc()
	}
}

func (f *Form) persist(ctx context.Context) {
	if err := f.store.Save(ctx, f.ID, f.current); err != nil {
		f.logger.Warn("failed to persist step index", map[string]interface{}{
			"step":  f.current,
			"error": err,
		})
	}
}
