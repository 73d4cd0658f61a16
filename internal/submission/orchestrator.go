// Package submission persists a completed wizard as a CMS document.
package submission

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"equimarket/internal/cms"
	"equimarket/internal/common/auth"
	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
	"equimarket/internal/common/metrics"
	"equimarket/internal/common/observability"
	"equimarket/internal/common/validation"
	"equimarket/internal/completion"
	"equimarket/internal/hooks"
	"equimarket/internal/models"
	"equimarket/internal/wizard"
)

const (
	ModeCreate = "create"
	ModePatch  = "patch"
)

// Result describes a persisted submission.
type Result struct {
	DocumentID string            `json:"documentId"`
	Mode       string            `json:"mode"`
	Completion completion.Result `json:"completion"`
	AssetIDs   []string          `json:"assetIds"`
	Document   cms.Document      `json:"document"`
}

// Dependencies are the collaborators of an Orchestrator. Hooks and
// Observability are optional.
type Dependencies struct {
	Verifier      auth.Verifier
	CMS           cms.Client
	Documents     *validation.DocumentValidator
	Hooks         *hooks.Runner
	Observability *observability.Observability
}

type Orchestrator struct {
	verifier auth.Verifier
	cms      cms.Client
	docs     *validation.DocumentValidator
	hooks    *hooks.Runner
	obs      *observability.Observability
	newKey   func() string
	now      func() time.Time
	logger   logger.Logger
}

func NewOrchestrator(deps Dependencies, log logger.Logger) *Orchestrator {
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Orchestrator{
		verifier: deps.Verifier,
		cms:      deps.CMS,
		docs:     deps.Documents,
		hooks:    deps.Hooks,
		obs:      obs,
		newKey:   uuid.NewString,
		now:      time.Now,
		logger:   log.WithFields(map[string]interface{}{"component": "submission"}),
	}
}

// Submit verifies the session, uploads the form's assets one at a time,
// and persists the assembled document with a single create or patch call.
// The first failure stops the run. Assets already uploaded are left in place
// and logged. On success the form is reset and post-submit hooks run.
func (o *Orchestrator) Submit(ctx context.Context, form *wizard.Form, sessionToken string) (*Result, error) {
	if !form.BeginSubmit() {
		return nil, apperrors.NewSubmissionInProgressError(form.ID)
	}
	defer form.EndSubmit()

	entity := form.Entity.Type
	metrics.SubmissionsActive.WithLabelValues(entity).Inc()
	defer metrics.SubmissionsActive.WithLabelValues(entity).Dec()

	start := o.now()
	ctx, span := o.obs.StartSpan(ctx, "submission.submit",
		attribute.String("entity", entity),
		attribute.String("formId", form.ID),
	)
	defer span.End()

	log := o.logger.WithFields(map[string]interface{}{
		"formId": form.ID,
		"entity": entity,
	})

	result, err := o.submit(ctx, form, sessionToken, log)
	metrics.SubmissionDuration.WithLabelValues(entity).Observe(o.now().Sub(start).Seconds())

	if err != nil {
		se := apperrors.AsStandardError(err)
		metrics.SubmissionsFailed.WithLabelValues(entity, string(se.Code)).Inc()
		o.obs.RecordSubmission(ctx, entity, "failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, string(se.Code))
		return nil, se
	}

	metrics.SubmissionsCompleted.WithLabelValues(entity, result.Mode).Inc()
	metrics.CompletionPercentage.WithLabelValues(entity).Observe(float64(result.Completion.Percentage))
	o.obs.RecordSubmission(ctx, entity, "completed")
	span.SetAttributes(attribute.String("documentId", result.DocumentID))
	return result, nil
}

func (o *Orchestrator) submit(ctx context.Context, form *wizard.Form, sessionToken string, log logger.Logger) (*Result, error) {
	user, err := o.verify(ctx, sessionToken)
	if err != nil {
		log.Info("submission blocked: not signed in", map[string]interface{}{"error": err})
		return nil, err
	}
	log = log.WithFields(map[string]interface{}{"userId": user.ID})

	if !form.AtFinal() {
		return nil, apperrors.NewNotAtFinalStepError(form.Current(), form.Total())
	}
	if vr := form.ValidateForSubmit(); !vr.Valid() {
		log.Debug("submission blocked by validation", map[string]interface{}{"fields": vr.Failed()})
		return nil, apperrors.NewValidationFailedError(vr.Failed())
	}
	if form.DocumentID != "" {
		if err := o.checkOwner(ctx, form, user.ID); err != nil {
			return nil, err
		}
	}

	up, err := o.upload(ctx, form.Record, log)
	if err != nil {
		return nil, err
	}

	if form.Entity.Tiered() {
		// the tier is derived; a stored or client-sent value must not count as filled
		if err := models.ResetField(form.Record, form.Entity.TierField); err != nil {
			log.Warn("failed to reset tier field", map[string]interface{}{"error": err})
		}
	}
	score := completion.Score(form.Record)
	doc, omitted, err := assembleDocument(form.Record, form.Entity, user.ID, up, o.newKey)
	if err != nil {
		o.logOrphans(log, up, err)
		return nil, apperrors.NewDocumentCreateFailedError(form.Entity.Type, err)
	}
	if form.Entity.Tiered() {
		doc[form.Entity.TierField] = string(score.Tier)
	}

	if o.docs != nil {
		problems, err := o.docs.Validate(form.Entity.Type, doc)
		if err != nil {
			o.logOrphans(log, up, err)
			return nil, apperrors.NewDocumentSchemaError(form.Entity.Type, []string{err.Error()})
		}
		if len(problems) > 0 {
			o.logOrphans(log, up, errors.New("document schema check failed"))
			return nil, apperrors.NewDocumentSchemaError(form.Entity.Type, problems)
		}
	}

	saved, mode, err := o.persist(ctx, form, doc, omitted)
	if err != nil {
		o.logOrphans(log, up, err)
		return nil, err
	}

	result := &Result{
		DocumentID: saved.ID(),
		Mode:       mode,
		Completion: score,
		AssetIDs:   up.ids(),
		Document:   saved,
	}
	log.Info("submission persisted", map[string]interface{}{
		"documentId": result.DocumentID,
		"mode":       mode,
		"assets":     len(result.AssetIDs),
		"completion": score.Percentage,
	})

	form.Reset(ctx)
	o.runHooks(ctx, user, form.Entity, result)
	return result, nil
}

func (o *Orchestrator) verify(ctx context.Context, sessionToken string) (*models.User, error) {
	ctx, span := o.obs.StartSpan(ctx, "submission.verify")
	defer span.End()

	if o.verifier == nil {
		return nil, apperrors.NewNotAuthenticatedError("no verifier configured")
	}
	user, err := o.verifier.Verify(ctx, sessionToken)
	if err != nil {
		var se *apperrors.StandardError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, apperrors.NewAuthVerifyFailedError(err)
	}
	if user == nil || user.ID == "" {
		return nil, apperrors.NewNotAuthenticatedError("verifier returned no user")
	}
	return user, nil
}

// upload sends the primary file first and then each image, one at a time.
func (o *Orchestrator) upload(ctx context.Context, rec models.Record, log logger.Logger) (*uploads, error) {
	ctx, span := o.obs.StartSpan(ctx, "submission.upload")
	defer span.End()
	start := o.now()
	defer func() { o.obs.RecordStageDuration(ctx, "upload", o.now().Sub(start)) }()

	schema := models.MustSchemaOf(rec)
	up := newUploads()

	for _, f := range schema.Fields {
		if f.Kind != models.KindFile {
			continue
		}
		file, _ := schema.Value(rec, f).Interface().(*models.Upload)
		if file == nil {
			continue
		}
		asset, err := o.uploadOne(ctx, cms.AssetFile, file)
		if err != nil {
			o.logOrphans(log, up, err)
			return nil, apperrors.NewAssetUploadFailedError(f.Name, err)
		}
		up.addFile(f.Name, asset.ID)
	}

	for _, f := range schema.Fields {
		if f.Kind != models.KindImages {
			continue
		}
		images, _ := schema.Value(rec, f).Interface().([]*models.Upload)
		for i, img := range images {
			if img == nil {
				continue
			}
			asset, err := o.uploadOne(ctx, cms.AssetImage, img)
			if err != nil {
				o.logOrphans(log, up, err)
				return nil, apperrors.NewAssetUploadFailedError(f.Name, err).
					WithMetadata("index", i)
			}
			up.addImage(f.Name, asset.ID)
		}
	}

	return up, nil
}

func (o *Orchestrator) uploadOne(ctx context.Context, kind cms.AssetKind, file *models.Upload) (cms.Asset, error) {
	asset, err := o.cms.UploadAsset(ctx, kind, file)
	if err != nil {
		metrics.AssetUploads.WithLabelValues(string(kind), "failed").Inc()
		return cms.Asset{}, err
	}
	metrics.AssetUploads.WithLabelValues(string(kind), "uploaded").Inc()
	return asset, nil
}

func (o *Orchestrator) persist(ctx context.Context, form *wizard.Form, doc cms.Document, omitted []string) (cms.Document, string, error) {
	ctx, span := o.obs.StartSpan(ctx, "submission.persist")
	defer span.End()
	start := o.now()
	defer func() { o.obs.RecordStageDuration(ctx, "persist", o.now().Sub(start)) }()

	if form.DocumentID == "" {
		saved, err := o.cms.Create(ctx, doc)
		if err != nil {
			return nil, "", apperrors.NewDocumentCreateFailedError(form.Entity.Type, err)
		}
		return saved, ModeCreate, nil
	}

	fields := make(map[string]interface{}, len(doc))
	for k, v := range doc {
		if k == "_type" || k == "_id" {
			continue
		}
		fields[k] = v
	}
	saved, err := o.cms.Patch(form.DocumentID).Set(fields).Unset(omitted...).Commit(ctx)
	if errors.Is(err, cms.ErrNotFound) {
		return nil, "", apperrors.NewDocumentNotFoundError(form.DocumentID)
	}
	if err != nil {
		return nil, "", apperrors.NewDocumentPatchFailedError(form.DocumentID, err)
	}
	if saved.ID() == "" {
		saved["_id"] = form.DocumentID
	}
	return saved, ModePatch, nil
}

// checkOwner re-reads the document being edited and reports it as missing
// unless it has the form's type and belongs to userID.
func (o *Orchestrator) checkOwner(ctx context.Context, form *wizard.Form, userID string) error {
	current, err := o.cms.Get(ctx, form.DocumentID)
	if errors.Is(err, cms.ErrNotFound) {
		return apperrors.NewDocumentNotFoundError(form.DocumentID)
	}
	if err != nil {
		return apperrors.NewDocumentFetchFailedError(err)
	}
	if current.Type() != form.Entity.Type || current.RefID(form.Entity.OwnerField) != userID {
		o.logger.Warn("edit rejected: document not owned by submitter", map[string]interface{}{
			"formId":     form.ID,
			"documentId": form.DocumentID,
			"userId":     userID,
		})
		return apperrors.NewDocumentNotFoundError(form.DocumentID)
	}
	return nil
}

func (o *Orchestrator) runHooks(ctx context.Context, user *models.User, entity models.Entity, result *Result) {
	if o.hooks == nil {
		return
	}
	eventType := hooks.EventListingCreated
	if result.Mode == ModePatch {
		eventType = hooks.EventListingUpdated
	}
	tier := ""
	if entity.Tiered() {
		tier = string(result.Completion.Tier)
	}

	o.hooks.Run(ctx, hooks.Submission{
		Event: models.ListingEvent{
			EventID:    o.newKey(),
			Type:       eventType,
			Entity:     entity.Type,
			DocumentID: result.DocumentID,
			UserID:     user.ID,
			Tier:       tier,
			Completion: result.Completion.Percentage,
			OccurredAt: o.now().UTC().Format(time.RFC3339),
		},
		User:     user,
		Document: result.Document,
		AssetIDs: result.AssetIDs,
	})
}

// logOrphans records assets that were uploaded before a failure. They are
// not deleted.
func (o *Orchestrator) logOrphans(log logger.Logger, up *uploads, cause error) {
	if up == nil || len(up.order) == 0 {
		return
	}
	log.Warn("submission failed after uploads, assets left orphaned", map[string]interface{}{
		"assetIds": up.ids(),
		"error":    cause,
	})
}
