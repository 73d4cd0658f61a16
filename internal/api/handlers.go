// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"sort"

	"equimarket/internal/cms"
	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/completion"
	"equimarket/internal/models"
	"equimarket/internal/wizard"
)

const maxResumeKeyLen = 128

type createRequest struct {
	DocumentID string `json:"documentId"`
	// ResumeKey is a client-held draft key. It becomes the wizard id, so the
	// persisted step index is found again after the session is gone.
	ResumeKey string `json:"resumeKey"`
}

func validResumeKey(key string) bool {
	if key == "" || len(key) > maxResumeKeyLen {
		return false
	}
	for _, c := range key {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '-', c == '_', c == '.', c == ':':
		default:
			return false
		}
	}
	return true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entityType := r.PathValue("entity")
	entity, ok := models.LookupEntity(entityType)
	if !ok {
		s.writeError(w, r, "create", apperrors.NewUnknownEntityError(entityType))
		return
	}

	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			s.writeError(w, r, "create", apperrors.NewInvalidInputError(err.Error()))
			return
		}
	}

	id := s.newID()
	if req.ResumeKey != "" {
		if !validResumeKey(req.ResumeKey) {
			s.writeError(w, r, "create", apperrors.NewInvalidInputError("resumeKey must be 1-128 letters, digits or -_.:"))
			return
		}
		id = req.ResumeKey
	}

	var (
		form *wizard.Form
		err  error
	)
	if req.DocumentID == "" {
		form, err = wizard.NewForm(ctx, id, entity.Type, s.deps.StepStore, s.logger)
	} else {
		form, err = s.editForm(ctx, r, id, entity, req.DocumentID)
	}
	if err != nil {
		s.writeError(w, r, "create", err)
		return
	}

	sess, added := s.sessions.claim(form)
	if added {
		writeJSON(w, http.StatusCreated, s.view(r, form))
		return
	}

	// the resume key names a live session; hand it back
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.form.Entity.Type != entity.Type || sess.form.DocumentID != form.DocumentID {
		s.writeError(w, r, "create", apperrors.NewInvalidInputError("resumeKey belongs to another wizard"))
		return
	}
	sess.lastSeen = s.sessions.now()
	writeJSON(w, http.StatusOK, s.view(r, sess.form))
}

// editForm loads an existing document owned by the signed-in user into a
// new wizard.
func (s *Server) editForm(ctx context.Context, r *http.Request, id string, entity models.Entity, documentID string) (*wizard.Form, error) {
	if s.deps.Verifier == nil {
		return nil, apperrors.NewNotAuthenticatedError("editing is disabled")
	}
	user, err := s.deps.Verifier.Verify(ctx, s.sessionToken(r))
	if err != nil {
		return nil, err
	}

	doc, err := s.deps.CMS.Get(ctx, documentID)
	if errors.Is(err, cms.ErrNotFound) {
		return nil, apperrors.NewDocumentNotFoundError(documentID)
	}
	if err != nil {
		return nil, apperrors.NewDocumentFetchFailedError(err)
	}
	// other users' documents are reported as missing
	if doc.Type() != entity.Type || doc.RefID(entity.OwnerField) != user.ID {
		return nil, apperrors.NewDocumentNotFoundError(documentID)
	}

	rec, err := recordFromDocument(entity, doc)
	if err != nil {
		return nil, apperrors.NewDocumentFetchFailedError(err)
	}
	return wizard.EditForm(ctx, id, documentID, rec, s.deps.StepStore, s.logger)
}

func (s *Server) sessionToken(r *http.Request) string {
	c, err := r.Cookie(s.opts.CookieName)
	if err != nil {
		return ""
	}
	return c.Value
}

// lookup finds the session named by the path and locks it. The caller must
// unlock sess.mu.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request, operation string) (*session, bool) {
	id := r.PathValue("id")
	sess, ok := s.sessions.get(id)
	if !ok {
		s.writeError(w, r, operation, apperrors.NewSessionNotFoundError(id))
		return nil, false
	}
	sess.mu.Lock()
	sess.lastSeen = s.sessions.now()
	return sess, true
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "get")
	if !ok {
		return
	}
	defer sess.mu.Unlock()
	writeJSON(w, http.StatusOK, s.view(r, sess.form))
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "fields")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.writeError(w, r, "fields", apperrors.NewInvalidInputError(fmt.Sprintf("decode fields: %v", err)))
		return
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := models.SetField(sess.form.Record, name, fields[name]); err != nil {
			s.writeError(w, r, "fields", apperrors.NewInvalidInputError(err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.view(r, sess.form))
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "upload")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	field := r.PathValue("field")
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeError(w, r, "upload", apperrors.NewInvalidInputError(fmt.Sprintf("invalid multipart payload: %v", err)))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		s.writeError(w, r, "upload", apperrors.NewInvalidInputError("file part is required"))
		return
	}

	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.writeError(w, r, "upload", apperrors.NewInvalidInputError(err.Error()))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			s.writeError(w, r, "upload", apperrors.NewInvalidInputError(err.Error()))
			return
		}

		contentType := h.Header.Get("Content-Type")
		if contentType == "" || contentType == "application/octet-stream" {
			contentType = http.DetectContentType(data)
		}
		upload := &models.Upload{
			Filename:    filepath.Base(h.Filename),
			ContentType: contentType,
			Data:        data,
		}
		if err := models.AttachUpload(sess.form.Record, field, upload); err != nil {
			s.writeError(w, r, "upload", apperrors.NewInvalidInputError(err.Error()))
			return
		}
	}
	writeJSON(w, http.StatusOK, s.view(r, sess.form))
}

type navigationResponse struct {
	Advanced bool       `json:"advanced"`
	Wizard   wizardView `json:"wizard"`
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "next")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	advanced := sess.form.Next(r.Context())
	writeJSON(w, http.StatusOK, navigationResponse{Advanced: advanced, Wizard: s.view(r, sess.form)})
}

func (s *Server) handlePrev(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "prev")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	sess.form.Prev(r.Context())
	writeJSON(w, http.StatusOK, navigationResponse{Wizard: s.view(r, sess.form)})
}

type scoreResponse struct {
	completion.Result
	TierLabel string `json:"tierLabel"`
}

func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "score")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	res := completion.Score(sess.form.Record)
	writeJSON(w, http.StatusOK, scoreResponse{
		Result:    res,
		TierLabel: s.deps.Catalog.T(s.locale(r), "tier."+string(res.Tier), nil),
	})
}

type submitResponse struct {
	DocumentID string            `json:"documentId"`
	Mode       string            `json:"mode"`
	Completion completion.Result `json:"completion"`
	AssetIDs   []string          `json:"assetIds"`
	Wizard     wizardView        `json:"wizard"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, ok := s.sessions.get(id)
	if !ok {
		s.writeError(w, r, "submit", apperrors.NewSessionNotFoundError(id))
		return
	}
	if !sess.lockForSubmit() {
		s.writeError(w, r, "submit", apperrors.NewSubmissionInProgressError(id))
		return
	}
	defer sess.mu.Unlock()
	sess.lastSeen = s.sessions.now()

	res, err := s.deps.Orchestrator.Submit(r.Context(), sess.form, s.sessionToken(r))
	if err != nil {
		s.writeError(w, r, "submit", err)
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{
		DocumentID: res.DocumentID,
		Mode:       res.Mode,
		Completion: res.Completion,
		AssetIDs:   res.AssetIDs,
		Wizard:     s.view(r, sess.form),
	})
}

func (s *Server) handleAbandon(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r, "abandon")
	if !ok {
		return
	}
	defer sess.mu.Unlock()

	sess.form.Reset(r.Context())
	s.sessions.remove(sess.form.ID)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	reader, ok := s.deps.CMS.(cms.AssetReader)
	if !ok {
		http.NotFound(w, r)
		return
	}
	id := r.PathValue("id")
	asset, err := reader.ReadAsset(r.Context(), id)
	if errors.Is(err, cms.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		s.writeError(w, r, "asset", apperrors.NewDocumentFetchFailedError(err))
		return
	}

	w.Header().Set("Content-Type", asset.ContentType)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = w.Write(asset.Data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(s.deps.Health))
	for name, check := range s.deps.Health {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	writeJSON(w, status, map[string]interface{}{
		"status":   state,
		"sessions": s.sessions.Len(),
		"checks":   checks,
	})
}
