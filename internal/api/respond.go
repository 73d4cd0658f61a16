// internal/api/respond.go
package api

import (
	"encoding/json"
	"net/http"

	"equimarket/internal/completion"
	"equimarket/internal/models"
	"equimarket/internal/wizard"
)

type stepView struct {
	Index    int      `json:"index"`
	Key      string   `json:"key"`
	Required []string `json:"required"`
}

type wizardView struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	DocumentID string            `json:"documentId,omitempty"`
	Step       int               `json:"step"`
	Total      int               `json:"total"`
	AtFinal    bool              `json:"atFinal"`
	Submitting bool              `json:"submitting"`
	Steps      []stepView        `json:"steps"`
	Record     models.Record     `json:"record"`
	Errors     map[string]string `json:"errors,omitempty"`
	ErrorKeys  map[string]string `json:"errorKeys,omitempty"`
	Completion completion.Result `json:"completion"`
}

type noticeBody struct {
	Notice    string            `json:"notice"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	FieldKeys map[string]string `json:"fieldKeys,omitempty"`
}

func (s *Server) locale(r *http.Request) string {
	return s.deps.Catalog.Match(r.Header.Get("Accept-Language"))
}

func (s *Server) view(r *http.Request, f *wizard.Form) wizardView {
	steps := make([]stepView, 0, f.Total())
	for _, st := range f.Steps() {
		steps = append(steps, stepView{Index: st.Index, Key: st.Key, Required: st.Required})
	}

	keys := f.Errors()
	v := wizardView{
		ID:         f.ID,
		Entity:     f.Entity.Type,
		DocumentID: f.DocumentID,
		Step:       f.Current(),
		Total:      f.Total(),
		AtFinal:    f.AtFinal(),
		Submitting: f.Submitting(),
		Steps:      steps,
		Record:     f.Record,
		Completion: completion.Score(f.Record),
	}
	if len(keys) > 0 {
		v.ErrorKeys = keys
		v.Errors = s.deps.Catalog.Fields(s.locale(r), keys)
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError logs err and answers with the localized notice for it.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, operation string, err error) {
	n := s.errors.Handle(operation, err)
	locale := s.locale(r)
	body := noticeBody{
		Notice:    n.Key,
		Message:   s.deps.Catalog.T(locale, n.Key, nil),
		Retryable: n.Retryable,
	}
	if len(n.Fields) > 0 {
		body.FieldKeys = n.Fields
		body.Fields = s.deps.Catalog.Fields(locale, n.Fields)
	}
	writeJSON(w, n.Status, body)
}
