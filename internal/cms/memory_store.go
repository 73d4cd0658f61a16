// internal/cms/memory_store.go
package cms

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"equimarket/internal/models"
)

// MemoryStore keeps documents and assets in process memory. Documents are
// stored as JSON-normalized copies, so callers never share maps with it.
// Fetch uses the same type-plus-containment semantics as PostgresStore.
type MemoryStore struct {
	mu           sync.RWMutex
	docs         map[string]Document
	created      map[string]time.Time
	assets       map[string]*models.Upload
	assetBaseURL string
	newID        func() string
}

func NewMemoryStore(assetBaseURL string) *MemoryStore {
	return &MemoryStore{
		docs:         make(map[string]Document),
		created:      make(map[string]time.Time),
		assets:       make(map[string]*models.Upload),
		assetBaseURL: strings.TrimSuffix(assetBaseURL, "/"),
		newID:        uuid.NewString,
	}
}

func normalize(v interface{}) (Document, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return decodeBody(raw)
}

func (m *MemoryStore) Fetch(_ context.Context, query string, params map[string]interface{}) ([]Document, error) {
	filter, err := normalize(params)
	if err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for id, doc := range m.docs {
		if doc.Type() == query && contains(doc, filter) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return m.created[ids[i]].After(m.created[ids[j]]) })

	docs := make([]Document, 0, len(ids))
	for _, id := range ids {
		cp, _ := normalize(m.docs[id])
		docs = append(docs, cp)
	}
	return docs, nil
}

// contains reports whether every key of want is present in have with an
// equal value, recursing into objects.
func contains(have, want map[string]interface{}) bool {
	for k, wv := range want {
		hv, ok := have[k]
		if !ok {
			return false
		}
		wm, wIsMap := wv.(map[string]interface{})
		hm, hIsMap := hv.(map[string]interface{})
		if wIsMap && hIsMap {
			if !contains(hm, wm) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(hv, wv) {
			return false
		}
	}
	return true
}

func (m *MemoryStore) Get(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return normalize(doc)
}

func (m *MemoryStore) Create(_ context.Context, doc Document) (Document, error) {
	stored, err := normalize(doc)
	if err != nil {
		return nil, err
	}
	if stored.ID() == "" {
		stored["_id"] = m.newID()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := stored.ID()
	if _, exists := m.docs[id]; exists {
		return nil, fmt.Errorf("document %s already exists", id)
	}
	m.docs[id] = stored
	m.created[id] = time.Now()
	return normalize(stored)
}

func (m *MemoryStore) Patch(id string) *Patch {
	return newPatch(id, m.commitPatch)
}

func (m *MemoryStore) commitPatch(_ context.Context, id string, set map[string]interface{}, unset []string) (Document, error) {
	fields, err := normalize(set)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[id]
	if !ok {
		return nil, ErrNotFound
	}
	for k, v := range fields {
		doc[k] = v
	}
	for _, k := range unset {
		delete(doc, k)
	}
	return normalize(doc)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	delete(m.created, id)
	return nil
}

func (m *MemoryStore) UploadAsset(_ context.Context, kind AssetKind, file *models.Upload) (Asset, error) {
	if file == nil {
		return Asset{}, fmt.Errorf("upload %s: no content", kind)
	}
	id := string(kind) + "-" + m.newID()
	data := make([]byte, len(file.Data))
	copy(data, file.Data)

	m.mu.Lock()
	m.assets[id] = &models.Upload{Filename: file.Filename, ContentType: file.ContentType, Data: data}
	m.mu.Unlock()

	return Asset{ID: id, URL: m.assetBaseURL + "/" + id}, nil
}

func (m *MemoryStore) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return m.assetBaseURL + "/" + ref
}

// ReadAsset returns a stored asset by id.
func (m *MemoryStore) ReadAsset(_ context.Context, id string) (*models.Upload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return a, nil
}
