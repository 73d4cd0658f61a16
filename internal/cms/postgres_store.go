// internal/cms/postgres_store.go
package cms

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"equimarket/internal/common/logger"
	"equimarket/internal/models"
)

// PostgresStore keeps documents as JSONB rows and assets as bytea rows.
//
// Fetch takes a document type as its query and matches params with JSONB
// containment, so {"author": {"_ref": "u1"}} finds that user's documents.
type PostgresStore struct {
	db           *sql.DB
	assetBaseURL string
	newID        func() string
	logger       logger.Logger
}

func NewPostgresStore(db *sql.DB, assetBaseURL string, log logger.Logger) *PostgresStore {
	return &PostgresStore{
		db:           db,
		assetBaseURL: strings.TrimSuffix(assetBaseURL, "/"),
		newID:        uuid.NewString,
		logger:       log.WithFields(map[string]interface{}{"component": "cms-postgres"}),
	}
}

func decodeBody(raw []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return doc, nil
}

func (s *PostgresStore) Fetch(ctx context.Context, query string, params map[string]interface{}) ([]Document, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	filter, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode filter: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM cms_documents WHERE doc_type = $1 AND body @> $2::jsonb ORDER BY created_at DESC`,
		query, string(filter))
	if err != nil {
		return nil, fmt.Errorf("fetch documents: %w", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		doc, err := decodeBody(raw)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Document, error) {
	var raw []byte
	err := s.db.QueryRowContext(ctx, `SELECT body FROM cms_documents WHERE id = $1`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return decodeBody(raw)
}

func (s *PostgresStore) Create(ctx context.Context, doc Document) (Document, error) {
	created := Document{}
	for k, v := range doc {
		created[k] = v
	}
	if created.ID() == "" {
		created["_id"] = s.newID()
	}

	body, err := json.Marshal(created)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cms_documents (id, doc_type, body) VALUES ($1, $2, $3)`,
		created.ID(), created.Type(), string(body)); err != nil {
		return nil, fmt.Errorf("insert document: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) Patch(id string) *Patch {
	return newPatch(id, s.commitPatch)
}

func (s *PostgresStore) commitPatch(ctx context.Context, id string, set map[string]interface{}, unset []string) (Document, error) {
	if set == nil {
		set = map[string]interface{}{}
	}
	setJSON, err := json.Marshal(set)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	if unset == nil {
		unset = []string{}
	}

	var raw []byte
	err = s.db.QueryRowContext(ctx,
		`UPDATE cms_documents SET body = (body || $2::jsonb) - $3::text[], updated_at = now() WHERE id = $1 RETURNING body`,
		id, string(setJSON), pq.Array(unset)).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("patch document: %w", err)
	}
	return decodeBody(raw)
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM cms_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *PostgresStore) UploadAsset(ctx context.Context, kind AssetKind, file *models.Upload) (Asset, error) {
	if file == nil {
		return Asset{}, fmt.Errorf("upload %s: no file", kind)
	}
	id := fmt.Sprintf("%s-%s", kind, s.newID())

	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO cms_assets (id, kind, filename, content_type, data) VALUES ($1, $2, $3, $4, $5)`,
		id, string(kind), file.Filename, file.ContentType, file.Data); err != nil {
		return Asset{}, fmt.Errorf("insert asset: %w", err)
	}

	s.logger.Debug("asset stored", map[string]interface{}{"assetId": id, "bytes": len(file.Data)})
	return Asset{ID: id, URL: s.assetURL(id)}, nil
}

func (s *PostgresStore) assetURL(id string) string {
	return s.assetBaseURL + "/" + id
}

func (s *PostgresStore) ImageURL(ref string) string {
	if ref == "" {
		return ""
	}
	return s.assetURL(ref)
}

// ReadAsset loads a stored asset for serving.
func (s *PostgresStore) ReadAsset(ctx context.Context, id string) (*models.Upload, error) {
	u := &models.Upload{}
	err := s.db.QueryRowContext(ctx,
		`SELECT filename, content_type, data FROM cms_assets WHERE id = $1`, id).
		Scan(&u.Filename, &u.ContentType, &u.Data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("read asset: %w", err)
	}
	return u, nil
}
