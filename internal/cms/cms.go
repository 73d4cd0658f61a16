// Package cms is the document and asset store behind listings.
package cms

import (
	"context"
	"errors"

	"equimarket/internal/models"
)

var ErrNotFound = errors.New("DOCUMENT_NOT_FOUND")

// Document is a schemaless CMS document. System keys start with an underscore.
type Document map[string]interface{}

// ID returns the _id key, "" when absent.
func (d Document) ID() string {
	id, _ := d["_id"].(string)
	return id
}

// Type returns the _type key.
func (d Document) Type() string {
	t, _ := d["_type"].(string)
	return t
}

// RefID returns the _ref of the reference stored under field, "" when the
// field is missing or not a reference.
func (d Document) RefID(field string) string {
	ref, _ := d[field].(map[string]interface{})
	id, _ := ref["_ref"].(string)
	return id
}

// AssetKind selects the asset pipeline.
type AssetKind string

const (
	AssetFile  AssetKind = "file"
	AssetImage AssetKind = "image"
)

// Asset is an uploaded binary.
type Asset struct {
	ID  string `json:"id"`
	URL string `json:"url,omitempty"`
}

// Reference is a typed pointer to another document or asset.
func Reference(id string) map[string]interface{} {
	return map[string]interface{}{"_type": "reference", "_ref": id}
}

// Client is the document store contract.
type Client interface {
	// Fetch runs a backend-specific query with bound params.
	Fetch(ctx context.Context, query string, params map[string]interface{}) ([]Document, error)
	Get(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, doc Document) (Document, error)
	Patch(id string) *Patch
	Delete(ctx context.Context, id string) error
	UploadAsset(ctx context.Context, kind AssetKind, file *models.Upload) (Asset, error)
	// ImageURL builds a public URL for an image asset reference.
	ImageURL(ref string) string
}

type patchCommitter func(ctx context.Context, id string, set map[string]interface{}, unset []string) (Document, error)

// Patch accumulates field changes for one document until Commit.
type Patch struct {
	id     string
	set    map[string]interface{}
	unset  []string
	commit patchCommitter
}

func newPatch(id string, commit patchCommitter) *Patch {
	return &Patch{id: id, set: map[string]interface{}{}, commit: commit}
}

// Set merges fields into the pending change set.
func (p *Patch) Set(fields map[string]interface{}) *Patch {
	for k, v := range fields {
		p.set[k] = v
	}
	return p
}

// Unset removes keys from the document.
func (p *Patch) Unset(keys ...string) *Patch {
	p.unset = append(p.unset, keys...)
	return p
}

// Commit applies the change set and returns the updated document.
func (p *Patch) Commit(ctx context.Context) (Document, error) {
	return p.commit(ctx, p.id, p.set, p.unset)
}

// AssetReader is implemented by stores that hold asset content themselves.
type AssetReader interface {
	ReadAsset(ctx context.Context, id string) (*models.Upload, error)
}
