// internal/cms/http_client.go
package cms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"equimarket/internal/common/config"
	httpclient "equimarket/internal/common/http"
	"equimarket/internal/common/logger"
	"equimarket/internal/models"
)

// HTTPClient talks to the hosted CMS HTTP API.
type HTTPClient struct {
	baseURL    string
	apiVersion string
	dataset    string
	projectID  string
	cdnURL     string
	token      string
	http       *httpclient.Client
	logger     logger.Logger
}

func NewHTTPClient(cfg config.CMSConfig, log logger.Logger) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiVersion: cfg.APIVersion,
		dataset:    cfg.Dataset,
		projectID:  cfg.ProjectID,
		cdnURL:     strings.TrimSuffix(cfg.CDNURL, "/"),
		token:      cfg.Token,
		http:       httpclient.NewClient(time.Duration(cfg.Timeout) * time.Millisecond),
		logger:     log.WithFields(map[string]interface{}{"component": "cms-http"}),
	}
}

func (c *HTTPClient) endpoint(parts ...string) string {
	return c.baseURL + "/" + c.apiVersion + "/" + strings.Join(parts, "/")
}

func (c *HTTPClient) do(ctx context.Context, method, target, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, req.URL.Path, err)
	}
	return c.http.ReadBody(resp)
}

func toDocuments(results gjson.Result) []Document {
	var docs []Document
	results.ForEach(func(_, value gjson.Result) bool {
		if m, ok := value.Value().(map[string]interface{}); ok {
			docs = append(docs, Document(m))
		}
		return true
	})
	return docs
}

func (c *HTTPClient) Fetch(ctx context.Context, query string, params map[string]interface{}) ([]Document, error) {
	q := url.Values{}
	q.Set("query", query)
	for name, value := range params {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("encode param %s: %w", name, err)
		}
		q.Set("$"+name, string(encoded))
	}

	body, err := c.do(ctx, http.MethodGet, c.endpoint("data", "query", c.dataset)+"?"+q.Encode(), "", nil)
	if err != nil {
		return nil, err
	}

	result := gjson.GetBytes(body, "result")
	if result.IsObject() {
		return []Document{Document(result.Value().(map[string]interface{}))}, nil
	}
	return toDocuments(result), nil
}

func (c *HTTPClient) Get(ctx context.Context, id string) (Document, error) {
	body, err := c.do(ctx, http.MethodGet, c.endpoint("data", "doc", c.dataset, url.PathEscape(id)), "", nil)
	if err != nil {
		return nil, err
	}
	docs := toDocuments(gjson.GetBytes(body, "documents"))
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return docs[0], nil
}

func (c *HTTPClient) mutate(ctx context.Context, mutation map[string]interface{}) (gjson.Result, error) {
	payload, err := json.Marshal(map[string]interface{}{
		"mutations": []interface{}{mutation},
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("encode mutation: %w", err)
	}

	target := c.endpoint("data", "mutate", c.dataset) + "?returnDocuments=true&visibility=sync"
	body, err := c.do(ctx, http.MethodPost, target, "application/json", payload)
	if err != nil {
		return gjson.Result{}, err
	}
	return gjson.GetBytes(body, "results.0"), nil
}

func (c *HTTPClient) Create(ctx context.Context, doc Document) (Document, error) {
	result, err := c.mutate(ctx, map[string]interface{}{"create": doc})
	if err != nil {
		return nil, err
	}

	created := Document{}
	if m, ok := result.Get("document").Value().(map[string]interface{}); ok {
		created = Document(m)
	} else {
		for k, v := range doc {
			created[k] = v
		}
	}
	if id := result.Get("id").String(); id != "" {
		created["_id"] = id
	}
	if created.ID() == "" {
		return nil, fmt.Errorf("create %s: response carried no document id", doc.Type())
	}
	return created, nil
}

func (c *HTTPClient) Patch(id string) *Patch {
	return newPatch(id, c.commitPatch)
}

func (c *HTTPClient) commitPatch(ctx context.Context, id string, set map[string]interface{}, unset []string) (Document, error) {
	patch := map[string]interface{}{"id": id}
	if len(set) > 0 {
		patch["set"] = set
	}
	if len(unset) > 0 {
		patch["unset"] = unset
	}

	result, err := c.mutate(ctx, map[string]interface{}{"patch": patch})
	if err != nil {
		return nil, err
	}
	if !result.Exists() {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if m, ok := result.Get("document").Value().(map[string]interface{}); ok {
		return Document(m), nil
	}
	return Document{"_id": id}, nil
}

func (c *HTTPClient) Delete(ctx context.Context, id string) error {
	_, err := c.mutate(ctx, map[string]interface{}{"delete": map[string]interface{}{"id": id}})
	return err
}

func (c *HTTPClient) UploadAsset(ctx context.Context, kind AssetKind, file *models.Upload) (Asset, error) {
	if file == nil {
		return Asset{}, fmt.Errorf("upload %s: no file", kind)
	}

	q := url.Values{}
	q.Set("filename", file.Filename)
	target := c.endpoint("assets", string(kind)+"s", c.dataset) + "?" + q.Encode()

	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	body, err := c.do(ctx, http.MethodPost, target, contentType, file.Data)
	if err != nil {
		return Asset{}, err
	}

	asset := Asset{
		ID:  gjson.GetBytes(body, "document._id").String(),
		URL: gjson.GetBytes(body, "document.url").String(),
	}
	if asset.ID == "" {
		return Asset{}, fmt.Errorf("upload %s: response carried no asset id", kind)
	}
	c.logger.Debug("asset uploaded", map[string]interface{}{"assetId": asset.ID, "kind": string(kind)})
	return asset, nil
}

// ImageURL turns "image-<hash>-<w>x<h>-<ext>" into a CDN URL.
func (c *HTTPClient) ImageURL(ref string) string {
	trimmed := strings.TrimPrefix(ref, "image-")
	idx := strings.LastIndex(trimmed, "-")
	if idx <= 0 || trimmed == ref {
		return ""
	}
	file := trimmed[:idx] + "." + trimmed[idx+1:]
	return fmt.Sprintf("%s/images/%s/%s/%s", c.cdnURL, c.projectID, c.dataset, file)
}
