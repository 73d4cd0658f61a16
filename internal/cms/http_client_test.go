package cms

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equimarket/internal/common/config"
	"equimarket/internal/common/logger"
	"equimarket/internal/models"
)

func createTestConfig(baseURL string) config.CMSConfig {
	return config.CMSConfig{
		BaseURL:    baseURL,
		ProjectID:  "proj1",
		Dataset:    "production",
		APIVersion: "v2021-10-21",
		Token:      "secret-token",
		CDNURL:     "https://cdn.example.com",
		Timeout:    5000,
	}
}

func TestHTTPClient_Create(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/data/mutate/production", r.URL.Path)
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		_, _ = w.Write([]byte(`{"transactionId":"tx1","results":[{"id":"book-123","operation":"create",
			"document":{"_id":"book-123","_type":"book","title":"A","price":10}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	doc, err := c.Create(context.Background(), Document{"_type": "book", "title": "A", "price": 10.0})
	require.NoError(t, err)

	assert.Equal(t, "book-123", doc.ID())
	assert.Equal(t, float64(10), doc["price"])

	mutations := got["mutations"].([]interface{})
	create := mutations[0].(map[string]interface{})["create"].(map[string]interface{})
	assert.Equal(t, "book", create["_type"])
}

func TestHTTPClient_PatchSendsSetAndUnset(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"results":[{"id":"doc-1","operation":"update","document":{"_id":"doc-1","title":"B"}}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	doc, err := c.Patch("doc-1").Set(map[string]interface{}{"title": "B"}).Unset("file").Commit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", doc["title"])

	patch := got["mutations"].([]interface{})[0].(map[string]interface{})["patch"].(map[string]interface{})
	assert.Equal(t, "doc-1", patch["id"])
	assert.Equal(t, map[string]interface{}{"title": "B"}, patch["set"])
	assert.Equal(t, []interface{}{"file"}, patch["unset"])
}

func TestHTTPClient_FetchBindsParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `*[_type == "horse" && owner._ref == $uid]`, r.URL.Query().Get("query"))
		assert.Equal(t, `"u1"`, r.URL.Query().Get("$uid"))
		_, _ = w.Write([]byte(`{"result":[{"_id":"h1","name":"Najm"},{"_id":"h2","name":"Reem"}]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	docs, err := c.Fetch(context.Background(), `*[_type == "horse" && owner._ref == $uid]`, map[string]interface{}{"uid": "u1"})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "h2", docs[1].ID())
}

func TestHTTPClient_GetNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"documents":[]}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	_, err := c.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPClient_UploadAsset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2021-10-21/assets/images/production", r.URL.Path)
		assert.Equal(t, "najm.jpg", r.URL.Query().Get("filename"))
		assert.Equal(t, "image/jpeg", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte{0xff, 0xd8}, body)

		_, _ = w.Write([]byte(`{"document":{"_id":"image-abc123-800x600-jpg","url":"https://cdn.example.com/x.jpg"}}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	asset, err := c.UploadAsset(context.Background(), AssetImage, &models.Upload{
		Filename: "najm.jpg", ContentType: "image/jpeg", Data: []byte{0xff, 0xd8},
	})
	require.NoError(t, err)
	assert.Equal(t, "image-abc123-800x600-jpg", asset.ID)
}

func TestHTTPClient_UploadFailureSurfacesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewHTTPClient(createTestConfig(srv.URL), logger.NewTestLogger(t))
	_, err := c.UploadAsset(context.Background(), AssetFile, &models.Upload{Filename: "b.pdf"})
	assert.Error(t, err)
}

func TestHTTPClient_ImageURL(t *testing.T) {
	c := NewHTTPClient(createTestConfig("https://proj1.api.example.com"), logger.NewNoOpLogger())

	assert.Equal(t,
		"https://cdn.example.com/images/proj1/production/abc123-800x600.jpg",
		c.ImageURL("image-abc123-800x600-jpg"))
	assert.Equal(t, "", c.ImageURL("file-abc123-pdf"))
}
