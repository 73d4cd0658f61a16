// internal/hooks/search.go
package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	apperrors "equimarket/internal/common/errors"
	"equimarket/internal/common/logger"
)

// SearchIndexer writes the listing to the search index under its document id.
type SearchIndexer struct {
	client *elasticsearch.Client
	index  string
	logger logger.Logger
}

func NewSearchIndexer(client *elasticsearch.Client, index string, log logger.Logger) *SearchIndexer {
	return &SearchIndexer{client: client, index: index, logger: log}
}

func (i *SearchIndexer) Name() string { return "elasticsearch" }

func (i *SearchIndexer) Run(ctx context.Context, s Submission) error {
	body, err := json.Marshal(searchDocument(s))
	if err != nil {
		return apperrors.NewIndexingFailedError(i.index, err)
	}

	res, err := i.client.Index(
		i.index,
		bytes.NewReader(body),
		i.client.Index.WithContext(ctx),
		i.client.Index.WithDocumentID(s.Event.DocumentID),
	)
	if err != nil {
		return apperrors.NewIndexingFailedError(i.index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return apperrors.NewIndexingFailedError(i.index, fmt.Errorf("index response: %s", res.Status()))
	}
	return nil
}

// searchDocument keeps the listing's scalar fields plus the listing metadata.
// References and asset lists are left out of the index.
func searchDocument(s Submission) map[string]interface{} {
	out := map[string]interface{}{
		"entity":     s.Event.Entity,
		"ownerId":    s.Event.UserID,
		"completion": s.Event.Completion,
		"indexedAt":  s.Event.OccurredAt,
	}
	if s.Event.Tier != "" {
		out["tier"] = s.Event.Tier
	}
	for k, v := range s.Document {
		if strings.HasPrefix(k, "_") {
			continue
		}
		switch v.(type) {
		case string, float64, int, int64, bool:
			out[k] = v
		}
	}
	return out
}
