// internal/hooks/audit.go
package hooks

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"equimarket/internal/common/logger"
)

// AuditLog records every persisted submission in submission_audit.
type AuditLog struct {
	db     *sql.DB
	newID  func() string
	logger logger.Logger
}

func NewAuditLog(db *sql.DB, log logger.Logger) *AuditLog {
	return &AuditLog{db: db, newID: uuid.NewString, logger: log}
}

func (a *AuditLog) Name() string { return "audit" }

func (a *AuditLog) Run(ctx context.Context, s Submission) error {
	assets := s.AssetIDs
	if assets == nil {
		assets = []string{}
	}
	assetJSON, err := json.Marshal(assets)
	if err != nil {
		return fmt.Errorf("encode asset ids: %w", err)
	}

	_, err = a.db.ExecContext(ctx,
		`INSERT INTO submission_audit (id, document_id, entity, user_id, action, tier, asset_ids)
		 VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb)`,
		a.newID(), s.Event.DocumentID, s.Event.Entity, s.Event.UserID, s.Event.Type,
		sql.NullString{String: s.Event.Tier, Valid: s.Event.Tier != ""}, string(assetJSON))
	if err != nil {
		return fmt.Errorf("insert audit row: %w", err)
	}
	return nil
}
