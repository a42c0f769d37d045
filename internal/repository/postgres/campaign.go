// Package postgres provides a campaign config store for deployments that
// keep configs in PostgreSQL instead of S3. Documents are stored whole in a
// jsonb column and validated on read.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/eligibility-api/internal/campaign"
)

// CampaignStore reads campaign config documents from PostgreSQL.
type CampaignStore struct{ db *sql.DB }

// NewCampaignStore creates a Postgres-backed campaign store.
func NewCampaignStore(db *sql.DB) *CampaignStore { return &CampaignStore{db: db} }

// ListConfigs loads and validates every stored campaign config, ordered by
// campaign ID.
func (s *CampaignStore) ListConfigs(ctx context.Context) ([]campaign.Config, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT campaign_id, document
		FROM campaign_configs
		ORDER BY campaign_id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing campaign configs: %w", err)
	}
	defer rows.Close()

	var configs []campaign.Config
	for rows.Next() {
		var id string
		var document []byte
		if err := rows.Scan(&id, &document); err != nil {
			return nil, fmt.Errorf("scanning campaign config: %w", err)
		}
		cfg, err := campaign.Parse(document)
		if err != nil {
			return nil, fmt.Errorf("campaign config %s: %w", id, err)
		}
		configs = append(configs, *cfg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating campaign configs: %w", err)
	}
	return configs, nil
}
