package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/musicnerd/musicnerd/internal/domain"
)

const linkConfigColumns = `site_name, card_platform_name, card_description, app_string_format, example,
	regex, card_order, platform_types, is_enabled, is_web3_site, site_image`

// SeedLinkConfigs upserts the catalog. Existing rows keep their is_enabled flag so an
// operator can switch a platform off without a deploy reverting it.
func (db *DB) SeedLinkConfigs(ctx context.Context, configs []domain.LinkConfig) error {
	return db.RunInTx(ctx, func(tx *DB) error {
		query := `INSERT INTO urlmap (` + linkConfigColumns + `) VALUES (
			:site_name, :card_platform_name, :card_description, :app_string_format, :example,
			:regex, :card_order, :platform_types, :is_enabled, :is_web3_site, :site_image
		) ON CONFLICT(site_name) DO UPDATE SET
			card_platform_name = excluded.card_platform_name,
			card_description = excluded.card_description,
			app_string_format = excluded.app_string_format,
			example = excluded.example,
			regex = excluded.regex,
			card_order = excluded.card_order,
			platform_types = excluded.platform_types,
			is_web3_site = excluded.is_web3_site,
			site_image = excluded.site_image`
		for i := range configs {
			if _, err := tx.NamedExecContext(ctx, query, &configs[i]); err != nil {
				return fmt.Errorf("failed to seed link config %s: %w", configs[i].SiteName, err)
			}
		}
		return nil
	})
}

// ListLinkConfigs returns the catalog ordered by card order.
func (db *DB) ListLinkConfigs(ctx context.Context, enabledOnly bool) ([]domain.LinkConfig, error) {
	query := `SELECT ` + linkConfigColumns + ` FROM urlmap`
	if enabledOnly {
		query += ` WHERE is_enabled = 1`
	}
	query += ` ORDER BY card_order ASC, site_name ASC`

	configs := []domain.LinkConfig{}
	if err := db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("failed to list link configs: %w", err)
	}
	return configs, nil
}

func (db *DB) GetLinkConfig(ctx context.Context, siteName string) (*domain.LinkConfig, error) {
	var c domain.LinkConfig
	err := db.GetContext(ctx, &c, `SELECT `+linkConfigColumns+` FROM urlmap WHERE site_name = ?`, siteName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (db *DB) SetLinkConfigEnabled(ctx context.Context, siteName string, enabled bool) error {
	result, err := db.ExecContext(ctx, `UPDATE urlmap SET is_enabled = ? WHERE site_name = ?`, enabled, siteName)
	if err != nil {
		return fmt.Errorf("failed to toggle link config: %w", err)
	}
	return expectOneRow(result, "link config "+siteName)
}
