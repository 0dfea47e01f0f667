package credentials

import (
	"context"
	"strings"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/sqlinline"
)

// Store persists one settings record per provider and implements
// domain.SettingsRepository.
type Store struct {
	sql infra.SQLExecutor
}

func NewStore(sql infra.SQLExecutor) *Store {
	return &Store{sql: sql}
}

func (s *Store) GetOrCreate(ctx context.Context, provider domain.Provider) (*domain.ProviderSettings, error) {
	if !provider.Valid() {
		return nil, &domain.ValidationError{Field: "provider", Reason: "unsupported provider " + string(provider)}
	}
	var (
		settings domain.ProviderSettings
		name     string
	)
	scan := func(query string) error {
		return s.sql.QueryRow(ctx, query, string(provider)).
			Scan(&name, &settings.AuthToken, &settings.ProjectID, &settings.UpdatedAt)
	}
	err := scan(sqlinline.QGetOrCreateProviderSettings)
	if infra.IsNoRows(err) {
		// Lost the insert race; the winner's row is visible to a new statement.
		err = scan(sqlinline.QSelectProviderSettings)
	}
	if err != nil {
		return nil, err
	}
	settings.Provider = domain.Provider(name)
	settings.AuthToken = strings.TrimSpace(settings.AuthToken)
	settings.ProjectID = strings.TrimSpace(settings.ProjectID)
	return &settings, nil
}

// Save overwrites the provider's record. Empty values are stored as given so
// an operator can clear a token.
func (s *Store) Save(ctx context.Context, settings *domain.ProviderSettings) error {
	if settings == nil || !settings.Provider.Valid() {
		return &domain.ValidationError{Field: "provider", Reason: "unsupported provider"}
	}
	settings.AuthToken = strings.TrimSpace(settings.AuthToken)
	settings.ProjectID = strings.TrimSpace(settings.ProjectID)
	row := s.sql.QueryRow(ctx, sqlinline.QUpsertProviderSettings,
		string(settings.Provider), settings.AuthToken, settings.ProjectID)
	return row.Scan(&settings.UpdatedAt)
}

var _ domain.SettingsRepository = (*Store)(nil)
