// Package fixture ships the bundled case data set and seeds a store with it.
//
// The document carries a schemaVersion. A store remembers the version it
// was last seeded with; when the bundled version differs the fixture cases
// are rewritten, otherwise the store is left alone.
package fixture

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/hongminglow/casetrack-be/internal/cases"
	"github.com/hongminglow/casetrack-be/internal/models"
	"github.com/hongminglow/casetrack-be/internal/models/dto"
	"github.com/hongminglow/casetrack-be/internal/storage"
)

//go:embed cases.json
var bundled []byte

// Document is the on-disk fixture layout.
type Document struct {
	SchemaVersion int               `json:"schemaVersion"`
	Cases         []dto.CaseRequest `json:"cases"`
}

// Store is the subset of storage the seeder needs.
type Store interface {
	storage.SeedStore
	UpsertCases(ctx context.Context, list []models.Case) error
}

// Bundled parses the embedded fixture.
func Bundled(now time.Time) (int, []models.Case, error) {
	return Parse(bundled, now)
}

// Parse decodes and validates a fixture document.
func Parse(data []byte, now time.Time) (int, []models.Case, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return 0, nil, fmt.Errorf("decode fixture: %w", err)
	}
	if doc.SchemaVersion <= 0 {
		return 0, nil, fmt.Errorf("fixture schemaVersion must be positive, got %d", doc.SchemaVersion)
	}
	out := make([]models.Case, 0, len(doc.Cases))
	seen := make(map[string]struct{}, len(doc.Cases))
	for i, req := range doc.Cases {
		c, err := cases.FromRequest(req, now)
		if err != nil {
			return 0, nil, fmt.Errorf("fixture case %d: %w", i, err)
		}
		if _, dup := seen[c.CaseNumber]; dup {
			return 0, nil, fmt.Errorf("fixture case %d: duplicate case number %s", i, c.CaseNumber)
		}
		seen[c.CaseNumber] = struct{}{}
		out = append(out, c)
	}
	return doc.SchemaVersion, out, nil
}

// Seed loads list into store unless it was already seeded with version.
// It reports whether any cases were written.
func Seed(ctx context.Context, store Store, version int, list []models.Case, logger zerolog.Logger) (bool, error) {
	current, err := store.SeedVersion(ctx)
	if err != nil {
		return false, fmt.Errorf("read seed version: %w", err)
	}
	if current == version {
		logger.Debug().Int("version", version).Msg("fixture already loaded")
		return false, nil
	}
	if err := store.UpsertCases(ctx, list); err != nil {
		return false, fmt.Errorf("seed cases: %w", err)
	}
	if err := store.SetSeedVersion(ctx, version); err != nil {
		return false, err
	}
	logger.Info().Int("from", current).Int("to", version).Int("cases", len(list)).Msg("fixture seeded")
	return true, nil
}
