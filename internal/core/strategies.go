package core

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/JonMunkholm/stmtimport/internal/export"
	"github.com/JonMunkholm/stmtimport/internal/logging"
	"github.com/JonMunkholm/stmtimport/internal/strategy"
)

// namePolicy strips every tag from user supplied names.
var namePolicy = bluemonday.StrictPolicy()

// SanitizeName removes markup and surrounding whitespace from a name.
// Entities the policy escapes are decoded again; output is escaped when rendered.
func SanitizeName(name string) string {
	return strings.TrimSpace(html.UnescapeString(namePolicy.Sanitize(name)))
}

func (s *ImportService) ListStrategies(ctx context.Context) ([]*strategy.Strategy, error) {
	return s.store.ListStrategies(ctx)
}

func (s *ImportService) GetStrategy(ctx context.Context, id int64) (*strategy.Strategy, error) {
	return s.store.GetStrategy(ctx, id)
}

// MatchStrategies returns every stored strategy whose identification
// columns equal headings, in store order.
func (s *ImportService) MatchStrategies(ctx context.Context, headings []string) ([]*strategy.Strategy, error) {
	all, err := s.store.ListStrategies(ctx)
	if err != nil {
		return nil, err
	}
	return strategy.FindAllMatchingStrategies(headings, all), nil
}

// CreateStrategy sanitizes and validates st, then stores it.
func (s *ImportService) CreateStrategy(ctx context.Context, st *strategy.Strategy) (*strategy.Strategy, error) {
	clean, err := sanitizeStrategy(st)
	if err != nil {
		return nil, err
	}
	created, err := s.store.CreateStrategy(ctx, clean)
	if err != nil {
		return nil, err
	}
	logging.WithFields(ctx, "strategy", created.Name).Info("strategy created", "id", created.ID)
	return created, nil
}

// UpdateStrategy replaces the strategy with id.
func (s *ImportService) UpdateStrategy(ctx context.Context, id int64, st *strategy.Strategy) (*strategy.Strategy, error) {
	clean, err := sanitizeStrategy(st)
	if err != nil {
		return nil, err
	}
	clean.ID = id
	updated, err := s.store.UpdateStrategy(ctx, clean)
	if err != nil {
		return nil, err
	}
	logging.WithFields(ctx, "strategy", updated.Name).Info("strategy updated", "id", id)
	return updated, nil
}

func (s *ImportService) DeleteStrategy(ctx context.Context, id int64) error {
	if err := s.store.DeleteStrategy(ctx, id); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("strategy deleted", "id", id)
	return nil
}

// sanitizeStrategy rebuilds st through strategy.New with a cleaned name.
func sanitizeStrategy(st *strategy.Strategy) (*strategy.Strategy, error) {
	if st == nil {
		return nil, fmt.Errorf("%w: strategy is empty", strategy.ErrInvalidMapping)
	}
	clean, err := strategy.New(SanitizeName(st.Name), st.IdentificationColumns, st.Mappings(), st.AttributeMappings)
	if err != nil {
		return nil, err
	}
	clean.ID = st.ID
	return clean, nil
}

func (s *ImportService) exporter() *export.Service {
	return export.NewService(s.store, s.store)
}

// ExportStrategy converts the stored strategy with id into an export document.
func (s *ImportService) ExportStrategy(ctx context.Context, id int64) (*export.Document, error) {
	st, err := s.store.GetStrategy(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.exporter().ToExport(ctx, st)
}

// ParseExport lists the references in doc this database cannot resolve.
func (s *ImportService) ParseExport(ctx context.Context, doc *export.Document) ([]export.UnresolvedReference, error) {
	return s.exporter().ParseExport(ctx, doc)
}

// ImportStrategy resolves doc against this database and stores the result.
// New entity names are sanitized like strategy names.
func (s *ImportService) ImportStrategy(ctx context.Context, doc *export.Document, resolutions []export.Resolution) (*strategy.Strategy, error) {
	cleaned := make([]export.Resolution, len(resolutions))
	for i, r := range resolutions {
		if r.Action == export.ActionCreate && r.NewName != "" {
			r.NewName = SanitizeName(r.NewName)
		}
		cleaned[i] = r
	}
	built, err := s.exporter().CreateStrategyFromExport(ctx, doc, cleaned)
	if err != nil {
		return nil, err
	}
	return s.CreateStrategy(ctx, built)
}
