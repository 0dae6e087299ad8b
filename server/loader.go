package server

import (
	"context"
	"fmt"

	"github.com/goccy/date-detector/types"
)

func (s *Server) addCatalogs(ctx context.Context, catalogs []*types.Catalog) error {
	tx, err := s.catalogRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	for _, catalog := range catalogs {
		if err := s.catalogRepo.AddOrUpdateCatalog(ctx, tx, catalog); err != nil {
			tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalogs: %w", err)
	}
	return nil
}

// resolvePatterns returns the explicit patterns followed by those of the catalog
// named catalogID. An unknown catalog is a notFound error.
func (s *Server) resolvePatterns(ctx context.Context, patterns []string, catalogID string) ([]string, *ServerError) {
	resolved := append([]string{}, patterns...)
	if catalogID != "" {
		catalog, err := s.catalogRepo.FindCatalog(ctx, nil, catalogID)
		if err != nil {
			return nil, errInternalError(err.Error())
		}
		if catalog == nil {
			return nil, errNotFound(fmt.Sprintf("catalog %s is not found", catalogID))
		}
		resolved = append(resolved, catalog.Patterns...)
	}
	if len(resolved) == 0 {
		return nil, errInvalidAt("patterns", "patterns or catalogId is required")
	}
	return resolved, nil
}
