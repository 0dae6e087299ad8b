package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/goccy/date-detector/types"
)

type Source func(*Server) error

func YAMLSource(path string) Source {
	return func(s *Server) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dec := yaml.NewDecoder(
			bytes.NewBuffer(content),
			yaml.Validator(s.validate),
			yaml.Strict(),
		)
		var v types.Catalogs
		if err := dec.Decode(&v); err != nil {
			return errors.New(yaml.FormatError(err, false, true))
		}
		return s.addCatalogs(context.Background(), v.Catalogs)
	}
}

func JSONSource(path string) Source {
	return func(s *Server) error {
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		dec := json.NewDecoder(bytes.NewReader(content))
		dec.DisallowUnknownFields()
		var v types.Catalogs
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("failed to decode %s: %w", path, err)
		}
		if err := s.validate.Struct(&v); err != nil {
			return fmt.Errorf("invalid catalogs in %s: %w", path, err)
		}
		return s.addCatalogs(context.Background(), v.Catalogs)
	}
}

func StructSource(catalogs ...*types.Catalog) Source {
	return func(s *Server) error {
		for _, catalog := range catalogs {
			if err := s.validate.Struct(catalog); err != nil {
				return fmt.Errorf("invalid catalog %s: %w", catalog.ID, err)
			}
		}
		return s.addCatalogs(context.Background(), catalogs)
	}
}
