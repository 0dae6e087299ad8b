package types

// Catalog is a named candidate pattern set that detection requests can refer to.
type Catalog struct {
	ID          string   `yaml:"id" json:"id" validate:"required"`
	Description string   `yaml:"description" json:"description,omitempty"`
	Patterns    []string `yaml:"patterns" json:"patterns" validate:"required,min=1,dive,pattern"`
}

// Catalogs is the document loaded by YAML and JSON sources.
type Catalogs struct {
	Catalogs []*Catalog `yaml:"catalogs" json:"catalogs" validate:"required,dive"`
}

func NewCatalog(id string, patterns ...string) *Catalog {
	return &Catalog{ID: id, Patterns: patterns}
}
