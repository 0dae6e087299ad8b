package server

import "fmt"

// Storage is the sqlite data source catalogs are kept in.
type Storage string

const (
	MemoryStorage Storage = "file::memory:?cache=shared"
	TempStorage   Storage = "tmp"
)

// FileStorage keeps catalogs in the sqlite database at path.
func FileStorage(path string) Storage {
	return Storage(fmt.Sprintf("file:%s?cache=shared", path))
}
