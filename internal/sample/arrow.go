package sample

import (
	"errors"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v10/arrow"
	"github.com/apache/arrow/go/v10/arrow/array"
	"github.com/apache/arrow/go/v10/arrow/ipc"
	"github.com/apache/arrow/go/v10/arrow/memory"
)

var (
	ErrColumnNotFound = errors.New("column not found")
	ErrNotString      = errors.New("column is not a string")
)

// ArrowColumn reads an Arrow IPC stream and returns the values of the named utf8
// column across all record batches. Null values become empty strings.
func ArrowColumn(r io.Reader, column string) ([]string, error) {
	mem := memory.NewGoAllocator()
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, fmt.Errorf("failed to read arrow stream: %w", err)
	}
	defer reader.Release()

	indices := reader.Schema().FieldIndices(column)
	if len(indices) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
	}
	idx := indices[0]
	if typ := reader.Schema().Field(idx).Type; typ.ID() != arrow.STRING {
		return nil, fmt.Errorf("%w: %s is %s", ErrNotString, column, typ)
	}

	var values []string
	for reader.Next() {
		rec := reader.Record()
		col, ok := rec.Column(idx).(*array.String)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotString, column)
		}
		for i := 0; i < col.Len(); i++ {
			if col.IsNull(i) {
				values = append(values, "")
				continue
			}
			values = append(values, col.Value(i))
		}
	}
	if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to read arrow record: %w", err)
	}
	return values, nil
}
