package sample

import (
	"fmt"
	"io"

	"github.com/linkedin/goavro/v2"
)

// AvroColumn reads every record of an Avro object container file and returns the
// values of the named string column. Null values become empty strings.
func AvroColumn(r io.Reader, column string) ([]string, error) {
	ocf, err := goavro.NewOCFReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read avro container: %w", err)
	}
	var values []string
	for ocf.Scan() {
		datum, err := ocf.Read()
		if err != nil {
			return nil, fmt.Errorf("failed to decode avro record: %w", err)
		}
		record, ok := datum.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("avro datum must be a record but got %T", datum)
		}
		field, exists := record[column]
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, column)
		}
		value, err := avroString(field)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", column, err)
		}
		values = append(values, value)
	}
	if err := ocf.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan avro container: %w", err)
	}
	return values, nil
}

func avroString(v interface{}) (string, error) {
	switch vv := v.(type) {
	case nil:
		return "", nil
	case string:
		return vv, nil
	case []byte:
		return string(vv), nil
	case map[string]interface{}:
		// nullable fields are decoded as a single entry union
		for typ, elem := range vv {
			if typ != "string" && typ != "bytes" {
				return "", fmt.Errorf("%w: union of %s", ErrNotString, typ)
			}
			return avroString(elem)
		}
		return "", nil
	}
	return "", fmt.Errorf("%w: %T", ErrNotString, v)
}
