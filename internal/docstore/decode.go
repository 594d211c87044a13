package docstore

import (
	"maps"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Decode copies the document body into out using `doc` struct tags. The
// keys id, createdAt and updatedAt are filled from the document metadata.
func (d Document) Decode(out any) error {
	m := make(map[string]any, len(d.Data)+3)
	maps.Copy(m, d.Data)
	m["id"] = d.ID
	m["createdAt"] = d.CreatedAt
	m["updatedAt"] = d.UpdatedAt

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "doc",
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			emptyStringToZeroTime,
			mapstructure.StringToTimeHookFunc(time.RFC3339Nano),
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(m)
}

// DecodeAll decodes every document with fn, which normalizes one record.
func DecodeAll[T any](docs []Document, fn func(Document) (T, error)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		rec, err := fn(d)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

var timeType = reflect.TypeOf(time.Time{})

func emptyStringToZeroTime(from, to reflect.Type, data any) (any, error) {
	if from.Kind() == reflect.String && to == timeType && data == "" {
		return time.Time{}, nil
	}
	return data, nil
}
