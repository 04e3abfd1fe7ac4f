// Package store defines the persistence contract the seeder depends on and
// the helpers shared by its adapters.
package store

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/Lumos-Labs-HQ/dentseed/internal/types"
	"github.com/go-viper/mapstructure/v2"
)

// Row is one persisted row keyed by column name.
type Row map[string]interface{}

// Filter matches rows whose columns equal every given value. A nil Filter
// matches all rows.
type Filter map[string]interface{}

type Store interface {
	// Insert persists rec and writes the generated key back through SetID.
	Insert(ctx context.Context, rec types.Record) error
	// Find returns every row of table matching filter, in no particular order.
	Find(ctx context.Context, table string, filter Filter) ([]Row, error)
}

// Truncater is implemented by stores that can empty tables.
type Truncater interface {
	Truncate(ctx context.Context, tables []string) error
}

// FindAll loads and decodes every matching row of table into T.
func FindAll[T any](ctx context.Context, s Store, table string, filter Filter) ([]T, error) {
	rows, err := s.Find(ctx, table, filter)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var v T
		if err := Decode(row, &v); err != nil {
			return nil, fmt.Errorf("failed to decode %s row: %w", table, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// timeLayouts covers the textual timestamps drivers hand back.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Decode copies a row into out, a pointer to a struct with mapstructure tags.
func Decode(row Row, out interface{}) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			bytesToStringHook,
			stringToTimeHook,
			stringToFloatHook,
		),
	})
	if err != nil {
		return err
	}
	return dec.Decode(map[string]interface{}(row))
}

func bytesToStringHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if b, ok := data.([]byte); ok && to.Kind() != reflect.Slice {
		return string(b), nil
	}
	return data, nil
}

func stringToTimeHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to != reflect.TypeOf(time.Time{}) {
		return data, nil
	}
	s := data.(string)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("cannot parse %q as time", s)
}

// stringToFloatHook handles NUMERIC columns that arrive as text.
func stringToFloatHook(from, to reflect.Type, data interface{}) (interface{}, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Float64 {
		return data, nil
	}
	return strconv.ParseFloat(data.(string), 64)
}
