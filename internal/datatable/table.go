// Package datatable sorts, paginates and selects in-memory records for the
// server-rendered admin lists. It performs no I/O and never fails.
package datatable

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"
	"time"
)

const DefaultPageSize = 20

const (
	EmptyText   = "데이터가 없습니다."
	LoadingText = "로딩 중..."
	FailedText  = "데이터를 불러오지 못했습니다."
)

var ErrUnknownAction = errors.New("datatable: unknown action")

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Cell is a formatted value ready for the template.
type Cell struct {
	Text  string
	Class string
	Href  string
}

type Column[T any] struct {
	Key      string
	Header   string
	Sortable bool
	// Value is the raw value used for sorting and default formatting.
	Value  func(T) any
	Format func(T) Cell
}

func (c Column[T]) cell(rec T) Cell {
	if c.Format != nil {
		return c.Format(rec)
	}
	if c.Value == nil {
		return Cell{Text: "-"}
	}
	return Cell{Text: FormatValue(c.Value(rec))}
}

type Action[T any] struct {
	Name    string
	Label   string
	Variant Variant
	// Confirm is the prompt shown before a destructive action is submitted.
	Confirm string
	// Href turns the action into a plain link (detail views).
	Href func(T) string
	// InputName/InputType render an inline field posted with the action.
	InputName  string
	InputType  string
	InputValue func(T) string
	Handle     func(ctx context.Context, rec T, form url.Values) (string, error)
}

type BulkAction struct {
	Name    string
	Label   string
	Variant Variant
	Confirm string
	Handle  func(ctx context.Context, ids []string) (string, error)
}

type Table[T any] struct {
	// ID returns the stable identifier of a record.
	ID       func(T) string
	Columns  []Column[T]
	Actions  []Action[T]
	Bulk     []BulkAction
	PageSize int
	RowHref  func(T) string
	// ActionPath is the prefix for row action forms: ActionPath/{id}/actions/{name}.
	ActionPath string
}

func (t *Table[T]) pageSize() int {
	if t.PageSize <= 0 {
		return DefaultPageSize
	}
	return t.PageSize
}

func (t *Table[T]) column(key string) (Column[T], bool) {
	for _, c := range t.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

// Invoke dispatches a row action by name.
func (t *Table[T]) Invoke(ctx context.Context, name string, rec T, form url.Values) (string, error) {
	for _, a := range t.Actions {
		if a.Name == name && a.Handle != nil {
			return a.Handle(ctx, rec, form)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAction, name)
}

// InvokeBulk dispatches a selection action by name.
func (t *Table[T]) InvokeBulk(ctx context.Context, name string, ids []string) (string, error) {
	for _, b := range t.Bulk {
		if b.Name == name && b.Handle != nil {
			return b.Handle(ctx, ids)
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownAction, name)
}

// Sorted returns a sorted copy of records. Unknown or unsortable keys return
// the records in their original order.
func (t *Table[T]) Sorted(records []T, s Sort) []T {
	out := slices.Clone(records)
	col, ok := t.column(s.Key)
	if !ok || !col.Sortable || col.Value == nil {
		return out
	}
	slices.SortStableFunc(out, func(a, b T) int {
		c := Compare(col.Value(a), col.Value(b))
		if s.Dir == Desc {
			return -c
		}
		return c
	})
	return out
}

// FormatValue renders a raw column value with the defaults used across the
// admin lists. Missing values render as "-".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if strings.TrimSpace(x) == "" {
			return "-"
		}
		return x
	case time.Time:
		if x.IsZero() {
			return "-"
		}
		return x.Format("2006-01-02 15:04")
	case *time.Time:
		if x == nil || x.IsZero() {
			return "-"
		}
		return x.Format("2006-01-02 15:04")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}
