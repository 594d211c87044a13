// Package filter builds conjunctive predicates over in-memory records for
// the admin list pages.
package filter

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// All is the categorical sentinel that disables an Equals predicate.
const All = "all"

type Predicate[T any] func(T) bool

// And combines predicates with logical AND. Nil predicates are ignored and
// an empty list matches everything.
func And[T any](ps ...Predicate[T]) Predicate[T] {
	active := make([]Predicate[T], 0, len(ps))
	for _, p := range ps {
		if p != nil {
			active = append(active, p)
		}
	}
	return func(rec T) bool {
		for _, p := range active {
			if !p(rec) {
				return false
			}
		}
		return true
	}
}

// Apply returns the records matching p in their original order. The input
// slice is never modified.
func Apply[T any](records []T, p Predicate[T]) []T {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		if p == nil || p(rec) {
			out = append(out, rec)
		}
	}
	return out
}

var folder = cases.Fold()

func fold(s string) string { return folder.String(s) }

// Text matches records where any field contains q, ignoring case. An empty
// query matches everything.
func Text[T any](q string, fields ...func(T) string) Predicate[T] {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil
	}
	needle := fold(q)
	return func(rec T) bool {
		for _, f := range fields {
			if strings.Contains(fold(f(rec)), needle) {
				return true
			}
		}
		return false
	}
}

// Equals matches records whose field equals v exactly. "all" and the empty
// string disable the predicate.
func Equals[T any](v string, field func(T) string) Predicate[T] {
	v = strings.TrimSpace(v)
	if v == "" || v == All {
		return nil
	}
	return func(rec T) bool { return field(rec) == v }
}

// Between matches records whose timestamp falls inside r.
func Between[T any](r Range, field func(T) time.Time) Predicate[T] {
	if r.From == nil && r.To == nil {
		return nil
	}
	return func(rec T) bool { return r.Contains(field(rec)) }
}
