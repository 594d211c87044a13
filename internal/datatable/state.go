package datatable

import (
	"net/url"
	"slices"
	"strconv"
	"strings"
)

type Dir string

const (
	Asc  Dir = "asc"
	Desc Dir = "desc"
)

type Sort struct {
	Key string
	Dir Dir
}

// Selection is an ordered set of record ids.
type Selection []string

func (s Selection) Has(id string) bool { return slices.Contains(s, id) }

func (s Selection) Toggle(id string) Selection {
	if i := slices.Index(s, id); i >= 0 {
		return slices.Delete(slices.Clone(s), i, i+1)
	}
	return append(slices.Clone(s), id)
}

// Retain keeps only ids present in visible, in selection order.
func (s Selection) Retain(visible []string) Selection {
	out := make(Selection, 0, len(s))
	for _, id := range s {
		if slices.Contains(visible, id) && !out.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// State is the table state carried in the query string.
type State struct {
	Sort     Sort
	Page     int
	Selected Selection
}

const (
	paramSort = "sort"
	paramDir  = "dir"
	paramPage = "page"
	paramSel  = "sel"
)

// StateParams lists the query keys owned by the table.
var StateParams = []string{paramSort, paramDir, paramPage, paramSel}

func ParseState(q url.Values) State {
	st := State{Page: 1}
	st.Sort.Key = strings.TrimSpace(q.Get(paramSort))
	if st.Sort.Key != "" {
		st.Sort.Dir = Asc
		if q.Get(paramDir) == string(Desc) {
			st.Sort.Dir = Desc
		}
	}
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(paramPage))); err == nil && n > 0 {
		st.Page = n
	}
	for _, id := range q[paramSel] {
		if id = strings.TrimSpace(id); id != "" && !st.Selected.Has(id) {
			st.Selected = append(st.Selected, id)
		}
	}
	return st
}

// Encode writes the state into q, replacing any previous table keys.
func (s State) Encode(q url.Values) url.Values {
	out := url.Values{}
	for k, v := range q {
		if slices.Contains(StateParams, k) {
			continue
		}
		out[k] = slices.Clone(v)
	}
	if s.Sort.Key != "" {
		out.Set(paramSort, s.Sort.Key)
		out.Set(paramDir, string(s.Sort.Dir))
	}
	if s.Page > 1 {
		out.Set(paramPage, strconv.Itoa(s.Page))
	}
	for _, id := range s.Selected {
		out.Add(paramSel, id)
	}
	return out
}

// ToggleSort applies a header click: a new key sorts ascending, the active
// key flips direction.
func (s State) ToggleSort(key string) State {
	next := s
	if s.Sort.Key == key {
		next.Sort.Dir = Asc
		if s.Sort.Dir == Asc {
			next.Sort.Dir = Desc
		}
		return next
	}
	next.Sort = Sort{Key: key, Dir: Asc}
	return next
}

func (s State) ToggleRow(id string) State {
	next := s
	next.Selected = s.Selected.Toggle(id)
	return next
}

// ToggleAll selects every visible id, or clears the selection when all of
// them are already selected.
func (s State) ToggleAll(visible []string) State {
	next := s
	if AllSelected(s.Selected, visible) {
		next.Selected = nil
		return next
	}
	next.Selected = slices.Clone(visible)
	return next
}

func (s State) WithPage(p int) State {
	next := s
	next.Page = p
	next.Selected = nil
	return next
}

// AllSelected reports whether visible is non-empty and fully selected.
func AllSelected(sel Selection, visible []string) bool {
	if len(visible) == 0 {
		return false
	}
	for _, id := range visible {
		if !sel.Has(id) {
			return false
		}
	}
	return true
}
