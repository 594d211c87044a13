package datatable

import (
	"net/url"
)

type HeaderView struct {
	Key      string
	Label    string
	Sortable bool
	Active   bool
	Dir      Dir
	Href     string
}

type ActionView struct {
	Name        string
	Label       string
	Destructive bool
	Confirm     string
	Href        string
	FormAction  string
	InputName   string
	InputType   string
	InputValue  string
}

type RowView struct {
	ID         string
	Href       string
	Cells      []Cell
	Selected   bool
	ToggleHref string
	Actions    []ActionView
}

type PageLink struct {
	Number  int
	Href    string
	Current bool
}

type BulkView struct {
	Name        string
	Label       string
	Destructive bool
	Confirm     string
}

// View is the render model of one table page.
type View struct {
	Phase       Phase
	Message     string
	Headers     []HeaderView
	Rows        []RowView
	ColSpan     int
	Total       int
	Page        int
	Pages       int
	PageLinks   []PageLink
	PrevHref    string
	NextHref    string
	Selectable  bool
	HasBulk     bool
	HasActions  bool
	AllSelected bool
	ToggleAll   string
	SelectedIDs []string
	Bulk        []BulkView
	BulkPath    string
	// Query is the current query string for forms that redirect back.
	Query string
}

func (v View) Empty() bool   { return v.Phase == PhaseLoaded && len(v.Rows) == 0 }
func (v View) Loading() bool { return v.Phase == PhaseLoading || v.Phase == PhaseIdle }
func (v View) Failed() bool  { return v.Phase == PhaseFailed }
func (v View) HasPrev() bool { return v.PrevHref != "" }
func (v View) HasNext() bool { return v.NextHref != "" }

func (v View) EmptyText() string   { return EmptyText }
func (v View) LoadingText() string { return LoadingText }

// Link builds hrefs that keep the page path and its non-table query params.
type Link struct {
	Path  string
	Query url.Values
}

func (l Link) Href(st State) string {
	q := st.Encode(l.Query).Encode()
	if q == "" {
		return l.Path
	}
	return l.Path + "?" + q
}

// Build renders one page of a snapshot for the given state. Records are
// expected to be filtered already; sorting and pagination happen here.
func (t *Table[T]) Build(snap Snapshot[T], st State, link Link) View {
	v := View{
		Phase:      snap.Phase,
		Selectable: true,
		HasBulk:    len(t.Bulk) > 0,
		HasActions: len(t.Actions) > 0,
		BulkPath:   t.ActionPath + "/bulk",
		Query:      st.Encode(link.Query).Encode(),
	}
	v.ColSpan = len(t.Columns)
	if v.Selectable {
		v.ColSpan++
	}
	if v.HasActions {
		v.ColSpan++
	}

	for _, c := range t.Columns {
		h := HeaderView{Key: c.Key, Label: c.Header, Sortable: c.Sortable && c.Value != nil}
		if h.Sortable {
			h.Active = st.Sort.Key == c.Key
			if h.Active {
				h.Dir = st.Sort.Dir
			}
			h.Href = link.Href(st.ToggleSort(c.Key).WithPage(1))
		}
		v.Headers = append(v.Headers, h)
	}
	for _, b := range t.Bulk {
		v.Bulk = append(v.Bulk, BulkView{
			Name:        b.Name,
			Label:       b.Label,
			Destructive: b.Variant == VariantDestructive,
			Confirm:     b.Confirm,
		})
	}

	switch snap.Phase {
	case PhaseFailed:
		v.Message = FailedText
		return v
	case PhaseLoaded:
	default:
		return v
	}

	sorted := t.Sorted(snap.Records, st.Sort)
	w := Paginate(len(sorted), st.Page, t.pageSize())
	visible := sorted[w.Start:w.End]

	ids := make([]string, len(visible))
	for i, rec := range visible {
		ids[i] = t.ID(rec)
	}
	st.Page = w.Page
	st.Selected = st.Selected.Retain(ids)

	v.Total = len(sorted)
	v.Page = w.Page
	v.Pages = w.Pages
	v.Query = st.Encode(link.Query).Encode()
	v.SelectedIDs = st.Selected
	v.AllSelected = AllSelected(st.Selected, ids)
	v.ToggleAll = link.Href(st.ToggleAll(ids))

	for i, rec := range visible {
		row := RowView{
			ID:         ids[i],
			Selected:   st.Selected.Has(ids[i]),
			ToggleHref: link.Href(st.ToggleRow(ids[i])),
		}
		if t.RowHref != nil {
			row.Href = t.RowHref(rec)
		}
		for _, c := range t.Columns {
			row.Cells = append(row.Cells, c.cell(rec))
		}
		for _, a := range t.Actions {
			av := ActionView{
				Name:        a.Name,
				Label:       a.Label,
				Destructive: a.Variant == VariantDestructive,
				Confirm:     a.Confirm,
				InputName:   a.InputName,
				InputType:   a.InputType,
			}
			if a.Href != nil {
				av.Href = a.Href(rec)
			} else {
				av.FormAction = t.ActionPath + "/" + url.PathEscape(ids[i]) + "/actions/" + url.PathEscape(a.Name)
			}
			if a.InputValue != nil {
				av.InputValue = a.InputValue(rec)
			}
			row.Actions = append(row.Actions, av)
		}
		v.Rows = append(v.Rows, row)
	}

	for p := 1; p <= w.Pages; p++ {
		v.PageLinks = append(v.PageLinks, PageLink{
			Number:  p,
			Href:    link.Href(st.WithPage(p)),
			Current: p == w.Page,
		})
	}
	if w.Page > 1 {
		v.PrevHref = link.Href(st.WithPage(w.Page - 1))
	}
	if w.Page < w.Pages {
		v.NextHref = link.Href(st.WithPage(w.Page + 1))
	}
	return v
}
