package view

// Viewer is the signed-in user as the page chrome shows it.
type Viewer struct {
	ID    string
	Name  string
	Admin bool
}

// Layout is the data every full page renders around its content.
type Layout struct {
	Title     string
	SiteName  string
	Path      string
	CSRF      string
	Flash     *Flash
	Viewer    *Viewer
	CartCount int
	// Admin selects the admin console chrome.
	Admin bool
}

// Page pairs the layout with a page specific model.
type Page struct {
	Layout
	Data any
}

// FieldErrors maps form field names to messages.
type FieldErrors map[string]string

func (f FieldErrors) Get(name string) string { return f[name] }
func (f FieldErrors) Has(name string) bool   { _, ok := f[name]; return ok }

type ErrorPage struct {
	Status     int
	StatusText string
	Message    string
	RequestID  string
}
