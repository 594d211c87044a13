package view

type FlashKind string

const (
	FlashInfo    FlashKind = "info"
	FlashSuccess FlashKind = "success"
	FlashWarning FlashKind = "warning"
	FlashError   FlashKind = "error"
)

// Flash is a one-shot message carried across a redirect.
type Flash struct {
	Kind    FlashKind `json:"k"`
	Message string    `json:"m"`
}

func (f Flash) Class() string {
	switch f.Kind {
	case FlashSuccess, FlashWarning, FlashError:
		return "flash flash-" + string(f.Kind)
	default:
		return "flash flash-info"
	}
}
