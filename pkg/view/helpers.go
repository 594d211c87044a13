// Package view holds formatting helpers and page models shared by the
// templates and handlers.
package view

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var krPrinter = message.NewPrinter(language.Korean)

// KRW formats an amount in won with digit grouping, e.g. ₩1,234,000.
func KRW(amount int64) string {
	if amount < 0 {
		return "-" + krPrinter.Sprintf("₩%d", -amount)
	}
	return krPrinter.Sprintf("₩%d", amount)
}

// Won formats an amount as 1,234,000원.
func Won(amount int64) string {
	return krPrinter.Sprintf("%d원", amount)
}

// Number groups digits, e.g. 12,345.
func Number(n int64) string {
	return krPrinter.Sprintf("%d", n)
}

// Date formats t as 2006-01-02 in loc; the zero time renders as "-".
func Date(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02")
}

// DateTime formats t as 2006-01-02 15:04 in loc.
func DateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return "-"
	}
	return t.In(loc).Format("2006-01-02 15:04")
}

// DateTimePtr is DateTime for optional timestamps.
func DateTimePtr(t *time.Time, loc *time.Location) string {
	if t == nil {
		return "-"
	}
	return DateTime(*t, loc)
}
