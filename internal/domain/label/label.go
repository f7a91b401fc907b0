// Package label picks the display string for a report field among its three
// language variants. Every label a report prints goes through Resolve.
package label

import "strings"

// LangType selects which language slot a user reads reports in.
type LangType int

const (
	LangDefault    LangType = 0
	LangPreferred  LangType = 1
	LangSupportive LangType = 2
)

// Normalize maps a raw language code to a LangType. Unknown codes map to
// LangDefault and report ok=false so the caller can log the anomaly.
func Normalize(raw int) (LangType, bool) {
	switch LangType(raw) {
	case LangDefault, LangPreferred, LangSupportive:
		return LangType(raw), true
	}
	return LangDefault, false
}

// Resolve returns the candidate for lang, falling back to def when that
// candidate is empty or whitespace-only.
func Resolve(lang LangType, def, preferred, supportive string) string {
	var candidate string
	switch lang {
	case LangPreferred:
		candidate = preferred
	case LangSupportive:
		candidate = supportive
	default:
		return def
	}
	if strings.TrimSpace(candidate) == "" {
		return def
	}
	return candidate
}

// Text is a label stored in all three language slots.
type Text struct {
	Default    string `db:"name" json:"default"`
	Preferred  string `db:"name_preferred" json:"preferred,omitempty"`
	Supportive string `db:"name_supportive" json:"supportive,omitempty"`
}

// Plain builds a Text with only the default slot filled.
func Plain(s string) Text {
	return Text{Default: s}
}

// In resolves t for lang.
func (t Text) In(lang LangType) string {
	return Resolve(lang, t.Default, t.Preferred, t.Supportive)
}
