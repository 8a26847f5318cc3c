package ast

// EscapeType records which escaping convention a quoted string's source text
// used, so a formatter can round-trip it instead of re-escaping from scratch.
type EscapeType int

const (
	EscapeTypeUnknown EscapeType = iota
	EscapeTypeNone
	EscapeTypeCStyle
)

// StringMetadata carries the original quoted source text behind a RawString,
// for formatters that prefer to reproduce input verbatim over re-escaping a
// normalized value.
type StringMetadata struct {
	Raw    string // full original token text, including surrounding quotes
	Escape EscapeType
}

// HasOriginal reports whether m carries usable source text.
func (m *StringMetadata) HasOriginal() bool {
	return m != nil && m.Raw != ""
}

// QuotedContent returns the original quoted source text (including quotes),
// or empty string if unavailable.
func (m *StringMetadata) QuotedContent() string {
	if m == nil {
		return ""
	}
	return m.Raw
}

// RawString is a parsed string literal: Value holds the unescaped logical
// content, Meta (when present) holds the original source text for
// round-trip formatting.
type RawString struct {
	Value string
	Meta  *StringMetadata
}

// NewRawString wraps a logical string value with no original source text.
func NewRawString(value string) RawString {
	return RawString{Value: value}
}

// NewRawStringWithRaw wraps a logical string value together with the raw
// quoted source text it was parsed from.
func NewRawStringWithRaw(raw, value string) RawString {
	escape := EscapeTypeNone
	for i := 0; i < len(raw); i++ {
		if raw[i] == '\\' {
			escape = EscapeTypeCStyle
			break
		}
	}
	return RawString{Value: value, Meta: &StringMetadata{Raw: raw, Escape: escape}}
}

func (r RawString) String() string {
	return r.Value
}
