package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	scriptTagRegex = regexp.MustCompile(`(?i)<script\b[^>]*>.*?</script>`)
	jsEventRegex   = regexp.MustCompile(`(?i)\s*on\w+\s*=\s*("[^"]*"|'[^']*')`)
	jsProtoRegex   = regexp.MustCompile(`(?i)javascript\s*:`)
	ansiRegex      = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)
)

// maxMessageLength bounds user-authored notification text.
const maxMessageLength = 10000

// Apply runs value through the given transforms in order.
func Apply[T any](value T, transforms ...func(T) T) T {
	result := value
	for _, transform := range transforms {
		result = transform(result)
	}
	return result
}

// Compose builds a reusable transform pipeline.
func Compose[T any](transforms ...func(T) T) func(T) T {
	return func(value T) T {
		return Apply(value, transforms...)
	}
}

// StripScriptTags removes <script> tags and their content.
func StripScriptTags(s string) string {
	return scriptTagRegex.ReplaceAllString(s, "")
}

// RemoveJavaScriptEvents removes on* event handler attributes and
// javascript: protocols.
func RemoveJavaScriptEvents(s string) string {
	return jsProtoRegex.ReplaceAllString(jsEventRegex.ReplaceAllString(s, ""), "")
}

// RemoveControlSequences removes ANSI escape sequences and control
// characters other than newline, carriage return and tab.
func RemoveControlSequences(s string) string {
	result := ansiRegex.ReplaceAllString(s, "")
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, result)
}

// LimitLength truncates input to maxLength runes.
func LimitLength(s string, maxLength int) string {
	if maxLength <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}
	return string(runes[:maxLength])
}

// MessageHTML is the pipeline applied to user-authored notification text.
// The markup itself is kept so the message can render as simple HTML in
// mail clients; only active content is removed.
var MessageHTML = Compose(
	StripScriptTags,
	RemoveJavaScriptEvents,
	RemoveControlSequences,
	strings.TrimSpace,
	func(s string) string { return LimitLength(s, maxMessageLength) },
)
