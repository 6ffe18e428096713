package image

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf16"
)

const (
	PlaceholderPath = "/placeholder.svg"

	placeholderTextLimit = 50
)

var componentReplacer = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent escapes s the way browsers' encodeURIComponent does.
func EscapeComponent(s string) string {
	return componentReplacer.Replace(url.QueryEscape(s))
}

// Placeholder builds the reference shown when the provider returns no image.
// The text is the first 50 UTF-16 units of the trimmed prompt.
func Placeholder(width, height int, prompt string) string {
	return fmt.Sprintf("%s?height=%d&width=%d&text=%s", PlaceholderPath, height, width,
		EscapeComponent(truncateUTF16(strings.TrimSpace(prompt), placeholderTextLimit)))
}

// truncateUTF16 keeps the first n UTF-16 code units of s, the unit browsers
// count string length in. A surrogate pair split at the cut is dropped.
func truncateUTF16(s string, n int) string {
	units := utf16.Encode([]rune(s))
	if len(units) <= n {
		return s
	}
	units = units[:n]
	if last := rune(units[n-1]); last >= 0xD800 && last < 0xDC00 {
		units = units[:n-1]
	}
	return string(utf16.Decode(units))
}

// IsPlaceholder reports whether ref was built by Placeholder.
func IsPlaceholder(ref string) bool {
	return strings.HasPrefix(ref, PlaceholderPath+"?") || ref == PlaceholderPath
}
