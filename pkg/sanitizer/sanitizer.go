package sanitizer

import (
	"html"
	"strings"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var htmlPolicy = bluemonday.StrictPolicy()

// MaxTextLength bounds bios, captions and chat messages, in runes.
const MaxTextLength = 2000

// Text trims input and strips null bytes. Everything else is stored as written;
// clients escape it on render.
func Text(input string) string {
	return strings.TrimSpace(strings.ReplaceAll(input, "\x00", ""))
}

// Name removes markup from a display name. Entities produced by the HTML policy
// are decoded again, so "Tom & Co" survives unchanged.
func Name(input string) string {
	return strings.TrimSpace(html.UnescapeString(htmlPolicy.Sanitize(Text(input))))
}

// TooLong reports whether s is longer than MaxTextLength runes.
func TooLong(s string) bool {
	return utf8.RuneCountInString(s) > MaxTextLength
}

// AllowedImage reports whether filename has one of the accepted image extensions.
func AllowedImage(filename string) bool {
	filename = strings.ToLower(filename)
	for _, ext := range []string{".jpg", ".jpeg", ".png"} {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}
