package draft

import (
	"strings"
	"unicode/utf8"
)

// FitWithURL guarantees the final text contains url verbatim and is at most
// limit characters (runes). When the generated text omits the URL or runs
// over the budget, the text is truncated on a word boundary and the URL
// appended. The URL is never dropped or shortened.
func FitWithURL(text, url string, limit int) string {
	text = strings.Trim(strings.TrimSpace(text), `"'`)

	if strings.Contains(text, url) && utf8.RuneCountInString(text) <= limit {
		return text
	}

	if !strings.Contains(text, url) && utf8.RuneCountInString(text)+1+utf8.RuneCountInString(url) <= limit {
		return text + " " + url
	}

	// Over budget (or the URL sits in text we are about to cut): truncate to
	// make room for a trailing " <url>", backing up to the last full word.
	budget := limit - utf8.RuneCountInString(url) - 1
	if budget < 0 {
		budget = 0
	}

	runes := []rune(strings.ReplaceAll(text, url, ""))
	truncated := string(runes)
	if len(runes) > budget {
		truncated = string(runes[:budget])
		// The cut likely landed mid-word; back up to the last boundary. A
		// single unbroken token keeps the hard cut, there is nowhere to
		// back up to.
		if idx := strings.LastIndex(truncated, " "); idx > 0 {
			truncated = truncated[:idx]
		}
	}
	truncated = strings.TrimSpace(truncated)

	if truncated == "" {
		return url
	}
	return truncated + " " + url
}
