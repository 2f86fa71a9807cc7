// Package textproc normalizes user-supplied text so it can safely cross a
// JSON transport boundary before reaching an AI provider.
package textproc

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Sentinel replaces input that cannot be made JSON-safe by any cleaning pass.
const Sentinel = "用户输入包含无法处理的特殊字符"

var (
	// Allow-list: printable ASCII, whitespace, CJK ideographs, CJK
	// punctuation, and fullwidth forms. Everything else is stripped.
	disallowedPattern = regexp.MustCompile(`[^\x20-\x7E\s\x{4e00}-\x{9fff}\x{3000}-\x{303f}\x{ff00}-\x{ffef}]`)
	blankRunPattern   = regexp.MustCompile(`\n\s*\n\s*\n+`)
	hspaceRunPattern  = regexp.MustCompile(`[ \t]+`)
)

// Sanitize is total: for any input it returns a string that embeds into a
// JSON object and re-parses without error. Sanitizing already-sanitized text
// is a no-op.
func Sanitize(raw string) string {
	if raw == "" {
		return ""
	}

	cleaned := deepClean(raw)
	if verifyJSONSafe(cleaned) {
		return cleaned
	}

	cleaned = escapeSpecials(cleaned)
	if verifyJSONSafe(cleaned) {
		return cleaned
	}

	return Sentinel
}

// deepClean strips disallowed characters and normalizes whitespace while
// preserving paragraph structure.
func deepClean(text string) string {
	cleaned := disallowedPattern.ReplaceAllString(text, "")
	cleaned = blankRunPattern.ReplaceAllString(cleaned, "\n\n")
	cleaned = hspaceRunPattern.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// escapeSpecials is the last-resort pass: escape the characters JSON cares
// about individually. Backslashes first so later escapes are not doubled.
func escapeSpecials(text string) string {
	replacer := strings.NewReplacer(
		`\`, `\\`,
		`"`, `\"`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return replacer.Replace(text)
}

// verifyJSONSafe embeds s as a JSON string value and checks it round-trips
// unchanged.
func verifyJSONSafe(s string) bool {
	payload, err := json.Marshal(map[string]string{"text": s})
	if err != nil {
		return false
	}
	var decoded map[string]string
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return false
	}
	return decoded["text"] == s
}

// Truncate shortens text to at most max runes, appending suffix when cut.
func Truncate(text string, max int, suffix string) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + suffix
}
