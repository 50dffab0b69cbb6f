package normalize

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// stripFences removes fenced code-block markers around the payload.
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(cleaned)
		if idx := strings.LastIndex(cleaned, "```"); idx != -1 {
			cleaned = cleaned[:idx]
		}
	}

	cleaned = strings.Trim(cleaned, "`")
	return strings.TrimSpace(cleaned)
}

// repair is a pure textual transformation tried in sequence. Each one is
// independently unit-testable and the chain is cumulative: later repairs
// see the output of earlier ones.
type repair func(string) string

var repairs = []repair{
	normalizeQuoteRunes,
	singleToDoubleQuotes,
	removeTrailingSeparators,
	quoteBareKeys,
}

var (
	smartQuoteReplacer = strings.NewReplacer(
		"“", `"`, "”", `"`, // curly double quotes
		"‘", "'", "’", "'", // curly single quotes
	)

	trailingSeparatorRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe           = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_-]*)(\s*:)`)
)

// normalizeQuoteRunes turns typographic quote characters into ASCII ones.
func normalizeQuoteRunes(s string) string {
	return smartQuoteReplacer.Replace(s)
}

// singleToDoubleQuotes rewrites single-quote-delimited tokens as proper JSON
// strings, escaping any double quotes inside them. Apostrophes inside
// double-quoted strings are left alone.
func singleToDoubleQuotes(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inDouble := false
	inSingle := false
	escaped := false

	for _, r := range s {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}

		switch {
		case r == '\\' && (inDouble || inSingle):
			b.WriteRune(r)
			escaped = true
		case r == '"' && !inSingle:
			inDouble = !inDouble
			b.WriteRune(r)
		case r == '"' && inSingle:
			b.WriteString(`\"`)
		case r == '\'' && !inDouble:
			inSingle = !inSingle
			b.WriteRune('"')
		default:
			b.WriteRune(r)
		}
	}

	return b.String()
}

// removeTrailingSeparators drops dangling commas before closing brackets.
func removeTrailingSeparators(s string) string {
	return trailingSeparatorRe.ReplaceAllString(s, "$1")
}

// quoteBareKeys adds missing quoting around bare object keys.
func quoteBareKeys(s string) string {
	return bareKeyRe.ReplaceAllString(s, `$1"$2"$3`)
}

// scanCandidates collects balanced bracket-delimited substrings, longest
// first, skipping brackets inside string literals.
func scanCandidates(s string, open, close byte) []string {
	var candidates []string

	for start := 0; start < len(s); start++ {
		if s[start] != open {
			continue
		}

		depth := 0
		inString := false
		escaped := false
		for i := start; i < len(s); i++ {
			c := s[i]
			if escaped {
				escaped = false
				continue
			}
			switch {
			case c == '\\' && inString:
				escaped = true
			case c == '"':
				inString = !inString
			case c == open && !inString:
				depth++
			case c == close && !inString:
				depth--
				if depth == 0 {
					candidates = append(candidates, s[start:i+1])
					i = len(s)
				}
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})

	return candidates
}

var quotedStringRe = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)

// recoverAnalysisFields fills absent numeric fields and the recommendations
// list by narrow pattern extraction from the raw text. A half-parsed record
// is preferred over failing the whole response.
func recoverAnalysisFields(obj map[string]any, raw string) {
	numericFields := []string{
		"overallScore", "atsCompatibility", "keywordOptimization", "experienceRelevance",
	}

	for _, field := range numericFields {
		if _, ok := obj[field]; ok {
			continue
		}
		names := append([]string{field}, analysisAliases[field]...)
		for _, name := range names {
			if v, ok := extractInt(raw, name); ok {
				obj[field] = v
				break
			}
		}
	}

	if _, ok := obj["recommendations"]; !ok {
		names := append([]string{"recommendations"}, analysisAliases["recommendations"]...)
		for _, name := range names {
			if items, ok := extractStringList(raw, name); ok {
				obj["recommendations"] = items
				break
			}
		}
	}
}

// extractInt finds `"<field>": <integer>` directly in the raw text.
func extractInt(raw, field string) (int, bool) {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*(-?\d+)`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return 0, false
	}

	v, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return v, true
}

// extractStringList pulls a quoted-string array field out of the raw text,
// tolerating embedded escaped quotes inside items.
func extractStringList(raw, field string) ([]string, bool) {
	re := regexp.MustCompile(`(?s)"` + regexp.QuoteMeta(field) + `"\s*:\s*\[(.*?)\]`)
	m := re.FindStringSubmatch(raw)
	if m == nil {
		return nil, false
	}

	var items []string
	for _, sub := range quotedStringRe.FindAllStringSubmatch(m[1], -1) {
		item := strings.ReplaceAll(sub[1], `\"`, `"`)
		item = strings.ReplaceAll(item, `\\`, `\`)
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}

	if len(items) == 0 {
		return nil, false
	}
	return items, true
}
