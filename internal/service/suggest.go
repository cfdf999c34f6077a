package service

import (
	"regexp"
	"strings"
)

// Suggestion is the metadata guess offered when saving a selection: the UI
// pre-fills the save prompt with it and the user can override everything.
type Suggestion struct {
	Title       string   `json:"title"`
	Tags        []string `json:"tags"`
	Description string   `json:"description"`
}

var firstCommentPattern = regexp.MustCompile(`//\s*(.*)|#\s*(.*)|/\*\s*(.*?)\s*\*/`)

// extractFirstIdent returns the identifier following the first occurrence of
// the keyword, e.g. extractFirstIdent(code, "func") on "func parseArgs(" is
// "parseArgs".
func extractFirstIdent(code, keyword string) string {
	re := regexp.MustCompile(regexp.QuoteMeta(keyword) + `\s+([A-Za-z0-9_$]+)`)
	if m := re.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	return ""
}

// SuggestMetadata derives a title, tag set, and description from a code
// selection using cheap per-language heuristics. Pure function, no storage.
func SuggestMetadata(code, language string) Suggestion {
	var title string
	tags := []string{language}

	switch language {
	case "javascript", "typescript":
		for _, kw := range []string{"function", "class", "const", "let"} {
			if title = extractFirstIdent(code, kw); title != "" {
				break
			}
		}
		if strings.Contains(code, "fetch(") || strings.Contains(code, "axios.") {
			tags = append(tags, "api")
		}
		if strings.Contains(code, "React.") {
			tags = append(tags, "react")
		}
		if strings.Contains(code, "useState") || strings.Contains(code, "useEffect") {
			tags = append(tags, "hooks")
		}
		if strings.Contains(code, "async ") {
			tags = append(tags, "async")
		}
	case "python":
		if title = extractFirstIdent(code, "def"); title == "" {
			title = extractFirstIdent(code, "class")
		}
		if strings.Contains(code, "import requests") {
			tags = append(tags, "api")
		}
		if strings.Contains(code, "pandas") {
			tags = append(tags, "data")
		}
		if strings.Contains(code, "async ") {
			tags = append(tags, "async")
		}
	case "go":
		if title = extractFirstIdent(code, "func"); title == "" {
			title = extractFirstIdent(code, "type")
		}
		if strings.Contains(code, "http.") {
			tags = append(tags, "api")
		}
		if strings.Contains(code, "go func") || strings.Contains(code, "chan ") {
			tags = append(tags, "concurrency")
		}
	}

	var description string
	if m := firstCommentPattern.FindStringSubmatch(code); m != nil {
		for _, group := range m[1:] {
			if group != "" {
				description = group
				break
			}
		}
	}

	if title == "" {
		title = "Code Snippet"
	}
	return Suggestion{Title: title, Tags: tags, Description: description}
}
