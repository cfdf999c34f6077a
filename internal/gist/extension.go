package gist

import "strings"

// extensionByLanguage maps editor language identifiers to the file extension
// used for the code file inside a gist container.
var extensionByLanguage = map[string]string{
	"javascript": "js",
	"typescript": "ts",
	"python":     "py",
	"java":       "java",
	"csharp":     "cs",
	"c":          "c",
	"cpp":        "cpp",
	"ruby":       "rb",
	"php":        "php",
	"go":         "go",
	"rust":       "rs",
	"html":       "html",
	"css":        "css",
	"markdown":   "md",
	"json":       "json",
	"yaml":       "yml",
	"shell":      "sh",
	"sql":        "sql",
	"plaintext":  "txt",
}

// ExtensionFor returns the file extension for a language identifier,
// falling back to "txt" for anything unknown.
func ExtensionFor(language string) string {
	if ext, ok := extensionByLanguage[strings.ToLower(language)]; ok {
		return ext
	}
	return "txt"
}
