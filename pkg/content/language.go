package content

import (
	"math/rand/v2"
	"strings"
)

// Any asks for one concrete language to be chosen per run.
const Any = "any"

// Picker chooses an index in [0, n).
type Picker interface {
	IntN(n int) int
}

type randPicker struct{}

func (randPicker) IntN(n int) int { return rand.IntN(n) }

var RandomPicker Picker = randPicker{}

var extensions = map[string]string{
	"python":     "py",
	"javascript": "js",
	"typescript": "ts",
	"java":       "java",
	"cpp":        "cpp",
	"c++":        "cpp",
	"go":         "go",
	"rust":       "rs",
	"ruby":       "rb",
	"swift":      "swift",
	"kotlin":     "kt",
	"php":        "php",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"shell":      "sh",
	"bash":       "sh",
	"any":        "txt",
}

// Languages is the pool the Any sentinel draws from.
var Languages = []string{
	"python", "javascript", "typescript", "java", "cpp", "go",
	"rust", "ruby", "swift", "kotlin", "php", "shell",
}

func normalize(language string) string {
	return strings.ToLower(strings.TrimSpace(language))
}

// Extension returns the file extension for language, "txt" when unknown.
func Extension(language string) string {
	if ext, ok := extensions[normalize(language)]; ok {
		return ext
	}
	return "txt"
}

func IsKnown(language string) bool {
	_, ok := extensions[normalize(language)]
	return ok && normalize(language) != Any
}

// ResolveLanguage turns a stored preference into one concrete language. Blank
// preferences behave like Any.
func ResolveLanguage(preference string, picker Picker) string {
	lang := normalize(preference)
	if lang != "" && lang != Any {
		return lang
	}
	if picker == nil {
		picker = RandomPicker
	}
	return Languages[picker.IntN(len(Languages))]
}

// LanguageFromStack finds the first known language named in a free-text tech
// stack such as "Go, Postgres, React".
func LanguageFromStack(stack string) (string, bool) {
	for _, field := range strings.FieldsFunc(normalize(stack), func(r rune) bool {
		return r == ',' || r == '/' || r == ' ' || r == ';' || r == '|'
	}) {
		switch field {
		case "golang":
			return "go", true
		case "node", "nodejs", "node.js", "react", "vue":
			return "javascript", true
		}
		if IsKnown(field) {
			return field, true
		}
	}
	return "", false
}
