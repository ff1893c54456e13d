package detect

import "profily/internal/techstack"

var languageIcons = map[string]string{
	"C#":          "csharp",
	"JavaScript":  "javascript",
	"TypeScript":  "typescript",
	"Python":      "python",
	"Java":        "java",
	"Go":          "go",
	"Rust":        "rust",
	"C":           "c",
	"C++":         "cplusplus",
	"Ruby":        "ruby",
	"PHP":         "php",
	"Swift":       "swift",
	"Kotlin":      "kotlin",
	"Dart":        "dart",
	"HTML":        "html5",
	"CSS":         "css3",
	"Shell":       "bash",
	"PowerShell":  "powershell",
	"Lua":         "lua",
	"R":           "r",
	"Scala":       "scala",
	"Objective-C": "objectivec",
	"MATLAB":      "matlab",
	"Perl":        "perl",
}

// LanguageIcon returns the icon hint for a GitHub linguist language name.
func LanguageIcon(name string) string {
	return languageIcons[name]
}

// Languages emits one Language technology per name reported by the host.
func (d *Detector) Languages(names []string) []techstack.Technology {
	out := make([]techstack.Technology, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		out = append(out, techstack.Technology{
			Name:     name,
			Category: techstack.CategoryLanguage,
			Icon:     languageIcons[name],
		})
	}
	return out
}
