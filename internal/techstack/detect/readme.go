package detect

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"profily/internal/techstack"
)

// MaxReadmeChars bounds README scanning; longer files are skipped entirely.
const MaxReadmeChars = 50_000

var (
	badgeRe = regexp.MustCompile(`(?i)img\.shields\.io/badge/([^-/]+)-`)

	techSectionHeadingRe = regexp.MustCompile(`(?i)#+\s*(?:tech(?:nolog(?:y|ies))?\s*stack|built\s*with|technologies(?:\s*used)?|tools?\s*(?:used|&|and)|stack|powered\s*by)\s*\n`)
	nextHeadingRe        = regexp.MustCompile(`\n#+\s`)
)

// IsReadmePath reports whether p is the root README.md.
func IsReadmePath(p string) bool {
	return strings.EqualFold(p, "README.md")
}

// Readme detects technologies from shields.io badges and from known names
// mentioned inside tech-stack sections.
func (d *Detector) Readme(content string) []techstack.Technology {
	if content == "" || utf8.RuneCountInString(content) > MaxReadmeChars {
		return nil
	}

	var out []techstack.Technology
	for _, match := range badgeRe.FindAllStringSubmatch(content, -1) {
		label := strings.NewReplacer("%20", " ", "_", " ").Replace(match[1])
		label = strings.TrimSpace(label)
		if !d.m.IsKnown(label) {
			continue
		}
		out = append(out, d.resolve(d.m.Canonical(label)))
	}

	sections := techSections(content)
	if sections == "" {
		return out
	}
	seen := seenSet{}
	for _, t := range out {
		seen.add(t.Name)
	}
	lowered := strings.ToLower(sections)
	for _, known := range d.m.KnownNames() {
		if len(known) < 2 {
			continue
		}
		canonical := d.m.Canonical(known)
		if _, dup := seen[strings.ToLower(canonical)]; dup {
			continue
		}
		if containsWord(lowered, known) {
			out = append(out, d.resolve(canonical))
			seen.add(canonical)
		}
	}
	return out
}

func (d *Detector) resolve(canonical string) techstack.Technology {
	if info, ok := d.m.Info(canonical); ok {
		return techstack.Technology{Name: canonical, Category: info.Category, Icon: info.Icon}
	}
	return techstack.Technology{Name: canonical, Category: techstack.CategoryOther}
}

// techSections returns the bodies of every tech-stack section joined by
// newlines. A body runs from its heading to the next markdown heading or the
// end of the document.
func techSections(content string) string {
	var bodies []string
	pos := 0
	for pos < len(content) {
		loc := techSectionHeadingRe.FindStringIndex(content[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[1]
		end := len(content)
		if next := nextHeadingRe.FindStringIndex(content[start:]); next != nil {
			end = start + next[0]
		}
		bodies = append(bodies, content[start:end])
		if end == start {
			end++
		}
		pos = end
	}
	return strings.Join(bodies, "\n")
}

// containsWord reports whether word occurs in text not adjacent to an ASCII
// letter or digit. Both arguments must already be lowercase.
func containsWord(text, word string) bool {
	for from := 0; from <= len(text)-len(word); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		i += from
		end := i + len(word)
		if (i == 0 || !isAlnum(text[i-1])) && (end == len(text) || !isAlnum(text[end])) {
			return true
		}
		from = i + 1
	}
	return false
}

func isAlnum(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}
