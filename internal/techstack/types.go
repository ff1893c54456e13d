// Package techstack holds the technology-detection data model shared by the
// detectors, the aggregation engine and the profile coordinator.
package techstack

import (
	"strings"
	"time"
)

// Category classifies a detected technology. Values serialize as their names.
type Category string

const (
	CategoryLanguage  Category = "Language"
	CategoryFramework Category = "Framework"
	CategoryLibrary   Category = "Library"
	CategoryTool      Category = "Tool"
	CategoryDatabase  Category = "Database"
	CategoryOther     Category = "Other"
)

// Categories lists every category in bucket order.
var Categories = []Category{
	CategoryLanguage,
	CategoryFramework,
	CategoryLibrary,
	CategoryTool,
	CategoryDatabase,
	CategoryOther,
}

// ParseCategory resolves a category name case-insensitively.
func ParseCategory(raw string) (Category, bool) {
	raw = strings.TrimSpace(raw)
	for _, c := range Categories {
		if strings.EqualFold(raw, string(c)) {
			return c, true
		}
	}
	return "", false
}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Technology is a single detected technology. Icon is empty when unknown.
type Technology struct {
	Name     string   `json:"name"`
	Category Category `json:"category"`
	Icon     string   `json:"icon,omitempty"`
}

// Signal names the heuristic that produced a detection.
type Signal string

const (
	SignalLanguages    Signal = "languages"
	SignalDependencies Signal = "dependencies"
	SignalFilePresence Signal = "file_presence"
	SignalReadme       Signal = "readme"
	SignalTopics       Signal = "topics"
)

// Signals lists every signal in summary order.
var Signals = []Signal{
	SignalLanguages,
	SignalDependencies,
	SignalFilePresence,
	SignalReadme,
	SignalTopics,
}

// Detection is a technology tagged with the signal that found it.
type Detection struct {
	Technology
	Signal Signal `json:"signal"`
}

// Tag attaches signal to every technology in techs.
func Tag(signal Signal, techs []Technology) []Detection {
	if len(techs) == 0 {
		return nil
	}
	out := make([]Detection, 0, len(techs))
	for _, t := range techs {
		out = append(out, Detection{Technology: t, Signal: signal})
	}
	return out
}

// CategorizedTechStack buckets technologies by category. Order inside a
// bucket is ranking order.
type CategorizedTechStack struct {
	Languages  []Technology `json:"languages"`
	Frameworks []Technology `json:"frameworks"`
	Libraries  []Technology `json:"libraries"`
	Tools      []Technology `json:"tools"`
	Databases  []Technology `json:"databases"`
	Others     []Technology `json:"others"`
}

// Categorize splits a ranked flat list into buckets, preserving order.
func Categorize(ranked []Technology) CategorizedTechStack {
	out := CategorizedTechStack{
		Languages:  []Technology{},
		Frameworks: []Technology{},
		Libraries:  []Technology{},
		Tools:      []Technology{},
		Databases:  []Technology{},
		Others:     []Technology{},
	}
	for _, t := range ranked {
		switch t.Category {
		case CategoryLanguage:
			out.Languages = append(out.Languages, t)
		case CategoryFramework:
			out.Frameworks = append(out.Frameworks, t)
		case CategoryLibrary:
			out.Libraries = append(out.Libraries, t)
		case CategoryTool:
			out.Tools = append(out.Tools, t)
		case CategoryDatabase:
			out.Databases = append(out.Databases, t)
		default:
			out.Others = append(out.Others, t)
		}
	}
	return out
}

// Bucket returns the list for category c.
func (s CategorizedTechStack) Bucket(c Category) []Technology {
	switch c {
	case CategoryLanguage:
		return s.Languages
	case CategoryFramework:
		return s.Frameworks
	case CategoryLibrary:
		return s.Libraries
	case CategoryTool:
		return s.Tools
	case CategoryDatabase:
		return s.Databases
	default:
		return s.Others
	}
}

// Len is the total number of technologies across all buckets.
func (s CategorizedTechStack) Len() int {
	return len(s.Languages) + len(s.Frameworks) + len(s.Libraries) +
		len(s.Tools) + len(s.Databases) + len(s.Others)
}

const ProfileDocumentType = "techStackProfile"

// Profile is the persisted result of one analysis pass for a user.
type Profile struct {
	ID                string               `json:"id"`
	UserID            string               `json:"userId"`
	Type              string               `json:"type"`
	Categorized       CategorizedTechStack `json:"categorized"`
	AnalyzedAt        time.Time            `json:"analyzedAt"`
	AnalyzedRepoCount int                  `json:"analyzedRepoCount"`
	SignalSummary     map[string]int       `json:"signalSummary"`
	CreatedAt         time.Time            `json:"createdAt"`
	UpdatedAt         time.Time            `json:"updatedAt"`
}

// ProfileID is the deterministic document id of a user's profile.
func ProfileID(userID string) string {
	return ProfileDocumentType + "-" + strings.TrimSpace(userID)
}

// NewProfile returns an empty profile for userID stamped with now.
func NewProfile(userID string, now time.Time) *Profile {
	now = now.UTC()
	return &Profile{
		ID:            ProfileID(userID),
		UserID:        strings.TrimSpace(userID),
		Type:          ProfileDocumentType,
		Categorized:   Categorize(nil),
		AnalyzedAt:    now,
		SignalSummary: map[string]int{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
