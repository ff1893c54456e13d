package githubapi

import (
	"math"
	"strings"
	"time"

	"github.com/google/go-github/v66/github"
)

// Repository is the subset of repository metadata the profiler works with.
type Repository struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	FullName    string     `json:"fullName"`
	Owner       string     `json:"owner"`
	Description string     `json:"description,omitempty"`
	HTMLURL     string     `json:"htmlUrl"`
	Homepage    string     `json:"homePage,omitempty"`
	Language    string     `json:"language,omitempty"`
	StarsCount  int        `json:"starsCount"`
	ForksCount  int        `json:"forksCount"`
	IsFork      bool       `json:"isFork"`
	IsArchived  bool       `json:"isArchived"`
	IsPrivate   bool       `json:"isPrivate"`
	Size        int        `json:"size"` // KB
	Topics      []string   `json:"topics,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	PushedAt    *time.Time `json:"pushedAt,omitempty"`
}

// LanguageStat is one language's share of a repository or account.
type LanguageStat struct {
	Name       string  `json:"name"`
	Bytes      int64   `json:"bytes"`
	Percentage float64 `json:"percentage"`
	Color      string  `json:"color,omitempty"`
}

// Stats summarizes a user's public, non-fork repositories.
type Stats struct {
	Username         string         `json:"username"`
	PublicReposCount int            `json:"publicReposCount"`
	TotalStars       int            `json:"totalStars"`
	TotalForks       int            `json:"totalForks"`
	Followers        int            `json:"followers"`
	Following        int            `json:"following"`
	TopLanguages     []LanguageStat `json:"topLanguages"`
	FetchedAt        time.Time      `json:"fetchedAt"`
}

func fromGitHub(r *github.Repository) Repository {
	out := Repository{
		ID:          r.GetID(),
		Name:        r.GetName(),
		FullName:    r.GetFullName(),
		Owner:       r.GetOwner().GetLogin(),
		Description: r.GetDescription(),
		HTMLURL:     r.GetHTMLURL(),
		Homepage:    r.GetHomepage(),
		Language:    r.GetLanguage(),
		StarsCount:  r.GetStargazersCount(),
		ForksCount:  r.GetForksCount(),
		IsFork:      r.GetFork(),
		IsArchived:  r.GetArchived(),
		IsPrivate:   r.GetPrivate(),
		Size:        r.GetSize(),
		Topics:      r.Topics,
		CreatedAt:   r.GetCreatedAt().Time.UTC(),
		UpdatedAt:   r.GetUpdatedAt().Time.UTC(),
	}
	if out.Owner == "" {
		if owner, _, ok := strings.Cut(out.FullName, "/"); ok {
			out.Owner = owner
		}
	}
	if r.PushedAt != nil {
		t := r.PushedAt.Time.UTC()
		out.PushedAt = &t
	}
	return out
}

var languageColors = map[string]string{
	"c#":         "#178600",
	"typescript": "#3178c6",
	"javascript": "#f1e05a",
	"python":     "#3572A5",
	"java":       "#b07219",
	"go":         "#00ADD8",
	"rust":       "#dea584",
	"html":       "#e34c26",
	"css":        "#563d7c",
	"ruby":       "#701516",
	"php":        "#4F5D95",
	"swift":      "#F05138",
	"kotlin":     "#A97BFF",
	"c++":        "#f34b7d",
	"c":          "#555555",
}

// LanguageColor returns GitHub's display color for common languages.
func LanguageColor(name string) string {
	return languageColors[strings.ToLower(name)]
}

// languageStats converts byte counts to stats ordered by bytes descending,
// then name, with percentages rounded to one decimal.
func languageStats(bytes map[string]int64) []LanguageStat {
	var total int64
	for _, b := range bytes {
		total += b
	}
	out := make([]LanguageStat, 0, len(bytes))
	for name, b := range bytes {
		pct := 0.0
		if total > 0 {
			pct = math.Round(float64(b)/float64(total)*1000) / 10
		}
		out = append(out, LanguageStat{Name: name, Bytes: b, Percentage: pct, Color: LanguageColor(name)})
	}
	sortLanguageStats(out)
	return out
}
