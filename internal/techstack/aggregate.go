package techstack

import (
	"sort"
	"strings"
)

// MaxTechnologies caps the number of technologies kept in a profile.
const MaxTechnologies = 200

const SummaryTotalKey = "total_detections"

type categoryCount struct {
	category Category
	count    int
}

type techGroup struct {
	name       string
	count      int
	icon       string
	categories []categoryCount
}

func (g *techGroup) addCategory(c Category) {
	for i := range g.categories {
		if g.categories[i].category == c {
			g.categories[i].count++
			return
		}
	}
	g.categories = append(g.categories, categoryCount{category: c, count: 1})
}

// resolveCategory prefers any non-Other category, then the most frequent one.
// Ties keep the category seen first.
func (g *techGroup) resolveCategory() Category {
	best := g.categories[0]
	for _, c := range g.categories[1:] {
		bestOther := best.category == CategoryOther
		curOther := c.category == CategoryOther
		if bestOther != curOther {
			if bestOther {
				best = c
			}
			continue
		}
		if c.count > best.count {
			best = c
		}
	}
	return best.category
}

// Aggregate merges raw detections into a deduplicated, frequency-ranked list
// truncated to MaxTechnologies.
func Aggregate(detections []Technology) []Technology {
	return AggregateN(detections, MaxTechnologies)
}

// AggregateN is Aggregate with an explicit limit. limit <= 0 keeps everything.
func AggregateN(detections []Technology, limit int) []Technology {
	groups := make(map[string]*techGroup, len(detections))
	order := make([]*techGroup, 0, len(detections))

	for _, d := range detections {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			continue
		}
		cat := d.Category
		if !cat.Valid() {
			cat = CategoryOther
		}
		key := strings.ToLower(name)
		g, ok := groups[key]
		if !ok {
			g = &techGroup{name: name}
			groups[key] = g
			order = append(order, g)
		}
		g.count++
		if g.icon == "" {
			g.icon = strings.TrimSpace(d.Icon)
		}
		g.addCategory(cat)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].count != order[j].count {
			return order[i].count > order[j].count
		}
		return lessName(order[i].name, order[j].name)
	})

	if limit > 0 && len(order) > limit {
		order = order[:limit]
	}

	out := make([]Technology, 0, len(order))
	for _, g := range order {
		out = append(out, Technology{
			Name:     g.name,
			Category: g.resolveCategory(),
			Icon:     g.icon,
		})
	}
	return out
}

func lessName(a, b string) bool {
	la, lb := strings.ToLower(a), strings.ToLower(b)
	if la != lb {
		return la < lb
	}
	return a < b
}

// SummarizeSignals counts detections in total and per signal.
func SummarizeSignals(detections []Detection) map[string]int {
	summary := make(map[string]int, len(Signals)+1)
	summary[SummaryTotalKey] = len(detections)
	for _, s := range Signals {
		summary[string(s)] = 0
	}
	for _, d := range detections {
		summary[string(d.Signal)]++
	}
	return summary
}

// Untag drops the signal from each detection.
func Untag(detections []Detection) []Technology {
	out := make([]Technology, 0, len(detections))
	for _, d := range detections {
		out = append(out, d.Technology)
	}
	return out
}
