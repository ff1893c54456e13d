package techstack

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func tech(name string, cat Category, icon string) Technology {
	return Technology{Name: name, Category: cat, Icon: icon}
}

func techNames(techs []Technology) []string {
	out := make([]string, 0, len(techs))
	for _, t := range techs {
		out = append(out, t.Name)
	}
	return out
}

func TestAggregateMergesCaseVariants(t *testing.T) {
	got := Aggregate([]Technology{
		tech("React", CategoryFramework, ""),
		tech("react", CategoryFramework, "react"),
		tech("REACT", CategoryFramework, ""),
	})
	require.Len(t, got, 1)
	assert.Equal(t, "React", got[0].Name)
	assert.Equal(t, CategoryFramework, got[0].Category)
	assert.Equal(t, "react", got[0].Icon)
}

func TestAggregatePrefersNonOtherCategory(t *testing.T) {
	got := Aggregate([]Technology{
		tech("Docker", CategoryOther, ""),
		tech("Docker", CategoryOther, ""),
		tech("Docker", CategoryOther, ""),
		tech("docker", CategoryTool, "docker"),
	})
	require.Len(t, got, 1)
	assert.Equal(t, CategoryTool, got[0].Category)
}

func TestAggregatePicksMostFrequentCategory(t *testing.T) {
	got := Aggregate([]Technology{
		tech("Prisma", CategoryTool, ""),
		tech("Prisma", CategoryLibrary, ""),
		tech("Prisma", CategoryLibrary, ""),
	})
	require.Len(t, got, 1)
	assert.Equal(t, CategoryLibrary, got[0].Category)

	tied := Aggregate([]Technology{
		tech("GraphQL", CategoryLibrary, ""),
		tech("GraphQL", CategoryTool, ""),
	})
	assert.Equal(t, CategoryLibrary, tied[0].Category, "ties keep the first category seen")
}

func TestAggregateRanksByFrequencyThenName(t *testing.T) {
	got := Aggregate([]Technology{
		tech("Vue.js", CategoryFramework, ""),
		tech("Go", CategoryLanguage, ""),
		tech("Angular", CategoryFramework, ""),
		tech("Go", CategoryLanguage, ""),
		tech("Docker", CategoryTool, ""),
		tech("Docker", CategoryTool, ""),
		tech("Docker", CategoryTool, ""),
	})
	names := make([]string, 0, len(got))
	for _, g := range got {
		names = append(names, g.Name)
	}
	assert.Equal(t, []string{"Docker", "Go", "Angular", "Vue.js"}, names)
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	var in []Technology
	for i := 0; i < 30; i++ {
		for j := 0; j <= i%7; j++ {
			in = append(in, tech(fmt.Sprintf("tech-%02d", i), CategoryLibrary, ""))
		}
	}
	want := Aggregate(in)

	r := rand.New(rand.NewSource(42))
	for round := 0; round < 5; round++ {
		shuffled := append([]Technology(nil), in...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, Aggregate(shuffled))
	}

}

func TestAggregateIsIdempotent(t *testing.T) {
	single := Aggregate([]Technology{
		tech("Rust", CategoryLanguage, ""),
		tech("go", CategoryLanguage, "go"),
		tech("C", CategoryLanguage, ""),
		tech("Docker", CategoryTool, "docker"),
		tech("redis", CategoryDatabase, "redis"),
	})
	assert.Equal(t, single, Aggregate(single))
	assert.Equal(t, single, Aggregate(Aggregate(single)))

	// Feeding a frequency-ranked list back in as single occurrences keeps
	// every technology, category and icon. Equal frequencies then rank by name.
	var weighted []Technology
	for i, name := range []string{"Zig", "Go", "Ada"} {
		for j := 0; j <= 2-i; j++ {
			weighted = append(weighted, tech(name, CategoryLanguage, ""))
		}
	}
	ranked := Aggregate(weighted)
	require.Equal(t, []string{"Zig", "Go", "Ada"}, techNames(ranked))
	again := Aggregate(ranked)
	assert.ElementsMatch(t, ranked, again)
	assert.Equal(t, []string{"Ada", "Go", "Zig"}, techNames(again))
}

func TestAggregateTruncatesToHighestFrequency(t *testing.T) {
	var in []Technology
	for i := 0; i < 250; i++ {
		for j := 0; j <= i; j++ {
			in = append(in, tech(fmt.Sprintf("t%03d", i), CategoryLibrary, ""))
		}
	}
	got := Aggregate(in)
	require.Len(t, got, MaxTechnologies)
	assert.Equal(t, "t249", got[0].Name)
	assert.Equal(t, "t050", got[len(got)-1].Name)

	stack := Categorize(got)
	assert.LessOrEqual(t, stack.Len(), MaxTechnologies)
	assert.Len(t, stack.Libraries, MaxTechnologies)
}

func TestAggregateSkipsEmptyNamesAndNormalizesCategory(t *testing.T) {
	got := Aggregate([]Technology{
		tech("  ", CategoryTool, ""),
		tech("Thing", Category("bogus"), ""),
	})
	require.Len(t, got, 1)
	assert.Equal(t, CategoryOther, got[0].Category)
}

func TestCategorizePreservesRankOrder(t *testing.T) {
	ranked := []Technology{
		tech("TypeScript", CategoryLanguage, ""),
		tech("React", CategoryFramework, ""),
		tech("Go", CategoryLanguage, ""),
		tech("PostgreSQL", CategoryDatabase, ""),
		tech("Misc", CategoryOther, ""),
	}
	s := Categorize(ranked)
	assert.Equal(t, []Technology{ranked[0], ranked[2]}, s.Languages)
	assert.Equal(t, []Technology{ranked[1]}, s.Frameworks)
	assert.Equal(t, []Technology{ranked[3]}, s.Bucket(CategoryDatabase))
	assert.Equal(t, []Technology{ranked[4]}, s.Others)
	assert.Empty(t, s.Tools)
	assert.NotNil(t, s.Tools)
	assert.Equal(t, 5, s.Len())
}

func TestSummarizeSignals(t *testing.T) {
	summary := SummarizeSignals([]Detection{
		{Technology: tech("Go", CategoryLanguage, ""), Signal: SignalLanguages},
		{Technology: tech("Go", CategoryLanguage, ""), Signal: SignalLanguages},
		{Technology: tech("Docker", CategoryTool, ""), Signal: SignalFilePresence},
	})
	assert.Equal(t, map[string]int{
		SummaryTotalKey:            3,
		string(SignalLanguages):    2,
		string(SignalDependencies): 0,
		string(SignalFilePresence): 1,
		string(SignalReadme):       0,
		string(SignalTopics):       0,
	}, summary)
}

func TestParseCategoryAndProfileID(t *testing.T) {
	c, ok := ParseCategory(" database ")
	require.True(t, ok)
	assert.Equal(t, CategoryDatabase, c)
	_, ok = ParseCategory("nope")
	assert.False(t, ok)

	assert.Equal(t, "techStackProfile-42", ProfileID("42"))
	p := NewProfile("42", testTime)
	assert.Equal(t, "techStackProfile-42", p.ID)
	assert.Equal(t, ProfileDocumentType, p.Type)
	assert.Zero(t, p.Categorized.Len())
}
