package detect

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"profily/internal/techstack"
	"profily/internal/techstack/mapping"
)

const workflowPattern = ".github/workflows/**/*.{yml,yaml}"

var (
	githubActions = techstack.Technology{Name: "GitHub Actions", Category: techstack.CategoryTool, Icon: "githubactions"}
	kubernetes    = techstack.Technology{Name: "Kubernetes", Category: techstack.CategoryTool, Icon: "kubernetes"}
)

var kubernetesDirs = []string{"k8s/", "kubernetes/"}

type extensionHint struct {
	ext  string
	tech techstack.Technology
}

var extensionHints = []extensionHint{
	{".proto", techstack.Technology{Name: "Protobuf", Category: techstack.CategoryTool, Icon: "protobuf"}},
	{".graphql", techstack.Technology{Name: "GraphQL", Category: techstack.CategoryLibrary, Icon: "graphql"}},
	{".gql", techstack.Technology{Name: "GraphQL", Category: techstack.CategoryLibrary, Icon: "graphql"}},
	{".prisma", techstack.Technology{Name: "Prisma", Category: techstack.CategoryLibrary, Icon: "prisma"}},
	{".ipynb", techstack.Technology{Name: "Jupyter", Category: techstack.CategoryTool, Icon: "jupyter"}},
	{".bicep", techstack.Technology{Name: "Bicep", Category: techstack.CategoryTool, Icon: "azure"}},
	{".razor", techstack.Technology{Name: "Blazor", Category: techstack.CategoryFramework, Icon: "blazor"}},
	{".vue", techstack.Technology{Name: "Vue.js", Category: techstack.CategoryFramework, Icon: "vuejs"}},
	{".svelte", techstack.Technology{Name: "Svelte", Category: techstack.CategoryFramework, Icon: "svelte"}},
	{".tsx", techstack.Technology{Name: "React", Category: techstack.CategoryFramework, Icon: "react"}},
	{".jsx", techstack.Technology{Name: "React", Category: techstack.CategoryFramework, Icon: "react"}},
}

// FilePresence infers technologies from the paths in a repository tree. Each
// technology name is emitted at most once.
func (d *Detector) FilePresence(tree []string) []techstack.Technology {
	table := d.m.Table(mapping.FilePresence)
	seen := seenSet{}
	var out []techstack.Technology

	var hasWorkflow, hasKube bool
	exts := map[string]bool{}
	for _, p := range tree {
		if tech, ok := table.Lookup(path.Base(p)); ok && seen.add(tech.Name) {
			out = append(out, tech)
		}
		lower := strings.ToLower(p)
		if !hasWorkflow {
			hasWorkflow, _ = doublestar.Match(workflowPattern, lower)
		}
		if !hasKube {
			for _, dir := range kubernetesDirs {
				if strings.HasPrefix(lower, dir) {
					hasKube = true
				}
			}
		}
		for _, h := range extensionHints {
			if strings.HasSuffix(lower, h.ext) {
				exts[h.ext] = true
			}
		}
	}

	if hasWorkflow && seen.add(githubActions.Name) {
		out = append(out, githubActions)
	}
	if hasKube && seen.add(kubernetes.Name) {
		out = append(out, kubernetes)
	}
	for _, h := range extensionHints {
		if exts[h.ext] && seen.add(h.tech.Name) {
			out = append(out, h.tech)
		}
	}
	return out
}

// Topics matches repository topics against the topic table, once per name.
func (d *Detector) Topics(topics []string) []techstack.Technology {
	table := d.m.Table(mapping.Topics)
	seen := seenSet{}
	var out []techstack.Technology
	for _, topic := range topics {
		if tech, ok := table.Lookup(strings.ToLower(strings.TrimSpace(topic))); ok && seen.add(tech.Name) {
			out = append(out, tech)
		}
	}
	return out
}
