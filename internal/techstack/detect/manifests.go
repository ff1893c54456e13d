package detect

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"profily/internal/techstack"
	"profily/internal/techstack/mapping"
)

var (
	packageReferenceRe = regexp.MustCompile(`(?i)<PackageReference\s+Include="([^"]*)"\s`)
	targetFrameworkRe  = regexp.MustCompile(`(?i)<TargetFramework>([^<]+)</TargetFramework>`)
	pyprojectKeyRe     = regexp.MustCompile(`(?:^|\n)\s*"?([a-zA-Z0-9_-]+)"?\s*[=>{]`)
	goRequireBlockRe   = regexp.MustCompile(`(?s)require\s*\((.*?)\)`)
)

type scriptHint struct {
	pattern string
	tech    techstack.Technology
}

// Substrings in package.json scripts that imply a tool even when it is not a
// declared dependency.
var scriptHints = []scriptHint{
	{"tsc", techstack.Technology{Name: "TypeScript", Category: techstack.CategoryLanguage, Icon: "typescript"}},
	{"nodemon", techstack.Technology{Name: "Nodemon", Category: techstack.CategoryTool, Icon: "nodemon"}},
	{"ts-node", techstack.Technology{Name: "TypeScript", Category: techstack.CategoryLanguage, Icon: "typescript"}},
	{"next ", techstack.Technology{Name: "Next.js", Category: techstack.CategoryFramework, Icon: "nextjs"}},
	{"nuxt", techstack.Technology{Name: "Nuxt.js", Category: techstack.CategoryFramework, Icon: "nuxtjs"}},
	{"tailwind", techstack.Technology{Name: "Tailwind CSS", Category: techstack.CategoryFramework, Icon: "tailwindcss"}},
	{"prisma ", techstack.Technology{Name: "Prisma", Category: techstack.CategoryLibrary, Icon: "prisma"}},
}

var dotnetFramework = techstack.Technology{Name: ".NET", Category: techstack.CategoryFramework, Icon: "dotnet"}

type packageManifest struct {
	Dependencies    map[string]json.RawMessage `json:"dependencies"`
	DevDependencies map[string]json.RawMessage `json:"devDependencies"`
	Scripts         map[string]json.RawMessage `json:"scripts"`
}

// PackageJSON matches dependency and devDependency names against the npm
// table and scans script commands for tool hints.
func (d *Detector) PackageJSON(content string) []techstack.Technology {
	var pkg packageManifest
	if err := json.Unmarshal([]byte(content), &pkg); err != nil {
		d.log.WithError(err).Debug("package.json parse failed")
		return nil
	}
	table := d.m.Table(mapping.NPM)
	var out []techstack.Technology
	for _, deps := range []map[string]json.RawMessage{pkg.Dependencies, pkg.DevDependencies} {
		for _, name := range sortedKeys(deps) {
			if tech, ok := table.Lookup(name); ok {
				out = append(out, tech)
			}
		}
	}

	if len(pkg.Scripts) > 0 {
		cmds := make([]string, 0, len(pkg.Scripts))
		for _, name := range sortedKeys(pkg.Scripts) {
			var cmd string
			if err := json.Unmarshal(pkg.Scripts[name], &cmd); err == nil {
				cmds = append(cmds, cmd)
			}
		}
		joined := strings.ToLower(strings.Join(cmds, " "))
		for _, h := range scriptHints {
			if strings.Contains(joined, h.pattern) {
				out = append(out, h.tech)
			}
		}
	}
	return out
}

// Csproj prefix-matches PackageReference ids against the NuGet table and
// emits .NET for modern target frameworks. Names are emitted once per file.
func (d *Detector) Csproj(content string) []techstack.Technology {
	entries := d.m.Table(mapping.NuGet).Entries()
	seen := seenSet{}
	var out []techstack.Technology
	for _, match := range packageReferenceRe.FindAllStringSubmatch(content, -1) {
		id := strings.ToLower(match[1])
		for _, e := range entries {
			if strings.HasPrefix(id, strings.ToLower(e.Key)) && seen.add(e.Tech.Name) {
				out = append(out, e.Tech)
			}
		}
	}
	if m := targetFrameworkRe.FindStringSubmatch(content); m != nil {
		tfm := m[1]
		if strings.HasPrefix(tfm, "net") &&
			!strings.HasPrefix(tfm, "netstandard") &&
			!strings.HasPrefix(tfm, "netcoreapp") &&
			seen.add(dotnetFramework.Name) {
			out = append(out, dotnetFramework)
		}
	}
	return out
}

// Requirements matches requirements.txt lines against the Python table after
// stripping version specifiers, markers and extras.
func (d *Detector) Requirements(content string) []techstack.Technology {
	table := d.m.Table(mapping.Python)
	var out []techstack.Technology
	for _, line := range strings.Split(content, "\n") {
		name, ok := requirementName(line)
		if !ok {
			continue
		}
		if tech, ok := table.Lookup(name); ok {
			out = append(out, tech)
		}
	}
	return out
}

func requirementName(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if line == "" ||
		strings.HasPrefix(line, "#") ||
		strings.HasPrefix(line, "-r") ||
		strings.HasPrefix(line, "--") {
		return "", false
	}
	if i := strings.IndexAny(line, "=><!; ["); i >= 0 {
		line = line[:i]
	}
	name := strings.ToLower(strings.TrimSpace(line))
	if name == "" || strings.HasPrefix(name, "-") {
		return "", false
	}
	return name, true
}

// PyProject matches dependency-like keys in pyproject.toml against the Python
// table. A line scan catches keys in any table; a structured pass over the
// PEP 621 and Poetry dependency tables adds names the scan cannot see, such
// as bare array entries.
func (d *Detector) PyProject(content string) []techstack.Technology {
	table := d.m.Table(mapping.Python)
	var out []techstack.Technology
	scanned := map[string]struct{}{}
	for _, match := range pyprojectKeyRe.FindAllStringSubmatch(content, -1) {
		name := strings.ToLower(strings.TrimSpace(match[1]))
		scanned[name] = struct{}{}
		if tech, ok := table.Lookup(name); ok {
			out = append(out, tech)
		}
	}

	var doc map[string]any
	if err := toml.Unmarshal([]byte(content), &doc); err != nil {
		d.log.WithError(err).Debug("pyproject.toml structured parse failed")
		return out
	}
	added := map[string]struct{}{}
	for _, name := range pyprojectDependencyNames(doc) {
		if _, ok := scanned[name]; ok {
			continue
		}
		if _, ok := added[name]; ok {
			continue
		}
		added[name] = struct{}{}
		if tech, ok := table.Lookup(name); ok {
			out = append(out, tech)
		}
	}
	return out
}

func pyprojectDependencyNames(doc map[string]any) []string {
	var names []string
	addSpecs := func(v any) {
		list, _ := v.([]any)
		for _, item := range list {
			if s, ok := item.(string); ok {
				if name, ok := requirementName(s); ok {
					names = append(names, name)
				}
			}
		}
	}
	addKeys := func(v any) {
		m, _ := v.(map[string]any)
		for _, k := range sortedKeys(m) {
			names = append(names, strings.ToLower(k))
		}
	}

	if project, ok := doc["project"].(map[string]any); ok {
		addSpecs(project["dependencies"])
		if optional, ok := project["optional-dependencies"].(map[string]any); ok {
			for _, k := range sortedKeys(optional) {
				addSpecs(optional[k])
			}
		}
	}
	if groups, ok := doc["dependency-groups"].(map[string]any); ok {
		for _, k := range sortedKeys(groups) {
			addSpecs(groups[k])
		}
	}
	if tool, ok := doc["tool"].(map[string]any); ok {
		if poetry, ok := tool["poetry"].(map[string]any); ok {
			addKeys(poetry["dependencies"])
			addKeys(poetry["dev-dependencies"])
			if groups, ok := poetry["group"].(map[string]any); ok {
				for _, k := range sortedKeys(groups) {
					if g, ok := groups[k].(map[string]any); ok {
						addKeys(g["dependencies"])
					}
				}
			}
		}
	}
	return names
}

// GoMod substring-matches Go table keys against the require directives.
func (d *Detector) GoMod(content string) []techstack.Technology {
	var parts []string
	for _, m := range goRequireBlockRe.FindAllStringSubmatch(content, -1) {
		parts = append(parts, m[1])
	}
	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(strings.TrimLeft(line, " \t\r"), "require ") && !strings.Contains(line, "(") {
			parts = append(parts, line)
		}
	}
	required := strings.ToLower(strings.Join(parts, "\n"))
	if strings.TrimSpace(required) == "" {
		return nil
	}

	var out []techstack.Technology
	for _, e := range d.m.Table(mapping.GoModules).Entries() {
		if strings.Contains(required, strings.ToLower(e.Key)) {
			out = append(out, e.Tech)
		}
	}
	return out
}

// CargoToml reports crates declared as `name = ...` at the start of a line.
func (d *Detector) CargoToml(content string) []techstack.Technology {
	var out []techstack.Technology
	for _, c := range d.cargo {
		if c.re.MatchString(content) {
			out = append(out, c.tech)
		}
	}
	return out
}

// PomXML reports Maven table keys contained anywhere in the document, once per
// technology name.
func (d *Detector) PomXML(content string) []techstack.Technology {
	lower := strings.ToLower(content)
	seen := seenSet{}
	var out []techstack.Technology
	for _, e := range d.m.Table(mapping.Maven).Entries() {
		if strings.Contains(lower, strings.ToLower(e.Key)) && seen.add(e.Tech.Name) {
			out = append(out, e.Tech)
		}
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
