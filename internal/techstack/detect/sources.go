package detect

import (
	"context"
	"strings"

	"profily/internal/techstack"
)

type manifestParser struct {
	name  string
	parse func(d *Detector, content string) []techstack.Technology
}

// Single-file manifests: the first matching path in tree order is read.
var singleManifests = []manifestParser{
	{"package.json", (*Detector).PackageJSON},
	{"requirements.txt", (*Detector).Requirements},
	{"go.mod", (*Detector).GoMod},
	{"pyproject.toml", (*Detector).PyProject},
	{"Cargo.toml", (*Detector).CargoToml},
	{"pom.xml", (*Detector).PomXML},
}

func matchesManifest(p, name string) bool {
	return p == name || strings.HasSuffix(p, "/"+name)
}

// Dependencies reads the dependency manifests present in tree through fetch
// and parses each one. Read failures are logged and skipped; only context
// cancellation is returned.
func (d *Detector) Dependencies(ctx context.Context, tree []string, fetch FileSource) ([]techstack.Technology, error) {
	var out []techstack.Technology
	read := func(p string, parse func(*Detector, string) []techstack.Technology) error {
		content, ok, err := fetch(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.log.WithError(err).WithField("path", p).Warn("manifest read failed")
			return nil
		}
		if ok {
			out = append(out, parse(d, content)...)
		}
		return nil
	}

	for _, m := range singleManifests {
		for _, p := range tree {
			if !matchesManifest(p, m.name) {
				continue
			}
			if err := read(p, m.parse); err != nil {
				return nil, err
			}
			break
		}
	}
	for _, p := range tree {
		if !strings.HasSuffix(p, ".csproj") {
			continue
		}
		if err := read(p, (*Detector).Csproj); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ReadmeFromTree reads the root README.md when the tree has one and scans it.
func (d *Detector) ReadmeFromTree(ctx context.Context, tree []string, fetch FileSource) ([]techstack.Technology, error) {
	for _, p := range tree {
		if !IsReadmePath(p) {
			continue
		}
		content, ok, err := fetch(ctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			d.log.WithError(err).WithField("path", p).Warn("readme read failed")
			return nil, nil
		}
		if !ok {
			return nil, nil
		}
		return d.Readme(content), nil
	}
	return nil, nil
}
