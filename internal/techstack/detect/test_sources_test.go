package detect

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFiles struct {
	mu     sync.Mutex
	files  map[string]string
	errs   map[string]error
	reads  []string
	cancel context.CancelFunc
}

func (f *fakeFiles) fetch(ctx context.Context, path string) (string, bool, error) {
	f.mu.Lock()
	f.reads = append(f.reads, path)
	f.mu.Unlock()
	if f.cancel != nil {
		f.cancel()
		return "", false, ctx.Err()
	}
	if err := f.errs[path]; err != nil {
		return "", false, err
	}
	content, ok := f.files[path]
	return content, ok, nil
}

func TestDependenciesReadsFirstManifestAndEveryCsproj(t *testing.T) {
	d, _ := newTestDetector(t)
	src := &fakeFiles{files: map[string]string{
		"web/package.json":       `{"dependencies": {"vue": "3"}}`,
		"package.json":           `{"dependencies": {"react": "18"}}`,
		"src/Api/Api.csproj":     `<PackageReference Include="Dapper" Version="2" />`,
		"src/Data/Data.csproj":   `<PackageReference Include="Npgsql" Version="8" />`,
		"tools/requirements.txt": "flask==3.0\n",
	}}
	tree := []string{"web/package.json", "package.json", "src/Api/Api.csproj", "src/Data/Data.csproj", "tools/requirements.txt", "docs/guide.md"}

	got, err := d.Dependencies(context.Background(), tree, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Vue.js", "Flask", "Dapper", "PostgreSQL"}, names(got))
	assert.Equal(t, []string{"web/package.json", "tools/requirements.txt", "src/Api/Api.csproj", "src/Data/Data.csproj"}, src.reads)
}

func TestDependenciesSkipsFailedReads(t *testing.T) {
	d, hook := newTestDetector(t)
	src := &fakeFiles{
		files: map[string]string{"go.mod": "require github.com/gin-gonic/gin v1.9.0\n"},
		errs:  map[string]error{"package.json": errors.New("boom")},
	}
	got, err := d.Dependencies(context.Background(), []string{"package.json", "go.mod", "pom.xml"}, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Gin"}, names(got))

	warned := false
	for _, e := range hook.AllEntries() {
		if e.Message == "manifest read failed" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestDependenciesStopsOnCancellation(t *testing.T) {
	d, _ := newTestDetector(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	src := &fakeFiles{cancel: cancel}

	got, err := d.Dependencies(ctx, []string{"package.json", "go.mod"}, src.fetch)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, got)
	assert.Len(t, src.reads, 1)
}

func TestReadmeFromTreeUsesRootReadmeOnly(t *testing.T) {
	d, _ := newTestDetector(t)
	src := &fakeFiles{files: map[string]string{
		"docs/README.md": "## Tech Stack\nRust\n",
		"readme.MD":      "## Tech Stack\nGo\n",
	}}
	got, err := d.ReadmeFromTree(context.Background(), []string{"docs/README.md", "readme.MD"}, src.fetch)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go"}, names(got))
	assert.Equal(t, []string{"readme.MD"}, src.reads)

	got, err = d.ReadmeFromTree(context.Background(), []string{"main.go"}, src.fetch)
	require.NoError(t, err)
	assert.Empty(t, got)
}
