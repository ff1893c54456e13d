package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestMappingsSummary(t *testing.T) {
	out, err := execute(t, "mappings")
	require.NoError(t, err)

	var got []tableSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got, 8)
	assert.Equal(t, "packageJson", got[0].Table)
	for _, s := range got {
		assert.Greater(t, s.Entries, 0, s.Table)
	}
}

func TestMappingsTableAsYAML(t *testing.T) {
	out, err := execute(t, "mappings", "--table", "goMod", "-o", "yaml")
	require.NoError(t, err)
	assert.False(t, strings.HasPrefix(strings.TrimSpace(out), "["), "yaml output should be block style")

	var got []tableEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	require.NotEmpty(t, got)
	var gin bool
	for _, e := range got {
		if e.Key == "github.com/gin-gonic/gin" {
			gin = true
			assert.Equal(t, "Gin", e.Name)
		}
	}
	assert.True(t, gin)
}

func TestMappingsUnknownTable(t *testing.T) {
	_, err := execute(t, "mappings", "--table", "gradle")
	assert.Error(t, err)
}

func TestAnalyzeRequiresTokenAndUser(t *testing.T) {
	t.Setenv(EnvToken, "")
	_, err := execute(t, "analyze", "--user", "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvToken)

	_, err = execute(t, "analyze", "--token", "tok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), FlagUser)
}

func TestRenderRejectsUnknownFormat(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, render(&buf, "xml", map[string]int{"a": 1}))
}

func TestAnalyzeStopsWhenContextIsCancelled(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()
	t.Setenv("GITHUB_API_URL", srv.URL)
	t.Setenv("PROFILE_STORE", "memory")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("GITHUB_DISK_CACHE_DIR", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"analyze", "--user", "u1", "--token", "tok"})
	err := root.ExecuteContext(ctx)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, out.String(), "no profile is printed")
	assert.EqualValues(t, 0, hits.Load(), "github is never called")
}
