package detect

import (
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"profily/internal/techstack"
	"profily/internal/techstack/mapping"
)

func newTestDetector(t *testing.T) (*Detector, *logtest.Hook) {
	t.Helper()
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	d, err := New(mapping.MustDefault(), logger)
	require.NoError(t, err)
	return d, hook
}

func names(techs []techstack.Technology) []string {
	out := make([]string, 0, len(techs))
	for _, t := range techs {
		out = append(out, t.Name)
	}
	return out
}

func TestPackageJSON(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.PackageJSON(`{
		"name": "web",
		"scripts": {"build": "tsc && next build", "lint": 3},
		"dependencies": {"react": "^18.0.0", "next": "14.0.0", "left-pad": "1.0.0"},
		"devDependencies": {"TypeScript": "^5.0.0", "jest": "^29.0.0"}
	}`)
	assert.Equal(t, []string{"Next.js", "React", "TypeScript", "Jest", "TypeScript", "Next.js"}, names(got))
}

func TestPackageJSONInvalidIsEmpty(t *testing.T) {
	d, hook := newTestDetector(t)
	assert.Empty(t, d.PackageJSON(`{"dependencies": `))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.DebugLevel, hook.LastEntry().Level)
}

func TestCsprojPrefixMatchEmitsOnce(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.Csproj(`<Project Sdk="Microsoft.NET.Sdk.Web">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
  </PropertyGroup>
  <ItemGroup>
    <PackageReference Include="Microsoft.EntityFrameworkCore.SqlServer" Version="8.0.0" />
    <PackageReference Include="Microsoft.EntityFrameworkCore.Design" Version="8.0.0" />
    <PackageReference Include="Serilog.AspNetCore" Version="8.0.0" />
  </ItemGroup>
</Project>`)
	assert.Equal(t, []string{"Entity Framework Core", "Serilog", ".NET"}, names(got))

	count := 0
	for _, tech := range got {
		if tech.Name == "Entity Framework Core" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestCsprojLegacyTargetFrameworks(t *testing.T) {
	d, _ := newTestDetector(t)
	for _, tfm := range []string{"netstandard2.0", "netcoreapp3.1"} {
		got := d.Csproj("<TargetFramework>" + tfm + "</TargetFramework>")
		assert.Empty(t, got, tfm)
	}
}

func TestRequirementsSkipsDirectivesAndComments(t *testing.T) {
	d, _ := newTestDetector(t)
	for _, line := range []string{"# comment", "", "-r base.txt", "--index-url https://x", "-e ./local"} {
		assert.Empty(t, d.Requirements(line), "%q", line)
	}
}

func TestRequirementsStripsSpecifiers(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.Requirements("Django>=4.2\r\nfastapi[all]==0.110\nnumpy ; python_version > '3.8'\n  # pinned\nunknown-pkg==1.0\n")
	assert.Equal(t, []string{"Django", "FastAPI", "NumPy"}, names(got))
}

func TestPyProject(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.PyProject(`[tool.poetry.dependencies]
python = "^3.11"
fastapi = "^0.110"

[project]
name = "svc"
dependencies = [
  "pandas",
  "requests>=2",
]
`)
	assert.Equal(t, []string{"Python", "FastAPI", "Requests", "Pandas"}, names(got))
}

// Array-style dependency lists (PEP 621, PEP 735) have no "name =" line, so
// only the structured pass can see them. These detections are deliberate
// additions on top of the line scan.
func TestPyProjectStructuredPassAddsArrayEntries(t *testing.T) {
	d, _ := newTestDetector(t)
	doc := `[project]
name = "svc"
dependencies = [
  "celery",
  "sqlalchemy[asyncio]~=2.0",
]

[project.optional-dependencies]
ml = ["numpy"]

[dependency-groups]
test = ["httpx"]
`
	assert.Equal(t, []string{"Celery", "SQLAlchemy", "NumPy", "HTTPX"}, names(d.PyProject(doc)))

	// With the structured pass unavailable the same entries are invisible.
	assert.Empty(t, d.PyProject(doc+"[broken\n"))
}

func TestPyProjectInvalidTomlKeepsLineScan(t *testing.T) {
	d, hook := newTestDetector(t)
	got := d.PyProject("flask = \"^3\"\n[broken\n")
	assert.Equal(t, []string{"Flask"}, names(got))
	require.NotNil(t, hook.LastEntry())
}

func TestGoModOnlyReadsRequireDirectives(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.GoMod(`module example.com/x

go 1.22

// github.com/gorilla/mux is not a dependency

require (
	github.com/gin-gonic/gin v1.9.0
	github.com/jackc/pgx/v5 v5.5.0
)

require github.com/spf13/cobra v1.8.0
`)
	assert.Equal(t, []string{"Gin", "PostgreSQL", "Cobra"}, names(got))
	assert.Empty(t, d.GoMod("module example.com/empty\n"))
}

func TestCargoTomlLineAnchored(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.CargoToml(`[dependencies]
tokio = { version = "1", features = ["full"] }
serde_json = "1"
  SERDE= "1"
# axum = "0.7"
`)
	assert.Equal(t, []string{"Tokio", "Serde"}, names(got))
}

func TestPomXML(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.PomXML(`<project>
  <dependencies>
    <dependency>
      <groupId>org.springframework.boot</groupId>
      <artifactId>spring-boot-starter-web</artifactId>
    </dependency>
    <dependency>
      <groupId>org.postgresql</groupId>
      <artifactId>postgresql</artifactId>
    </dependency>
  </dependencies>
</project>`)
	assert.Equal(t, []string{"Spring Boot", "Spring", "PostgreSQL"}, names(got))
}

func TestLanguages(t *testing.T) {
	d, _ := newTestDetector(t)
	got := d.Languages([]string{"Go", "HCL", ""})
	assert.Equal(t, []techstack.Technology{
		{Name: "Go", Category: techstack.CategoryLanguage, Icon: "go"},
		{Name: "HCL", Category: techstack.CategoryLanguage},
	}, got)
	assert.Equal(t, "cplusplus", LanguageIcon("C++"))
}
