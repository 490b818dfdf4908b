package healthcfg

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleTOML = `
[[level]]
label = "critical"
color = "#e74c3c"
max = 0.0

[[level]]
label = "warning"
color = "#f39c12"
min = 0.0
max = 1000.0

[[level]]
label = "healthy"
color = "#2ecc71"
min = 1000.0
`

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "health.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	levels, err := Load(writeFile(t, sampleTOML))
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Fatalf("got %d levels, want 3", len(levels))
	}

	critical := levels[0]
	if critical.Label != "critical" || critical.MinCents != nil {
		t.Errorf("critical = %+v, want unbounded below", critical)
	}
	if critical.MaxCents == nil || *critical.MaxCents != 0 {
		t.Errorf("critical max = %v, want 0", critical.MaxCents)
	}

	warning := levels[1]
	if warning.MinCents == nil || *warning.MinCents != 0 {
		t.Errorf("warning min = %v, want 0", warning.MinCents)
	}
	if warning.MaxCents == nil || *warning.MaxCents != 100_000 {
		t.Errorf("warning max = %v, want 100000 cents", warning.MaxCents)
	}

	healthy := levels[2]
	if healthy.MaxCents != nil {
		t.Errorf("healthy = %+v, want unbounded above", healthy)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	levels, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 || levels[0].Label != "critical" {
		t.Errorf("missing file did not fall back to defaults: %+v", levels)
	}
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	levels, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) == 0 {
		t.Error("empty path returned no levels")
	}
}

func TestLoadBrokenTOML(t *testing.T) {
	if _, err := Load(writeFile(t, "[[level")); err == nil {
		t.Error("Load() accepted broken TOML")
	}
}

func TestLoadEmptyLevelListUsesDefaults(t *testing.T) {
	levels, err := Load(writeFile(t, "# no levels"))
	if err != nil {
		t.Fatal(err)
	}
	if len(levels) != 3 {
		t.Errorf("got %d levels, want the 3 defaults", len(levels))
	}
}
