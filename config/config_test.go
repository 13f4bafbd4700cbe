package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/MotleyCoderDev/wasm2brs/brs"
	"github.com/MotleyCoderDev/wasm2brs/errors"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
[output]
prefix = "game"
file = "source/game.brs"

[limits]
labels = 100
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Output.Prefix != "game" || c.Output.File != "source/game.brs" {
		t.Errorf("output = %+v", c.Output)
	}
	if c.Limits.Labels != 100 {
		t.Errorf("labels = %d, want 100", c.Limits.Labels)
	}
	if c.Limits.Variables != brs.DefaultVariableLimit {
		t.Errorf("variables = %d, want default %d", c.Limits.Variables, brs.DefaultVariableLimit)
	}
	if !c.Validate.Enabled {
		t.Error("validation should stay enabled by default")
	}
	if c.Path != path {
		t.Errorf("Path = %q", c.Path)
	}

	opts := c.Options()
	if opts.NamePrefix != "game" || opts.LabelLimit != 100 || opts.VariableLimit != brs.DefaultVariableLimit {
		t.Errorf("Options() = %+v", opts)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    errors.Kind
	}{
		{"syntax", "[output\nprefix = 1", errors.KindInvalidInput},
		{"wrong type", "[limits]\nlabels = \"many\"", errors.KindInvalidInput},
		{"unknown key", "[output]\nprefx = \"x\"", errors.KindInvalidInput},
		{"negative limit", "[limits]\nvariables = -1", errors.KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, t.TempDir(), tt.content))
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: tt.kind}) {
				t.Errorf("err = %v, want config/%s", err, tt.kind)
			}
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseConfig, Kind: errors.KindNotFound}) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, "[validate]\nenabled = false\n")
	nested := filepath.Join(root, "a", "b")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}

	c, err := FindAndLoad(nested)
	if err != nil {
		t.Fatalf("FindAndLoad: %v", err)
	}
	if c == nil {
		t.Fatal("config not found")
	}
	if c.Validate.Enabled {
		t.Error("validate.enabled = true, want false")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	opts := c.Options()
	if opts.LabelLimit != brs.DefaultLabelLimit || opts.VariableLimit != brs.DefaultVariableLimit || opts.NamePrefix != "" {
		t.Errorf("Options() = %+v", opts)
	}
}
