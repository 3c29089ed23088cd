package skill

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"brainvoice/internal/config"
	"brainvoice/internal/tool"
)

func writeManifest(t *testing.T, root string, m Manifest) string {
	t.Helper()
	dir := filepath.Join(root, m.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	data, _ := json.Marshal(m)
	if err := os.WriteFile(filepath.Join(dir, "manifest.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestManifestParsing(t *testing.T) {
	dir := t.TempDir()
	valid := `{
		"name": "word_list",
		"version": "1.0.0",
		"description": "Random words to memorise",
		"parameters": {"type": "object", "properties": {"count": {"type": "integer"}}},
		"command": "echo hello"
	}`
	os.WriteFile(filepath.Join(dir, "manifest.json"), []byte(valid), 0644)

	m, err := parseManifest(filepath.Join(dir, "manifest.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "word_list" {
		t.Fatalf("expected 'word_list', got %s", m.Name)
	}

	badDir := t.TempDir()
	os.WriteFile(filepath.Join(badDir, "manifest.json"), []byte("{invalid"), 0644)
	if _, err := parseManifest(filepath.Join(badDir, "manifest.json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}

	emptyDir := t.TempDir()
	os.WriteFile(filepath.Join(emptyDir, "manifest.json"), []byte(`{"name":"","command":""}`), 0644)
	if _, err := parseManifest(filepath.Join(emptyDir, "manifest.json")); err == nil {
		t.Fatal("expected error for missing fields")
	}
}

func TestScriptToolExecute(t *testing.T) {
	st := NewScriptTool(Manifest{Name: "echo_test", Command: "cat"}, t.TempDir(), 10, false)

	if st.Name() != "skill_echo_test" {
		t.Fatalf("expected 'skill_echo_test', got %s", st.Name())
	}

	res, err := st.Execute(context.Background(), json.RawMessage(`{"message":"hello world"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", res.Error)
	}
	var out struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(res.Output, &out); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.Output, "hello world") {
		t.Fatalf("expected output to contain 'hello world', got: %s", out.Output)
	}
}

func TestScriptToolFailureIsErrorResult(t *testing.T) {
	st := NewScriptTool(Manifest{Name: "fail", Command: "sh -c 'echo nope >&2; exit 3'"}, t.TempDir(), 10, false)

	res, err := st.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || res.Error != "nope" {
		t.Fatalf("expected stderr as error, got %+v", res)
	}
}

func TestScriptToolSandbox(t *testing.T) {
	for _, cmd := range []string{"/bin/echo hi", "../escape.sh", "sub/../../x.sh"} {
		st := NewScriptTool(Manifest{Name: "s", Command: cmd}, t.TempDir(), 10, true)
		res, err := st.Execute(context.Background(), json.RawMessage(`{}`))
		if err != nil {
			t.Fatal(err)
		}
		if !res.IsError || !strings.HasPrefix(res.Error, "sandbox violation") {
			t.Fatalf("%q: expected sandbox violation, got %+v", cmd, res)
		}
	}
}

func TestScriptToolTimeout(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "slow.sh"), []byte("#!/bin/sh\nsleep 60\n"), 0755)

	st := NewScriptTool(Manifest{Name: "slow", Command: "sh slow.sh", TimeoutSecs: 1}, dir, 1, false)

	start := time.Now()
	res, err := st.Execute(context.Background(), json.RawMessage(`{}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsError {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("timeout took too long: %v", elapsed)
	}
}

func TestSplitCommand(t *testing.T) {
	got := splitCommand(`python3 run.py --name "it's fine"`)
	want := []string{"python3", "run.py", "--name", "it's fine"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestLoaderLoadInto(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{Name: "a", Command: "echo ok"})
	writeManifest(t, dir, Manifest{Name: "b", Command: "echo ok"})
	os.MkdirAll(filepath.Join(dir, "broken"), 0755)

	cfg := config.PluginsConfig{Enabled: true, Dir: dir, TimeoutSecs: 5}
	reg := tool.NewRegistry()
	n, err := NewLoader(cfg).LoadInto(reg)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 || !reg.Has("skill_a") || !reg.Has("skill_b") {
		t.Fatalf("expected both tools registered, got %d", n)
	}

	cfg.EnabledTools = []string{"a"}
	tools, err := NewLoader(cfg).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 1 || tools[0].Name() != "skill_a" {
		t.Fatalf("expected only skill_a, got %d tools", len(tools))
	}
}

func TestLoaderDisabled(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{Name: "a", Command: "echo ok"})

	tools, err := NewLoader(config.PluginsConfig{Enabled: false, Dir: dir}).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 0 {
		t.Fatalf("disabled loader should load nothing, got %d", len(tools))
	}
}

func TestLoaderList(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, Manifest{Name: "word_list", Version: "2.0.0", Description: "Test", Command: "echo hi"})

	infos := NewLoader(config.PluginsConfig{Enabled: true, Dir: dir}).List()
	if len(infos) != 1 {
		t.Fatalf("expected 1 script, got %d", len(infos))
	}
	if infos[0].Version != "2.0.0" || !infos[0].Enabled {
		t.Fatalf("unexpected info %+v", infos[0])
	}
}

func TestLoaderMissingDir(t *testing.T) {
	tools, err := NewLoader(config.PluginsConfig{Enabled: true, Dir: filepath.Join(t.TempDir(), "nope")}).Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 0 {
		t.Fatal("expected no tools")
	}
}
