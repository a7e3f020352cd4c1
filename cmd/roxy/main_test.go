package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// testEnv returns an environment with captured output and a fixed clock.
func testEnv() (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	return &Environment{
		Now:    func() time.Time { return time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC) },
		Stdout: &stdout,
		Stderr: &stderr,
	}, &stdout, &stderr
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_MarkdownThenTemplate(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "fox.md"), "# {{ test }} :3\n")
	env, stdout, stderr := testEnv()

	code := run(context.Background(), []string{"--set", "test=fox", in}, env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}

	got, err := os.ReadFile(filepath.Join(dir, "fox.html"))
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(got) != "<h1>fox :3</h1>\n" {
		t.Errorf("output = %q, want %q", got, "<h1>fox :3</h1>\n")
	}
	if !strings.Contains(stdout.String(), "Created") {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestRun_DirectoryWithLayoutAndMetrics(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "a.md"), "# Alpha\n\nIssued {{ date }}.\n")
	writeFile(t, filepath.Join(dir, "src", "nested", "b.md"), "# Beta\n")
	cfgPath := writeFile(t, filepath.Join(dir, "roxy.yaml"), `
steps: [markdown, template, layout]
template:
  date: auto:iso
layout:
  lang: en
`)
	metricsPath := filepath.Join(dir, "roxy.prom")
	out := filepath.Join(dir, "site")
	env, _, stderr := testEnv()

	code := run(context.Background(), []string{
		"--config", cfgPath, "--metrics-file", metricsPath, "-q", "-w", "2",
		filepath.Join(dir, "src"), out,
	}, env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}

	a, err := os.ReadFile(filepath.Join(out, "a.html"))
	if err != nil {
		t.Fatalf("reading a.html: %v", err)
	}
	for _, want := range []string{`<html lang="en">`, "<title>Alpha</title>", "Issued 2025-03-14."} {
		if !strings.Contains(string(a), want) {
			t.Errorf("a.html missing %q:\n%s", want, a)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "nested", "b.html")); err != nil {
		t.Errorf("nested output: %v", err)
	}

	prom, err := os.ReadFile(metricsPath)
	if err != nil {
		t.Fatalf("reading metrics: %v", err)
	}
	for _, want := range []string{`roxy_assets_total{outcome="success"} 2`, `roxy_step_duration_seconds_count{step="layout"} 2`} {
		if !strings.Contains(string(prom), want) {
			t.Errorf("metrics missing %q:\n%s", want, prom)
		}
	}
}

func TestRun_Preview(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := writeFile(t, filepath.Join(dir, "doc.md"), "# Hello {{ who }}\n")
	cfgPath := writeFile(t, filepath.Join(dir, "preview.yaml"), "terminal:\n  style: notty\n")
	env, stdout, stderr := testEnv()

	code := run(context.Background(), []string{"--config", cfgPath, "--preview", "--set", "who=world", in}, env)
	if code != ExitSuccess {
		t.Fatalf("exit = %d, stderr = %s", code, stderr)
	}
	if !strings.Contains(stdout.String(), "Hello world") {
		t.Errorf("stdout = %q, should contain the rendered heading", stdout)
	}
	if _, err := os.Stat(filepath.Join(dir, "doc.txt")); !os.IsNotExist(err) {
		t.Errorf("preview wrote a file: %v", err)
	}
}

func TestRun_ExitCodes(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	good := writeFile(t, filepath.Join(dir, "good.md"), "# ok\n")
	missing := writeFile(t, filepath.Join(dir, "missing.md"), "{{ nope }}\n")

	tests := []struct {
		name    string
		args    []string
		want    int
		wantErr string
	}{
		{"help", []string{"--help"}, ExitSuccess, ""},
		{"bad flag", []string{"--nope"}, ExitUsage, "usage error"},
		{"unknown step", []string{"--steps", "markdown,latex", good}, ExitUsage, "hint: steps:"},
		{"pdf not last", []string{"--steps", "pdf,layout", good}, ExitUsage, "must be the last step"},
		{"too many workers", []string{"-w", "99", good}, ExitUsage, "invalid worker count"},
		{"no input", nil, ExitIO, "no input specified"},
		{"missing file", []string{filepath.Join(dir, "absent.md")}, ExitIO, ""},
		{"missing binding", []string{"-o", filepath.Join(dir, "out"), missing}, ExitUsage, "hint:"},
		{"missing config", []string{"--config", filepath.Join(dir, "none.yaml"), good}, ExitUsage, "config file not found"},
		{"too many args", []string{good, "out", "extra"}, ExitUsage, "at most 2"},
		{"bad style", []string{"--steps", "markdown,layout", "--style", "neon", "-o", filepath.Join(dir, "o2"), good}, ExitUsage, "built-in styles"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			env, _, stderr := testEnv()
			if got := run(context.Background(), tt.args, env); got != tt.want {
				t.Errorf("exit = %d, want %d (stderr: %s)", got, tt.want, stderr)
			}
			if tt.wantErr != "" && !strings.Contains(stderr.String(), tt.wantErr) {
				t.Errorf("stderr = %q, should contain %q", stderr, tt.wantErr)
			}
		})
	}
}

func TestRun_VersionAndPrintConfig(t *testing.T) {
	t.Parallel()

	env, stdout, _ := testEnv()
	if code := run(context.Background(), []string{"--version"}, env); code != ExitSuccess {
		t.Fatalf("--version exit = %d", code)
	}
	if !strings.HasPrefix(stdout.String(), "roxy ") {
		t.Errorf("--version output = %q", stdout)
	}

	env, stdout, _ = testEnv()
	code := run(context.Background(), []string{"--print-config", "--steps", "markdown,layout", "--set", "k=v"}, env)
	if code != ExitSuccess {
		t.Fatalf("--print-config exit = %d", code)
	}
	for _, want := range []string{"steps:", "- layout", "k: v"} {
		if !strings.Contains(stdout.String(), want) {
			t.Errorf("--print-config output missing %q:\n%s", want, stdout)
		}
	}
}
