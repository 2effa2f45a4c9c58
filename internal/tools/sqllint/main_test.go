package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeGo(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLintFlagsMissingMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "q.go", "package q\n\nconst QList = `select id from history_entries`\n")

	vs, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(vs) != 1 || vs[0].name != "QList" {
		t.Fatalf("violations = %+v", vs)
	}
}

func TestLintFlagsReusedMarker(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package q\n\nconst QA = `--sql 4c6fc64c-e43c-440f-b60c-171265146b28\nselect 1`\n")
	writeGo(t, dir, "b.go", "package q\n\nconst QB = `--sql 4c6fc64c-e43c-440f-b60c-171265146b28\ndelete from t`\n")

	vs, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(vs) != 1 || !strings.Contains(vs[0].message, "reused") {
		t.Fatalf("violations = %+v", vs)
	}
}

func TestLintIgnoresPlainStrings(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "m.go", "package q\n\nconst msg = \"Describe this image in detail.\"\n")

	vs, err := lintPaths([]string{dir})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	if len(vs) != 0 {
		t.Fatalf("violations = %+v", vs)
	}
}

func TestRepositoryStatementsAreMarked(t *testing.T) {
	vs, err := lintPaths([]string{filepath.Join("..", "..", "sqlinline")})
	if err != nil {
		t.Fatalf("lintPaths error: %v", err)
	}
	for _, v := range vs {
		t.Errorf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
	}
}
