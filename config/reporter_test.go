package config

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	if err != nil {
		t.Fatalf("failed to open report: %v", err)
	}
	defer zr.Close()

	out := make(map[string]string)
	for _, f := range zr.File {
		r, err := f.Open()
		if err != nil {
			t.Fatalf("failed to open %s: %v", f.Name, err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			t.Fatalf("failed to read %s: %v", f.Name, err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestReport(t *testing.T) {
	dir := t.TempDir()
	conf := ReporterConfig{Destination: filepath.Join(dir, "report.zip")}

	r, err := conf.Prepare()
	if err != nil {
		t.Fatalf("Prepare() error: %v", err)
	}
	if r.Name() != conf.Destination {
		t.Errorf("Name() = %q, want %q", r.Name(), conf.Destination)
	}

	src := filepath.Join(dir, "source.html")
	if err := os.WriteFile(src, []byte("<p>abc</p>"), 0644); err != nil {
		t.Fatalf("failed to write source: %v", err)
	}
	sub := filepath.Join(dir, "logs")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "a.log"), []byte("log"), 0644); err != nil {
		t.Fatalf("failed to write log: %v", err)
	}

	r.Store("source", src)
	r.Store("source", src)
	r.Store("logs", sub)
	r.Store("missing", filepath.Join(dir, "missing.txt"))
	r.StoreData("dump-10", []byte("ten"))
	r.StoreData("dump-2", []byte("two"))
	r.StoreData("dump-2", []byte("again"))

	if err := r.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	files := readArchive(t, conf.Destination)
	if files["source"] != "<p>abc</p>" {
		t.Errorf("source = %q", files["source"])
	}
	if files["logs/a.log"] != "log" {
		t.Errorf("logs/a.log = %q", files["logs/a.log"])
	}
	if files["dump-2"] != "two" || files["dump-10"] != "ten" {
		t.Errorf("unexpected dumps: %q %q", files["dump-2"], files["dump-10"])
	}
	if _, ok := files["missing"]; ok {
		t.Error("absent file should be skipped")
	}
	// manifest, 3 dumps, source and single log file
	if len(files) != 6 {
		t.Errorf("archive has %d entries, want 6", len(files))
	}

	manifest := strings.Split(strings.TrimSpace(files["MANIFEST"]), "\n")
	if len(manifest) != 6 {
		t.Fatalf("manifest has %d lines, want 6:\n%s", len(manifest), files["MANIFEST"])
	}
	// natural order puts dump-2 before dump-10
	if !strings.Contains(manifest[0], "\tdump-2\t") || !strings.Contains(manifest[2], "\tdump-10\t") {
		t.Errorf("unexpected manifest order:\n%s", files["MANIFEST"])
	}
}

func TestReportVersions(t *testing.T) {
	r := &Report{entries: make(map[string]entry)}
	r.Store("a", "one")
	r.Store("a", "one")
	r.Store("a", "two")
	r.StoreData("a", []byte("three"))

	names, _ := prepareManifest(r.entries)
	if want := []string{"a", "a-2", "a-3"}; !slices.Equal(names, want) {
		t.Errorf("entries = %v, want %v", names, want)
	}
	if r.entries["a-2"].original != "two" || string(r.entries["a-3"].data) != "three" {
		t.Errorf("unexpected versioned entries: %+v", r.entries)
	}
}

func TestReportNil(t *testing.T) {
	var r *Report
	r.Store("a", "b")
	r.StoreData("a", nil)
	if r.Name() != "" {
		t.Errorf("Name() = %q, want empty", r.Name())
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close on nil report should not error, got: %v", err)
	}

	r = &Report{entries: make(map[string]entry)}
	if err := r.Close(); err != nil {
		t.Errorf("Close with nil file should not error, got: %v", err)
	}
}

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "page.html", want: "page.html"},
		{in: "/tmp/Docs/My Page.htm", want: "tmp-docs-my-page.htm"},
		{in: "a b/c", want: "a-b-c"},
		{in: "", want: "_unnamed_"},
	}
	for _, tt := range tests {
		if got := SafeName(tt.in); got != tt.want {
			t.Errorf("SafeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
