package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"hdoc/archive"
	"hdoc/config"
	"hdoc/tree"
)

// NameValues holds variables available for output name template expansion.
type NameValues struct {
	Title      string
	Language   string
	Format     string
	SourceFile string
	SourceDir  string
	Index      int
	DocID      string
}

func expandName(field string, doc *tree.Document, src archive.Source, format string, index int) (string, error) {
	tmpl, err := template.New("name").Funcs(sprig.FuncMap()).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse output name template: %w", err)
	}

	values := NameValues{
		Title:      doc.Title(),
		Language:   doc.Language().String(),
		Format:     format,
		SourceFile: strings.TrimSuffix(filepath.Base(src.Name), filepath.Ext(src.Name)),
		SourceDir:  filepath.Base(filepath.Dir(src.Name)),
		Index:      index,
		DocID:      doc.ID().String(),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", fmt.Errorf("unable to expand output name template: %w", err)
	}
	name := strings.TrimSpace(buf.String())
	if name == "" {
		return "", fmt.Errorf("output name template produced empty name for %s", src.Name)
	}
	return config.CleanFileName(name), nil
}

// writeNamed saves every document into its own file under dir, file names
// come from template.
func writeNamed(dir, field string, docs []*tree.Document, sources []archive.Source, format string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("unable to create destination directory '%s': %w", dir, err)
	}

	seen := make(map[string]int, len(docs))
	out := make([]string, 0, len(docs))
	for i, doc := range docs {
		name, err := expandName(field, doc, sources[i], format, i+1)
		if err != nil {
			return out, err
		}
		if filepath.Ext(name) == "" {
			name += "." + format
		}
		if n := seen[name]; n > 0 {
			ext := filepath.Ext(name)
			seen[name] = n + 1
			name = fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, ext), n+1, ext)
		} else {
			seen[name] = 1
		}

		path := filepath.Join(dir, name)
		if err := writeFile(path, doc, format); err != nil {
			return out, err
		}
		out = append(out, path)
	}
	return out, nil
}

func writeFile(path string, doc *tree.Document, format string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create destination file '%s': %w", path, err)
	}
	defer func() {
		if er := f.Close(); er != nil && err == nil {
			err = er
		}
	}()
	if err := render(f, doc, format); err != nil {
		return fmt.Errorf("unable to write '%s': %w", path, err)
	}
	return nil
}
