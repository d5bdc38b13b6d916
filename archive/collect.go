package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
)

// Source is a single HTML document found by Collect.
type Source struct {
	// Name is file path, for archive entries the path inside archive is
	// joined to the archive path.
	Name string

	archive string
	entry   string
}

// Open returns reader for the source content.
func (s Source) Open() (io.ReadCloser, error) {
	if s.archive == "" {
		return os.Open(s.Name)
	}
	return openEntry(s.archive, s.entry)
}

// InArchive reports whether source is an archive entry.
func (s Source) InArchive() bool {
	return s.archive != ""
}

// IsHTML selects files by extension.
func IsHTML(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml", ".shtml":
		return true
	}
	return false
}

// NameEncoding returns IANA character set used to decode non UTF-8 names of
// archive entries.
func NameEncoding(charset string) (encoding.Encoding, error) {
	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil {
		return nil, err
	}
	if enc == nil {
		return nil, fmt.Errorf("character set %q is not supported", charset)
	}
	return enc, nil
}

// Collector finds sources under a path.
type Collector struct {
	// Match selects files, IsHTML when nil.
	Match func(name string) bool
	// Names decodes archive entry names not flagged as UTF-8.
	Names encoding.Encoding

	log *zap.Logger
}

func NewCollector(log *zap.Logger) *Collector {
	if log == nil {
		log = zap.NewNop()
	}
	return &Collector{Match: IsHTML, log: log.Named("archive")}
}

// Collect returns sources for src, which is one of: path to a file, path to a
// directory processed recursively, path to a zip archive optionally followed
// by path inside of it. Symbolic links are not followed and archives inside
// archives are not looked into.
func (c *Collector) Collect(ctx context.Context, src string) ([]Source, error) {
	src = filepath.Clean(src)

	for head := src; head != "" && head != "."; head, _ = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		head = strings.TrimSuffix(head, string(filepath.Separator))
		if head == "" {
			break
		}

		fi, err := os.Stat(head)
		if err != nil {
			// may be a path inside of archive
			continue
		}
		rest := strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator))

		switch {
		case fi.IsDir():
			if rest != "" {
				return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, rest)
			}
			return c.dir(ctx, head)
		case !fi.Mode().IsRegular():
			return nil, fmt.Errorf("unexpected path mode for (%s)", head)
		}

		arc, err := IsArchive(head)
		if err != nil {
			return nil, fmt.Errorf("unable to check archive type: %w", err)
		}
		if arc {
			return c.archive(ctx, head, filepath.ToSlash(rest), "")
		}
		if rest != "" {
			return nil, fmt.Errorf("input source was not found (%s) => (%s)", head, rest)
		}
		return []Source{{Name: head}}, nil
	}
	return nil, fmt.Errorf("input source was not found (%s): %w", src, os.ErrNotExist)
}

func (c *Collector) match(name string) bool {
	if c.Match == nil {
		return IsHTML(name)
	}
	return c.Match(name)
}

func (c *Collector) dir(ctx context.Context, dir string) ([]Source, error) {
	var out []Source
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err != nil {
			c.log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		if c.match(path) {
			out = append(out, Source{Name: path})
			return nil
		}

		arc, err := IsArchive(path)
		if err != nil {
			c.log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !arc {
			c.log.Debug("Skipping file, not recognized as source or archive", zap.String("file", path))
			return nil
		}
		found, err := c.archive(ctx, path, "", path)
		if err != nil {
			c.log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			return nil
		}
		out = append(out, found...)
		return nil
	})
	if err == nil && len(out) == 0 {
		c.log.Debug("Nothing to process", zap.String("dir", dir))
	}
	return out, err
}

func (c *Collector) archive(ctx context.Context, path, prefix, display string) ([]Source, error) {
	if display == "" {
		display = path
	}

	var out []Source
	err := Walk(path, prefix, func(arc string, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := c.entryName(f)
		if !c.match(name) {
			c.log.Debug("Skipping file in archive, not recognized as source", zap.String("archive", arc), zap.String("file", name))
			return nil
		}
		out = append(out, Source{
			Name:    filepath.Join(display, filepath.FromSlash(name)),
			archive: arc,
			entry:   f.Name,
		})
		return nil
	})
	if err == nil && len(out) == 0 {
		c.log.Debug("Nothing to process", zap.String("archive", path), zap.String("prefix", prefix))
	}
	return out, err
}

func (c *Collector) entryName(f *zip.File) string {
	if c.Names == nil || !f.NonUTF8 {
		return f.Name
	}
	n, err := c.Names.NewDecoder().String(f.Name)
	if err != nil {
		c.log.Warn("Unable to decode archive entry name", zap.String("name", f.Name), zap.Error(err))
		return f.Name
	}
	return n
}
