package project

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"sitegen_server/internal/logger"
	"sitegen_server/internal/types"
)

// The three files every project directory contains. Preview requests are
// validated against this enum before any path join.
const (
	MarkupFile = "index.html"
	StyleFile  = "style.css"
	ScriptFile = "script.js"
)

// Placeholder contents written when the model omitted a block.
const (
	PlaceholderHTML = "<!-- no HTML generated -->"
	PlaceholderCSS  = "/* no CSS generated */"
	PlaceholderJS   = "// no JavaScript generated"
)

const (
	styleLink = `<link rel="stylesheet" href="style.css">`
	scriptTag = `<script src="script.js"></script>`
)

var ErrNotFound = errors.New("project not found")

// Identifiers are generated uuids, but preview/download take them from the
// URL, so they are re-validated as opaque tokens before touching the disk.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// Store owns the on-disk project tree: one directory per identifier under
// root, written once at generation time and read any number of times by the
// preview and download paths.
type Store struct {
	root string
	log  *logger.Logger
}

func NewStore(root string, log *logger.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.New("projects root must not be empty")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create projects root: %w", err)
	}
	return &Store{root: root, log: log}, nil
}

// CreateProject assigns a fresh identifier, creates its directory, and writes
// the three project files. The markup is post-processed so it always
// references its sibling stylesheet and script; empty fields are written as
// the documented placeholder comments. Returns the identifier.
func (s *Store) CreateProject(bundle types.CodeBundle) (string, error) {
	id := uuid.New().String()
	dir := filepath.Join(s.root, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create project dir: %w", err)
	}

	markup := bundle.HTML
	if markup == "" {
		markup = PlaceholderHTML
	}
	markup = EnsureAssetLinks(markup)

	style := bundle.CSS
	if style == "" {
		style = PlaceholderCSS
	}
	script := bundle.JS
	if script == "" {
		script = PlaceholderJS
	}

	files := map[string]string{
		MarkupFile: markup,
		StyleFile:  style,
		ScriptFile: script,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", name, err)
		}
	}

	s.log.Info("project materialized", "id", id, "dir", dir)
	return id, nil
}

// EnsureAssetLinks guarantees the markup references style.css and script.js.
// Detection is a literal substring check, so a differently spelled but
// otherwise correct link still gets a second tag injected; each tag is
// injected at most once. The stylesheet link goes before </head> (or is
// prepended), the script tag before </body> (or is appended).
func EnsureAssetLinks(markup string) string {
	if !strings.Contains(markup, `href="style.css"`) {
		if i := strings.Index(markup, "</head>"); i >= 0 {
			markup = markup[:i] + styleLink + "\n" + markup[i:]
		} else {
			markup = styleLink + "\n" + markup
		}
	}
	if !strings.Contains(markup, `src="script.js"`) {
		if i := strings.Index(markup, "</body>"); i >= 0 {
			markup = markup[:i] + scriptTag + "\n" + markup[i:]
		} else {
			markup = markup + "\n" + scriptTag
		}
	}
	return markup
}

// ResolveFile validates the identifier and filename and returns the absolute
// path of the named project file. The filename must be one of the three fixed
// project files; anything else (including any traversal attempt) is reported
// as ErrNotFound.
func (s *Store) ResolveFile(id, name string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", ErrNotFound
	}
	switch name {
	case MarkupFile, StyleFile, ScriptFile:
	default:
		return "", ErrNotFound
	}
	path := filepath.Join(s.root, id, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// Archive zips the project's three files (flat, no subdirectories) into
// <dir>/<id>.zip and returns the archive path. The zip is built in a fresh
// temp file and renamed into place so a concurrent download of the same
// identifier never observes a partially written archive.
func (s *Store) Archive(id string) (string, error) {
	if !idPattern.MatchString(id) {
		return "", ErrNotFound
	}
	dir := filepath.Join(s.root, id)
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		return "", ErrNotFound
	}

	tmp, err := os.CreateTemp(dir, id+"-*.zip.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp archive: %w", err)
	}
	tmpPath := tmp.Name()

	if err := writeZip(tmp, dir); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close archive: %w", err)
	}

	finalPath := filepath.Join(dir, id+".zip")
	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}

	s.log.Info("project archived", "id", id, "archive", finalPath)
	return finalPath, nil
}

func writeZip(w io.Writer, dir string) error {
	zw := zip.NewWriter(w)
	for _, name := range []string{MarkupFile, StyleFile, ScriptFile} {
		src, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			zw.Close()
			return err
		}
		dst, err := zw.Create(name)
		if err == nil {
			_, err = io.Copy(dst, src)
		}
		src.Close()
		if err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

// Remove deletes a project directory and everything in it, archive included.
// Removing an unknown identifier is not an error.
func (s *Store) Remove(id string) error {
	if !idPattern.MatchString(id) {
		return ErrNotFound
	}
	return os.RemoveAll(filepath.Join(s.root, id))
}

// Dir returns the directory a project's files live in.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}
