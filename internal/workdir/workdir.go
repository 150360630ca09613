// Package workdir manages the on-disk work directory an extract→inject
// lifecycle owns: the untouched input copy, the marker-bearing
// content.xml, the debug styled.xml, the emitted stream body, the
// StyleStore database, and the final inject artifact.
package workdir

import (
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/transfuse/transfuse/internal/errs"
)

const (
	OriginalFile  = "original"
	ContentFile   = "content.xml"
	StyledFile    = "styled.xml"
	ExtractedFile = "extracted"
	StateFile     = "state.sqlite3"
)

// Dir wraps one work directory's path, providing named paths for each of
// its fixed members.
type Dir struct {
	Path string
}

// Open resolves dir to a Dir, creating it (and any parents) if it doesn't
// exist. If wipe is true and the directory already exists, its contents
// are removed first (the --no-keep "wipe work dir before extract"
// behavior).
func Open(path string, wipe bool) (*Dir, error) {
	if wipe {
		if err := os.RemoveAll(path); err != nil {
			return nil, errs.Fatal(errs.ErrWorkDirUnavailable, "wipe work dir", path, err)
		}
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errs.Fatal(errs.ErrWorkDirUnavailable, "create work dir", path, err)
	}
	return &Dir{Path: path}, nil
}

func (d *Dir) join(name string) string { return filepath.Join(d.Path, name) }

func (d *Dir) Original() string  { return d.join(OriginalFile) }
func (d *Dir) Content() string   { return d.join(ContentFile) }
func (d *Dir) Styled() string    { return d.join(StyledFile) }
func (d *Dir) Extracted() string { return d.join(ExtractedFile) }
func (d *Dir) State() string     { return d.join(StateFile) }

// Injected returns the path for the final inject artifact, whose filename
// is adapter-chosen ("injected.*").
func (d *Dir) Injected(ext string) string { return d.join("injected" + ext) }

// HasExtracted reports whether a prior extraction already populated this
// directory (an "extracted" file exists). It only reports presence: the CLI
// does not call it, and every extract run re-runs extraction.
func (d *Dir) HasExtracted() bool {
	_, err := os.Stat(d.Extracted())
	return err == nil
}

// Ready reports whether the directory looks like a usable work dir for
// injection: it has the files an injector needs to recover state.
func (d *Dir) Ready() bool {
	for _, f := range []string{d.Original(), d.Content(), d.State()} {
		if _, err := os.Stat(f); err != nil {
			return false
		}
	}
	return true
}

// SaveOriginal copies src's contents into the work dir's "original" file.
func (d *Dir) SaveOriginal(src io.Reader) error {
	return writeFile(d.Original(), src)
}

func writeFile(path string, src io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.Fatal(errs.ErrWorkDirUnavailable, "create", path, err)
	}
	defer f.Close()
	if _, err := io.Copy(f, src); err != nil {
		return errs.Fatal(errs.ErrWorkDirUnavailable, "write", path, err)
	}
	return nil
}

// WriteString writes s to the named file (ContentFile, StyledFile,
// ExtractedFile, ...) inside the work dir.
func (d *Dir) WriteString(name, s string) error {
	if err := os.WriteFile(d.join(name), []byte(s), 0o644); err != nil {
		return errs.Fatal(errs.ErrWorkDirUnavailable, "write", d.join(name), err)
	}
	return nil
}

// ReadString reads the named file inside the work dir.
func (d *Dir) ReadString(name string) (string, error) {
	b, err := os.ReadFile(d.join(name))
	if err != nil {
		return "", errs.Fatal(errs.ErrStateMissing, "read", d.join(name), err)
	}
	return string(b), nil
}

// Remove deletes the entire work directory (the --no-keep "delete after
// inject" behavior, or cleanup after a --dir-less run).
func (d *Dir) Remove() error {
	if err := os.RemoveAll(d.Path); err != nil {
		return errs.Fatal(errs.ErrWorkDirUnavailable, "remove work dir", d.Path, err)
	}
	return nil
}

// NewTemp creates a fresh temporary work directory under the OS temp root,
// named with a random UUID (used when the caller did not pass --dir),
// returning it already opened.
func NewTemp() (*Dir, error) {
	path := filepath.Join(os.TempDir(), "transfuse-"+uuid.NewString())
	return Open(path, false)
}
