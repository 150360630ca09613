package adapter

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/transfuse/transfuse/internal/errs"
)

// zipMember holds one archive entry's raw bytes plus the zip.FileHeader
// metadata needed to write it back out unmodified. Bit-identical
// round-tripping is only waived for the *translated* member; every other
// member is copied through untouched.
type zipMember struct {
	header *zip.FileHeader
	data   []byte
}

// readZip loads every member of a zip archive into memory, in archive
// order.
func readZip(data []byte) ([]zipMember, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.Fatal(errs.ErrParseMalformed, "open archive", "", err)
	}
	members := make([]zipMember, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			return nil, errs.Fatal(errs.ErrParseMalformed, "read archive member", f.Name, err)
		}
		body, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, errs.Fatal(errs.ErrParseMalformed, "read archive member", f.Name, err)
		}
		hdr := f.FileHeader
		members = append(members, zipMember{header: &hdr, data: body})
	}
	return members, nil
}

// findMember returns the index of the member named name, or -1.
func findMember(members []zipMember, name string) int {
	for i, m := range members {
		if m.header.Name == name {
			return i
		}
	}
	return -1
}

// writeZip rewrites members to a zip archive, preserving each member's
// original compression method and storing uncompressed members (like an
// ODF "mimetype" entry) uncompressed again, grounded on core/epub's
// zip.CreateHeader/zip.Store pattern for such members.
func writeZip(members []zipMember) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range members {
		hdr := &zip.FileHeader{
			Name:   m.header.Name,
			Method: m.header.Method,
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			return nil, fmt.Errorf("writing archive member %s: %w", m.header.Name, err)
		}
		if _, err := w.Write(m.data); err != nil {
			return nil, fmt.Errorf("writing archive member %s: %w", m.header.Name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("closing archive: %w", err)
	}
	return buf.Bytes(), nil
}

// detectArchiveFormat distinguishes OOXML (docx/pptx) from ODF (odt/odp)
// zip containers by their manifest member, for --format auto.
func detectArchiveFormat(data []byte) (Format, error) {
	members, err := readZip(data)
	if err != nil {
		return "", err
	}
	names := make(map[string]bool, len(members))
	for _, m := range members {
		names[m.header.Name] = true
	}

	switch {
	case names["word/document.xml"]:
		return DOCX, nil
	case names["ppt/presentation.xml"]:
		return PPTX, nil
	case names["mimetype"]:
		for _, m := range members {
			if m.header.Name != "mimetype" {
				continue
			}
			switch string(m.data) {
			case "application/vnd.oasis.opendocument.text":
				return ODT, nil
			case "application/vnd.oasis.opendocument.presentation":
				return ODP, nil
			}
		}
	}
	return "", fmt.Errorf("%w: unrecognized archive container", errs.ErrFormatUnknown)
}

// sortedSlideNames returns the ppt/slides/slideN.xml member names present
// in members, sorted by their numeric slide index.
func sortedSlideNames(members []zipMember) []string {
	var names []string
	for _, m := range members {
		n := m.header.Name
		if len(n) > len("ppt/slides/slide") && n[:len("ppt/slides/slide")] == "ppt/slides/slide" {
			names = append(names, n)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		return slideIndex(names[i]) < slideIndex(names[j])
	})
	return names
}

func slideIndex(name string) int {
	n := 0
	for i := len("ppt/slides/slide"); i < len(name) && name[i] >= '0' && name[i] <= '9'; i++ {
		n = n*10 + int(name[i]-'0')
	}
	return n
}
