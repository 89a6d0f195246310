package codec

import (
	"archive/zip"
	"bytes"
	"cmp"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/richardlehane/mscfb"
)

var (
	zipMagic = []byte("PK\x03\x04")
	oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

	byteOrderMarks = [][]byte{{0xEF, 0xBB, 0xBF}, {0xFF, 0xFE}, {0xFE, 0xFF}}

	// importExtensions are the file extensions Import accepts. A file
	// without an extension is identified by content alone.
	importExtensions = []string{"csv", "tsv", "tab", "txt", "json", "xlsx", "xlsm", "xlsb", "xls", "ods"}
)

// Detect identifies the format of data, by content first and by the file
// extension of filename second. Extensions outside the import set are
// rejected before the content is examined.
func Detect(data []byte, filename string) (Format, error) {
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(filename), "."))
	if ext != "" && !slices.Contains(importExtensions, ext) {
		return "", unsupported(ext, "files with extension ."+ext+" cannot be imported")
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return detectZip(data, ext)
	case bytes.HasPrefix(data, oleMagic):
		return detectOLE(data, ext)
	}
	switch ext {
	case "csv":
		return FormatCSV, nil
	case "tsv", "tab":
		return FormatTSV, nil
	case "json":
		return FormatJSON, nil
	case "xlsx", "xlsm", "xlsb", "xls", "ods":
		return "", unsupported(ext, "file is not a valid workbook")
	}
	return sniffText(data, ext)
}

func detectZip(data []byte, ext string) (Format, error) {
	name := cmp.Or(ext, "zip")
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", unsupported(name, err.Error())
	}
	var xml, content bool
	for _, f := range zr.File {
		switch f.Name {
		case "xl/workbook.bin":
			return FormatXLSB, nil
		case "xl/workbook.xml":
			xml = true
		case "mimetype":
			if zipEntryIs(f, odsMimeType) {
				return FormatODS, nil
			}
		case "content.xml":
			content = true
		}
	}
	switch {
	case xml:
		return FormatXLSX, nil
	case content && ext == "ods":
		return FormatODS, nil
	}
	return "", unsupported(name, "archive is not a spreadsheet")
}

func zipEntryIs(f *zip.File, want string) bool {
	rc, err := f.Open()
	if err != nil {
		return false
	}
	defer rc.Close()
	got, err := io.ReadAll(io.LimitReader(rc, int64(len(want))+1))
	return err == nil && strings.TrimSpace(string(got)) == want
}

// detectOLE distinguishes a BIFF workbook from an encrypted OOXML package;
// both are compound files.
func detectOLE(data []byte, ext string) (Format, error) {
	name := cmp.Or(ext, "ole2")
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return "", unsupported(name, err.Error())
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		switch entry.Name {
		case "Workbook", "Book":
			return FormatXLS, nil
		case "EncryptedPackage":
			return FormatXLSX, nil
		}
	}
	return "", unsupported(name, "compound file holds no workbook stream")
}

func sniffText(data []byte, ext string) (Format, error) {
	head := data[:min(len(data), 512)]
	trimmed := head
	for _, bom := range byteOrderMarks {
		trimmed = bytes.TrimPrefix(trimmed, bom)
	}
	if len(trimmed) == len(head) && bytes.IndexByte(head, 0) >= 0 {
		return "", unsupported(ext, "binary content")
	}
	trimmed = bytes.TrimLeft(trimmed, " \t\r\n\x00")
	switch {
	case len(trimmed) == 0:
		return "", unsupported(ext, "empty input")
	case trimmed[0] == '{':
		return FormatJSON, nil
	case ext == "txt" || bytes.IndexByte(head, '\t') >= 0:
		return FormatTSV, nil
	}
	return FormatCSV, nil
}
