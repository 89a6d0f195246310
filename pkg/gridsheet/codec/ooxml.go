package codec

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// EMUPerPixel is the number of English Metric Units per pixel at 96 DPI.
const EMUPerPixel = 9525

// EMUToPixels converts EMU to pixels at 96 DPI.
func EMUToPixels(emu int64) int {
	return int(emu / EMUPerPixel)
}

// pkg gives read access to the parts of an OOXML package.
type pkg struct {
	zr *zip.Reader
}

func openPackage(data []byte) (*pkg, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	return &pkg{zr: zr}, nil
}

// read returns the named part, or nil when the package has no such part.
func (p *pkg) read(name string) ([]byte, error) {
	for _, f := range p.zr.File {
		if f.Name == name {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, nil
}

// relationship is one entry of a .rels part.
type relationship struct {
	ID     string
	Type   string
	Target string
}

func (p *pkg) rels(part string) []relationship {
	dir, file := splitPart(part)
	data, err := p.read(dir + "/_rels/" + file + ".rels")
	if err != nil || data == nil {
		return nil
	}
	var out []relationship
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var rel relationship
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "Id":
				rel.ID = attr.Value
			case "Type":
				rel.Type = attr.Value
			case "Target":
				rel.Target = resolvePart(dir, attr.Value)
			}
		}
		out = append(out, rel)
	}
	return out
}

// worksheetParts maps sheet names to their part names, in workbook order.
func (p *pkg) worksheetParts() (names []string, parts map[string]string) {
	parts = make(map[string]string)
	data, err := p.read("xl/workbook.xml")
	if err != nil || data == nil {
		return nil, parts
	}
	targets := make(map[string]string)
	for _, rel := range p.rels("xl/workbook.xml") {
		if strings.HasSuffix(strings.ToLower(rel.Type), "/worksheet") {
			targets[rel.ID] = rel.Target
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var name, rID string
		for _, attr := range se.Attr {
			switch attr.Name.Local {
			case "name":
				name = attr.Value
			case "id":
				rID = attr.Value
			}
		}
		if target, ok := targets[rID]; ok && name != "" {
			names = append(names, name)
			parts[name] = target
		}
	}
	return names, parts
}

func splitPart(part string) (dir, file string) {
	i := strings.LastIndex(part, "/")
	if i < 0 {
		return "", part
	}
	return part[:i], part[i+1:]
}

// resolvePart resolves a relationship target against the directory of the
// part that owns the relationship.
func resolvePart(dir, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	segs := strings.Split(dir, "/")
	if dir == "" {
		segs = nil
	}
	for _, s := range strings.Split(target, "/") {
		switch s {
		case "", ".":
		case "..":
			if len(segs) > 0 {
				segs = segs[:len(segs)-1]
			}
		default:
			segs = append(segs, s)
		}
	}
	return strings.Join(segs, "/")
}

// readElementText collects the character data of the element just opened.
func readElementText(dec *xml.Decoder) (string, error) {
	var text strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return text.String(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			text.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
	return text.String(), nil
}

func attr(se xml.StartElement, local string) string {
	for _, a := range se.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}
