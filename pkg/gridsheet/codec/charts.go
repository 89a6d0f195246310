package codec

import (
	"bytes"
	"encoding/xml"
	"strconv"
	"strings"
)

// chartKinds maps OOXML plot elements onto chart types. Bubble, surface and
// stock plots have no equivalent and map to "".
var chartKinds = map[string]string{
	"lineChart":      "line",
	"line3DChart":    "line",
	"barChart":       "bar",
	"bar3DChart":     "bar",
	"areaChart":      "area",
	"area3DChart":    "area",
	"pieChart":       "pie",
	"pie3DChart":     "pie",
	"ofPieChart":     "pie",
	"doughnutChart":  "doughnut",
	"scatterChart":   "scatter",
	"radarChart":     "radar",
	"bubbleChart":    "",
	"surfaceChart":   "",
	"surface3DChart": "",
	"stockChart":     "",
}

// Default chart frame in pixels and the nominal cell size used to size a
// frame from its anchor cells.
const (
	defaultChartWidth  = 480
	defaultChartHeight = 300
	nominalColWidth    = 64
	nominalRowHeight   = 20
)

// chartAnchor locates a chart frame on its worksheet.
type chartAnchor struct {
	name          string
	rID           string
	col, row      int
	toCol, toRow  int
	width, height int
}

// parsedSeries is one c:ser element. Ranges are raw formula text; the caches
// hold the values Excel stored with the chart, when any.
type parsedSeries struct {
	name     string
	nameRef  string
	catRef   string
	valRef   string
	catCache []string
	valCache []string
}

// parsedChart is a chart part resolved against its anchor.
type parsedChart struct {
	kind       string
	title      string
	yAxisTitle string
	series     []parsedSeries
	anchor     chartAnchor
}

// sheetCharts reads every chart drawn on the worksheet part.
func (p *pkg) sheetCharts(sheetPart string) []parsedChart {
	var drawing string
	for _, rel := range p.rels(sheetPart) {
		if strings.HasSuffix(strings.ToLower(rel.Type), "/drawing") {
			drawing = rel.Target
			break
		}
	}
	if drawing == "" {
		return nil
	}
	data, err := p.read(drawing)
	if err != nil || data == nil {
		return nil
	}
	targets := make(map[string]string)
	for _, rel := range p.rels(drawing) {
		if strings.HasSuffix(strings.ToLower(rel.Type), "/chart") {
			targets[rel.ID] = rel.Target
		}
	}

	var out []parsedChart
	for _, anchor := range parseDrawingAnchors(data) {
		target, ok := targets[anchor.rID]
		if !ok {
			continue
		}
		chartXML, err := p.read(target)
		if err != nil || chartXML == nil {
			continue
		}
		chart := parseChartXML(chartXML)
		chart.anchor = anchor
		out = append(out, chart)
	}
	return out
}

// parseDrawingAnchors finds the graphic frames that reference charts.
func parseDrawingAnchors(data []byte) []chartAnchor {
	var out []chartAnchor
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "twoCellAnchor", "oneCellAnchor", "absoluteAnchor":
			if a, ok := parseAnchor(dec); ok {
				out = append(out, a)
			}
		}
	}
	return out
}

func parseAnchor(dec *xml.Decoder) (chartAnchor, bool) {
	a := chartAnchor{toCol: -1, toRow: -1}
	var frameW, frameH, extW, extH int
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "from":
				a.col, a.row = parseMarker(dec)
				depth--
			case "to":
				a.toCol, a.toRow = parseMarker(dec)
				depth--
			case "ext":
				// a oneCellAnchor sizes its frame here
				extW, extH = emuAttr(t, "cx"), emuAttr(t, "cy")
			case "cNvPr":
				a.name = attr(t, "name")
			case "xfrm":
				frameW, frameH = parseXfrmExt(dec)
				depth--
			case "chart":
				a.rID = attr(t, "id")
			}
		case xml.EndElement:
			depth--
		}
	}
	switch {
	case frameW > 0 && frameH > 0:
		a.width, a.height = frameW, frameH
	case extW > 0 && extH > 0:
		a.width, a.height = extW, extH
	case a.toCol > a.col && a.toRow > a.row:
		a.width = (a.toCol - a.col) * nominalColWidth
		a.height = (a.toRow - a.row) * nominalRowHeight
	default:
		a.width, a.height = defaultChartWidth, defaultChartHeight
	}
	return a, a.rID != ""
}

// parseMarker reads the col and row of an xdr:from or xdr:to element.
func parseMarker(dec *xml.Decoder) (col, row int) {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "col":
				txt, _ := readElementText(dec)
				col, _ = strconv.Atoi(strings.TrimSpace(txt))
				depth--
			case "row":
				txt, _ := readElementText(dec)
				row, _ = strconv.Atoi(strings.TrimSpace(txt))
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return col, row
}

// parseXfrmExt reads the frame extent in pixels.
func parseXfrmExt(dec *xml.Decoder) (width, height int) {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "ext" {
				width, height = emuAttr(t, "cx"), emuAttr(t, "cy")
			}
		case xml.EndElement:
			depth--
		}
	}
	return width, height
}

func emuAttr(se xml.StartElement, name string) int {
	v, err := strconv.ParseInt(attr(se, name), 10, 64)
	if err != nil {
		return 0
	}
	return EMUToPixels(v)
}

// parseChartXML reads the plot kind, titles and series of a chart part.
func parseChartXML(data []byte) parsedChart {
	var c parsedChart
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "title":
			if c.title == "" && c.kind == "" {
				c.title = parseTitle(dec)
			}
		case "valAx":
			if c.yAxisTitle == "" {
				c.yAxisTitle = parseAxisTitle(dec)
			}
		case "ser":
			c.series = append(c.series, parseSeries(dec))
		default:
			if _, known := chartKinds[se.Name.Local]; known && c.kind == "" {
				c.kind = se.Name.Local
			}
		}
	}
	return c
}

// parseTitle concatenates the a:t runs of a title element.
func parseTitle(dec *xml.Decoder) string {
	var parts []string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "t" || t.Name.Local == "v" {
				if txt, err := readElementText(dec); err == nil {
					parts = append(parts, txt)
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return strings.TrimSpace(strings.Join(parts, ""))
}

func parseAxisTitle(dec *xml.Decoder) string {
	var title string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if t.Name.Local == "title" {
				title = parseTitle(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return title
}

func parseSeries(dec *xml.Decoder) parsedSeries {
	var s parsedSeries
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "tx":
				s.nameRef, s.name = parseDataSource(dec)
				depth--
			case "cat", "xVal":
				s.catRef, s.catCache = parseDataSourceCache(dec)
				depth--
			case "val", "yVal":
				s.valRef, s.valCache = parseDataSourceCache(dec)
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return s
}

// parseDataSource reads the formula and first cached value of tx.
func parseDataSource(dec *xml.Decoder) (formula, value string) {
	f, cache := parseDataSourceCache(dec)
	if len(cache) > 0 {
		value = cache[0]
	}
	return f, value
}

// parseDataSourceCache reads c:f and the c:pt values of a reference element.
func parseDataSourceCache(dec *xml.Decoder) (formula string, cache []string) {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			switch t.Name.Local {
			case "f":
				if txt, err := readElementText(dec); err == nil {
					formula = strings.TrimSpace(txt)
				}
				depth--
			case "v":
				if txt, err := readElementText(dec); err == nil {
					cache = append(cache, strings.TrimSpace(txt))
				}
				depth--
			}
		case xml.EndElement:
			depth--
		}
	}
	return formula, cache
}
