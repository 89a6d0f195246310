package codec

import (
	"slices"
	"testing"

	"github.com/ukaji3/gridsheet-go/pkg/gridsheet/models"
)

const lineChartXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<c:chartSpace xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main">
  <c:chart>
    <c:title><c:tx><c:rich><a:p><a:r><a:t>Quarterly</a:t></a:r><a:r><a:t> Sales</a:t></a:r></a:p></c:rich></c:tx></c:title>
    <c:plotArea>
      <c:lineChart>
        <c:ser>
          <c:tx><c:strRef><c:f>Sheet1!$B$1</c:f><c:strCache><c:pt idx="0"><c:v>Revenue</c:v></c:pt></c:strCache></c:strRef></c:tx>
          <c:cat><c:strRef><c:f>Sheet1!$A$2:$A$3</c:f><c:strCache><c:pt idx="0"><c:v>Q1</c:v></c:pt><c:pt idx="1"><c:v>Q2</c:v></c:pt></c:strCache></c:strRef></c:cat>
          <c:val><c:numRef><c:f>Sheet1!$B$2:$B$3</c:f><c:numCache><c:formatCode>General</c:formatCode><c:pt idx="0"><c:v>1.5</c:v></c:pt><c:pt idx="1"><c:v>2</c:v></c:pt></c:numCache></c:numRef></c:val>
        </c:ser>
      </c:lineChart>
      <c:catAx><c:title><c:tx><c:rich><a:p><a:r><a:t>Quarter</a:t></a:r></a:p></c:rich></c:tx></c:title></c:catAx>
      <c:valAx><c:title><c:tx><c:rich><a:p><a:r><a:t>USD</a:t></a:r></a:p></c:rich></c:tx></c:title></c:valAx>
    </c:plotArea>
  </c:chart>
</c:chartSpace>`

const drawingXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<xdr:wsDr xmlns:xdr="http://schemas.openxmlformats.org/drawingml/2006/spreadsheetDrawing" xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:c="http://schemas.openxmlformats.org/drawingml/2006/chart" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">
  <xdr:twoCellAnchor>
    <xdr:from><xdr:col>2</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>3</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:from>
    <xdr:to><xdr:col>8</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>18</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:to>
    <xdr:graphicFrame>
      <xdr:nvGraphicFramePr><xdr:cNvPr id="2" name="Chart 1"/></xdr:nvGraphicFramePr>
      <xdr:xfrm><a:off x="0" y="0"/><a:ext cx="0" cy="0"/></xdr:xfrm>
      <a:graphic><a:graphicData><c:chart r:id="rId1"/></a:graphicData></a:graphic>
    </xdr:graphicFrame>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
  <xdr:oneCellAnchor>
    <xdr:from><xdr:col>0</xdr:col><xdr:colOff>0</xdr:colOff><xdr:row>20</xdr:row><xdr:rowOff>0</xdr:rowOff></xdr:from>
    <xdr:ext cx="4762500" cy="2857500"/>
    <xdr:graphicFrame>
      <xdr:nvGraphicFramePr><xdr:cNvPr id="3" name="Chart 2"/></xdr:nvGraphicFramePr>
      <a:graphic><a:graphicData><c:chart r:id="rId2"/></a:graphicData></a:graphic>
    </xdr:graphicFrame>
    <xdr:clientData/>
  </xdr:oneCellAnchor>
  <xdr:twoCellAnchor>
    <xdr:from><xdr:col>0</xdr:col><xdr:row>0</xdr:row></xdr:from>
    <xdr:to><xdr:col>1</xdr:col><xdr:row>1</xdr:row></xdr:to>
    <xdr:pic><xdr:nvPicPr><xdr:cNvPr id="4" name="Picture 1"/></xdr:nvPicPr></xdr:pic>
    <xdr:clientData/>
  </xdr:twoCellAnchor>
</xdr:wsDr>`

func TestParseChartXML(t *testing.T) {
	c := parseChartXML([]byte(lineChartXML))
	if c.kind != "lineChart" {
		t.Errorf("Expected lineChart, got %q", c.kind)
	}
	if c.title != "Quarterly Sales" {
		t.Errorf("Expected title 'Quarterly Sales', got %q", c.title)
	}
	if c.yAxisTitle != "USD" {
		t.Errorf("Expected y axis title USD, got %q", c.yAxisTitle)
	}
	if len(c.series) != 1 {
		t.Fatalf("Expected 1 series, got %d", len(c.series))
	}
	s := c.series[0]
	if s.name != "Revenue" || s.nameRef != "Sheet1!$B$1" {
		t.Errorf("Unexpected series name %q/%q", s.name, s.nameRef)
	}
	if s.catRef != "Sheet1!$A$2:$A$3" || !slices.Equal(s.catCache, []string{"Q1", "Q2"}) {
		t.Errorf("Unexpected categories %q %v", s.catRef, s.catCache)
	}
	if s.valRef != "Sheet1!$B$2:$B$3" || !slices.Equal(s.valCache, []string{"1.5", "2"}) {
		t.Errorf("Unexpected values %q %v", s.valRef, s.valCache)
	}
}

func TestParseDrawingAnchors(t *testing.T) {
	anchors := parseDrawingAnchors([]byte(drawingXML))
	if len(anchors) != 2 {
		t.Fatalf("Expected 2 chart anchors, got %d", len(anchors))
	}
	two := anchors[0]
	if two.name != "Chart 1" || two.rID != "rId1" || two.col != 2 || two.row != 3 {
		t.Errorf("Unexpected two cell anchor %+v", two)
	}
	if two.width != 6*nominalColWidth || two.height != 15*nominalRowHeight {
		t.Errorf("Expected size from anchor cells, got %dx%d", two.width, two.height)
	}
	one := anchors[1]
	if one.rID != "rId2" || one.row != 20 || one.width != 500 || one.height != 300 {
		t.Errorf("Unexpected one cell anchor %+v", one)
	}
}

func TestConvertChart(t *testing.T) {
	pc := parseChartXML([]byte(lineChartXML))
	pc.anchor = chartAnchor{col: 4, row: 1, width: 320, height: 200}
	sheet := &models.Spreadsheet{Worksheets: []models.Worksheet{models.NewWorksheet("Sheet1")}}

	chart, ok := convertChart(pc, "Sheet1", sheet)
	if !ok {
		t.Fatal("convertChart rejected a line chart")
	}
	if chart.ChartType != "line" || chart.Title != "Quarterly Sales" || chart.ID == "" {
		t.Errorf("Unexpected chart %+v", chart)
	}
	if chart.DataRange != "B2:B3" || chart.LabelRange != "A2:A3" {
		t.Errorf("Unexpected ranges %q/%q", chart.DataRange, chart.LabelRange)
	}
	if !slices.Equal(chart.Labels, []string{"Q1", "Q2"}) {
		t.Errorf("Unexpected labels %v", chart.Labels)
	}
	if len(chart.Datasets) != 1 {
		t.Fatalf("Expected 1 dataset, got %d", len(chart.Datasets))
	}
	ds := chart.Datasets[0]
	if ds.Label != "Revenue" || !slices.Equal(ds.Data, []float64{1.5, 2}) {
		t.Errorf("Unexpected dataset %+v", ds)
	}
	if ds.Color != models.PaletteColor(0) || ds.BackgroundColor != models.PaletteColor(0)+"80" {
		t.Errorf("Unexpected colors %q/%q", ds.Color, ds.BackgroundColor)
	}
	if chart.Position != (models.ChartPosition{Row: 1, Col: 4, Width: 320, Height: 200}) {
		t.Errorf("Unexpected position %+v", chart.Position)
	}

	pc.kind = "bubbleChart"
	if _, ok := convertChart(pc, "Sheet1", sheet); ok {
		t.Error("Expected bubble chart to be rejected")
	}
}

func TestResolvePart(t *testing.T) {
	tests := []struct {
		dir, target, expected string
	}{
		{"xl", "worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		{"xl/worksheets", "../drawings/drawing1.xml", "xl/drawings/drawing1.xml"},
		{"xl/drawings", "/xl/charts/chart1.xml", "xl/charts/chart1.xml"},
		{"xl", "./styles.xml", "xl/styles.xml"},
	}
	for _, tt := range tests {
		if got := resolvePart(tt.dir, tt.target); got != tt.expected {
			t.Errorf("resolvePart(%q, %q) = %q, want %q", tt.dir, tt.target, got, tt.expected)
		}
	}
}
