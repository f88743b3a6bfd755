// Package xlsx reads and writes the subset of SpreadsheetML that tabular
// datasets need: one grid of values per sheet, shared and inline strings,
// numbers, booleans and dates. Number formats are read only to tell dates
// from numbers; other styling, formulas and merged cells are ignored.
package xlsx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ErrSheetNotFound is returned when a requested sheet does not exist.
var ErrSheetNotFound = errors.New("sheet not found")

// Sheet identifies a worksheet inside a workbook.
type Sheet struct {
	Name    string
	SheetID int
	rid     string
}

// Workbook is an opened .xlsx archive.
type Workbook struct {
	zr       *zip.Reader
	sheets   []Sheet
	rels     map[string]string
	shared   []string
	formats  []numFmtKind
	date1904 bool
}

// Open reads the workbook at p.
func Open(p string) (*Workbook, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("read xlsx: %w", err)
	}
	return OpenBytes(b)
}

// OpenBytes parses an in-memory workbook.
func OpenBytes(b []byte) (*Workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(b), int64(len(b)))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	wb := &Workbook{zr: zr}
	workbookXML, err := wb.readFile("xl/workbook.xml")
	if err != nil {
		return nil, err
	}
	if workbookXML == nil {
		return nil, errors.New("open xlsx: xl/workbook.xml missing")
	}
	relsXML, err := wb.readFile("xl/_rels/workbook.xml.rels")
	if err != nil {
		return nil, err
	}
	sharedXML, err := wb.readFile("xl/sharedStrings.xml")
	if err != nil {
		return nil, err
	}
	stylesXML, err := wb.readFile("xl/styles.xml")
	if err != nil {
		return nil, err
	}
	if wb.sheets, wb.date1904, err = parseWorkbook(workbookXML); err != nil {
		return nil, err
	}
	if wb.rels, err = parseRelationships(relsXML); err != nil {
		return nil, err
	}
	if wb.shared, err = parseSharedStrings(sharedXML); err != nil {
		return nil, err
	}
	if wb.formats, err = parseStyles(stylesXML); err != nil {
		return nil, err
	}
	return wb, nil
}

// Sheets lists the workbook's sheets in workbook order.
func (wb *Workbook) Sheets() []Sheet { return append([]Sheet(nil), wb.sheets...) }

// Rows returns the rows of the selected sheet from the first non-blank row to
// the last one. Blank rows in between are kept in place, as are rows the sheet
// omits entirely. A non-empty name wins over index; index is 1-based and
// defaults to the first sheet. Sparse rows are padded so each row is as wide
// as its rightmost cell.
func (wb *Workbook) Rows(name string, index int) ([][]string, error) {
	target, err := wb.resolveSheet(name, index)
	if err != nil {
		return nil, err
	}
	data, err := wb.readFile(target)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrSheetNotFound, target)
	}
	rr := &rowReader{
		dec:      xml.NewDecoder(bytes.NewReader(data)),
		shared:   wb.shared,
		formats:  wb.formats,
		date1904: wb.date1904,
	}
	var out [][]string
	for {
		num, row, err := rr.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", target, err)
		}
		// r is 1-based; rows without it, or out of order, follow the previous one
		for num > len(out)+1 {
			out = append(out, []string{})
		}
		out = append(out, row)
	}
	first, last := 0, len(out)
	for first < last && blank(out[first]) {
		first++
	}
	for last > first && blank(out[last-1]) {
		last--
	}
	return out[first:last], nil
}

func (wb *Workbook) resolveSheet(name string, index int) (string, error) {
	if name != "" {
		for _, s := range wb.sheets {
			if strings.EqualFold(s.Name, name) {
				if rel, ok := wb.rels[s.rid]; ok {
					return normalizeRelPath(rel), nil
				}
				break
			}
		}
		names := make([]string, len(wb.sheets))
		for i, s := range wb.sheets {
			names[i] = s.Name
		}
		return "", fmt.Errorf("%w: %q (available: %s)", ErrSheetNotFound, name, strings.Join(names, ", "))
	}
	if index <= 0 {
		index = 1
	}
	if index <= len(wb.sheets) {
		if rel, ok := wb.rels[wb.sheets[index-1].rid]; ok {
			return normalizeRelPath(rel), nil
		}
	}
	// workbooks without relationships: guess the conventional part name
	return path.Join("xl", "worksheets", fmt.Sprintf("sheet%d.xml", index)), nil
}

// readFile returns the named zip entry, or nil when it is absent.
func (wb *Workbook) readFile(name string) ([]byte, error) {
	for _, f := range wb.zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return b, nil
	}
	return nil, nil
}

func parseWorkbook(data []byte) ([]Sheet, bool, error) {
	var sheets []Sheet
	date1904 := false
	err := eachStart(data, func(_ *xml.Decoder, se xml.StartElement) error {
		if se.Name.Local == "workbookPr" {
			v := attr(se, "date1904")
			date1904 = v == "1" || strings.EqualFold(v, "true")
			return nil
		}
		if se.Name.Local != "sheet" {
			return nil
		}
		var s Sheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID = atoiSafe(a.Value)
			case "id":
				s.rid = a.Value
			}
		}
		sheets = append(sheets, s)
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("parse workbook: %w", err)
	}
	return sheets, date1904, nil
}

func parseRelationships(data []byte) (map[string]string, error) {
	out := map[string]string{}
	err := eachStart(data, func(_ *xml.Decoder, se xml.StartElement) error {
		if se.Name.Local != "Relationship" {
			return nil
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse relationships: %w", err)
	}
	return out, nil
}

func parseSharedStrings(data []byte) ([]string, error) {
	var out []string
	err := eachStart(data, func(dec *xml.Decoder, se xml.StartElement) error {
		if se.Name.Local != "si" {
			return nil
		}
		s, err := collectText(dec, "si")
		if err != nil {
			return err
		}
		out = append(out, unescapeXString(s))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse shared strings: %w", err)
	}
	return out, nil
}

// eachStart walks every start element; fn may consume the element's body.
func eachStart(data []byte, fn func(*xml.Decoder, xml.StartElement) error) error {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if se, ok := tok.(xml.StartElement); ok {
			if err := fn(dec, se); err != nil {
				return err
			}
		}
	}
}

// collectText concatenates every <t> below the current element until its end
// tag, skipping phonetic runs.
func collectText(dec *xml.Decoder, end string) (string, error) {
	var sb strings.Builder
	depthT, inPhonetic := 0, 0
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				depthT++
			case "rPh":
				inPhonetic++
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				depthT--
			case "rPh":
				inPhonetic--
			case end:
				return sb.String(), nil
			}
		case xml.CharData:
			if depthT > 0 && inPhonetic == 0 {
				sb.Write(el)
			}
		}
	}
}

type rowReader struct {
	dec      *xml.Decoder
	shared   []string
	formats  []numFmtKind
	date1904 bool
}

// next returns the next <row> and its 1-based number, or 0 when the row
// carries no r attribute.
func (r *rowReader) next() (int, []string, error) {
	var row []string
	num := 0
	inRow := false
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return 0, nil, err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			if se.Name.Local == "row" {
				inRow = true
				row = nil
				num = atoiSafe(attr(se, "r"))
				continue
			}
			if !inRow || se.Name.Local != "c" {
				continue
			}
			var ref, typ string
			style := -1
			for _, a := range se.Attr {
				switch a.Name.Local {
				case "r":
					ref = a.Value
				case "t":
					typ = a.Value
				case "s":
					style = atoiSafe(a.Value)
				}
			}
			col := len(row)
			if ref != "" {
				col = colIndexFromRef(ref)
			}
			val, err := r.cellValue(typ, style)
			if err != nil {
				return 0, nil, err
			}
			if len(row) <= col {
				grown := make([]string, col+1)
				copy(grown, row)
				row = grown
			}
			row[col] = val
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				if row == nil {
					row = []string{}
				}
				return num, row, nil
			}
		}
	}
}

// cellValue reads the body of a <c> element and decodes it according to the
// cell type and style attributes.
func (r *rowReader) cellValue(typ string, style int) (string, error) {
	var val string
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return "", err
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch se.Name.Local {
			case "v":
				if val, err = collectChars(r.dec, "v"); err != nil {
					return "", err
				}
			case "is":
				if val, err = collectText(r.dec, "is"); err != nil {
					return "", err
				}
				val = unescapeXString(val)
			}
		case xml.EndElement:
			if se.Name.Local != "c" {
				continue
			}
			switch typ {
			case "s":
				idx := atoiSafe(val)
				if idx >= 0 && idx < len(r.shared) {
					return r.shared[idx], nil
				}
				return "", nil
			case "b":
				switch val {
				case "1":
					return "TRUE", nil
				case "0":
					return "FALSE", nil
				}
			case "d":
				return formatISODate(val), nil
			case "", "n":
				if style >= 0 && style < len(r.formats) && r.formats[style] != fmtNumber {
					return formatSerial(val, r.formats[style], r.date1904), nil
				}
			}
			return val, nil
		}
	}
}

func collectChars(dec *xml.Decoder, end string) (string, error) {
	var sb strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch el := tok.(type) {
		case xml.CharData:
			sb.Write(el)
		case xml.EndElement:
			if el.Name.Local == end {
				return sb.String(), nil
			}
		}
	}
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func blank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// colIndexFromRef turns a reference like "C12" into a 0-based column index.
func colIndexFromRef(ref string) int {
	idx := 0
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
	}
	return idx - 1
}

func atoiSafe(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// normalizeRelPath converts a relationship Target into a zip entry name.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
