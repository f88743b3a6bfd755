package table

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the value held by a Cell.
type Kind uint8

const (
	Missing Kind = iota
	Numeric
	Text
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a single table value. The kind is decided once, at load time.
type Cell struct {
	Kind Kind
	Num  float64
	// Raw is the source text (trimmed). Numeric cells keep it so that
	// filtering matches what the user sees in the sheet.
	Raw string
}

// naTokens mirror the spreadsheet-reader conventions for blank values.
var naTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// ParseCell tags raw text as missing, numeric or text using a strict parse.
func ParseCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if _, ok := naTokens[s]; ok {
		return Cell{Kind: Missing}
	}
	if f, ok := parseStrictFloat(s); ok {
		return Cell{Kind: Numeric, Num: f, Raw: s}
	}
	return Cell{Kind: Text, Raw: s}
}

// NumberCell builds a numeric cell with a canonical text form.
func NumberCell(f float64) Cell {
	return Cell{Kind: Numeric, Num: f, Raw: strconv.FormatFloat(f, 'f', -1, 64)}
}

// TextCell builds a text cell without attempting numeric coercion.
func TextCell(s string) Cell { return Cell{Kind: Text, Raw: s} }

// String returns the text representation used for filtering; missing is "".
func (c Cell) String() string {
	if c.Kind == Missing {
		return ""
	}
	return c.Raw
}

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.Kind == Missing }

func parseStrictFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	body := strings.TrimLeft(s, "+-")
	// no hex floats, no digit separators
	if strings.HasPrefix(body, "0x") || strings.HasPrefix(body, "0X") || strings.Contains(body, "_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
