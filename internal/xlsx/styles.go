package xlsx

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// numFmtKind says how a numeric cell value should be presented.
type numFmtKind int

const (
	fmtNumber numFmtKind = iota
	fmtDate
	fmtTime
)

// DateLayout is the text form of date and datetime cells, as pandas prints
// timestamps.
const DateLayout = "2006-01-02 15:04:05"

// TimeLayout is the text form of time-of-day cells.
const TimeLayout = "15:04:05"

// parseStyles maps every cellXfs entry (the index used by a cell's s
// attribute) to the kind of its number format.
func parseStyles(data []byte) ([]numFmtKind, error) {
	if len(data) == 0 {
		return nil, nil
	}
	custom := map[int]string{}
	var xfs []int
	inCellXfs := false
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse styles: %w", err)
		}
		switch el := tok.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "numFmt":
				custom[atoiSafe(attr(el, "numFmtId"))] = attr(el, "formatCode")
			case "cellXfs":
				inCellXfs = true
			case "xf":
				// cellStyleXfs holds xf elements too; only cellXfs is indexed by cells
				if inCellXfs {
					xfs = append(xfs, atoiSafe(attr(el, "numFmtId")))
				}
			}
		case xml.EndElement:
			if el.Name.Local == "cellXfs" {
				inCellXfs = false
			}
		}
	}
	kinds := make([]numFmtKind, len(xfs))
	for i, id := range xfs {
		if code, ok := custom[id]; ok {
			kinds[i] = classifyFormatCode(code)
			continue
		}
		kinds[i] = builtinFormat(id)
	}
	return kinds, nil
}

func builtinFormat(id int) numFmtKind {
	switch {
	case id >= 14 && id <= 17, id == 22:
		return fmtDate
	case id >= 18 && id <= 21, id >= 45 && id <= 47:
		return fmtTime
	}
	return fmtNumber
}

// classifyFormatCode inspects the first section of a custom format code with
// quoted literals, escapes and bracketed modifiers removed. Elapsed-time
// brackets such as [h] count as time tokens.
func classifyFormatCode(code string) numFmtKind {
	var b strings.Builder
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch c {
		case ';':
			i = len(code)
		case '"':
			if j := strings.IndexByte(code[i+1:], '"'); j >= 0 {
				i += j + 1
			} else {
				i = len(code)
			}
		case '\\', '_', '*':
			i++
		case '[':
			j := strings.IndexByte(code[i+1:], ']')
			if j < 0 {
				i = len(code)
				continue
			}
			inner := strings.ToLower(code[i+1 : i+1+j])
			if inner != "" && strings.Trim(inner, "hms") == "" {
				b.WriteString(inner)
			}
			i += j + 1
		default:
			if c >= 'A' && c <= 'Z' {
				c += 'a' - 'A'
			}
			b.WriteByte(c)
		}
	}
	s := b.String()
	if strings.Contains(s, "general") {
		return fmtNumber
	}
	hasTime := strings.ContainsAny(s, "hs")
	switch {
	case strings.ContainsAny(s, "dy"):
		return fmtDate
	case strings.Contains(s, "m") && !hasTime:
		// a lone m is a month
		return fmtDate
	case hasTime:
		return fmtTime
	}
	return fmtNumber
}

// formatSerial renders an Excel serial day number. Values that are not
// numbers or fall before the epoch are returned unchanged.
func formatSerial(val string, kind numFmtKind, date1904 bool) string {
	f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return val
	}
	t := serialTime(f, date1904)
	if kind == fmtTime && f < 1 {
		return t.Format(TimeLayout)
	}
	return t.Format(DateLayout)
}

// serialTime converts a serial day number to a time, rounded to the second.
// The 1900 system counts a nonexistent 1900-02-29, so serials below 60 are
// shifted by a day.
func serialTime(serial float64, date1904 bool) time.Time {
	epoch := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
	if date1904 {
		epoch = time.Date(1904, 1, 1, 0, 0, 0, 0, time.UTC)
	} else if serial < 60 {
		epoch = epoch.AddDate(0, 0, 1)
	}
	days := math.Floor(serial)
	secs := math.Round((serial - days) * 86400)
	return epoch.AddDate(0, 0, int(days)).Add(time.Duration(secs) * time.Second)
}

// formatISODate renders a t="d" cell, whose value is an ISO 8601 string.
func formatISODate(val string) string {
	v := strings.TrimSpace(val)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04:05.999999999", "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format(DateLayout)
		}
	}
	if t, err := time.Parse("15:04:05", v); err == nil {
		return t.Format(TimeLayout)
	}
	return val
}

// escapeXString encodes the characters XML 1.0 cannot carry as _xHHHH_, the
// SpreadsheetML escape. A literal "_x" that would read as an escape has its
// underscore encoded as _x005F_.
func escapeXString(s string) string {
	if !needsXEscape(s) {
		return s
	}
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '_' && isXEscape(s[i:]):
			b.WriteString("_x005F_")
		case !xmlChar(r):
			fmt.Fprintf(&b, "_x%04X_", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// unescapeXString reverses escapeXString.
func unescapeXString(s string) string {
	if !strings.Contains(s, "_x") {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); {
		if s[i] == '_' && isXEscape(s[i:]) {
			n, _ := strconv.ParseUint(s[i+2:i+6], 16, 32)
			b.WriteRune(rune(n))
			i += 7
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

func needsXEscape(s string) bool {
	for i, r := range s {
		if !xmlChar(r) || (r == '_' && isXEscape(s[i:])) {
			return true
		}
	}
	return false
}

// isXEscape reports whether s starts with _xHHHH_.
func isXEscape(s string) bool {
	if len(s) < 7 || s[0] != '_' || s[1] != 'x' || s[6] != '_' {
		return false
	}
	for _, c := range s[2:6] {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			return false
		}
	}
	return true
}

// xmlChar reports whether r may appear in XML 1.0 character data.
func xmlChar(r rune) bool {
	switch {
	case r == '\t', r == '\n', r == '\r':
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	}
	return false
}
