package main

import (
	"fmt"
	"strconv"
	"strings"
)

// Slicer comment markers (PrusaSlicer / OrcaSlicer convention).
var (
	infillStartMarkers = []string{";TYPE:Internal infill", ";TYPE:Sparse infill"}
	solidInfillMarkers = []string{";TYPE:Solid infill", ";TYPE:Internal solid infill"}
)

func isInfillStart(raw string) bool {
	for _, m := range infillStartMarkers {
		if strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

func isSolidInfill(raw string) bool {
	for _, m := range solidInfillMarkers {
		if strings.Contains(raw, m) {
			return true
		}
	}
	return false
}

func isRegionBoundary(raw string) bool {
	return strings.HasPrefix(raw, ";TYPE:")
}

// Line is one parsed G-code line. Numeric fields are only meaningful when the
// matching Has flag is set.
type Line struct {
	Raw     string
	Cmd     string
	Comment string

	X, Y, Z, E, F                float64
	HasX, HasY, HasZ, HasE, HasF bool

	cr        bool // line ended with \r (CRLF input)
	malformed bool
}

func (l Line) IsMotion() bool {
	return l.Cmd == "G0" || l.Cmd == "G1"
}

// OK reports whether the line parsed cleanly. Malformed lines are opaque:
// they are emitted unchanged and contribute no position state.
func (l Line) OK() bool {
	return !l.malformed
}

func ParseLine(raw string) Line {
	l := Line{Raw: raw}

	code := raw
	if strings.HasSuffix(code, "\r") {
		l.cr = true
		code = strings.TrimSuffix(code, "\r")
	}
	if i := strings.IndexByte(code, ';'); i >= 0 {
		l.Comment = code[i:]
		code = code[:i]
	}

	fields := strings.Fields(code)
	if len(fields) == 0 {
		return l
	}
	l.Cmd = fields[0]

	for _, f := range fields[1:] {
		v, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			l.malformed = true
			continue
		}
		switch f[0] {
		case 'X', 'x':
			l.X, l.HasX = v, true
		case 'Y', 'y':
			l.Y, l.HasY = v, true
		case 'Z', 'z':
			l.Z, l.HasZ = v, true
		case 'E', 'e':
			l.E, l.HasE = v, true
		case 'F', 'f':
			l.F, l.HasF = v, true
		}
	}
	return l
}

// WithZ rewrites only the Z word of the line, inserting one after the Y word
// when the line has none. All other tokens keep their original text and order.
func (l Line) WithZ(z float64) string {
	code := l.Raw
	if l.cr {
		code = strings.TrimSuffix(code, "\r")
	}
	code = strings.TrimSuffix(code, l.Comment)
	code = strings.TrimRight(code, " \t")

	zWord := fmt.Sprintf("Z%.3f", z)
	fields := strings.Fields(code)
	replaced := false
	for i, f := range fields {
		if f[0] == 'Z' || f[0] == 'z' {
			fields[i] = zWord
			replaced = true
			break
		}
	}
	if !replaced {
		out := make([]string, 0, len(fields)+1)
		for _, f := range fields {
			out = append(out, f)
			if zWord != "" && (f[0] == 'Y' || f[0] == 'y') {
				out = append(out, zWord)
				zWord = ""
			}
		}
		if zWord != "" {
			out = append(out, zWord)
		}
		fields = out
	}

	s := strings.Join(fields, " ")
	if l.Comment != "" {
		s += " " + l.Comment
	}
	if l.cr {
		s += "\r"
	}
	return s
}
