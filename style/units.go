package style

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// This file defines unit-safe lengths used by the style configuration.
// Document units are SVG user units (CSS px, 96 per inch).

// Unit represents the original unit of a length value as written in a style file.
type Unit int

const (
	UnitNone Unit = iota // bare numbers, treated as px
	UnitPX               // CSS pixels
	UnitPT               // points
	UnitMM               // millimeters
	UnitCM               // centimeters
	UnitIN               // inches
)

// Conversion constants between document px, pt and mm.
const (
	PxPerIn = 96.0
	PxToPt  = 72.0 / PxPerIn
	PxToMm  = 25.4 / PxPerIn
	PtToMm  = 25.4 / 72.0
	MmToPt  = 1.0 / PtToMm
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	case UnitMM:
		return "mm"
	case UnitCM:
		return "cm"
	case UnitIN:
		return "in"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64
	Unit  Unit
}

// Px converts the length to document units.
func (l Length) Px() float64 {
	switch l.Unit {
	case UnitPT:
		return l.Value / PxToPt
	case UnitMM:
		return l.Value / PxToMm
	case UnitCM:
		return l.Value * 10 / PxToMm
	case UnitIN:
		return l.Value * PxPerIn
	default:
		return l.Value
	}
}

// ParseLength parses "14", "14px", "10.5pt", "4mm" and so on.
func ParseLength(value string) (Length, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, fmt.Errorf("长度为空")
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}, {"mm", UnitMM}, {"cm", UnitCM}, {"in", UnitIN}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, fmt.Errorf("无法解析长度 %q: %w", value, err)
	}
	return Length{Value: f, Unit: unit}, nil
}

// Px is a document-unit value that accepts unit suffixes in YAML.
type Px float64

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Px) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: 长度必须是标量", node.Line)
	}
	l, err := ParseLength(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*p = Px(l.Px())
	return nil
}

// MarshalYAML writes the value back as a bare number.
func (p Px) MarshalYAML() (any, error) { return float64(p), nil }
