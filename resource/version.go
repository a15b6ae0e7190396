package resource

import (
	"fmt"
	"strings"
)

// Version is the interpreter generation a game was built for.
type Version uint8

const (
	Autodetect Version = iota
	SCI0
	SCI01EGA
	SCI01VGA
	SCI01VGAOdd
	SCI1Early
	SCI1Late
	SCI11
	SCI32
)

var versionNames = [...]string{
	Autodetect:  "autodetect",
	SCI0:        "sci0",
	SCI01EGA:    "sci01-ega",
	SCI01VGA:    "sci01-vga",
	SCI01VGAOdd: "sci01-vga-odd",
	SCI1Early:   "sci1-early",
	SCI1Late:    "sci1-late",
	SCI11:       "sci1.1",
	SCI32:       "sci32",
}

func (v Version) String() string {
	if int(v) < len(versionNames) {
		return versionNames[v]
	}
	return fmt.Sprintf("version(%d)", uint8(v))
}

// ParseVersion accepts the names printed by Version.String.
func ParseVersion(s string) (Version, error) {
	for v, name := range versionNames {
		if strings.EqualFold(name, s) {
			return Version(v), nil
		}
	}
	return Autodetect, fmt.Errorf("unknown sci version %q", s)
}

// MaxNumber is the exclusive upper bound of resource numbers. Requests
// above it are folded back with a modulo.
func (v Version) MaxNumber() int {
	switch v {
	case SCI0:
		return 1000
	case SCI01EGA, SCI01VGA, SCI01VGAOdd:
		return 2048
	}
	return 65536
}

// Format is an on-disk layout generation of map and volume files.
type Format uint8

const (
	FormatUndetermined Format = iota
	FormatSCI0
	FormatSCI1Middle
	FormatSCI1Late
	FormatSCI11
	FormatSCI32
)

func (f Format) String() string {
	switch f {
	case FormatSCI0:
		return "Format(SCI0/SCI1 early)"
	case FormatSCI1Middle:
		return "Format(SCI1 middle)"
	case FormatSCI1Late:
		return "Format(SCI1 late)"
	case FormatSCI11:
		return "Format(SCI1.1)"
	case FormatSCI32:
		return "Format(SCI32)"
	}
	return "Format(Undetermined)"
}
