package resource

import (
	"fmt"
	"strconv"
	"strings"
)

type Type uint8

const (
	TypeView Type = iota
	TypePic
	TypeScript
	TypeText
	TypeSound
	TypeMemory
	TypeVocab
	TypeFont
	TypeCursor
	TypePatch
	TypeBitmap
	TypePalette
	TypeCDAudio
	TypeAudio
	TypeSync
	TypeMessage
	TypeMap
	TypeHeap
	TypeInvalid
)

var typeNames = [...]string{
	TypeView:    "view",
	TypePic:     "pic",
	TypeScript:  "script",
	TypeText:    "text",
	TypeSound:   "sound",
	TypeMemory:  "memory",
	TypeVocab:   "vocab",
	TypeFont:    "font",
	TypeCursor:  "cursor",
	TypePatch:   "patch",
	TypeBitmap:  "bitmap",
	TypePalette: "palette",
	TypeCDAudio: "cdaudio",
	TypeAudio:   "audio",
	TypeSync:    "sync",
	TypeMessage: "message",
	TypeMap:     "map",
	TypeHeap:    "heap",
}

// Patch file suffixes used from SCI1 on ("12.v56"). Memory resources
// never had one.
var typeSuffixes = [...]string{
	TypeView:    "v56",
	TypePic:     "p56",
	TypeScript:  "scr",
	TypeText:    "tex",
	TypeSound:   "snd",
	TypeMemory:  "",
	TypeVocab:   "voc",
	TypeFont:    "fon",
	TypeCursor:  "cur",
	TypePatch:   "pat",
	TypeBitmap:  "bit",
	TypePalette: "pal",
	TypeCDAudio: "cda",
	TypeAudio:   "aud",
	TypeSync:    "syn",
	TypeMessage: "msg",
	TypeMap:     "map",
	TypeHeap:    "hep",
}

func (t Type) String() string {
	if t < TypeInvalid {
		name := typeNames[t]
		return "Type(" + strings.ToUpper(name[:1]) + name[1:] + ")"
	}
	return "Type(UNKNOWN)"
}

// Name is the lower-case name used by SCI0 style patch files.
func (t Type) Name() string {
	if t < TypeInvalid {
		return typeNames[t]
	}
	return "invalid"
}

// Suffix is the extension used by SCI1 style patch files.
func (t Type) Suffix() string {
	if t < TypeInvalid {
		return typeSuffixes[t]
	}
	return ""
}

// TypeFromName resolves a name such as "view", ignoring case.
func TypeFromName(name string) (Type, bool) {
	for t, n := range typeNames {
		if strings.EqualFold(n, name) {
			return Type(t), true
		}
	}
	return TypeInvalid, false
}

// TypeFromSuffix resolves a patch suffix such as "v56", ignoring case.
func TypeFromSuffix(suffix string) (Type, bool) {
	if suffix == "" {
		return TypeInvalid, false
	}
	for t, s := range typeSuffixes {
		if strings.EqualFold(s, suffix) {
			return Type(t), true
		}
	}
	return TypeInvalid, false
}

type Number uint16

// ID is the table key of a resource: type in the high half, number in the
// low half.
type ID uint32

func NewID(t Type, n Number) ID { return ID(t)<<16 | ID(n) }

func (id ID) Type() Type     { return Type(id >> 16) }
func (id ID) Number() Number { return Number(id & 0xffff) }

func (id ID) String() string {
	return fmt.Sprintf("%s.%03d", id.Type().Name(), id.Number())
}

// ParseID parses the "type.number" form produced by ID.String.
func ParseID(s string) (ID, error) {
	name, num, ok := strings.Cut(s, ".")
	if !ok {
		return 0, fmt.Errorf("resource id %q: expected type.number", s)
	}
	t, ok := TypeFromName(name)
	if !ok {
		return 0, fmt.Errorf("resource id %q: unknown type %q", s, name)
	}
	n, err := strconv.ParseUint(num, 10, 16)
	if err != nil {
		return 0, fmt.Errorf("resource id %q: %w", s, err)
	}
	return NewID(t, Number(n)), nil
}
