package namespace

import "fmt"

// Type is the tag that says how the value behind an entry is laid out.
type Type uint8

const (
	TypeNone Type = iota

	// Scalars.
	TypeUint8
	TypeInt8
	TypeBool
	TypeUint16
	TypeInt16
	TypeUint32
	TypeInt32
	TypeUint64
	TypeInt64
	TypeFloat
	TypeDouble
	TypeUTC // modified Julian date, stored as float64
	TypeString
	TypeName

	// Composites.
	TypeVector
	TypeRVector
	TypeGVector
	TypeSVector
	TypeAVector
	TypeQuaternion
	TypeRMatrix
	TypeMatrix43
	TypeCartPos
	TypeGeoidPos
	TypeSpherPos
	TypeQAtt
	TypePos
	TypeAtt
	TypeLoc
	TypeBeat

	// Indirections.
	TypeAlias
	TypeEquation

	typeCount
)

// Capacities for the fixed-length string kinds, excluding the terminator.
const (
	MaxString = 255
	MaxName   = 40
)

var typeNames = [typeCount]string{
	TypeNone:       "none",
	TypeUint8:      "uint8",
	TypeInt8:       "int8",
	TypeBool:       "bool",
	TypeUint16:     "uint16",
	TypeInt16:      "int16",
	TypeUint32:     "uint32",
	TypeInt32:      "int32",
	TypeUint64:     "uint64",
	TypeInt64:      "int64",
	TypeFloat:      "float",
	TypeDouble:     "double",
	TypeUTC:        "utc",
	TypeString:     "string",
	TypeName:       "name",
	TypeVector:     "vector",
	TypeRVector:    "rvector",
	TypeGVector:    "gvector",
	TypeSVector:    "svector",
	TypeAVector:    "avector",
	TypeQuaternion: "quaternion",
	TypeRMatrix:    "rmatrix",
	TypeMatrix43:   "matrix4x3",
	TypeCartPos:    "cartpos",
	TypeGeoidPos:   "geoidpos",
	TypeSpherPos:   "spherpos",
	TypeQAtt:       "qatt",
	TypePos:        "posstruc",
	TypeAtt:        "attstruc",
	TypeLoc:        "locstruc",
	TypeBeat:       "beatstruc",
	TypeAlias:      "alias",
	TypeEquation:   "equation",
}

func (t Type) String() string {
	if t < typeCount {
		return typeNames[t]
	}
	return fmt.Sprintf("type(%d)", uint8(t))
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	for i, n := range typeNames {
		if n == s {
			return Type(i), nil
		}
	}
	return TypeNone, errorf(KindInvalid, "unknown type %q", s)
}

// IsScalar reports whether values of t are a single number, flag or string.
func (t Type) IsScalar() bool { return t >= TypeUint8 && t <= TypeName }

// IsNumeric reports whether t has a direct numeric interpretation.
func (t Type) IsNumeric() bool { return t >= TypeUint8 && t <= TypeUTC }

// IsComposite reports whether t is built of named sub-fields.
func (t Type) IsComposite() bool { return t >= TypeVector && t <= TypeBeat }

// IsFrame reports whether writes of t bump a pass counter and trigger
// recomputation of the other reference frames.
func (t Type) IsFrame() bool {
	switch t {
	case TypeCartPos, TypeGeoidPos, TypeSpherPos, TypeQAtt, TypePos, TypeAtt, TypeLoc:
		return true
	}
	return false
}

// Group names a top-level category of caller-owned storage. Locators inside a
// group are relative to the base registered with SetBase.
type Group uint8

const (
	GroupDirect Group = iota // absolute address, no base
	GroupNode
	GroupAgent
	GroupDevice
	GroupDeviceSpecific
	GroupPiece
	GroupPort
	GroupEvent
	GroupPhysics
	GroupTarget
	GroupVertex
	GroupFace
	GroupGlossary
	GroupTLE
	GroupAlias
	GroupEquation

	groupCount
)

var groupNames = [groupCount]string{
	GroupDirect:         "direct",
	GroupNode:           "node",
	GroupAgent:          "agent",
	GroupDevice:         "device",
	GroupDeviceSpecific: "devspec",
	GroupPiece:          "piece",
	GroupPort:           "port",
	GroupEvent:          "event",
	GroupPhysics:        "physics",
	GroupTarget:         "target",
	GroupVertex:         "vertex",
	GroupFace:           "face",
	GroupGlossary:       "glossary",
	GroupTLE:            "tle",
	GroupAlias:          "alias",
	GroupEquation:       "equation",
}

func (g Group) String() string {
	if g < groupCount {
		return groupNames[g]
	}
	return fmt.Sprintf("group(%d)", uint8(g))
}

// Handle addresses an entry (or an equation, in the equation table) by its
// bucket and its slot inside the bucket. Slots are append-only, so a handle
// stays valid until Reset or Teardown.
type Handle struct {
	Bucket int
	Slot   int
}

func (h Handle) String() string { return fmt.Sprintf("%d:%d", h.Bucket, h.Slot) }

// TargetKind says what an alias points at.
type TargetKind uint8

const (
	TargetEntry TargetKind = iota
	TargetEquation
)

// Target is the resolved destination of an alias or equation entry. Type is
// the cached type of the final value, so formatting needs no second lookup.
type Target struct {
	Kind   TargetKind
	Handle Handle
	Type   Type
}

// NoIndex marks an unused side-table index.
const NoIndex = -1

// Entry describes how to locate and interpret one named value.
type Entry struct {
	Name    string
	Type    Type
	Unit    UnitID
	Group   Group
	Enabled bool

	// Side-table indices for threshold records. NoIndex when unset.
	Alarm int
	Alert int
	Min   int
	Max   int

	loc    Locator
	target *Target
}

// Target returns the alias or equation destination of e, if any.
func (e *Entry) Target() (Target, bool) {
	if e.target == nil {
		return Target{}, false
	}
	return *e.target, true
}

// ValueType is the type that reads of e produce: the cached target type for
// aliases, the entry type otherwise.
func (e *Entry) ValueType() Type {
	if e.Type == TypeAlias && e.target != nil {
		return e.target.Type
	}
	return e.Type
}

// Info is a flattened description of one entry, used for catalogues.
type Info struct {
	Name    string `json:"name" cbor:"1,keyasint"`
	Type    string `json:"type" cbor:"2,keyasint"`
	Unit    string `json:"unit,omitempty" cbor:"3,keyasint,omitempty"`
	Group   string `json:"group" cbor:"4,keyasint"`
	Enabled bool   `json:"enabled" cbor:"5,keyasint"`
	Target  string `json:"target,omitempty" cbor:"6,keyasint,omitempty"`
}
