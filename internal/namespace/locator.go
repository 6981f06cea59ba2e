package namespace

// Locator finds the storage behind an entry. It is captured at registration
// and resolves to a typed pointer (*float64, *Vector, ...) given the group
// base, so every access is checked against the Go type at the boundary.
//
// Locators are built with In, At or Index; the interface is sealed.
type Locator interface {
	Group() Group
	resolve(base any) (any, bool)
	probe() any
}

type field[B, T any] struct {
	group Group
	sel   func(*B) *T
}

// In locates a field of type T inside the group base of type *B.
//
//	namespace.In(namespace.GroupNode, func(n *Node) *float64 { return &n.Mass })
func In[B, T any](g Group, sel func(*B) *T) Locator {
	return field[B, T]{group: g, sel: sel}
}

func (f field[B, T]) Group() Group { return f.group }

func (f field[B, T]) resolve(base any) (any, bool) {
	b, ok := base.(*B)
	if !ok || b == nil {
		return nil, false
	}
	p := f.sel(b)
	if p == nil {
		return nil, false
	}
	return p, true
}

func (f field[B, T]) probe() any { return (*T)(nil) }

type element[E, T any] struct {
	group Group
	i     int
	sel   func(*E) *T
}

// Index locates a field of element i of a slice group base (*[]E). A slice
// that has shrunk below i resolves to nothing rather than panicking.
func Index[E, T any](g Group, i int, sel func(*E) *T) Locator {
	return element[E, T]{group: g, i: i, sel: sel}
}

func (e element[E, T]) Group() Group { return e.group }

func (e element[E, T]) resolve(base any) (any, bool) {
	s, ok := base.(*[]E)
	if !ok || s == nil || e.i < 0 || e.i >= len(*s) {
		return nil, false
	}
	p := e.sel(&(*s)[e.i])
	if p == nil {
		return nil, false
	}
	return p, true
}

func (e element[E, T]) probe() any { return (*T)(nil) }

type direct[T any] struct {
	p *T
}

// At locates a value by its address, outside any group.
func At[T any](p *T) Locator { return direct[T]{p: p} }

func (d direct[T]) Group() Group { return GroupDirect }

func (d direct[T]) resolve(any) (any, bool) {
	if d.p == nil {
		return nil, false
	}
	return d.p, true
}

func (d direct[T]) probe() any { return (*T)(nil) }

// fits reports whether a pointer of p's dynamic type may carry values of t.
func fits(t Type, p any) bool {
	switch p.(type) {
	case *uint8:
		return t == TypeUint8
	case *int8:
		return t == TypeInt8
	case *bool:
		return t == TypeBool
	case *uint16:
		return t == TypeUint16
	case *int16:
		return t == TypeInt16
	case *uint32:
		return t == TypeUint32
	case *int32:
		return t == TypeInt32
	case *uint64:
		return t == TypeUint64
	case *int64:
		return t == TypeInt64
	case *float32:
		return t == TypeFloat
	case *float64:
		return t == TypeDouble || t == TypeUTC
	case *string:
		return t == TypeString || t == TypeName
	case *Vector:
		return t == TypeVector || t == TypeRVector
	case *GVector:
		return t == TypeGVector
	case *SVector:
		return t == TypeSVector
	case *AVector:
		return t == TypeAVector
	case *Quaternion:
		return t == TypeQuaternion
	case *RMatrix:
		return t == TypeRMatrix
	case *Matrix43:
		return t == TypeMatrix43
	case *CartPos:
		return t == TypeCartPos
	case *GeoidPos:
		return t == TypeGeoidPos
	case *SpherPos:
		return t == TypeSpherPos
	case *QAtt:
		return t == TypeQAtt
	case *Pos:
		return t == TypePos
	case *Att:
		return t == TypeAtt
	case *Loc:
		return t == TypeLoc
	case *Beat:
		return t == TypeBeat
	}
	return false
}

// Fresh allocates zeroed storage for one value of type t and returns a
// direct locator to it. It reports false for the indirection types.
func Fresh(t Type) (Locator, bool) {
	switch t {
	case TypeUint8:
		return At(new(uint8)), true
	case TypeInt8:
		return At(new(int8)), true
	case TypeBool:
		return At(new(bool)), true
	case TypeUint16:
		return At(new(uint16)), true
	case TypeInt16:
		return At(new(int16)), true
	case TypeUint32:
		return At(new(uint32)), true
	case TypeInt32:
		return At(new(int32)), true
	case TypeUint64:
		return At(new(uint64)), true
	case TypeInt64:
		return At(new(int64)), true
	case TypeFloat:
		return At(new(float32)), true
	case TypeDouble, TypeUTC:
		return At(new(float64)), true
	case TypeString, TypeName:
		return At(new(string)), true
	case TypeVector, TypeRVector:
		return At(new(Vector)), true
	case TypeGVector:
		return At(new(GVector)), true
	case TypeSVector:
		return At(new(SVector)), true
	case TypeAVector:
		return At(new(AVector)), true
	case TypeQuaternion:
		return At(new(Quaternion)), true
	case TypeRMatrix:
		return At(new(RMatrix)), true
	case TypeMatrix43:
		return At(new(Matrix43)), true
	case TypeCartPos:
		return At(new(CartPos)), true
	case TypeGeoidPos:
		return At(new(GeoidPos)), true
	case TypeSpherPos:
		return At(new(SpherPos)), true
	case TypeQAtt:
		return At(new(QAtt)), true
	case TypePos:
		return At(new(Pos)), true
	case TypeAtt:
		return At(new(Att)), true
	case TypeLoc:
		return At(new(Loc)), true
	case TypeBeat:
		return At(new(Beat)), true
	}
	return nil, false
}
