package namespace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testPiece struct {
	Name string
	Mass float32
}

type testRecord struct {
	U8  uint8
	I8  int8
	B   bool
	U16 uint16
	I16 int16
	U32 uint32
	I32 int32
	U64 uint64
	I64 int64
	F   float32
	D   float64
	UTC float64
	S   string
	N   string

	X, Y float64

	V   Vector
	G   GVector
	SV  SVector
	AV  AVector
	Q   Quaternion
	RM  RMatrix
	M43 Matrix43
	CP  CartPos
	GP  GeoidPos
	SP  SpherPos
	QA  QAtt
	P   Pos
	A   Att
	L   Loc
	HB  Beat

	Pieces []testPiece
}

func node[T any](sel func(*testRecord) *T) Locator { return In(GroupNode, sel) }

// newTestRegistry registers one entry per type over a fresh record.
func newTestRegistry(t *testing.T) (*Registry, *testRecord) {
	t.Helper()

	rec := &testRecord{Pieces: make([]testPiece, 2)}
	r := New()
	r.SetBase(GroupNode, rec)
	r.SetBase(GroupPiece, &rec.Pieces)

	add := func(name string, typ Type, unit UnitID, loc Locator) {
		t.Helper()
		_, err := r.Register(name, typ, unit, loc)
		require.NoError(t, err, name)
	}
	add("u8", TypeUint8, UnitNone, node(func(x *testRecord) *uint8 { return &x.U8 }))
	add("i8", TypeInt8, UnitNone, node(func(x *testRecord) *int8 { return &x.I8 }))
	add("b", TypeBool, UnitNone, node(func(x *testRecord) *bool { return &x.B }))
	add("u16", TypeUint16, UnitNone, node(func(x *testRecord) *uint16 { return &x.U16 }))
	add("i16", TypeInt16, UnitNone, node(func(x *testRecord) *int16 { return &x.I16 }))
	add("u32", TypeUint32, UnitNone, node(func(x *testRecord) *uint32 { return &x.U32 }))
	add("i32", TypeInt32, UnitNone, node(func(x *testRecord) *int32 { return &x.I32 }))
	add("u64", TypeUint64, UnitNone, node(func(x *testRecord) *uint64 { return &x.U64 }))
	add("i64", TypeInt64, UnitNone, node(func(x *testRecord) *int64 { return &x.I64 }))
	add("f", TypeFloat, UnitTemperature, node(func(x *testRecord) *float32 { return &x.F }))
	add("d", TypeDouble, UnitLength, node(func(x *testRecord) *float64 { return &x.D }))
	add("utc", TypeUTC, UnitDate, node(func(x *testRecord) *float64 { return &x.UTC }))
	add("s", TypeString, UnitNone, node(func(x *testRecord) *string { return &x.S }))
	add("n", TypeName, UnitNone, node(func(x *testRecord) *string { return &x.N }))
	add("x", TypeDouble, UnitNone, node(func(x *testRecord) *float64 { return &x.X }))
	add("y", TypeDouble, UnitNone, node(func(x *testRecord) *float64 { return &x.Y }))
	add("v", TypeVector, UnitLength, node(func(x *testRecord) *Vector { return &x.V }))
	add("g", TypeGVector, UnitNone, node(func(x *testRecord) *GVector { return &x.G }))
	add("sv", TypeSVector, UnitNone, node(func(x *testRecord) *SVector { return &x.SV }))
	add("av", TypeAVector, UnitNone, node(func(x *testRecord) *AVector { return &x.AV }))
	add("q", TypeQuaternion, UnitNone, node(func(x *testRecord) *Quaternion { return &x.Q }))
	add("rm", TypeRMatrix, UnitNone, node(func(x *testRecord) *RMatrix { return &x.RM }))
	add("m43", TypeMatrix43, UnitNone, node(func(x *testRecord) *Matrix43 { return &x.M43 }))
	add("cp", TypeCartPos, UnitNone, node(func(x *testRecord) *CartPos { return &x.CP }))
	add("gp", TypeGeoidPos, UnitNone, node(func(x *testRecord) *GeoidPos { return &x.GP }))
	add("sp", TypeSpherPos, UnitNone, node(func(x *testRecord) *SpherPos { return &x.SP }))
	add("qa", TypeQAtt, UnitNone, node(func(x *testRecord) *QAtt { return &x.QA }))
	add("pos", TypePos, UnitNone, node(func(x *testRecord) *Pos { return &x.P }))
	add("att", TypeAtt, UnitNone, node(func(x *testRecord) *Att { return &x.A }))
	add("loc", TypeLoc, UnitNone, node(func(x *testRecord) *Loc { return &x.L }))
	add("beat", TypeBeat, UnitNone, node(func(x *testRecord) *Beat { return &x.HB }))
	for i := range rec.Pieces {
		add(IndexedName("piece_name", i), TypeName, UnitNone, Index(GroupPiece, i, func(p *testPiece) *string { return &p.Name }))
		add(IndexedName("piece_mass", i), TypeFloat, UnitMass, Index(GroupPiece, i, func(p *testPiece) *float32 { return &p.Mass }))
	}
	return r, rec
}

func mustLookup(t *testing.T, r *Registry, name string) Handle {
	t.Helper()
	h, err := r.Lookup(name)
	require.NoError(t, err, name)
	return h
}

func requireKind(t *testing.T, err error, kind ErrKind) {
	t.Helper()
	require.Error(t, err)
	got, ok := KindOf(err)
	require.True(t, ok, "not a namespace error: %v", err)
	assert.Equal(t, kind, got, "error: %v", err)
}

func TestHash(t *testing.T) {
	assert.Equal(t, 0, Hash(""))
	assert.Equal(t, 97, Hash("a"))
	assert.Equal(t, (97*31+98)%Buckets, Hash("ab"))

	long := "node_loc_pos_eci_s_with_a_name_long_enough_to_wrap_sixteen_bits"
	assert.Equal(t, Hash(long), Hash(long))
	assert.Less(t, Hash(long), Buckets)
}

func TestRegister_Idempotent(t *testing.T) {
	r, rec := newTestRegistry(t)
	before := r.Count()
	h := mustLookup(t, r, "d")
	require.NoError(t, r.SetDouble(h, 42))

	n, err := r.Register("d", TypeDouble, UnitLength, node(func(x *testRecord) *float64 { return &x.D }))
	require.NoError(t, err)
	assert.Equal(t, before, n)
	assert.Equal(t, before, r.Count())

	again := mustLookup(t, r, "d")
	assert.Equal(t, h, again)
	v, err := r.GetDouble(h)
	require.NoError(t, err)
	assert.Equal(t, 42.0, v)
	assert.Equal(t, 42.0, rec.D)
}

func TestRegister_OverwriteKeepsEnabled(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Toggle("x", false))

	_, err := r.Register("x", TypeDouble, UnitLength, node(func(x *testRecord) *float64 { return &x.Y }))
	require.NoError(t, err)

	assert.False(t, r.IsEnabled("x"))
	e, err := r.Entry(mustLookup(t, r, "x"))
	require.NoError(t, err)
	assert.Equal(t, UnitLength, e.Unit)
}

func TestRegister_Rejects(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.Register("bad", TypeDouble, UnitNone, node(func(x *testRecord) *float32 { return &x.F }))
	requireKind(t, err, KindType)

	_, err = r.Register("", TypeDouble, UnitNone, node(func(x *testRecord) *float64 { return &x.D }))
	requireKind(t, err, KindInvalid)

	_, err = r.Register(`quo"te`, TypeDouble, UnitNone, node(func(x *testRecord) *float64 { return &x.D }))
	requireKind(t, err, KindInvalid)

	_, err = r.Register("alias", TypeAlias, UnitNone, node(func(x *testRecord) *float64 { return &x.D }))
	requireKind(t, err, KindInvalid)

	_, err = r.Register("nil", TypeDouble, UnitNone, nil)
	requireKind(t, err, KindInvalid)
}

func TestRegister_Growth(t *testing.T) {
	var v float64
	r := New()
	r.SetMaxEntries(2)

	_, err := r.Register("a", TypeDouble, UnitNone, At(&v))
	require.NoError(t, err)
	_, err = r.Register("b", TypeDouble, UnitNone, At(&v))
	require.NoError(t, err)
	_, err = r.Register("c", TypeDouble, UnitNone, At(&v))
	requireKind(t, err, KindGrowth)
	assert.ErrorIs(t, err, ErrGrowth)

	// Overwrites never grow.
	n, err := r.Register("a", TypeDouble, UnitNone, At(&v))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestLookup(t *testing.T) {
	r, _ := newTestRegistry(t)

	h := mustLookup(t, r, "u16")
	assert.Equal(t, Hash("u16"), h.Bucket)

	_, err := r.Lookup("nope")
	requireKind(t, err, KindNotFound)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = r.Entry(Handle{Bucket: Buckets, Slot: 0})
	requireKind(t, err, KindOutOfRange)
}

func TestReset_StaleHandles(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := mustLookup(t, r, "d")

	r.Reset()

	assert.Equal(t, 0, r.Count())
	_, err := r.Entry(h)
	requireKind(t, err, KindOutOfRange)
}

func TestTeardown(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := mustLookup(t, r, "d")

	r.Teardown()

	_, err := r.Lookup("d")
	requireKind(t, err, KindNoNamespace)
	_, err = r.Get(h)
	requireKind(t, err, KindNoNamespace)
	_, err = r.Parse(`{"d":1}`)
	requireKind(t, err, KindNoNamespace)
	_, err = r.Serialize(h)
	requireKind(t, err, KindNoNamespace)
	_, err = r.Register("d", TypeDouble, UnitNone, At(new(float64)))
	requireKind(t, err, KindNoNamespace)
	assert.False(t, r.IsEnabled("d"))
}

func TestEmptyRegistry_NoNamespace(t *testing.T) {
	r := New()

	_, err := r.Lookup("d")
	requireKind(t, err, KindNoNamespace)
	_, err = r.Match("*")
	requireKind(t, err, KindNoNamespace)
	_, err = r.SerializeMatch("*")
	requireKind(t, err, KindNoNamespace)
	_, err = r.SerializeNames("d")
	requireKind(t, err, KindNoNamespace)
	_, err = r.Parse(`{"d":1}`)
	requireKind(t, err, KindNoNamespace)

	var d float64
	_, err = r.Register("d", TypeDouble, UnitLength, At(&d))
	require.NoError(t, err)
	_, err = r.Lookup("nosuch")
	requireKind(t, err, KindNotFound)
	out, err := r.SerializeMatch("nosuch*")
	require.NoError(t, err)
	assert.Empty(t, out)

	r.Reset()
	_, err = r.Lookup("d")
	requireKind(t, err, KindNoNamespace)
}

func TestToggle(t *testing.T) {
	r, _ := newTestRegistry(t)

	assert.True(t, r.IsEnabled("d"))
	require.NoError(t, r.Toggle("d", false))
	assert.False(t, r.IsEnabled("d"))
	require.NoError(t, r.Toggle("d", true))
	assert.True(t, r.IsEnabled("d"))

	requireKind(t, r.Toggle("nope", true), KindNotFound)
	assert.False(t, r.IsEnabled("nope"))
}

func TestDisabledEntriesStayReadable(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := mustLookup(t, r, "i32")
	require.NoError(t, r.Toggle("i32", false))

	require.NoError(t, r.Set(h, int32(-7)))
	v, err := r.GetInt(h)
	require.NoError(t, err)
	assert.Equal(t, int64(-7), v)
}

func TestIndexedName(t *testing.T) {
	tests := []struct {
		base string
		idx  []int
		want string
	}{
		{"piece_name", []int{0}, "piece_name_000"},
		{"device_temp", []int{42}, "device_temp_042"},
		{"face_vertex_idx", []int{2, 17}, "face_vertex_idx_002_017"},
		{"node_name", nil, "node_name"},
		{"big", []int{999, 999}, "big_999_999"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IndexedName(tt.base, tt.idx...))
	}
}

func TestIndexedEntriesDoNotAlias(t *testing.T) {
	r, rec := newTestRegistry(t)
	h0 := mustLookup(t, r, "piece_name_000")
	h1 := mustLookup(t, r, "piece_name_001")

	require.NoError(t, r.SetString(h0, "panel"))
	require.NoError(t, r.SetString(h1, "boom"))

	assert.Equal(t, "panel", rec.Pieces[0].Name)
	assert.Equal(t, "boom", rec.Pieces[1].Name)
	s0, _ := r.GetString(h0)
	s1, _ := r.GetString(h1)
	assert.Equal(t, "panel", s0)
	assert.Equal(t, "boom", s1)
}

func TestIndex_ShrunkSlice(t *testing.T) {
	r, rec := newTestRegistry(t)
	h := mustLookup(t, r, "piece_mass_001")

	rec.Pieces = rec.Pieces[:1]

	_, err := r.Get(h)
	requireKind(t, err, KindNotFound)
}

func TestCatalogue(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.AddAlias("dist", "d")
	require.NoError(t, err)

	cat := r.Catalogue()
	require.Len(t, cat, r.Count())

	byName := make(map[string]Info, len(cat))
	for _, c := range cat {
		byName[c.Name] = c
	}
	assert.Equal(t, Info{Name: "d", Type: "double", Unit: "m", Group: "node", Enabled: true}, byName["d"])
	assert.Equal(t, "d", byName["dist"].Target)
	assert.Equal(t, "double", byName["dist"].Type)
	assert.Equal(t, "piece", byName["piece_mass_000"].Group)

	names := r.Names()
	require.Len(t, names, len(cat))
	for i := range cat {
		assert.Equal(t, cat[i].Name, names[i])
	}

	info, err := r.Describe(mustLookup(t, r, "dist"))
	require.NoError(t, err)
	assert.Equal(t, byName["dist"], info)

	_, err = r.Describe(Handle{Bucket: 0, Slot: 9999})
	requireKind(t, err, KindOutOfRange)
}

func TestParseType(t *testing.T) {
	for ty := TypeNone; ty < typeCount; ty++ {
		got, err := ParseType(ty.String())
		require.NoError(t, err)
		assert.Equal(t, ty, got)
	}
	_, err := ParseType("complex")
	requireKind(t, err, KindInvalid)
}
