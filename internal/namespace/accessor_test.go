package namespace

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSet_Scalars(t *testing.T) {
	r, rec := newTestRegistry(t)

	tests := []struct {
		name string
		in   any
		want any
	}{
		{"u8", 200, uint8(200)},
		{"i8", -100, int8(-100)},
		{"b", true, true},
		{"u16", uint16(65535), uint16(65535)},
		{"i16", "-1234", int16(-1234)},
		{"u32", 4e9, uint32(4000000000)},
		{"i32", int32(-7), int32(-7)},
		{"u64", uint64(math.MaxUint64), uint64(math.MaxUint64)},
		{"i64", int64(math.MinInt64), int64(math.MinInt64)},
		{"f", 1.5, float32(1.5)},
		{"d", 2.25, 2.25},
		{"s", "hello", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustLookup(t, r, tt.name)
			require.NoError(t, r.Set(h, tt.in))
			got, err := r.Get(h)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, uint8(200), rec.U8)
}

func TestSet_Overflow(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.U8 = 9

	requireKind(t, r.Set(mustLookup(t, r, "u8"), 256), KindType)
	requireKind(t, r.Set(mustLookup(t, r, "u8"), -1), KindType)
	requireKind(t, r.Set(mustLookup(t, r, "i8"), 128), KindType)
	assert.Equal(t, uint8(9), rec.U8)
}

func TestSet_CompositeNeedsExactType(t *testing.T) {
	r, _ := newTestRegistry(t)
	h := mustLookup(t, r, "v")

	requireKind(t, r.Set(h, 1.0), KindType)
	requireKind(t, r.Set(h, GVector{}), KindType)
	require.NoError(t, r.Set(h, Vector{1, 2, 3}))
}

func TestGetDouble_Coercion(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.S = " 12.5 "
	rec.N = "abc"
	rec.B = true
	rec.I16 = -3

	tests := []struct {
		name string
		want float64
	}{
		{"s", 12.5},
		{"n", 0},
		{"b", 1},
		{"i16", -3},
	}
	for _, tt := range tests {
		got, err := r.GetDouble(mustLookup(t, r, tt.name))
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, tt.name)
	}

	got, err := r.GetDouble(mustLookup(t, r, "v"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(got))

	n, err := r.GetInt(mustLookup(t, r, "v"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGetIntUint(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.D = 7.9
	rec.U64 = math.MaxUint64

	n, err := r.GetInt(mustLookup(t, r, "d"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)

	u, err := r.GetUint(mustLookup(t, r, "u64"))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u)
}

func TestStrings_Truncate(t *testing.T) {
	r, rec := newTestRegistry(t)

	long := strings.Repeat("x", 300)
	require.NoError(t, r.SetString(mustLookup(t, r, "s"), long))
	require.NoError(t, r.SetString(mustLookup(t, r, "n"), long))
	assert.Len(t, rec.S, MaxString)
	assert.Len(t, rec.N, MaxName)

	exact := strings.Repeat("y", MaxString)
	require.NoError(t, r.SetString(mustLookup(t, r, "s"), exact))
	assert.Equal(t, exact, rec.S)

	rec.S = "stop\x00here"
	got, err := r.GetString(mustLookup(t, r, "s"))
	require.NoError(t, err)
	assert.Equal(t, "stop", got)
}

func TestGetString_NonString(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.V = Vector{1, 2, 3}
	rec.I32 = -12

	got, err := r.GetString(mustLookup(t, r, "v"))
	require.NoError(t, err)
	assert.Equal(t, "[1,2,3]", got)

	got, err = r.GetString(mustLookup(t, r, "i32"))
	require.NoError(t, err)
	assert.Equal(t, "-12", got)
}

func TestUnits(t *testing.T) {
	r, rec := newTestRegistry(t)
	hd := mustLookup(t, r, "d")

	require.NoError(t, r.SetDoubleIn(hd, 2, "km"))
	assert.Equal(t, 2000.0, rec.D)

	km, err := r.GetDoubleIn(hd, "km")
	require.NoError(t, err)
	assert.InDelta(t, 2.0, km, 1e-12)

	hf := mustLookup(t, r, "f")
	require.NoError(t, r.SetDoubleIn(hf, 100, "C"))
	assert.InDelta(t, 373.15, rec.F, 1e-4)
	fahr, err := r.GetDoubleIn(hf, "F")
	require.NoError(t, err)
	assert.InDelta(t, 212.0, fahr, 1e-3)

	_, err = r.GetDoubleIn(hd, "K")
	requireKind(t, err, KindNotFound)
}

func TestUnitConversions(t *testing.T) {
	dbw, _, ok := UnitByName(UnitPower, "dBW")
	require.True(t, ok)
	assert.InDelta(t, 100.0, dbw.ToBase(20), 1e-9)
	assert.InDelta(t, 20.0, dbw.FromBase(100), 1e-9)

	dbm, _, ok := UnitByName(UnitPower, "dBm")
	require.True(t, ok)
	assert.InDelta(t, 1.0, dbm.ToBase(30), 1e-9)

	jd, _, ok := UnitByName(UnitDate, "jd")
	require.True(t, ok)
	assert.InDelta(t, 51544.5, jd.ToBase(2451545.0), 1e-9)

	assert.Equal(t, "", UnitNone.String())
	assert.Equal(t, "rad", UnitAngle.String())
	assert.Nil(t, Units(unitCount))
}

func TestFrameWrites_BumpPassAndCallHook(t *testing.T) {
	r, rec := newTestRegistry(t)

	var updates []FrameUpdate
	r.SetRecomputeHook(func(u FrameUpdate) { updates = append(updates, u) })

	h := mustLookup(t, r, "cp")
	require.NoError(t, r.Set(h, CartPos{UTC: 60000, S: Vector{7e6, 0, 0}, Pass: 99}))
	require.NoError(t, r.Set(h, CartPos{UTC: 60001, S: Vector{7e6, 1, 0}}))

	assert.Equal(t, uint32(2), rec.CP.Pass)
	require.Len(t, updates, 2)
	assert.Equal(t, "cp", updates[1].Name)
	assert.Equal(t, TypeCartPos, updates[1].Type)
	assert.Equal(t, uint32(2), updates[1].Pass)
	assert.Same(t, rec, updates[1].Base)

	require.NoError(t, r.Set(mustLookup(t, r, "loc"), Loc{UTC: 1}))
	assert.Equal(t, uint32(1), rec.L.Pos.Pass)
	assert.Equal(t, uint32(1), rec.L.Att.Pass)

	// Plain vectors are not frames.
	require.NoError(t, r.Set(mustLookup(t, r, "v"), Vector{1, 1, 1}))
	assert.Len(t, updates, 3)
}

func TestDirectLocator(t *testing.T) {
	var temp float32
	r := New()
	_, err := r.Register("cpu_temp", TypeFloat, UnitTemperature, At(&temp))
	require.NoError(t, err)

	h := mustLookup(t, r, "cpu_temp")
	require.NoError(t, r.SetDouble(h, 310.5))
	assert.Equal(t, float32(310.5), temp)

	p, err := r.Resolve(h)
	require.NoError(t, err)
	assert.Same(t, &temp, p)
}

func TestGroupBaseMissing(t *testing.T) {
	r := New()
	_, err := r.Register("orphan", TypeDouble, UnitNone, node(func(x *testRecord) *float64 { return &x.D }))
	require.NoError(t, err)

	_, err = r.Get(mustLookup(t, r, "orphan"))
	requireKind(t, err, KindNotFound)
}

func TestFresh(t *testing.T) {
	r := New()
	for ty := TypeUint8; ty <= TypeBeat; ty++ {
		loc, ok := Fresh(ty)
		require.True(t, ok, ty.String())
		_, err := r.Register("fresh_"+ty.String(), ty, UnitNone, loc)
		require.NoError(t, err, ty.String())
	}

	h := mustLookup(t, r, "fresh_double")
	require.NoError(t, r.SetDouble(h, 2.5))
	v, err := r.GetDouble(h)
	require.NoError(t, err)
	assert.Equal(t, 2.5, v)

	for _, ty := range []Type{TypeNone, TypeAlias, TypeEquation} {
		_, ok := Fresh(ty)
		assert.False(t, ok, ty.String())
	}
}

func TestUnitIDOf(t *testing.T) {
	tests := []struct {
		symbol string
		want   UnitID
		ok     bool
	}{
		{"", UnitNone, true},
		{"W", UnitPower, true},
		{"mjd", UnitDate, true},
		{"K", UnitTemperature, true},
		{"furlong", UnitNone, false},
	}
	for _, tt := range tests {
		got, ok := UnitIDOf(tt.symbol)
		assert.Equal(t, tt.ok, ok, tt.symbol)
		assert.Equal(t, tt.want, got, tt.symbol)
	}
}
