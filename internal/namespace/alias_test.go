package namespace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAlias_Transparency(t *testing.T) {
	r, rec := newTestRegistry(t)
	_, err := r.AddAlias("range", "d")
	require.NoError(t, err)
	_, err = r.AddAlias("position", "cp")
	require.NoError(t, err)

	rec.D = 1234.5
	rec.CP = CartPos{UTC: 60000.25, S: Vector{1, 2, 3}, Pass: 4}

	pairs := [][2]string{{"range", "d"}, {"position", "cp"}}
	for _, p := range pairs {
		ha, hb := mustLookup(t, r, p[0]), mustLookup(t, r, p[1])

		va, err := r.Get(ha)
		require.NoError(t, err)
		vb, err := r.Get(hb)
		require.NoError(t, err)
		assert.Equal(t, vb, va)

		da, _ := r.GetDouble(ha)
		db, _ := r.GetDouble(hb)
		if p[1] == "d" {
			assert.Equal(t, db, da)
		}

		sa, err := r.Serialize(ha)
		require.NoError(t, err)
		sb, err := r.Serialize(hb)
		require.NoError(t, err)
		assert.Equal(t, valueText(sb), valueText(sa))
	}

	e, err := r.Entry(mustLookup(t, r, "range"))
	require.NoError(t, err)
	assert.Equal(t, TypeAlias, e.Type)
	assert.Equal(t, TypeDouble, e.ValueType())

	// Unit conversions and descriptions follow the target's unit row.
	ha := mustLookup(t, r, "range")
	km, err := r.GetDoubleIn(ha, "km")
	require.NoError(t, err)
	assert.InDelta(t, 1.2345, km, 1e-12)

	require.NoError(t, r.SetDoubleIn(ha, 2, "km"))
	assert.Equal(t, 2000.0, rec.D)

	unit, err := r.UnitOf(ha)
	require.NoError(t, err)
	assert.Equal(t, UnitLength, unit)

	info, err := r.Describe(ha)
	require.NoError(t, err)
	assert.Equal(t, "m", info.Unit)
	assert.Equal(t, "d", info.Target)
}

// valueText strips {"name": and the closing brace.
func valueText(obj string) string {
	i := strings.Index(obj, `":`)
	return obj[i+2 : len(obj)-1]
}

func TestAlias_WritesReachTarget(t *testing.T) {
	r, rec := newTestRegistry(t)
	_, err := r.AddAlias("range", "d")
	require.NoError(t, err)

	require.NoError(t, r.SetDouble(mustLookup(t, r, "range"), 9))
	assert.Equal(t, 9.0, rec.D)

	n, err := r.Parse(`{"range":10}`)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 10.0, rec.D)
}

func TestAlias_Equation(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.X, rec.Y = 2, 3

	_, err := r.AddAlias("sum", `("x" + "y")`)
	require.NoError(t, err)

	h := mustLookup(t, r, "sum")
	v, err := r.GetDouble(h)
	require.NoError(t, err)
	assert.Equal(t, 5.0, v)

	s, err := r.Serialize(h)
	require.NoError(t, err)
	assert.Equal(t, `{"sum":5}`, s)

	requireKind(t, r.SetDouble(h, 1), KindType)
}

func TestAlias_RejectsChains(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.AddAlias("first", "d")
	require.NoError(t, err)

	_, err = r.AddAlias("second", "first")
	requireKind(t, err, KindInvalid)
	_, err = r.Lookup("second")
	requireKind(t, err, KindNotFound)
}

func TestAlias_DuplicateIsNoop(t *testing.T) {
	r, _ := newTestRegistry(t)
	n1, err := r.AddAlias("range", "d")
	require.NoError(t, err)

	n2, err := r.AddAlias("range", "x")
	require.NoError(t, err)
	assert.Equal(t, n1, n2)

	tgt, err := r.AliasTarget(mustLookup(t, r, "range"))
	require.NoError(t, err)
	assert.Equal(t, mustLookup(t, r, "d"), tgt.Handle)

	// A name held by a plain entry is left alone too.
	_, err = r.AddAlias("x", "y")
	require.NoError(t, err)
	e, _ := r.Entry(mustLookup(t, r, "x"))
	assert.Equal(t, TypeDouble, e.Type)
}

func TestAlias_MissingTarget(t *testing.T) {
	r, _ := newTestRegistry(t)

	_, err := r.AddAlias("ghost", "nowhere")
	requireKind(t, err, KindNotFound)

	_, err = r.AddAlias("ghost", `("nowhere"+1)`)
	requireKind(t, err, KindNotFound)

	_, err = r.AliasTarget(mustLookup(t, r, "d"))
	requireKind(t, err, KindType)
}

func TestLoadAliases(t *testing.T) {
	r, rec := newTestRegistry(t)
	rec.X = 4

	added, errs := r.LoadAliases("range d\n\nhalf (\"x\" / 2)\nbroken\nghost nowhere\n")
	assert.Equal(t, 2, added)
	require.Len(t, errs, 2)
	requireKind(t, errs[0], KindScan)
	requireKind(t, errs[1], KindNotFound)

	v, err := r.GetDouble(mustLookup(t, r, "half"))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
}
