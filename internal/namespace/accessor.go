package namespace

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Get returns a copy of the value behind h: a Go scalar (uint8 ... float64,
// bool, string) or one of the composite structs. Aliases read their target
// and equations read as float64.
func (r *Registry) Get(h Handle) (any, error) {
	_, e, err := r.target(h)
	if err != nil {
		return nil, err
	}
	if e.target != nil && e.target.Kind == TargetEquation {
		return r.Evaluate(e.target.Handle)
	}
	p, err := r.address(e)
	if err != nil {
		return nil, err
	}
	v := load(p)
	if s, ok := v.(string); ok {
		v = clip(s, capacity(e.Type))
	}
	return v, nil
}

// GetDouble reads h as a float64. Strings are parsed (0 when not numeric);
// kinds without a numeric meaning read as NaN.
func (r *Registry) GetDouble(h Handle) (float64, error) {
	v, err := r.Get(h)
	if err != nil {
		return math.NaN(), err
	}
	f, ok := toFloat(v)
	if !ok {
		return math.NaN(), nil
	}
	return f, nil
}

// GetInt reads h as an int64. Kinds without a numeric meaning read as 0.
func (r *Registry) GetInt(h Handle) (int64, error) {
	v, err := r.Get(h)
	if err != nil {
		return 0, err
	}
	n, _ := toInt(v)
	return n, nil
}

// GetUint reads h as a uint64. Kinds without a numeric meaning read as 0.
func (r *Registry) GetUint(h Handle) (uint64, error) {
	v, err := r.Get(h)
	if err != nil {
		return 0, err
	}
	n, _ := toUint(v)
	return n, nil
}

// GetString reads string kinds directly and renders every other kind in the
// text codec's value form.
func (r *Registry) GetString(h Handle) (string, error) {
	v, err := r.Get(h)
	if err != nil {
		return "", err
	}
	if s, ok := v.(string); ok {
		return s, nil
	}
	b, err := r.appendValue(nil, h)
	return string(b), err
}

// GetDoubleIn reads h converted from its base unit into the named unit of
// the entry's quantity.
func (r *Registry) GetDoubleIn(h Handle, unit string) (float64, error) {
	u, err := r.unitNamed(h, unit)
	if err != nil {
		return math.NaN(), err
	}
	f, err := r.GetDouble(h)
	if err != nil {
		return f, err
	}
	return u.FromBase(f), nil
}

// Set writes v behind h. Numeric kinds accept any Go number, bool or numeric
// string; string kinds accept a string and truncate it to capacity;
// composites require their exact struct type. Writing a position or attitude
// composite bumps its pass counter and calls the recompute hook.
func (r *Registry) Set(h Handle, v any) error {
	th, e, err := r.target(h)
	if err != nil {
		return err
	}
	if e.target != nil && e.target.Kind == TargetEquation {
		return errorf(KindType, "%s: equations are read-only", e.Name)
	}
	p, err := r.address(e)
	if err != nil {
		return err
	}

	var before any
	if e.Type.IsFrame() {
		before = load(p)
	}
	if err := store(p, e.Type, v); err != nil {
		return fmt.Errorf("%s: %w", e.Name, err)
	}
	if before != nil {
		pass := bump(p, before)
		if r.onRecompute != nil {
			r.onRecompute(FrameUpdate{
				Handle: th,
				Name:   e.Name,
				Type:   e.Type,
				Group:  e.Group,
				Base:   r.bases[e.Group],
				Pass:   pass,
			})
		}
	}
	return nil
}

// SetDouble writes a float64, coerced to the entry's numeric kind.
func (r *Registry) SetDouble(h Handle, f float64) error { return r.Set(h, f) }

// SetString writes a string. Numeric kinds parse it.
func (r *Registry) SetString(h Handle, s string) error { return r.Set(h, s) }

// SetDoubleIn writes f given in the named unit, converting to the base unit.
func (r *Registry) SetDoubleIn(h Handle, f float64, unit string) error {
	u, err := r.unitNamed(h, unit)
	if err != nil {
		return err
	}
	return r.Set(h, u.ToBase(f))
}

// UnitOf returns the unit row of the value behind h. An entry alias reports
// its target's row.
func (r *Registry) UnitOf(h Handle) (UnitID, error) {
	_, e, err := r.target(h)
	if err != nil {
		return UnitNone, err
	}
	return e.Unit, nil
}

func (r *Registry) unitNamed(h Handle, unit string) (Unit, error) {
	_, e, err := r.target(h)
	if err != nil {
		return Unit{}, err
	}
	u, _, ok := UnitByName(e.Unit, unit)
	if !ok {
		return Unit{}, errorf(KindNotFound, "%s: unit %q not in %s row", e.Name, unit, e.Unit)
	}
	return u, nil
}

func capacity(t Type) int {
	if t == TypeName {
		return MaxName
	}
	return MaxString
}

// clip stops s at the first NUL and at n bytes.
func clip(s string, n int) string {
	if i := strings.IndexByte(s, 0); i >= 0 {
		s = s[:i]
	}
	if len(s) > n {
		s = s[:n]
	}
	return s
}

func load(p any) any {
	switch p := p.(type) {
	case *uint8:
		return *p
	case *int8:
		return *p
	case *bool:
		return *p
	case *uint16:
		return *p
	case *int16:
		return *p
	case *uint32:
		return *p
	case *int32:
		return *p
	case *uint64:
		return *p
	case *int64:
		return *p
	case *float32:
		return *p
	case *float64:
		return *p
	case *string:
		return *p
	case *Vector:
		return *p
	case *GVector:
		return *p
	case *SVector:
		return *p
	case *AVector:
		return *p
	case *Quaternion:
		return *p
	case *RMatrix:
		return *p
	case *Matrix43:
		return *p
	case *CartPos:
		return *p
	case *GeoidPos:
		return *p
	case *SpherPos:
		return *p
	case *QAtt:
		return *p
	case *Pos:
		return *p
	case *Att:
		return *p
	case *Loc:
		return *p
	case *Beat:
		return *p
	}
	return nil
}

type signed interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type unsigned interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

func storeSigned[T signed](p *T, v any, bits int) error {
	n, ok := toInt(v)
	if !ok {
		return typeErr(v, "integer")
	}
	if bits < 64 {
		lim := int64(1) << (bits - 1)
		if n < -lim || n >= lim {
			return errorf(KindType, "%v overflows int%d", v, bits)
		}
	}
	*p = T(n)
	return nil
}

func storeUnsigned[T unsigned](p *T, v any, bits int) error {
	n, ok := toUint(v)
	if !ok {
		return typeErr(v, "unsigned integer")
	}
	if f, isFloat := toFloat(v); isFloat && f < 0 {
		return errorf(KindType, "%v is negative", v)
	}
	if bits < 64 && n >= uint64(1)<<bits {
		return errorf(KindType, "%v overflows uint%d", v, bits)
	}
	*p = T(n)
	return nil
}

func storeExact[T any](p *T, v any) error {
	x, ok := v.(T)
	if !ok {
		return typeErr(v, fmt.Sprintf("%T", *p))
	}
	*p = x
	return nil
}

func typeErr(v any, want string) error {
	return errorf(KindType, "cannot store %T as %s", v, want)
}

func store(p any, t Type, v any) error {
	switch p := p.(type) {
	case *uint8:
		return storeUnsigned(p, v, 8)
	case *int8:
		return storeSigned(p, v, 8)
	case *uint16:
		return storeUnsigned(p, v, 16)
	case *int16:
		return storeSigned(p, v, 16)
	case *uint32:
		return storeUnsigned(p, v, 32)
	case *int32:
		return storeSigned(p, v, 32)
	case *uint64:
		return storeUnsigned(p, v, 64)
	case *int64:
		return storeSigned(p, v, 64)
	case *bool:
		f, ok := toFloat(v)
		if !ok {
			return typeErr(v, "bool")
		}
		*p = f != 0
	case *float32:
		f, ok := toFloat(v)
		if !ok {
			return typeErr(v, "float")
		}
		*p = float32(f)
	case *float64:
		f, ok := toFloat(v)
		if !ok {
			return typeErr(v, "double")
		}
		*p = f
	case *string:
		switch s := v.(type) {
		case string:
			*p = clip(s, capacity(t))
		case []byte:
			*p = clip(string(s), capacity(t))
		default:
			return typeErr(v, "string")
		}
	case *Vector:
		return storeExact(p, v)
	case *GVector:
		return storeExact(p, v)
	case *SVector:
		return storeExact(p, v)
	case *AVector:
		return storeExact(p, v)
	case *Quaternion:
		return storeExact(p, v)
	case *RMatrix:
		return storeExact(p, v)
	case *Matrix43:
		return storeExact(p, v)
	case *CartPos:
		return storeExact(p, v)
	case *GeoidPos:
		return storeExact(p, v)
	case *SpherPos:
		return storeExact(p, v)
	case *QAtt:
		return storeExact(p, v)
	case *Pos:
		return storeExact(p, v)
	case *Att:
		return storeExact(p, v)
	case *Loc:
		return storeExact(p, v)
	case *Beat:
		return storeExact(p, v)
	default:
		return errorf(KindType, "unsupported storage %T", p)
	}
	return nil
}

// bump sets the pass counter of a freshly written frame composite to one
// past its value before the write and returns the new count.
func bump(p any, before any) uint32 {
	switch p := p.(type) {
	case *CartPos:
		p.Pass = before.(CartPos).Pass + 1
		return p.Pass
	case *GeoidPos:
		p.Pass = before.(GeoidPos).Pass + 1
		return p.Pass
	case *SpherPos:
		p.Pass = before.(SpherPos).Pass + 1
		return p.Pass
	case *QAtt:
		p.Pass = before.(QAtt).Pass + 1
		return p.Pass
	case *Pos:
		p.Pass = before.(Pos).Pass + 1
		return p.Pass
	case *Att:
		p.Pass = before.(Att).Pass + 1
		return p.Pass
	case *Loc:
		b := before.(Loc)
		p.Pos.Pass = b.Pos.Pass + 1
		p.Att.Pass = b.Att.Pass + 1
		return p.Pos.Pass
	}
	return 0
}

func toFloat(v any) (float64, bool) {
	switch v := v.(type) {
	case uint8:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case int16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint64:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case uint:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	case string:
		return parseNumber(v), true
	}
	return math.NaN(), false
}

func toInt(v any) (int64, bool) {
	switch v := v.(type) {
	case uint8:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case int16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case int32:
		return int64(v), true
	case uint64:
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case uint:
		return int64(v), true
	case string:
		s := strings.TrimSpace(v)
		if n, err := strconv.ParseInt(s, 0, 64); err == nil {
			return n, true
		}
		return floatToInt(parseNumber(s)), true
	}
	f, ok := toFloat(v)
	if !ok {
		return 0, false
	}
	return floatToInt(f), true
}

func toUint(v any) (uint64, bool) {
	switch v := v.(type) {
	case uint64:
		return v, true
	case uint:
		return uint64(v), true
	case string:
		if n, err := strconv.ParseUint(strings.TrimSpace(v), 0, 64); err == nil {
			return n, true
		}
	case float32, float64:
		f, _ := toFloat(v)
		if f >= 0 && f < math.MaxUint64 {
			return uint64(f), true
		}
	}
	n, ok := toInt(v)
	return uint64(n), ok
}

func floatToInt(f float64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	}
	return int64(f)
}

// parseNumber reads a numeric string the way the wire format writes it.
// Anything that does not parse is 0.
func parseNumber(s string) float64 {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return 1
	case "false":
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if n, ierr := strconv.ParseInt(s, 0, 64); ierr == nil {
			return float64(n)
		}
		return 0
	}
	return f
}
