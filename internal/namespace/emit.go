package namespace

import (
	"math"
	"path"
	"strconv"
)

// Serialize renders the entry at h as {"name":value}.
func (r *Registry) Serialize(h Handle) (string, error) {
	b, err := r.AppendEntry(nil, h)
	return string(b), err
}

// AppendEntry appends {"name":value} for h to b.
func (r *Registry) AppendEntry(b []byte, h Handle) ([]byte, error) {
	e, err := r.entry(h)
	if err != nil {
		return b, err
	}
	mark := len(b)
	b = append(b, '{')
	b = appendString(b, e.Name)
	b = append(b, ':')
	b, err = r.appendValue(b, h)
	if err != nil {
		return b[:mark], err
	}
	return append(b, '}'), nil
}

// SerializeNames concatenates one object per name, in the order given.
func (r *Registry) SerializeNames(names ...string) (string, error) {
	if err := r.populated(); err != nil {
		return "", err
	}
	var b []byte
	for _, name := range names {
		h, err := r.Lookup(name)
		if err != nil {
			return string(b), err
		}
		if b, err = r.AppendEntry(b, h); err != nil {
			return string(b), err
		}
	}
	return string(b), nil
}

// Match returns the handles of every entry whose name matches the glob
// pattern (path.Match syntax), in bucket then slot order. Like Lookup it
// reports KindNoNamespace on a registry with no entries.
func (r *Registry) Match(pattern string) ([]Handle, error) {
	if err := r.populated(); err != nil {
		return nil, err
	}
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, &Error{Kind: KindInvalid, Msg: "bad pattern " + strconv.Quote(pattern), Err: err}
	}
	var hs []Handle
	r.each(func(h Handle, e *Entry) bool {
		if ok, _ := path.Match(pattern, e.Name); ok {
			hs = append(hs, h)
		}
		return true
	})
	return hs, nil
}

// SerializeMatch concatenates one object per entry matching pattern. Entries
// whose storage is unavailable are left out.
func (r *Registry) SerializeMatch(pattern string) (string, error) {
	hs, err := r.Match(pattern)
	if err != nil {
		return "", err
	}
	return r.SerializeHandles(hs), nil
}

// SerializeHandles concatenates one object per handle, skipping handles that
// cannot be rendered.
func (r *Registry) SerializeHandles(hs []Handle) string {
	var b []byte
	for _, h := range hs {
		b, _ = r.AppendEntry(b, h)
	}
	return string(b)
}

func (r *Registry) appendValue(b []byte, h Handle) ([]byte, error) {
	_, e, err := r.target(h)
	if err != nil {
		return b, err
	}
	if e.target != nil && e.target.Kind == TargetEquation {
		f, err := r.Evaluate(e.target.Handle)
		if err != nil {
			return b, err
		}
		return appendDouble(b, f), nil
	}
	p, err := r.address(e)
	if err != nil {
		return b, err
	}
	return appendPointer(b, p, e.Type), nil
}

func appendPointer(b []byte, p any, t Type) []byte {
	switch p := p.(type) {
	case *uint8:
		return strconv.AppendUint(b, uint64(*p), 10)
	case *uint16:
		return strconv.AppendUint(b, uint64(*p), 10)
	case *uint32:
		return strconv.AppendUint(b, uint64(*p), 10)
	case *uint64:
		return strconv.AppendUint(b, *p, 10)
	case *int8:
		return strconv.AppendInt(b, int64(*p), 10)
	case *int16:
		return strconv.AppendInt(b, int64(*p), 10)
	case *int32:
		return strconv.AppendInt(b, int64(*p), 10)
	case *int64:
		return strconv.AppendInt(b, *p, 10)
	case *bool:
		return strconv.AppendBool(b, *p)
	case *float32:
		return appendFloat(b, *p)
	case *float64:
		return appendDouble(b, *p)
	case *string:
		return appendString(b, clip(*p, capacity(t)))
	case *Vector:
		return appendVector(b, *p)
	case *GVector:
		return appendGVector(b, *p)
	case *SVector:
		return appendSVector(b, *p)
	case *AVector:
		return appendAVector(b, *p)
	case *Quaternion:
		return appendQuaternion(b, *p)
	case *RMatrix:
		return appendRows(b, p[:])
	case *Matrix43:
		return appendRows(b, p[:])
	case *CartPos:
		return appendCartPos(b, *p)
	case *GeoidPos:
		return appendGeoidPos(b, *p)
	case *SpherPos:
		return appendSpherPos(b, *p)
	case *QAtt:
		return appendQAtt(b, *p)
	case *Pos:
		return appendPos(b, *p)
	case *Att:
		return appendAtt(b, *p)
	case *Loc:
		return appendLoc(b, *p)
	case *Beat:
		return appendBeat(b, *p)
	}
	return append(b, "null"...)
}

// appendFloat writes a float32 with 8 significant digits. Non-finite values
// are written as 0.
func appendFloat(b []byte, f float32) []byte {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return append(b, '0')
	}
	return strconv.AppendFloat(b, float64(f), 'g', 8, 32)
}

// appendDouble writes a float64 with 17 significant digits. Non-finite
// values are written as 0.
func appendDouble(b []byte, f float64) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return append(b, '0')
	}
	return strconv.AppendFloat(b, f, 'g', 17, 64)
}

const hexDigits = "0123456789abcdef"

// appendString writes s as a quoted string. Quote, backslash and solidus are
// escaped, control characters use their letter escape or \u00XX, and bytes
// at or above 0x7f are written byte by byte as \u00XX.
func appendString(b []byte, s string) []byte {
	b = append(b, '"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b = append(b, '\\', '"')
		case '\\':
			b = append(b, '\\', '\\')
		case '/':
			b = append(b, '\\', '/')
		case '\b':
			b = append(b, '\\', 'b')
		case '\f':
			b = append(b, '\\', 'f')
		case '\n':
			b = append(b, '\\', 'n')
		case '\r':
			b = append(b, '\\', 'r')
		case '\t':
			b = append(b, '\\', 't')
		default:
			if c < 0x20 || c >= 0x7f {
				b = append(b, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			} else {
				b = append(b, c)
			}
		}
	}
	return append(b, '"')
}

// key writes the separator (unless first) and "k":.
func key(b []byte, k string, first bool) []byte {
	if !first {
		b = append(b, ',')
	}
	b = append(b, '"')
	b = append(b, k...)
	return append(b, '"', ':')
}

func appendVector(b []byte, v Vector) []byte {
	b = append(b, '[')
	b = appendDouble(b, v.X)
	b = append(b, ',')
	b = appendDouble(b, v.Y)
	b = append(b, ',')
	b = appendDouble(b, v.Z)
	return append(b, ']')
}

func appendRows(b []byte, rows []Vector) []byte {
	b = append(b, '[')
	for i, row := range rows {
		if i > 0 {
			b = append(b, ',')
		}
		b = appendVector(b, row)
	}
	return append(b, ']')
}

func appendTriple(b []byte, k0, k1, k2 string, a, c, d float64) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, k0, true), a)
	b = appendDouble(key(b, k1, false), c)
	b = appendDouble(key(b, k2, false), d)
	return append(b, '}')
}

func appendGVector(b []byte, v GVector) []byte {
	return appendTriple(b, "lat", "lon", "h", v.Lat, v.Lon, v.H)
}

func appendSVector(b []byte, v SVector) []byte {
	return appendTriple(b, "phi", "lambda", "r", v.Phi, v.Lambda, v.R)
}

func appendAVector(b []byte, v AVector) []byte {
	return appendTriple(b, "h", "e", "b", v.H, v.E, v.B)
}

func appendQuaternion(b []byte, q Quaternion) []byte {
	b = append(b, '{')
	b = appendVector(key(b, "d", true), q.D)
	b = appendDouble(key(b, "w", false), q.W)
	return append(b, '}')
}

func appendPass(b []byte, pass uint32) []byte {
	b = key(b, "pass", false)
	b = strconv.AppendUint(b, uint64(pass), 10)
	return append(b, '}')
}

func appendCartPos(b []byte, p CartPos) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), p.UTC)
	b = appendVector(key(b, "s", false), p.S)
	b = appendVector(key(b, "v", false), p.V)
	b = appendVector(key(b, "a", false), p.A)
	return appendPass(b, p.Pass)
}

func appendGeoidPos(b []byte, p GeoidPos) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), p.UTC)
	b = appendGVector(key(b, "s", false), p.S)
	b = appendGVector(key(b, "v", false), p.V)
	b = appendGVector(key(b, "a", false), p.A)
	return appendPass(b, p.Pass)
}

func appendSpherPos(b []byte, p SpherPos) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), p.UTC)
	b = appendSVector(key(b, "s", false), p.S)
	b = appendSVector(key(b, "v", false), p.V)
	b = appendSVector(key(b, "a", false), p.A)
	return appendPass(b, p.Pass)
}

func appendQAtt(b []byte, a QAtt) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), a.UTC)
	b = appendQuaternion(key(b, "s", false), a.S)
	b = appendVector(key(b, "v", false), a.V)
	b = appendVector(key(b, "a", false), a.A)
	return appendPass(b, a.Pass)
}

func appendPos(b []byte, p Pos) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), p.UTC)
	b = appendCartPos(key(b, "icrf", false), p.ICRF)
	b = appendCartPos(key(b, "eci", false), p.ECI)
	b = appendCartPos(key(b, "sci", false), p.SCI)
	b = appendCartPos(key(b, "geoc", false), p.GEOC)
	b = appendCartPos(key(b, "selc", false), p.SELC)
	b = appendGeoidPos(key(b, "geod", false), p.GEOD)
	b = appendGeoidPos(key(b, "selg", false), p.SELG)
	b = appendSpherPos(key(b, "geos", false), p.GEOS)
	return appendPass(b, p.Pass)
}

func appendAtt(b []byte, a Att) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), a.UTC)
	b = appendQAtt(key(b, "topo", false), a.TOPO)
	b = appendQAtt(key(b, "lvlh", false), a.LVLH)
	b = appendQAtt(key(b, "geoc", false), a.GEOC)
	b = appendQAtt(key(b, "selc", false), a.SELC)
	b = appendQAtt(key(b, "icrf", false), a.ICRF)
	return appendPass(b, a.Pass)
}

func appendLoc(b []byte, l Loc) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), l.UTC)
	b = appendPos(key(b, "pos", false), l.Pos)
	b = appendAtt(key(b, "att", false), l.Att)
	return append(b, '}')
}

func appendBeat(b []byte, hb Beat) []byte {
	b = append(b, '{')
	b = appendDouble(key(b, "utc", true), hb.UTC)
	b = appendString(key(b, "node", false), clip(hb.Node, MaxName))
	b = appendString(key(b, "proc", false), clip(hb.Proc, MaxName))
	b = appendString(key(b, "addr", false), clip(hb.Addr, MaxName))
	b = strconv.AppendUint(key(b, "port", false), uint64(hb.Port), 10)
	b = appendDouble(key(b, "bprd", false), hb.BPrd)
	b = appendString(key(b, "user", false), clip(hb.User, MaxName))
	b = appendFloat(key(b, "cpu", false), hb.CPU)
	b = appendFloat(key(b, "memory", false), hb.Memory)
	b = appendDouble(key(b, "jitter", false), hb.Jitter)
	return append(b, '}')
}
