package namespace

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// ParseStats reports what a Parse call did.
type ParseStats struct {
	Matched int      // fields written
	Skipped int      // unknown or malformed fields stepped over
	Unknown []string // names that did not resolve
}

// Parse reads a stream of {"name":value,...} objects and writes each known
// field through the value accessor, marking it enabled. Unknown and malformed
// fields are skipped. It returns the number of fields written. KindEndOfStream
// is returned only when nothing was written and the input held no object or
// ran out part way through one.
func (r *Registry) Parse(text string) (int, error) {
	st, err := r.ParseWithStats(text)
	return st.Matched, err
}

// ParseWithStats is Parse with skip accounting.
func (r *Registry) ParseWithStats(text string) (ParseStats, error) {
	var st ParseStats
	if err := r.populated(); err != nil {
		return st, err
	}

	p := &parser{r: r, s: text}
	scanned, truncated := false, false
	for {
		open := strings.IndexByte(p.s[p.i:], '{')
		if open < 0 {
			break
		}
		scanned = true
		p.i += open
		if err := p.object(&st); err != nil && isEOS(err) {
			truncated = true
			break
		}
		// A malformed object resumes the scan after its opening brace.
	}
	if st.Matched == 0 && (!scanned || truncated) {
		return st, ErrEndOfStream
	}
	return st, nil
}

type parser struct {
	r *Registry
	s string
	i int
}

func isEOS(err error) bool {
	k, ok := KindOf(err)
	return ok && k == KindEndOfStream
}

func (p *parser) eos() error {
	return errorf(KindEndOfStream, "unexpected end of input at offset %d", p.i)
}

func (p *parser) scanErr(want string) error {
	if p.i >= len(p.s) {
		return p.eos()
	}
	return errorf(KindScan, "expected %s at offset %d, found %q", want, p.i, p.s[p.i])
}

func (p *parser) ws() {
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ' ', '\t', '\n', '\r':
			p.i++
		default:
			return
		}
	}
}

func (p *parser) peek() (byte, bool) {
	p.ws()
	if p.i >= len(p.s) {
		return 0, false
	}
	return p.s[p.i], true
}

func (p *parser) expect(c byte) error {
	got, ok := p.peek()
	if !ok {
		return p.eos()
	}
	if got != c {
		return p.scanErr(strconv.QuoteRune(rune(c)))
	}
	p.i++
	return nil
}

// object reads one top-level object starting at '{'. Each member is a
// recoverable unit: an unknown name or a bad value skips that member only.
func (p *parser) object(st *ParseStats) error {
	p.i++ // '{'
	for {
		c, ok := p.peek()
		if !ok {
			return p.eos()
		}
		if c == '}' {
			p.i++
			return nil
		}
		name, err := p.str()
		if err != nil {
			return err
		}
		if err := p.expect(':'); err != nil {
			return err
		}
		p.ws()
		start := p.i

		h, err := p.r.Lookup(name)
		if err == nil {
			err = p.field(h)
		} else {
			st.Unknown = append(st.Unknown, name)
		}
		if err != nil {
			if isEOS(err) {
				return err
			}
			p.i = start
			if serr := p.skip(); serr != nil {
				return serr
			}
			st.Skipped++
		} else {
			p.r.markEnabled(h)
			st.Matched++
		}

		c, ok = p.peek()
		if !ok {
			return p.eos()
		}
		switch c {
		case ',':
			p.i++
		case '}':
			p.i++
			return nil
		default:
			return p.scanErr("',' or '}'")
		}
	}
}

func (r *Registry) markEnabled(h Handle) {
	if e, err := r.entry(h); err == nil {
		e.Enabled = true
	}
	if th, _, err := r.target(h); err == nil && th != h {
		if t, err := r.entry(th); err == nil {
			t.Enabled = true
		}
	}
}

// field parses the value for h and writes it.
func (p *parser) field(h Handle) error {
	_, e, err := p.r.target(h)
	if err != nil {
		return err
	}
	if e.target != nil && e.target.Kind == TargetEquation {
		return errorf(KindType, "%s: equations are read-only", e.Name)
	}
	ptr, err := p.r.address(e)
	if err != nil {
		return err
	}

	var v any
	switch ptr.(type) {
	case *string:
		s, err := p.str()
		if err != nil {
			return err
		}
		v = s
	case *uint64:
		tok, f, isNum, err := p.numberToken()
		if err != nil {
			return err
		}
		if n, perr := strconv.ParseUint(tok, 10, 64); perr == nil && isNum {
			v = n
		} else {
			v = f
		}
	case *int64:
		tok, f, isNum, err := p.numberToken()
		if err != nil {
			return err
		}
		if n, perr := strconv.ParseInt(tok, 10, 64); perr == nil && isNum {
			v = n
		} else {
			v = f
		}
	case *bool:
		c, ok := p.peek()
		if !ok {
			return p.eos()
		}
		switch {
		case strings.HasPrefix(p.s[p.i:], "true"):
			p.i += 4
			v = true
		case strings.HasPrefix(p.s[p.i:], "false"):
			p.i += 5
			v = false
		case c == '"':
			s, err := p.str()
			if err != nil {
				return err
			}
			v = s
		default:
			f, err := p.number()
			if err != nil {
				return err
			}
			v = f
		}
	default:
		if e.Type.IsNumeric() {
			f, err := p.number()
			if err != nil {
				return err
			}
			v = f
			break
		}
		cur := load(ptr)
		if v, err = p.composite(cur); err != nil {
			return err
		}
	}
	return p.r.Set(h, v)
}

// number reads a numeric value. A bracketed value is evaluated as an
// equation; a quoted value is parsed as a number.
func (p *parser) number() (float64, error) {
	_, f, _, err := p.numberToken()
	return f, err
}

// numberToken returns the literal text (when the value was a literal), its
// float value and whether it was a plain literal.
func (p *parser) numberToken() (string, float64, bool, error) {
	c, ok := p.peek()
	if !ok {
		return "", 0, false, p.eos()
	}
	switch c {
	case '(':
		end, err := closing(p.s, p.i)
		if err != nil {
			return "", 0, false, err
		}
		text := p.s[p.i : end+1]
		p.i = end + 1
		f, err := p.r.EvaluateOnce(text)
		return text, f, false, err
	case '"':
		s, err := p.str()
		if err != nil {
			return "", 0, false, err
		}
		return s, parseNumber(s), false, nil
	}
	start := p.i
	for p.i < len(p.s) {
		c := p.s[p.i]
		if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E' ||
			c == 'x' || c == 'X' || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F') ||
			c == 'i' || c == 'n' || c == 'I' || c == 'N' {
			p.i++
			continue
		}
		break
	}
	tok := p.s[start:p.i]
	if tok == "" {
		return "", 0, false, p.scanErr("number")
	}
	if p.i >= len(p.s) {
		// A number running into the end of input may be truncated.
		return "", 0, false, p.eos()
	}
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		n, ierr := strconv.ParseInt(tok, 0, 64)
		if ierr != nil {
			return "", 0, false, &Error{Kind: KindScan, Msg: "bad number " + strconv.Quote(tok), Err: err}
		}
		f = float64(n)
	}
	return tok, f, true, nil
}

// str reads a quoted string, decoding escapes. \u escapes below 0x100 decode
// to a single byte so that strings written by appendString round-trip.
func (p *parser) str() (string, error) {
	if err := p.expect('"'); err != nil {
		return "", err
	}
	var sb strings.Builder
	for p.i < len(p.s) {
		c := p.s[p.i]
		p.i++
		switch c {
		case '"':
			return sb.String(), nil
		case '\\':
			if p.i >= len(p.s) {
				return "", p.eos()
			}
			esc := p.s[p.i]
			p.i++
			switch esc {
			case '"', '\\', '/':
				sb.WriteByte(esc)
			case 'b':
				sb.WriteByte('\b')
			case 'f':
				sb.WriteByte('\f')
			case 'n':
				sb.WriteByte('\n')
			case 'r':
				sb.WriteByte('\r')
			case 't':
				sb.WriteByte('\t')
			case 'u':
				if p.i+4 > len(p.s) {
					return "", p.eos()
				}
				n, err := strconv.ParseUint(p.s[p.i:p.i+4], 16, 16)
				if err != nil {
					return "", &Error{Kind: KindScan, Msg: "bad \\u escape", Err: err}
				}
				p.i += 4
				if n < 0x100 {
					sb.WriteByte(byte(n))
				} else {
					sb.WriteRune(rune(n))
				}
			default:
				return "", errorf(KindScan, "bad escape \\%c at offset %d", esc, p.i-1)
			}
		default:
			sb.WriteByte(c)
		}
	}
	return "", p.eos()
}

// skip steps over one value of any shape: balanced brackets and braces,
// quoted strings, or a bare token.
func (p *parser) skip() error {
	c, ok := p.peek()
	if !ok {
		return p.eos()
	}
	switch c {
	case '"':
		_, err := p.str()
		return err
	case '{', '[', '(':
		depth := 0
		for p.i < len(p.s) {
			switch p.s[p.i] {
			case '"':
				if _, err := p.str(); err != nil {
					return err
				}
				continue
			case '{', '[', '(':
				depth++
			case '}', ']', ')':
				depth--
				if depth == 0 {
					p.i++
					return nil
				}
			}
			p.i++
		}
		return p.eos()
	}
	for p.i < len(p.s) {
		switch p.s[p.i] {
		case ',', '}', ']', ' ', '\t', '\n', '\r':
			return nil
		}
		_, n := utf8.DecodeRuneInString(p.s[p.i:])
		p.i += n
	}
	return p.eos()
}

// members reads {"key":value,...}, calling fn for each key. Keys fn does not
// handle are skipped.
func (p *parser) members(fn func(key string) (bool, error)) error {
	if err := p.expect('{'); err != nil {
		return err
	}
	for {
		c, ok := p.peek()
		if !ok {
			return p.eos()
		}
		if c == '}' {
			p.i++
			return nil
		}
		k, err := p.str()
		if err != nil {
			return err
		}
		if err := p.expect(':'); err != nil {
			return err
		}
		handled, err := fn(k)
		if err != nil {
			return err
		}
		if !handled {
			if err := p.skip(); err != nil {
				return err
			}
		}
		c, ok = p.peek()
		if !ok {
			return p.eos()
		}
		switch c {
		case ',':
			p.i++
		case '}':
			p.i++
			return nil
		default:
			return p.scanErr("',' or '}'")
		}
	}
}

func (p *parser) f64(dst *float64) error {
	f, err := p.number()
	if err == nil {
		*dst = f
	}
	return err
}

func (p *parser) f32(dst *float32) error {
	f, err := p.number()
	if err == nil {
		*dst = float32(f)
	}
	return err
}

func (p *parser) u32(dst *uint32) error {
	f, err := p.number()
	if err == nil {
		*dst = uint32(f)
	}
	return err
}

func (p *parser) name(dst *string) error {
	s, err := p.str()
	if err == nil {
		*dst = clip(s, MaxName)
	}
	return err
}

// vector accepts [x,y,z] or {"x":..,"y":..,"z":..}.
func (p *parser) vector(v *Vector) error {
	c, ok := p.peek()
	if !ok {
		return p.eos()
	}
	if c == '{' {
		return p.members(func(k string) (bool, error) {
			switch k {
			case "x":
				return true, p.f64(&v.X)
			case "y":
				return true, p.f64(&v.Y)
			case "z":
				return true, p.f64(&v.Z)
			}
			return false, nil
		})
	}
	if err := p.expect('['); err != nil {
		return err
	}
	for i, dst := range []*float64{&v.X, &v.Y, &v.Z} {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return err
			}
		}
		if err := p.f64(dst); err != nil {
			return err
		}
	}
	return p.expect(']')
}

func (p *parser) rows(rows []Vector) error {
	if err := p.expect('['); err != nil {
		return err
	}
	for i := range rows {
		if i > 0 {
			if err := p.expect(','); err != nil {
				return err
			}
		}
		if err := p.vector(&rows[i]); err != nil {
			return err
		}
	}
	return p.expect(']')
}

func (p *parser) triple(k0, k1, k2 string, a, b, c *float64) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case k0:
			return true, p.f64(a)
		case k1:
			return true, p.f64(b)
		case k2:
			return true, p.f64(c)
		}
		return false, nil
	})
}

func (p *parser) gvector(v *GVector) error { return p.triple("lat", "lon", "h", &v.Lat, &v.Lon, &v.H) }

func (p *parser) svector(v *SVector) error {
	return p.triple("phi", "lambda", "r", &v.Phi, &v.Lambda, &v.R)
}

func (p *parser) avector(v *AVector) error { return p.triple("h", "e", "b", &v.H, &v.E, &v.B) }

func (p *parser) quaternion(q *Quaternion) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "d":
			return true, p.vector(&q.D)
		case "w":
			return true, p.f64(&q.W)
		}
		return false, nil
	})
}

func (p *parser) cartpos(c *CartPos) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&c.UTC)
		case "s":
			return true, p.vector(&c.S)
		case "v":
			return true, p.vector(&c.V)
		case "a":
			return true, p.vector(&c.A)
		case "pass":
			return true, p.u32(&c.Pass)
		}
		return false, nil
	})
}

func (p *parser) geoidpos(g *GeoidPos) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&g.UTC)
		case "s":
			return true, p.gvector(&g.S)
		case "v":
			return true, p.gvector(&g.V)
		case "a":
			return true, p.gvector(&g.A)
		case "pass":
			return true, p.u32(&g.Pass)
		}
		return false, nil
	})
}

func (p *parser) spherpos(s *SpherPos) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&s.UTC)
		case "s":
			return true, p.svector(&s.S)
		case "v":
			return true, p.svector(&s.V)
		case "a":
			return true, p.svector(&s.A)
		case "pass":
			return true, p.u32(&s.Pass)
		}
		return false, nil
	})
}

func (p *parser) qatt(a *QAtt) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&a.UTC)
		case "s":
			return true, p.quaternion(&a.S)
		case "v":
			return true, p.vector(&a.V)
		case "a":
			return true, p.vector(&a.A)
		case "pass":
			return true, p.u32(&a.Pass)
		}
		return false, nil
	})
}

func (p *parser) pos(ps *Pos) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&ps.UTC)
		case "icrf":
			return true, p.cartpos(&ps.ICRF)
		case "eci":
			return true, p.cartpos(&ps.ECI)
		case "sci":
			return true, p.cartpos(&ps.SCI)
		case "geoc":
			return true, p.cartpos(&ps.GEOC)
		case "selc":
			return true, p.cartpos(&ps.SELC)
		case "geod":
			return true, p.geoidpos(&ps.GEOD)
		case "selg":
			return true, p.geoidpos(&ps.SELG)
		case "geos":
			return true, p.spherpos(&ps.GEOS)
		case "pass":
			return true, p.u32(&ps.Pass)
		}
		return false, nil
	})
}

func (p *parser) att(a *Att) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&a.UTC)
		case "topo":
			return true, p.qatt(&a.TOPO)
		case "lvlh":
			return true, p.qatt(&a.LVLH)
		case "geoc":
			return true, p.qatt(&a.GEOC)
		case "selc":
			return true, p.qatt(&a.SELC)
		case "icrf":
			return true, p.qatt(&a.ICRF)
		case "pass":
			return true, p.u32(&a.Pass)
		}
		return false, nil
	})
}

func (p *parser) loc(l *Loc) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&l.UTC)
		case "pos":
			return true, p.pos(&l.Pos)
		case "att":
			return true, p.att(&l.Att)
		}
		return false, nil
	})
}

func (p *parser) beat(hb *Beat) error {
	return p.members(func(k string) (bool, error) {
		switch k {
		case "utc":
			return true, p.f64(&hb.UTC)
		case "node":
			return true, p.name(&hb.Node)
		case "proc":
			return true, p.name(&hb.Proc)
		case "addr":
			return true, p.name(&hb.Addr)
		case "port":
			f, err := p.number()
			hb.Port = uint16(f)
			return true, err
		case "bprd":
			return true, p.f64(&hb.BPrd)
		case "user":
			return true, p.name(&hb.User)
		case "cpu":
			return true, p.f32(&hb.CPU)
		case "memory":
			return true, p.f32(&hb.Memory)
		case "jitter":
			return true, p.f64(&hb.Jitter)
		}
		return false, nil
	})
}

// composite parses a value of the same kind as cur, starting from cur so that
// fields absent from the text keep their current values.
func (p *parser) composite(cur any) (any, error) {
	var err error
	switch v := cur.(type) {
	case Vector:
		err = p.vector(&v)
		return v, err
	case GVector:
		err = p.gvector(&v)
		return v, err
	case SVector:
		err = p.svector(&v)
		return v, err
	case AVector:
		err = p.avector(&v)
		return v, err
	case Quaternion:
		err = p.quaternion(&v)
		return v, err
	case RMatrix:
		err = p.rows(v[:])
		return v, err
	case Matrix43:
		err = p.rows(v[:])
		return v, err
	case CartPos:
		err = p.cartpos(&v)
		return v, err
	case GeoidPos:
		err = p.geoidpos(&v)
		return v, err
	case SpherPos:
		err = p.spherpos(&v)
		return v, err
	case QAtt:
		err = p.qatt(&v)
		return v, err
	case Pos:
		err = p.pos(&v)
		return v, err
	case Att:
		err = p.att(&v)
		return v, err
	case Loc:
		err = p.loc(&v)
		return v, err
	case Beat:
		err = p.beat(&v)
		return v, err
	}
	return nil, errorf(KindType, "no parser for %T", cur)
}
