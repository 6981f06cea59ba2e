package namespace

import "math"

// UnitID indexes a quantity row in the unit table. Zero is dimensionless.
type UnitID uint16

// Quantity rows. Values stored behind entries are always in the row's base
// (first) unit.
const (
	UnitNone UnitID = iota
	UnitLength
	UnitMass
	UnitMomentOfInertia
	UnitTime
	UnitDate
	UnitCurrent
	UnitTemperature
	UnitIntensity
	UnitFrequency
	UnitAngle
	UnitSolidAngle
	UnitArea
	UnitVolume
	UnitSpeed
	UnitAcceleration
	UnitDensity
	UnitAngularRate
	UnitAngularAcceleration
	UnitForce
	UnitTorque
	UnitCharge
	UnitVoltage
	UnitResistance
	UnitPower
	UnitEnergy
	UnitPressure
	UnitMagneticField
	UnitBytes
	UnitFraction

	unitCount
)

// Conversion is how an alternate unit relates to its base unit.
type Conversion uint8

const (
	ConvIdentity Conversion = iota
	ConvLinear              // base = P0 + P1*x
	ConvLog                 // base = 10^((x-P0)/P1)
)

// Unit is one named unit of a quantity row.
type Unit struct {
	Name string
	Conv Conversion
	P0   float64
	P1   float64
}

// ToBase converts x from u into the base unit of its row.
func (u Unit) ToBase(x float64) float64 {
	switch u.Conv {
	case ConvLinear:
		return u.P0 + u.P1*x
	case ConvLog:
		return math.Pow(10, (x-u.P0)/u.P1)
	}
	return x
}

// FromBase converts x from the base unit of the row into u.
func (u Unit) FromBase(x float64) float64 {
	switch u.Conv {
	case ConvLinear:
		return (x - u.P0) / u.P1
	case ConvLog:
		return u.P0 + u.P1*math.Log10(x)
	}
	return x
}

func lin(name string, p0, p1 float64) Unit { return Unit{Name: name, Conv: ConvLinear, P0: p0, P1: p1} }
func base(name string) Unit              { return Unit{Name: name} }

var unitTable = [unitCount][]Unit{
	UnitNone:                {base("")},
	UnitLength:              {base("m"), lin("km", 0, 1e3), lin("cm", 0, 1e-2), lin("in", 0, 0.0254), lin("ft", 0, 0.3048), lin("mi", 0, 1609.344), lin("au", 0, 149597870700)},
	UnitMass:                {base("kg"), lin("g", 0, 1e-3), lin("lb", 0, 0.45359237)},
	UnitMomentOfInertia:     {base("kg*m2")},
	UnitTime:                {base("s"), lin("min", 0, 60), lin("h", 0, 3600), lin("day", 0, 86400)},
	UnitDate:                {base("mjd"), lin("jd", -2400000.5, 1), lin("day", 0, 1)},
	UnitCurrent:             {base("A"), lin("mA", 0, 1e-3)},
	UnitTemperature:         {base("K"), lin("C", 273.15, 1), lin("F", 255.3722222222222, 5.0/9.0)},
	UnitIntensity:           {base("cd")},
	UnitFrequency:           {base("Hz"), lin("kHz", 0, 1e3), lin("MHz", 0, 1e6), lin("GHz", 0, 1e9)},
	UnitAngle:               {base("rad"), lin("deg", 0, math.Pi/180), lin("arcmin", 0, math.Pi/10800), lin("arcsec", 0, math.Pi/648000)},
	UnitSolidAngle:          {base("sr")},
	UnitArea:                {base("m2"), lin("ft2", 0, 0.09290304)},
	UnitVolume:              {base("m3"), lin("l", 0, 1e-3), lin("ft3", 0, 0.028316846592)},
	UnitSpeed:               {base("m/s"), lin("km/s", 0, 1e3), lin("km/h", 0, 1/3.6), lin("kn", 0, 1852.0/3600)},
	UnitAcceleration:        {base("m/s2"), lin("g", 0, 9.80665)},
	UnitDensity:             {base("kg/m3"), lin("g/cm3", 0, 1e3)},
	UnitAngularRate:         {base("rad/s"), lin("deg/s", 0, math.Pi/180), lin("rpm", 0, math.Pi/30)},
	UnitAngularAcceleration: {base("rad/s2"), lin("deg/s2", 0, math.Pi/180)},
	UnitForce:               {base("N"), lin("lbf", 0, 4.4482216152605)},
	UnitTorque:              {base("Nm"), lin("mNm", 0, 1e-3)},
	UnitCharge:              {base("C"), lin("Ah", 0, 3600)},
	UnitVoltage:             {base("V"), lin("mV", 0, 1e-3)},
	UnitResistance:          {base("ohm"), lin("kohm", 0, 1e3)},
	UnitPower:               {base("W"), lin("mW", 0, 1e-3), {Name: "dBW", Conv: ConvLog, P0: 0, P1: 10}, {Name: "dBm", Conv: ConvLog, P0: 30, P1: 10}},
	UnitEnergy:              {base("J"), lin("Wh", 0, 3600), lin("kWh", 0, 3.6e6)},
	UnitPressure:            {base("Pa"), lin("kPa", 0, 1e3), lin("psi", 0, 6894.757293168), lin("bar", 0, 1e5)},
	UnitMagneticField:       {base("T"), lin("nT", 0, 1e-9), lin("G", 0, 1e-4)},
	UnitBytes:               {base("B"), lin("KiB", 0, 1024), lin("MiB", 0, 1048576), lin("GiB", 0, 1073741824)},
	UnitFraction:            {base(""), lin("%", 0, 0.01)},
}

// Units returns the units of a quantity row, base unit first. The table is
// static and shared; callers must not modify the returned slice.
func Units(id UnitID) []Unit {
	if id >= unitCount {
		return nil
	}
	return unitTable[id]
}

// UnitByName finds an alternate unit by symbol within a row.
func UnitByName(id UnitID, name string) (Unit, int, bool) {
	for i, u := range Units(id) {
		if u.Name == name {
			return u, i, true
		}
	}
	return Unit{}, 0, false
}

// String returns the symbol of the base unit of the row.
func (id UnitID) String() string {
	if us := Units(id); len(us) > 0 {
		return us[0].Name
	}
	return ""
}

// UnitIDOf returns the first quantity row whose base unit is symbol. The
// empty symbol is UnitNone.
func UnitIDOf(symbol string) (UnitID, bool) {
	for id := UnitNone; id < unitCount; id++ {
		if unitTable[id][0].Name == symbol {
			return id, true
		}
	}
	return UnitNone, false
}
