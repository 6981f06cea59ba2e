package namespace

// Composite values. Field order here is the order the text codec emits.

// Vector is a cartesian 3-vector, written as [x,y,z].
type Vector struct {
	X, Y, Z float64
}

// GVector is a geodetic vector: latitude, longitude (radians) and height (m).
type GVector struct {
	Lat, Lon, H float64
}

// SVector is a spherical vector: polar angle, azimuth (radians) and radius (m).
type SVector struct {
	Phi, Lambda, R float64
}

// AVector holds attitude as heading, elevation and bank (radians).
type AVector struct {
	H, E, B float64
}

// Quaternion is a rotation with vector part D and scalar part W.
type Quaternion struct {
	D Vector
	W float64
}

// RMatrix is a 3x3 matrix stored by rows.
type RMatrix [3]Vector

// Matrix43 is a 4x3 matrix stored by rows.
type Matrix43 [4]Vector

// CartPos is a cartesian position with its first two derivatives.
type CartPos struct {
	UTC  float64
	S    Vector
	V    Vector
	A    Vector
	Pass uint32
}

// GeoidPos is a geodetic position with its first two derivatives.
type GeoidPos struct {
	UTC  float64
	S    GVector
	V    GVector
	A    GVector
	Pass uint32
}

// SpherPos is a spherical position with its first two derivatives.
type SpherPos struct {
	UTC  float64
	S    SVector
	V    SVector
	A    SVector
	Pass uint32
}

// QAtt is an attitude quaternion with angular velocity and acceleration.
type QAtt struct {
	UTC  float64
	S    Quaternion
	V    Vector
	A    Vector
	Pass uint32
}

// Pos holds one position expressed in every supported frame.
type Pos struct {
	UTC  float64
	ICRF CartPos
	ECI  CartPos
	SCI  CartPos
	GEOC CartPos
	SELC CartPos
	GEOD GeoidPos
	SELG GeoidPos
	GEOS SpherPos
	Pass uint32
}

// Att holds one attitude expressed in every supported frame.
type Att struct {
	UTC  float64
	TOPO QAtt
	LVLH QAtt
	GEOC QAtt
	SELC QAtt
	ICRF QAtt
	Pass uint32
}

// Loc is a full location record: time, position and attitude.
type Loc struct {
	UTC float64
	Pos Pos
	Att Att
}

// Beat is an agent heartbeat.
type Beat struct {
	UTC    float64
	Node   string
	Proc   string
	Addr   string
	Port   uint16
	BPrd   float64
	User   string
	CPU    float32
	Memory float32
	Jitter float64
}
