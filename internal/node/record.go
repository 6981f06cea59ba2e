package node

import ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"

// Fixed inner dimensions of the two-index tables.
const (
	MaxPieceFaces   = 16
	MaxFaceVertices = 8
)

// DeviceType selects the type-specific table a device's didx points into.
type DeviceType uint16

const (
	DeviceNone DeviceType = iota
	DeviceGPS
	DeviceIMU
	DeviceBattery
	DeviceTSEN
	DeviceCPU
	DeviceRW
	DeviceMTR
	DeviceAntenna
	DeviceTransceiver
)

var deviceTypeNames = map[DeviceType]string{
	DeviceNone:        "none",
	DeviceGPS:         "gps",
	DeviceIMU:         "imu",
	DeviceBattery:     "batt",
	DeviceTSEN:        "tsen",
	DeviceCPU:         "cpu",
	DeviceRW:          "rw",
	DeviceMTR:         "mtr",
	DeviceAntenna:     "ant",
	DeviceTransceiver: "tcv",
}

func (t DeviceType) String() string {
	if s, ok := deviceTypeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Record is the caller-owned storage a node's registry overlays. Slices are
// sized once by Allocate and must not be reallocated while registered.
type Record struct {
	Node     Info
	Physics  Physics
	Agents   []Agent
	Events   []Event
	Devices  []Device
	Specific Specific
	Pieces   []Piece
	Ports    []Port
	Targets  []Target
	Vertices []ns.Vector
	Faces    []Face
	Glossary []Glossary
	TLEs     []TLE
}

// Info holds the fixed node attributes, including the table counts.
type Info struct {
	Name      string
	Type      uint16
	State     uint16
	Flags     uint16
	PowMode   int16
	UTCOffset float64
	UTC       float64
	UTCStart  float64
	Loc       ns.Loc

	AzFrom float32
	ElFrom float32
	AzTo   float32
	ElTo   float32
	Range  float32

	PowGen   float32
	PowUse   float32
	BattCap  float32
	BattLev  float32
	Charging uint16

	AgentCnt    uint16
	EventCnt    uint16
	DeviceCnt   uint16
	PieceCnt    uint16
	PortCnt     uint16
	TargetCnt   uint16
	VertexCnt   uint16
	FaceCnt     uint16
	GlossaryCnt uint16
	TLECnt      uint16
}

// Physics holds the node's bulk physical properties.
type Physics struct {
	DT        float64
	Mode      int32
	Mass      float32
	Heat      float32
	Temp      float32
	Radiation float32
	Area      float32
	HCap      float32
	MOI       ns.Vector
	COM       ns.Vector
	Thrust    ns.Vector
	Torque    ns.Vector
	FTorque   ns.Vector
	FPush     ns.Vector
}

type Agent struct {
	Name      string
	Beat      ns.Beat
	PID       int32
	APrd      float64
	StateFlag uint16
}

type Event struct {
	UTC       float64
	Name      string
	Type      uint32
	Flag      uint32
	Data      string
	Condition string
	Value     float64
	DTime     float64
	CTime     float64
}

// Device holds the fields every device has. Didx indexes the table in
// Specific selected by Type.
type Device struct {
	Name    string
	Type    uint16
	Model   uint16
	Flag    uint32
	Addr    uint16
	Didx    uint16
	Pidx    uint16
	Bidx    uint16
	PortIdx uint16
	Enabled bool
	NAmp    float32
	NVolt   float32
	Amp     float32
	Volt    float32
	Power   float32
	Energy  float32
	DRate   float32
	Temp    float32
	UTC     float64
}

// Specific holds one table per device type.
type Specific struct {
	GPS         []GPS
	IMU         []IMU
	Battery     []Battery
	CPU         []CPU
	RW          []RW
	MTR         []MTR
	Antenna     []Antenna
	Transceiver []Transceiver
}

type GPS struct {
	UTC            float64
	DUTC           float64
	GeocS          ns.Vector
	GeocV          ns.Vector
	GeodS          ns.GVector
	SatsUsed       uint16
	SatsVisible    uint16
	TimeStatus     uint16
	PositionType   uint16
	SolutionStatus uint16
}

type IMU struct {
	Accel ns.Vector
	Omega ns.Vector
	Mag   ns.Vector
	BDot  ns.Vector
	Theta ns.Quaternion
}

type Battery struct {
	Capacity      float32
	Efficiency    float32
	Charge        float32
	R             float32
	Percentage    float32
	TimeRemaining float32
}

type CPU struct {
	Uptime    uint32
	BootCount uint32
	Load      float32
	MaxLoad   float32
	GiB       float32
	MaxGiB    float32
}

type RW struct {
	Mom   ns.Vector
	MxOmg float32
	MxAlp float32
	TC    float32
	Omg   float32
	Alp   float32
	ROmg  float32
	RAlp  float32
}

type MTR struct {
	Align ns.Quaternion
	MxMom float32
	TC    float32
	RMom  float32
	Mom   float32
}

type Antenna struct {
	Align   ns.Quaternion
	Azim    float32
	Elev    float32
	MinElev float32
	MaxElev float32
}

type Transceiver struct {
	Freq       float64
	MaxFreq    float64
	MinFreq    float64
	GoodRatio  float64
	TxUTC      float64
	RxUTC      float64
	Uptime     float64
	PowerIn    float32
	PowerOut   float32
	MaxPower   float32
	Band       float32
	Squelch    float32
	OpMode     uint16
	Modulation uint16
	PktSize    uint16
}

type Piece struct {
	Name    string
	Type    uint16
	Cidx    uint16
	Density float32
	Mass    float32
	Emi     float32
	Abs     float32
	HCap    float32
	HCon    float32
	Dim     float32
	Area    float32
	Temp    float32
	Heat    float32
	COM     ns.Vector
	Normal  ns.Vector
	FaceCnt uint16
	FaceIdx [MaxPieceFaces]uint16
}

type Port struct {
	Name string
	Type uint16
}

type Target struct {
	Name   string
	Type   uint16
	UTC    float64
	AzFrom float32
	ElFrom float32
	AzTo   float32
	ElTo   float32
	Range  float32
	Close  float32
	Min    float32
	Loc    ns.Loc
}

type Face struct {
	VertexCnt uint16
	VertexIdx [MaxFaceVertices]uint16
	COM       ns.Vector
	Normal    ns.Vector
	Area      float64
}

type Glossary struct {
	Name        string
	Description string
	Value       float64
}

type TLE struct {
	UTC     float64
	Name    string
	ID      string
	SNumber uint16
	Orbit   uint32
	Bstar   float64
	I       float64
	RAAN    float64
	E       float64
	AP      float64
	MA      float64
	MM      float64
	DMM     float64
	DDMM    float64
}

// Allocate sizes every table from the counts in Node. Existing elements are
// kept where the new size allows. Call Register again afterwards.
func (r *Record) Allocate() {
	r.Agents = resize(r.Agents, int(r.Node.AgentCnt))
	r.Events = resize(r.Events, int(r.Node.EventCnt))
	r.Devices = resize(r.Devices, int(r.Node.DeviceCnt))
	r.Pieces = resize(r.Pieces, int(r.Node.PieceCnt))
	r.Ports = resize(r.Ports, int(r.Node.PortCnt))
	r.Targets = resize(r.Targets, int(r.Node.TargetCnt))
	r.Vertices = resize(r.Vertices, int(r.Node.VertexCnt))
	r.Faces = resize(r.Faces, int(r.Node.FaceCnt))
	r.Glossary = resize(r.Glossary, int(r.Node.GlossaryCnt))
	r.TLEs = resize(r.TLEs, int(r.Node.TLECnt))
}

// AllocateSpecific sizes the type-specific tables from the general device
// table. When every device of a type has didx zero, didx is assigned in
// order of appearance; otherwise the given indices are kept.
func (r *Record) AllocateSpecific() {
	explicit := make(map[DeviceType]bool)
	for _, d := range r.Devices {
		if d.Didx != 0 {
			explicit[DeviceType(d.Type)] = true
		}
	}

	next := make(map[DeviceType]int)
	counts := make(map[DeviceType]int)
	for i := range r.Devices {
		d := &r.Devices[i]
		t := DeviceType(d.Type)
		if t == DeviceNone {
			continue
		}
		if !explicit[t] {
			d.Didx = uint16(next[t])
			next[t]++
		}
		counts[t] = max(counts[t], int(d.Didx)+1)
	}
	s := &r.Specific
	s.GPS = resize(s.GPS, counts[DeviceGPS])
	s.IMU = resize(s.IMU, counts[DeviceIMU])
	s.Battery = resize(s.Battery, counts[DeviceBattery])
	s.CPU = resize(s.CPU, counts[DeviceCPU])
	s.RW = resize(s.RW, counts[DeviceRW])
	s.MTR = resize(s.MTR, counts[DeviceMTR])
	s.Antenna = resize(s.Antenna, counts[DeviceAntenna])
	s.Transceiver = resize(s.Transceiver, counts[DeviceTransceiver])
}

func resize[E any](s []E, n int) []E {
	if n <= len(s) {
		return s[:n]
	}
	out := make([]E, n)
	copy(out, s)
	return out
}

// Recompute is a frame hook: it keeps the node's location time in step with
// the newest position or attitude written through the registry.
func (r *Record) Recompute(u ns.FrameUpdate) {
	loc := &r.Node.Loc
	for _, t := range []float64{loc.Pos.UTC, loc.Att.UTC, loc.Pos.ECI.UTC, loc.Pos.GEOC.UTC, loc.Pos.GEOD.UTC, loc.Att.ICRF.UTC} {
		if t > loc.UTC {
			loc.UTC = t
		}
	}
	if loc.UTC > r.Node.UTC {
		r.Node.UTC = loc.UTC
	}
}
