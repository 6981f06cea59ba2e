package node

import (
	"fmt"

	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
)

// binder registers a run of entries, stopping at the first failure.
type binder struct {
	reg   *ns.Registry
	err   error
	names []string
}

func (b *binder) add(name string, t ns.Type, u ns.UnitID, loc ns.Locator) {
	if b.err != nil {
		return
	}
	if _, err := b.reg.Register(name, t, u, loc); err != nil {
		b.err = fmt.Errorf("registering %s: %w", name, err)
		return
	}
	b.names = append(b.names, name)
}

// enable sets the enabled flag of every name registered since mark.
func (b *binder) enable(mark int, on bool) {
	for _, name := range b.names[mark:] {
		_ = b.reg.Toggle(name, on)
	}
}

func nodeAt[T any](sel func(*Info) *T) ns.Locator { return ns.In(ns.GroupNode, sel) }

func physicsAt[T any](sel func(*Physics) *T) ns.Locator { return ns.In(ns.GroupPhysics, sel) }

func specAt[E, T any](i int, table func(*Specific) []E, sel func(*E) *T) ns.Locator {
	return ns.In(ns.GroupDeviceSpecific, func(s *Specific) *T {
		es := table(s)
		if i >= len(es) {
			return nil
		}
		return sel(&es[i])
	})
}

// Register binds every field of rec into reg, sized by the slices currently
// allocated in rec. Device, port and target entries whose *_type field is zero
// are registered disabled. It may be called again after Allocate; existing
// names keep their handles.
func Register(reg *ns.Registry, rec *Record) error {
	reg.SetBase(ns.GroupNode, &rec.Node)
	reg.SetBase(ns.GroupPhysics, &rec.Physics)
	reg.SetBase(ns.GroupAgent, &rec.Agents)
	reg.SetBase(ns.GroupEvent, &rec.Events)
	reg.SetBase(ns.GroupDevice, &rec.Devices)
	reg.SetBase(ns.GroupDeviceSpecific, &rec.Specific)
	reg.SetBase(ns.GroupPiece, &rec.Pieces)
	reg.SetBase(ns.GroupPort, &rec.Ports)
	reg.SetBase(ns.GroupTarget, &rec.Targets)
	reg.SetBase(ns.GroupVertex, &rec.Vertices)
	reg.SetBase(ns.GroupFace, &rec.Faces)
	reg.SetBase(ns.GroupGlossary, &rec.Glossary)
	reg.SetBase(ns.GroupTLE, &rec.TLEs)

	b := &binder{reg: reg}
	registerNode(b)
	registerPhysics(b)
	for i := range rec.Agents {
		registerAgent(b, i)
	}
	for i := range rec.Events {
		registerEvent(b, i)
	}
	for i := range rec.Pieces {
		registerPiece(b, i)
	}
	for i := range rec.Devices {
		mark := len(b.names)
		registerDevice(b, i)
		b.enable(mark, rec.Devices[i].Type != 0)
	}
	registerSpecific(b, rec)
	for i := range rec.Ports {
		mark := len(b.names)
		registerPort(b, i)
		b.enable(mark, rec.Ports[i].Type != 0)
	}
	for i := range rec.Targets {
		mark := len(b.names)
		registerTarget(b, i)
		b.enable(mark, rec.Targets[i].Type != 0)
	}
	for i := range rec.Vertices {
		b.add(ns.IndexedName("vertex", i), ns.TypeVector, ns.UnitLength,
			ns.Index(ns.GroupVertex, i, func(v *ns.Vector) *ns.Vector { return v }))
	}
	for i := range rec.Faces {
		registerFace(b, i)
	}
	for i := range rec.Glossary {
		registerGlossary(b, i)
	}
	for i := range rec.TLEs {
		registerTLE(b, i)
	}
	return b.err
}

// ApplyEnabled re-derives the enabled flags that follow *_type fields. A
// parse marks every matched field enabled, so loaders call this afterwards.
func ApplyEnabled(reg *ns.Registry, rec *Record) {
	set := func(names []string, on bool) {
		for _, n := range names {
			_ = reg.Toggle(n, on)
		}
	}
	for i := range rec.Devices {
		set(deviceNames(i), rec.Devices[i].Type != 0)
	}
	for i := range rec.Ports {
		set([]string{ns.IndexedName("port_name", i), ns.IndexedName("port_type", i)}, rec.Ports[i].Type != 0)
	}
	for i := range rec.Targets {
		set(targetNames(i), rec.Targets[i].Type != 0)
	}

	used := make(map[string]bool)
	for _, d := range rec.Devices {
		used[ns.IndexedName(DeviceType(d.Type).String(), int(d.Didx))] = true
	}
	for t, n := range specificCounts(&rec.Specific) {
		for i := 0; i < n; i++ {
			hs, _ := reg.Match(fmt.Sprintf("device_%s_*_%03d", t, i))
			for _, h := range hs {
				if e, err := reg.Entry(h); err == nil {
					_ = reg.Toggle(e.Name, used[ns.IndexedName(t.String(), i)])
				}
			}
		}
	}
}

func specificCounts(s *Specific) map[DeviceType]int {
	return map[DeviceType]int{
		DeviceGPS:         len(s.GPS),
		DeviceIMU:         len(s.IMU),
		DeviceBattery:     len(s.Battery),
		DeviceCPU:         len(s.CPU),
		DeviceRW:          len(s.RW),
		DeviceMTR:         len(s.MTR),
		DeviceAntenna:     len(s.Antenna),
		DeviceTransceiver: len(s.Transceiver),
	}
}

func registerNode(b *binder) {
	b.add("node_name", ns.TypeName, ns.UnitNone, nodeAt(func(n *Info) *string { return &n.Name }))
	b.add("node_type", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.Type }))
	b.add("node_state", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.State }))
	b.add("node_flags", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.Flags }))
	b.add("node_powmode", ns.TypeInt16, ns.UnitNone, nodeAt(func(n *Info) *int16 { return &n.PowMode }))
	b.add("node_utcoffset", ns.TypeDouble, ns.UnitDate, nodeAt(func(n *Info) *float64 { return &n.UTCOffset }))
	b.add("node_utc", ns.TypeUTC, ns.UnitDate, nodeAt(func(n *Info) *float64 { return &n.UTC }))
	b.add("node_utcstart", ns.TypeUTC, ns.UnitDate, nodeAt(func(n *Info) *float64 { return &n.UTCStart }))

	b.add("node_loc", ns.TypeLoc, ns.UnitNone, nodeAt(func(n *Info) *ns.Loc { return &n.Loc }))
	b.add("node_loc_utc", ns.TypeUTC, ns.UnitDate, nodeAt(func(n *Info) *float64 { return &n.Loc.UTC }))
	b.add("node_loc_pos", ns.TypePos, ns.UnitNone, nodeAt(func(n *Info) *ns.Pos { return &n.Loc.Pos }))
	b.add("node_loc_pos_icrf", ns.TypeCartPos, ns.UnitLength, nodeAt(func(n *Info) *ns.CartPos { return &n.Loc.Pos.ICRF }))
	b.add("node_loc_pos_eci", ns.TypeCartPos, ns.UnitLength, nodeAt(func(n *Info) *ns.CartPos { return &n.Loc.Pos.ECI }))
	b.add("node_loc_pos_eci_s", ns.TypeVector, ns.UnitLength, nodeAt(func(n *Info) *ns.Vector { return &n.Loc.Pos.ECI.S }))
	b.add("node_loc_pos_eci_v", ns.TypeVector, ns.UnitSpeed, nodeAt(func(n *Info) *ns.Vector { return &n.Loc.Pos.ECI.V }))
	b.add("node_loc_pos_sci", ns.TypeCartPos, ns.UnitLength, nodeAt(func(n *Info) *ns.CartPos { return &n.Loc.Pos.SCI }))
	b.add("node_loc_pos_geoc", ns.TypeCartPos, ns.UnitLength, nodeAt(func(n *Info) *ns.CartPos { return &n.Loc.Pos.GEOC }))
	b.add("node_loc_pos_selc", ns.TypeCartPos, ns.UnitLength, nodeAt(func(n *Info) *ns.CartPos { return &n.Loc.Pos.SELC }))
	b.add("node_loc_pos_geod", ns.TypeGeoidPos, ns.UnitNone, nodeAt(func(n *Info) *ns.GeoidPos { return &n.Loc.Pos.GEOD }))
	b.add("node_loc_pos_geod_s", ns.TypeGVector, ns.UnitNone, nodeAt(func(n *Info) *ns.GVector { return &n.Loc.Pos.GEOD.S }))
	b.add("node_loc_pos_selg", ns.TypeGeoidPos, ns.UnitNone, nodeAt(func(n *Info) *ns.GeoidPos { return &n.Loc.Pos.SELG }))
	b.add("node_loc_pos_geos", ns.TypeSpherPos, ns.UnitNone, nodeAt(func(n *Info) *ns.SpherPos { return &n.Loc.Pos.GEOS }))
	b.add("node_loc_att", ns.TypeAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.Att { return &n.Loc.Att }))
	b.add("node_loc_att_icrf", ns.TypeQAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.QAtt { return &n.Loc.Att.ICRF }))
	b.add("node_loc_att_icrf_s", ns.TypeQuaternion, ns.UnitNone, nodeAt(func(n *Info) *ns.Quaternion { return &n.Loc.Att.ICRF.S }))
	b.add("node_loc_att_icrf_v", ns.TypeVector, ns.UnitAngularRate, nodeAt(func(n *Info) *ns.Vector { return &n.Loc.Att.ICRF.V }))
	b.add("node_loc_att_lvlh", ns.TypeQAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.QAtt { return &n.Loc.Att.LVLH }))
	b.add("node_loc_att_geoc", ns.TypeQAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.QAtt { return &n.Loc.Att.GEOC }))
	b.add("node_loc_att_selc", ns.TypeQAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.QAtt { return &n.Loc.Att.SELC }))
	b.add("node_loc_att_topo", ns.TypeQAtt, ns.UnitNone, nodeAt(func(n *Info) *ns.QAtt { return &n.Loc.Att.TOPO }))

	b.add("node_azfrom", ns.TypeFloat, ns.UnitAngle, nodeAt(func(n *Info) *float32 { return &n.AzFrom }))
	b.add("node_elfrom", ns.TypeFloat, ns.UnitAngle, nodeAt(func(n *Info) *float32 { return &n.ElFrom }))
	b.add("node_azto", ns.TypeFloat, ns.UnitAngle, nodeAt(func(n *Info) *float32 { return &n.AzTo }))
	b.add("node_elto", ns.TypeFloat, ns.UnitAngle, nodeAt(func(n *Info) *float32 { return &n.ElTo }))
	b.add("node_range", ns.TypeFloat, ns.UnitLength, nodeAt(func(n *Info) *float32 { return &n.Range }))
	b.add("node_powgen", ns.TypeFloat, ns.UnitPower, nodeAt(func(n *Info) *float32 { return &n.PowGen }))
	b.add("node_powuse", ns.TypeFloat, ns.UnitPower, nodeAt(func(n *Info) *float32 { return &n.PowUse }))
	b.add("node_battcap", ns.TypeFloat, ns.UnitCharge, nodeAt(func(n *Info) *float32 { return &n.BattCap }))
	b.add("node_battlev", ns.TypeFloat, ns.UnitCharge, nodeAt(func(n *Info) *float32 { return &n.BattLev }))
	b.add("node_charging", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.Charging }))

	b.add("node_agent_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.AgentCnt }))
	b.add("node_event_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.EventCnt }))
	b.add("node_device_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.DeviceCnt }))
	b.add("node_piece_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.PieceCnt }))
	b.add("node_port_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.PortCnt }))
	b.add("node_target_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.TargetCnt }))
	b.add("node_vertex_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.VertexCnt }))
	b.add("node_face_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.FaceCnt }))
	b.add("node_glossary_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.GlossaryCnt }))
	b.add("node_tle_cnt", ns.TypeUint16, ns.UnitNone, nodeAt(func(n *Info) *uint16 { return &n.TLECnt }))
}

func registerPhysics(b *binder) {
	b.add("physics_dt", ns.TypeDouble, ns.UnitTime, physicsAt(func(p *Physics) *float64 { return &p.DT }))
	b.add("physics_mode", ns.TypeInt32, ns.UnitNone, physicsAt(func(p *Physics) *int32 { return &p.Mode }))
	b.add("physics_mass", ns.TypeFloat, ns.UnitMass, physicsAt(func(p *Physics) *float32 { return &p.Mass }))
	b.add("physics_heat", ns.TypeFloat, ns.UnitEnergy, physicsAt(func(p *Physics) *float32 { return &p.Heat }))
	b.add("physics_temp", ns.TypeFloat, ns.UnitTemperature, physicsAt(func(p *Physics) *float32 { return &p.Temp }))
	b.add("physics_radiation", ns.TypeFloat, ns.UnitEnergy, physicsAt(func(p *Physics) *float32 { return &p.Radiation }))
	b.add("physics_area", ns.TypeFloat, ns.UnitArea, physicsAt(func(p *Physics) *float32 { return &p.Area }))
	b.add("physics_hcap", ns.TypeFloat, ns.UnitNone, physicsAt(func(p *Physics) *float32 { return &p.HCap }))
	b.add("physics_moi", ns.TypeVector, ns.UnitMomentOfInertia, physicsAt(func(p *Physics) *ns.Vector { return &p.MOI }))
	b.add("physics_com", ns.TypeVector, ns.UnitLength, physicsAt(func(p *Physics) *ns.Vector { return &p.COM }))
	b.add("physics_thrust", ns.TypeVector, ns.UnitForce, physicsAt(func(p *Physics) *ns.Vector { return &p.Thrust }))
	b.add("physics_torque", ns.TypeVector, ns.UnitTorque, physicsAt(func(p *Physics) *ns.Vector { return &p.Torque }))
	b.add("physics_ftorque", ns.TypeVector, ns.UnitTorque, physicsAt(func(p *Physics) *ns.Vector { return &p.FTorque }))
	b.add("physics_fpush", ns.TypeVector, ns.UnitForce, physicsAt(func(p *Physics) *ns.Vector { return &p.FPush }))
}

func registerAgent(b *binder, i int) {
	at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
	at("agent_name", ns.TypeName, ns.UnitNone, ns.Index(ns.GroupAgent, i, func(a *Agent) *string { return &a.Name }))
	at("agent_beat", ns.TypeBeat, ns.UnitNone, ns.Index(ns.GroupAgent, i, func(a *Agent) *ns.Beat { return &a.Beat }))
	at("agent_pid", ns.TypeInt32, ns.UnitNone, ns.Index(ns.GroupAgent, i, func(a *Agent) *int32 { return &a.PID }))
	at("agent_aprd", ns.TypeDouble, ns.UnitTime, ns.Index(ns.GroupAgent, i, func(a *Agent) *float64 { return &a.APrd }))
	at("agent_stateflag", ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupAgent, i, func(a *Agent) *uint16 { return &a.StateFlag }))
}

func registerEvent(b *binder, i int) {
	at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
	at("event_utc", ns.TypeUTC, ns.UnitDate, ns.Index(ns.GroupEvent, i, func(e *Event) *float64 { return &e.UTC }))
	at("event_name", ns.TypeName, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *string { return &e.Name }))
	at("event_type", ns.TypeUint32, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *uint32 { return &e.Type }))
	at("event_flag", ns.TypeUint32, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *uint32 { return &e.Flag }))
	at("event_data", ns.TypeString, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *string { return &e.Data }))
	at("event_condition", ns.TypeString, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *string { return &e.Condition }))
	at("event_value", ns.TypeDouble, ns.UnitNone, ns.Index(ns.GroupEvent, i, func(e *Event) *float64 { return &e.Value }))
	at("event_dtime", ns.TypeDouble, ns.UnitTime, ns.Index(ns.GroupEvent, i, func(e *Event) *float64 { return &e.DTime }))
	at("event_ctime", ns.TypeDouble, ns.UnitTime, ns.Index(ns.GroupEvent, i, func(e *Event) *float64 { return &e.CTime }))
}

func registerPiece(b *binder, i int) {
	at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
	f32 := func(name string, u ns.UnitID, sel func(*Piece) *float32) {
		at(name, ns.TypeFloat, u, ns.Index(ns.GroupPiece, i, sel))
	}
	at("piece_name", ns.TypeName, ns.UnitNone, ns.Index(ns.GroupPiece, i, func(p *Piece) *string { return &p.Name }))
	at("piece_type", ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupPiece, i, func(p *Piece) *uint16 { return &p.Type }))
	at("piece_cidx", ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupPiece, i, func(p *Piece) *uint16 { return &p.Cidx }))
	f32("piece_density", ns.UnitDensity, func(p *Piece) *float32 { return &p.Density })
	f32("piece_mass", ns.UnitMass, func(p *Piece) *float32 { return &p.Mass })
	f32("piece_emi", ns.UnitFraction, func(p *Piece) *float32 { return &p.Emi })
	f32("piece_abs", ns.UnitFraction, func(p *Piece) *float32 { return &p.Abs })
	f32("piece_hcap", ns.UnitNone, func(p *Piece) *float32 { return &p.HCap })
	f32("piece_hcon", ns.UnitNone, func(p *Piece) *float32 { return &p.HCon })
	f32("piece_dim", ns.UnitLength, func(p *Piece) *float32 { return &p.Dim })
	f32("piece_area", ns.UnitArea, func(p *Piece) *float32 { return &p.Area })
	f32("piece_temp", ns.UnitTemperature, func(p *Piece) *float32 { return &p.Temp })
	f32("piece_heat", ns.UnitEnergy, func(p *Piece) *float32 { return &p.Heat })
	at("piece_com", ns.TypeVector, ns.UnitLength, ns.Index(ns.GroupPiece, i, func(p *Piece) *ns.Vector { return &p.COM }))
	at("piece_normal", ns.TypeVector, ns.UnitNone, ns.Index(ns.GroupPiece, i, func(p *Piece) *ns.Vector { return &p.Normal }))
	at("piece_face_cnt", ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupPiece, i, func(p *Piece) *uint16 { return &p.FaceCnt }))
	for j := 0; j < MaxPieceFaces; j++ {
		b.add(ns.IndexedName("piece_face_idx", i, j), ns.TypeUint16, ns.UnitNone,
			ns.Index(ns.GroupPiece, i, func(p *Piece) *uint16 { return &p.FaceIdx[j] }))
	}
}

// deviceNames lists the general device entries of device i.
func deviceNames(i int) []string {
	names := make([]string, 0, len(deviceFields))
	for _, f := range deviceFields {
		names = append(names, ns.IndexedName(f.name, i))
	}
	return names
}

type deviceField struct {
	name string
	typ  ns.Type
	unit ns.UnitID
	loc  func(i int) ns.Locator
}

func devAt[T any](sel func(*Device) *T) func(int) ns.Locator {
	return func(i int) ns.Locator { return ns.Index(ns.GroupDevice, i, sel) }
}

var deviceFields = []deviceField{
	{"device_all_name", ns.TypeName, ns.UnitNone, devAt(func(d *Device) *string { return &d.Name })},
	{"device_all_type", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Type })},
	{"device_all_model", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Model })},
	{"device_all_flag", ns.TypeUint32, ns.UnitNone, devAt(func(d *Device) *uint32 { return &d.Flag })},
	{"device_all_addr", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Addr })},
	{"device_all_didx", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Didx })},
	{"device_all_pidx", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Pidx })},
	{"device_all_bidx", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.Bidx })},
	{"device_all_portidx", ns.TypeUint16, ns.UnitNone, devAt(func(d *Device) *uint16 { return &d.PortIdx })},
	{"device_all_enabled", ns.TypeBool, ns.UnitNone, devAt(func(d *Device) *bool { return &d.Enabled })},
	{"device_all_namp", ns.TypeFloat, ns.UnitCurrent, devAt(func(d *Device) *float32 { return &d.NAmp })},
	{"device_all_nvolt", ns.TypeFloat, ns.UnitVoltage, devAt(func(d *Device) *float32 { return &d.NVolt })},
	{"device_all_amp", ns.TypeFloat, ns.UnitCurrent, devAt(func(d *Device) *float32 { return &d.Amp })},
	{"device_all_volt", ns.TypeFloat, ns.UnitVoltage, devAt(func(d *Device) *float32 { return &d.Volt })},
	{"device_all_power", ns.TypeFloat, ns.UnitPower, devAt(func(d *Device) *float32 { return &d.Power })},
	{"device_all_energy", ns.TypeFloat, ns.UnitEnergy, devAt(func(d *Device) *float32 { return &d.Energy })},
	{"device_all_drate", ns.TypeFloat, ns.UnitNone, devAt(func(d *Device) *float32 { return &d.DRate })},
	{"device_all_temp", ns.TypeFloat, ns.UnitTemperature, devAt(func(d *Device) *float32 { return &d.Temp })},
	{"device_all_utc", ns.TypeUTC, ns.UnitDate, devAt(func(d *Device) *float64 { return &d.UTC })},
}

func registerDevice(b *binder, i int) {
	for _, f := range deviceFields {
		b.add(ns.IndexedName(f.name, i), f.typ, f.unit, f.loc(i))
	}
}

// registerSpecific binds the type-specific tables. Entry i of a table is
// enabled only while some general device of that type has didx i.
func registerSpecific(b *binder, rec *Record) {
	used := make(map[DeviceType]map[int]bool)
	for _, d := range rec.Devices {
		t := DeviceType(d.Type)
		if used[t] == nil {
			used[t] = make(map[int]bool)
		}
		used[t][int(d.Didx)] = true
	}
	each := func(t DeviceType, n int, fn func(i int)) {
		for i := 0; i < n; i++ {
			mark := len(b.names)
			fn(i)
			b.enable(mark, used[t][i])
		}
	}
	s := &rec.Specific

	each(DeviceGPS, len(s.GPS), func(i int) {
		gps := func(s *Specific) []GPS { return s.GPS }
		at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
		at("device_gps_utc", ns.TypeUTC, ns.UnitDate, specAt(i, gps, func(g *GPS) *float64 { return &g.UTC }))
		at("device_gps_dutc", ns.TypeDouble, ns.UnitTime, specAt(i, gps, func(g *GPS) *float64 { return &g.DUTC }))
		at("device_gps_geocs", ns.TypeVector, ns.UnitLength, specAt(i, gps, func(g *GPS) *ns.Vector { return &g.GeocS }))
		at("device_gps_geocv", ns.TypeVector, ns.UnitSpeed, specAt(i, gps, func(g *GPS) *ns.Vector { return &g.GeocV }))
		at("device_gps_geods", ns.TypeGVector, ns.UnitNone, specAt(i, gps, func(g *GPS) *ns.GVector { return &g.GeodS }))
		at("device_gps_sats_used", ns.TypeUint16, ns.UnitNone, specAt(i, gps, func(g *GPS) *uint16 { return &g.SatsUsed }))
		at("device_gps_sats_visible", ns.TypeUint16, ns.UnitNone, specAt(i, gps, func(g *GPS) *uint16 { return &g.SatsVisible }))
		at("device_gps_time_status", ns.TypeUint16, ns.UnitNone, specAt(i, gps, func(g *GPS) *uint16 { return &g.TimeStatus }))
		at("device_gps_position_type", ns.TypeUint16, ns.UnitNone, specAt(i, gps, func(g *GPS) *uint16 { return &g.PositionType }))
		at("device_gps_solution_status", ns.TypeUint16, ns.UnitNone, specAt(i, gps, func(g *GPS) *uint16 { return &g.SolutionStatus }))
	})

	each(DeviceIMU, len(s.IMU), func(i int) {
		imu := func(s *Specific) []IMU { return s.IMU }
		at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
		at("device_imu_accel", ns.TypeVector, ns.UnitAcceleration, specAt(i, imu, func(m *IMU) *ns.Vector { return &m.Accel }))
		at("device_imu_omega", ns.TypeVector, ns.UnitAngularRate, specAt(i, imu, func(m *IMU) *ns.Vector { return &m.Omega }))
		at("device_imu_mag", ns.TypeVector, ns.UnitMagneticField, specAt(i, imu, func(m *IMU) *ns.Vector { return &m.Mag }))
		at("device_imu_bdot", ns.TypeVector, ns.UnitMagneticField, specAt(i, imu, func(m *IMU) *ns.Vector { return &m.BDot }))
		at("device_imu_theta", ns.TypeQuaternion, ns.UnitNone, specAt(i, imu, func(m *IMU) *ns.Quaternion { return &m.Theta }))
	})

	each(DeviceBattery, len(s.Battery), func(i int) {
		batt := func(s *Specific) []Battery { return s.Battery }
		f32 := func(name string, u ns.UnitID, sel func(*Battery) *float32) {
			b.add(ns.IndexedName(name, i), ns.TypeFloat, u, specAt(i, batt, sel))
		}
		f32("device_batt_capacity", ns.UnitCharge, func(x *Battery) *float32 { return &x.Capacity })
		f32("device_batt_efficiency", ns.UnitFraction, func(x *Battery) *float32 { return &x.Efficiency })
		f32("device_batt_charge", ns.UnitCharge, func(x *Battery) *float32 { return &x.Charge })
		f32("device_batt_r", ns.UnitResistance, func(x *Battery) *float32 { return &x.R })
		f32("device_batt_percentage", ns.UnitFraction, func(x *Battery) *float32 { return &x.Percentage })
		f32("device_batt_time_remaining", ns.UnitTime, func(x *Battery) *float32 { return &x.TimeRemaining })
	})

	each(DeviceCPU, len(s.CPU), func(i int) {
		cpu := func(s *Specific) []CPU { return s.CPU }
		at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
		at("device_cpu_uptime", ns.TypeUint32, ns.UnitTime, specAt(i, cpu, func(c *CPU) *uint32 { return &c.Uptime }))
		at("device_cpu_boot_count", ns.TypeUint32, ns.UnitNone, specAt(i, cpu, func(c *CPU) *uint32 { return &c.BootCount }))
		at("device_cpu_load", ns.TypeFloat, ns.UnitNone, specAt(i, cpu, func(c *CPU) *float32 { return &c.Load }))
		at("device_cpu_maxload", ns.TypeFloat, ns.UnitNone, specAt(i, cpu, func(c *CPU) *float32 { return &c.MaxLoad }))
		at("device_cpu_gib", ns.TypeFloat, ns.UnitNone, specAt(i, cpu, func(c *CPU) *float32 { return &c.GiB }))
		at("device_cpu_maxgib", ns.TypeFloat, ns.UnitNone, specAt(i, cpu, func(c *CPU) *float32 { return &c.MaxGiB }))
	})

	each(DeviceRW, len(s.RW), func(i int) {
		rw := func(s *Specific) []RW { return s.RW }
		f32 := func(name string, u ns.UnitID, sel func(*RW) *float32) {
			b.add(ns.IndexedName(name, i), ns.TypeFloat, u, specAt(i, rw, sel))
		}
		b.add(ns.IndexedName("device_rw_mom", i), ns.TypeVector, ns.UnitMomentOfInertia, specAt(i, rw, func(w *RW) *ns.Vector { return &w.Mom }))
		f32("device_rw_mxomg", ns.UnitAngularRate, func(w *RW) *float32 { return &w.MxOmg })
		f32("device_rw_mxalp", ns.UnitAngularAcceleration, func(w *RW) *float32 { return &w.MxAlp })
		f32("device_rw_tc", ns.UnitTime, func(w *RW) *float32 { return &w.TC })
		f32("device_rw_omg", ns.UnitAngularRate, func(w *RW) *float32 { return &w.Omg })
		f32("device_rw_alp", ns.UnitAngularAcceleration, func(w *RW) *float32 { return &w.Alp })
		f32("device_rw_romg", ns.UnitAngularRate, func(w *RW) *float32 { return &w.ROmg })
		f32("device_rw_ralp", ns.UnitAngularAcceleration, func(w *RW) *float32 { return &w.RAlp })
	})

	each(DeviceMTR, len(s.MTR), func(i int) {
		mtr := func(s *Specific) []MTR { return s.MTR }
		f32 := func(name string, sel func(*MTR) *float32) {
			b.add(ns.IndexedName(name, i), ns.TypeFloat, ns.UnitNone, specAt(i, mtr, sel))
		}
		b.add(ns.IndexedName("device_mtr_align", i), ns.TypeQuaternion, ns.UnitNone, specAt(i, mtr, func(m *MTR) *ns.Quaternion { return &m.Align }))
		f32("device_mtr_mxmom", func(m *MTR) *float32 { return &m.MxMom })
		f32("device_mtr_tc", func(m *MTR) *float32 { return &m.TC })
		f32("device_mtr_rmom", func(m *MTR) *float32 { return &m.RMom })
		f32("device_mtr_mom", func(m *MTR) *float32 { return &m.Mom })
	})

	each(DeviceAntenna, len(s.Antenna), func(i int) {
		ant := func(s *Specific) []Antenna { return s.Antenna }
		f32 := func(name string, sel func(*Antenna) *float32) {
			b.add(ns.IndexedName(name, i), ns.TypeFloat, ns.UnitAngle, specAt(i, ant, sel))
		}
		b.add(ns.IndexedName("device_ant_align", i), ns.TypeQuaternion, ns.UnitNone, specAt(i, ant, func(a *Antenna) *ns.Quaternion { return &a.Align }))
		f32("device_ant_azim", func(a *Antenna) *float32 { return &a.Azim })
		f32("device_ant_elev", func(a *Antenna) *float32 { return &a.Elev })
		f32("device_ant_minelev", func(a *Antenna) *float32 { return &a.MinElev })
		f32("device_ant_maxelev", func(a *Antenna) *float32 { return &a.MaxElev })
	})

	each(DeviceTransceiver, len(s.Transceiver), func(i int) {
		tcv := func(s *Specific) []Transceiver { return s.Transceiver }
		at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
		at("device_tcv_freq", ns.TypeDouble, ns.UnitFrequency, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.Freq }))
		at("device_tcv_maxfreq", ns.TypeDouble, ns.UnitFrequency, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.MaxFreq }))
		at("device_tcv_minfreq", ns.TypeDouble, ns.UnitFrequency, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.MinFreq }))
		at("device_tcv_goodratio", ns.TypeDouble, ns.UnitFraction, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.GoodRatio }))
		at("device_tcv_txutc", ns.TypeUTC, ns.UnitDate, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.TxUTC }))
		at("device_tcv_rxutc", ns.TypeUTC, ns.UnitDate, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.RxUTC }))
		at("device_tcv_uptime", ns.TypeDouble, ns.UnitTime, specAt(i, tcv, func(x *Transceiver) *float64 { return &x.Uptime }))
		at("device_tcv_powerin", ns.TypeFloat, ns.UnitPower, specAt(i, tcv, func(x *Transceiver) *float32 { return &x.PowerIn }))
		at("device_tcv_powerout", ns.TypeFloat, ns.UnitPower, specAt(i, tcv, func(x *Transceiver) *float32 { return &x.PowerOut }))
		at("device_tcv_maxpower", ns.TypeFloat, ns.UnitPower, specAt(i, tcv, func(x *Transceiver) *float32 { return &x.MaxPower }))
		at("device_tcv_band", ns.TypeFloat, ns.UnitFrequency, specAt(i, tcv, func(x *Transceiver) *float32 { return &x.Band }))
		at("device_tcv_squelch_tone", ns.TypeFloat, ns.UnitFrequency, specAt(i, tcv, func(x *Transceiver) *float32 { return &x.Squelch }))
		at("device_tcv_opmode", ns.TypeUint16, ns.UnitNone, specAt(i, tcv, func(x *Transceiver) *uint16 { return &x.OpMode }))
		at("device_tcv_modulation", ns.TypeUint16, ns.UnitNone, specAt(i, tcv, func(x *Transceiver) *uint16 { return &x.Modulation }))
		at("device_tcv_pktsize", ns.TypeUint16, ns.UnitBytes, specAt(i, tcv, func(x *Transceiver) *uint16 { return &x.PktSize }))
	})
}

func registerPort(b *binder, i int) {
	b.add(ns.IndexedName("port_name", i), ns.TypeString, ns.UnitNone, ns.Index(ns.GroupPort, i, func(p *Port) *string { return &p.Name }))
	b.add(ns.IndexedName("port_type", i), ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupPort, i, func(p *Port) *uint16 { return &p.Type }))
}

func targetNames(i int) []string {
	names := make([]string, 0, len(targetFields))
	for _, f := range targetFields {
		names = append(names, ns.IndexedName(f.name, i))
	}
	return names
}

func tgtAt[T any](sel func(*Target) *T) func(int) ns.Locator {
	return func(i int) ns.Locator { return ns.Index(ns.GroupTarget, i, sel) }
}

var targetFields = []deviceField{
	{"target_name", ns.TypeName, ns.UnitNone, tgtAt(func(t *Target) *string { return &t.Name })},
	{"target_type", ns.TypeUint16, ns.UnitNone, tgtAt(func(t *Target) *uint16 { return &t.Type })},
	{"target_utc", ns.TypeUTC, ns.UnitDate, tgtAt(func(t *Target) *float64 { return &t.UTC })},
	{"target_azfrom", ns.TypeFloat, ns.UnitAngle, tgtAt(func(t *Target) *float32 { return &t.AzFrom })},
	{"target_elfrom", ns.TypeFloat, ns.UnitAngle, tgtAt(func(t *Target) *float32 { return &t.ElFrom })},
	{"target_azto", ns.TypeFloat, ns.UnitAngle, tgtAt(func(t *Target) *float32 { return &t.AzTo })},
	{"target_elto", ns.TypeFloat, ns.UnitAngle, tgtAt(func(t *Target) *float32 { return &t.ElTo })},
	{"target_range", ns.TypeFloat, ns.UnitLength, tgtAt(func(t *Target) *float32 { return &t.Range })},
	{"target_close", ns.TypeFloat, ns.UnitSpeed, tgtAt(func(t *Target) *float32 { return &t.Close })},
	{"target_min", ns.TypeFloat, ns.UnitAngle, tgtAt(func(t *Target) *float32 { return &t.Min })},
	{"target_loc", ns.TypeLoc, ns.UnitNone, tgtAt(func(t *Target) *ns.Loc { return &t.Loc })},
	{"target_loc_pos_geod", ns.TypeGeoidPos, ns.UnitNone, tgtAt(func(t *Target) *ns.GeoidPos { return &t.Loc.Pos.GEOD })},
}

func registerTarget(b *binder, i int) {
	for _, f := range targetFields {
		b.add(ns.IndexedName(f.name, i), f.typ, f.unit, f.loc(i))
	}
}

func registerFace(b *binder, i int) {
	face := func(sel func(*Face) *uint16) ns.Locator { return ns.Index(ns.GroupFace, i, sel) }
	b.add(ns.IndexedName("face_vertex_cnt", i), ns.TypeUint16, ns.UnitNone, face(func(f *Face) *uint16 { return &f.VertexCnt }))
	for j := 0; j < MaxFaceVertices; j++ {
		b.add(ns.IndexedName("face_vertex_idx", i, j), ns.TypeUint16, ns.UnitNone, face(func(f *Face) *uint16 { return &f.VertexIdx[j] }))
	}
	b.add(ns.IndexedName("face_com", i), ns.TypeVector, ns.UnitLength, ns.Index(ns.GroupFace, i, func(f *Face) *ns.Vector { return &f.COM }))
	b.add(ns.IndexedName("face_normal", i), ns.TypeVector, ns.UnitNone, ns.Index(ns.GroupFace, i, func(f *Face) *ns.Vector { return &f.Normal }))
	b.add(ns.IndexedName("face_area", i), ns.TypeDouble, ns.UnitArea, ns.Index(ns.GroupFace, i, func(f *Face) *float64 { return &f.Area }))
}

func registerGlossary(b *binder, i int) {
	b.add(ns.IndexedName("glossary_name", i), ns.TypeName, ns.UnitNone, ns.Index(ns.GroupGlossary, i, func(g *Glossary) *string { return &g.Name }))
	b.add(ns.IndexedName("glossary_description", i), ns.TypeString, ns.UnitNone, ns.Index(ns.GroupGlossary, i, func(g *Glossary) *string { return &g.Description }))
	b.add(ns.IndexedName("glossary_value", i), ns.TypeDouble, ns.UnitNone, ns.Index(ns.GroupGlossary, i, func(g *Glossary) *float64 { return &g.Value }))
}

func registerTLE(b *binder, i int) {
	at := func(name string, t ns.Type, u ns.UnitID, loc ns.Locator) { b.add(ns.IndexedName(name, i), t, u, loc) }
	f64 := func(name string, u ns.UnitID, sel func(*TLE) *float64) {
		at(name, ns.TypeDouble, u, ns.Index(ns.GroupTLE, i, sel))
	}
	at("tle_utc", ns.TypeUTC, ns.UnitDate, ns.Index(ns.GroupTLE, i, func(t *TLE) *float64 { return &t.UTC }))
	at("tle_name", ns.TypeName, ns.UnitNone, ns.Index(ns.GroupTLE, i, func(t *TLE) *string { return &t.Name }))
	at("tle_id", ns.TypeName, ns.UnitNone, ns.Index(ns.GroupTLE, i, func(t *TLE) *string { return &t.ID }))
	at("tle_snumber", ns.TypeUint16, ns.UnitNone, ns.Index(ns.GroupTLE, i, func(t *TLE) *uint16 { return &t.SNumber }))
	at("tle_orbit", ns.TypeUint32, ns.UnitNone, ns.Index(ns.GroupTLE, i, func(t *TLE) *uint32 { return &t.Orbit }))
	f64("tle_bstar", ns.UnitNone, func(t *TLE) *float64 { return &t.Bstar })
	f64("tle_i", ns.UnitAngle, func(t *TLE) *float64 { return &t.I })
	f64("tle_raan", ns.UnitAngle, func(t *TLE) *float64 { return &t.RAAN })
	f64("tle_e", ns.UnitNone, func(t *TLE) *float64 { return &t.E })
	f64("tle_ap", ns.UnitAngle, func(t *TLE) *float64 { return &t.AP })
	f64("tle_ma", ns.UnitAngle, func(t *TLE) *float64 { return &t.MA })
	f64("tle_mm", ns.UnitAngularRate, func(t *TLE) *float64 { return &t.MM })
	f64("tle_dmm", ns.UnitAngularAcceleration, func(t *TLE) *float64 { return &t.DMM })
	f64("tle_ddmm", ns.UnitNone, func(t *TLE) *float64 { return &t.DDMM })
}
