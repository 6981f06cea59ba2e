package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hsfl/cosmos-core-sub000/internal/auth"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/config"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/database"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/logging"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/metrics"
	"github.com/hsfl/cosmos-core-sub000/internal/infrastructure/mqtt"
	ns "github.com/hsfl/cosmos-core-sub000/internal/namespace"
	"github.com/hsfl/cosmos-core-sub000/internal/snapshot"
	"github.com/hsfl/cosmos-core-sub000/internal/telemetry"
	"github.com/hsfl/cosmos-core-sub000/migrations"
)

const testSecret = "test-secret-key-at-least-32-characters-long"

// testNode holds the values the test registry points at.
type testNode struct {
	name   string
	powgen float64
	temp   float32
	agent  string
	beat   ns.Beat
}

type testEnv struct {
	srv     *Server
	node    *testNode
	handler http.Handler
}

// testServer creates a Server over a small registry, an in-memory snapshot
// database and an empty mirror.
func testServer(t *testing.T) *testEnv {
	t.Helper()

	n := &testNode{name: "cubesat1", powgen: 4.5, temp: 300, agent: "cosmosd"}
	reg := ns.New()
	for _, e := range []struct {
		name string
		t    ns.Type
		unit ns.UnitID
		loc  ns.Locator
	}{
		{"node_name", ns.TypeName, ns.UnitNone, ns.At(&n.name)},
		{"node_powgen", ns.TypeDouble, ns.UnitPower, ns.At(&n.powgen)},
		{"device_cpu_temp_000", ns.TypeFloat, ns.UnitTemperature, ns.At(&n.temp)},
		{"agent_name_000", ns.TypeName, ns.UnitNone, ns.At(&n.agent)},
		{"agent_beat_000", ns.TypeBeat, ns.UnitNone, ns.At(&n.beat)},
	} {
		if _, err := reg.Register(e.name, e.t, e.unit, e.loc); err != nil {
			t.Fatalf("Register(%s): %v", e.name, err)
		}
	}

	agent, err := telemetry.NewAgent(telemetry.Config{
		Node: "cubesat1",
		SOH:  []string{"node_*", "device_*"},
	}, telemetry.NewGuard(reg))
	if err != nil {
		t.Fatalf("NewAgent: %v", err)
	}

	db, err := database.Open(database.Config{Path: database.MemoryPath, BusyTimeout: 1})
	if err != nil {
		t.Fatalf("database.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(context.Background(), migrations.FS()); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
			MaxBodyBytes: 4096,
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Security: config.SecurityConfig{
			JWT: config.JWTConfig{
				Secret:         testSecret,
				AccessTokenTTL: 15,
			},
		},
		Logger:    log,
		Agent:     agent,
		Mirror:    telemetry.NewMirror("cubesat1", 0),
		Snapshots: snapshot.NewRepository(db.DB),
		DB:        db,
		Metrics:   metrics.NewRegistry(),
		Version:   "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go srv.hub.Run(ctx)

	return &testEnv{srv: srv, node: n, handler: srv.buildRouter()}
}

func (e *testEnv) do(t *testing.T, method, target, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func mintToken(t *testing.T, role auth.Role, node string) string {
	t.Helper()
	tok, err := auth.GenerateAccessToken("ops", role, node, testSecret, 5)
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}
	return tok
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestNew_RequiresDeps(t *testing.T) {
	log := logging.NewWithWriter(io.Discard, config.LoggingConfig{Level: "error"}, "test")
	if _, err := New(Deps{}); err == nil {
		t.Error("New() without logger should fail")
	}
	if _, err := New(Deps{Logger: log}); err == nil {
		t.Error("New() without agent should fail")
	}
}

func TestHealth(t *testing.T) {
	env := testServer(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["node"] != "cubesat1" {
		t.Errorf("node = %v, want cubesat1", body["node"])
	}
	if body["entries"] != float64(5) {
		t.Errorf("entries = %v, want 5", body["entries"])
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set")
	}
}

func TestListNamespace(t *testing.T) {
	env := testServer(t)

	tests := []struct {
		name   string
		target string
		want   string
		status int
	}{
		{"pattern", "/api/v1/namespace?match=node_*", `{"node_name":"cubesat1"}{"node_powgen":4.5}`, http.StatusOK},
		{"no match", "/api/v1/namespace?match=zzz_*", "", http.StatusOK},
		{"bad pattern", "/api/v1/namespace?match=[", "", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, tt.target, "", "")
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d: %s", rec.Code, tt.status, rec.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}
			if ct := rec.Header().Get("Content-Type"); ct != contentTypeWire {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Body.String() != tt.want {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.want)
			}
		})
	}
}

func TestGetEntry(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/namespace/node_powgen", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[entryResponse](t, rec)
	if got.Name != "node_powgen" || got.Unit != "W" || got.Text != `{"node_powgen":4.5}` {
		t.Errorf("entry = %+v", got)
	}
	if got.Value == nil || *got.Value != 4.5 {
		t.Errorf("value = %v, want 4.5", got.Value)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/namespace/device_cpu_temp_000?unit=C", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got = decode[entryResponse](t, rec)
	if got.In != "C" || got.Value == nil || *got.Value < 26.84 || *got.Value > 26.86 {
		t.Errorf("converted = %+v", got)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/namespace/node_name", "", "")
	if got := decode[entryResponse](t, rec); got.Value != nil {
		t.Errorf("name entry has value %v", *got.Value)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/namespace/no_such_entry", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing entry status = %d, want 404", rec.Code)
	}
}

func TestWriteEndpoints_Auth(t *testing.T) {
	env := testServer(t)
	viewer := mintToken(t, auth.RoleViewer, "")
	other := mintToken(t, auth.RoleOperator, "cubesat9")

	tests := []struct {
		name   string
		token  string
		status int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"garbage token", "not-a-jwt", http.StatusUnauthorized},
		{"viewer", viewer, http.StatusForbidden},
		{"other node", other, http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/v1/namespace", `{"node_powgen":9}`, tt.token)
			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
	if env.node.powgen != 4.5 {
		t.Errorf("rejected write changed value to %v", env.node.powgen)
	}
}

func TestSetNamespace(t *testing.T) {
	env := testServer(t)
	op := mintToken(t, auth.RoleOperator, "cubesat1")

	rec := env.do(t, http.MethodPut, "/api/v1/namespace", `{"node_powgen":7.25}{"bogus":1}{"node_name":5}`, op)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[parseResponse](t, rec)
	if got.Matched != 1 {
		t.Errorf("matched = %d, want 1", got.Matched)
	}
	if len(got.Unknown) != 1 || got.Unknown[0] != "bogus" {
		t.Errorf("unknown = %v", got.Unknown)
	}
	if env.node.powgen != 7.25 {
		t.Errorf("powgen = %v, want 7.25", env.node.powgen)
	}

	rec = env.do(t, http.MethodPut, "/api/v1/namespace", `   `, op)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", rec.Code)
	}

	big := `{"node_powgen":` + strings.Repeat("1", 5000) + `}`
	rec = env.do(t, http.MethodPut, "/api/v1/namespace", big, op)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body status = %d, want 413", rec.Code)
	}
}

func TestToggleEntry(t *testing.T) {
	env := testServer(t)
	op := mintToken(t, auth.RoleOperator, "")

	rec := env.do(t, http.MethodPatch, "/api/v1/namespace/node_powgen/enabled", `{"enabled":false}`, op)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[ns.Info](t, rec); got.Enabled {
		t.Error("entry still enabled")
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/namespace/node_powgen/enabled", `{}`, op)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing field status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPatch, "/api/v1/namespace/nope/enabled", `{"enabled":true}`, op)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown entry status = %d, want 404", rec.Code)
	}
}

func TestAddAlias(t *testing.T) {
	env := testServer(t)
	op := mintToken(t, auth.RoleOperator, "cubesat1")

	rec := env.do(t, http.MethodPost, "/api/v1/aliases", `{"name":"power","target":"node_powgen"}`, op)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if got := decode[ns.Info](t, rec); got.Target != "node_powgen" {
		t.Errorf("target = %q", got.Target)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/namespace/power", "", "")
	if got := decode[entryResponse](t, rec); got.Value == nil || *got.Value != 4.5 {
		t.Errorf("alias value = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/aliases", `{"name":"double_power","target":"("node_powgen"*2)"}`, op)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed JSON status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/aliases", `{"name":"double_power","target":"(\"node_powgen\"*2)"}`, op)
	if rec.Code != http.StatusCreated {
		t.Fatalf("equation alias status = %d: %s", rec.Code, rec.Body.String())
	}
	rec = env.do(t, http.MethodGet, "/api/v1/namespace/double_power", "", "")
	if got := decode[entryResponse](t, rec); got.Value == nil || *got.Value != 9 {
		t.Errorf("equation alias value = %+v", got)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/aliases", `{"name":"x","target":"missing"}`, op)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing target status = %d, want 404", rec.Code)
	}

	viewer := mintToken(t, auth.RoleViewer, "")
	rec = env.do(t, http.MethodPost, "/api/v1/aliases", `{"name":"y","target":"node_powgen"}`, viewer)
	if rec.Code != http.StatusForbidden {
		t.Errorf("viewer status = %d, want 403", rec.Code)
	}
}

func TestEvaluate(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodPost, "/api/v1/equations/evaluate", `{"equation":"(\"node_powgen\"+0.5)"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	got := decode[evaluateResponse](t, rec)
	if got.Value == nil || *got.Value != 5 {
		t.Errorf("value = %v, want 5", got.Value)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/equations/evaluate", `{"equation":"(1/0)"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[evaluateResponse](t, rec); got.Value != nil {
		t.Errorf("non-finite value = %v, want null", *got.Value)
	}

	rec = env.do(t, http.MethodPost, "/api/v1/equations/evaluate", `{}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty equation status = %d, want 400", rec.Code)
	}

	deep := strings.Repeat("(", 200) + "1" + strings.Repeat(")", 200)
	rec = env.do(t, http.MethodPost, "/api/v1/equations/evaluate", `{"equation":"`+deep+`"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("deep equation status = %d, want 400", rec.Code)
	}
}

func TestEvaluate_DoesNotGrowEquationTable(t *testing.T) {
	env := testServer(t)
	count := func() int {
		var n int
		_ = env.srv.agent.Guard().Do(func(reg *ns.Registry) error {
			n = reg.EquationCount()
			return nil
		})
		return n
	}
	before := count()

	for i := 0; i < 100; i++ {
		body := fmt.Sprintf(`{"equation":"(\"node_powgen\"*%d)"}`, i)
		rec := env.do(t, http.MethodPost, "/api/v1/equations/evaluate", body, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
	}
	if got := count(); got != before {
		t.Errorf("EquationCount = %d after evaluations, want %d", got, before)
	}
}

func TestCatalogue(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/catalogue", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	c := decode[telemetry.Catalogue](t, rec)
	if c.Node != "cubesat1" || len(c.Entries) != 5 {
		t.Errorf("catalogue = %+v", c)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/catalogue?format=cbor", "", "")
	if ct := rec.Header().Get("Content-Type"); ct != "application/cbor" {
		t.Fatalf("Content-Type = %q", ct)
	}
	got, err := telemetry.UnmarshalCatalogue(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("UnmarshalCatalogue: %v", err)
	}
	if len(got.Entries) != 5 || got.Entries[1].Name != c.Entries[1].Name {
		t.Errorf("cbor catalogue = %+v", got)
	}
}

func TestSnapshots(t *testing.T) {
	env := testServer(t)
	ctx := context.Background()

	snap, _, err := env.srv.snapshots.Save(ctx, "cubesat1", `{"node_powgen":4.5}`)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/snapshots", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
	list := decode[struct {
		Snapshots []snapshot.Snapshot `json:"snapshots"`
		Count     int                 `json:"count"`
	}](t, rec)
	if list.Count != 1 || list.Snapshots[0].ID != snap.ID {
		t.Errorf("list = %+v", list)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/snapshots?limit=-1", "", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad limit status = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/snapshots/"+snap.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get status = %d", rec.Code)
	}
	if got := decode[snapshotResponse](t, rec); got.Text != `{"node_powgen":4.5}` {
		t.Errorf("text = %q", got.Text)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/snapshots/does-not-exist", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot status = %d, want 404", rec.Code)
	}
}

func TestSnapshots_Disabled(t *testing.T) {
	env := testServer(t)
	env.srv.snapshots = nil
	rec := env.do(t, http.MethodGet, "/api/v1/snapshots", "", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestRemoteNodes(t *testing.T) {
	env := testServer(t)

	var powgen float64 = 12
	remote := ns.New()
	if _, err := remote.Register("node_powgen", ns.TypeDouble, ns.UnitPower, ns.At(&powgen)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	data, err := telemetry.Catalogue{Node: "cubesat2", Generated: ns.MJD(time.Now()), Entries: remote.Catalogue()}.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if err := env.srv.mirror.HandleCatalogue(mqtt.Topics{}.Catalogue("cubesat2"), data); err != nil {
		t.Fatalf("HandleCatalogue: %v", err)
	}
	if err := env.srv.mirror.HandleSOH(mqtt.Topics{}.SOH("cubesat2"), []byte(`{"node_powgen":12.5}`)); err != nil {
		t.Fatalf("HandleSOH: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/nodes", "", "")
	nodes := decode[struct {
		Nodes []telemetry.RemoteInfo `json:"nodes"`
	}](t, rec)
	if len(nodes.Nodes) != 1 || nodes.Nodes[0].Node != "cubesat2" {
		t.Fatalf("nodes = %+v", nodes)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/nodes/cubesat2/namespace", "", "")
	if rec.Body.String() != `{"node_powgen":12.5}` {
		t.Errorf("remote namespace = %q", rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/nodes/cubesat7/namespace", "", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown node status = %d, want 404", rec.Code)
	}
}

func TestSystemAndMetrics(t *testing.T) {
	env := testServer(t)

	rec := env.do(t, http.MethodGet, "/api/v1/system", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	m := decode[SystemMetrics](t, rec)
	if m.Namespace.Entries != 5 || m.Database == nil || m.Remote == nil || m.MQTT.Enabled {
		t.Errorf("system = %+v", m)
	}

	env.do(t, http.MethodGet, "/api/v1/health", "", "")
	rec = env.do(t, http.MethodGet, "/metrics", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `route="/api/v1/health"`) {
		t.Error("request counter for /api/v1/health not exported")
	}
}

func TestCORS(t *testing.T) {
	env := testServer(t)
	env.srv.cfg.CORS.AllowedOrigins = []string{"https://ground.example"}
	handler := env.srv.buildRouter()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://ground.example", "https://ground.example"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/namespace", nil)
		req.Header.Set("Origin", tt.origin)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Errorf("preflight status = %d", rec.Code)
		}
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("origin %s: allow = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestWebSocket_RelaysHeartbeats(t *testing.T) {
	env := testServer(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()
	unlisten := env.srv.agent.Listen(env.srv.relayHeartbeat)
	defer unlisten()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second)) //nolint:errcheck // test deadline

	if err := conn.WriteJSON(WSMessage{Type: WSTypeSubscribe, ID: "1", Payload: WSSubscribePayload{Channels: []string{"bogus"}}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var msg WSMessage
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != WSTypeError {
		t.Fatalf("unknown channel reply = %+v, %v", msg, err)
	}

	if err := conn.WriteJSON(WSMessage{Type: WSTypeSubscribe, ID: "2", Payload: WSSubscribePayload{Channels: []string{ChannelSOH}}}); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	if err := conn.ReadJSON(&msg); err != nil || msg.Type != WSTypeResponse || msg.ID != "2" {
		t.Fatalf("subscribe reply = %+v, %v", msg, err)
	}

	if _, err := env.srv.agent.Beat(time.Now()); err != nil {
		t.Fatalf("Beat: %v", err)
	}

	var ev struct {
		Type      string   `json:"type"`
		EventType string   `json:"event_type"`
		Payload   sohEvent `json:"payload"`
	}
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	if ev.Type != WSTypeEvent || ev.EventType != ChannelSOH {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Payload.Node != "cubesat1" || !strings.Contains(ev.Payload.Text, `{"node_powgen":4.5}`) {
		t.Errorf("payload = %+v", ev.Payload)
	}
	if len(ev.Payload.Samples) == 0 {
		t.Error("heartbeat carried no samples")
	}
}
