package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/go-scan/pkg/camera"
	"github.com/teslashibe/go-scan/pkg/decode"
	"github.com/teslashibe/go-scan/pkg/history"
	"github.com/teslashibe/go-scan/pkg/scanner"
)

type fakePipeline struct {
	mu      sync.Mutex
	state   scanner.State
	resumes int
}

func (p *fakePipeline) State() scanner.State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *fakePipeline) FrameRequests() int64 { return 7 }

func (p *fakePipeline) Stats() decode.Stats {
	return decode.Stats{Attempts: 7, Successes: 1, Failures: 6}
}

func (p *fakePipeline) Resume() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != scanner.StateReady {
		return false
	}
	p.resumes++
	p.state = scanner.StateDecoding
	return true
}

type fakeGeometry struct{}

func (fakeGeometry) Profile() camera.DisplayProfile {
	return camera.DisplayProfile{
		Screen:      camera.Resolution{Width: 1080, Height: 1920},
		Camera:      camera.Resolution{Width: 1920, Height: 1080},
		CameraKnown: true,
	}
}

func (fakeGeometry) CaptureRegion() (camera.Rect, bool) {
	return camera.Rect{Left: 270, Top: 480, Right: 810, Bottom: 1440}, true
}

func (fakeGeometry) CaptureRegionInPreview() (camera.Rect, bool) {
	return camera.Rect{Left: 270, Top: 480, Right: 810, Bottom: 1440}, true
}

func testScan(id, text string) scanner.Scan {
	return scanner.Scan{
		ID: id,
		Result: decode.Result{
			Text:      text,
			Format:    decode.FormatQRCode,
			DecodedAt: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
		},
	}
}

func newTestServer(t *testing.T, port string) (*Server, *fakePipeline, *history.JSONStore) {
	t.Helper()

	store, err := history.NewJSONStore(filepath.Join(t.TempDir(), "history.json"))
	if err != nil {
		t.Fatal(err)
	}
	s := NewServer(port, Options{
		Geometry: fakeGeometry{},
		Manager:  camera.NewManager(),
		History:  store,
		Points:   &decode.PointList{},
	})
	p := &fakePipeline{}
	s.SetPipeline(p)
	return s, p, store
}

func getJSON(t *testing.T, s *Server, method, path, body string, v interface{}) int {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if v != nil {
		data, _ := io.ReadAll(resp.Body)
		if err := json.Unmarshal(data, v); err != nil {
			t.Fatalf("%s %s: bad JSON %q: %v", method, path, data, err)
		}
	}
	return resp.StatusCode
}

func TestStatus(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	var st map[string]interface{}
	if code := getJSON(t, s, "GET", "/api/status", "", &st); code != 200 {
		t.Fatalf("status code = %d", code)
	}
	if st["state"] != "ready" {
		t.Errorf("state = %v", st["state"])
	}
	if st["frame_requests"] != float64(7) {
		t.Errorf("frame_requests = %v", st["frame_requests"])
	}
	region, ok := st["region"].(map[string]interface{})
	if !ok || region["left"] != float64(270) {
		t.Errorf("region = %v", st["region"])
	}
}

func TestStatusWithoutPipeline(t *testing.T) {
	s := NewServer("0", Options{})

	var st map[string]interface{}
	getJSON(t, s, "GET", "/api/status", "", &st)
	if st["state"] != "ready" {
		t.Errorf("state = %v", st["state"])
	}
	if _, ok := st["region"]; ok {
		t.Error("region should be omitted without geometry")
	}
}

func TestResults(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	s.HandleResult(testScan("a", "first"))
	s.HandleResult(testScan("b", "second"))

	var got []scanner.Scan
	getJSON(t, s, "GET", "/api/results", "", &got)
	if len(got) != 2 || got[1].Result.Text != "second" {
		t.Errorf("results = %+v", got)
	}
}

func TestResultsCapped(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	for i := 0; i < maxRecent+5; i++ {
		s.HandleResult(testScan("", "x"))
	}

	var got []scanner.Scan
	getJSON(t, s, "GET", "/api/results", "", &got)
	if len(got) != maxRecent {
		t.Errorf("kept %d results, want %d", len(got), maxRecent)
	}
}

func TestSnapshot(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	if code := getJSON(t, s, "GET", "/api/snapshot", "", nil); code != 404 {
		t.Errorf("empty snapshot code = %d, want 404", code)
	}

	scan := testScan("a", "hello")
	scan.Snapshot = &decode.Snapshot{JPEG: []byte{0xff, 0xd8, 0xff, 0xd9}, Width: 2, Height: 2}
	s.HandleResult(scan)

	resp, err := s.App().Test(httptest.NewRequest("GET", "/api/snapshot", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("content type = %q", ct)
	}
	data, _ := io.ReadAll(resp.Body)
	if len(data) != 4 {
		t.Errorf("snapshot length = %d", len(data))
	}
}

func TestPointsDrain(t *testing.T) {
	s, _, _ := newTestServer(t, "0")
	s.opts.Points.Add(decode.Point{X: 1, Y: 2})

	var got []decode.Point
	getJSON(t, s, "GET", "/api/points", "", &got)
	if len(got) != 1 || got[0].X != 1 {
		t.Errorf("points = %v", got)
	}

	getJSON(t, s, "GET", "/api/points", "", &got)
	if len(got) != 0 {
		t.Errorf("points not drained: %v", got)
	}
}

func TestResume(t *testing.T) {
	s, p, _ := newTestServer(t, "0")

	var reply map[string]interface{}
	getJSON(t, s, "POST", "/api/resume", "", &reply)
	if reply["resumed"] != true || reply["state"] != "decoding" {
		t.Errorf("first resume = %v", reply)
	}

	getJSON(t, s, "POST", "/api/resume", "", &reply)
	if reply["resumed"] != false {
		t.Errorf("resume while decoding = %v", reply)
	}
	if p.resumes != 1 {
		t.Errorf("resumes = %d", p.resumes)
	}
}

func TestResumeWithoutPipeline(t *testing.T) {
	s := NewServer("0", Options{})
	if code := getJSON(t, s, "POST", "/api/resume", "", nil); code != 503 {
		t.Errorf("code = %d, want 503", code)
	}
}

func TestPipelineFailed(t *testing.T) {
	s, p, _ := newTestServer(t, "0")
	s.PipelineFailed(errors.New("camera 0 unavailable"))

	var st map[string]interface{}
	getJSON(t, s, "GET", "/api/status", "", &st)
	if st["error"] != "camera 0 unavailable" {
		t.Errorf("error = %v", st["error"])
	}
	if st["frame_requests"] != float64(0) {
		t.Errorf("frame_requests = %v, want the detached pipeline gone", st["frame_requests"])
	}

	var body map[string]string
	if code := getJSON(t, s, "POST", "/api/resume", "", &body); code != 503 {
		t.Errorf("resume code = %d, want 503", code)
	}
	if !strings.Contains(body["error"], "camera 0 unavailable") {
		t.Errorf("resume error = %q", body["error"])
	}
	if p.resumes != 0 {
		t.Errorf("detached pipeline resumed %d times", p.resumes)
	}

	// A new session clears the error
	s.SetPipeline(p)
	st = nil
	getJSON(t, s, "GET", "/api/status", "", &st)
	if _, ok := st["error"]; ok {
		t.Errorf("error still reported: %v", st["error"])
	}
}

func TestCameraConfig(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	tests := []struct {
		name string
		body string
		code int
	}{
		{"framerate", `{"framerate": 15}`, 200},
		{"preset", `{"preset": "tablet"}`, 200},
		{"unknown preset", `{"preset": "nope"}`, 400},
		{"invalid value", `{"orientation": 45}`, 400},
		{"bad json", `{`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code := getJSON(t, s, "POST", "/api/camera", tt.body, nil); code != tt.code {
				t.Errorf("code = %d, want %d", code, tt.code)
			}
		})
	}

	var presets map[string][]string
	getJSON(t, s, "GET", "/api/presets", "", &presets)
	if len(presets["presets"]) != len(camera.PresetNames()) {
		t.Errorf("presets = %v", presets)
	}
}

func TestHistory(t *testing.T) {
	s, _, store := newTestServer(t, "0")
	store.HandleResult(testScan("one", "https://go.dev"))
	store.HandleResult(testScan("two", "4006381333931"))

	var all struct {
		Records []history.Record `json:"records"`
		Count   int              `json:"count"`
	}
	getJSON(t, s, "GET", "/api/history", "", &all)
	if all.Count != 2 || len(all.Records) != 2 {
		t.Fatalf("history = %+v", all)
	}

	getJSON(t, s, "GET", "/api/history?q=go.dev", "", &all)
	if len(all.Records) != 1 || all.Records[0].ID != "one" {
		t.Errorf("search = %+v", all.Records)
	}

	if code := getJSON(t, s, "DELETE", "/api/history/one", "", nil); code != 204 {
		t.Errorf("delete code = %d", code)
	}
	if code := getJSON(t, s, "DELETE", "/api/history/one", "", nil); code != 404 {
		t.Errorf("second delete code = %d", code)
	}
	if store.Count() != 1 {
		t.Errorf("count = %d", store.Count())
	}
}

func TestDashboardPage(t *testing.T) {
	s, _, _ := newTestServer(t, "0")

	resp, err := s.App().Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != 200 || !strings.Contains(string(data), "go-scan") {
		t.Errorf("dashboard code = %d", resp.StatusCode)
	}
}

func TestWebSocketRequiresUpgrade(t *testing.T) {
	s, _, _ := newTestServer(t, "0")
	if code := getJSON(t, s, "GET", "/ws/status", "", nil); code != 426 {
		t.Errorf("code = %d, want 426", code)
	}
}

// waitClients polls until the hub reports n clients.
func waitClients(t *testing.T, count func() int, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", count(), n)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestResultsWebSocket(t *testing.T) {
	s, _, _ := newTestServer(t, "18090")
	s.StartAsync()
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	s.HandleResult(testScan("early", "backlog"))

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws/results", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var env struct {
		Kind string       `json:"kind"`
		Data scanner.Scan `json:"data"`
	}
	if err := ws.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	if env.Kind != "scan" || env.Data.ID != "early" {
		t.Errorf("backlog envelope = %+v", env)
	}

	waitClients(t, s.resultsHub.ClientCount, 1)
	s.HandleResult(testScan("live", "broadcast"))

	if err := ws.ReadJSON(&env); err != nil {
		t.Fatal(err)
	}
	if env.Data.Result.Text != "broadcast" {
		t.Errorf("live envelope = %+v", env)
	}
}

func TestStatusWebSocket(t *testing.T) {
	s, _, _ := newTestServer(t, "18091")
	s.StartAsync()
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws/status", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	var st map[string]interface{}
	if err := ws.ReadJSON(&st); err != nil {
		t.Fatal(err)
	}
	if st["state"] != "ready" {
		t.Errorf("initial state = %v", st["state"])
	}

	waitClients(t, s.statusHub.ClientCount, 1)
	s.Redraw(scanner.StateTerminated)

	if err := ws.ReadJSON(&st); err != nil {
		t.Fatal(err)
	}
	if st["state"] != "terminated" {
		t.Errorf("redrawn state = %v", st["state"])
	}
}

func TestControlWebSocket(t *testing.T) {
	s, _, _ := newTestServer(t, "18092")
	s.StartAsync()
	defer s.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18092/ws/control", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))

	tests := []struct {
		action string
		ok     bool
		state  string
	}{
		{ActionStatus, true, "ready"},
		{ActionResume, true, "decoding"},
		{ActionResume, false, "decoding"},
		{"dance", false, "decoding"},
	}
	for _, tt := range tests {
		if err := ws.WriteJSON(ControlRequest{Action: tt.action}); err != nil {
			t.Fatal(err)
		}
		var reply map[string]interface{}
		if err := ws.ReadJSON(&reply); err != nil {
			t.Fatal(err)
		}
		if reply["ok"] != tt.ok || reply["state"] != tt.state {
			t.Errorf("%s: reply = %v", tt.action, reply)
		}
	}
}
