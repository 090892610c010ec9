package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/MeetingRoom/internal/app"
	"github.com/dkeye/MeetingRoom/internal/app/orch"
	"github.com/dkeye/MeetingRoom/internal/config"
	"github.com/dkeye/MeetingRoom/internal/core"
	"github.com/dkeye/MeetingRoom/internal/domain"
	"github.com/dkeye/MeetingRoom/internal/meeting"
	"github.com/gin-gonic/gin"
	"github.com/spf13/afero"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router http.Handler
	orch   *orch.Orchestrator
	fs     afero.Fs
}

func newTestServer(t *testing.T, fs afero.Fs) *testServer {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	o := orch.New(app.NewRegistry(), app.NewRoomManager(ctx, 16), app.NewStrikePolicy(1), orch.Settings{
		Meeting:   meeting.Config{IncludeSelf: true, Location: time.UTC},
		ReportFS:  fs,
		ReportDir: "/reports",
	})
	cfg := &config.Config{Mode: "test", Secret: "test-secret", StaticPath: t.TempDir()}
	return &testServer{router: SetupRouter(ctx, cfg, o), orch: o, fs: fs}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) createRoom(t *testing.T, body string) domain.RoomID {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/rooms", body)
	if w.Code != http.StatusCreated {
		t.Fatalf("create room status = %d body = %s", w.Code, w.Body)
	}
	var resp struct {
		ID domain.RoomID `json:"id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	return resp.ID
}

func (s *testServer) join(t *testing.T, sid core.SessionID, id domain.RoomID) {
	t.Helper()
	user, _ := s.orch.Registry.GetOrCreateUser(sid)
	s.orch.Registry.BindSignal(sid, core.NewMemberSession(domain.NewMember(user)), nil)
	if err := s.orch.Join(sid, id); err != nil {
		t.Fatalf("Join(%s): %v", sid, err)
	}
}

func (s *testServer) waitRecords(t *testing.T, id domain.RoomID, n int) {
	t.Helper()
	ctrl, ok := s.orch.Meeting(id)
	if !ok {
		t.Fatal("meeting not found")
	}
	deadline := time.Now().Add(time.Second)
	for ctrl.View().Records != n {
		if time.Now().After(deadline) {
			t.Fatalf("records = %d, want %d", ctrl.View().Records, n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestRooms_CreateValidation(t *testing.T) {
	s := newTestServer(t, afero.NewMemMapFs())

	if w := s.do(t, http.MethodPost, "/api/rooms", `{"name":""}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty name status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, "/api/rooms", `{"name":"`+strings.Repeat("x", 37)+`"}`); w.Code != http.StatusBadRequest {
		t.Errorf("long name status = %d", w.Code)
	}

	s.createRoom(t, `{"name":"standup","personal":true}`)
	w := s.do(t, http.MethodGet, "/api/rooms", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"standup"`) {
		t.Errorf("list = %d %s", w.Code, w.Body)
	}
}

func TestRooms_ViewAndControls(t *testing.T) {
	s := newTestServer(t, afero.NewMemMapFs())
	id := s.createRoom(t, `{"name":"standup","personal":true}`)
	base := "/api/rooms/" + string(id)

	w := s.do(t, http.MethodGet, base, "")
	if w.Code != http.StatusOK {
		t.Fatalf("view status = %d", w.Code)
	}
	var view struct {
		View meeting.View `json:"view"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.View.Layout != "speaker-left" || !view.View.Personal || view.View.ShowEndCall {
		t.Errorf("view = %+v", view.View)
	}

	if w := s.do(t, http.MethodPut, base+"/layout", `{"layout":"Grid"}`); w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"grid"`) {
		t.Errorf("set layout = %d %s", w.Code, w.Body)
	}
	if w := s.do(t, http.MethodPut, base+"/layout", `{"layout":"mosaic"}`); w.Code != http.StatusBadRequest {
		t.Errorf("invalid layout status = %d", w.Code)
	}
	if w := s.do(t, http.MethodPost, base+"/participants/toggle", ""); !strings.Contains(w.Body.String(), `"participants_visible":true`) {
		t.Errorf("toggle = %s", w.Body)
	}

	if w := s.do(t, http.MethodGet, "/api/rooms/unknown", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown room status = %d", w.Code)
	}
}

func TestRooms_ReportDownload(t *testing.T) {
	s := newTestServer(t, afero.NewMemMapFs())
	id := s.createRoom(t, `{"name":"standup"}`)
	path := "/api/rooms/" + string(id) + "/report"

	w := s.do(t, http.MethodGet, path, "")
	if w.Code != http.StatusNoContent || w.Header().Get(ReportStatusHeader) != "empty" {
		t.Fatalf("empty report = %d %q", w.Code, w.Header().Get(ReportStatusHeader))
	}

	s.join(t, "doe, jane", id)
	s.join(t, "bob", id)
	s.orch.KickBySID("bob")
	s.waitRecords(t, id, 2)

	w = s.do(t, http.MethodGet, path, "")
	if w.Code != http.StatusOK {
		t.Fatalf("download status = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "meeting_report.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	rows, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 || rows[1][0] != "doe, jane" || rows[2][0] != "bob" {
		t.Errorf("rows = %q", rows)
	}
}

func TestRooms_ReportArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := newTestServer(t, fs)
	id := s.createRoom(t, `{"name":"standup"}`)
	s.join(t, "alice", id)
	s.waitRecords(t, id, 1)

	w := s.do(t, http.MethodPost, "/api/rooms/"+string(id)+"/report", "")
	if w.Code != http.StatusOK {
		t.Fatalf("archive status = %d body = %s", w.Code, w.Body)
	}
	if ok, _ := afero.Exists(fs, "/reports/"+string(id)+"/meeting_report.csv"); !ok {
		t.Error("archived report not found")
	}
}

func TestRooms_ReportArchiveFailure(t *testing.T) {
	s := newTestServer(t, afero.NewReadOnlyFs(afero.NewMemMapFs()))
	id := s.createRoom(t, `{"name":"standup"}`)
	s.join(t, "alice", id)
	s.waitRecords(t, id, 1)

	w := s.do(t, http.MethodPost, "/api/rooms/"+string(id)+"/report", "")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("archive status = %d, want 500", w.Code)
	}
	s.waitRecords(t, id, 1)

	if w := s.do(t, http.MethodGet, "/api/rooms/"+string(id)+"/report", ""); w.Code != http.StatusOK {
		t.Errorf("download after failed archive = %d", w.Code)
	}
}

func TestRooms_Leave(t *testing.T) {
	s := newTestServer(t, afero.NewMemMapFs())
	id := s.createRoom(t, `{"name":"standup"}`)
	base := "/api/rooms/" + string(id)

	w := s.do(t, http.MethodPost, base+"/leave", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"redirect":"/"`) {
		t.Fatalf("leave = %d %s", w.Code, w.Body)
	}
	if w := s.do(t, http.MethodGet, base, ""); w.Code != http.StatusNotFound {
		t.Errorf("view after leave = %d", w.Code)
	}
}

func TestClientTokenMiddleware_SetsCookie(t *testing.T) {
	s := newTestServer(t, afero.NewMemMapFs())
	w := s.do(t, http.MethodGet, "/api/rooms", "")
	if !strings.Contains(w.Header().Get("Set-Cookie"), "MeetingSessions=") {
		t.Errorf("Set-Cookie = %q", w.Header().Get("Set-Cookie"))
	}
}
