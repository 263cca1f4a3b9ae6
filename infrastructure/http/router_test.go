package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"heybuddy/domain"
	"heybuddy/mocks"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestRouter_Health(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	orchestrator.EXPECT().Stats().Return(domain.Stats{Rooms: 1, Sessions: 2, Connections: 3})

	router := NewRouter(slog.Default(), orchestrator, http.NotFoundHandler(), RouterOptions{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.JSONEq(`{"status":"ok","rooms":1,"sessions":2,"connections":3}`, rec.Body.String())
}

func TestRouter_Rooms(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)
	createdAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	orchestrator.EXPECT().Rooms().Return([]domain.RoomSummary{
		{RoomID: "room_a", UsersInRoom: 2, Messages: 5, CreatedAt: createdAt},
		{RoomID: "room_b", UsersInRoom: 1, Messages: 0, CreatedAt: createdAt},
	})

	router := NewRouter(slog.Default(), orchestrator, http.NotFoundHandler(), RouterOptions{})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/rooms", nil))

	req.Equal(http.StatusOK, rec.Code)
	var body roomsResponse
	req.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	req.Equal(2, body.TotalRooms)
	req.Equal(3, body.TotalSessions)
	req.Equal("room_a", body.Rooms[0].RoomID)
	req.Equal(5, body.Rooms[0].Messages)
}

func TestRouter_Socket_And_Cors(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	orchestrator := mocks.NewMockIOrchestrator(ctrl)

	socket := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	router := NewRouter(slog.Default(), orchestrator, socket, RouterOptions{
		AllowedOrigins: []string{"http://localhost:3000"},
	})

	r := httptest.NewRequest(http.MethodGet, "/socket", nil)
	r.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)

	req.Equal(http.StatusTeapot, rec.Code)
	req.Equal("http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_Static_Client(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	dir := t.TempDir()
	req.NoError(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>hey</h1>"), 0o644))

	router := NewRouter(slog.Default(), mocks.NewMockIOrchestrator(ctrl), http.NotFoundHandler(),
		RouterOptions{StaticDir: dir})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	req.Equal(http.StatusOK, rec.Code)
	req.Contains(rec.Body.String(), "hey")
}
