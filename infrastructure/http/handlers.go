package http

import (
	"encoding/json"
	"net/http"
	"time"

	"heybuddy/contract"
	"heybuddy/domain"

	"github.com/samber/lo"
)

type adminHandler struct {
	orchestrator contract.IOrchestrator
}

type healthResponse struct {
	Status      string `json:"status"`
	Rooms       int    `json:"rooms"`
	Sessions    int    `json:"sessions"`
	Connections int    `json:"connections"`
}

type roomResponse struct {
	RoomID      string    `json:"roomId"`
	UsersInRoom int       `json:"usersInRoom"`
	Messages    int       `json:"messages"`
	CreatedAt   time.Time `json:"createdAt"`
}

type roomsResponse struct {
	Rooms         []roomResponse `json:"rooms"`
	TotalRooms    int            `json:"totalRooms"`
	TotalSessions int            `json:"totalSessions"`
}

func (h *adminHandler) Health(w http.ResponseWriter, _ *http.Request) {
	stats := h.orchestrator.Stats()
	respondJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Rooms:       stats.Rooms,
		Sessions:    stats.Sessions,
		Connections: stats.Connections,
	})
}

func (h *adminHandler) Rooms(w http.ResponseWriter, _ *http.Request) {
	rooms := lo.Map(h.orchestrator.Rooms(), func(s domain.RoomSummary, _ int) roomResponse {
		return roomResponse{
			RoomID:      string(s.RoomID),
			UsersInRoom: s.UsersInRoom,
			Messages:    s.Messages,
			CreatedAt:   s.CreatedAt,
		}
	})
	respondJSON(w, http.StatusOK, roomsResponse{
		Rooms:         rooms,
		TotalRooms:    len(rooms),
		TotalSessions: lo.SumBy(rooms, func(r roomResponse) int { return r.UsersInRoom }),
	})
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
