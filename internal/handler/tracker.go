package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akuzmin/lifetrack/internal/model"
	"github.com/akuzmin/lifetrack/internal/store"
	"github.com/akuzmin/lifetrack/internal/websocket"
)

type TrackerHandler struct {
	trackerStore *store.TrackerStore
	hub          *websocket.Hub
	logger       *slog.Logger
}

func NewTrackerHandler(ts *store.TrackerStore, hub *websocket.Hub, logger *slog.Logger) *TrackerHandler {
	return &TrackerHandler{trackerStore: ts, hub: hub, logger: logger}
}

func (h *TrackerHandler) broadcast(msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(msg)
	}
}

var validTrackerTypes = map[string]bool{
	model.TrackerTypeCounter:     true,
	model.TrackerTypeProgress:    true,
	model.TrackerTypeHabit:       true,
	model.TrackerTypeMeasurement: true,
}

var validEntryStatuses = map[string]bool{
	model.EntryStatusSuccess: true,
	model.EntryStatusFailure: true,
	model.EntryStatusReset:   true,
}

type createTrackerRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	TargetValue *float64 `json:"target_value"`
}

func (h *TrackerHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createTrackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}
	if !validTrackerTypes[req.Type] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "type must be counter, progress, habit, or measurement"})
		return
	}

	tracker, err := h.trackerStore.Create(req.Name, req.Type, req.TargetValue)
	if err != nil {
		h.logger.Error("create tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create tracker"})
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "created", tracker.ID, nil))

	writeJSON(w, http.StatusCreated, tracker)
}

func (h *TrackerHandler) List(w http.ResponseWriter, r *http.Request) {
	trackers, err := h.trackerStore.List()
	if err != nil {
		h.logger.Error("list trackers", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list trackers"})
		return
	}
	if trackers == nil {
		trackers = []model.Tracker{}
	}
	writeJSON(w, http.StatusOK, trackers)
}

type updateTrackerRequest struct {
	Name         string   `json:"name"`
	CurrentValue float64  `json:"current_value"`
	TargetValue  *float64 `json:"target_value"`
}

func (h *TrackerHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracker"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracker not found"})
		return
	}

	var req updateTrackerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	tracker, err := h.trackerStore.Update(id, req.Name, req.CurrentValue, req.TargetValue)
	if err != nil {
		h.logger.Error("update tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update tracker"})
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "updated", id, nil))

	writeJSON(w, http.StatusOK, tracker)
}

func (h *TrackerHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	existing, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracker"})
		return
	}
	if existing == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracker not found"})
		return
	}

	if err := h.trackerStore.Delete(id); err != nil {
		h.logger.Error("delete tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to delete tracker"})
		return
	}

	h.broadcast(websocket.NewMessage("tracker", "deleted", id, nil))

	w.WriteHeader(http.StatusNoContent)
}

type entryRequest struct {
	Date   string   `json:"date"`
	Status string   `json:"status"`
	Value  *float64 `json:"value"`
	Notes  *string  `json:"notes"`
}

// CreateEntry dispatches on the tracker's type: measurement trackers take a
// numeric value and upsert by date, everything else takes a status and
// rejects duplicates for the same day.
func (h *TrackerHandler) CreateEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	tracker, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracker"})
		return
	}
	if tracker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracker not found"})
		return
	}

	var req entryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
		return
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
		return
	}

	if tracker.Type == model.TrackerTypeMeasurement {
		h.createMeasurementEntry(w, tracker, req)
		return
	}
	h.createStatusEntry(w, tracker, req)
}

func (h *TrackerHandler) createStatusEntry(w http.ResponseWriter, tracker *model.Tracker, req entryRequest) {
	if !validEntryStatuses[req.Status] {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be success, failure, or reset"})
		return
	}

	entry, err := h.trackerStore.CreateStatusEntry(tracker.ID, req.Date, req.Status, req.Notes)
	if errors.Is(err, store.ErrDuplicateEntry) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "entry already exists for this date"})
		return
	}
	if err != nil {
		h.logger.Error("create status entry", "error", err, "tracker_id", tracker.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create entry"})
		return
	}

	h.broadcast(websocket.NewMessage("tracker_entry", "created", entry.ID, map[string]any{"tracker_id": tracker.ID}))

	writeJSON(w, http.StatusCreated, entry)
}

func (h *TrackerHandler) createMeasurementEntry(w http.ResponseWriter, tracker *model.Tracker, req entryRequest) {
	if req.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}
	// YYYY-MM-DD compares lexically
	if req.Date > time.Now().Format("2006-01-02") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must not be in the future"})
		return
	}

	entry, created, err := h.trackerStore.UpsertMeasurementEntry(tracker.ID, req.Date, *req.Value, req.Notes)
	if err != nil {
		h.logger.Error("upsert measurement entry", "error", err, "tracker_id", tracker.ID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to save entry"})
		return
	}

	action := "updated"
	status := http.StatusOK
	if created {
		action = "created"
		status = http.StatusCreated
	}

	h.broadcast(websocket.NewMessage("tracker_entry", action, entry.ID, map[string]any{"tracker_id": tracker.ID}))

	writeJSON(w, status, entry)
}

func (h *TrackerHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return
	}

	tracker, err := h.trackerStore.GetByID(id)
	if err != nil {
		h.logger.Error("get tracker", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get tracker"})
		return
	}
	if tracker == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "tracker not found"})
		return
	}

	date := r.URL.Query().Get("date")
	if date != "" {
		if _, err := time.Parse("2006-01-02", date); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	entries, err := h.trackerStore.ListEntries(id, date)
	if err != nil {
		h.logger.Error("list entries", "error", err, "tracker_id", id)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list entries"})
		return
	}
	if entries == nil {
		entries = []model.TrackerEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func parseIDParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("id"), 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
