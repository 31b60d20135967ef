package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/akuzmin/lifetrack/internal/database"
	"github.com/akuzmin/lifetrack/internal/model"
	"github.com/akuzmin/lifetrack/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTrackerAPI(t *testing.T) (*http.ServeMux, *store.TrackerStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	trackerStore := store.NewTrackerStore(db)
	h := NewTrackerHandler(trackerStore, nil, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/trackers", h.List)
	mux.HandleFunc("POST /api/trackers", h.Create)
	mux.HandleFunc("PUT /api/trackers/{id}", h.Update)
	mux.HandleFunc("DELETE /api/trackers/{id}", h.Delete)
	mux.HandleFunc("GET /api/trackers/{id}/entries", h.ListEntries)
	mux.HandleFunc("POST /api/trackers/{id}/entries", h.CreateEntry)
	return mux, trackerStore
}

func doRequest(t *testing.T, mux *http.ServeMux, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func TestCreateTrackerValidation(t *testing.T) {
	mux, _ := setupTrackerAPI(t)

	rec := doRequest(t, mux, "POST", "/api/trackers", `{"name": "", "type": "counter"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty name: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, mux, "POST", "/api/trackers", `{"name": "X", "type": "streak"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad type: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, mux, "POST", "/api/trackers", `{"name": "No Smoking", "type": "counter", "target_value": 0}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("valid create: status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var tracker model.Tracker
	if err := json.Unmarshal(rec.Body.Bytes(), &tracker); err != nil {
		t.Fatalf("unmarshal tracker: %v", err)
	}
	if tracker.ID == 0 {
		t.Error("expected generated id in response")
	}
	if tracker.CurrentValue != 0 {
		t.Errorf("current_value = %v, want 0", tracker.CurrentValue)
	}
}

func TestListTrackersEmptyArray(t *testing.T) {
	mux, _ := setupTrackerAPI(t)

	rec := doRequest(t, mux, "GET", "/api/trackers", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestUpdateTrackerNotFound(t *testing.T) {
	mux, _ := setupTrackerAPI(t)

	rec := doRequest(t, mux, "PUT", "/api/trackers/42", `{"name": "X", "current_value": 1}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestDeleteTrackerNotFound(t *testing.T) {
	mux, _ := setupTrackerAPI(t)

	rec := doRequest(t, mux, "DELETE", "/api/trackers/42", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestStatusEntryConflict(t *testing.T) {
	mux, ts := setupTrackerAPI(t)

	tracker, _ := ts.Create("Habit", model.TrackerTypeHabit, floatPtr(21))
	path := fmt.Sprintf("/api/trackers/%d/entries", tracker.ID)

	rec := doRequest(t, mux, "POST", path, `{"date": "2024-01-01", "status": "success"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first entry: status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, "POST", path, `{"date": "2024-01-01", "status": "success"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate entry: status = %d, want 409", rec.Code)
	}

	// No side effect on the tracker
	got, _ := ts.GetByID(tracker.ID)
	if got.CurrentValue != 1 {
		t.Errorf("current_value = %v, want 1", got.CurrentValue)
	}
}

func TestStatusEntryValidation(t *testing.T) {
	mux, ts := setupTrackerAPI(t)

	tracker, _ := ts.Create("Habit", model.TrackerTypeHabit, floatPtr(21))
	path := fmt.Sprintf("/api/trackers/%d/entries", tracker.ID)

	rec := doRequest(t, mux, "POST", path, `{"date": "01/02/2024", "status": "success"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad date: status = %d, want 400", rec.Code)
	}

	rec = doRequest(t, mux, "POST", path, `{"date": "2024-01-01", "status": "skipped"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad status: status = %d, want 400", rec.Code)
	}
}

func TestEntryForMissingTracker(t *testing.T) {
	mux, _ := setupTrackerAPI(t)

	rec := doRequest(t, mux, "POST", "/api/trackers/42/entries", `{"date": "2024-01-01", "status": "success"}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("create: status = %d, want 404", rec.Code)
	}

	rec = doRequest(t, mux, "GET", "/api/trackers/42/entries", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("list: status = %d, want 404", rec.Code)
	}
}

func TestMeasurementEntryUpsert(t *testing.T) {
	mux, ts := setupTrackerAPI(t)

	tracker, _ := ts.Create("Weight", model.TrackerTypeMeasurement, nil)
	path := fmt.Sprintf("/api/trackers/%d/entries", tracker.ID)

	rec := doRequest(t, mux, "POST", path, `{"date": "2024-01-01", "value": 82.5}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first measurement: status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}

	rec = doRequest(t, mux, "POST", path, `{"date": "2024-01-01", "value": 81.9}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("upsert: status = %d, want 200", rec.Code)
	}
	var entry model.TrackerEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entry); err != nil {
		t.Fatalf("unmarshal entry: %v", err)
	}
	if entry.Value != 81.9 {
		t.Errorf("value = %v, want 81.9", entry.Value)
	}

	entries, _ := ts.ListEntries(tracker.ID, "")
	if len(entries) != 1 {
		t.Errorf("expected 1 entry after upsert, got %d", len(entries))
	}
}

func TestMeasurementEntryRejectsFutureDate(t *testing.T) {
	mux, ts := setupTrackerAPI(t)

	tracker, _ := ts.Create("Weight", model.TrackerTypeMeasurement, nil)
	path := fmt.Sprintf("/api/trackers/%d/entries", tracker.ID)

	tomorrow := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	body := fmt.Sprintf(`{"date": %q, "value": 82.5}`, tomorrow)

	rec := doRequest(t, mux, "POST", path, body)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("future date: status = %d, want 400", rec.Code)
	}

	entries, _ := ts.ListEntries(tracker.ID, "")
	if len(entries) != 0 {
		t.Errorf("expected no persisted entries, got %d", len(entries))
	}
}

func TestMeasurementEntryRequiresValue(t *testing.T) {
	mux, ts := setupTrackerAPI(t)

	tracker, _ := ts.Create("Weight", model.TrackerTypeMeasurement, nil)
	path := fmt.Sprintf("/api/trackers/%d/entries", tracker.ID)

	rec := doRequest(t, mux, "POST", path, `{"date": "2024-01-01"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing value: status = %d, want 400", rec.Code)
	}
}

func floatPtr(f float64) *float64 { return &f }
