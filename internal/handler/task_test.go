package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/akuzmin/lifetrack/internal/database"
	"github.com/akuzmin/lifetrack/internal/model"
	"github.com/akuzmin/lifetrack/internal/store"
)

func setupTaskAPI(t *testing.T) *http.ServeMux {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	h := NewTaskHandler(store.NewTaskStore(db), nil, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks", h.List)
	mux.HandleFunc("POST /api/tasks", h.Create)
	mux.HandleFunc("PUT /api/tasks/{id}", h.Update)
	mux.HandleFunc("DELETE /api/tasks/{id}", h.Delete)
	return mux
}

func TestTaskLifecycle(t *testing.T) {
	mux := setupTaskAPI(t)

	rec := doRequest(t, mux, "POST", "/api/tasks", `{"title": "Water plants"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	var task model.Task
	if err := json.Unmarshal(rec.Body.Bytes(), &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.Status != "todo" {
		t.Errorf("default status = %q, want %q", task.Status, "todo")
	}

	path := fmt.Sprintf("/api/tasks/%d", task.ID)
	rec = doRequest(t, mux, "PUT", path, `{"title": "Water plants", "status": "done"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status = %d, want 200", rec.Code)
	}

	rec = doRequest(t, mux, "DELETE", path, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}

	rec = doRequest(t, mux, "DELETE", path, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete again: status = %d, want 404", rec.Code)
	}
}

func TestTaskCreateRequiresTitle(t *testing.T) {
	mux := setupTaskAPI(t)

	rec := doRequest(t, mux, "POST", "/api/tasks", `{"title": "  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}
