package stats

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kshitijgupta505/text-classify/internal/middleware"
	"github.com/kshitijgupta505/text-classify/internal/model/classification"
	statsservice "github.com/kshitijgupta505/text-classify/internal/service/stats"
	"github.com/kshitijgupta505/text-classify/internal/store/memory"
)

func injectUser(userID string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUser(r.Context(), userID)))
		})
	}
}

func setupRouter(userID string) (*chi.Mux, *memory.Store) {
	store := memory.New()
	svc := statsservice.NewService(store)
	handler := New(svc, nil, store, zap.NewNop())

	r := chi.NewRouter()
	r.Use(injectUser(userID))
	handler.RegisterRoutes(r)
	return r, store
}

func TestRecentStatsDefaultWindow(t *testing.T) {
	r, store := setupRouter("user-1")
	store.InsertClassification(context.Background(), classification.Record{
		UserID:     "user-1",
		Type:       classification.TypeSpam,
		Confidence: 0.9,
		Timestamp:  time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodGet, "/classification-stats", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var rows []classification.DailyStat
	if err := json.Unmarshal(resp.Body.Bytes(), &rows); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(rows) != defaultDays {
		t.Fatalf("expected %d rows, got %d", defaultDays, len(rows))
	}
	if rows[len(rows)-1].Spam != 1 {
		t.Fatalf("expected today's row to count the record, got %+v", rows[len(rows)-1])
	}
}

func TestRecentStatsInvalidDays(t *testing.T) {
	r, _ := setupRouter("user-1")

	for _, raw := range []string{"abc", "0", "-3"} {
		req := httptest.NewRequest(http.MethodGet, "/classification-stats?days="+raw, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("days=%s: expected 400, got %d", raw, resp.Code)
		}
	}
}

func TestDistributionEndpoint(t *testing.T) {
	r, store := setupRouter("user-1")
	now := time.Now().UTC()
	store.InsertClassification(context.Background(), classification.Record{
		UserID: "user-1", Type: classification.TypePhishing, Confidence: 0.8, Timestamp: now,
	})

	req := httptest.NewRequest(http.MethodGet, "/classification-stats/distribution", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}

	var dist classification.Distribution
	if err := json.Unmarshal(resp.Body.Bytes(), &dist); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if dist.Total != 1 || dist.Phishing != 1 {
		t.Fatalf("unexpected distribution %+v", dist)
	}
}

func TestDistributionInvalidRange(t *testing.T) {
	r, _ := setupRouter("user-1")

	req := httptest.NewRequest(http.MethodGet, "/classification-stats/distribution?start=abc", nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestDeleteClassification(t *testing.T) {
	r, store := setupRouter("user-1")
	record, _ := store.InsertClassification(context.Background(), classification.Record{
		UserID: "user-1", Type: classification.TypeSpam, Confidence: 0.9, Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodDelete, "/classifications/"+record.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if _, err := store.GetClassification(context.Background(), record.ID); err == nil {
		t.Fatal("expected record to be deleted")
	}
}

func TestDeleteForeignClassification(t *testing.T) {
	r, store := setupRouter("user-1")
	record, _ := store.InsertClassification(context.Background(), classification.Record{
		UserID: "user-2", Type: classification.TypeSpam, Confidence: 0.9, Timestamp: time.Now().UTC(),
	})

	req := httptest.NewRequest(http.MethodDelete, "/classifications/"+record.ID, nil)
	resp := httptest.NewRecorder()

	r.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign record, got %d", resp.Code)
	}
	if _, err := store.GetClassification(context.Background(), record.ID); err != nil {
		t.Fatal("foreign record must survive the delete attempt")
	}
}
