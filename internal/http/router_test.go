// README: End-to-end HTTP tests against the real router with in-memory stores.
package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ecohttp "ecoride/internal/http"
	"ecoride/internal/modules/matching"
	"ecoride/internal/modules/pricing"
	"ecoride/internal/modules/ride"
	"ecoride/internal/modules/tracking"
)

func buildTestRouter(t *testing.T) http.Handler {
	t.Helper()
	store := ride.NewMemoryStore()
	priceSvc := pricing.NewService(nil)
	pool := matching.NewMemoryPool()
	rideSvc := ride.NewService(store, priceSvc, ride.Options{
		Drivers:    pool,
		MatchDelay: time.Hour, // keep rides in searching for the duration of a test
	})
	tracker := tracking.NewService(store, tracking.Options{})
	return ecohttp.NewRouter(ecohttp.RouterDeps{
		Rides:   rideSvc,
		Pricing: priceSvc,
		Drivers: pool,
		Tracker: tracker,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func bookRide(t *testing.T, h http.Handler) map[string]any {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/rides", map[string]any{
		"user_id":       "u1",
		"pickup":        map[string]float64{"lat": 48.8566, "lng": 2.3522},
		"dropoff":       map[string]float64{"lat": 48.8666, "lng": 2.3522},
		"vehicle_class": "electric",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("book: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	return resp
}

func TestBookAndGetRide(t *testing.T) {
	h := buildTestRouter(t)
	booked := bookRide(t, h)

	if booked["status"] != "searching" {
		t.Errorf("booked status = %v, want searching", booked["status"])
	}
	if booked["price"] != 4.48 {
		t.Errorf("price = %v, want 4.48", booked["price"])
	}
	if booked["carbon_grams"] != float64(26) {
		t.Errorf("carbon_grams = %v, want 26", booked["carbon_grams"])
	}

	id, _ := booked["id"].(string)
	if id == "" {
		t.Fatal("booking response missing id")
	}
	w := doRequest(t, h, http.MethodGet, "/api/rides/"+id, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}
}

func TestBookRideRejectsBadCoordinates(t *testing.T) {
	h := buildTestRouter(t)
	w := doRequest(t, h, http.MethodPost, "/api/rides", map[string]any{
		"user_id":       "u1",
		"pickup":        map[string]float64{"lat": 91.0, "lng": 2.3522},
		"dropoff":       map[string]float64{"lat": 48.8666, "lng": 2.3522},
		"vehicle_class": "standard",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetUnknownRide(t *testing.T) {
	h := buildTestRouter(t)
	w := doRequest(t, h, http.MethodGet, "/api/rides/doesnotexist", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestCancelRide(t *testing.T) {
	h := buildTestRouter(t)
	id := bookRide(t, h)["id"].(string)

	w := doRequest(t, h, http.MethodPost, "/api/rides/"+id+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["cancelled"] != true {
		t.Errorf("cancelled = %v, want true", resp["cancelled"])
	}

	// Second cancel is the idempotent no-op path.
	w = doRequest(t, h, http.MethodPost, "/api/rides/"+id+"/cancel", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("second cancel: expected 200, got %d", w.Code)
	}
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp["cancelled"] != false {
		t.Errorf("second cancel changed = %v, want false", resp["cancelled"])
	}
}

func TestAdvanceRejectsIllegalJump(t *testing.T) {
	h := buildTestRouter(t)
	id := bookRide(t, h)["id"].(string)

	w := doRequest(t, h, http.MethodPost, "/api/rides/"+id+"/advance", map[string]any{
		"target": "completed",
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}
}

func TestQuoteEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	w := doRequest(t, h, http.MethodPost, "/api/quotes", map[string]any{
		"pickup":        map[string]float64{"lat": 48.8566, "lng": 2.3522},
		"dropoff":       map[string]float64{"lat": 48.8666, "lng": 2.3522},
		"vehicle_class": "standard",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var quote map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &quote); err != nil {
		t.Fatalf("decode quote: %v", err)
	}
	if quote["price"] != 4.15 {
		t.Errorf("price = %v, want 4.15", quote["price"])
	}
	if quote["distance_km"] != 1.1 {
		t.Errorf("distance_km = %v, want 1.1", quote["distance_km"])
	}
	if quote["duration_minutes"] != float64(7) {
		t.Errorf("duration_minutes = %v, want 7", quote["duration_minutes"])
	}
}

func TestDriverLocationLifecycle(t *testing.T) {
	h := buildTestRouter(t)

	w := doRequest(t, h, http.MethodPut, "/api/drivers/d1/location", map[string]float64{
		"lat": 48.857, "lng": 2.353,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update location: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doRequest(t, h, http.MethodDelete, "/api/drivers/d1/location", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("go offline: expected 200, got %d", w.Code)
	}

	w = doRequest(t, h, http.MethodPut, "/api/drivers/d1/location", map[string]float64{
		"lat": 200, "lng": 2.353,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("invalid location: expected 400, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	h := buildTestRouter(t)
	w := doRequest(t, h, http.MethodGet, "/health", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}
