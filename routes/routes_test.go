package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodbridge/ratelim"
	"foodbridge/store"

	"github.com/julienschmidt/httprouter"
)

type client struct {
	t      *testing.T
	server *httptest.Server
}

func newClient(t *testing.T) *client {
	t.Helper()
	app := NewApp(store.NewMemoryStore(), nil, Options{TokenTTL: time.Hour, ChartDays: 30, MinDeliveredPickups: 3})
	router := httprouter.New()
	RoutesWrapper(router, app, ratelim.NewRateLimiter(1000, 1000))
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &client{t: t, server: srv}
}

// do sends body as JSON and decodes the response into out when non-nil.
func (c *client) do(method, path, token string, body any, out any) int {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			c.t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, c.server.URL+path, &buf)
	if err != nil {
		c.t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			c.t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *client) register(email, role, org string) string {
	c.t.Helper()
	var sess struct {
		Token string `json:"token"`
	}
	status := c.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret1", "role": role, "org_name": org,
	}, &sess)
	if status != http.StatusCreated || sess.Token == "" {
		c.t.Fatalf("register %s: status %d", email, status)
	}
	return sess.Token
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestDonationLifecycleOverHTTP(t *testing.T) {
	c := newClient(t)
	donor := c.register("donor@example.org", "donor", "Corner Bakery")
	ngo := c.register("ngo@example.org", "ngo", "City Shelter")
	rival := c.register("rival@example.org", "ngo", "Night Kitchen")

	var listing struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	status := c.do(http.MethodPost, "/api/listings", donor, map[string]any{
		"food_name":         "Sourdough loaves",
		"category":          "bakery",
		"quantity":          100,
		"expiry_time":       time.Now().UTC().Add(3 * time.Hour).Format("2006-01-02T15:04"),
		"pickup_address":    "12 Market Road",
		"latitude":          28.61,
		"longitude":         77.21,
		"urgent_flag":       true,
		"storage_condition": "room_temp",
	}, &listing)
	if status != http.StatusCreated || listing.Status != "available" {
		t.Fatalf("create listing: %d %+v", status, listing)
	}

	var e errBody
	if status := c.do(http.MethodPost, "/api/listings", ngo, map[string]any{"food_name": "x"}, &e); status != http.StatusForbidden || e.Code != "forbidden" {
		t.Errorf("ngo creating listing: %d %+v", status, e)
	}

	var pickup struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		ListingName string `json:"listing_name"`
		NGOName     string `json:"ngo_name"`
	}
	if status := c.do(http.MethodPost, "/api/pickups", ngo, map[string]string{"listing_id": listing.ID}, &pickup); status != http.StatusCreated {
		t.Fatalf("claim: %d", status)
	}
	if pickup.Status != "pending" || pickup.ListingName != "Sourdough loaves" || pickup.NGOName != "City Shelter" {
		t.Errorf("unexpected pickup %+v", pickup)
	}
	if status := c.do(http.MethodPost, "/api/pickups", rival, map[string]string{"listing_id": listing.ID}, &e); status != http.StatusConflict || e.Code != "conflict" {
		t.Errorf("second claim: %d %+v", status, e)
	}

	if status := c.do(http.MethodPut, "/api/pickups/"+pickup.ID+"/status", rival, map[string]string{"status": "accepted"}, nil); status != http.StatusForbidden {
		t.Errorf("rival advancing: expected 403, got %d", status)
	}
	if status := c.do(http.MethodPost, "/api/pickups/"+pickup.ID+"/redistribution", ngo, map[string]any{"beneficiaries_count": 50}, &e); status != http.StatusUnprocessableEntity || e.Code != "not_delivered" {
		t.Errorf("early redistribution: %d %+v", status, e)
	}
	for _, next := range []string{"accepted", "en_route", "collected", "delivered"} {
		var p struct {
			Status string `json:"status"`
		}
		if status := c.do(http.MethodPut, "/api/pickups/"+pickup.ID+"/status", ngo, map[string]string{"status": next, "notes": "ok"}, &p); status != http.StatusOK || p.Status != next {
			t.Fatalf("advance to %s: %d %+v", next, status, p)
		}
	}
	if status := c.do(http.MethodPut, "/api/pickups/"+pickup.ID+"/status", ngo, map[string]string{}, &e); status != http.StatusUnprocessableEntity || e.Code != "terminal_state" {
		t.Errorf("advance past delivered: %d %+v", status, e)
	}

	if status := c.do(http.MethodGet, "/api/listings/"+listing.ID, donor, nil, &listing); status != http.StatusOK || listing.Status != "delivered" {
		t.Errorf("listing not synced: %d %+v", status, listing)
	}

	var rec struct {
		BeneficiariesCount int     `json:"beneficiaries_count"`
		PortionSize        float64 `json:"portion_size"`
	}
	if status := c.do(http.MethodPost, "/api/pickups/"+pickup.ID+"/redistribution", ngo, map[string]any{"beneficiaries_count": 50, "portion_size": 0.5}, &rec); status != http.StatusCreated {
		t.Fatalf("redistribution: %d", status)
	}
	if status := c.do(http.MethodGet, "/api/pickups/"+pickup.ID+"/redistribution", donor, nil, &rec); status != http.StatusOK || rec.BeneficiariesCount != 50 || rec.PortionSize != 0.5 {
		t.Errorf("read redistribution: %d %+v", status, rec)
	}

	var dash struct {
		KPIs struct {
			CompletedPickups    int     `json:"completed_pickups"`
			MealsServed         int     `json:"meals_served"`
			CO2AvoidedKg        float64 `json:"co2_avoided_kg"`
			BeneficiariesServed int     `json:"beneficiaries_served"`
		} `json:"kpis"`
	}
	if status := c.do(http.MethodGet, "/api/analytics/dashboard", ngo, nil, &dash); status != http.StatusOK {
		t.Fatalf("dashboard: %d", status)
	}
	if dash.KPIs.CompletedPickups != 1 || dash.KPIs.MealsServed != 200 || dash.KPIs.CO2AvoidedKg != 250 || dash.KPIs.BeneficiariesServed != 50 {
		t.Errorf("unexpected ngo KPIs %+v", dash.KPIs)
	}

	var charts struct {
		DonationsOverTime []struct {
			Quantity float64 `json:"quantity"`
		} `json:"donations_over_time"`
		TopDonors []struct {
			DonorName string `json:"donor_name"`
		} `json:"top_donors"`
	}
	if status := c.do(http.MethodGet, "/api/analytics/charts?days=14", donor, nil, &charts); status != http.StatusOK {
		t.Fatalf("charts: %d", status)
	}
	if len(charts.DonationsOverTime) != 14 || charts.DonationsOverTime[13].Quantity != 100 {
		t.Errorf("unexpected series %+v", charts.DonationsOverTime)
	}
	if len(charts.TopDonors) != 1 || charts.TopDonors[0].DonorName != "Corner Bakery" {
		t.Errorf("unexpected top donors %+v", charts.TopDonors)
	}

	var eval struct {
		DataSufficient bool              `json:"data_sufficient"`
		Models         []json.RawMessage `json:"models"`
	}
	if status := c.do(http.MethodGet, "/api/evaluation", donor, nil, &eval); status != http.StatusOK || eval.DataSufficient || len(eval.Models) != 0 {
		t.Errorf("evaluation below threshold: %d %+v", status, eval)
	}
	if status := c.do(http.MethodGet, "/api/evaluation/recommendation", donor, nil, &e); status != http.StatusUnprocessableEntity || e.Code != "insufficient_data" {
		t.Errorf("recommendation below threshold: %d %+v", status, e)
	}

	if status := c.do(http.MethodGet, "/api/admin/users", ngo, nil, nil); status != http.StatusForbidden {
		t.Errorf("ngo on admin route: expected 403, got %d", status)
	}
}

func TestAuthRequired(t *testing.T) {
	c := newClient(t)
	var e errBody
	if status := c.do(http.MethodGet, "/api/listings", "", nil, &e); status != http.StatusUnauthorized || e.Code != "unauthenticated" {
		t.Errorf("expected 401, got %d %+v", status, e)
	}
	if status := c.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "x@y.org", "password": "nope!!"}, &e); status != http.StatusUnauthorized {
		t.Errorf("bad login: expected 401, got %d", status)
	}
}

func TestCreateListingRejectsPastExpiry(t *testing.T) {
	c := newClient(t)
	donor := c.register("d@example.org", "donor", "")
	var e errBody
	status := c.do(http.MethodPost, "/api/listings", donor, map[string]any{
		"food_name":   "Soup",
		"category":    "cooked",
		"quantity":    10,
		"expiry_time": time.Now().UTC().Add(-time.Hour).Format(time.RFC3339),
	}, &e)
	if status != http.StatusBadRequest || e.Code != "validation_error" {
		t.Errorf("expected 400 validation_error, got %d %+v", status, e)
	}
}
