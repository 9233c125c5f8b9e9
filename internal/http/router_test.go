package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httptransport "adile/internal/http"
	"adile/internal/logging"
	"adile/internal/maps"
	"adile/internal/modules/account"
	"adile/internal/modules/appstatus"
	"adile/internal/modules/dispatch"
	"adile/internal/modules/ledger"
	"adile/internal/modules/location"
	"adile/internal/modules/matching"
	"adile/internal/modules/pricing"
	"adile/internal/modules/ride"
)

const adminKey = "s3cret"

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logging.Discard()

	accounts := account.NewService(account.NewMemoryStore(), log)
	pricingSvc := pricing.NewService()
	dispatchSvc := dispatch.NewService(dispatch.Deps{
		Ledger:  ledger.NewMemoryLedger(),
		Pricing: pricingSvc,
		Log:     log,
	})
	locationSvc := location.NewService(location.NewMemoryStore(), location.DefaultMaxAge, log)

	srv := httptransport.NewServer(httptransport.ServerDeps{
		Accounts:  accounts,
		Dispatch:  dispatchSvc,
		Matching:  matching.NewService(dispatchSvc, locationSvc, matching.DefaultRadiusKm),
		Location:  locationSvc,
		Pricing:   pricingSvc,
		Places:    maps.NewSearcher(nil, maps.SearcherConfig{}, log),
		AppStatus: appstatus.NewService(appstatus.NewMemoryStore(), log),
		AdminKey:  adminKey,
		Log:       log,
	})
	return srv.Routes()
}

type call struct {
	method  string
	path    string
	body    any
	account string
	headers map[string]string
}

func do(t *testing.T, r http.Handler, c call) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.account != "" {
		req.Header.Set("X-Account-ID", c.account)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func signup(t *testing.T, r http.Handler, body map[string]any) account.Account {
	t.Helper()
	w := do(t, r, call{method: http.MethodPost, path: "/api/accounts/signup", body: body})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[account.Account](t, w)
}

func signupPassenger(t *testing.T, r http.Handler, email string) account.Account {
	return signup(t, r, map[string]any{
		"email": email, "display_name": "Salma", "role": "passenger", "phone": "06 12 34 56 78",
	})
}

func signupDriver(t *testing.T, r http.Handler, email string) account.Account {
	return signup(t, r, map[string]any{
		"email": email, "display_name": "Youssef", "role": "driver", "phone": "+212612345678",
		"vehicle": map[string]any{"class": "car", "description": "Dacia Logan", "plate": "12345-A-6"},
	})
}

var rideBody = map[string]any{
	"pickup":  map[string]any{"address": "Boulevard Zerktouni", "lat": 33.59, "lng": -7.62},
	"dropoff": map[string]any{"address": "Hassan II Mosque", "lat": 33.6085, "lng": -7.6327},
	"vehicle": "car",
}

func TestRideFlowOverHTTP(t *testing.T) {
	r := newTestServer(t)
	p := signupPassenger(t, r, "salma@example.ma")
	d := signupDriver(t, r, "youssef@example.ma")
	assert.Equal(t, account.DefaultRating, d.Rating)

	w := do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(p.ID)})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[ride.Ride](t, w)
	assert.Equal(t, ride.StatusPending, created.Status)
	assert.Equal(t, int64(12), created.OfferedPrice.Amount)
	id := string(created.ID)

	w = do(t, r, call{method: http.MethodPut, path: "/api/driver/location", body: map[string]any{"lat": 33.58, "lng": -7.61}, account: string(d.ID)})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, call{method: http.MethodGet, path: "/api/driver/rides/open", account: string(d.ID)})
	require.Equal(t, http.StatusOK, w.Code)
	open := decode[struct {
		RadiusKm float64              `json:"radius_km"`
		Rides    []matching.Candidate `json:"rides"`
	}](t, w)
	assert.Equal(t, matching.DefaultRadiusKm, open.RadiusKm)
	require.Len(t, open.Rides, 1)
	require.NotNil(t, open.Rides[0].DistanceKm)
	assert.Less(t, *open.Rides[0].DistanceKm, 2.0)

	for _, step := range []struct {
		path string
		want ride.Status
	}{
		{"/api/driver/rides/" + id + "/accept", ride.StatusAccepted},
		{"/api/driver/rides/" + id + "/advance", ride.StatusEnRoute},
		{"/api/driver/rides/" + id + "/advance", ride.StatusCompleted},
	} {
		w = do(t, r, call{method: http.MethodPost, path: step.path, account: string(d.ID)})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, step.want, decode[ride.Ride](t, w).Status)
	}

	for _, who := range []account.Account{p, d} {
		w = do(t, r, call{method: http.MethodGet, path: "/api/rides/history", account: string(who.ID)})
		require.Equal(t, http.StatusOK, w.Code)
		history := decode[struct {
			Rides []ride.Ride `json:"rides"`
		}](t, w)
		require.Len(t, history.Rides, 1)
		assert.Equal(t, created.ID, history.Rides[0].ID)

		w = do(t, r, call{method: http.MethodGet, path: "/api/rides/active", account: string(who.ID)})
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ride":null}`, w.Body.String())
	}

	w = do(t, r, call{method: http.MethodGet, path: "/api/driver/rides/open", account: string(d.ID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"rides":[]`)
}

func TestRideErrorsOverHTTP(t *testing.T) {
	r := newTestServer(t)
	p := signupPassenger(t, r, "salma@example.ma")
	d := signupDriver(t, r, "youssef@example.ma")
	d2 := signupDriver(t, r, "omar@example.ma")
	stranger := signupPassenger(t, r, "hind@example.ma")

	w := do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(d.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodGet, path: "/api/driver/rides/open", account: string(p.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	bad := map[string]any{"pickup": rideBody["pickup"], "dropoff": rideBody["pickup"], "vehicle": "car"}
	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: bad, account: string(p.ID)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: map[string]any{"pickup": rideBody["pickup"], "dropoff": rideBody["dropoff"], "vehicle": "rocket"}, account: string(p.ID)})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(p.ID)})
	require.Equal(t, http.StatusCreated, w.Code)
	id := string(decode[ride.Ride](t, w).ID)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(p.ID)})
	assert.Equal(t, http.StatusConflict, w.Code, "second active ride")

	w = do(t, r, call{method: http.MethodGet, path: "/api/rides/" + id, account: string(stranger.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodGet, path: "/api/rides/nope", account: string(p.ID)})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/driver/rides/" + id + "/accept", account: string(d.ID)})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/driver/rides/" + id + "/accept", account: string(d2.ID)})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/driver/rides/" + id + "/advance", account: string(d2.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides/" + id + "/cancel", account: string(stranger.ID)})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides/" + id + "/cancel", account: string(p.ID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, ride.StatusCancelled, decode[ride.Ride](t, w).Status)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides/" + id + "/cancel", account: string(p.ID)})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestAccountsOverHTTP(t *testing.T) {
	r := newTestServer(t)
	p := signupPassenger(t, r, "Salma@Example.ma")
	assert.Equal(t, "salma@example.ma", p.Email)
	assert.Equal(t, "0612345678", p.Phone)

	w := do(t, r, call{method: http.MethodPost, path: "/api/accounts/signup", body: map[string]any{
		"email": "salma@example.ma", "display_name": "Other", "role": "passenger", "phone": "0612345678",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/accounts/signup", body: map[string]any{
		"email": "bad@example.ma", "display_name": "Bad", "role": "passenger", "phone": "0812345678",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/accounts/login", body: map[string]any{"email": "SALMA@example.ma"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, p.ID, decode[account.Account](t, w).ID)

	w = do(t, r, call{method: http.MethodPost, path: "/api/accounts/login", body: map[string]any{"email": "nobody@example.ma"}})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, call{method: http.MethodGet, path: "/api/accounts/me", account: string(p.ID)})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, p.ID, decode[account.Account](t, w).ID)

	w = do(t, r, call{method: http.MethodPost, path: "/api/accounts/logout"})
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestPlacesAndQuotes(t *testing.T) {
	r := newTestServer(t)

	w := do(t, r, call{method: http.MethodGet, path: "/api/places/search?q=maar"})
	require.Equal(t, http.StatusOK, w.Code)
	places := decode[struct {
		Places []maps.Place `json:"places"`
	}](t, w)
	require.Len(t, places.Places, 2)
	assert.Equal(t, "Maarif", places.Places[0].Name)

	w = do(t, r, call{method: http.MethodGet, path: "/api/places/search?q=ma"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"places":[]}`, w.Body.String())

	w = do(t, r, call{method: http.MethodPost, path: "/api/quotes", body: map[string]any{
		"pickup":  map[string]any{"lat": 33.59, "lng": -7.62},
		"dropoff": map[string]any{"lat": 33.6085, "lng": -7.6327},
	}})
	require.Equal(t, http.StatusOK, w.Code)
	quotes := decode[struct {
		Quotes []pricing.Quote `json:"quotes"`
	}](t, w)
	require.Len(t, quotes.Quotes, 3)
	assert.Equal(t, pricing.VehicleCar, quotes.Quotes[0].Vehicle)
	assert.Equal(t, int64(12), quotes.Quotes[0].Price.Amount)
	assert.InDelta(t, 2.37, quotes.Quotes[0].DistanceKm, 0.01)

	w = do(t, r, call{method: http.MethodPost, path: "/api/quotes", body: map[string]any{
		"pickup": map[string]any{"lat": 33.59, "lng": -7.62}, "dropoff": map[string]any{"lat": 33.6, "lng": -7.63}, "vehicle": "boat",
	}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestKillSwitchOverHTTP(t *testing.T) {
	r := newTestServer(t)
	p := signupPassenger(t, r, "salma@example.ma")

	w := do(t, r, call{method: http.MethodPost, path: "/api/admin/kill", headers: map[string]string{"X-Admin-Key": "wrong"}})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/admin/kill", headers: map[string]string{"X-Admin-Key": adminKey}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[appstatus.Status](t, w).Active)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(p.ID)})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), appstatus.DisabledNotice)

	for _, path := range []string{"/health", "/metrics", "/api/app/status"} {
		w = do(t, r, call{method: http.MethodGet, path: path})
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	w = do(t, r, call{method: http.MethodPost, path: "/api/admin/restore", headers: map[string]string{"X-Admin-Key": adminKey}})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, call{method: http.MethodPost, path: "/api/rides", body: rideBody, account: string(p.ID)})
	assert.Equal(t, http.StatusCreated, w.Code)
}
