// README: Bench cases: environment, account, place search, ride flow, race, kill switch and load checks.
package main

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "net/url"
    "sync"
    "sync/atomic"
    "time"

    "github.com/jackc/pgx/v5/pgxpool"
    "github.com/redis/go-redis/v9"

    "adile/internal/infra"
    "adile/internal/maps"
)

const (
    StatusPass    = "PASS"
    StatusFail    = "FAIL"
    StatusPending = "PENDING"
    StatusSkip    = "SKIP"
)

type Runner struct {
    cfg   Config
    httpc *http.Client
    db    *pgxpool.Pool
    redis *redis.Client

    // state shared by the flow cases, filled in order
    run       string
    passenger string
    drivers   []string
    rideID    string
}

type Result struct {
    Name    string
    Status  string
    Latency time.Duration
    Note    string
}

type TestCase struct {
    Name string
    Run  func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
    return &Runner{
        cfg:   cfg,
        httpc: &http.Client{Timeout: 10 * time.Second},
        run:   fmt.Sprintf("%d", time.Now().UnixNano()),
    }
}

func (r *Runner) RunAll(ctx context.Context) []Result {
    if r.cfg.DSN != "" {
        if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
            r.db = db
        }
    }
    if r.cfg.RedisAddr != "" {
        r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
    }

    tests := r.cases()
    results := make([]Result, 0, len(tests))

    for _, tc := range tests {
        res := tc.Run(ctx, r)
        res.Name = tc.Name
        results = append(results, res)
        fmt.Printf("%-7s %s", res.Status, tc.Name)
        if res.Latency > 0 {
            fmt.Printf(" (%s)", res.Latency)
        }
        if res.Note != "" {
            fmt.Printf(" - %s", res.Note)
        }
        fmt.Println()
    }

    if r.db != nil {
        r.db.Close()
    }
    if r.redis != nil {
        _ = r.redis.Close()
    }
    return results
}

var (
    pickup  = map[string]any{"address": "Boulevard Zerktouni", "lat": 33.59, "lng": -7.62}
    dropoff = map[string]any{"address": "Hassan II Mosque", "lat": 33.6085, "lng": -7.6327}
)

func (r *Runner) cases() []TestCase {
    return []TestCase{
        {Name: "Env: Postgres connect", Run: checkPostgres},
        {Name: "Env: Redis connect", Run: checkRedis},
        {Name: "Migration: apply (optional)", Run: applyMigrations},
        {Name: "Migration: rides table exists", Run: checkRidesTable},
        {Name: "API: health", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodGet, "/health", "", nil, nil, http.StatusOK)
        }},

        {Name: "Account: passenger signup", Run: signupPassenger},
        {Name: "Account: driver signups", Run: signupDrivers},
        {Name: "Account: invalid phone -> 400", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodPost, "/api/accounts/signup", "", map[string]any{
                "email": "bad-" + r.run + "@bench.ma", "display_name": "Bad", "role": "passenger", "phone": "123",
            }, nil, http.StatusBadRequest)
        }},

        {Name: "Places: debounced typing delivers latest only", Run: debouncedSearch},
        {Name: "Pricing: quote all classes", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodPost, "/api/quotes", "", map[string]any{
                "pickup":  map[string]any{"lat": 33.59, "lng": -7.62},
                "dropoff": map[string]any{"lat": 33.6085, "lng": -7.6327},
            }, nil, http.StatusOK)
        }},

        {Name: "Ride: passenger request", Run: requestRide},
        {Name: "Ride: second active request -> 409", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodPost, "/api/rides", r.passenger, rideBody(), nil, http.StatusConflict)
        }},
        {Name: "Ride: identical pickup and dropoff -> 400", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodPost, "/api/rides", r.passenger, map[string]any{
                "pickup": pickup, "dropoff": pickup, "vehicle": "car",
            }, nil, http.StatusBadRequest)
        }},
        {Name: "Location: driver update", Run: func(ctx context.Context, r *Runner) Result {
            if len(r.drivers) == 0 {
                return Result{Status: StatusSkip, Note: "no drivers"}
            }
            return r.expect(ctx, http.MethodPut, "/api/driver/location", r.drivers[0], map[string]any{"lat": 33.58, "lng": -7.61}, nil, http.StatusOK)
        }},
        {Name: "Location: invalid coords -> 400", Run: func(ctx context.Context, r *Runner) Result {
            if len(r.drivers) == 0 {
                return Result{Status: StatusSkip, Note: "no drivers"}
            }
            return r.expect(ctx, http.MethodPut, "/api/driver/location", r.drivers[0], map[string]any{"lat": 123.0, "lng": 456.0}, nil, http.StatusBadRequest)
        }},
        {Name: "Matching: ride visible to nearby driver", Run: openRidesContain},
        {Name: "Concurrency: many drivers accept one ride", Run: concurrentAccept},
        {Name: "Ride: advance en route", Run: advance},
        {Name: "Ride: advance completed", Run: advance},
        {Name: "Ride: completed cannot be cancelled -> 409", Run: func(ctx context.Context, r *Runner) Result {
            return r.expect(ctx, http.MethodPost, "/api/rides/"+r.rideID+"/cancel", r.passenger, nil, nil, http.StatusConflict)
        }},
        {Name: "Ride: history lists the ride", Run: historyContains},
        {Name: "Cancel: passenger cancels pending ride", Run: cancelPending},

        {Name: "Admin: kill switch round trip", Run: killSwitch},

        {Name: "Perf: location update throughput", Run: func(ctx context.Context, r *Runner) Result {
            if len(r.drivers) == 0 {
                return Result{Status: StatusSkip, Note: "no drivers"}
            }
            return r.perfLoad(ctx, http.MethodPut, "/api/driver/location", r.drivers[0], map[string]any{"lat": 33.58, "lng": -7.61})
        }},
        {Name: "Perf: quote throughput", Run: func(ctx context.Context, r *Runner) Result {
            return r.perfLoad(ctx, http.MethodPost, "/api/quotes", "", map[string]any{
                "pickup":  map[string]any{"lat": 33.59, "lng": -7.62},
                "dropoff": map[string]any{"lat": 33.6085, "lng": -7.6327},
                "vehicle": "car",
            })
        }},
    }
}

func rideBody() map[string]any {
    return map[string]any{"pickup": pickup, "dropoff": dropoff, "vehicle": "car"}
}

func checkPostgres(ctx context.Context, r *Runner) Result {
    if r.db == nil {
        return Result{Status: StatusSkip, Note: "db not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()
    if err := r.db.Ping(ctx); err != nil {
        return Result{Status: StatusFail, Note: err.Error()}
    }
    return Result{Status: StatusPass}
}

func checkRedis(ctx context.Context, r *Runner) Result {
    if r.redis == nil {
        return Result{Status: StatusSkip, Note: "redis not configured"}
    }
    ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
    defer cancel()
    if err := r.redis.Ping(ctx).Err(); err != nil {
        return Result{Status: StatusFail, Note: err.Error()}
    }
    return Result{Status: StatusPass}
}

func applyMigrations(ctx context.Context, r *Runner) Result {
    if !r.cfg.ApplyMigration {
        return Result{Status: StatusSkip, Note: "apply-migration=false"}
    }
    if r.db == nil {
        return Result{Status: StatusFail, Note: "db not configured"}
    }
    if err := infra.ApplyMigrations(ctx, r.db, r.cfg.MigrationsDir); err != nil {
        return Result{Status: StatusFail, Note: err.Error()}
    }
    return Result{Status: StatusPass}
}

func checkRidesTable(ctx context.Context, r *Runner) Result {
    if r.db == nil {
        return Result{Status: StatusSkip, Note: "db not configured"}
    }
    var exists bool
    err := r.db.QueryRow(ctx,
        "SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
        "rides",
    ).Scan(&exists)
    if err != nil {
        return Result{Status: StatusFail, Note: err.Error()}
    }
    if !exists {
        return Result{Status: StatusFail, Note: "missing table: rides"}
    }
    return Result{Status: StatusPass}
}

func signupPassenger(ctx context.Context, r *Runner) Result {
    var acc struct {
        ID string `json:"id"`
    }
    res := r.expect(ctx, http.MethodPost, "/api/accounts/signup", "", map[string]any{
        "email": "passenger-" + r.run + "@bench.ma", "display_name": "Bench Passenger", "role": "passenger", "phone": "0612345678",
    }, &acc, http.StatusCreated)
    r.passenger = acc.ID
    return res
}

func signupDrivers(ctx context.Context, r *Runner) Result {
    start := time.Now()
    for i := 0; i < r.cfg.Concurrency; i++ {
        var acc struct {
            ID string `json:"id"`
        }
        res := r.expect(ctx, http.MethodPost, "/api/accounts/signup", "", map[string]any{
            "email":        fmt.Sprintf("driver-%d-%s@bench.ma", i, r.run),
            "display_name": fmt.Sprintf("Bench Driver %d", i),
            "role":         "driver",
            "phone":        "0712345678",
            "vehicle":      map[string]any{"class": "car", "description": "Dacia Logan", "plate": fmt.Sprintf("%d-A-6", 10000+i)},
        }, &acc, http.StatusCreated)
        if res.Status != StatusPass {
            return res
        }
        r.drivers = append(r.drivers, acc.ID)
    }
    return Result{Status: StatusPass, Latency: time.Since(start), Note: fmt.Sprintf("drivers=%d", len(r.drivers))}
}

// httpSearcher lets the Debouncer drive the live search endpoint.
type httpSearcher struct {
    r     *Runner
    calls atomic.Int32
}

func (h *httpSearcher) Search(ctx context.Context, query string) ([]maps.Place, error) {
    h.calls.Add(1)
    var out struct {
        Places []maps.Place `json:"places"`
    }
    if _, err := h.r.do(ctx, http.MethodGet, "/api/places/search?q="+url.QueryEscape(query), "", nil, &out); err != nil {
        return nil, err
    }
    return out.Places, nil
}

func debouncedSearch(ctx context.Context, r *Runner) Result {
    searcher := &httpSearcher{r: r}
    d := maps.NewDebouncer(ctx, searcher, r.cfg.Debounce)
    defer d.Close()

    start := time.Now()
    for _, prefix := range []string{"h", "ha", "has", "hass", "hassa", "hassan"} {
        d.Submit(prefix)
        time.Sleep(r.cfg.Debounce / 10)
    }
    select {
    case res := <-d.Results():
        if res.Err != nil {
            return Result{Status: StatusFail, Note: res.Err.Error()}
        }
        if res.Query != "hassan" || searcher.calls.Load() != 1 {
            return Result{Status: StatusFail, Note: fmt.Sprintf("query=%q calls=%d", res.Query, searcher.calls.Load())}
        }
        return Result{Status: StatusPass, Latency: time.Since(start), Note: fmt.Sprintf("places=%d", len(res.Places))}
    case <-time.After(5 * r.cfg.Debounce):
        return Result{Status: StatusFail, Note: "no result"}
    }
}

func requestRide(ctx context.Context, r *Runner) Result {
    var ride struct {
        ID           string `json:"id"`
        OfferedPrice struct {
            Amount int64 `json:"amount"`
        } `json:"offered_price"`
    }
    res := r.expect(ctx, http.MethodPost, "/api/rides", r.passenger, rideBody(), &ride, http.StatusCreated)
    r.rideID = ride.ID
    if res.Status == StatusPass {
        res.Note = fmt.Sprintf("fare=%d MAD", ride.OfferedPrice.Amount)
    }
    return res
}

func openRidesContain(ctx context.Context, r *Runner) Result {
    if len(r.drivers) == 0 || r.rideID == "" {
        return Result{Status: StatusSkip, Note: "no drivers or ride"}
    }
    var out struct {
        Rides []struct {
            Ride struct {
                ID string `json:"id"`
            } `json:"ride"`
        } `json:"rides"`
    }
    res := r.expect(ctx, http.MethodGet, "/api/driver/rides/open", r.drivers[0], nil, &out, http.StatusOK)
    if res.Status != StatusPass {
        return res
    }
    for _, c := range out.Rides {
        if c.Ride.ID == r.rideID {
            return res
        }
    }
    return Result{Status: StatusFail, Latency: res.Latency, Note: "ride not listed"}
}

// concurrentAccept races every bench driver for the same ride. Exactly one
// must win; the winner becomes drivers[0] for the following cases.
func concurrentAccept(ctx context.Context, r *Runner) Result {
    if len(r.drivers) == 0 || r.rideID == "" {
        return Result{Status: StatusSkip, Note: "no drivers or ride"}
    }
    var (
        wg       sync.WaitGroup
        mu       sync.Mutex
        winners  []string
        conflict int
        other    []int
    )
    start := make(chan struct{})
    for _, id := range r.drivers {
        wg.Add(1)
        go func(id string) {
            defer wg.Done()
            <-start
            status, err := r.do(ctx, http.MethodPost, "/api/driver/rides/"+r.rideID+"/accept", id, nil, nil)
            mu.Lock()
            defer mu.Unlock()
            switch {
            case err != nil:
                other = append(other, -1)
            case status == http.StatusOK:
                winners = append(winners, id)
            case status == http.StatusConflict:
                conflict++
            default:
                other = append(other, status)
            }
        }(id)
    }
    t0 := time.Now()
    close(start)
    wg.Wait()

    note := fmt.Sprintf("success=%d conflict=%d other=%v", len(winners), conflict, other)
    if len(winners) != 1 || len(other) > 0 {
        return Result{Status: StatusFail, Latency: time.Since(t0), Note: note}
    }
    for i, id := range r.drivers {
        if id == winners[0] {
            r.drivers[0], r.drivers[i] = r.drivers[i], r.drivers[0]
        }
    }
    return Result{Status: StatusPass, Latency: time.Since(t0), Note: note}
}

func advance(ctx context.Context, r *Runner) Result {
    if len(r.drivers) == 0 || r.rideID == "" {
        return Result{Status: StatusSkip, Note: "no drivers or ride"}
    }
    return r.expect(ctx, http.MethodPost, "/api/driver/rides/"+r.rideID+"/advance", r.drivers[0], nil, nil, http.StatusOK)
}

func historyContains(ctx context.Context, r *Runner) Result {
    var out struct {
        Rides []struct {
            ID     string `json:"id"`
            Status string `json:"status"`
        } `json:"rides"`
    }
    res := r.expect(ctx, http.MethodGet, "/api/rides/history", r.passenger, nil, &out, http.StatusOK)
    if res.Status != StatusPass {
        return res
    }
    if len(out.Rides) == 0 || out.Rides[0].ID != r.rideID || out.Rides[0].Status != "completed" {
        return Result{Status: StatusFail, Latency: res.Latency, Note: fmt.Sprintf("history=%v", out.Rides)}
    }
    return res
}

func cancelPending(ctx context.Context, r *Runner) Result {
    var ride struct {
        ID string `json:"id"`
    }
    res := r.expect(ctx, http.MethodPost, "/api/rides", r.passenger, rideBody(), &ride, http.StatusCreated)
    if res.Status != StatusPass {
        return res
    }
    return r.expect(ctx, http.MethodPost, "/api/rides/"+ride.ID+"/cancel", r.passenger, nil, nil, http.StatusOK)
}

func killSwitch(ctx context.Context, r *Runner) Result {
    if r.cfg.AdminKey == "" {
        return Result{Status: StatusSkip, Note: "admin key not set"}
    }
    admin := map[string]string{"X-Admin-Key": r.cfg.AdminKey}
    if status, err := r.doWith(ctx, http.MethodPost, "/api/admin/kill", "", admin, nil, nil); err != nil || status != http.StatusOK {
        return Result{Status: StatusFail, Note: fmt.Sprintf("kill status=%d err=%v", status, err)}
    }
    blocked := r.expect(ctx, http.MethodPost, "/api/quotes", "", map[string]any{
        "pickup": map[string]any{"lat": 33.59, "lng": -7.62}, "dropoff": map[string]any{"lat": 33.6, "lng": -7.63},
    }, nil, http.StatusServiceUnavailable)
    if status, err := r.doWith(ctx, http.MethodPost, "/api/admin/restore", "", admin, nil, nil); err != nil || status != http.StatusOK {
        return Result{Status: StatusFail, Note: fmt.Sprintf("restore status=%d err=%v", status, err)}
    }
    return blocked
}

func (r *Runner) perfLoad(ctx context.Context, method, path, account string, payload any) Result {
    end := time.Now().Add(r.cfg.Duration)
    var count, errCount atomic.Int64
    wg := sync.WaitGroup{}

    for i := 0; i < r.cfg.Concurrency; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for time.Now().Before(end) && ctx.Err() == nil {
                status, err := r.do(ctx, method, path, account, payload, nil)
                if err != nil || status >= 500 {
                    errCount.Add(1)
                    continue
                }
                count.Add(1)
            }
        }()
    }
    wg.Wait()

    if count.Load() == 0 {
        return Result{Status: StatusFail, Note: "no requests completed"}
    }
    rps := float64(count.Load()) / r.cfg.Duration.Seconds()
    return Result{Status: StatusPass, Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount.Load())}
}

// expect runs one request and passes when the status matches. A 404 or 501
// means the route is missing and reports PENDING.
func (r *Runner) expect(ctx context.Context, method, path, account string, body, out any, want int) Result {
    start := time.Now()
    status, err := r.do(ctx, method, path, account, body, out)
    latency := time.Since(start)
    if err != nil {
        return Result{Status: StatusFail, Latency: latency, Note: err.Error()}
    }
    note := fmt.Sprintf("status=%d", status)
    switch {
    case status == want:
        return Result{Status: StatusPass, Latency: latency, Note: note}
    case status == http.StatusNotFound && want != http.StatusNotFound, status == http.StatusNotImplemented:
        return Result{Status: StatusPending, Latency: latency, Note: note}
    default:
        return Result{Status: StatusFail, Latency: latency, Note: note}
    }
}

func (r *Runner) do(ctx context.Context, method, path, account string, body, out any) (int, error) {
    return r.doWith(ctx, method, path, account, nil, body, out)
}

func (r *Runner) doWith(ctx context.Context, method, path, account string, headers map[string]string, body, out any) (int, error) {
    var reader io.Reader
    if body != nil {
        b, err := json.Marshal(body)
        if err != nil {
            return 0, err
        }
        reader = bytes.NewReader(b)
    }
    req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, reader)
    if err != nil {
        return 0, err
    }
    req.Header.Set("Content-Type", "application/json")
    if account != "" {
        req.Header.Set("X-Account-ID", account)
    }
    for k, v := range headers {
        req.Header.Set(k, v)
    }
    resp, err := r.httpc.Do(req)
    if err != nil {
        return 0, err
    }
    defer resp.Body.Close()
    if out != nil && resp.StatusCode < 300 {
        if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
            return resp.StatusCode, err
        }
        return resp.StatusCode, nil
    }
    _, _ = io.Copy(io.Discard, resp.Body)
    return resp.StatusCode, nil
}
