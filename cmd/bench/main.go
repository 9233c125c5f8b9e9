// README: Smoke and race runner against a live adile-api; prints one line per case and a summary.
package main

import (
    "context"
    "flag"
    "fmt"
    "os"
    "strings"
    "time"
)

func main() {
    cfg := loadConfig()

    ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
    defer cancel()

    bench := NewRunner(cfg)
    results := bench.RunAll(ctx)

    fmt.Println("\n== Summary ==")
    pass, fail, pending, skipped := 0, 0, 0, 0
    for _, r := range results {
        switch r.Status {
        case StatusPass:
            pass++
        case StatusFail:
            fail++
        case StatusPending:
            pending++
        case StatusSkip:
            skipped++
        }
    }
    fmt.Printf("PASS=%d FAIL=%d PENDING=%d SKIP=%d\n", pass, fail, pending, skipped)

    if fail > 0 || (cfg.Strict && pending > 0) {
        os.Exit(1)
    }
}

type Config struct {
    BaseURL        string
    DSN            string
    RedisAddr      string
    MigrationsDir  string
    ApplyMigration bool
    AdminKey       string
    Strict         bool
    Timeout        time.Duration
    Concurrency    int
    Duration       time.Duration
    Debounce       time.Duration
}

func loadConfig() Config {
    var cfg Config
    flag.StringVar(&cfg.BaseURL, "base-url", envOrDefault("ADILE_BENCH_BASE_URL", "http://localhost:8080"), "API base URL")
    flag.StringVar(&cfg.DSN, "dsn", envOrDefault("ADILE_DB_DSN", ""), "Postgres DSN; empty skips the DB checks")
    flag.StringVar(&cfg.RedisAddr, "redis", envOrDefault("ADILE_REDIS_ADDR", ""), "Redis address; empty skips the Redis check")
    flag.StringVar(&cfg.MigrationsDir, "migrations", envOrDefault("ADILE_DB_MIGRATIONS_DIR", "migrations"), "Migrations directory")
    flag.BoolVar(&cfg.ApplyMigration, "apply-migration", envOrDefaultBool("ADILE_BENCH_APPLY_MIGRATION", false), "Apply migrations before the checks")
    flag.StringVar(&cfg.AdminKey, "admin-key", envOrDefault("ADILE_ADMIN_KEY", ""), "Admin key for the kill switch case")
    flag.BoolVar(&cfg.Strict, "strict", envOrDefaultBool("ADILE_BENCH_STRICT", false), "Fail on pending cases")
    flag.DurationVar(&cfg.Timeout, "timeout", envOrDefaultDuration("ADILE_BENCH_TIMEOUT", 60*time.Second), "Total timeout")
    flag.IntVar(&cfg.Concurrency, "concurrency", envOrDefaultInt("ADILE_BENCH_CONCURRENCY", 8), "Drivers racing for one ride, and workers for perf cases")
    flag.DurationVar(&cfg.Duration, "duration", envOrDefaultDuration("ADILE_BENCH_DURATION", 5*time.Second), "Duration for perf cases")
    flag.DurationVar(&cfg.Debounce, "debounce", envOrDefaultDuration("ADILE_PLACES_DEBOUNCE", 500*time.Millisecond), "Quiet period for the typing simulation")
    flag.Parse()
    cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
    return cfg
}

func envOrDefault(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func envOrDefaultBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        v = strings.ToLower(v)
        return v == "1" || v == "true" || v == "yes"
    }
    return def
}

func envOrDefaultInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        var n int
        _, _ = fmt.Sscanf(v, "%d", &n)
        if n > 0 {
            return n
        }
    }
    return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
    if v := os.Getenv(key); v != "" {
        if d, err := time.ParseDuration(v); err == nil {
            return d
        }
    }
    return def
}
