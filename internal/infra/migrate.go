// README: Applies the SQL files under migrations/ in lexical order.
package infra

import (
    "bufio"
    "context"
    "fmt"
    "os"
    "path/filepath"
    "sort"
    "strings"

    "github.com/jackc/pgx/v5/pgxpool"
)

// ApplyMigrations runs every statement of every *.sql file in dir. Files must
// be idempotent (CREATE ... IF NOT EXISTS).
func ApplyMigrations(ctx context.Context, db *pgxpool.Pool, dir string) error {
    files, err := filepath.Glob(filepath.Join(dir, "*.sql"))
    if err != nil {
        return err
    }
    sort.Strings(files)
    for _, path := range files {
        content, err := os.ReadFile(path)
        if err != nil {
            return err
        }
        for _, stmt := range splitSQL(stripSQLComments(string(content))) {
            if _, err := db.Exec(ctx, stmt); err != nil {
                return fmt.Errorf("%s: %w", filepath.Base(path), err)
            }
        }
    }
    return nil
}

// RepoRoot walks up from the working directory to the directory holding go.mod.
func RepoRoot() (string, error) {
    dir, err := os.Getwd()
    if err != nil {
        return "", err
    }
    for i := 0; i < 6; i++ {
        if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
            return dir, nil
        }
        parent := filepath.Dir(dir)
        if parent == dir {
            break
        }
        dir = parent
    }
    return "", os.ErrNotExist
}

func stripSQLComments(input string) string {
    var b strings.Builder
    scanner := bufio.NewScanner(strings.NewReader(input))
    for scanner.Scan() {
        line := strings.TrimSpace(scanner.Text())
        if line == "" || strings.HasPrefix(line, "--") {
            continue
        }
        b.WriteString(scanner.Text())
        b.WriteString("\n")
    }
    return b.String()
}

func splitSQL(input string) []string {
    parts := strings.Split(input, ";")
    out := make([]string, 0, len(parts))
    for _, p := range parts {
        stmt := strings.TrimSpace(p)
        if stmt == "" {
            continue
        }
        out = append(out, stmt)
    }
    return out
}
