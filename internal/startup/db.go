package startup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gateadmin/internal/logger"
)

// ConnectDBWithRetry подключается к Postgres хранилища сессий с повторами.
// logPrefix добавляется к сообщениям лога (например "dashboard: ").
func ConnectDBWithRetry(poolCfg *pgxpool.Config, maxWait time.Duration, logPrefix string) *pgxpool.Pool {
	var pool *pgxpool.Pool
	retry(maxWait, logPrefix+"db", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return fmt.Errorf("ping: %w", err)
		}
		pool = p
		return nil
	})
	return pool
}

// RunMigrations выполняет *.sql из files по порядку имён. Миграции идемпотентны
// (CREATE ... IF NOT EXISTS), поэтому применяются при каждом старте.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, files fs.FS) error {
	names, err := sortedMigrations(files)
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := fs.ReadFile(files, name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("run migration %s: %w", name, err)
		}
	}
	logger.Infof("migrations applied (%d)", len(names))
	return nil
}

func sortedMigrations(files fs.FS) ([]string, error) {
	names, err := fs.Glob(files, "*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// EmbeddedPostgres — параметры локальной БД режима -dev.
type EmbeddedPostgres struct {
	Port     uint32
	DataDir  string
	User     string
	Password string
	Database string
}

func (e EmbeddedPostgres) URL() string {
	return fmt.Sprintf("postgres://%s:%s@localhost:%d/%s?sslmode=disable", e.User, e.Password, e.Port, e.Database)
}

// StartEmbeddedPostgres поднимает Postgres в процессе; вызывающий обязан вызвать Stop.
func StartEmbeddedPostgres(e EmbeddedPostgres) (*embeddedpostgres.EmbeddedPostgres, error) {
	if err := os.MkdirAll(e.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create pgdata dir: %w", err)
	}
	db := embeddedpostgres.NewDatabase(
		embeddedpostgres.DefaultConfig().
			Port(e.Port).
			Username(e.User).
			Password(e.Password).
			Database(e.Database).
			DataPath(e.DataDir).
			RuntimePath(filepath.Join(os.TempDir(), "gateadmin-pg-runtime")),
	)
	logger.Info("starting embedded PostgreSQL...")
	if err := db.Start(); err != nil {
		return nil, fmt.Errorf("start: %w", err)
	}
	logger.Infof("embedded PostgreSQL running on port %d", e.Port)
	return db, nil
}
