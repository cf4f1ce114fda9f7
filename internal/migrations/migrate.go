package migrations

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	pg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/playmatatu/bouncer/internal/logging"
)

// MigrationsTable is golang-migrate's bookkeeping table.
const MigrationsTable = "schema_migrations_migrate"

var versionPrefix = regexp.MustCompile(`^0*([0-9]+)_.*\.up\.sql$`)

// RunMigrations applies the file migrations in dir. A database that already
// has the runs table but no bookkeeping table is baselined to the latest
// version first.
func RunMigrations(databaseURL, dir string) error {
	if databaseURL == "" {
		return fmt.Errorf("database URL is empty")
	}
	if dir == "" {
		dir = "migrations"
	}
	log := logging.Named("migrate")

	sqlDB, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open DB: %w", err)
	}
	defer sqlDB.Close()

	driver, err := pg.WithInstance(sqlDB, &pg.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+dir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	baseline, err := needsBaseline(sqlDB)
	if err != nil {
		return err
	}
	if baseline {
		latest, err := LatestVersion(dir)
		if err != nil {
			return err
		}
		if latest > 0 {
			log.Infow("baselining existing schema", "version", latest)
			if err := m.Force(int(latest)); err != nil {
				return fmt.Errorf("force version %d: %w", latest, err)
			}
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("read migration version: %w", err)
	}
	log.Infow("migrations applied", "version", version, "dirty", dirty)
	return nil
}

func needsBaseline(db *sql.DB) (bool, error) {
	var runsExist, trackedExist bool
	err := db.QueryRow(`SELECT
		EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'runs'),
		EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, MigrationsTable).
		Scan(&runsExist, &trackedExist)
	if err != nil {
		return false, fmt.Errorf("inspect schema: %w", err)
	}
	return runsExist && !trackedExist, nil
}

// LatestVersion returns the highest numeric prefix among the up migrations
// in dir, or 0 when there are none.
func LatestVersion(dir string) (int64, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read migrations dir: %w", err)
	}

	var max int64
	for _, f := range files {
		if f.IsDir() {
			continue
		}
		m := versionPrefix.FindStringSubmatch(f.Name())
		if len(m) < 2 {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			continue
		}
		if v > max {
			max = v
		}
	}
	return max, nil
}
