package database

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	embeddedpostgres "github.com/fergusstrange/embedded-postgres"
	"github.com/xelth-com/alloyplan/internal/config"
	"github.com/xelth-com/alloyplan/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// embeddedPassword is the superuser password of the bundled instance. It only
// listens on loopback.
const embeddedPassword = "postgres"

// DB is the catalog cache and session database. embedded is set when the
// process owns a bundled PostgreSQL server.
type DB struct {
	*gorm.DB
	embedded *embeddedpostgres.EmbeddedPostgres
}

// Connect opens the configured PostgreSQL database. A loopback host without a
// password starts the bundled server on cfg.EmbeddedPort under cfg.DataPath.
func Connect(cfg config.DatabaseConfig) (*DB, error) {
	var (
		embedded *embeddedpostgres.EmbeddedPostgres
		password = cfg.Password
	)

	if embeddedMode(cfg) {
		log.Printf("📦 Database: bundled PostgreSQL (data %s, port %d)", cfg.DataPath, cfg.EmbeddedPort)
		var err error
		if embedded, err = startEmbedded(cfg); err != nil {
			return nil, err
		}
		cfg.Port = strconv.Itoa(cfg.EmbeddedPort)
		password = embeddedPassword
	} else {
		log.Printf("🌐 Database: PostgreSQL at %s:%s", cfg.Host, cfg.Port)
	}

	db, err := gorm.Open(postgres.Open(buildDSN(cfg, password)), &gorm.Config{
		Logger:  logger.Default.LogMode(gormLogLevel(cfg)),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		if embedded != nil {
			_ = embedded.Stop()
		}
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// The planner issues a handful of short queries per request
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxIdleConns(4)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}

	log.Println("✅ Database connection established")
	return &DB{DB: db, embedded: embedded}, nil
}

// gormLogLevel keeps slow queries and errors visible; statement tracing
// is opt-in through DB_LOG_SQL.
func gormLogLevel(cfg config.DatabaseConfig) logger.LogLevel {
	if cfg.LogSQL {
		return logger.Info
	}
	return logger.Warn
}

// embeddedMode: a loopback host without a password runs the bundled server
func embeddedMode(cfg config.DatabaseConfig) bool {
	return (cfg.Host == "localhost" || cfg.Host == "127.0.0.1") && cfg.Password == ""
}

func buildDSN(cfg config.DatabaseConfig, password string) string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		cfg.Host, cfg.Port, cfg.Username, password, cfg.Database)
}

func startEmbedded(cfg config.DatabaseConfig) (*embeddedpostgres.EmbeddedPostgres, error) {
	reclaimDataDir(cfg.DataPath)

	if err := waitPortFree(cfg.EmbeddedPort, 3*time.Second); err != nil {
		return nil, err
	}

	server := embeddedpostgres.NewDatabase(embeddedpostgres.DefaultConfig().
		DataPath(cfg.DataPath).
		Port(uint32(cfg.EmbeddedPort)).
		Database(cfg.Database).
		Username(cfg.Username).
		Password(embeddedPassword))

	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("failed to start embedded database: %w", err)
	}
	return server, nil
}

// reclaimDataDir stops a server left behind by a crashed run so the data
// directory can be reopened. A stale postmaster.pid is removed.
func reclaimDataDir(dataPath string) {
	pidFile := filepath.Join(dataPath, "postmaster.pid")
	pid, err := readPostmasterPID(pidFile)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Printf("⚠️ Database: ignoring unreadable %s: %v", pidFile, err)
		}
		return
	}

	if !processAlive(pid) {
		log.Printf("🧹 Database: removing stale postmaster.pid (PID %d)", pid)
		_ = os.Remove(pidFile)
		return
	}

	log.Printf("⚠️ Database: stopping orphaned PostgreSQL (PID %d)", pid)
	proc, _ := os.FindProcess(pid)
	_ = proc.Signal(syscall.SIGTERM)
	deadline := time.Now().Add(5 * time.Second)
	for processAlive(pid) && time.Now().Before(deadline) {
		time.Sleep(250 * time.Millisecond)
	}
	if processAlive(pid) {
		log.Printf("⚠️ Database: PID %d ignored SIGTERM, killing", pid)
		_ = proc.Kill()
		time.Sleep(250 * time.Millisecond)
	}
	_ = os.Remove(pidFile)
}

// readPostmasterPID returns the server PID from the first line of a
// postmaster.pid file.
func readPostmasterPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	first, _, _ := strings.Cut(string(data), "\n")
	pid, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed pid %q", first)
	}
	return pid, nil
}

// processAlive probes pid with signal 0.
func processAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

func portInUse(port int) bool {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(port)), 500*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// waitPortFree polls until nothing accepts on port or the wait runs out.
func waitPortFree(port int, wait time.Duration) error {
	deadline := time.Now().Add(wait)
	for portInUse(port) {
		if time.Now().After(deadline) {
			return fmt.Errorf("port %d is still in use by another process", port)
		}
		time.Sleep(250 * time.Millisecond)
	}
	return nil
}

// Close closes the pool and stops the bundled server if this process owns one
func (db *DB) Close() error {
	sqlDB, err := db.DB.DB()
	if err == nil {
		err = sqlDB.Close()
	}
	if db.embedded != nil {
		log.Println("🛑 Database: stopping bundled PostgreSQL")
		if stopErr := db.embedded.Stop(); stopErr != nil && err == nil {
			err = stopErr
		}
	}
	return err
}

// Migrate creates the catalog cache and planner session tables
func (db *DB) Migrate() error {
	log.Println("🚀 Synchronizing database schema...")
	if err := db.DB.AutoMigrate(
		&models.StockItem{},
		&models.SessionRecord{},
	); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	log.Println("✅ Schema synchronized successfully")
	return nil
}
