package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_TTL_HOURS", "")
	t.Setenv("LAYOUT_SETTLE_MS", "")
	t.Setenv("CRITICAL_PLAN_LIMIT", "")
	t.Setenv("CATALOG_REFRESH_MINUTES", "")
	t.Setenv("ODOO_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.Store != SessionStorePostgres {
		t.Errorf("Session.Store = %q", cfg.Session.Store)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %s", cfg.Session.TTL)
	}
	if cfg.Layout.SettleDelay != 16*time.Millisecond {
		t.Errorf("Layout.SettleDelay = %s", cfg.Layout.SettleDelay)
	}
	if cfg.Dashboard.CriticalPlanLimit != 10 {
		t.Errorf("CriticalPlanLimit = %d", cfg.Dashboard.CriticalPlanLimit)
	}
	if cfg.Odoo.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %s", cfg.Odoo.RefreshInterval)
	}
	if cfg.Odoo.Enabled() {
		t.Error("Odoo must be disabled without ODOO_URL")
	}
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error without JWT_SECRET")
	}

	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "sqlite")
	if _, err := Load(); err == nil {
		t.Error("Expected error for unknown session store")
	}

	t.Setenv("SESSION_STORE", "redis")
	t.Setenv("REDIS_ADDR", "")
	if _, err := Load(); err == nil {
		t.Error("Expected error for redis without REDIS_ADDR")
	}

	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("SESSION_TTL_HOURS", "2")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.TTL != 2*time.Hour || cfg.Session.RedisAddr != "localhost:6379" {
		t.Errorf("Unexpected session config %+v", cfg.Session)
	}
}

func TestLoad_NonPositiveDurationsUseDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("SESSION_TTL_HOURS", "0")
	t.Setenv("CATALOG_REFRESH_MINUTES", "-5")
	t.Setenv("LAYOUT_SETTLE_MS", "0")
	t.Setenv("PG_EMBEDDED_PORT", "-1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Session.TTL != 24*time.Hour {
		t.Errorf("Session.TTL = %s, want 24h", cfg.Session.TTL)
	}
	if cfg.Odoo.RefreshInterval != 15*time.Minute {
		t.Errorf("RefreshInterval = %s, want 15m", cfg.Odoo.RefreshInterval)
	}
	if cfg.Layout.SettleDelay != 16*time.Millisecond {
		t.Errorf("Layout.SettleDelay = %s, want 16ms", cfg.Layout.SettleDelay)
	}
	if cfg.Database.EmbeddedPort != 5433 {
		t.Errorf("EmbeddedPort = %d, want 5433", cfg.Database.EmbeddedPort)
	}
}

func TestLoad_Database(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SESSION_STORE", "")
	t.Setenv("PG_DATA_PATH", "/var/lib/alloyplan/pg")
	t.Setenv("PG_EMBEDDED_PORT", "6543")
	t.Setenv("DB_LOG_SQL", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	db := cfg.Database
	if db.DataPath != "/var/lib/alloyplan/pg" || db.EmbeddedPort != 6543 || !db.LogSQL {
		t.Errorf("Unexpected database config %+v", db)
	}
}
