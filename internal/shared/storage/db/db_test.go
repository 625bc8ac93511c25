package db

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// useMockDB routes Connect through sqlmock. fail, when set, is returned by the open call instead.
func useMockDB(t *testing.T, fail func() error) sqlmock.Sqlmock {
	t.Helper()
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	prev := openDB
	openDB = func(driverName, dsn string) (*sql.DB, error) {
		if fail != nil {
			if err := fail(); err != nil {
				return nil, err
			}
		}
		return mockDB, nil
	}
	t.Cleanup(func() { openDB = prev })
	return mock
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonInFly = false
	singletonMu.Unlock()
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	mock := useMockDB(t, nil)
	mock.ExpectPing()
	resetSingleton()
	t.Cleanup(resetSingleton)

	db1, err := GetSingleton(context.Background(), "postgres://ignored", DefaultServerOptions())
	if err != nil {
		t.Fatalf("GetSingleton first: %v", err)
	}
	db2, err := GetSingleton(context.Background(), "postgres://ignored", DefaultServerOptions())
	if err != nil {
		t.Fatalf("GetSingleton second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected singleton pointers to match")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected a single ping: %v", err)
	}
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	mock := useMockDB(t, func() error {
		if atomic.AddInt32(&calls, 1) == 1 {
			return driver.ErrBadConn
		}
		return nil
	})
	mock.ExpectPing()
	resetSingleton()
	t.Cleanup(resetSingleton)

	if _, err := GetSingleton(context.Background(), "postgres://ignored", DefaultServerOptions()); err == nil {
		t.Fatalf("expected first call to fail")
	}
	db, err := GetSingleton(context.Background(), "postgres://ignored", DefaultServerOptions())
	if err != nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
	if db == nil {
		t.Fatalf("expected db after retry")
	}
}

func TestConnectClosesPoolWhenPingFails(t *testing.T) {
	mock := useMockDB(t, nil)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	if _, err := Connect(context.Background(), "postgres://ignored", DefaultMigrateOptions()); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected pool to be closed: %v", err)
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	mock := useMockDB(t, nil)
	mock.ExpectPing()

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "bogus")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "postgres://ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if got := db.Stats().MaxOpenConnections; got != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", got)
	}
	if opts.MaxIdleConns != 3 || opts.ConnMaxLifetime != 20*time.Minute || opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("unexpected options %+v", opts)
	}
	if opts.PingTimeout != 5*time.Second {
		t.Fatalf("expected invalid DB_PING_TIMEOUT to keep the default, got %s", opts.PingTimeout)
	}
}

func TestParseURL(t *testing.T) {
	cases := []struct {
		in      string
		dialect string
		driver  string
		dsn     string
	}{
		{"postgres://u:p@localhost:5432/app", DialectPostgres, "pgx", "postgres://u:p@localhost:5432/app"},
		{"postgresql://localhost/app", DialectPostgres, "pgx", "postgresql://localhost/app"},
		{"sqlite://data/app.db", DialectSQLite, "sqlite", "data/app.db?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29"},
		{"sqlite::memory:", DialectSQLite, "sqlite", ":memory:?_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29"},
		{"file:app.db?cache=shared", DialectSQLite, "sqlite", "file:app.db?cache=shared&_pragma=foreign_keys%281%29&_pragma=busy_timeout%285000%29"},
	}
	for _, tc := range cases {
		got, err := ParseURL(tc.in)
		if err != nil {
			t.Fatalf("ParseURL(%q): %v", tc.in, err)
		}
		if got.Dialect != tc.dialect || got.Driver != tc.driver || got.DSN != tc.dsn {
			t.Fatalf("ParseURL(%q) = %+v", tc.in, got)
		}
	}

	for _, bad := range []string{"", "  ", "mysql://root@localhost/app"} {
		if _, err := ParseURL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestConnectForcesSingleSQLiteConnection(t *testing.T) {
	mock := useMockDB(t, nil)
	mock.ExpectPing()

	db, err := Connect(context.Background(), "sqlite://ignored.db", DefaultServerOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("expected MaxOpenConnections=1, got %d", got)
	}
}
