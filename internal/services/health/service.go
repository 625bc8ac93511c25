package health

import (
	"context"
	"time"

	"github.com/dsonic0912/dsonic-resume-builder-sub000/internal/shared/telemetry"
)

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the /health payload.
type Status struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Backend  string `json:"backend"`
}

// Service encapsulates health-related checks.
type Service struct {
	DB      Pinger
	Backend string
	Timeout time.Duration
}

// NewService constructs a health service over db. backend names the engine ("postgres", "sqlite", "memory").
func NewService(db Pinger, backend string) *Service {
	return &Service{DB: db, Backend: backend, Timeout: 2 * time.Second}
}

// Check pings the database and returns the combined status.
func (s *Service) Check(ctx context.Context) Status {
	st := Status{OK: true, Database: "ok", Backend: s.Backend}
	if s.DB == nil {
		st.Database = "unconfigured"
		return st
	}
	if s.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
		defer cancel()
	}
	if err := s.DB.Ping(ctx); err != nil {
		telemetry.Error("health.db_ping_failed", map[string]any{"backend": s.Backend, "err": err})
		st.OK = false
		st.Database = "unreachable"
	}
	return st
}
