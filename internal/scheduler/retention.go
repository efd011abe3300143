package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/meshbbs/core/internal/config"
	coresys "github.com/meshbbs/core/internal/core/system"
	"github.com/meshbbs/core/internal/world"
)

// RetentionSystem runs the housekeeping sweep described in §4.7/§4.8:
// prune the audit log and WAL past their configured max age, then take
// a fresh hot backup, all gated on the configured interval rather than
// every tick.
type RetentionSystem struct {
	engine  *world.Engine
	cfg     config.RetentionConfig
	lastRun time.Time
	log     *zap.Logger
}

func NewRetentionSystem(engine *world.Engine, cfg config.RetentionConfig, log *zap.Logger) *RetentionSystem {
	return &RetentionSystem{engine: engine, cfg: cfg, log: log}
}

func (s *RetentionSystem) Phase() coresys.Phase { return coresys.PhaseRetention }

func (s *RetentionSystem) Update(dt time.Duration) {
	if s.cfg.BackupInterval <= 0 {
		return
	}
	now := time.Now()
	if !s.lastRun.IsZero() && now.Sub(s.lastRun) < s.cfg.BackupInterval {
		return
	}
	s.lastRun = now
	ctx := context.Background()

	if s.cfg.AuditLogMaxAge > 0 {
		n, err := s.engine.PruneAuditLog(ctx, s.cfg.AuditLogMaxAge)
		if err != nil {
			s.log.Warn("audit log prune failed", zap.Error(err))
		} else if n > 0 {
			s.log.Info("pruned audit log", zap.Int("entries", n))
		}
	}
	if s.cfg.WALMaxAge > 0 {
		n, err := s.engine.PruneWAL(ctx, s.cfg.WALMaxAge)
		if err != nil {
			s.log.Warn("WAL prune failed", zap.Error(err))
		} else if n > 0 {
			s.log.Info("pruned WAL", zap.Int("entries", n))
		}
	}
	if err := s.backup(ctx, now); err != nil {
		s.log.Warn("scheduled backup failed", zap.Error(err))
	}
}

func (s *RetentionSystem) backup(ctx context.Context, now time.Time) error {
	dir := s.cfg.BackupDir
	if dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("scheduler: create backup dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("meshbbs-%s.bbolt", now.UTC().Format("20060102T150405Z")))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("scheduler: create backup file: %w", err)
	}
	defer f.Close()
	if err := s.engine.Backup(ctx, f); err != nil {
		return fmt.Errorf("scheduler: write backup: %w", err)
	}
	s.log.Info("scheduled backup written", zap.String("path", path))
	return nil
}
