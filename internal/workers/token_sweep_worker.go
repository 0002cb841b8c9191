package workers

import (
	"context"
	"time"

	"iceberg_backend/internal/logger"
	"iceberg_backend/internal/repositories"

	"gorm.io/gorm"
)

// TokenSweepWorker чистит отработавшие токены: истекшие refresh-сессии
// и записи черного списка, пережившие exp своих access-токенов.
// Корректность от него не зависит (условия expires_at входят во все
// проверки), он сдерживает рост таблиц.
type TokenSweepWorker struct {
	db          *gorm.DB
	sessionRepo repositories.RefreshSessionRepository
	revokedRepo repositories.RevokedTokenRepository
	interval    time.Duration
}

func NewTokenSweepWorker(
	db *gorm.DB,
	sessionRepo repositories.RefreshSessionRepository,
	revokedRepo repositories.RevokedTokenRepository,
) *TokenSweepWorker {
	return &TokenSweepWorker{
		db:          db,
		sessionRepo: sessionRepo,
		revokedRepo: revokedRepo,
		interval:    1 * time.Hour,
	}
}

// Start запускает периодическую уборку
func (w *TokenSweepWorker) Start(ctx context.Context) {
	go w.run(ctx)
}

func (w *TokenSweepWorker) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Первый проход сразу при старте: после долгого простоя
	// накопившийся мусор не ждет час
	w.sweep()

	for {
		select {
		case <-ctx.Done():
			logger.Info("token sweep worker stopped")
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *TokenSweepWorker) sweep() {
	sessions, err := w.sessionRepo.DeleteExpired(w.db)
	logger.WorkerLog("token_sweep", "delete expired refresh sessions", err)
	if sessions > 0 {
		logger.Info("swept expired refresh sessions", "count", sessions)
	}

	revoked, err := w.revokedRepo.DeleteExpired(w.db)
	logger.WorkerLog("token_sweep", "delete expired blacklist entries", err)
	if revoked > 0 {
		logger.Info("swept expired blacklist entries", "count", revoked)
	}
}
