package services

import (
	"context"
	"log"

	"libtrack/internal/adapters/persistence/models"
	"libtrack/internal/adapters/persistence/repositories"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// CronService runs scheduled maintenance jobs: a daily circulation
// summary in the log and cleanup of expired refresh tokens. It never
// mutates catalog or ledger state.
type CronService struct {
	db               *gorm.DB
	refreshTokenRepo repositories.RefreshTokenRepository
	cron             *cron.Cron
}

// NewCronService creates a new cron service
func NewCronService(db *gorm.DB, refreshTokenRepo repositories.RefreshTokenRepository) *CronService {
	return &CronService{
		db:               db,
		refreshTokenRepo: refreshTokenRepo,
		cron:             cron.New(),
	}
}

// Start registers and launches the scheduled jobs
func (s *CronService) Start() {
	// 08:00 daily
	s.cron.AddFunc("0 8 * * *", s.logCirculationSummary)

	// 03:00 daily
	s.cron.AddFunc("0 3 * * *", s.cleanupExpiredTokens)

	s.cron.Start()
	log.Println("⏰ Cron service started")
}

// Stop stops the scheduler
func (s *CronService) Stop() {
	s.cron.Stop()
	log.Println("⏰ Cron service stopped")
}

func (s *CronService) logCirculationSummary() {
	ctx := context.Background()

	var activeLoans int64
	if err := s.db.WithContext(ctx).
		Model(&models.BorrowTransaction{}).
		Where("status = ?", models.StatusBorrowed).
		Count(&activeLoans).Error; err != nil {
		log.Printf("❌ Circulation summary query error: %v", err)
		return
	}

	var outOfStock int64
	if err := s.db.WithContext(ctx).
		Model(&models.Book{}).
		Where("copies_available = 0").
		Count(&outOfStock).Error; err != nil {
		log.Printf("❌ Circulation summary query error: %v", err)
		return
	}

	log.Printf("📚 Circulation summary: %d active loans, %d books out of copies", activeLoans, outOfStock)
}

func (s *CronService) cleanupExpiredTokens() {
	if err := s.refreshTokenRepo.DeleteExpired(context.Background()); err != nil {
		log.Printf("❌ Refresh token cleanup error: %v", err)
		return
	}
	log.Println("🧹 Refresh token cleanup completed")
}
