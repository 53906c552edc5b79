// Package storage is the engine's local persistence: processed-event
// idempotency records, per-shop tier settings, and the cycle audit log.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"procredit/accrual"
)

// ErrPathRequired is returned when the backing store path is missing.
var ErrPathRequired = errors.New("storage path must be configured")

// Store wraps the accrual engine's persistence layer.
type Store struct {
	db *gorm.DB
}

// Open initialises the backing store at the given sqlite DSN.
func Open(path string) (*Store, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, ErrPathRequired
	}
	db, err := gorm.Open(sqlite.Open(trimmed), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.AutoMigrate(&ProcessedEvent{}, &ShopSettings{}, &AuditEntry{}); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MarkProcessed records the event id and reports whether it had already been
// seen. The insert races safely across concurrent deliveries of the same
// event: exactly one caller observes duplicate=false.
func (s *Store) MarkProcessed(ctx context.Context, eventID, shop, topic string) (bool, error) {
	if strings.TrimSpace(eventID) == "" {
		return false, errors.New("event id required")
	}
	record := ProcessedEvent{EventID: eventID, Shop: shop, Topic: topic, CreatedAt: time.Now().UTC()}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&record)
	if res.Error != nil {
		return false, fmt.Errorf("record event: %w", res.Error)
	}
	return res.RowsAffected == 0, nil
}

// ShopConfig loads the shop's tier parameters, creating the row with the
// documented defaults on first read.
func (s *Store) ShopConfig(ctx context.Context, shop string) (*accrual.ShopConfig, error) {
	if strings.TrimSpace(shop) == "" {
		return nil, errors.New("shop required")
	}
	var settings ShopSettings
	err := s.db.WithContext(ctx).First(&settings, "shop = ?", shop).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		settings = ShopSettings{
			Shop:           shop,
			ThresholdMinor: accrual.DefaultThreshold.Int64(),
			CreditMinor:    accrual.DefaultCreditAmount.Int64(),
		}
		if err := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&settings).Error; err != nil {
			return nil, fmt.Errorf("seed shop settings: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("load shop settings: %w", err)
	}
	return &accrual.ShopConfig{
		Threshold:    big.NewInt(settings.ThresholdMinor),
		CreditAmount: big.NewInt(settings.CreditMinor),
	}, nil
}

// SetShopConfig overwrites the shop's tier parameters. Administrative use only.
func (s *Store) SetShopConfig(ctx context.Context, shop string, cfg *accrual.ShopConfig) error {
	if strings.TrimSpace(shop) == "" {
		return errors.New("shop required")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !cfg.Threshold.IsInt64() || !cfg.CreditAmount.IsInt64() {
		return errors.New("shop settings exceed storable range")
	}
	settings := ShopSettings{
		Shop:           shop,
		ThresholdMinor: cfg.Threshold.Int64(),
		CreditMinor:    cfg.CreditAmount.Int64(),
		UpdatedAt:      time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "shop"}},
		DoUpdates: clause.AssignmentColumns([]string{"threshold_minor", "credit_minor", "updated_at"}),
	}).Create(&settings).Error
	if err != nil {
		return fmt.Errorf("store shop settings: %w", err)
	}
	return nil
}

// AppendAudit persists one cycle audit row. Failures are the caller's to log;
// auditing never aborts a cycle.
func (s *Store) AppendAudit(ctx context.Context, entry AuditEntry) error {
	entry.CreatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// RecentAudits lists the newest audit rows for a shop, most recent first.
func (s *Store) RecentAudits(ctx context.Context, shop string, limit int) ([]AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	var entries []AuditEntry
	err := s.db.WithContext(ctx).
		Where("shop = ?", shop).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("list audits: %w", err)
	}
	return entries, nil
}
