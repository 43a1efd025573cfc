package storage

import (
	"fmt"
	"time"

	"strategy_dash/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// alertTrigger is one fired alert as the server reported it.
type alertTrigger struct {
	ID          uint      `gorm:"primaryKey"`
	AlertID     int64     `gorm:"index"`
	Symbol      string    `gorm:"index"`
	Operator    string
	Value       string
	TriggeredAt time.Time `gorm:"index"`
}

// History keeps the alert-trigger history of the running session.
// The default DSN is an in-memory database, so nothing survives a restart.
type History struct {
	db *gorm.DB
}

// NewHistory opens the history database.
func NewHistory(dsn string) (*History, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	// A single connection keeps one shared in-memory database.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&alertTrigger{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history database: %w", err)
	}

	return &History{db: db}, nil
}

// Close releases the database.
func (h *History) Close() error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func toRow(a domain.PriceAlert, at time.Time) alertTrigger {
	return alertTrigger{
		AlertID:     a.ID,
		Symbol:      a.Symbol,
		Operator:    string(a.Operator),
		Value:       a.Value.String(),
		TriggeredAt: at,
	}
}

// Append records a trigger.
func (h *History) Append(a domain.PriceAlert, at time.Time) error {
	row := toRow(a, at)
	return h.db.Create(&row).Error
}

// Replace swaps the whole history for a server-confirmed list.
func (h *History) Replace(alerts []domain.PriceAlert, at time.Time) error {
	return h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&alertTrigger{}).Error; err != nil {
			return err
		}
		if len(alerts) == 0 {
			return nil
		}
		rows := make([]alertTrigger, len(alerts))
		for i, a := range alerts {
			rows[i] = toRow(a, at)
		}
		return tx.Create(&rows).Error
	})
}

// Entry is one row of the history.
type Entry struct {
	Alert       domain.PriceAlert
	TriggeredAt time.Time
}

// Recent returns up to limit entries, newest first.
func (h *History) Recent(limit int) ([]Entry, error) {
	return h.query(h.db, limit)
}

// ForSymbol returns up to limit entries of one symbol, newest first.
func (h *History) ForSymbol(symbol string, limit int) ([]Entry, error) {
	return h.query(h.db.Where("symbol = ?", symbol), limit)
}

func (h *History) query(q *gorm.DB, limit int) ([]Entry, error) {
	var rows []alertTrigger
	q = q.Order("triggered_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(rows))
	for _, r := range rows {
		value, err := decimal.NewFromString(r.Value)
		if err != nil {
			value = decimal.Zero
		}
		out = append(out, Entry{
			Alert: domain.PriceAlert{
				ID:        r.AlertID,
				Symbol:    r.Symbol,
				Operator:  domain.AlertOperator(r.Operator),
				Value:     value,
				Triggered: true,
			},
			TriggeredAt: r.TriggeredAt,
		})
	}
	return out, nil
}

// Count returns the number of recorded triggers.
func (h *History) Count() (int64, error) {
	var n int64
	err := h.db.Model(&alertTrigger{}).Count(&n).Error
	return n, err
}
