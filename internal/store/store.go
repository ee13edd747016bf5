package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/tourneyhq/auction-backend/internal/engine"
)

// SessionStatusRecord is one row of the session status history: every
// lifecycle transition appends one.
type SessionStatusRecord struct {
	ID           uint      `gorm:"primaryKey"`
	TournamentID string    `gorm:"index"`
	Status       string    `gorm:"size:16"`
	At           time.Time `gorm:"index"`
}

func (SessionStatusRecord) TableName() string { return "auction_session_status" }

// LotRecord mirrors a lot's durable state. Bid history lives in
// BidRecord rows, not here.
type LotRecord struct {
	LotID          string `gorm:"primaryKey"`
	TournamentID   string `gorm:"index"`
	PlayerName     string
	Status         string `gorm:"size:16;index"`
	BasePrice      int64
	CurrentBid     int64
	CurrentBidder  string
	SoldTo         string
	SoldPrice      int64
	WithdrawReason string
	UpdatedAt      time.Time
}

func (LotRecord) TableName() string { return "auction_lots" }

// BidRecord is append-only: rows are only ever inserted.
type BidRecord struct {
	ID           string `gorm:"primaryKey"`
	TournamentID string `gorm:"index"`
	LotID        string `gorm:"index"`
	TeamID       string
	TeamName     string
	Amount       int64
	SeatID       string
	At           time.Time
}

func (BidRecord) TableName() string { return "auction_bids" }

// LedgerRecord is one balance delta with its cause. Append-only.
type LedgerRecord struct {
	ID           string `gorm:"primaryKey"`
	TournamentID string `gorm:"index"`
	TeamID       string `gorm:"index"`
	Delta        int64
	Balance      int64
	Cause        string
	LotID        string
	At           time.Time
}

func (LedgerRecord) TableName() string { return "auction_ledger" }

type Store struct {
	db  *gorm.DB
	log *zap.Logger
}

func Open(dsn string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("store.Open: %w", err)
	}
	if err := db.AutoMigrate(&SessionStatusRecord{}, &LotRecord{}, &BidRecord{}, &LedgerRecord{}); err != nil {
		return nil, fmt.Errorf("store.Open: migrate: %w", err)
	}
	return &Store{db: db, log: logger}, nil
}

func (s *Store) SaveSessionStatus(ctx context.Context, tournamentID string, status engine.AuctionStatus, at time.Time) error {
	rec := SessionStatusRecord{TournamentID: tournamentID, Status: string(status), At: at}
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *Store) SaveLot(ctx context.Context, tournamentID string, lot engine.Lot) error {
	rec := newLotRecord(tournamentID, lot)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "lot_id"}}, UpdateAll: true}).
		Create(&rec).Error
}

func (s *Store) AppendBid(ctx context.Context, tournamentID, lotID string, entry engine.BidEntry) error {
	rec := newBidRecord(tournamentID, lotID, entry)
	return s.db.WithContext(ctx).Create(&rec).Error
}

func (s *Store) AppendLedgerEntry(ctx context.Context, tournamentID string, entry engine.LedgerEntry) error {
	rec := newLedgerRecord(tournamentID, entry)
	return s.db.WithContext(ctx).Create(&rec).Error
}

func newLotRecord(tournamentID string, lot engine.Lot) LotRecord {
	return LotRecord{
		LotID:          lot.ID,
		TournamentID:   tournamentID,
		PlayerName:     lot.PlayerName,
		Status:         string(lot.Status),
		BasePrice:      lot.BasePrice,
		CurrentBid:     lot.CurrentBid,
		CurrentBidder:  lot.CurrentBidder,
		SoldTo:         lot.SoldTo,
		SoldPrice:      lot.SoldPrice,
		WithdrawReason: lot.WithdrawReason,
		UpdatedAt:      time.Now(),
	}
}

func newBidRecord(tournamentID, lotID string, entry engine.BidEntry) BidRecord {
	return BidRecord{
		ID:           entry.ID,
		TournamentID: tournamentID,
		LotID:        lotID,
		TeamID:       entry.TeamID,
		TeamName:     entry.TeamName,
		Amount:       entry.Amount,
		SeatID:       entry.SeatID,
		At:           entry.At,
	}
}

func newLedgerRecord(tournamentID string, entry engine.LedgerEntry) LedgerRecord {
	return LedgerRecord{
		ID:           entry.ID,
		TournamentID: tournamentID,
		TeamID:       entry.TeamID,
		Delta:        entry.Delta,
		Balance:      entry.Balance,
		Cause:        entry.Cause,
		LotID:        entry.LotID,
		At:           entry.At,
	}
}
