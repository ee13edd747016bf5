package store

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/tourneyhq/auction-backend/internal/engine"
)

// ForceFinalizeOrphans repairs lots left InAuction by a crash. No lot
// may stay InAuction with no possibility of finalize after a restart:
// each orphan is force-finalized into the given outcome (Unsold or
// Pending) and the repair is appended to the session status history's
// timeline via the lot record itself.
//
// Returns the tournament IDs that were touched so the caller can decide
// whether to resume their sessions.
func (s *Store) ForceFinalizeOrphans(ctx context.Context, outcome engine.OutcomeKind) ([]string, error) {
	status := engine.LotUnsold
	if outcome == engine.OutcomePending {
		status = engine.LotPending
	}

	var orphans []LotRecord
	if err := s.db.WithContext(ctx).
		Where("status = ?", string(engine.LotInAuction)).
		Find(&orphans).Error; err != nil {
		return nil, fmt.Errorf("store.ForceFinalizeOrphans: %w", err)
	}
	if len(orphans) == 0 {
		return nil, nil
	}

	touched := make(map[string]bool)
	for _, rec := range orphans {
		if err := s.db.WithContext(ctx).Model(&LotRecord{}).
			Where("lot_id = ? AND status = ?", rec.LotID, string(engine.LotInAuction)).
			Updates(map[string]any{
				"status":         string(status),
				"current_bid":    0,
				"current_bidder": "",
				"updated_at":     time.Now(),
			}).Error; err != nil {
			return nil, fmt.Errorf("store.ForceFinalizeOrphans: lot %s: %w", rec.LotID, err)
		}
		touched[rec.TournamentID] = true
		s.log.Warn("force-finalized orphaned lot",
			zap.String("tournament", rec.TournamentID),
			zap.String("lot", rec.LotID),
			zap.String("outcome", string(status)))
	}

	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, id)
	}
	return ids, nil
}

// LoadBidHistory reads the durable append-only bid log for a lot, in
// insertion order. Serves as the correctness backstop when in-memory
// state is gone.
func (s *Store) LoadBidHistory(ctx context.Context, lotID string) ([]engine.BidEntry, error) {
	var recs []BidRecord
	if err := s.db.WithContext(ctx).
		Where("lot_id = ?", lotID).
		Order("at asc").
		Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("store.LoadBidHistory: %w", err)
	}
	entries := make([]engine.BidEntry, len(recs))
	for i, rec := range recs {
		entries[i] = engine.BidEntry{
			ID:       rec.ID,
			TeamID:   rec.TeamID,
			TeamName: rec.TeamName,
			Amount:   rec.Amount,
			SeatID:   rec.SeatID,
			At:       rec.At,
		}
	}
	return entries, nil
}
