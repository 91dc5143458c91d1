package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/database"
)

type RatingRepository struct {
	db *database.DB
}

func NewRatingRepository(db *database.DB) *RatingRepository {
	return &RatingRepository{db: db}
}

// GetOrCreate returns the player's rating record, inserting the default
// record on first sight.
func (r *RatingRepository) GetOrCreate(playerID string) (*models.RatingRecord, error) {
	query := `
		INSERT INTO rating_records (player_id, rating)
		VALUES ($1, $2)
		ON CONFLICT (player_id) DO UPDATE SET player_id = EXCLUDED.player_id
		RETURNING player_id, rating, total_matches, wins, losses, draws,
		          win_streak, best_win_streak, recent_matches, rating_history, updated_at
	`
	return r.scanRecord(r.db.QueryRow(query, playerID, models.DefaultRating))
}

// FindByID returns the record or nil when the player has none yet.
func (r *RatingRepository) FindByID(playerID string) (*models.RatingRecord, error) {
	query := `
		SELECT player_id, rating, total_matches, wins, losses, draws,
		       win_streak, best_win_streak, recent_matches, rating_history, updated_at
		FROM rating_records
		WHERE player_id = $1
	`

	record, err := r.scanRecord(r.db.QueryRow(query, playerID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return record, err
}

// ApplyMatchResult persists both updated records in a single transaction.
// A partial update must never be observable, so any failure rolls back
// both sides.
func (r *RatingRepository) ApplyMatchResult(a, b *models.RatingRecord) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rating transaction: %w", err)
	}
	defer tx.Rollback()

	for _, record := range []*models.RatingRecord{a, b} {
		if err := r.updateInTx(tx, record); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit rating transaction: %w", err)
	}

	return nil
}

func (r *RatingRepository) updateInTx(tx *sql.Tx, record *models.RatingRecord) error {
	recent, err := json.Marshal(record.RecentMatches)
	if err != nil {
		return fmt.Errorf("failed to marshal recent matches: %w", err)
	}
	history, err := json.Marshal(record.RatingHistory)
	if err != nil {
		return fmt.Errorf("failed to marshal rating history: %w", err)
	}

	query := `
		UPDATE rating_records
		SET rating = $2,
		    total_matches = $3,
		    wins = $4,
		    losses = $5,
		    draws = $6,
		    win_streak = $7,
		    best_win_streak = $8,
		    recent_matches = $9,
		    rating_history = $10,
		    updated_at = NOW()
		WHERE player_id = $1
	`

	result, err := tx.Exec(query,
		record.PlayerID,
		record.Rating,
		record.TotalMatches,
		record.Wins,
		record.Losses,
		record.Draws,
		record.WinStreak,
		record.BestWinStreak,
		recent,
		history,
	)
	if err != nil {
		return fmt.Errorf("failed to update rating record: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rating update: %w", err)
	}
	if rows != 1 {
		return fmt.Errorf("rating record %s missing during update", record.PlayerID)
	}

	return nil
}

// Leaderboard returns records sorted by rating descending, plus the total
// number of rated players for pagination.
func (r *RatingRepository) Leaderboard(limit, offset int) ([]*models.RatingRecord, int, error) {
	var total int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM rating_records`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count rating records: %w", err)
	}

	query := `
		SELECT player_id, rating, total_matches, wins, losses, draws,
		       win_streak, best_win_streak, recent_matches, rating_history, updated_at
		FROM rating_records
		ORDER BY rating DESC, total_matches DESC, player_id ASC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var records []*models.RatingRecord
	for rows.Next() {
		record, err := r.scanRecordFromRows(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, record)
	}

	return records, total, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *RatingRepository) scanRecord(row rowScanner) (*models.RatingRecord, error) {
	record := &models.RatingRecord{}
	var recent, history []byte

	err := row.Scan(
		&record.PlayerID,
		&record.Rating,
		&record.TotalMatches,
		&record.Wins,
		&record.Losses,
		&record.Draws,
		&record.WinStreak,
		&record.BestWinStreak,
		&recent,
		&history,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(recent) > 0 {
		if err := json.Unmarshal(recent, &record.RecentMatches); err != nil {
			return nil, fmt.Errorf("failed to unmarshal recent matches: %w", err)
		}
	}
	if len(history) > 0 {
		if err := json.Unmarshal(history, &record.RatingHistory); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rating history: %w", err)
		}
	}

	record.RankTier = models.TierForRating(record.Rating)

	return record, nil
}

func (r *RatingRepository) scanRecordFromRows(rows *sql.Rows) (*models.RatingRecord, error) {
	record, err := r.scanRecord(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan rating record: %w", err)
	}
	return record, nil
}
