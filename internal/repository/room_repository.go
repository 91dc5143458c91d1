package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/pkg/database"
)

// RoomRepository persists room documents. The full document goes into a
// jsonb column; the columns that queries filter and sort on are lifted
// out alongside it.
type RoomRepository struct {
	db *database.DB
}

func NewRoomRepository(db *database.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// Save upserts the latest snapshot of a room.
func (r *RoomRepository) Save(doc *models.RoomDoc) error {
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal room document: %w", err)
	}

	query := `
		INSERT INTO rooms (id, match_type, status, winner_id, doc, created_at, finished_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (id) DO UPDATE
		SET status = EXCLUDED.status,
		    winner_id = EXCLUDED.winner_id,
		    doc = EXCLUDED.doc,
		    finished_at = EXCLUDED.finished_at,
		    updated_at = NOW()
	`

	_, err = r.db.Exec(query,
		doc.ID,
		doc.MatchType,
		doc.Status,
		doc.WinnerID,
		payload,
		doc.CreatedAt,
		doc.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save room %s: %w", doc.ID, err)
	}

	return nil
}

// FindByID returns the stored document or nil when the room is unknown.
func (r *RoomRepository) FindByID(roomID string) (*models.RoomDoc, error) {
	var payload []byte
	err := r.db.QueryRow(`SELECT doc FROM rooms WHERE id = $1`, roomID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query room %s: %w", roomID, err)
	}

	doc := &models.RoomDoc{}
	if err := json.Unmarshal(payload, doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room %s: %w", roomID, err)
	}

	return doc, nil
}

// RecentFinished returns the most recently finished rooms for a player,
// newest first.
func (r *RoomRepository) RecentFinished(playerID string, limit int) ([]*models.RoomDoc, error) {
	query := `
		SELECT doc
		FROM rooms
		WHERE status = $1
		  AND (doc -> 'players' -> 0 ->> 'playerId' = $2
		       OR doc -> 'players' -> 1 ->> 'playerId' = $2)
		ORDER BY finished_at DESC
		LIMIT $3
	`

	rows, err := r.db.Query(query, models.RoomStatusFinished, playerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query finished rooms: %w", err)
	}
	defer rows.Close()

	var docs []*models.RoomDoc
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan room row: %w", err)
		}
		doc := &models.RoomDoc{}
		if err := json.Unmarshal(payload, doc); err != nil {
			return nil, fmt.Errorf("failed to unmarshal room document: %w", err)
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}
