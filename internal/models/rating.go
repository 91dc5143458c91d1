package models

import "time"

// RankTier is a named band derived from rating. It is never stored
// independently; TierForRating recomputes it after every change.
type RankTier string

const (
	TierBronze      RankTier = "bronze"
	TierSilver      RankTier = "silver"
	TierGold        RankTier = "gold"
	TierPlatinum    RankTier = "platinum"
	TierDiamond     RankTier = "diamond"
	TierMaster      RankTier = "master"
	TierGrandmaster RankTier = "grandmaster"
	TierChallenger  RankTier = "challenger"
)

const (
	// DefaultRating is the starting rating for new players.
	DefaultRating = 1200

	// TopBandRating is the floor of the highest band; players at or above
	// it use the smallest K-factor.
	TopBandRating = 2200
)

// TierForRating maps a rating to its band (step function, eight bands).
func TierForRating(rating int) RankTier {
	switch {
	case rating < 1000:
		return TierBronze
	case rating < 1200:
		return TierSilver
	case rating < 1400:
		return TierGold
	case rating < 1600:
		return TierPlatinum
	case rating < 1800:
		return TierDiamond
	case rating < 2000:
		return TierMaster
	case rating < TopBandRating:
		return TierGrandmaster
	default:
		return TierChallenger
	}
}

// MatchSummary is one entry of a player's bounded recent-match history.
type MatchSummary struct {
	RoomID         string    `json:"roomId"`
	OpponentID     string    `json:"opponentId"`
	Outcome        string    `json:"outcome"` // win, loss, draw
	RatingChange   int       `json:"ratingChange"`
	OpponentRating int       `json:"opponentRating"`
	FinishedAt     time.Time `json:"finishedAt"`
}

// RatingPoint is one entry of the bounded rating history.
type RatingPoint struct {
	Rating     int       `json:"rating"`
	RecordedAt time.Time `json:"recordedAt"`
}

const (
	RecentMatchHistorySize = 10
	RatingHistorySize      = 20
)

// RatingRecord is the persisted skill record for one identity. Rating is
// mutated only through the rating service's atomic two-sided update.
type RatingRecord struct {
	PlayerID      string         `db:"player_id" json:"playerId"`
	Rating        int            `db:"rating" json:"rating"`
	RankTier      RankTier       `db:"-" json:"rankTier"`
	TotalMatches  int            `db:"total_matches" json:"totalMatches"`
	Wins          int            `db:"wins" json:"wins"`
	Losses        int            `db:"losses" json:"losses"`
	Draws         int            `db:"draws" json:"draws"`
	WinStreak     int            `db:"win_streak" json:"currentWinStreak"`
	BestWinStreak int            `db:"best_win_streak" json:"bestWinStreak"`
	RecentMatches []MatchSummary `db:"recent_matches" json:"recentMatches"`
	RatingHistory []RatingPoint  `db:"rating_history" json:"ratingHistory"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updatedAt"`
}

// Provisional reports whether the player still uses the high K-factor.
func (r *RatingRecord) Provisional() bool {
	return r.TotalMatches < 30
}

// AppliedRating reports one side of a finished-match update.
type AppliedRating struct {
	PlayerID     string   `json:"playerId"`
	RatingBefore int      `json:"ratingBefore"`
	RatingAfter  int      `json:"ratingAfter"`
	Delta        int      `json:"delta"`
	RankTier     RankTier `json:"rankTier"`
}

// MatchRatingResult is the atomic outcome of both sides' updates.
type MatchRatingResult struct {
	RoomID  string        `json:"roomId"`
	PlayerA AppliedRating `json:"playerA"`
	PlayerB AppliedRating `json:"playerB"`
}
