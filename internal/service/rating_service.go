package service

import (
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/repository"
)

// K-factor bands. Provisional players converge fast, top-band players
// move slowly.
const (
	kProvisional = 40.0
	kTopBand     = 16.0
	kEstablished = 24.0

	provisionalMatchCount = 30
)

// ratingApplyAttempts bounds retries of the two-sided update. A partial
// update is a fatal consistency failure, so the whole transaction is
// retried, never split.
const ratingApplyAttempts = 3

// RatingService owns every rating mutation. Ratings change only through
// ApplyMatchResult; nothing else writes to rating records.
type RatingService struct {
	ratingRepo *repository.RatingRepository
	logger     *zap.Logger
}

func NewRatingService(ratingRepo *repository.RatingRepository, logger *zap.Logger) *RatingService {
	return &RatingService{
		ratingRepo: ratingRepo,
		logger:     logger,
	}
}

// ExpectedScore is the classic ELO win expectancy for a against b.
func (s *RatingService) ExpectedScore(ratingA, ratingB int) float64 {
	return 1.0 / (1.0 + math.Pow(10, float64(ratingB-ratingA)/400.0))
}

// KFactor selects the update sensitivity: 40 while provisional, 16 at or
// above the top band, 24 otherwise.
func (s *RatingService) KFactor(totalMatches, rating int) float64 {
	if totalMatches < provisionalMatchCount {
		return kProvisional
	}
	if rating >= models.TopBandRating {
		return kTopBand
	}
	return kEstablished
}

// Delta is the rating change for one participant given the actual score
// (1 win, 0.5 draw, 0 loss) against an opponent rating. Both sides must
// be computed from pre-match ratings so results are order-independent.
func (s *RatingService) Delta(rating, opponentRating, totalMatches int, actualScore float64) int {
	k := s.KFactor(totalMatches, rating)
	expected := s.ExpectedScore(rating, opponentRating)
	return int(math.Round(k * (actualScore - expected)))
}

// ApplyMatchResult updates both participants after a finished match.
// winnerID nil means a draw. Deltas come from pre-match ratings and both
// records are written in one transaction; on persistent failure the
// caller receives ErrRatingUpdateFailed and must retry the finish step.
func (s *RatingService) ApplyMatchResult(roomID, playerAID, playerBID string, winnerID *string, finishedAt time.Time) (*models.MatchRatingResult, error) {
	recordA, err := s.ratingRepo.GetOrCreate(playerAID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating for %s: %w", playerAID, err)
	}
	recordB, err := s.ratingRepo.GetOrCreate(playerBID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating for %s: %w", playerBID, err)
	}

	scoreA := 0.5
	if winnerID != nil {
		if *winnerID == playerAID {
			scoreA = 1.0
		} else {
			scoreA = 0.0
		}
	}
	scoreB := 1.0 - scoreA

	// Both deltas from pre-match ratings, not sequentially.
	beforeA := recordA.Rating
	beforeB := recordB.Rating
	deltaA := s.Delta(beforeA, beforeB, recordA.TotalMatches, scoreA)
	deltaB := s.Delta(beforeB, beforeA, recordB.TotalMatches, scoreB)

	s.applyOutcome(recordA, roomID, recordB.PlayerID, beforeB, scoreA, deltaA, finishedAt)
	s.applyOutcome(recordB, roomID, recordA.PlayerID, beforeA, scoreB, deltaB, finishedAt)

	var applyErr error
	for attempt := 1; attempt <= ratingApplyAttempts; attempt++ {
		applyErr = s.ratingRepo.ApplyMatchResult(recordA, recordB)
		if applyErr == nil {
			break
		}
		s.logger.Warn("Rating update attempt failed",
			zap.String("roomId", roomID),
			zap.Int("attempt", attempt),
			zap.Error(applyErr))
	}
	if applyErr != nil {
		s.logger.Error("Rating update failed after retries",
			zap.String("roomId", roomID),
			zap.String("playerA", playerAID),
			zap.String("playerB", playerBID),
			zap.Error(applyErr))
		return nil, fmt.Errorf("%w: %v", ErrRatingUpdateFailed, applyErr)
	}

	s.logger.Info("Ratings applied",
		zap.String("roomId", roomID),
		zap.String("playerA", playerAID),
		zap.Int("deltaA", deltaA),
		zap.String("playerB", playerBID),
		zap.Int("deltaB", deltaB))

	return &models.MatchRatingResult{
		RoomID:  roomID,
		PlayerA: models.AppliedRating{
			PlayerID:     playerAID,
			RatingBefore: beforeA,
			RatingAfter:  recordA.Rating,
			Delta:        deltaA,
			RankTier:     recordA.RankTier,
		},
		PlayerB: models.AppliedRating{
			PlayerID:     playerBID,
			RatingBefore: beforeB,
			RatingAfter:  recordB.Rating,
			Delta:        deltaB,
			RankTier:     recordB.RankTier,
		},
	}, nil
}

// applyOutcome folds one finished match into a record: rating, counters,
// streaks, and the two bounded histories.
func (s *RatingService) applyOutcome(record *models.RatingRecord, roomID, opponentID string, opponentRating int, score float64, delta int, finishedAt time.Time) {
	record.Rating += delta
	record.RankTier = models.TierForRating(record.Rating)
	record.TotalMatches++

	outcome := "draw"
	switch score {
	case 1.0:
		outcome = "win"
		record.Wins++
		record.WinStreak++
		if record.WinStreak > record.BestWinStreak {
			record.BestWinStreak = record.WinStreak
		}
	case 0.0:
		outcome = "loss"
		record.Losses++
		record.WinStreak = 0
	default:
		record.Draws++
		record.WinStreak = 0
	}

	summary := models.MatchSummary{
		RoomID:         roomID,
		OpponentID:     opponentID,
		Outcome:        outcome,
		RatingChange:   delta,
		OpponentRating: opponentRating,
		FinishedAt:     finishedAt,
	}
	record.RecentMatches = append([]models.MatchSummary{summary}, record.RecentMatches...)
	if len(record.RecentMatches) > models.RecentMatchHistorySize {
		record.RecentMatches = record.RecentMatches[:models.RecentMatchHistorySize]
	}

	record.RatingHistory = append(record.RatingHistory, models.RatingPoint{
		Rating:     record.Rating,
		RecordedAt: finishedAt,
	})
	if len(record.RatingHistory) > models.RatingHistorySize {
		record.RatingHistory = record.RatingHistory[len(record.RatingHistory)-models.RatingHistorySize:]
	}
}

// RatingPreview shows the possible deltas against a hypothetical
// opponent. No draw probability is derived from the rating difference.
type RatingPreview struct {
	Rating         int     `json:"rating"`
	OpponentRating int     `json:"opponentRating"`
	ExpectedScore  float64 `json:"expectedScore"`
	WinDelta       int     `json:"winDelta"`
	DrawDelta      int     `json:"drawDelta"`
	LossDelta      int     `json:"lossDelta"`
}

// Preview computes the three possible deltas for a player of the given
// rating and match count against opponentRating.
func (s *RatingService) Preview(rating, opponentRating, totalMatches int) RatingPreview {
	return RatingPreview{
		Rating:         rating,
		OpponentRating: opponentRating,
		ExpectedScore:  s.ExpectedScore(rating, opponentRating),
		WinDelta:       s.Delta(rating, opponentRating, totalMatches, 1.0),
		DrawDelta:      s.Delta(rating, opponentRating, totalMatches, 0.5),
		LossDelta:      s.Delta(rating, opponentRating, totalMatches, 0.0),
	}
}

// RecordFor returns the player's record, ErrRatingNotFound when absent.
func (s *RatingService) RecordFor(playerID string) (*models.RatingRecord, error) {
	record, err := s.ratingRepo.FindByID(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get rating record: %w", err)
	}
	if record == nil {
		return nil, ErrRatingNotFound
	}
	return record, nil
}

// GetOrCreate loads (or initializes) the record for queue admission.
func (s *RatingService) GetOrCreate(playerID string) (*models.RatingRecord, error) {
	return s.ratingRepo.GetOrCreate(playerID)
}

// Leaderboard returns one page of players sorted by rating.
func (s *RatingService) Leaderboard(page, pageSize int) ([]*models.RatingRecord, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	return s.ratingRepo.Leaderboard(pageSize, offset)
}
