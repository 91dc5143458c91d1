package service

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Sudharsanv06/N-queens-game-sub001/internal/game"
	"github.com/Sudharsanv06/N-queens-game-sub001/internal/models"
)

// RoomCreator is the slice of the room manager the queue needs: spawn a
// room for a matched pair and reject players who are already playing.
type RoomCreator interface {
	CreateRoom(matchType models.MatchType, p1, p2 game.PlayerInfo) (*game.Room, error)
	HasActiveRoom(playerID string) bool
}

// ratingSource loads (or initializes) a player's rating for queue
// admission.
type ratingSource interface {
	GetOrCreate(playerID string) (*models.RatingRecord, error)
}

// QueueConfig tunes the matchmaking sweep.
type QueueConfig struct {
	SweepInterval time.Duration // how often pairing runs
	ToleranceBase int           // initial acceptable rating distance
	WidenPerSec   int           // window growth per waiting second
	MaxWait       time.Duration // after this, pair with the closest rating
}

// DefaultQueueConfig mirrors the product defaults.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		SweepInterval: 2 * time.Second,
		ToleranceBase: 200,
		WidenPerSec:   10,
		MaxWait:       2 * time.Minute,
	}
}

// QueueService holds the in-memory matchmaking queues, one per match
// type. Entries are ephemeral: a restart empties every queue and clients
// simply re-join.
type QueueService struct {
	creator RoomCreator
	ratings ratingSource
	config  QueueConfig
	logger  *zap.Logger

	mu       sync.Mutex
	queues   map[string][]*models.QueueEntry
	byPlayer map[string]string

	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
	runMu    sync.Mutex
}

func NewQueueService(creator RoomCreator, ratings ratingSource, config QueueConfig, logger *zap.Logger) *QueueService {
	queues := make(map[string][]*models.QueueEntry, len(models.MatchTypes))
	for name := range models.MatchTypes {
		queues[name] = nil
	}

	return &QueueService{
		creator:  creator,
		ratings:  ratings,
		config:   config,
		logger:   logger,
		queues:   queues,
		byPlayer: make(map[string]string),
		stopChan: make(chan struct{}),
	}
}

// Start launches the periodic pairing sweep.
func (s *QueueService) Start() {
	s.runMu.Lock()
	if s.running {
		s.runMu.Unlock()
		return
	}
	s.running = true
	s.runMu.Unlock()

	s.logger.Info("Starting matchmaking sweep",
		zap.Duration("interval", s.config.SweepInterval))

	s.wg.Add(1)
	go s.sweepLoop()
}

// Stop halts the sweep. Queued entries are discarded with the process.
func (s *QueueService) Stop() {
	s.runMu.Lock()
	if !s.running {
		s.runMu.Unlock()
		return
	}
	s.running = false
	s.runMu.Unlock()

	close(s.stopChan)
	s.wg.Wait()
	s.logger.Info("Matchmaking sweep stopped")
}

func (s *QueueService) sweepLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopChan:
			return
		}
	}
}

// Enqueue admits a player to the queue for the given match type. The
// rating snapshot taken here is what matchmaking compares; a concurrent
// rating change does not re-sort existing entries.
func (s *QueueService) Enqueue(playerID, username, matchType string) (*models.QueueStatus, error) {
	if _, ok := models.MatchTypes[matchType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatchType, matchType)
	}

	if s.creator.HasActiveRoom(playerID) {
		return nil, game.ErrAlreadyInRoom
	}

	record, err := s.ratings.GetOrCreate(playerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating for queue admission: %w", err)
	}

	s.mu.Lock()
	if _, queued := s.byPlayer[playerID]; queued {
		s.mu.Unlock()
		return nil, ErrAlreadyQueued
	}

	entry := &models.QueueEntry{
		PlayerID:      playerID,
		Username:      username,
		Rating:        record.Rating,
		RankTier:      models.TierForRating(record.Rating),
		MatchType:     matchType,
		QueuedAt:      time.Now(),
		ToleranceBase: s.config.ToleranceBase,
		MaxWait:       s.config.MaxWait,
	}
	s.queues[matchType] = append(s.queues[matchType], entry)
	s.byPlayer[playerID] = matchType

	status := s.statusLocked(entry)
	s.mu.Unlock()

	s.logger.Info("Player queued",
		zap.String("playerId", playerID),
		zap.String("matchType", matchType),
		zap.Int("rating", entry.Rating))

	// An immediate pass catches the common case of a compatible opponent
	// already waiting.
	s.Sweep()

	return status, nil
}

// Dequeue removes a player from whichever queue holds them.
func (s *QueueService) Dequeue(playerID string) error {
	s.mu.Lock()
	matchType, queued := s.byPlayer[playerID]
	if !queued {
		s.mu.Unlock()
		return ErrNotInQueue
	}
	s.removeLocked(playerID, matchType)
	s.mu.Unlock()

	s.logger.Info("Player left queue",
		zap.String("playerId", playerID),
		zap.String("matchType", matchType))
	return nil
}

// StatusFor reports the player's queue position and current window.
func (s *QueueService) StatusFor(playerID string) (*models.QueueStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matchType, queued := s.byPlayer[playerID]
	if !queued {
		return nil, ErrNotInQueue
	}

	for _, entry := range s.queues[matchType] {
		if entry.PlayerID == playerID {
			return s.statusLocked(entry), nil
		}
	}
	return nil, ErrNotInQueue
}

// Depth returns the number of waiting players per match type.
func (s *QueueService) Depth() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()

	depth := make(map[string]int, len(s.queues))
	for name, entries := range s.queues {
		depth[name] = len(entries)
	}
	return depth
}

func (s *QueueService) statusLocked(entry *models.QueueEntry) *models.QueueStatus {
	queue := s.queues[entry.MatchType]
	position := 0
	for i, e := range queue {
		if e.PlayerID == entry.PlayerID {
			position = i + 1
			break
		}
	}

	waited := time.Since(entry.QueuedAt)
	return &models.QueueStatus{
		PlayerID:      entry.PlayerID,
		MatchType:     entry.MatchType,
		Position:      position,
		QueueDepth:    len(queue),
		Waited:        waited,
		WaitedSeconds: int(waited.Seconds()),
		CurrentWindow: entry.Window(waited, s.config.WidenPerSec),
		EstimatedWait: int(s.config.SweepInterval.Seconds()) * position,
	}
}

func (s *QueueService) removeLocked(playerID, matchType string) {
	queue := s.queues[matchType]
	for i, entry := range queue {
		if entry.PlayerID == playerID {
			s.queues[matchType] = append(queue[:i], queue[i+1:]...)
			break
		}
	}
	delete(s.byPlayer, playerID)
}

// Sweep runs one pairing pass over every queue.
func (s *QueueService) Sweep() {
	now := time.Now()

	s.mu.Lock()
	var pairs [][2]*models.QueueEntry
	for matchType := range s.queues {
		pairs = append(pairs, s.pairLocked(matchType, now)...)
	}
	s.mu.Unlock()

	for _, pair := range pairs {
		s.createRoom(pair[0], pair[1])
	}
}

// pairLocked matches seekers inside one queue. Every entry gets a turn
// as seeker, earliest-queued first; each takes the compatible opponent
// with the smallest rating distance. An entry past its maximum wait
// takes the closest opponent regardless of windows, wherever it sits in
// the queue (a re-queue after a failed room puts it at the tail).
func (s *QueueService) pairLocked(matchType string, now time.Time) [][2]*models.QueueEntry {
	var pairs [][2]*models.QueueEntry

	for {
		queue := s.queues[matchType]
		matched := false

		for i := 0; i < len(queue) && !matched; i++ {
			seeker := queue[i]
			forced := now.Sub(seeker.QueuedAt) >= seeker.MaxWait

			var best *models.QueueEntry
			bestDiff := 0
			for j, candidate := range queue {
				if j == i {
					continue
				}
				diff := seeker.Rating - candidate.Rating
				if diff < 0 {
					diff = -diff
				}
				if !forced {
					// The pairing must fit both windows.
					if diff > seeker.Window(now.Sub(seeker.QueuedAt), s.config.WidenPerSec) {
						continue
					}
					if diff > candidate.Window(now.Sub(candidate.QueuedAt), s.config.WidenPerSec) {
						continue
					}
				}
				if best == nil || diff < bestDiff {
					best = candidate
					bestDiff = diff
				}
			}

			if best == nil {
				continue
			}

			// Remove both before the room exists so no other pass sees
			// them.
			s.removeLocked(seeker.PlayerID, matchType)
			s.removeLocked(best.PlayerID, matchType)
			pairs = append(pairs, [2]*models.QueueEntry{seeker, best})
			matched = true
		}

		if !matched {
			return pairs
		}
	}
}

func (s *QueueService) createRoom(a, b *models.QueueEntry) {
	matchType := models.MatchTypes[a.MatchType]

	room, err := s.creator.CreateRoom(matchType,
		game.PlayerInfo{ID: a.PlayerID, Username: a.Username, Rating: a.Rating},
		game.PlayerInfo{ID: b.PlayerID, Username: b.Username, Rating: b.Rating})
	if err != nil {
		s.logger.Error("Room creation failed, re-queueing pair",
			zap.String("matchType", a.MatchType),
			zap.String("player1", a.PlayerID),
			zap.String("player2", b.PlayerID),
			zap.Error(err))

		s.mu.Lock()
		for _, entry := range []*models.QueueEntry{a, b} {
			if _, queued := s.byPlayer[entry.PlayerID]; !queued {
				s.queues[entry.MatchType] = append(s.queues[entry.MatchType], entry)
				s.byPlayer[entry.PlayerID] = entry.MatchType
			}
		}
		s.mu.Unlock()
		return
	}

	diff := a.Rating - b.Rating
	if diff < 0 {
		diff = -diff
	}
	s.logger.Info("Pair matched",
		zap.String("roomId", room.ID),
		zap.String("matchType", a.MatchType),
		zap.String("player1", a.PlayerID),
		zap.String("player2", b.PlayerID),
		zap.Int("ratingDiff", diff))
}
