package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
)

// ScheduleService generates the round-robin schedule for a tournament.
// Generation is one-shot: once a tournament has games, further attempts
// fail with ErrAlreadyScheduled.
type ScheduleService struct {
	db          *sqlx.DB
	games       *store.GameStore
	players     *store.PlayerStore
	tournaments *store.TournamentStore

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewScheduleService(db *sqlx.DB, games *store.GameStore, players *store.PlayerStore, tournaments *store.TournamentStore) *ScheduleService {
	return &ScheduleService{
		db:          db,
		games:       games,
		players:     players,
		tournaments: tournaments,
		locks:       make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *ScheduleService) tournamentLock(id uuid.UUID) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

// StartTournament creates every pairwise game for the tournament's roster.
// Each player meets every other player exactly once, with game order
// following the roster's registration order.
func (s *ScheduleService) StartTournament(ctx context.Context, tournamentID uuid.UUID) ([]tournament.Game, error) {
	// Serialize check-and-create per tournament so two concurrent starts
	// cannot both pass the existence check.
	lock := s.tournamentLock(tournamentID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.tournaments.GetTournament(ctx, tournamentID.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	roster, err := s.players.GetRoster(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get roster: %w", err)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	started, err := s.games.HasGamesTx(ctx, tx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check existing games: %w", err)
	}
	if started {
		return nil, ErrAlreadyScheduled
	}

	if len(roster) < 2 {
		return nil, ErrInsufficientPlayers
	}

	games := buildRoundRobin(tournamentID, roster)

	if err := s.games.CreateGames(ctx, tx, games); err != nil {
		return nil, fmt.Errorf("failed to create games: %w", err)
	}

	return games, tx.Commit()
}

// buildRoundRobin enumerates every unordered pair (i, j) with i < j in
// roster order. For N players this yields N*(N-1)/2 games numbered 1..N*(N-1)/2.
func buildRoundRobin(tournamentID uuid.UUID, roster []tournament.Player) []tournament.Game {
	now := time.Now().UTC()
	games := make([]tournament.Game, 0, len(roster)*(len(roster)-1)/2)

	order := 1
	for i := 0; i < len(roster); i++ {
		for j := i + 1; j < len(roster); j++ {
			games = append(games, tournament.Game{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Player1ID:    roster[i].ID,
				Player2ID:    roster[j].ID,
				GameOrder:    order,
				Status:       tournament.GameScheduled,
				CreatedAt:    now,
			})
			order++
		}
	}

	return games
}
