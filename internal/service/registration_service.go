package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
)

// RegistrationService signs players up for tournaments. Registration
// closes once a tournament's schedule exists.
type RegistrationService struct {
	db          *sqlx.DB
	players     *store.PlayerStore
	games       *store.GameStore
	tournaments *store.TournamentStore
}

func NewRegistrationService(db *sqlx.DB, players *store.PlayerStore, games *store.GameStore, tournaments *store.TournamentStore) *RegistrationService {
	return &RegistrationService{db: db, players: players, games: games, tournaments: tournaments}
}

func (s *RegistrationService) Register(ctx context.Context, tournamentID uuid.UUID, firstName, surname, email string) (*tournament.Registration, error) {
	t, err := s.tournaments.GetTournament(ctx, tournamentID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	started, err := s.games.HasGames(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check tournament state: %w", err)
	}
	if started {
		return nil, ErrRegistrationClosed
	}

	count, err := s.players.CountRegistrations(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to count registrations: %w", err)
	}
	if count >= t.MaxEntrants {
		return nil, ErrTournamentFull
	}

	email = strings.ToLower(strings.TrimSpace(email))

	player, err := s.players.GetPlayerByEmail(ctx, email)
	newPlayer := false
	if errors.Is(err, sql.ErrNoRows) {
		newPlayer = true
		player = &tournament.Player{
			ID:        uuid.New(),
			FirstName: firstName,
			Surname:   surname,
			Email:     email,
			CreatedAt: time.Now().UTC(),
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to look up player: %w", err)
	}

	if !newPlayer {
		registered, err := s.players.IsRegistered(ctx, tournamentID.String(), player.ID.String())
		if err != nil {
			return nil, fmt.Errorf("failed to check registration: %w", err)
		}
		if registered {
			return nil, ErrAlreadyRegistered
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if newPlayer {
		if err := s.players.CreatePlayer(ctx, tx, player); err != nil {
			return nil, fmt.Errorf("failed to create player: %w", err)
		}
	}

	reg := &tournament.Registration{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		PlayerID:     player.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.players.CreateRegistration(ctx, tx, reg); err != nil {
		return nil, fmt.Errorf("failed to create registration: %w", err)
	}

	return reg, tx.Commit()
}

// Roster returns the registered players in registration order, the order
// the scheduler pairs them in.
func (s *RegistrationService) Roster(ctx context.Context, tournamentID uuid.UUID) ([]tournament.Player, error) {
	return s.players.GetRoster(ctx, tournamentID.String())
}

func (s *RegistrationService) RegistrationCounts(ctx context.Context) (map[string]int, error) {
	rows, err := s.players.RegistrationCounts(ctx)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.TournamentName] = row.Count
	}
	return counts, nil
}

func (s *RegistrationService) CountAll(ctx context.Context) (int, error) {
	return s.players.CountAllRegistrations(ctx)
}
