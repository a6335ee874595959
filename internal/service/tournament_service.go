package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/grahamford77/table-tennis/internal/utils"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	db          *sqlx.DB
	tournaments *store.TournamentStore
	games       *store.GameStore
}

func NewTournamentService(db *sqlx.DB, tournaments *store.TournamentStore, games *store.GameStore) *TournamentService {
	return &TournamentService{db: db, tournaments: tournaments, games: games}
}

type TournamentInput struct {
	Name        string
	Description string
	Date        time.Time
	StartTime   string
	Location    string
	MaxEntrants int
}

func (s *TournamentService) CreateTournament(ctx context.Context, input TournamentInput) (*tournament.Tournament, error) {
	t := &tournament.Tournament{
		ID:          uuid.New(),
		Name:        input.Name,
		Description: utils.StringOrNil(input.Description),
		Date:        input.Date,
		StartTime:   input.StartTime,
		Location:    input.Location,
		MaxEntrants: input.MaxEntrants,
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.tournaments.CreateTournament(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return t, nil
}

func (s *TournamentService) UpdateTournament(ctx context.Context, id uuid.UUID, input TournamentInput) (*tournament.Tournament, error) {
	t, err := s.tournaments.GetTournament(ctx, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, fmt.Errorf("failed to get tournament: %w", err)
	}

	t.Name = input.Name
	t.Description = utils.StringOrNil(input.Description)
	t.Date = input.Date
	t.StartTime = input.StartTime
	t.Location = input.Location
	t.MaxEntrants = input.MaxEntrants

	if err := s.tournaments.UpdateTournament(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to update tournament: %w", err)
	}
	return t, nil
}

func (s *TournamentService) GetTournament(ctx context.Context, id uuid.UUID) (*tournament.Tournament, error) {
	t, err := s.tournaments.GetTournament(ctx, id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return t, nil
}

func (s *TournamentService) GetTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	return s.tournaments.GetTournaments(ctx)
}

// DeleteTournament refuses to delete a tournament whose schedule exists.
func (s *TournamentService) DeleteTournament(ctx context.Context, id uuid.UUID) error {
	if _, err := s.tournaments.GetTournament(ctx, id.String()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to get tournament: %w", err)
	}

	started, err := s.games.HasGames(ctx, id.String())
	if err != nil {
		return fmt.Errorf("failed to check tournament state: %w", err)
	}
	if started {
		return ErrTournamentStarted
	}

	return s.tournaments.DeleteTournament(ctx, id.String())
}

// CountActiveTournaments counts tournaments starting within the next two
// weeks, for the admin dashboard.
func (s *TournamentService) CountActiveTournaments(ctx context.Context) (int, error) {
	tournaments, err := s.tournaments.GetTournaments(ctx)
	if err != nil {
		return 0, err
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	twoWeeksFromNow := today.AddDate(0, 0, 14)

	count := 0
	for _, t := range tournaments {
		if !t.Date.Before(today) && !t.Date.After(twoWeeksFromNow) {
			count++
		}
	}
	return count, nil
}
