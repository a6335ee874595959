package store

import (
	"context"

	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, `INSERT INTO tournaments (id, name, description, date, start_time, location, max_entrants, created_at)
		VALUES (:id, :name, :description, :date, :start_time, :location, :max_entrants, :created_at)`, t)
	return err
}

func (s *TournamentStore) UpdateTournament(ctx context.Context, t *tournament.Tournament) error {
	_, err := s.db.NamedExecContext(ctx, `UPDATE tournaments SET
		name = :name,
		description = :description,
		date = :date,
		start_time = :start_time,
		location = :location,
		max_entrants = :max_entrants
		WHERE id = :id`, t)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id string) (*tournament.Tournament, error) {
	var t tournament.Tournament
	err := s.db.GetContext(ctx, &t, "SELECT * FROM tournaments WHERE id = ?", id)
	return &t, err
}

func (s *TournamentStore) GetTournaments(ctx context.Context) ([]tournament.Tournament, error) {
	var tournaments []tournament.Tournament
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments ORDER BY date ASC")
	return tournaments, err
}

// DeleteTournament removes the tournament row; registrations go with it
// through the foreign key cascade.
func (s *TournamentStore) DeleteTournament(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM tournaments WHERE id = ?", id)
	return err
}
