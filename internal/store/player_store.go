package store

import (
	"context"

	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
)

// PlayerStore covers players and their tournament registrations.
type PlayerStore struct {
	db *sqlx.DB
}

func NewPlayerStore(db *sqlx.DB) *PlayerStore {
	return &PlayerStore{db: db}
}

func (s *PlayerStore) GetPlayerByEmail(ctx context.Context, email string) (*tournament.Player, error) {
	var player tournament.Player
	err := s.db.GetContext(ctx, &player, "SELECT * FROM players WHERE email = ?", email)
	return &player, err
}

func (s *PlayerStore) GetPlayers(ctx context.Context, ids []string) ([]tournament.Player, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In("SELECT * FROM players WHERE id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	var players []tournament.Player
	err = s.db.SelectContext(ctx, &players, s.db.Rebind(query), args...)
	return players, err
}

func (s *PlayerStore) CreatePlayer(ctx context.Context, tx *sqlx.Tx, player *tournament.Player) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO players (id, first_name, surname, email, created_at)
		VALUES (:id, :first_name, :surname, :email, :created_at)`, player)
	return err
}

func (s *PlayerStore) CreateRegistration(ctx context.Context, tx *sqlx.Tx, reg *tournament.Registration) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO registrations (id, tournament_id, player_id, created_at)
		VALUES (:id, :tournament_id, :player_id, :created_at)`, reg)
	return err
}

// GetRoster returns the registered players in registration order. The
// scheduler's pairing enumeration depends on this order being stable.
func (s *PlayerStore) GetRoster(ctx context.Context, tournamentID string) ([]tournament.Player, error) {
	var players []tournament.Player
	err := s.db.SelectContext(ctx, &players, `SELECT p.id, p.first_name, p.surname, p.email, p.created_at
		FROM registrations r
		JOIN players p ON p.id = r.player_id
		WHERE r.tournament_id = ?
		ORDER BY r.created_at ASC, r.rowid ASC`, tournamentID)
	return players, err
}

func (s *PlayerStore) CountRegistrations(ctx context.Context, tournamentID string) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM registrations WHERE tournament_id = ?", tournamentID)
	return count, err
}

func (s *PlayerStore) IsRegistered(ctx context.Context, tournamentID, playerID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM registrations WHERE tournament_id = ? AND player_id = ?)", tournamentID, playerID)
	return exists, err
}

type RegistrationCount struct {
	TournamentName string `db:"name"`
	Count          int    `db:"count"`
}

func (s *PlayerStore) RegistrationCounts(ctx context.Context) ([]RegistrationCount, error) {
	var counts []RegistrationCount
	err := s.db.SelectContext(ctx, &counts, `SELECT t.name AS name, COUNT(r.id) AS count
		FROM registrations r
		JOIN tournaments t ON t.id = r.tournament_id
		GROUP BY t.id, t.name`)
	return counts, err
}

func (s *PlayerStore) CountAllRegistrations(ctx context.Context) (int, error) {
	var count int
	err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM registrations")
	return count, err
}
