package store

import (
	"context"

	"github.com/grahamford77/table-tennis/internal/tournament"
	"github.com/jmoiron/sqlx"
)

// GameStore owns the games table, the authoritative record of every
// scheduled game and its result.
type GameStore struct {
	db *sqlx.DB
}

func NewGameStore(db *sqlx.DB) *GameStore {
	return &GameStore{db: db}
}

func (s *GameStore) CreateGames(ctx context.Context, tx *sqlx.Tx, games []tournament.Game) error {
	if len(games) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO games (id, tournament_id, player1_id, player2_id, game_order, player1_score, player2_score, status, created_at)
		VALUES (:id, :tournament_id, :player1_id, :player2_id, :game_order, :player1_score, :player2_score, :status, :created_at)`, games)
	return err
}

func (s *GameStore) HasGames(ctx context.Context, tournamentID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM games WHERE tournament_id = ?)", tournamentID)
	return exists, err
}

func (s *GameStore) HasGamesTx(ctx context.Context, tx *sqlx.Tx, tournamentID string) (bool, error) {
	var exists bool
	err := tx.GetContext(ctx, &exists, "SELECT EXISTS (SELECT 1 FROM games WHERE tournament_id = ?)", tournamentID)
	return exists, err
}

func (s *GameStore) GetGames(ctx context.Context, tournamentID string) ([]tournament.Game, error) {
	var games []tournament.Game
	err := s.db.SelectContext(ctx, &games, "SELECT * FROM games WHERE tournament_id = ? ORDER BY game_order ASC", tournamentID)
	return games, err
}

func (s *GameStore) GetGame(ctx context.Context, id string) (*tournament.Game, error) {
	var game tournament.Game
	err := s.db.GetContext(ctx, &game, "SELECT * FROM games WHERE id = ?", id)
	return &game, err
}

func (s *GameStore) UpdateGameResult(ctx context.Context, game *tournament.Game) error {
	_, err := s.db.NamedExecContext(ctx, `UPDATE games SET
		player1_score = :player1_score,
		player2_score = :player2_score,
		status = :status,
		played_at = :played_at
		WHERE id = :id`, game)
	return err
}
