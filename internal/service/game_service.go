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

// GameService owns the game ledger: listing a tournament's games in order
// and recording results.
type GameService struct {
	db      *sqlx.DB
	games   *store.GameStore
	players *store.PlayerStore
}

func NewGameService(db *sqlx.DB, games *store.GameStore, players *store.PlayerStore) *GameService {
	return &GameService{db: db, games: games, players: players}
}

// TournamentGames bundles a tournament's games with the players they
// reference, for the games view.
type TournamentGames struct {
	Games     []tournament.Game
	Players   map[uuid.UUID]tournament.Player
	Completed int
}

func (s *GameService) HasSchedule(ctx context.Context, tournamentID uuid.UUID) (bool, error) {
	return s.games.HasGames(ctx, tournamentID.String())
}

// ListGames returns the tournament's games in ascending game order. Empty
// when the tournament has not been started.
func (s *GameService) ListGames(ctx context.Context, tournamentID uuid.UUID) ([]tournament.Game, error) {
	return s.games.GetGames(ctx, tournamentID.String())
}

func (s *GameService) GetTournamentGames(ctx context.Context, tournamentID uuid.UUID) (*TournamentGames, error) {
	games, err := s.games.GetGames(ctx, tournamentID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	playerIDs := make([]string, 0, len(games)*2)
	seen := make(map[uuid.UUID]bool)
	completed := 0
	for _, g := range games {
		if g.IsCompleted() {
			completed++
		}
		for _, id := range []uuid.UUID{g.Player1ID, g.Player2ID} {
			if !seen[id] {
				seen[id] = true
				playerIDs = append(playerIDs, id.String())
			}
		}
	}

	playerList, err := s.players.GetPlayers(ctx, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get players: %w", err)
	}

	playerMap := make(map[uuid.UUID]tournament.Player, len(playerList))
	for _, p := range playerList {
		playerMap[p.ID] = p
	}

	return &TournamentGames{
		Games:     games,
		Players:   playerMap,
		Completed: completed,
	}, nil
}

// RecordResult sets both scores, marks the game completed and stamps the
// time it was played. Recording over an already completed game overwrites
// the previous result.
func (s *GameService) RecordResult(ctx context.Context, gameID uuid.UUID, player1Score, player2Score int) (*tournament.Game, error) {
	if player1Score < 0 || player2Score < 0 {
		return nil, ErrInvalidScore
	}

	game, err := s.games.GetGame(ctx, gameID.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	game.Player1Score = utils.Ptr(player1Score)
	game.Player2Score = utils.Ptr(player2Score)
	game.Status = tournament.GameCompleted
	game.PlayedAt = utils.Ptr(time.Now().UTC())

	if err := s.games.UpdateGameResult(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to update game: %w", err)
	}

	return game, nil
}
