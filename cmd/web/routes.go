package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/grahamford77/table-tennis/internal/db"
	"github.com/grahamford77/table-tennis/internal/httputil"
	"github.com/grahamford77/table-tennis/internal/mail"
	"github.com/grahamford77/table-tennis/internal/middleware"
	"github.com/grahamford77/table-tennis/internal/service"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/grahamford77/table-tennis/internal/utils"
	"github.com/jmoiron/sqlx"
)

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type tournamentRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	MaxEntrants int    `json:"maxEntrants"`
}

func (req *tournamentRequest) toInput() (service.TournamentInput, error) {
	if req.Name == "" || req.Location == "" {
		return service.TournamentInput{}, errors.New("name and location are required")
	}
	if req.MaxEntrants <= 0 {
		return service.TournamentInput{}, errors.New("maximum entrants must be a positive number")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return service.TournamentInput{}, errors.New("date must be in YYYY-MM-DD format")
	}
	return service.TournamentInput{
		Name:        req.Name,
		Description: req.Description,
		Date:        date,
		StartTime:   req.Time,
		Location:    req.Location,
		MaxEntrants: req.MaxEntrants,
	}, nil
}

type gameView struct {
	ID           uuid.UUID  `json:"id"`
	GameOrder    int        `json:"gameOrder"`
	Player1Name  string     `json:"player1Name"`
	Player2Name  string     `json:"player2Name"`
	Player1Score *int       `json:"player1Score"`
	Player2Score *int       `json:"player2Score"`
	Status       string     `json:"status"`
	PlayedAt     *time.Time `json:"playedAt"`
}

func toGameViews(data *service.TournamentGames) []gameView {
	views := make([]gameView, 0, len(data.Games))
	for _, g := range data.Games {
		p1 := data.Players[g.Player1ID]
		p2 := data.Players[g.Player2ID]
		views = append(views, gameView{
			ID:           g.ID,
			GameOrder:    g.GameOrder,
			Player1Name:  p1.FullName(),
			Player2Name:  p2.FullName(),
			Player1Score: g.Player1Score,
			Player2Score: g.Player2Score,
			Status:       string(g.Status),
			PlayedAt:     g.PlayedAt,
		})
	}
	return views
}

func newRouter(sessionManager *scs.SessionManager) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	// One instance for the whole process: its per-tournament locks are what
	// keep concurrent start requests from double-scheduling.
	scheduleService := service.NewScheduleService(db.GetDB(),
		store.NewGameStore(db.GetDB()), store.NewPlayerStore(db.GetDB()), store.NewTournamentStore(db.GetDB()))

	r.Post("/login", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		userService := service.NewUserService(dbConn, store.NewUserStore(dbConn))

		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		user, err := userService.Authenticate(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, service.ErrInvalidCredentials) {
				httputil.BadRequest(w, err.Error(), nil)
				return
			}
			httputil.InternalServerError(w, "Failed to log in", err)
			return
		}

		sessionManager.Put(r.Context(), "userID", user.ID.String())
		httputil.Success(w, "Logged in")
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		sessionManager.Destroy(r.Context())
		httputil.Success(w, "Logged out")
	})

	r.Post("/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		resetService := newPasswordResetService(dbConn)

		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}

		if err := resetService.RequestReset(r.Context(), req.Email); err != nil {
			httputil.InternalServerError(w, "Failed to process password reset", err)
			return
		}
		httputil.Success(w, "If an account exists for that email, a reset link has been sent")
	})

	r.Post("/reset-password", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		resetService := newPasswordResetService(dbConn)

		var req struct {
			Token    string `json:"token"`
			Password string `json:"password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if len(req.Password) < 8 {
			httputil.BadRequest(w, "Password must be at least 8 characters", nil)
			return
		}

		if err := resetService.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
			if errors.Is(err, service.ErrInvalidResetToken) {
				httputil.BadRequest(w, err.Error(), nil)
				return
			}
			httputil.InternalServerError(w, "Failed to reset password", err)
			return
		}
		httputil.Success(w, "Password updated")
	})

	r.Get("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		tournamentService := newTournamentService(dbConn)

		tournaments, err := tournamentService.GetTournaments(r.Context())
		if err != nil {
			httputil.InternalServerError(w, "Failed to get tournaments", err)
			return
		}
		httputil.OK(w, tournaments)
	})

	r.Post("/register", func(w http.ResponseWriter, r *http.Request) {
		dbConn := db.GetDB()
		registrationService := newRegistrationService(dbConn)

		var req struct {
			TournamentID string `json:"tournamentId"`
			FirstName    string `json:"firstName"`
			Surname      string `json:"surname"`
			Email        string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		if req.FirstName == "" || req.Surname == "" || req.Email == "" {
			httputil.BadRequest(w, "First name, surname and email are required", nil)
			return
		}
		tournamentID, err := uuid.Parse(req.TournamentID)
		if err != nil {
			httputil.BadRequest(w, "Invalid tournament ID", err)
			return
		}

		if _, err := registrationService.Register(r.Context(), tournamentID, req.FirstName, req.Surname, req.Email); err != nil {
			switch {
			case errors.Is(err, service.ErrTournamentNotFound):
				httputil.NotFound(w, err.Error(), nil)
			case errors.Is(err, service.ErrRegistrationClosed),
				errors.Is(err, service.ErrTournamentFull),
				errors.Is(err, service.ErrAlreadyRegistered):
				httputil.Conflict(w, err.Error())
			default:
				httputil.InternalServerError(w, "Failed to register", err)
			}
			return
		}
		httputil.Success(w, "Registration complete")
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(sessionManager, store.NewUserStore(db.GetDB())))
		r.Use(middleware.RequireAdmin)

		r.Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := newTournamentService(dbConn)
			registrationService := newRegistrationService(dbConn)

			tournaments, err := tournamentService.GetTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to get tournaments", err)
				return
			}
			totalRegistrations, err := registrationService.CountAll(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to count registrations", err)
				return
			}
			activeTournaments, err := tournamentService.CountActiveTournaments(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to count active tournaments", err)
				return
			}
			counts, err := registrationService.RegistrationCounts(r.Context())
			if err != nil {
				httputil.InternalServerError(w, "Failed to get registration counts", err)
				return
			}

			httputil.OK(w, map[string]any{
				"totalTournaments":   len(tournaments),
				"totalRegistrations": totalRegistrations,
				"activeTournaments":  activeTournaments,
				"tournamentCounts":   counts,
				"tournaments":        tournaments,
			})
		})

		r.Post("/admin/tournaments", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := newTournamentService(dbConn)

			var req tournamentRequest
			if err := decodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			input, err := req.toInput()
			if err != nil {
				httputil.BadRequest(w, err.Error(), nil)
				return
			}

			t, err := tournamentService.CreateTournament(r.Context(), input)
			if err != nil {
				httputil.InternalServerError(w, "Failed to create tournament", err)
				return
			}
			httputil.OK(w, t)
		})

		r.Post("/admin/tournaments/{id}/edit", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := newTournamentService(dbConn)

			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}
			var req tournamentRequest
			if err := decodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			input, err := req.toInput()
			if err != nil {
				httputil.BadRequest(w, err.Error(), nil)
				return
			}

			t, err := tournamentService.UpdateTournament(r.Context(), id, input)
			if err != nil {
				if errors.Is(err, service.ErrTournamentNotFound) {
					httputil.NotFound(w, err.Error(), nil)
					return
				}
				httputil.InternalServerError(w, "Failed to update tournament", err)
				return
			}
			httputil.OK(w, t)
		})

		r.Post("/admin/tournaments/{id}/delete", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := newTournamentService(dbConn)

			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}

			if err := tournamentService.DeleteTournament(r.Context(), id); err != nil {
				switch {
				case errors.Is(err, service.ErrTournamentNotFound):
					httputil.NotFound(w, err.Error(), nil)
				case errors.Is(err, service.ErrTournamentStarted):
					httputil.Conflict(w, err.Error())
				default:
					httputil.InternalServerError(w, "Failed to delete tournament", err)
				}
				return
			}
			httputil.Success(w, "Tournament deleted successfully")
		})

		r.Post("/admin/tournaments/{id}/start", func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}

			games, err := scheduleService.StartTournament(r.Context(), id)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrTournamentNotFound):
					httputil.NotFound(w, err.Error(), nil)
				case errors.Is(err, service.ErrAlreadyScheduled):
					httputil.Conflict(w, err.Error())
				case errors.Is(err, service.ErrInsufficientPlayers):
					httputil.BadRequest(w, err.Error(), nil)
				default:
					httputil.InternalServerError(w, "Failed to start tournament", err)
				}
				return
			}
			httputil.Success(w, fmt.Sprintf("Tournament started successfully! %d games created.", len(games)))
		})

		r.Get("/admin/tournaments/{id}/games", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			tournamentService := newTournamentService(dbConn)
			gameService := newGameService(dbConn)
			registrationService := newRegistrationService(dbConn)

			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid tournament ID", err)
				return
			}

			t, err := tournamentService.GetTournament(r.Context(), id)
			if err != nil {
				if errors.Is(err, service.ErrTournamentNotFound) {
					httputil.NotFound(w, err.Error(), nil)
					return
				}
				httputil.InternalServerError(w, "Failed to get tournament", err)
				return
			}

			data, err := gameService.GetTournamentGames(r.Context(), id)
			if err != nil {
				httputil.InternalServerError(w, "Failed to get games", err)
				return
			}

			roster, err := registrationService.Roster(r.Context(), id)
			if err != nil {
				httputil.InternalServerError(w, "Failed to get roster", err)
				return
			}

			httputil.OK(w, map[string]any{
				"tournament":     t,
				"games":          toGameViews(data),
				"totalGames":     len(data.Games),
				"completedGames": data.Completed,
				"registrations":  roster,
			})
		})

		r.Post("/admin/games/{id}/result", func(w http.ResponseWriter, r *http.Request) {
			dbConn := db.GetDB()
			gameService := newGameService(dbConn)

			id, err := uuid.Parse(chi.URLParam(r, "id"))
			if err != nil {
				httputil.BadRequest(w, "Invalid game ID", err)
				return
			}
			var req struct {
				Player1Score int `json:"player1Score"`
				Player2Score int `json:"player2Score"`
			}
			if err := decodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}

			game, err := gameService.RecordResult(r.Context(), id, req.Player1Score, req.Player2Score)
			if err != nil {
				switch {
				case errors.Is(err, service.ErrGameNotFound):
					httputil.NotFound(w, err.Error(), nil)
				case errors.Is(err, service.ErrInvalidScore):
					httputil.BadRequest(w, err.Error(), nil)
				default:
					httputil.InternalServerError(w, "Failed to record result", err)
				}
				return
			}

			httputil.Success(w, fmt.Sprintf("Game %d result updated: %d - %d",
				game.GameOrder, utils.OrZero(game.Player1Score), utils.OrZero(game.Player2Score)))
		})
	})

	return r
}

func newTournamentService(dbConn *sqlx.DB) *service.TournamentService {
	return service.NewTournamentService(dbConn, store.NewTournamentStore(dbConn), store.NewGameStore(dbConn))
}

func newRegistrationService(dbConn *sqlx.DB) *service.RegistrationService {
	return service.NewRegistrationService(dbConn, store.NewPlayerStore(dbConn), store.NewGameStore(dbConn), store.NewTournamentStore(dbConn))
}

func newGameService(dbConn *sqlx.DB) *service.GameService {
	return service.NewGameService(dbConn, store.NewGameStore(dbConn), store.NewPlayerStore(dbConn))
}

func newPasswordResetService(dbConn *sqlx.DB) *service.PasswordResetService {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return service.NewPasswordResetService(dbConn, store.NewUserStore(dbConn), mail.NewSMTPMailerFromEnv(), baseURL)
}
