package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/alexedwards/scs/sqlite3store"
	"github.com/alexedwards/scs/v2"
	"github.com/grahamford77/table-tennis/internal/db"
	"github.com/grahamford77/table-tennis/internal/service"
	"github.com/grahamford77/table-tennis/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	database := db.InitDB()
	defer database.Close()

	if err := db.RunMigrations(database.DB); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	seedAdminUser(database)

	sessionManager := scs.New()
	sessionManager.Lifetime = 24 * time.Hour
	sessionManager.Store = sqlite3store.New(database.DB)

	router := newRouter(sessionManager)

	log.Println("Server starting on http://localhost:8080")
	if err := http.ListenAndServe(":8080", router); err != nil {
		log.Fatal(err)
	}
}

func seedAdminUser(database *sqlx.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		log.Println("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seeding")
		return
	}
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "Admin"
	}

	userService := service.NewUserService(database, store.NewUserStore(database))
	if _, err := userService.EnsureAdminUser(context.Background(), email, username, password); err != nil {
		log.Fatal("Failed to seed admin user:", err)
	}
}
