package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/wolfman30/oncall-chatbot/internal/schedule"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: go run ./cmd/seed <schedule-seed.json>")
		fmt.Println("Example: go run ./cmd/seed testdata/schedule-seed.json")
		os.Exit(1)
	}
	_ = godotenv.Load()

	databaseURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if databaseURL == "" {
		fmt.Println("DATABASE_URL is required")
		os.Exit(1)
	}

	seed, err := readSeed(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading seed: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		fmt.Printf("Error connecting to postgres: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	stats, err := schedule.NewPostgresStore(pool).ImportSeed(ctx, seed)
	if err != nil {
		fmt.Printf("Error importing seed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Imported %d departments, %d doctors, %d schedules\n", stats.Departments, stats.Doctors, stats.Schedules)
}

// readSeed decodes the file and checks it the same way the in-memory store
// would load it, so a bad row fails before touching the database.
func readSeed(path string) (schedule.Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schedule.Seed{}, err
	}
	var seed schedule.Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return schedule.Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	if _, err := schedule.LoadSeed(strings.NewReader(string(data)), time.UTC); err != nil {
		return schedule.Seed{}, err
	}
	return seed, nil
}
