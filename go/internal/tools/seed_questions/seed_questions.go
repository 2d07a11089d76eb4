package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/huroufgame/hurouf/go/internal/dbconfig"
)

// Question mirrors the JSON snapshot structure
type Question struct {
	Letter       string `json:"letter"`
	QuestionText string `json:"questionText"`
	Answer       string `json:"answer"`
}

func main() {
	// 1) Load the JSON snapshot
	path := "go/internal/assets/questions.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var questions []Question
	if err := json.Unmarshal(data, &questions); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(context.Background(), cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	// 3) Insert and count
	var (
		total    = len(questions)
		inserted int
		skipped  int
		errs     int
	)

	for _, q := range questions {
		cmdTag, err := pool.Exec(context.Background(), `
            INSERT INTO questions (letter, "questionText", answer)
            VALUES ($1, $2, $3)
            ON CONFLICT (letter, "questionText") DO NOTHING
        `,
			q.Letter, q.QuestionText, q.Answer,
		)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error inserting question for letter %s: %v\n", q.Letter, err)
			errs++
			continue
		}
		if cmdTag.RowsAffected() == 1 {
			inserted++
		} else {
			skipped++
		}
	}

	// 4) Print summary
	fmt.Printf(
		"Questions seed complete: %d total, %d inserted, %d skipped, %d errors\n",
		total, inserted, skipped, errs,
	)
}
