package questions

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/huroufgame/hurouf/go/internal/models"
)

// Querier defines what the repository needs from the database layer
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repository implements read-only question data access. Rows are written
// only by the seeding tool.
type Repository struct {
	db Querier
}

// NewRepository creates a new questions repository
func NewRepository(db Querier) *Repository {
	return &Repository{db: db}
}

// QuestionsByLetter returns every question row for a letter. An empty slice
// is a valid result; callers surface a placeholder rather than an error.
func (r *Repository) QuestionsByLetter(ctx context.Context, letter string) ([]models.Question, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT letter, "questionText", answer
        FROM questions
        WHERE letter = $1
    `, letter)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions by letter: %w", err)
	}
	defer rows.Close()

	var out []models.Question
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.Letter, &q.QuestionText, &q.Answer); err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return out, nil
}
