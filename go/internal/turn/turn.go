// Package turn implements the host-only cell-selection flow: pick a cell,
// draw a question for its letter, reveal it, then award the cell to a team
// or cancel. Each step writes the shared game record so every client
// observes the same sequence.
package turn

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/store"
)

// Phase is the flow's current state.
type Phase string

const (
	PhaseIdle             Phase = "idle"
	PhaseQuestionLoading  Phase = "question_loading"
	PhaseQuestionHidden   Phase = "question_hidden"
	PhaseQuestionRevealed Phase = "question_revealed"
)

// NoQuestionsPlaceholder is written as the question text when no rows
// exist for a letter. The answer stays empty; this is not an error.
const NoQuestionsPlaceholder = "لا توجد أسئلة متاحة لهذا الحرف"

// DefaultLockout is how long cell clicks are ignored after an answer.
const DefaultLockout = time.Second

// ErrBusy is returned when a click arrives during the post-answer lockout
// or while another question is in flight. Callers drop the click.
var ErrBusy = errors.New("selection unavailable")

// GameWriter defines what the flow needs from the games layer
type GameWriter interface {
	UpdateQuestion(ctx context.Context, id uuid.UUID, questionText string, selectedCellID int) error
	UpdateReveal(ctx context.Context, id uuid.UUID, startTime time.Time) error
	UpdateRevealedQuestion(ctx context.Context, id uuid.UUID, questionText string, startTime time.Time) error
	UpdateBoard(ctx context.Context, id uuid.UUID, board models.Board, currentTeam models.Team) error
	ClearQuestion(ctx context.Context, id uuid.UUID) error
}

// QuestionSource defines what the flow needs from the questions layer
type QuestionSource interface {
	QuestionsByLetter(ctx context.Context, letter string) ([]models.Question, error)
}

// BoardSource yields the host's current reconciled board and turn. Reads
// span one reconciliation cycle; concurrent writers can still race on the
// board, which the system accepts (last write wins).
type BoardSource func(ctx context.Context) (models.Board, models.Team, error)

// Flow is one host's selection state machine for one game.
type Flow struct {
	gameID    uuid.UUID
	games     GameWriter
	questions QuestionSource
	source    BoardSource
	clock     clockwork.Clock
	rng       *rand.Rand
	lockout   time.Duration

	mu          sync.Mutex
	phase       Phase
	selected    *models.Cell
	answer      string
	lockedUntil time.Time
}

// NewFlow creates a selection flow for a game.
func NewFlow(gameID uuid.UUID, games GameWriter, questions QuestionSource, source BoardSource, clock clockwork.Clock, rng *rand.Rand) *Flow {
	return &Flow{
		gameID:    gameID,
		games:     games,
		questions: questions,
		source:    source,
		clock:     clock,
		rng:       rng,
		lockout:   DefaultLockout,
		phase:     PhaseIdle,
	}
}

// Phase returns the flow's current phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Answer returns the drawn question's answer. It lives only in the host's
// memory and is never written to the shared record.
func (f *Flow) Answer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answer
}

// SelectedCell returns the cell currently under question, or nil.
func (f *Flow) SelectedCell() *models.Cell {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.selected
}

// SelectCell draws a random question for the clicked cell's letter and
// writes it, hidden, to the shared record. Clicks during the lockout window
// or while a question is in flight return ErrBusy.
func (f *Flow) SelectCell(ctx context.Context, cellID int) error {
	f.mu.Lock()
	if f.phase != PhaseIdle {
		f.mu.Unlock()
		return fmt.Errorf("%w: question in flight", ErrBusy)
	}
	if f.clock.Now().Before(f.lockedUntil) {
		f.mu.Unlock()
		return fmt.Errorf("%w: lockout active", ErrBusy)
	}

	board, _, err := f.source(ctx)
	if err != nil {
		f.mu.Unlock()
		return fmt.Errorf("failed to load board: %w", err)
	}
	cell := board.Cell(cellID)
	if cell == nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: no cell %d", store.ErrInvalid, cellID)
	}
	f.phase = PhaseQuestionLoading
	f.mu.Unlock()

	text, answer, err := f.draw(ctx, cell.Letter)
	if err != nil {
		f.reset()
		return err
	}

	if err := f.games.UpdateQuestion(ctx, f.gameID, text, cellID); err != nil {
		f.reset()
		return err
	}

	f.mu.Lock()
	f.phase = PhaseQuestionHidden
	f.selected = cell
	f.answer = answer
	f.mu.Unlock()

	log.Debug().
		Int("cell_id", cellID).
		Str("letter", cell.Letter).
		Msg("question selected")
	return nil
}

// Reveal makes the pending question visible to all clients and stamps the
// shared timer start. Revealing again keeps the text but re-stamps the
// timer.
func (f *Flow) Reveal(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseQuestionHidden && f.phase != PhaseQuestionRevealed {
		f.mu.Unlock()
		return fmt.Errorf("%w: no pending question", ErrBusy)
	}
	f.mu.Unlock()

	if err := f.games.UpdateReveal(ctx, f.gameID, f.clock.Now()); err != nil {
		return err
	}

	f.mu.Lock()
	f.phase = PhaseQuestionRevealed
	f.mu.Unlock()
	return nil
}

// ChangeQuestion re-draws a question for the same letter while revealed.
// The timer restarts from the new stamp.
func (f *Flow) ChangeQuestion(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhaseQuestionRevealed || f.selected == nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: no revealed question", ErrBusy)
	}
	letter := f.selected.Letter
	f.mu.Unlock()

	text, answer, err := f.draw(ctx, letter)
	if err != nil {
		return err
	}

	if err := f.games.UpdateRevealedQuestion(ctx, f.gameID, text, f.clock.Now()); err != nil {
		return err
	}

	f.mu.Lock()
	f.answer = answer
	f.mu.Unlock()
	return nil
}

// AnswerCell awards the selected cell to a team (or un-assigns it with
// TeamNone), writes the whole board and toggles the turn exactly once,
// whatever the color. The flow then locks out clicks briefly.
func (f *Flow) AnswerCell(ctx context.Context, color models.Team) error {
	f.mu.Lock()
	if f.phase != PhaseQuestionRevealed || f.selected == nil {
		f.mu.Unlock()
		return fmt.Errorf("%w: no revealed question", ErrBusy)
	}
	cellID := f.selected.ID
	f.mu.Unlock()

	board, team, err := f.source(ctx)
	if err != nil {
		return fmt.Errorf("failed to load board: %w", err)
	}
	updated := board.WithOwner(cellID, color)

	if err := f.games.UpdateBoard(ctx, f.gameID, updated, team.Opponent()); err != nil {
		return err
	}

	f.mu.Lock()
	f.phase = PhaseIdle
	f.selected = nil
	f.answer = ""
	f.lockedUntil = f.clock.Now().Add(f.lockout)
	f.mu.Unlock()

	log.Debug().
		Int("cell_id", cellID).
		Str("owner", string(color)).
		Msg("cell answered")
	return nil
}

// Cancel abandons the pending question from any phase: reveal, timer and
// selection are cleared in the shared record, board and turn untouched.
func (f *Flow) Cancel(ctx context.Context) error {
	if err := f.games.ClearQuestion(ctx, f.gameID); err != nil {
		return err
	}
	f.reset()
	return nil
}

// draw picks uniformly among the letter's question rows. Zero rows yield
// the placeholder text with an empty answer.
func (f *Flow) draw(ctx context.Context, letter string) (text, answer string, err error) {
	qs, err := f.questions.QuestionsByLetter(ctx, letter)
	if err != nil {
		return "", "", fmt.Errorf("failed to load questions for letter %q: %w", letter, err)
	}
	if len(qs) == 0 {
		return NoQuestionsPlaceholder, "", nil
	}
	q := qs[f.rng.Intn(len(qs))]
	return q.QuestionText, q.Answer, nil
}

func (f *Flow) reset() {
	f.mu.Lock()
	f.phase = PhaseIdle
	f.selected = nil
	f.answer = ""
	f.mu.Unlock()
}
