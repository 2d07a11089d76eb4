package turn

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huroufgame/hurouf/go/internal/models"
	"github.com/huroufgame/hurouf/go/internal/store"
)

type recordedWrite struct {
	kind        string
	questionTxt string
	cellID      int
	board       models.Board
	currentTeam models.Team
	startTime   time.Time
}

type fakeWriter struct {
	writes []recordedWrite
}

func (f *fakeWriter) UpdateQuestion(ctx context.Context, id uuid.UUID, questionText string, selectedCellID int) error {
	f.writes = append(f.writes, recordedWrite{kind: "question", questionTxt: questionText, cellID: selectedCellID})
	return nil
}

func (f *fakeWriter) UpdateReveal(ctx context.Context, id uuid.UUID, startTime time.Time) error {
	f.writes = append(f.writes, recordedWrite{kind: "reveal", startTime: startTime})
	return nil
}

func (f *fakeWriter) UpdateRevealedQuestion(ctx context.Context, id uuid.UUID, questionText string, startTime time.Time) error {
	f.writes = append(f.writes, recordedWrite{kind: "revealed_question", questionTxt: questionText, startTime: startTime})
	return nil
}

func (f *fakeWriter) UpdateBoard(ctx context.Context, id uuid.UUID, board models.Board, currentTeam models.Team) error {
	f.writes = append(f.writes, recordedWrite{kind: "board", board: board, currentTeam: currentTeam})
	return nil
}

func (f *fakeWriter) ClearQuestion(ctx context.Context, id uuid.UUID) error {
	f.writes = append(f.writes, recordedWrite{kind: "clear"})
	return nil
}

func (f *fakeWriter) last() recordedWrite {
	return f.writes[len(f.writes)-1]
}

type fakeQuestions struct {
	byLetter map[string][]models.Question
}

func (f *fakeQuestions) QuestionsByLetter(ctx context.Context, letter string) ([]models.Question, error) {
	return f.byLetter[letter], nil
}

type flowFixture struct {
	flow      *Flow
	writer    *fakeWriter
	questions *fakeQuestions
	clock     *clockwork.FakeClock
	board     models.Board
	team      models.Team
}

func newFixture(t *testing.T) *flowFixture {
	t.Helper()

	board := make(models.Board, models.BoardSize)
	for i := range board {
		board[i] = models.Cell{ID: i, Letter: models.Alphabet[i], Owner: models.TeamNone}
	}

	fx := &flowFixture{
		writer: &fakeWriter{},
		questions: &fakeQuestions{byLetter: map[string][]models.Question{
			models.Alphabet[0]: {
				{Letter: models.Alphabet[0], QuestionText: "من؟", Answer: "هو"},
			},
		}},
		clock: clockwork.NewFakeClock(),
		board: board,
		team:  models.TeamGreen,
	}

	source := func(ctx context.Context) (models.Board, models.Team, error) {
		return fx.board, fx.team, nil
	}
	fx.flow = NewFlow(uuid.New(), fx.writer, fx.questions, source,
		fx.clock, rand.New(rand.NewSource(7)))
	return fx
}

func TestSelectCellWritesHiddenQuestion(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))

	assert.Equal(t, PhaseQuestionHidden, fx.flow.Phase())
	assert.Equal(t, "هو", fx.flow.Answer())

	write := fx.writer.last()
	assert.Equal(t, "question", write.kind)
	assert.Equal(t, "من؟", write.questionTxt)
	assert.Equal(t, 0, write.cellID)
}

func TestSelectCellRejectsBadCell(t *testing.T) {
	fx := newFixture(t)

	err := fx.flow.SelectCell(context.Background(), 99)
	assert.ErrorIs(t, err, store.ErrInvalid)
	assert.Equal(t, PhaseIdle, fx.flow.Phase())
	assert.Empty(t, fx.writer.writes)
}

func TestSelectCellBusyWhileQuestionPending(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))

	err := fx.flow.SelectCell(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBusy)
}

func TestSelectCellPlaceholderWhenNoQuestions(t *testing.T) {
	fx := newFixture(t)

	// Cell 1's letter has no question rows.
	require.NoError(t, fx.flow.SelectCell(context.Background(), 1))

	assert.Equal(t, PhaseQuestionHidden, fx.flow.Phase())
	assert.Empty(t, fx.flow.Answer())
	assert.Equal(t, NoQuestionsPlaceholder, fx.writer.last().questionTxt)
}

func TestSelectCellDrawsEveryRowForLetter(t *testing.T) {
	fx := newFixture(t)
	letter := models.Alphabet[0]
	fx.questions.byLetter[letter] = []models.Question{
		{Letter: letter, QuestionText: "س١", Answer: "ج١"},
		{Letter: letter, QuestionText: "س٢", Answer: "ج٢"},
		{Letter: letter, QuestionText: "س٣", Answer: "ج٣"},
	}

	counts := make(map[string]int)
	for i := 0; i < 90; i++ {
		require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
		counts[fx.writer.last().questionTxt]++
		require.NoError(t, fx.flow.Cancel(context.Background()))
	}

	require.Len(t, counts, 3)
	for text, n := range counts {
		assert.Greater(t, n, 15, "row %q drawn too rarely", text)
	}
}

func TestRevealStampsTimer(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
	require.NoError(t, fx.flow.Reveal(context.Background()))

	assert.Equal(t, PhaseQuestionRevealed, fx.flow.Phase())
	first := fx.writer.last()
	assert.Equal(t, "reveal", first.kind)
	assert.Equal(t, fx.clock.Now(), first.startTime)

	// Revealing again restarts the countdown from a fresh stamp.
	fx.clock.Advance(5 * time.Second)
	require.NoError(t, fx.flow.Reveal(context.Background()))
	second := fx.writer.last()
	assert.Equal(t, first.startTime.Add(5*time.Second), second.startTime)
}

func TestRevealRequiresPendingQuestion(t *testing.T) {
	fx := newFixture(t)

	err := fx.flow.Reveal(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestChangeQuestionKeepsLetter(t *testing.T) {
	fx := newFixture(t)
	fx.questions.byLetter[models.Alphabet[0]] = append(
		fx.questions.byLetter[models.Alphabet[0]],
		models.Question{Letter: models.Alphabet[0], QuestionText: "ماذا؟", Answer: "ذاك"},
	)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
	require.NoError(t, fx.flow.Reveal(context.Background()))
	require.NoError(t, fx.flow.ChangeQuestion(context.Background()))

	write := fx.writer.last()
	assert.Equal(t, "revealed_question", write.kind)
	assert.Contains(t, []string{"من؟", "ماذا؟"}, write.questionTxt)
	assert.Equal(t, PhaseQuestionRevealed, fx.flow.Phase())
}

func TestChangeQuestionOnlyWhileRevealed(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
	err := fx.flow.ChangeQuestion(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
}

func TestAnswerTogglesTurnExactlyOnce(t *testing.T) {
	tests := []struct {
		name  string
		award models.Team
	}{
		{"correct for green", models.TeamGreen},
		{"awarded to purple", models.TeamPurple},
		{"no one answered", models.TeamNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t)

			require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
			require.NoError(t, fx.flow.Reveal(context.Background()))
			require.NoError(t, fx.flow.AnswerCell(context.Background(), tt.award))

			write := fx.writer.last()
			require.Equal(t, "board", write.kind)
			assert.Equal(t, models.TeamPurple, write.currentTeam, "turn passes to the opponent whatever the outcome")
			assert.Equal(t, tt.award, write.board[0].Owner)
			assert.Equal(t, PhaseIdle, fx.flow.Phase())
			assert.Empty(t, fx.flow.Answer())
		})
	}
}

func TestAnswerLockoutRejectsImmediateClicks(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
	require.NoError(t, fx.flow.Reveal(context.Background()))
	require.NoError(t, fx.flow.AnswerCell(context.Background(), models.TeamGreen))

	err := fx.flow.SelectCell(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBusy)

	fx.clock.Advance(DefaultLockout)
	assert.NoError(t, fx.flow.SelectCell(context.Background(), 1))
}

func TestCancelClearsSharedQuestion(t *testing.T) {
	fx := newFixture(t)

	require.NoError(t, fx.flow.SelectCell(context.Background(), 0))
	require.NoError(t, fx.flow.Reveal(context.Background()))
	require.NoError(t, fx.flow.Cancel(context.Background()))

	assert.Equal(t, "clear", fx.writer.last().kind)
	assert.Equal(t, PhaseIdle, fx.flow.Phase())

	// Board writes never happened; ownership and turn stay as they were.
	for _, w := range fx.writer.writes {
		assert.NotEqual(t, "board", w.kind)
	}
}
