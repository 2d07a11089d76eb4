package gamesync

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/huroufgame/hurouf/go/internal/models"
)

// applyRecord merges a row snapshot into the view. Keys absent from the
// payload leave the corresponding field untouched; an explicit JSON null
// clears the nullable fields. The reconciler must never null out a held
// field just because one update omitted it.
func applyRecord(view *GameView, record json.RawMessage) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(record, &fields); err != nil {
		return fmt.Errorf("unmarshal record snapshot: %w", err)
	}

	if raw, ok := fields["boardState"]; ok && !isNull(raw) {
		var board models.Board
		if err := json.Unmarshal(raw, &board); err != nil {
			return fmt.Errorf("unmarshal board state: %w", err)
		}
		view.Board = board
	}
	if raw, ok := fields["currentTeam"]; ok && !isNull(raw) {
		var team models.Team
		if err := json.Unmarshal(raw, &team); err != nil {
			return fmt.Errorf("unmarshal current team: %w", err)
		}
		view.CurrentTeam = team
	}
	if raw, ok := fields["currentQuestion"]; ok {
		if isNull(raw) {
			view.CurrentQuestion = nil
		} else {
			var question string
			if err := json.Unmarshal(raw, &question); err != nil {
				return fmt.Errorf("unmarshal current question: %w", err)
			}
			view.CurrentQuestion = &question
		}
	}
	if raw, ok := fields["isQuestionRevealed"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &view.IsQuestionRevealed); err != nil {
			return fmt.Errorf("unmarshal reveal flag: %w", err)
		}
	}
	if raw, ok := fields["timerStartTime"]; ok {
		if isNull(raw) {
			view.TimerStartTime = nil
		} else {
			var start time.Time
			if err := json.Unmarshal(raw, &start); err != nil {
				return fmt.Errorf("unmarshal timer start: %w", err)
			}
			view.TimerStartTime = &start
		}
	}
	if raw, ok := fields["timerDuration"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &view.TimerDuration); err != nil {
			return fmt.Errorf("unmarshal timer duration: %w", err)
		}
	}
	if raw, ok := fields["selectedCellId"]; ok {
		if isNull(raw) {
			view.SelectedCellID = nil
		} else {
			var cellID int
			if err := json.Unmarshal(raw, &cellID); err != nil {
				return fmt.Errorf("unmarshal selected cell: %w", err)
			}
			view.SelectedCellID = &cellID
		}
	}
	if raw, ok := fields["room"]; ok && !isNull(raw) {
		var roomID uuid.UUID
		if err := json.Unmarshal(raw, &roomID); err != nil {
			return fmt.Errorf("unmarshal room reference: %w", err)
		}
		view.RoomID = &roomID
	}

	view.GreenScore, view.PurpleScore = view.Board.Scores()
	return nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}
