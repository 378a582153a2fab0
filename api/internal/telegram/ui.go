package telegram

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"trackgen/api/internal/track"
)

const (
	answerPrefix   = "ans:"
	maxCallbackLen = 64
)

// makeCheckpointKeyboard offers one "Answer" button per checkpoint. Telegram
// caps callback data at 64 bytes, so very long ids get no keyboard.
func makeCheckpointKeyboard(t track.Track) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, cp := range t.Checkpoints {
		data := fmt.Sprintf("%s%s:%d", answerPrefix, t.ID, cp.CheckpointID)
		if len(data) > maxCallbackLen {
			return tgbotapi.InlineKeyboardMarkup{}, false
		}
		label := fmt.Sprintf("Answer %d. %s", cp.CheckpointID, cp.Title)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(clampRunes(label, 40), data)))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

// parseAnswerData splits "ans:<trackId>:<checkpointId>". Checkpoint ids are
// numeric, so the last ':' is the boundary.
func parseAnswerData(data string) (pendingAnswer, bool) {
	rest, ok := strings.CutPrefix(data, answerPrefix)
	if !ok {
		return pendingAnswer{}, false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 || i == len(rest)-1 {
		return pendingAnswer{}, false
	}
	return pendingAnswer{TrackID: rest[:i], CheckpointID: rest[i+1:]}, true
}

func formatTrackList(ts []track.Track) string {
	if len(ts) == 0 {
		return "No tracks yet."
	}
	var b strings.Builder
	b.WriteString("📚 Tracks:\n")
	for _, t := range ts {
		fmt.Fprintf(&b, "\n• %s (%s, %s)\n  /track %s", t.Title, t.Difficulty, t.Timeframe, t.ID)
	}
	return b.String()
}

func formatTrack(t track.Track) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📘 %s\n%s\nDifficulty: %s · Timeframe: %s\n", t.Title, t.Description, t.Difficulty, t.Timeframe)
	for _, cp := range t.Checkpoints {
		fmt.Fprintf(&b, "\n%d. %s\n%s\n", cp.CheckpointID, cp.Title, cp.Description)
		for _, o := range cp.Outcomes {
			fmt.Fprintf(&b, "  - %s\n", o)
		}
		if cp.VideoURL != nil {
			if cp.CreatorName != nil {
				fmt.Fprintf(&b, "  ▶ %s (%s)\n", *cp.VideoURL, *cp.CreatorName)
			} else {
				fmt.Fprintf(&b, "  ▶ %s\n", *cp.VideoURL)
			}
		}
	}
	if n := len(t.Flashcards); n > 0 {
		fmt.Fprintf(&b, "\n🃏 %d flashcards", n)
	}
	return b.String()
}

func formatAssessment(res track.AssessmentResult) string {
	return fmt.Sprintf("Score: %d/%d\n\n%s", res.Score, track.MaxScore, res.Feedback)
}

func clampRunes(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
