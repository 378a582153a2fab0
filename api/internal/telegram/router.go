package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"trackgen/api/internal/track"
)

const maxMessageLen = 3900

// Sender is the subset of *tgbotapi.BotAPI the router uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

type TrackService interface {
	Create(ctx context.Context, in track.CreateInput) (track.Track, error)
	List(ctx context.Context) ([]track.Track, error)
	Get(ctx context.Context, id string) (track.Track, error)
	Assess(ctx context.Context, in track.AssessInput) (track.AssessmentResult, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Router struct {
	Bot     Sender
	Svc     TrackService
	Health  Pinger
	Admins  map[int64]bool
	Timeout time.Duration
	Log     *zap.Logger
}

const helpText = `Track Generator bot.
Commands:
/tracks - list tracks
/track <id> - show a track and answer its checkpoints
/assess <trackId> <checkpointId> <answer> - grade an answer
/new name | description | difficulty | timeframe | checkpoints [| flashcards] - generate a track (admins)
/health - service status`

func (r *Router) HandleUpdate(upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	if msg.IsCommand() {
		r.HandleCommand(msg)
		return
	}

	// a plain message answers the checkpoint picked via the keyboard
	if p, ok := takePending(msg.Chat.ID); ok && strings.TrimSpace(msg.Text) != "" {
		r.assess(msg.Chat.ID, p.TrackID, p.CheckpointID, msg.Text)
		return
	}
	r.send(msg.Chat.ID, "Pick a checkpoint with /track <id> first, or see /start.")
}

func (r *Router) HandleCommand(msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.health(cid)
	case "tracks":
		r.listTracks(cid)
	case "track":
		if args == "" {
			r.send(cid, "usage: /track <id>")
			return
		}
		r.showTrack(cid, strings.Fields(args)[0])
	case "assess":
		a, err := parseAssessArgs(args)
		if err != nil {
			r.send(cid, err.Error())
			return
		}
		r.assess(cid, a.TrackID, a.CheckpointID, a.Answer)
	case "new":
		if !r.Admins[cid] {
			r.send(cid, "Only admins can generate tracks.")
			return
		}
		in, err := parseNewArgs(args)
		if err != nil {
			r.send(cid, err.Error())
			return
		}
		r.createTrack(cid, in)
	default:
		r.send(cid, "Unknown command. See /start.")
	}
}

func (r *Router) ctx() (context.Context, context.CancelFunc) {
	d := r.Timeout
	if d <= 0 {
		d = 180 * time.Second
	}
	return context.WithTimeout(context.Background(), d)
}

func (r *Router) health(cid int64) {
	if r.Health != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := r.Health.Ping(ctx); err != nil {
			r.send(cid, "⚠️ Store unavailable: "+err.Error())
			return
		}
	}
	r.send(cid, "✅ OK")
}

func (r *Router) listTracks(cid int64) {
	ctx, cancel := r.ctx()
	defer cancel()
	ts, err := r.Svc.List(ctx)
	if err != nil {
		r.fail(cid, err, "Could not load tracks.")
		return
	}
	r.send(cid, formatTrackList(ts))
}

func (r *Router) showTrack(cid int64, id string) {
	ctx, cancel := r.ctx()
	defer cancel()
	t, err := r.Svc.Get(ctx, id)
	if err != nil {
		r.fail(cid, err, "Could not load the track.")
		return
	}
	msg := tgbotapi.NewMessage(cid, clamp(formatTrack(t)))
	if kb, ok := makeCheckpointKeyboard(t); ok {
		msg.ReplyMarkup = kb
	}
	r.sendMsg(msg)
}

func (r *Router) assess(cid int64, trackID, checkpointID, answer string) {
	r.send(cid, "Grading your answer…")
	ctx, cancel := r.ctx()
	defer cancel()
	res, err := r.Svc.Assess(ctx, track.AssessInput{
		TrackID:      trackID,
		CheckpointID: checkpointID,
		Answer:       answer,
	})
	if err != nil {
		r.fail(cid, err, "Assessment failed.")
		return
	}
	r.send(cid, formatAssessment(res))
}

func (r *Router) createTrack(cid int64, in track.CreateInput) {
	r.send(cid, "Generating the track, this can take a minute…")
	ctx, cancel := r.ctx()
	defer cancel()
	t, err := r.Svc.Create(ctx, in)
	if err != nil {
		r.fail(cid, err, "Track generation failed.")
		return
	}
	r.send(cid, fmt.Sprintf("✅ Created %q (%s) with %d checkpoints and %d flashcards. Open it with /track %s",
		t.Title, t.ID, len(t.Checkpoints), len(t.Flashcards), t.ID))
}

// fail reports client errors verbatim and everything else with a generic line.
func (r *Router) fail(cid int64, err error, generic string) {
	switch {
	case errors.Is(err, track.ErrBadRequest), errors.Is(err, track.ErrNotFound):
		r.send(cid, "❌ "+err.Error())
	default:
		r.logger().Error("telegram request failed", zap.Int64("chat", cid), zap.Error(err))
		r.send(cid, "❌ "+generic)
	}
}

func (r *Router) logger() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}

func (r *Router) send(chatID int64, text string) {
	r.sendMsg(tgbotapi.NewMessage(chatID, clamp(text)))
}

func (r *Router) sendMsg(msg tgbotapi.MessageConfig) {
	if _, err := r.Bot.Send(msg); err != nil {
		r.logger().Warn("telegram send failed", zap.Int64("chat", msg.ChatID), zap.Error(err))
	}
}

func clamp(text string) string {
	if len(text) > maxMessageLen {
		return strings.ToValidUTF8(text[:maxMessageLen], "") + "…"
	}
	return text
}
