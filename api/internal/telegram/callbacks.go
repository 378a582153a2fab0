package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack

	p, ok := parseAnswerData(cb.Data)
	if !ok {
		clearPending(cid)
		return
	}
	setPending(cid, p)
	r.send(cid, fmt.Sprintf("Send your answer for checkpoint %s as the next message.", p.CheckpointID))
}
