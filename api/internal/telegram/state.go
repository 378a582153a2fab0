package telegram

import "sync"

// pendingAnswer is the checkpoint a chat picked from the keyboard; the next
// plain message from that chat is graded against it.
type pendingAnswer struct {
	TrackID      string
	CheckpointID string
}

var pending sync.Map // chatID -> pendingAnswer

func setPending(chatID int64, p pendingAnswer) { pending.Store(chatID, p) }

func takePending(chatID int64) (pendingAnswer, bool) {
	v, ok := pending.LoadAndDelete(chatID)
	if !ok {
		return pendingAnswer{}, false
	}
	p, ok := v.(pendingAnswer)
	return p, ok
}

func clearPending(chatID int64) { pending.Delete(chatID) }
