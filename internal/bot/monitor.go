package bot

import (
	"context"
	"errors"
	"strings"

	tele "gopkg.in/telebot.v3"

	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/notify"
)

func (b *Bot) registerMonitor() {
	b.api.Handle(tele.OnText, b.handleMessage)

	// Captions are scanned like text.
	for _, ev := range []string{tele.OnPhoto, tele.OnVideo, tele.OnDocument, tele.OnAnimation} {
		b.api.Handle(ev, b.handleMessage)
	}
}

// handleMessage reports group messages that contain keywords. It never
// returns an error: a failed report is logged and dropped.
func (b *Bot) handleMessage(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Chat == nil {
		return nil
	}
	if msg.Chat.Type != tele.ChatGroup && msg.Chat.Type != tele.ChatSuperGroup {
		return nil
	}
	if msg.Sender != nil && msg.Sender.ID == b.cfg.AdminID {
		return nil
	}
	if strings.HasPrefix(msg.Text, "/") {
		return nil
	}

	matches := b.store.Match(keyword.Scope(msg.Chat.ID), notify.MessageText(msg))
	if len(matches) == 0 {
		return nil
	}

	report := notify.BuildReport(matches, msg)
	err := b.notifier.Deliver(context.Background(), report, msg)

	var derr *notify.DeliveryError
	if errors.As(err, &derr) && derr.Op == notify.OpForward {
		// The report itself went out.
		b.log.Warn("original message not forwarded", "report_id", report.ID, "chat_id", report.ChatID, "error", err)
	} else if err != nil {
		b.log.Error("report not delivered", "report_id", report.ID, "chat_id", report.ChatID, "error", err)
		return nil
	}
	b.log.Info("report sent",
		"report_id", report.ID,
		"keywords", matches,
		"chat_id", report.ChatID,
		"user_id", report.SenderID,
		"recipient", b.notifier.Recipient(),
	)
	return nil
}
