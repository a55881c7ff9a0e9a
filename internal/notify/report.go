// Package notify builds keyword match reports and delivers them to the
// administrator.
package notify

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"github.com/google/uuid"
	tele "gopkg.in/telebot.v3"
)

// NoHandle is shown when the sender has no public username.
const NoHandle = "not available"

// channelPrefix is the fixed prefix of supergroup and channel ids.
const channelPrefix = "-100"

// Report is one notification about one inbound message.
type Report struct {
	ID           string
	Keywords     []string
	SenderName   string
	SenderHandle string
	SenderID     int64
	ChatTitle    string
	ChatID       int64
	Text         string
	// Link is empty when the chat kind has no message permalinks.
	Link string
}

// BuildReport collects the fields of msg needed to display a match of keywords.
func BuildReport(keywords []string, msg *tele.Message) Report {
	r := Report{
		ID:           uuid.NewString(),
		Keywords:     keywords,
		SenderHandle: NoHandle,
		Text:         MessageText(msg),
	}
	if u := msg.Sender; u != nil {
		r.SenderID = u.ID
		r.SenderName = strings.TrimSpace(u.FirstName + " " + u.LastName)
		if u.Username != "" {
			r.SenderHandle = "@" + u.Username
		}
	}
	if c := msg.Chat; c != nil {
		r.ChatID = c.ID
		r.ChatTitle = c.Title
		if c.Type == tele.ChatSuperGroup || c.Type == tele.ChatChannel {
			r.Link = Permalink(c.ID, msg.ID)
		}
	}
	return r
}

// MessageText returns the text of msg, or its caption for media messages.
func MessageText(msg *tele.Message) string {
	if msg.Text != "" {
		return msg.Text
	}
	return msg.Caption
}

// Permalink returns the t.me link of message msgID in a chat whose id uses
// the -100 prefix convention, or "" for any other id.
func Permalink(chatID int64, msgID int) string {
	id := strconv.FormatInt(chatID, 10)
	if !strings.HasPrefix(id, channelPrefix) || len(id) == len(channelPrefix) || msgID <= 0 {
		return ""
	}
	return fmt.Sprintf("https://t.me/c/%s/%d", strings.TrimPrefix(id, channelPrefix), msgID)
}

// Format renders r as an HTML message body.
func (r Report) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔔 <b>Keyword found:</b> %s\n\n", html.EscapeString(strings.Join(r.Keywords, ", ")))
	fmt.Fprintf(&b, "👤 <b>From:</b> %s\n", html.EscapeString(r.SenderName))
	fmt.Fprintf(&b, "<b>Username:</b> %s\n", html.EscapeString(r.SenderHandle))
	fmt.Fprintf(&b, "<b>User ID:</b> <code>%d</code>\n\n", r.SenderID)
	fmt.Fprintf(&b, "💬 <b>Chat:</b> %s\n", html.EscapeString(r.ChatTitle))
	fmt.Fprintf(&b, "<b>Chat ID:</b> <code>%d</code>\n\n", r.ChatID)
	fmt.Fprintf(&b, "📝 <b>Message:</b>\n%s", html.EscapeString(r.Text))
	if r.Link != "" {
		fmt.Fprintf(&b, "\n\n🔗 <a href=\"%s\">Open message</a>", r.Link)
	}
	return b.String()
}
