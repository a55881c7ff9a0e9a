package bot

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"

	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/notify"
)

func groupMessage(chat *tele.Chat, userID int64, text string) *MockContext {
	return &MockContext{MessageVal: &tele.Message{
		ID:     57,
		Text:   text,
		Sender: &tele.User{ID: userID, FirstName: "Sam", Username: "sam"},
		Chat:   chat,
	}}
}

var supergroup = &tele.Chat{ID: -100123456789, Title: "Deals", Type: tele.ChatSuperGroup}

func addWords(t *testing.T, b *testBot, scope keyword.Scope, words ...string) {
	t.Helper()
	for _, w := range words {
		_, err := b.store.Add(context.Background(), scope, w)
		require.NoError(t, err)
	}
}

func TestMonitorReport(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	addWords(t, b, keyword.Global, "sale", "discount")

	ctx := groupMessage(supergroup, 99, "Huge sale today, 50% discount!")
	require.NoError(t, b.handleMessage(ctx))

	require.Len(t, b.client.sends, 1, "exactly one report for several keywords")
	body := b.client.sends[0]
	assert.Contains(t, body, "discount, sale")
	assert.Contains(t, body, "<code>99</code>")
	assert.Contains(t, body, "/123456789/57")
	assert.Empty(t, ctx.SentMsgs, "nothing is posted to the group")
}

func TestMonitorNoMatch(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)

	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "Huge sale today")))
	assert.Empty(t, b.client.sends, "empty keyword set sends nothing")

	addWords(t, b, keyword.Global, "food")
	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "Huge sale today")))
	assert.Empty(t, b.client.sends)
}

func TestMonitorSkips(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	addWords(t, b, keyword.Global, "sale")

	private := &tele.Chat{ID: 99, Type: tele.ChatPrivate}
	channel := &tele.Chat{ID: -100555, Type: tele.ChatChannel}

	for name, ctx := range map[string]*MockContext{
		"private chat":  groupMessage(private, 99, "sale"),
		"channel":       groupMessage(channel, 99, "sale"),
		"admin message": groupMessage(supergroup, adminID, "sale"),
		"command":       groupMessage(supergroup, 99, "/sale"),
		"no chat":       {MessageVal: &tele.Message{Text: "sale"}},
	} {
		require.NoError(t, b.handleMessage(ctx), name)
		assert.Empty(t, b.client.sends, name)
	}
}

func TestMonitorPhraseWhitespace(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	addWords(t, b, keyword.Global, "big  sale")
	require.Equal(t, []string{"big sale"}, b.store.List(keyword.Global))

	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "big  sale today")))
	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "Big\nSale today")))
	assert.Len(t, b.client.sends, 2)
}

func TestMonitorCaption(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	addWords(t, b, keyword.Global, "sale")
	group := &tele.Chat{ID: -4567, Title: "Basic", Type: tele.ChatGroup}

	ctx := &MockContext{MessageVal: &tele.Message{
		ID:      3,
		Caption: "Photo of the SALE",
		Sender:  &tele.User{ID: 5, FirstName: "Kim"},
		Chat:    group,
	}}
	require.NoError(t, b.handleMessage(ctx))
	require.Len(t, b.client.sends, 1)
	assert.Contains(t, b.client.sends[0], notify.NoHandle)
	assert.NotContains(t, b.client.sends[0], "href", "basic groups have no link")
}

func TestMonitorPerChat(t *testing.T) {
	b := newTestBot(t, keyword.ScopePerChat)
	addWords(t, b, keyword.Scope(supergroup.ID), "sale")
	other := &tele.Chat{ID: -100999, Title: "Other", Type: tele.ChatSuperGroup}

	require.NoError(t, b.handleMessage(groupMessage(other, 99, "big sale")))
	assert.Empty(t, b.client.sends)

	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "big sale")))
	assert.Len(t, b.client.sends, 1)
}

func TestMonitorDeliveryFailure(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	var logs bytes.Buffer
	b.log = slog.New(slog.NewTextHandler(&logs, nil))
	b.client.err = errors.New("Forbidden: bot was blocked by the user")
	addWords(t, b, keyword.Global, "sale")

	ctx := groupMessage(supergroup, 99, "sale")
	assert.NotPanics(t, func() {
		assert.NoError(t, b.handleMessage(ctx))
	})
	assert.Len(t, b.client.sends, 1, "no retry")
	assert.Empty(t, ctx.SentMsgs)
	assert.True(t, strings.Contains(logs.String(), "report not delivered"), logs.String())
	assert.Contains(t, logs.String(), "bot was blocked")
}

type forwardFailure struct {
	*spyClient
}

func (forwardFailure) Forward(tele.Recipient, tele.Editable, ...interface{}) (*tele.Message, error) {
	return nil, errors.New("Bad Request: message to forward not found")
}

func TestMonitorForwardFailure(t *testing.T) {
	b := newTestBot(t, keyword.ScopeGlobal)
	var logs bytes.Buffer
	b.log = slog.New(slog.NewTextHandler(&logs, nil))
	b.notifier = notify.New(forwardFailure{b.client}, adminID, true)
	addWords(t, b, keyword.Global, "sale")

	require.NoError(t, b.handleMessage(groupMessage(supergroup, 99, "sale")))
	assert.Len(t, b.client.sends, 1)
	assert.Contains(t, logs.String(), "original message not forwarded")
	assert.Contains(t, logs.String(), "report sent")
	assert.NotContains(t, logs.String(), "report not delivered")
}
