package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v3"
)

type sent struct {
	to   tele.Recipient
	what interface{}
	opts []interface{}
}

type spyClient struct {
	sends    []sent
	forwards []*tele.Message
	sendErr  error
	fwdErr   error
}

func (s *spyClient) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	s.sends = append(s.sends, sent{to: to, what: what, opts: opts})
	if s.sendErr != nil {
		return nil, s.sendErr
	}
	return &tele.Message{}, nil
}

func (s *spyClient) Forward(to tele.Recipient, msg tele.Editable, _ ...interface{}) (*tele.Message, error) {
	s.forwards = append(s.forwards, msg.(*tele.Message))
	if s.fwdErr != nil {
		return nil, s.fwdErr
	}
	return &tele.Message{}, nil
}

func saleMessage() *tele.Message {
	return &tele.Message{
		ID:     57,
		Text:   "Huge sale today, 50% discount!",
		Sender: &tele.User{ID: 99, FirstName: "Ann", LastName: "Lee", Username: "ann"},
		Chat:   &tele.Chat{ID: -100123456789, Title: "Deals <club>", Type: tele.ChatSuperGroup},
	}
}

func TestPermalink(t *testing.T) {
	tests := []struct {
		chatID int64
		msgID  int
		want   string
	}{
		{-100123456789, 57, "https://t.me/c/123456789/57"},
		{-123456, 57, ""},
		{123456, 57, ""},
		{-100, 57, ""},
		{-100123456789, 0, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Permalink(tt.chatID, tt.msgID), "Permalink(%d, %d)", tt.chatID, tt.msgID)
	}
}

func TestBuildReport(t *testing.T) {
	r := BuildReport([]string{"discount", "sale"}, saleMessage())

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, []string{"discount", "sale"}, r.Keywords)
	assert.Equal(t, "Ann Lee", r.SenderName)
	assert.Equal(t, "@ann", r.SenderHandle)
	assert.EqualValues(t, 99, r.SenderID)
	assert.Equal(t, "Deals <club>", r.ChatTitle)
	assert.EqualValues(t, -100123456789, r.ChatID)
	assert.True(t, strings.HasSuffix(r.Link, "/123456789/57"), r.Link)
}

func TestBuildReportFallbacks(t *testing.T) {
	msg := &tele.Message{
		ID:      3,
		Caption: "photo caption with sale",
		Sender:  &tele.User{ID: 7, FirstName: "Bob"},
		Chat:    &tele.Chat{ID: -4567, Title: "Small group", Type: tele.ChatGroup},
	}
	r := BuildReport([]string{"sale"}, msg)

	assert.Equal(t, NoHandle, r.SenderHandle)
	assert.Equal(t, "Bob", r.SenderName)
	assert.Equal(t, "photo caption with sale", r.Text)
	assert.Empty(t, r.Link, "basic groups have no permalinks")
}

func TestFormat(t *testing.T) {
	body := BuildReport([]string{"discount", "sale"}, saleMessage()).Format()

	assert.Contains(t, body, "discount, sale")
	assert.Contains(t, body, "Ann Lee")
	assert.Contains(t, body, "@ann")
	assert.Contains(t, body, "<code>99</code>")
	assert.Contains(t, body, "Deals &lt;club&gt;")
	assert.Contains(t, body, "<code>-100123456789</code>")
	assert.Contains(t, body, "Huge sale today, 50% discount!")
	assert.Contains(t, body, `href="https://t.me/c/123456789/57"`)

	r := BuildReport([]string{"x"}, &tele.Message{Text: "x", Chat: &tele.Chat{Type: tele.ChatGroup}})
	assert.Contains(t, r.Format(), NoHandle)
	assert.NotContains(t, r.Format(), "href")
}

func TestDeliver(t *testing.T) {
	c := &spyClient{}
	n := New(c, 42, false)
	assert.EqualValues(t, 42, n.Recipient())
	msg := saleMessage()

	err := n.Deliver(context.Background(), BuildReport([]string{"discount", "sale"}, msg), msg)
	require.NoError(t, err)

	require.Len(t, c.sends, 1, "one report per message")
	assert.Equal(t, "42", c.sends[0].to.Recipient())
	assert.Contains(t, c.sends[0].what, "discount, sale")
	require.Len(t, c.sends[0].opts, 1)
	assert.Equal(t, tele.ModeHTML, c.sends[0].opts[0].(*tele.SendOptions).ParseMode)
	assert.Empty(t, c.forwards)
}

func TestDeliverForward(t *testing.T) {
	c := &spyClient{}
	msg := saleMessage()

	require.NoError(t, New(c, 42, true).Deliver(context.Background(), BuildReport([]string{"sale"}, msg), msg))
	assert.Len(t, c.sends, 1)
	require.Len(t, c.forwards, 1)
	assert.Same(t, msg, c.forwards[0])
}

func TestDeliverFailure(t *testing.T) {
	boom := errors.New("Too Many Requests: retry after 5")
	c := &spyClient{sendErr: boom}
	msg := saleMessage()
	r := BuildReport([]string{"sale"}, msg)

	err := New(c, 42, true).Deliver(context.Background(), r, msg)
	var derr *DeliveryError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, r.ID, derr.ReportID)
	assert.Equal(t, "send", derr.Op)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, c.sends, 1, "no retry")
	assert.Empty(t, c.forwards)

	c = &spyClient{fwdErr: boom}
	err = New(c, 42, true).Deliver(context.Background(), r, msg)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, OpForward, derr.Op)
	assert.Len(t, c.sends, 1, "report was sent before the forward failed")
}

func TestDeliverCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &spyClient{}

	err := New(c, 42, false).Deliver(ctx, Report{ID: "r"}, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.sends)
}
