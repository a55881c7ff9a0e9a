package notify

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v3"
)

// Client is the outbound part of the transport. *tele.Bot implements it.
type Client interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Forward(to tele.Recipient, msg tele.Editable, opts ...interface{}) (*tele.Message, error)
}

// Delivery steps named in DeliveryError.Op.
const (
	OpSend    = "send"
	OpForward = "forward"
)

// DeliveryError reports a failed send of a report. Callers log it and move on.
type DeliveryError struct {
	ReportID  string
	Recipient int64
	Op        string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("deliver report %s to %d: %s: %v", e.ReportID, e.Recipient, e.Op, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Notifier sends reports to one fixed recipient. Delivery is attempted
// once; there are no retries.
type Notifier struct {
	client    Client
	recipient int64
	forward   bool
}

// New returns a Notifier for recipient. With forward set, the original
// message is relayed after the report.
func New(client Client, recipient int64, forward bool) *Notifier {
	return &Notifier{client: client, recipient: recipient, forward: forward}
}

// Recipient is the chat id reports are sent to.
func (n *Notifier) Recipient() int64 { return n.recipient }

// Deliver sends r, and the original message when forwarding is enabled.
func (n *Notifier) Deliver(ctx context.Context, r Report, original *tele.Message) error {
	if err := ctx.Err(); err != nil {
		return &DeliveryError{ReportID: r.ID, Recipient: n.recipient, Op: OpSend, Err: err}
	}

	to := tele.ChatID(n.recipient)
	opts := &tele.SendOptions{ParseMode: tele.ModeHTML, DisableWebPagePreview: true}
	if _, err := n.client.Send(to, r.Format(), opts); err != nil {
		return &DeliveryError{ReportID: r.ID, Recipient: n.recipient, Op: OpSend, Err: err}
	}

	if n.forward && original != nil {
		if _, err := n.client.Forward(to, original); err != nil {
			return &DeliveryError{ReportID: r.ID, Recipient: n.recipient, Op: OpForward, Err: err}
		}
	}
	return nil
}
