// Package access decides who may change the keyword list.
package access

import (
	"context"
	"errors"
	"fmt"

	tele "gopkg.in/telebot.v3"
)

var (
	// ErrUnauthorized means the issuer is not an administrator.
	ErrUnauthorized = errors.New("not authorized")
	// ErrLookup means the administrator list could not be fetched. The
	// issuer is treated as not authorized.
	ErrLookup = errors.New("admin lookup failed")
)

// Guard authorizes mutating commands.
type Guard interface {
	Authorize(ctx context.Context, issuerID int64, chat *tele.Chat) error
}

// Modes accepted by New.
const (
	ModeAdmin      = "admin"
	ModeChatAdmins = "chat_admins"
)

// AdminLister fetches the current administrators of a chat. *tele.Bot
// implements it.
type AdminLister interface {
	AdminsOf(chat *tele.Chat) ([]tele.ChatMember, error)
}

// FixedAdmin authorizes a single configured user id.
type FixedAdmin struct {
	ID int64
}

func (g FixedAdmin) Authorize(_ context.Context, issuerID int64, _ *tele.Chat) error {
	if g.ID == 0 || issuerID != g.ID {
		return fmt.Errorf("user %d: %w", issuerID, ErrUnauthorized)
	}
	return nil
}

// ChatAdmins authorizes the administrators of the chat the command was sent
// in, fetched on every call.
type ChatAdmins struct {
	Lister AdminLister
}

func (g ChatAdmins) Authorize(ctx context.Context, issuerID int64, chat *tele.Chat) error {
	if chat == nil {
		return fmt.Errorf("user %d: no chat: %w", issuerID, ErrUnauthorized)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrLookup, err)
	}

	admins, err := g.Lister.AdminsOf(chat)
	if err != nil {
		return fmt.Errorf("%w: chat %d: %v", ErrLookup, chat.ID, err)
	}
	for _, m := range admins {
		if m.User != nil && m.User.ID == issuerID {
			return nil
		}
	}
	return fmt.Errorf("user %d in chat %d: %w", issuerID, chat.ID, ErrUnauthorized)
}

// New returns the guard for mode.
func New(mode string, adminID int64, lister AdminLister) (Guard, error) {
	switch mode {
	case ModeAdmin, "":
		return FixedAdmin{ID: adminID}, nil
	case ModeChatAdmins:
		if lister == nil {
			return nil, fmt.Errorf("%s guard needs an admin lister", ModeChatAdmins)
		}
		return ChatAdmins{Lister: lister}, nil
	default:
		return nil, fmt.Errorf("unknown guard mode %q", mode)
	}
}
