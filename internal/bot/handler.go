package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"github.com/eliseohh/keywatchbot/internal/access"
	"github.com/eliseohh/keywatchbot/internal/keyword"
	"github.com/eliseohh/keywatchbot/internal/notify"
)

const commandTimeout = 10 * time.Second

type Bot struct {
	api      *tele.Bot
	store    *keyword.Store
	guard    access.Guard
	notifier *notify.Notifier
	log      *slog.Logger
	cfg      Config
}

type Config struct {
	Token string
	// AdminID receives reports and is the fixed administrator.
	AdminID     int64
	Guard       string
	Forward     bool
	PollTimeout time.Duration
}

func New(cfg Config, store *keyword.Store, logger *slog.Logger) (*Bot, error) {
	pref := tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: cfg.PollTimeout},
		OnError: func(err error, c tele.Context) {
			logger.Error("handler failed", "error", err)
		},
	}

	b, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	guard, err := access.New(cfg.Guard, cfg.AdminID, b)
	if err != nil {
		return nil, err
	}

	bot := &Bot{
		api:      b,
		store:    store,
		guard:    guard,
		notifier: notify.New(b, cfg.AdminID, cfg.Forward),
		log:      logger,
		cfg:      cfg,
	}
	bot.register()
	return bot, nil
}

// Run polls for updates until ctx is done.
func (b *Bot) Run(ctx context.Context) {
	go func() {
		<-ctx.Done()
		b.api.Stop()
	}()
	b.log.Info("bot started", "username", b.api.Me.Username, "guard", b.cfg.Guard, "forward", b.cfg.Forward)
	b.api.Start()
	b.log.Info("bot stopped")
}

func (b *Bot) register() {
	b.api.Handle("/start", b.handleStart)
	b.api.Handle("/help", b.handleStart)

	// Admin only
	b.api.Handle("/add", b.handleAdd)
	b.api.Handle("/remove", b.handleRemove)
	b.api.Handle("/list", b.handleList)

	b.registerMonitor()
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send("👋 Keyword monitor is running.\n" +
		"Messages in groups are checked against the keyword list and matches are reported to the admin.\n\n" +
		"Admin commands:\n/add <word>\n/remove <word>\n/list")
}

func (b *Bot) handleAdd(c tele.Context) error {
	if ok, err := b.authorize(c); !ok {
		return err
	}

	word := keyword.Normalize(c.Message().Payload)
	if word == "" {
		return c.Send("Usage: /add <word>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	added, err := b.store.Add(ctx, b.scope(c), word)
	if err != nil {
		return b.storeFailure(c, "add", word, err)
	}
	if !added {
		return c.Send(fmt.Sprintf("ℹ️ Already in the list: %s", word))
	}
	return c.Send(fmt.Sprintf("✅ Keyword added: %s", word))
}

func (b *Bot) handleRemove(c tele.Context) error {
	if ok, err := b.authorize(c); !ok {
		return err
	}

	word := keyword.Normalize(c.Message().Payload)
	if word == "" {
		return c.Send("Usage: /remove <word>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	removed, err := b.store.Remove(ctx, b.scope(c), word)
	if err != nil {
		return b.storeFailure(c, "remove", word, err)
	}
	if !removed {
		return c.Send(fmt.Sprintf("🔍 Not found: %s", word))
	}
	return c.Send(fmt.Sprintf("🗑 Keyword removed: %s", word))
}

func (b *Bot) handleList(c tele.Context) error {
	if ok, err := b.authorize(c); !ok {
		return err
	}

	words := b.store.List(b.scope(c))
	if len(words) == 0 {
		return c.Send("📭 The keyword list is empty.")
	}
	return c.Send("📋 Keywords:\n" + strings.Join(words, "\n"))
}

// authorize replies to the issuer and reports false when the guard rejects
// the command.
func (b *Bot) authorize(c tele.Context) (bool, error) {
	var issuer int64
	if u := c.Sender(); u != nil {
		issuer = u.ID
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	// The shared list belongs to the configured admin whatever the guard.
	guard := b.guard
	if b.store.Mode() == keyword.ScopeGlobal {
		guard = access.FixedAdmin{ID: b.cfg.AdminID}
	}

	err := guard.Authorize(ctx, issuer, c.Chat())
	if err == nil {
		return true, nil
	}

	if errors.Is(err, access.ErrLookup) {
		b.log.Warn("admin lookup failed", "user_id", issuer, "error", err)
		return false, c.Send("⚠️ Could not verify your admin rights, try again later.")
	}
	b.log.Info("command rejected", "user_id", issuer, "text", c.Message().Text)
	return false, c.Send("⛔ You are not allowed to use this command.")
}

func (b *Bot) storeFailure(c tele.Context, op, word string, err error) error {
	if errors.Is(err, keyword.ErrEmpty) {
		return c.Send(fmt.Sprintf("Usage: /%s <word>", op))
	}
	b.log.Error("keyword store failed", "op", op, "keyword", word, "error", err)
	return c.Send(fmt.Sprintf("❌ Could not %s %q, the list was not changed.", op, word))
}

// scope is the keyword scope of the chat c was sent in. The store folds it
// to keyword.Global when keywords are not per chat.
func (b *Bot) scope(c tele.Context) keyword.Scope {
	if chat := c.Chat(); chat != nil {
		return keyword.Scope(chat.ID)
	}
	return keyword.Global
}
