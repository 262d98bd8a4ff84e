package telegram

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/riskibarqy/matchwire/internal/domain/match"
	"github.com/riskibarqy/matchwire/internal/platform/logging"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// MaxMessageRunes is Telegram's limit for one text message.
	MaxMessageRunes = 4096

	// Telegram throttles bursts to one chat at roughly one message per second.
	defaultSendInterval = 2 * time.Second
)

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Config struct {
	Token        string
	ChatIDs      []int64
	SendInterval time.Duration
	Timeout      time.Duration
}

// Notifier posts formatted match events to one or more Telegram chats.
type Notifier struct {
	sender   Sender
	chatIDs  []int64
	interval time.Duration
	logger   *logging.Logger

	mu       sync.Mutex
	lastSend time.Time
	now      func() time.Time
	sleep    func(ctx context.Context, d time.Duration) error
}

// New authorizes the bot token against the Telegram API.
func New(cfg Config, logger *logging.Logger) (*Notifier, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, crerr.New("telegram bot token is required")
	}
	if len(cfg.ChatIDs) == 0 {
		return nil, crerr.New("at least one telegram chat id is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	client := &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)}

	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, crerr.Wrap(err, "authorize telegram bot")
	}
	bot.Debug = false

	n := NewWithSender(bot, cfg.ChatIDs, cfg.SendInterval, logger)
	n.logger.Info("telegram notifier initialized", "bot", bot.Self.UserName, "chats", len(cfg.ChatIDs))
	return n, nil
}

func NewWithSender(sender Sender, chatIDs []int64, interval time.Duration, logger *logging.Logger) *Notifier {
	if logger == nil {
		logger = logging.Default()
	}
	if interval <= 0 {
		interval = defaultSendInterval
	}
	ids := make([]int64, 0, len(chatIDs))
	for _, id := range chatIDs {
		if id != 0 {
			ids = append(ids, id)
		}
	}
	return &Notifier{
		sender:   sender,
		chatIDs:  ids,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		sleep:    sleepContext,
	}
}

// Notify sends the event to every chat. Delivery continues past a failing
// chat; the joined error reports every failure.
func (n *Notifier) Notify(ctx context.Context, event match.DomainEvent) error {
	text := Format(event)
	if text == "" {
		return nil
	}

	var errs error
	for _, chatID := range n.chatIDs {
		for _, chunk := range SplitMessage(text, MaxMessageRunes) {
			if err := n.send(ctx, chatID, chunk); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return crerr.CombineErrors(errs, ctxErr)
				}
				n.logger.WarnContext(ctx, "telegram send failed", "chat_id", chatID, "kind", event.Kind, "error", err)
				errs = crerr.CombineErrors(errs, crerr.Wrapf(err, "send to chat %d", chatID))
				break
			}
		}
	}
	return errs
}

// send spaces consecutive messages by the configured interval.
func (n *Notifier) send(ctx context.Context, chatID int64, text string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if !n.lastSend.IsZero() {
		if wait := n.interval - n.now().Sub(n.lastSend); wait > 0 {
			if err := n.sleep(ctx, wait); err != nil {
				return err
			}
		}
	}

	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	_, err := n.sender.Send(msg)
	n.lastSend = n.now()
	return err
}

// SplitMessage cuts text into chunks of at most limit runes, preferring line
// breaks so a summary is not split mid-line.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	out := make([]string, 0, 2)
	runes := []rune(text)
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunk := strings.TrimRight(string(runes[:cut]), "\n")
		if chunk != "" {
			out = append(out, chunk)
		}
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		out = append(out, string(runes))
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
