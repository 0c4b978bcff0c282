// Package notify delivers the Orchestrator's and Scheduler's completion and
// failure messages to Telegram. Unlike the teacher's interactive notify
// bot — which polls for inbound commands and routes them to running tasks —
// this service is purely outbound: a monitoring run has nothing for a user
// to cancel, so there is no command receiver loop here, only the send path.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/catalogwatcher/catalog-watcher/internal/config"
	apperrors "github.com/catalogwatcher/catalog-watcher/internal/pkg/errors"
	applog "github.com/catalogwatcher/catalog-watcher/pkg/log"
)

const component = "notify"

// messageMaxLength is Telegram's hard per-message byte cap (4096), reduced
// slightly to leave room for the title/severity wrapper this package adds.
const messageMaxLength = 3900

// telegramBotAPI is the narrow slice of tgbotapi.BotAPI this package calls,
// so a fake can stand in for tests without reaching the real Telegram API.
type telegramBotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// sender is one configured Telegram destination.
type sender struct {
	id      string
	chatID  int64
	client  telegramBotAPI
	limiter *rate.Limiter
}

// Service fans a notification out to a named Telegram sender, falling back
// to the configured default when the caller doesn't care which channel
// carries the message (spec §7's "user-visible failure behavior").
type Service struct {
	mu        sync.RWMutex
	senders   map[string]*sender
	defaultID string
}

// ErrNotifierNotFound is returned by NotifyTo for an unregistered ID.
var ErrNotifierNotFound = apperrors.New(apperrors.NotFound, "notifier not found")

// New builds a Service from the application's Notifier configuration. It
// dials a real Telegram bot client per configured entry; a bad token fails
// fast rather than being discovered on the first notification attempt.
func New(cfg config.NotifierConfig) (*Service, error) {
	s := &Service{senders: make(map[string]*sender, len(cfg.Telegrams)), defaultID: cfg.DefaultNotifierID}

	for _, t := range cfg.Telegrams {
		bot, err := tgbotapi.NewBotAPI(t.BotToken)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Unavailable, fmt.Sprintf("telegram bot %q failed to authenticate", t.ID))
		}
		s.senders[t.ID] = &sender{
			id:      t.ID,
			chatID:  t.ChatID,
			client:  bot,
			limiter: rate.NewLimiter(rate.Limit(20), 5),
		}
	}

	return s, nil
}

// NotifyDefault sends an informational message on the default channel.
// It satisfies orchestrator.Notifier.
func (s *Service) NotifyDefault(message string) error {
	return s.notify(s.defaultID, message, false)
}

// NotifyDefaultWithError sends an error-flagged message on the default
// channel. It satisfies orchestrator.Notifier.
func (s *Service) NotifyDefaultWithError(message string) error {
	return s.notify(s.defaultID, message, true)
}

// NotifyTo sends a message on a specific named channel, falling back to
// ErrNotifierNotFound if id isn't registered.
func (s *Service) NotifyTo(id, message string, errorOccurred bool) error {
	return s.notify(id, message, errorOccurred)
}

// Health reports whether the default notifier is usable. A Service with
// zero senders (notifications disabled) is healthy; otherwise the default
// ID must be set and name a registered sender.
func (s *Service) Health() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.senders) == 0 {
		return nil
	}
	if s.defaultID == "" {
		return apperrors.New(apperrors.Internal, "notify: no default notifier configured")
	}
	if _, ok := s.senders[s.defaultID]; !ok {
		return apperrors.New(apperrors.Internal, fmt.Sprintf("notify: default notifier %q not registered", s.defaultID))
	}
	return nil
}

func (s *Service) notify(id, message string, errorOccurred bool) error {
	s.mu.RLock()
	snd, ok := s.senders[id]
	s.mu.RUnlock()

	if !ok {
		if id == "" {
			return nil
		}
		return ErrNotifierNotFound
	}

	if errorOccurred {
		message = fmt.Sprintf("%s\n\n*** an error occurred ***", message)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return snd.sendMessage(ctx, message)
}

// sendMessage splits message on line boundaries to respect Telegram's
// per-message length cap, sending each resulting chunk in order and
// stopping at the first failure.
func (s *sender) sendMessage(ctx context.Context, message string) error {
	if len(message) <= messageMaxLength {
		return s.sendChunk(ctx, message)
	}

	var chunk strings.Builder
	chunk.Grow(messageMaxLength)

	for _, line := range strings.Split(message, "\n") {
		needed := len(line)
		if chunk.Len() > 0 {
			needed++
		}
		if chunk.Len()+needed > messageMaxLength {
			if chunk.Len() > 0 {
				if err := s.sendChunk(ctx, chunk.String()); err != nil {
					return err
				}
				chunk.Reset()
			}
			for len(line) > messageMaxLength {
				if err := s.sendChunk(ctx, line[:messageMaxLength]); err != nil {
					return err
				}
				line = line[messageMaxLength:]
			}
		}
		if chunk.Len() > 0 {
			chunk.WriteByte('\n')
		}
		chunk.WriteString(line)
	}
	if chunk.Len() > 0 {
		return s.sendChunk(ctx, chunk.String())
	}
	return nil
}

// sendChunk sends one message within Telegram's length limit, making up
// to three attempts in all and retrying only transient failures (5xx, 429
// with server-specified backoff).
func (s *sender) sendChunk(ctx context.Context, message string) error {
	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		msg := tgbotapi.NewMessage(s.chatID, message)
		_, err := s.client.Send(msg)
		if err == nil {
			return nil
		}
		lastErr = err

		code, retryAfter := parseTelegramError(err)
		if !shouldRetryCode(code) {
			applog.WithComponentAndFields(component, applog.Fields{"notifier_id": s.id, "error": err, "code": code}).
				Error("telegram send failed with a non-retryable error")
			return err
		}
		if attempt >= maxRetries {
			break
		}

		backoff := time.Duration(attempt) * time.Second
		if code == 429 && retryAfter > 0 {
			backoff = time.Duration(retryAfter) * time.Second
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}

	applog.WithComponentAndFields(component, applog.Fields{"notifier_id": s.id, "error": lastErr}).
		Error("telegram send exhausted retries")
	return lastErr
}

func parseTelegramError(err error) (code, retryAfter int) {
	if apiErr, ok := err.(*tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	if apiErr, ok := err.(tgbotapi.Error); ok {
		return apiErr.Code, apiErr.ResponseParameters.RetryAfter
	}
	return 0, 0
}

// shouldRetryCode reports whether a send should be retried for the given
// Telegram API status code: 5xx and 429 are transient, the rest aren't.
func shouldRetryCode(code int) bool {
	if code == 0 {
		return true // non-API error (network/timeout): worth one more try
	}
	if code == 429 {
		return true
	}
	return code >= 500
}
