package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
)

var (
	// ErrRecipientBlocked is returned when the recipient can never be
	// reached (blocked the bot, deleted the account).
	ErrRecipientBlocked = errors.New("recipient blocked")
	// ErrRateLimited is returned when the platform kept rate limiting the
	// delivery until the attempt budget ran out, or asked for a pause
	// longer than the notifier is willing to wait.
	ErrRateLimited = errors.New("rate limited")
)

// Deliverer sends one prompt to one recipient.
type Deliverer interface {
	Deliver(ctx context.Context, to int64, p chat.Prompt) error
}

// NotifierConfig bounds the rate limit retry loop.  Waits start at
// BaseBackoff, double after every retry and never exceed MaxBackoff; a
// server hint longer than MaxBackoff ends the loop.
type NotifierConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
}

// Notifier is the single-recipient delivery primitive shared by the
// moderation queue, the reply command and the broadcast engine.
type Notifier struct {
	out   chat.Messenger
	cfg   NotifierConfig
	sleep func(ctx context.Context, d time.Duration) error
}

// NewNotifier returns a Notifier sending through out.  Zero config values
// fall back to 5 attempts, 1s base and 30s maximum back-off.
func NewNotifier(out chat.Messenger, cfg NotifierConfig) *Notifier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 5
	}
	if cfg.BaseBackoff <= 0 {
		cfg.BaseBackoff = time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = 30 * time.Second
	}
	if cfg.MaxBackoff < cfg.BaseBackoff {
		cfg.MaxBackoff = cfg.BaseBackoff
	}
	return &Notifier{out: out, cfg: cfg, sleep: sleepCtx}
}

// Deliver sends p to the recipient.  Blocked recipients and unexpected
// errors fail immediately; rate limit signals are retried with the
// identical payload after a pause.  Only the calling goroutine waits.
func (n *Notifier) Deliver(ctx context.Context, to int64, p chat.Prompt) error {
	backoff := n.cfg.BaseBackoff
	for attempt := 1; ; attempt++ {
		err := n.out.Send(ctx, to, p)
		if err == nil {
			monitoring.TrackDelivery(monitoring.OutcomeSent)
			return nil
		}

		var ra *chat.RetryAfterError
		switch {
		case errors.Is(err, chat.ErrBlocked):
			log.Printf("notifier: recipient %d unreachable: %v", to, err)
			monitoring.TrackDelivery(monitoring.OutcomeBlocked)
			return fmt.Errorf("deliver to %d: %w", to, ErrRecipientBlocked)

		case errors.As(err, &ra):
			if attempt >= n.cfg.MaxAttempts || ra.Wait > n.cfg.MaxBackoff {
				log.Printf("notifier: giving up on %d after %d attempts (server asked for %s)", to, attempt, ra.Wait)
				monitoring.TrackDelivery(monitoring.OutcomeRateLimited)
				return fmt.Errorf("deliver to %d after %d attempts: %w", to, attempt, ErrRateLimited)
			}
			wait := ra.Wait
			if wait < backoff {
				wait = backoff
			}
			log.Printf("notifier: rate limited sending to %d, retrying in %s (attempt %d/%d)", to, wait, attempt, n.cfg.MaxAttempts)
			monitoring.TrackDeliveryRetry()
			if err := n.sleep(ctx, wait); err != nil {
				return fmt.Errorf("deliver to %d: %w", to, err)
			}
			backoff *= 2
			if backoff > n.cfg.MaxBackoff {
				backoff = n.cfg.MaxBackoff
			}

		default:
			log.Printf("notifier: send to %d failed: %v", to, err)
			monitoring.TrackDelivery(monitoring.OutcomeFailed)
			return fmt.Errorf("deliver to %d: %w", to, err)
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
