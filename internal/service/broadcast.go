package service

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
	"github.com/iliyamo/ticket-bot/internal/queue"
)

// RecipientLister enumerates broadcast recipients.
type RecipientLister interface {
	ListIDs(ctx context.Context) ([]int64, error)
}

// Report summarises a broadcast run.  Succeeded+Failed always equals Total.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
}

// Broadcaster fans an announcement out to every registered participant,
// one recipient at a time with a fixed pause between sends so the bot
// stays under the platform-wide send rate.
type Broadcaster struct {
	recipients RecipientLister
	notifier   Deliverer
	delay      time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewBroadcaster returns a Broadcaster pausing delay between recipients.
func NewBroadcaster(recipients RecipientLister, notifier Deliverer, delay time.Duration) *Broadcaster {
	return &Broadcaster{recipients: recipients, notifier: notifier, delay: delay, sleep: sleepCtx}
}

// Run delivers text to every participant and reports the result to
// requester.  Per-recipient failures are counted, never fatal.  An error is
// returned only when the recipients cannot be listed; the requester is
// told about it as well.
func (b *Broadcaster) Run(ctx context.Context, text string, requester int64) (Report, error) {
	ids, err := b.recipients.ListIDs(ctx)
	if err != nil {
		log.Printf("broadcast: list recipients: %v", err)
		if nerr := b.notifier.Deliver(ctx, requester, BroadcastFailedPrompt(err)); nerr != nil {
			log.Printf("broadcast: notify requester %d: %v", requester, nerr)
		}
		return Report{}, fmt.Errorf("broadcast: %w", err)
	}

	rep := Report{Total: len(ids)}
	msg := AnnouncementPrompt(text)
	for i, id := range ids {
		if err := b.notifier.Deliver(ctx, id, msg); err != nil {
			rep.Failed++
			log.Printf("broadcast: recipient %d: %v", id, err)
		} else {
			rep.Succeeded++
		}
		if i == len(ids)-1 || b.delay <= 0 {
			continue
		}
		if err := b.sleep(ctx, b.delay); err != nil {
			// cancelled: everyone not reached yet counts as failed
			rep.Failed += len(ids) - 1 - i
			log.Printf("broadcast: interrupted after %d of %d recipients: %v", i+1, len(ids), err)
			break
		}
	}
	monitoring.TrackBroadcast(rep.Succeeded, rep.Failed)
	log.Printf("broadcast: done total=%d succeeded=%d failed=%d", rep.Total, rep.Succeeded, rep.Failed)

	if err := b.notifier.Deliver(ctx, requester, ReportPrompt(rep)); err != nil {
		log.Printf("broadcast: send report to %d: %v", requester, err)
	}
	return rep, nil
}

// AnnouncementPrompt is the message every recipient gets.
func AnnouncementPrompt(text string) chat.Prompt {
	return chat.Prompt{Text: "📢 <b>Announcement:</b>\n\n" + text, HTML: true}
}

// ReportPrompt is the summary sent to the requester.
func ReportPrompt(r Report) chat.Prompt {
	return chat.Prompt{
		Text: fmt.Sprintf("📊 <b>Broadcast result:</b>\n• Total recipients: %d\n• Succeeded: %d\n• Failed: %d",
			r.Total, r.Succeeded, r.Failed),
		HTML: true,
	}
}

// BroadcastFailedPrompt tells the requester the run could not start.
func BroadcastFailedPrompt(err error) chat.Prompt {
	return chat.Prompt{Text: fmt.Sprintf("❌ Broadcast failed: %v", err)}
}

// BroadcastPublisher hands a broadcast request to the job queue.
type BroadcastPublisher interface {
	PublishBroadcast(ctx context.Context, ev queue.BroadcastRequestedEvent) error
}

// BroadcastJobs starts broadcasts detached from the request that asked for
// them.  Requests go through the message broker when one is configured,
// so broadcasts run one after another in the consumer; when publishing
// fails the run starts in a background goroutine instead.
type BroadcastJobs struct {
	publisher BroadcastPublisher
	engine    *Broadcaster
	base      context.Context
	now       func() time.Time
	wg        sync.WaitGroup
}

// NewBroadcastJobs returns BroadcastJobs.  publisher may be nil.  base is
// the context fallback runs execute under; it should live as long as the
// process.
func NewBroadcastJobs(base context.Context, publisher BroadcastPublisher, engine *Broadcaster) *BroadcastJobs {
	return &BroadcastJobs{publisher: publisher, engine: engine, base: base, now: time.Now}
}

// Schedule queues a broadcast of text on behalf of requester and returns
// without waiting for it.
func (j *BroadcastJobs) Schedule(ctx context.Context, text string, requester int64) error {
	if j.publisher != nil {
		ev := queue.BroadcastRequestedEvent{
			Text:        text,
			RequestedBy: requester,
			RequestedAt: j.now().UTC().Format(time.RFC3339),
		}
		err := j.publisher.PublishBroadcast(ctx, ev)
		if err == nil {
			return nil
		}
		log.Printf("broadcast: publish failed, running in-process: %v", err)
	}
	j.wg.Add(1)
	go func() {
		defer j.wg.Done()
		_, _ = j.engine.Run(j.base, text, requester)
	}()
	return nil
}

// HandleRequested runs a broadcast received from the job queue.
func (j *BroadcastJobs) HandleRequested(ctx context.Context, ev queue.BroadcastRequestedEvent) error {
	_, err := j.engine.Run(ctx, ev.Text, ev.RequestedBy)
	return err
}

// Wait blocks until in-process broadcast runs have finished.
func (j *BroadcastJobs) Wait() { j.wg.Wait() }
