// Package daemon polls the store for due reminders and fires desktop
// notifications for them.
package daemon

import (
	"context"
	"log"
	"time"

	"taskpad/internal/notify"
	"taskpad/internal/storage"
)

// Poller rescans the store at a fixed interval. Each due reminder is
// notified and marked triggered exactly once; optionally, incomplete
// tasks that stayed overdue are re-notified at a configured frequency.
type Poller struct {
	store        storage.Store
	notifier     notify.Notifier
	interval     time.Duration
	overdueEvery time.Duration
	logger       *log.Logger

	lastOverduePing map[int64]time.Time
}

func New(store storage.Store, notifier notify.Notifier, interval, overdueEvery time.Duration, logger *log.Logger) *Poller {
	if interval <= 0 {
		interval = time.Second
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Poller{
		store:           store,
		notifier:        notifier,
		interval:        interval,
		overdueEvery:    overdueEvery,
		logger:          logger,
		lastOverduePing: map[int64]time.Time{},
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Printf("daemon started, polling every %v", p.interval)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			p.logger.Printf("daemon stopping: %v", ctx.Err())
			return nil
		case now := <-ticker.C:
			p.tick(ctx, now)
		}
	}
}

// tick runs one scan. Store errors abandon the scan; notifier errors
// are logged and the reminder is still marked triggered, so a broken
// notify command cannot make a reminder fire forever.
func (p *Poller) tick(ctx context.Context, now time.Time) {
	due, err := p.store.DueReminders(now)
	if err != nil {
		p.logger.Printf("scan failed: %v", err)
		return
	}
	for _, d := range due {
		if err := p.notifier.Notify(ctx, d.Message); err != nil {
			p.logger.Printf("notify failed for reminder %d: %v", d.ReminderID, err)
		}
		if err := p.store.MarkTriggered(d.ReminderID); err != nil {
			p.logger.Printf("marking reminder %d failed: %v", d.ReminderID, err)
		}
		// The initial notification counts as an overdue ping, else the
		// overdue pass would fire again in the same tick.
		p.lastOverduePing[d.TaskID] = now
	}

	if p.overdueEvery > 0 {
		p.pingOverdue(ctx, now)
	}
}

// pingOverdue re-notifies incomplete tasks whose reminder already
// fired, at most once per overdueEvery window. Last-ping times are
// in-memory only; a restart just re-notifies once more.
func (p *Poller) pingOverdue(ctx context.Context, now time.Time) {
	tasks, err := p.store.Tasks()
	if err != nil {
		p.logger.Printf("overdue scan failed: %v", err)
		return
	}
	seen := map[int64]struct{}{}
	for _, t := range tasks {
		if t.Done || !t.Reminder.Triggered || !t.Reminder.Due(now) {
			continue
		}
		seen[t.ID] = struct{}{}
		if last, ok := p.lastOverduePing[t.ID]; ok && now.Sub(last) < p.overdueEvery {
			continue
		}
		msg := t.Reminder.Message
		if msg == "" {
			msg = t.Text
		}
		if err := p.notifier.Notify(ctx, "Overdue: "+msg); err != nil {
			p.logger.Printf("overdue notify failed for task %d: %v", t.ID, err)
		}
		p.lastOverduePing[t.ID] = now
	}
	// Forget tasks that were completed or deleted meanwhile.
	for id := range p.lastOverduePing {
		if _, ok := seen[id]; !ok {
			delete(p.lastOverduePing, id)
		}
	}
}
