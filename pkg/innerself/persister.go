package innerself

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/papercomputeco/innerself/pkg/mind"
	"github.com/papercomputeco/innerself/pkg/storage"
)

const stopTimeout = 5 * time.Second

type persisterConfig struct {
	driver   storage.Driver
	key      string
	interval time.Duration
	store    *mind.Store
	logger   *slog.Logger
	now      func() time.Time
}

// persister restores the store on start and snapshots it on a cron
// schedule.
type persister struct {
	persisterConfig
	cron *rcron.Cron
}

func newPersister(c persisterConfig) *persister {
	if c.key == "" {
		c.key = DefaultSnapshotKey
	}
	if c.interval <= 0 {
		c.interval = DefaultPersistInterval
	}
	if c.now == nil {
		c.now = time.Now
	}
	return &persister{persisterConfig: c}
}

func (p *persister) start(ctx context.Context) error {
	if err := p.restore(ctx); err != nil {
		return err
	}

	p.cron = rcron.New()
	_, err := p.cron.AddFunc("@every "+p.interval.String(), func() {
		if err := p.save(context.Background()); err != nil {
			p.logger.Warn("periodic snapshot failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling snapshots: %w", err)
	}
	p.cron.Start()

	p.logger.Info("snapshot persistence started", "key", p.key, "interval", p.interval)
	return nil
}

// restore loads the saved snapshot. A missing snapshot starts empty. An
// unreadable one is copied aside to quarantineKey before starting empty, so
// later saves cannot destroy the only copy; failing to copy it is an error.
func (p *persister) restore(ctx context.Context) error {
	data, err := p.driver.Load(ctx, p.key)
	if storage.IsNotFound(err) {
		p.logger.Info("no snapshot found, starting empty", "key", p.key)
		return nil
	}
	if err != nil {
		return fmt.Errorf("loading snapshot: %w", err)
	}

	if err := p.store.Restore(data); err != nil {
		aside := p.quarantineKey()
		if saveErr := p.driver.Save(ctx, aside, data); saveErr != nil {
			return fmt.Errorf("preserving unreadable snapshot %q: %w", p.key, saveErr)
		}
		p.logger.Warn("unreadable snapshot moved aside, starting empty",
			"key", p.key,
			"moved_to", aside,
			"error", err,
		)
		return nil
	}

	p.logger.Info("snapshot restored", "key", p.key, "characters", p.store.Len())
	return nil
}

func (p *persister) quarantineKey() string {
	return fmt.Sprintf("%s.unreadable-%d", p.key, p.now().Unix())
}

func (p *persister) save(ctx context.Context) error {
	data, err := p.store.Snapshot()
	if err != nil {
		return err
	}
	return p.driver.Save(ctx, p.key, data)
}

func (p *persister) stop(ctx context.Context) error {
	if p.cron != nil {
		select {
		case <-p.cron.Stop().Done():
		case <-time.After(stopTimeout):
			p.logger.Warn("timed out waiting for running snapshot")
		}
	}
	return p.save(ctx)
}
