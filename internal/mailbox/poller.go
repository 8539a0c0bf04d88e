// Copyright (C) 2025  The vigilmail authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package mailbox

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

func init() {
	viper.SetDefault("ingest.tick", "30s")
}

// Poller periodically scans all partitions for mailbox configurations that
// are due for an ingestion cycle. A configuration is never processed by two
// cycles at once.
type Poller struct {
	conn             database.Conn
	mailboxConfigDao database.MailboxConfigDao
	store            *tenant.Store
	worker           *Worker

	mu       sync.Mutex
	inflight map[int64]bool
}

// NewPoller creates a new Poller.
func NewPoller(
	conn database.Conn,
	mailboxConfigDao database.MailboxConfigDao,
	store *tenant.Store,
	worker *Worker,
) *Poller {
	return &Poller{
		conn:             conn,
		mailboxConfigDao: mailboxConfigDao,
		store:            store,
		worker:           worker,
		inflight:         make(map[int64]bool),
	}
}

// Run scans for due mailboxes until the context is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	tick := viper.GetDuration("ingest.tick")

	log.Info().
		Dur("tick", tick).
		Msg("starting mailbox poller")

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if err := p.scan(ctx); err != nil {
				log.Error().
					Err(err).
					Msg("mailbox scan failed")
			}
		}
	}
}

// scan walks all active partitions and starts a cycle for every due
// configuration.
func (p *Poller) scan(ctx context.Context) error {
	partitions, err := p.store.Partitions(ctx)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	for _, partition := range partitions {
		configs, err := p.mailboxConfigDao.FindActive(ctx, p.conn, partition)
		if err != nil {
			return err
		}

		for i := range configs {
			config := configs[i]

			if isDue(&config, now) {
				p.processAsync(ctx, partition, &config)
			}
		}
	}

	return nil
}

// isDue checks whether enough time has passed since the last completed
// cycle. Unchecked mailboxes are always due.
func isDue(config *models.MailboxConfigEntity, now int64) bool {
	if !config.LastCheckedAt.Valid {
		return true
	}

	return now-config.LastCheckedAt.Int64 >= config.PollInterval
}

// processAsync runs a cycle in its own goroutine unless the configuration
// is already being processed.
func (p *Poller) processAsync(
	ctx context.Context,
	partition models.Partition,
	config *models.MailboxConfigEntity,
) {
	p.mu.Lock()
	if p.inflight[config.ID] {
		p.mu.Unlock()
		return
	}

	p.inflight[config.ID] = true
	p.mu.Unlock()

	go func() {
		defer func() {
			p.mu.Lock()
			delete(p.inflight, config.ID)
			p.mu.Unlock()
		}()

		if err := p.worker.Process(ctx, partition, config); err != nil {
			log.WarnContext(log.WithTenant(ctx, partition.TenantID())).
				Err(err).
				Int64("config", config.ID).
				Msg("ingestion cycle failed")
		}
	}()
}
