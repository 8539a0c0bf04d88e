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

package reconcile

import (
	"context"
	"time"

	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/binding"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("reconcile.interval", "1h")
	viper.SetDefault("reconcile.dryrun", false)
}

// Report summarizes a single reconciliation sweep.
type Report struct {
	// Checked is the number of chats examined.
	Checked int
	// Orphans holds the ids of chats without any liveness proof.
	Orphans []int64
	// Removed is the number of chats actually unlinked. Zero in dry-run.
	Removed int
}

// Reconciler periodically sweeps all chat bindings and removes those that
// no longer belong to anyone. A chat proves its liveness either through a
// user link or through a consumed binding code.
type Reconciler struct {
	conn database.Conn

	chatDao database.ChatDao
	userDao database.UserDao
	codeDao database.CodeDao

	manager *binding.Manager
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	conn database.Conn,
	chatDao database.ChatDao,
	userDao database.UserDao,
	codeDao database.CodeDao,
	manager *binding.Manager,
) *Reconciler {
	return &Reconciler{
		conn:    conn,
		chatDao: chatDao,
		userDao: userDao,
		codeDao: codeDao,
		manager: manager,
	}
}

// Run sweeps in a fixed interval until the context is cancelled. The
// schedule is independent of ingestion and dispatch.
func (r *Reconciler) Run(ctx context.Context) error {
	interval := viper.GetDuration("reconcile.interval")

	log.Info().
		Dur("interval", interval).
		Bool("dryrun", viper.GetBool("reconcile.dryrun")).
		Msg("starting reconciler")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				log.Error().
					Err(err).
					Msg("reconciliation sweep failed")
			}
		}
	}
}

// Sweep examines every chat across all partitions and unlinks the orphaned
// ones. In dry-run mode orphans are only reported.
func (r *Reconciler) Sweep(ctx context.Context) (*Report, error) {
	dryrun := viper.GetBool("reconcile.dryrun")

	chats, err := r.chatDao.FindAll(ctx, r.conn)
	if err != nil {
		return nil, err
	}

	report := Report{Checked: len(chats)}

	for i := range chats {
		chatEntity := &chats[i]

		alive, err := r.isAlive(ctx, chatEntity)
		if err != nil {
			return nil, err
		}

		if alive {
			continue
		}

		report.Orphans = append(report.Orphans, chatEntity.ID)

		log.InfoContext(log.WithTenant(log.WithChat(ctx, chatEntity.ChatRef), chatEntity.TenantID)).
			Bool("dryrun", dryrun).
			Msg("found orphaned chat")

		if dryrun {
			continue
		}

		partition := models.NewPartition(chatEntity.TenantID)

		if err := r.manager.UnlinkChat(ctx, partition, chatEntity.ID); err != nil {
			return nil, err
		}

		report.Removed++
	}

	// Expired codes are part of the same housekeeping pass.
	if !dryrun {
		if err := r.manager.CleanExpiredCodes(ctx); err != nil {
			return nil, err
		}
	}

	log.Debug().
		Int("checked", report.Checked).
		Int("orphans", len(report.Orphans)).
		Int("removed", report.Removed).
		Msg("reconciliation sweep completed")

	return &report, nil
}

// isAlive checks both liveness proofs of a chat within its own partition.
func (r *Reconciler) isAlive(ctx context.Context, chatEntity *models.ChatEntity) (bool, error) {
	partition := models.NewPartition(chatEntity.TenantID)

	users, err := r.userDao.FindByChatRef(ctx, r.conn, partition, chatEntity.ChatRef)
	if err != nil {
		return false, err
	}

	if len(users) > 0 {
		return true, nil
	}

	redemptions, err := r.codeDao.CountRedeemedByChat(ctx, r.conn, partition, chatEntity.ID)
	if err != nil {
		return false, err
	}

	return redemptions > 0, nil
}
