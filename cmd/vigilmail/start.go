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

package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/dispatch"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/mailbox"
	"github.com/vigilmail/vigilmail/internal/reconcile"
)

// startCommand runs the long living service: mailbox ingestion, chat
// command handling, notification dispatch and reconciliation.
type startCommand struct {
	Conn       database.Conn
	Poller     *mailbox.Poller
	Dispatcher *dispatch.Dispatcher
	Listener   *chat.Listener
	Reconciler *reconcile.Reconciler
}

func (c *startCommand) run([]string) error {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	defer c.Conn.Close()

	runners := []func(context.Context) error{
		c.Dispatcher.Run,
		c.Poller.Run,
		c.Listener.Run,
		c.Reconciler.Run,
	}

	for _, runner := range runners {
		go func(run func(context.Context) error) {
			if err := run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("service stopped unexpectedly")
				stop()
			}
		}(runner)
	}

	log.Info().Msg("vigilmail is running")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	return nil
}
