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

package log

import (
	"context"

	"github.com/rs/zerolog"
)

type fieldTenant struct{}
type fieldMailbox struct{}
type fieldChat struct{}
type fieldRun struct{}

// WithTenant adds the tenant identifier to the context.
func WithTenant(ctx context.Context, tenant int64) context.Context {
	return context.WithValue(ctx, fieldTenant{}, tenant)
}

// WithMailbox adds the mailbox configuration identifier to the context.
func WithMailbox(ctx context.Context, mailbox int64) context.Context {
	return context.WithValue(ctx, fieldMailbox{}, mailbox)
}

// WithChat adds the external chat identifier to the context.
func WithChat(ctx context.Context, chat int64) context.Context {
	return context.WithValue(ctx, fieldChat{}, chat)
}

// WithRun adds the ingestion run identifier to the context.
func WithRun(ctx context.Context, run string) context.Context {
	return context.WithValue(ctx, fieldRun{}, run)
}

// appendContextFields adds defined fields in the context to the log event.
func appendContextFields(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	if tenant, ok := ctx.Value(fieldTenant{}).(int64); ok {
		event.Int64("tenant", tenant)
	}

	if mailbox, ok := ctx.Value(fieldMailbox{}).(int64); ok {
		event.Int64("mailbox", mailbox)
	}

	if chat, ok := ctx.Value(fieldChat{}).(int64); ok {
		event.Int64("chat", chat)
	}

	if run, ok := ctx.Value(fieldRun{}).(string); ok {
		event.Str("run", run)
	}

	return event
}
