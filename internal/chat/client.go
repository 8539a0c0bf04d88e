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

package chat

import (
	"context"
	"fmt"

	"github.com/vigilmail/vigilmail/internal/models"
)

// FailureKind classifies a failed delivery attempt.
type FailureKind int

const (
	_ FailureKind = iota
	// FailureRateLimited means the provider asked to slow down.
	FailureRateLimited
	// FailureForbidden means the bot was removed or blocked from the chat.
	FailureForbidden
	// FailureNotFound means the chat does not exist anymore.
	FailureNotFound
	// FailureUnknown covers network problems and unexpected provider errors.
	FailureUnknown
)

func (k FailureKind) String() string {
	switch k {
	case FailureRateLimited:
		return "rate-limited"
	case FailureForbidden:
		return "forbidden"
	case FailureNotFound:
		return "not-found"
	default:
		return "unknown"
	}
}

// DeliveryError is returned by Client.Send when a message could not be
// delivered.
type DeliveryError struct {
	Kind    FailureKind
	ChatRef int64
	Err     error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("chat: delivery to %d failed (%s): %v", e.ChatRef, e.Kind, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// Temporary reports whether a later attempt could still succeed. Forbidden
// and missing chats are gone for good, everything else is worth a retry.
func (e *DeliveryError) Temporary() bool {
	switch e.Kind {
	case FailureForbidden, FailureNotFound:
		return false
	default:
		return true
	}
}

// Profile describes the remote chat an inbound message came from.
type Profile struct {
	ChatRef int64
	Name    string
	Kind    models.ChatKind
}

// Client sends messages to chat destinations of the messaging provider.
type Client interface {
	// Send delivers a formatted message to the chat with the given provider
	// reference and returns the provider message id.
	Send(ctx context.Context, chatRef int64, text string) (int64, error)
}
