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

package models

// Priority is the derived importance of an email record.
type Priority int

const (
	_ Priority = iota
	// PriorityLow is the lowest tier and the default when no keyword matches.
	PriorityLow
	// PriorityMedium is the middle tier.
	PriorityMedium
	// PriorityHigh is the highest tier.
	PriorityHigh
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityMedium:
		return "medium"
	case PriorityHigh:
		return "high"
	}

	return "unknown"
}

// AlertLevel is the per-chat filter for email alerts. A level accepts every
// priority at or above itself; LevelAll accepts everything.
type AlertLevel int

const (
	// LevelAll accepts every priority.
	LevelAll AlertLevel = iota
	// LevelLow accepts low, medium and high.
	LevelLow
	// LevelMedium accepts medium and high.
	LevelMedium
	// LevelHigh accepts only high.
	LevelHigh
)

// Accepts reports whether a record of the given priority passes the filter.
func (l AlertLevel) Accepts(p Priority) bool {
	return int(p) >= int(l)
}

func (l AlertLevel) String() string {
	switch l {
	case LevelAll:
		return "all"
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	}

	return "unknown"
}

// EmailStatus indicates the processing state of an email record.
type EmailStatus int

const (
	_ EmailStatus = iota
	// EmailPending is a freshly ingested record, not yet dispatched.
	EmailPending
	// EmailProcessing is a record currently being fanned out.
	EmailProcessing
	// EmailSent is a record delivered to at least one destination.
	EmailSent
	// EmailFailed is a record whose every delivery failed permanently.
	EmailFailed
	// EmailIgnored is a record no destination accepted.
	EmailIgnored
)

// NotificationStatus indicates the delivery state of a single notification.
type NotificationStatus int

const (
	_ NotificationStatus = iota
	// NotificationPending is created but not yet attempted.
	NotificationPending
	// NotificationSent reached its destination.
	NotificationSent
	// NotificationFailed will not be attempted again.
	NotificationFailed
	// NotificationRetry failed transiently and is scheduled for another attempt.
	NotificationRetry
)

// ChatKind is the shape of an external chat destination.
type ChatKind int

const (
	_ ChatKind = iota
	// ChatPrivate is a one-on-one conversation.
	ChatPrivate
	// ChatGroup is a group conversation.
	ChatGroup
	// ChatChannel is a broadcast channel.
	ChatChannel
)
