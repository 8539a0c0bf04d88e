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

import (
	"database/sql"
)

// TenantEntity is the entity for the "tenants" table. Tenants live in the
// shared partition and anchor one isolated data partition each.
type TenantEntity struct {
	ID        int64  `db:"id"`
	Slug      string `db:"slug"`
	Name      string `db:"name"`
	Domain    string `db:"domain"`
	IsActive  bool   `db:"is_active"`
	CreatedAt int64  `db:"created_at"`
	UpdatedAt int64  `db:"updated_at"`
}

// MailboxConfigEntity is the entity for the "mailbox_configs" table. One
// active configuration drives one ingestion worker for its tenant.
type MailboxConfigEntity struct {
	ID            int64         `db:"id"`
	TenantID      int64         `db:"tenant_id"`
	Name          string        `db:"name"`
	Host          string        `db:"host"`
	Port          int64         `db:"port"`
	Username      string        `db:"username"`
	Password      string        `db:"password"`
	UseTLS        bool          `db:"use_tls"`
	Folder        string        `db:"folder"`
	PollInterval  int64         `db:"poll_interval"`
	BatchSize     int64         `db:"batch_size"`
	IsActive      bool          `db:"is_active"`
	LastCheckedAt sql.NullInt64 `db:"last_checked_at"`
}

// EmailEntity is the entity for the "emails" table. The pair
// (tenant_id, message_id) is unique, which is the dedup guarantee.
type EmailEntity struct {
	ID           int64         `db:"id"`
	TenantID     int64         `db:"tenant_id"`
	MessageID    string        `db:"message_id"`
	Sender       string        `db:"sender"`
	Recipient    string        `db:"recipient"`
	Subject      string        `db:"subject"`
	Body         string        `db:"body"`
	ReceivedAt   int64         `db:"received_at"`
	Priority     Priority      `db:"priority"`
	Status       EmailStatus   `db:"status"`
	AssignedUser sql.NullInt64 `db:"assigned_user_id"`
	CreatedAt    int64         `db:"created_at"`
	UpdatedAt    int64         `db:"updated_at"`
}

// UserEntity is the entity for the "users" table. ChatRef holds the external
// chat identifier of the destination bound to this user, if any.
type UserEntity struct {
	ID            int64         `db:"id"`
	TenantID      int64         `db:"tenant_id"`
	Name          string        `db:"name"`
	Email         string        `db:"email"`
	Phone         string        `db:"phone"`
	Role          string        `db:"role"`
	ChatRef       sql.NullInt64 `db:"chat_ref"`
	IsActive      bool          `db:"is_active"`
	AlertsEnabled bool          `db:"alerts_enabled"`
	CreatedAt     int64         `db:"created_at"`
	UpdatedAt     int64         `db:"updated_at"`
}

// ChatEntity is the entity for the "chats" table. Chats live in the shared
// partition and reference their owning tenant. ChatRef is the external chat
// identifier and is unique system-wide.
type ChatEntity struct {
	ID           int64      `db:"id"`
	TenantID     int64      `db:"tenant_id"`
	ChatRef      int64      `db:"chat_ref"`
	Name         string     `db:"name"`
	Kind         ChatKind   `db:"kind"`
	AlertLevel   AlertLevel `db:"alert_level"`
	EmailAlerts  bool       `db:"email_alerts"`
	SystemAlerts bool       `db:"system_alerts"`
	IsActive     bool       `db:"is_active"`
	CreatedAt    int64      `db:"created_at"`
	UpdatedAt    int64      `db:"updated_at"`
}

// BindingCodeEntity is the entity for the "binding_codes" table. UserEmail is
// a weak cross-partition reference resolved at redemption time, never a
// foreign key. A code transitions unused to used exactly once.
type BindingCodeEntity struct {
	ID             int64          `db:"id"`
	TenantID       int64          `db:"tenant_id"`
	Code           string         `db:"code"`
	UserEmail      sql.NullString `db:"user_email"`
	CreatedAt      int64          `db:"created_at"`
	ExpiresAt      int64          `db:"expires_at"`
	Used           bool           `db:"used"`
	UsedAt         sql.NullInt64  `db:"used_at"`
	RedeemedChatID sql.NullInt64  `db:"redeemed_chat_id"`
}

// IsExpired reports whether the code may no longer be redeemed at the given
// unix timestamp.
func (c *BindingCodeEntity) IsExpired(now int64) bool {
	return now >= c.ExpiresAt
}

// NotificationEntity is the entity for the "notifications" table. The pair
// (email_id, chat_id) is unique, which is the at-most-once delivery
// guarantee.
type NotificationEntity struct {
	ID                int64              `db:"id"`
	TenantID          int64              `db:"tenant_id"`
	EmailID           int64              `db:"email_id"`
	ChatID            int64              `db:"chat_id"`
	Status            NotificationStatus `db:"status"`
	ProviderMessageID sql.NullInt64      `db:"provider_message_id"`
	ErrorMessage      sql.NullString     `db:"error_message"`
	AttemptCount      int64              `db:"attempt_count"`
	SentAt            sql.NullInt64      `db:"sent_at"`
	CreatedAt         int64              `db:"created_at"`
	UpdatedAt         int64              `db:"updated_at"`
}

// IngestLogEntity is the entity for the "ingest_logs" table. One row is
// written per ingestion run, successful or not.
type IngestLogEntity struct {
	ID         int64  `db:"id"`
	TenantID   int64  `db:"tenant_id"`
	ConfigID   int64  `db:"config_id"`
	Status     string `db:"status"`
	Message    string `db:"message"`
	Processed  int64  `db:"processed"`
	Skipped    int64  `db:"skipped"`
	Failed     int64  `db:"failed"`
	DurationMS int64  `db:"duration_ms"`
	CreatedAt  int64  `db:"created_at"`
}
