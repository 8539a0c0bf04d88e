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

// Package admin bundles the operations an operator performs against a
// running instance. It stitches the tenant store, the binding manager and
// the dispatcher together behind one surface.
package admin

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/vigilmail/vigilmail/internal/binding"
	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/dispatch"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

// ErrUserNotLinked is returned when an unlink targets a user without a
// chat binding.
var ErrUserNotLinked = errors.New("admin: user has no linked chat")

// Surface exposes the administrative operations.
type Surface struct {
	conn database.Conn

	emailDao     database.EmailDao
	userDao      database.UserDao
	chatDao      database.ChatDao
	ingestLogDao database.IngestLogDao

	store      *tenant.Store
	manager    *binding.Manager
	dispatcher *dispatch.Dispatcher
	client     chat.Client
}

// NewSurface creates a new Surface.
func NewSurface(
	conn database.Conn,
	emailDao database.EmailDao,
	userDao database.UserDao,
	chatDao database.ChatDao,
	ingestLogDao database.IngestLogDao,
	store *tenant.Store,
	manager *binding.Manager,
	dispatcher *dispatch.Dispatcher,
	client chat.Client,
) *Surface {
	return &Surface{
		conn:         conn,
		emailDao:     emailDao,
		userDao:      userDao,
		chatDao:      chatDao,
		ingestLogDao: ingestLogDao,
		store:        store,
		manager:      manager,
		dispatcher:   dispatcher,
		client:       client,
	}
}

// Deprovision removes the named tenant partition and every record within it.
func (s *Surface) Deprovision(ctx context.Context, slug string) error {
	return s.store.Deprovision(ctx, slug)
}

// IssueCode creates a binding code for the named tenant, optionally tied to
// a user address.
func (s *Surface) IssueCode(ctx context.Context, slug, userEmail string) (*models.BindingCodeEntity, error) {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	return s.manager.Issue(ctx, partition, userEmail)
}

// RedeemCode consumes a binding code on behalf of a chat, exactly as an
// inbound chat command would.
func (s *Surface) RedeemCode(ctx context.Context, code string, profile chat.Profile) error {
	_, err := s.manager.Redeem(ctx, code, profile)
	return err
}

// UnlinkChat removes a chat binding from the named tenant.
func (s *Surface) UnlinkChat(ctx context.Context, slug string, chatID int64) error {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return err
	}

	return s.manager.UnlinkChat(ctx, partition, chatID)
}

// UnlinkUser removes the chat binding of the given user.
func (s *Surface) UnlinkUser(ctx context.Context, slug string, userID int64) error {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return err
	}

	user, err := s.userDao.FindByID(ctx, s.conn, partition, userID)
	if err != nil {
		return err
	}

	if !user.ChatRef.Valid {
		return ErrUserNotLinked
	}

	chatEntity, err := s.chatDao.FindByChatRef(ctx, s.conn, user.ChatRef.Int64)
	if err != nil {
		if database.IsErrNoRows(err) {
			return ErrUserNotLinked
		}

		return err
	}

	if chatEntity.TenantID != partition.TenantID() {
		return ErrUserNotLinked
	}

	return s.manager.UnlinkChat(ctx, partition, chatEntity.ID)
}

// ListEmails returns the emails of the named tenant matching the filter,
// newest first.
func (s *Surface) ListEmails(
	ctx context.Context,
	slug string,
	filter database.EmailFilter,
) ([]models.EmailEntity, error) {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	return s.emailDao.Find(ctx, s.conn, partition, filter)
}

// ListChats returns the active chat destinations of the named tenant.
func (s *Surface) ListChats(ctx context.Context, slug string) ([]models.ChatEntity, error) {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	return s.chatDao.FindActive(ctx, s.conn, partition)
}

// ListIngestRuns returns the most recent ingestion runs of the named
// tenant.
func (s *Surface) ListIngestRuns(ctx context.Context, slug string, limit int64) ([]models.IngestLogEntity, error) {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return nil, err
	}

	return s.ingestLogDao.FindRecent(ctx, s.conn, partition, limit)
}

// SystemAlert broadcasts an operational notice to the system alert chats of
// the named tenant and returns the number of chats reached.
func (s *Surface) SystemAlert(ctx context.Context, slug, text string) (int, error) {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return 0, err
	}

	return s.dispatcher.SystemAlert(ctx, partition, text)
}

// AssignEmail hands an email to a user and pings their linked chat, unless
// the user muted alerts.
func (s *Surface) AssignEmail(ctx context.Context, slug string, emailID, userID int64) error {
	partition, err := s.store.Resolve(ctx, slug)
	if err != nil {
		return err
	}

	user, err := s.userDao.FindByID(ctx, s.conn, partition, userID)
	if err != nil {
		return err
	}

	email, err := s.emailDao.FindByID(ctx, s.conn, partition, emailID)
	if err != nil {
		return err
	}

	err = s.emailDao.UpdateAssignee(ctx, s.conn, partition, emailID, userID, time.Now().Unix())
	if err != nil {
		return err
	}

	if user.AlertsEnabled && user.ChatRef.Valid {
		notice := fmt.Sprintf("📌 You were assigned an email:\n<b>%s</b>",
			html.EscapeString(email.Subject))

		if _, err := s.client.Send(ctx, user.ChatRef.Int64, notice); err != nil {
			log.WarnContext(log.WithTenant(ctx, partition.TenantID())).
				Err(err).
				Int64("user", userID).
				Msg("could not notify assignee")
		}
	}

	return nil
}
