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

package binding

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

func init() {
	viper.SetDefault("binding.codettl", "168h")
}

var (
	// ErrInvalidCode is returned when a code does not exist or was already
	// consumed.
	ErrInvalidCode = errors.New("binding: invalid code")
	// ErrExpiredCode is returned when a code exists but its ttl has passed.
	ErrExpiredCode = errors.New("binding: expired code")
	// ErrAlreadyRegistered is returned when the chat is already bound to
	// the partition the code belongs to.
	ErrAlreadyRegistered = errors.New("binding: chat already registered")
	// ErrChatAlreadyBound is returned when the chat is bound to a different
	// partition. A chat serves at most one tenant at a time.
	ErrChatAlreadyBound = errors.New("binding: chat bound to another tenant")
)

// Manager controls the lifecycle of chat bindings. Chats enter a partition
// by redeeming a one-time code and leave it through explicit unlinking, user
// deletion or reconciliation.
type Manager struct {
	conn database.Conn

	codeDao         database.CodeDao
	chatDao         database.ChatDao
	userDao         database.UserDao
	notificationDao database.NotificationDao

	generator CodeGenerator
}

// NewManager creates a new Manager and ties chat bindings to the lifetime
// of their users.
func NewManager(
	conn database.Conn,
	codeDao database.CodeDao,
	chatDao database.ChatDao,
	userDao database.UserDao,
	notificationDao database.NotificationDao,
	generator CodeGenerator,
	store *tenant.Store,
) *Manager {
	manager := &Manager{
		conn:            conn,
		codeDao:         codeDao,
		chatDao:         chatDao,
		userDao:         userDao,
		notificationDao: notificationDao,
		generator:       generator,
	}

	store.OnUserDelete(manager.cascadeUserDelete)
	return manager
}

// Issue creates a new one-time binding code for the partition. The optional
// user email links the redeeming chat to that user.
func (m *Manager) Issue(
	ctx context.Context,
	partition models.Partition,
	userEmail string,
) (*models.BindingCodeEntity, error) {
	now := time.Now()

	entity := models.BindingCodeEntity{
		CreatedAt: now.Unix(),
		ExpiresAt: now.Add(viper.GetDuration("binding.codettl")).Unix(),
	}

	if userEmail != "" {
		entity.UserEmail = sql.NullString{String: userEmail, Valid: true}
	}

	// Collisions are unlikely, but cheap to retry.
	const maxAttempts = 3

	for attempt := 0; attempt < maxAttempts; attempt++ {
		code, err := m.generator.GenerateCode()
		if err != nil {
			return nil, err
		}

		entity.Code = code

		err = m.codeDao.Insert(ctx, m.conn, partition, &entity)
		if err == nil {
			log.InfoContext(log.WithTenant(ctx, partition.TenantID())).
				Int64("code", entity.ID).
				Msg("issued binding code")

			return &entity, nil
		}

		if !database.IsErrUnique(err) {
			return nil, err
		}
	}

	return nil, errors.New("binding: could not generate a unique code")
}

// Redeem consumes a binding code on behalf of a chat and binds the chat to
// the partition the code belongs to. The returned text is meant as a direct
// reply to the chat.
func (m *Manager) Redeem(
	ctx context.Context,
	code string,
	profile chat.Profile,
) (string, error) {
	entity, err := m.codeDao.FindByCode(ctx, m.conn, code)
	if err != nil {
		if database.IsErrNoRows(err) {
			return "That code is not valid.", ErrInvalidCode
		}

		return "", err
	}

	if entity.Used {
		return "That code is not valid.", ErrInvalidCode
	}

	// Expired codes stay unconsumed. A later cleanup removes them.
	if entity.IsExpired(time.Now().Unix()) {
		return "That code has expired. Please request a new one.", ErrExpiredCode
	}

	partition := models.NewPartition(entity.TenantID)

	if existing, err := m.chatDao.FindByChatRef(ctx, m.conn, profile.ChatRef); err == nil {
		if existing.TenantID == partition.TenantID() {
			return "This chat is already registered.", ErrAlreadyRegistered
		}

		return "This chat is already in use elsewhere.", ErrChatAlreadyBound
	} else if !database.IsErrNoRows(err) {
		return "", err
	}

	if err := m.bind(ctx, partition, entity, profile); err != nil {
		if database.IsErrUnique(err) {
			// Lost a race against a concurrent redemption for the same chat.
			return "This chat is already registered.", ErrAlreadyRegistered
		}

		if database.IsErrNoRows(err) {
			return "That code is not valid.", ErrInvalidCode
		}

		return "", err
	}

	log.InfoContext(log.WithTenant(log.WithChat(ctx, profile.ChatRef), partition.TenantID())).
		Int64("code", entity.ID).
		Msg("redeemed binding code")

	return "Registration successful. You will now receive alerts here.", nil
}

// bind creates the chat, consumes the code and links the referenced user in
// a single transaction.
func (m *Manager) bind(
	ctx context.Context,
	partition models.Partition,
	entity *models.BindingCodeEntity,
	profile chat.Profile,
) error {
	now := time.Now().Unix()

	tx, err := m.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	chatEntity := models.ChatEntity{
		ChatRef:     profile.ChatRef,
		Name:        profile.Name,
		Kind:        profile.Kind,
		AlertLevel:  models.LevelAll,
		EmailAlerts: true,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := m.chatDao.Insert(ctx, tx, partition, &chatEntity); err != nil {
		return err
	}

	if err := m.codeDao.MarkUsed(ctx, tx, entity.ID, chatEntity.ID, now); err != nil {
		return err
	}

	// The user reference is weak. A code issued for an address that no
	// longer resolves still binds the chat, just without a linked user.
	if entity.UserEmail.Valid {
		if err := m.linkUser(ctx, tx, partition, entity.UserEmail.String, profile.ChatRef); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (m *Manager) linkUser(
	ctx context.Context,
	tx database.Tx,
	partition models.Partition,
	email string,
	chatRef int64,
) error {
	user, err := m.userDao.FindByEmail(ctx, tx, partition, email)
	if err != nil {
		if database.IsErrNoRows(err) {
			log.DebugContext(ctx).
				Str("email", email).
				Msg("binding code references an unknown user")

			return nil
		}

		return err
	}

	user.ChatRef = sql.NullInt64{Int64: chatRef, Valid: true}
	user.UpdatedAt = time.Now().Unix()

	return m.userDao.Update(ctx, tx, partition, user)
}

// UnlinkChat removes a chat binding together with its notification history
// and every code associated with it, and clears all user links to it.
func (m *Manager) UnlinkChat(
	ctx context.Context,
	partition models.Partition,
	chatID int64,
) error {
	tx, err := m.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	if err := m.unlinkChatTx(ctx, tx, partition, chatID); err != nil {
		return err
	}

	return tx.Commit()
}

func (m *Manager) unlinkChatTx(
	ctx context.Context,
	tx database.Tx,
	partition models.Partition,
	chatID int64,
) error {
	chatEntity, err := m.chatDao.FindByID(ctx, tx, partition, chatID)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	// Dependent rows go first, the chat row is referenced by both the
	// notification history and the redeemed codes.
	if err := m.notificationDao.DeleteByChat(ctx, tx, partition, chatID); err != nil {
		return err
	}

	if err := m.codeDao.DeleteByRedeemedChat(ctx, tx, partition, chatID); err != nil {
		return err
	}

	// Unredeemed codes issued for the linked users die with the binding.
	users, err := m.userDao.FindByChatRef(ctx, tx, partition, chatEntity.ChatRef)
	if err != nil {
		return err
	}

	for i := range users {
		if err := m.codeDao.DeleteByUserEmail(ctx, tx, partition, users[i].Email); err != nil {
			return err
		}
	}

	if err := m.userDao.ClearChatRef(ctx, tx, partition, chatEntity.ChatRef, now); err != nil {
		return err
	}

	if err := m.chatDao.Delete(ctx, tx, partition, chatEntity); err != nil {
		return err
	}

	log.InfoContext(log.WithTenant(log.WithChat(ctx, chatEntity.ChatRef), partition.TenantID())).
		Msg("unlinked chat")

	return nil
}

// CleanExpiredCodes removes unconsumed codes whose ttl has passed.
func (m *Manager) CleanExpiredCodes(ctx context.Context) error {
	removed, err := m.codeDao.DeleteExpired(ctx, m.conn, time.Now().Unix())
	if err != nil {
		return err
	}

	if removed > 0 {
		log.Debug().
			Int64("removed", removed).
			Msg("cleaned expired binding codes")
	}

	return nil
}

// cascadeUserDelete removes the codes and, if no one else uses it, the chat
// of a user that is being deleted. It runs inside the deletion transaction.
func (m *Manager) cascadeUserDelete(
	ctx context.Context,
	tx database.Tx,
	partition models.Partition,
	user *models.UserEntity,
) error {
	if err := m.codeDao.DeleteByUserEmail(ctx, tx, partition, user.Email); err != nil {
		return err
	}

	if !user.ChatRef.Valid {
		return nil
	}

	// The chat survives if another user of the partition still points at it.
	users, err := m.userDao.FindByChatRef(ctx, tx, partition, user.ChatRef.Int64)
	if err != nil {
		return err
	}

	if len(users) > 1 {
		return nil
	}

	chatEntity, err := m.chatDao.FindByChatRef(ctx, tx, user.ChatRef.Int64)
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil
		}

		return err
	}

	if chatEntity.TenantID != partition.TenantID() {
		return nil
	}

	if err := m.notificationDao.DeleteByChat(ctx, tx, partition, chatEntity.ID); err != nil {
		return err
	}

	if err := m.codeDao.DeleteByRedeemedChat(ctx, tx, partition, chatEntity.ID); err != nil {
		return err
	}

	return m.chatDao.Delete(ctx, tx, partition, chatEntity)
}
