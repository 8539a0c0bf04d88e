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

package tenant

import (
	"context"
	"errors"
	"time"

	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

var (
	// ErrUnknownTenant is returned when no partition matches a lookup.
	ErrUnknownTenant = errors.New("tenant: unknown tenant")
	// ErrDuplicatePartition is returned when a slug or routing domain is
	// already claimed by another partition.
	ErrDuplicatePartition = errors.New("tenant: duplicate partition")
)

// UserDeleteHook is called inside the deletion transaction whenever a user
// is removed from a partition. Hooks tie dependent records, like chat
// bindings, to the lifetime of a user.
type UserDeleteHook func(context.Context, database.Tx, models.Partition, *models.UserEntity) error

// Store manages tenant partitions and the users within them. Every record
// of the system belongs to exactly one partition and is removed together
// with it.
type Store struct {
	conn database.Conn

	tenantDao        database.TenantDao
	userDao          database.UserDao
	mailboxConfigDao database.MailboxConfigDao
	emailDao         database.EmailDao
	chatDao          database.ChatDao
	codeDao          database.CodeDao
	notificationDao  database.NotificationDao
	ingestLogDao     database.IngestLogDao

	userDeleteHooks []UserDeleteHook
}

// NewStore creates a new Store.
func NewStore(
	conn database.Conn,
	tenantDao database.TenantDao,
	userDao database.UserDao,
	mailboxConfigDao database.MailboxConfigDao,
	emailDao database.EmailDao,
	chatDao database.ChatDao,
	codeDao database.CodeDao,
	notificationDao database.NotificationDao,
	ingestLogDao database.IngestLogDao,
) *Store {
	return &Store{
		conn:             conn,
		tenantDao:        tenantDao,
		userDao:          userDao,
		mailboxConfigDao: mailboxConfigDao,
		emailDao:         emailDao,
		chatDao:          chatDao,
		codeDao:          codeDao,
		notificationDao:  notificationDao,
		ingestLogDao:     ingestLogDao,
	}
}

// OnUserDelete registers a hook to be run inside every user deletion
// transaction. Registration is not safe for concurrent use and must happen
// during startup.
func (s *Store) OnUserDelete(hook UserDeleteHook) {
	s.userDeleteHooks = append(s.userDeleteHooks, hook)
}

// Provision creates a new partition. The slug must be unique across all
// partitions.
func (s *Store) Provision(ctx context.Context, slug, name, domain string) (*models.TenantEntity, error) {
	now := time.Now().Unix()

	tenant := models.TenantEntity{
		Slug:      slug,
		Name:      name,
		Domain:    domain,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.tenantDao.Insert(ctx, s.conn, &tenant); err != nil {
		if database.IsErrUnique(err) {
			return nil, ErrDuplicatePartition
		}

		return nil, err
	}

	log.Info().
		Int64("tenant", tenant.ID).
		Str("slug", slug).
		Msg("provisioned tenant partition")

	return &tenant, nil
}

// Resolve maps a partition identifier to a partition handle.
func (s *Store) Resolve(ctx context.Context, slug string) (models.Partition, error) {
	tenant, err := s.tenantDao.FindBySlug(ctx, s.conn, slug)
	if err != nil {
		if database.IsErrNoRows(err) {
			return models.Partition{}, ErrUnknownTenant
		}

		return models.Partition{}, err
	}

	return models.NewPartition(tenant.ID), nil
}

// ResolveDomain maps a routing domain to a partition handle.
func (s *Store) ResolveDomain(ctx context.Context, domain string) (models.Partition, error) {
	tenant, err := s.tenantDao.FindByDomain(ctx, s.conn, domain)
	if err != nil {
		if database.IsErrNoRows(err) {
			return models.Partition{}, ErrUnknownTenant
		}

		return models.Partition{}, err
	}

	return models.NewPartition(tenant.ID), nil
}

// Tenant returns the tenant record of a partition.
func (s *Store) Tenant(ctx context.Context, partition models.Partition) (*models.TenantEntity, error) {
	tenant, err := s.tenantDao.FindByID(ctx, s.conn, partition.TenantID())
	if err != nil {
		if database.IsErrNoRows(err) {
			return nil, ErrUnknownTenant
		}

		return nil, err
	}

	return tenant, nil
}

// Partitions returns the partition handles of all active tenants.
func (s *Store) Partitions(ctx context.Context) ([]models.Partition, error) {
	tenants, err := s.tenantDao.FindAllActive(ctx, s.conn)
	if err != nil {
		return nil, err
	}

	partitions := make([]models.Partition, len(tenants))
	for i, tenant := range tenants {
		partitions[i] = models.NewPartition(tenant.ID)
	}

	return partitions, nil
}

// Deprovision removes a partition and every record within it in a single
// transaction. No other partition is affected.
func (s *Store) Deprovision(ctx context.Context, slug string) error {
	tenant, err := s.tenantDao.FindBySlug(ctx, s.conn, slug)
	if err != nil {
		if database.IsErrNoRows(err) {
			return ErrUnknownTenant
		}

		return err
	}

	partition := models.NewPartition(tenant.ID)

	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	// Dependent tables first, so that foreign keys hold at every step.
	steps := []func(context.Context, database.Queryer, models.Partition) error{
		s.notificationDao.DeleteByPartition,
		s.ingestLogDao.DeleteByPartition,
		s.codeDao.DeleteByPartition,
		s.chatDao.DeleteByPartition,
		s.emailDao.DeleteByPartition,
		s.userDao.DeleteByPartition,
		s.mailboxConfigDao.DeleteByPartition,
	}

	for _, step := range steps {
		if err := step(ctx, tx, partition); err != nil {
			return err
		}
	}

	if err := s.tenantDao.Delete(ctx, tx, tenant); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().
		Int64("tenant", tenant.ID).
		Str("slug", slug).
		Msg("deprovisioned tenant partition")

	return nil
}

// AddUser inserts a new user into the partition.
func (s *Store) AddUser(ctx context.Context, partition models.Partition, user *models.UserEntity) error {
	now := time.Now().Unix()
	user.CreatedAt = now
	user.UpdatedAt = now

	return s.userDao.Insert(ctx, s.conn, partition, user)
}

// DeleteUser removes a user and runs all registered deletion hooks in the
// same transaction. Either the user and all dependent records vanish
// together or nothing does.
func (s *Store) DeleteUser(ctx context.Context, partition models.Partition, userID int64) error {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return err
	}

	defer tx.Rollback()

	user, err := s.userDao.FindByID(ctx, tx, partition, userID)
	if err != nil {
		return err
	}

	for _, hook := range s.userDeleteHooks {
		if err := hook(ctx, tx, partition, user); err != nil {
			return err
		}
	}

	if err := s.userDao.Delete(ctx, tx, partition, user); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.InfoContext(log.WithTenant(ctx, partition.TenantID())).
		Int64("user", userID).
		Msg("deleted user")

	return nil
}
