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

package database

import (
	"context"

	"github.com/vigilmail/vigilmail/internal/models"
)

// MailboxConfigDao is a data access object for all mailbox configuration
// related queries. All lookups are scoped to a tenant partition.
type MailboxConfigDao interface {
	// Insert inserts a new mailbox configuration into the partition.
	Insert(context.Context, Queryer, models.Partition, *models.MailboxConfigEntity) error
	// Update updates an existing mailbox configuration.
	Update(context.Context, Queryer, models.Partition, *models.MailboxConfigEntity) error
	// UpdateLastChecked sets the last-checked timestamp of a configuration.
	UpdateLastChecked(context.Context, Queryer, models.Partition, int64, int64) error
	// FindByID returns the configuration with the given id.
	FindByID(context.Context, Queryer, models.Partition, int64) (*models.MailboxConfigEntity, error)
	// FindActive returns all active configurations of the partition.
	FindActive(context.Context, Queryer, models.Partition) ([]models.MailboxConfigEntity, error)
	// DeleteByPartition removes every configuration of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// mailboxConfigDao is the sqlite implementation of MailboxConfigDao.
type mailboxConfigDao struct{}

// NewMailboxConfigDao creates a new MailboxConfigDao.
func NewMailboxConfigDao() MailboxConfigDao {
	return mailboxConfigDao{}
}

func (mailboxConfigDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	config *models.MailboxConfigEntity,
) error {
	const query = `
		insert into "mailbox_configs" (
			"tenant_id" ,
			"name" ,
			"host" ,
			"port" ,
			"username" ,
			"password" ,
			"use_tls" ,
			"folder" ,
			"poll_interval" ,
			"batch_size" ,
			"is_active" ,
			"last_checked_at"
		) values (
			:tenant_id ,
			:name ,
			:host ,
			:port ,
			:username ,
			:password ,
			:use_tls ,
			:folder ,
			:poll_interval ,
			:batch_size ,
			:is_active ,
			:last_checked_at
		) ;
	`

	config.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, config)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	config.ID, err = result.LastInsertId()
	return err
}

func (mailboxConfigDao) Update(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	config *models.MailboxConfigEntity,
) error {
	const query = `
		update "mailbox_configs"
		set "name"          = :name ,
		    "host"          = :host ,
		    "port"          = :port ,
		    "username"      = :username ,
		    "password"      = :password ,
		    "use_tls"       = :use_tls ,
		    "folder"        = :folder ,
		    "poll_interval" = :poll_interval ,
		    "batch_size"    = :batch_size ,
		    "is_active"     = :is_active
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	config.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, config)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (mailboxConfigDao) UpdateLastChecked(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	configID int64,
	checkedAt int64,
) error {
	const query = `
		update "mailbox_configs"
		set "last_checked_at" = $1
		where "id" = $2
		  and "tenant_id" = $3 ;
	`

	result, err := execPositional(ctx, q, query, checkedAt, configID, partition.TenantID())
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (mailboxConfigDao) FindByID(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	id int64,
) (*models.MailboxConfigEntity, error) {
	const query = `
		select *
		from "mailbox_configs"
		where "id" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var config models.MailboxConfigEntity

	if err := selectOne(ctx, q, &config, query, id, partition.TenantID()); err != nil {
		return nil, err
	}

	return &config, nil
}

func (mailboxConfigDao) FindActive(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) ([]models.MailboxConfigEntity, error) {
	const query = `
		select *
		from "mailbox_configs"
		where "tenant_id" = $1
		  and "is_active" = true
		order by "name" ;
	`

	var configSlice []models.MailboxConfigEntity

	if err := selectSlice(ctx, q, &configSlice, query, partition.TenantID()); err != nil {
		return nil, err
	}

	return configSlice, nil
}

func (mailboxConfigDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "mailbox_configs"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
