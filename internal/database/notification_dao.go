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

// NotificationDao is a data access object for all notification related
// queries. The unique constraint on (email, chat) makes Insert the
// at-most-once guard for dispatching.
type NotificationDao interface {
	// Insert inserts a new notification record.
	Insert(context.Context, Queryer, models.Partition, *models.NotificationEntity) error
	// Update updates the delivery state of a notification.
	Update(context.Context, Queryer, models.Partition, *models.NotificationEntity) error
	// FindByID returns the notification with the given id.
	FindByID(context.Context, Queryer, models.Partition, int64) (*models.NotificationEntity, error)
	// FindByEmail returns all notifications recorded for the given email.
	FindByEmail(context.Context, Queryer, models.Partition, int64) ([]models.NotificationEntity, error)
	// DeleteByChat removes every notification sent to the given chat.
	DeleteByChat(context.Context, Queryer, models.Partition, int64) error
	// DeleteByPartition removes every notification of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// notificationDao is the sqlite implementation of NotificationDao.
type notificationDao struct{}

// NewNotificationDao creates a new NotificationDao.
func NewNotificationDao() NotificationDao {
	return notificationDao{}
}

func (notificationDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	notification *models.NotificationEntity,
) error {
	const query = `
		insert into "notifications" (
			"tenant_id" ,
			"email_id" ,
			"chat_id" ,
			"status" ,
			"provider_message_id" ,
			"error_message" ,
			"attempt_count" ,
			"sent_at" ,
			"created_at" ,
			"updated_at"
		) values (
			:tenant_id ,
			:email_id ,
			:chat_id ,
			:status ,
			:provider_message_id ,
			:error_message ,
			:attempt_count ,
			:sent_at ,
			:created_at ,
			:updated_at
		) ;
	`

	notification.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, notification)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	notification.ID, err = result.LastInsertId()
	return err
}

func (notificationDao) Update(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	notification *models.NotificationEntity,
) error {
	const query = `
		update "notifications"
		set "status"              = :status ,
		    "provider_message_id" = :provider_message_id ,
		    "error_message"       = :error_message ,
		    "attempt_count"       = :attempt_count ,
		    "sent_at"             = :sent_at ,
		    "updated_at"          = :updated_at
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	notification.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, notification)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (notificationDao) FindByID(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	id int64,
) (*models.NotificationEntity, error) {
	const query = `
		select *
		from "notifications"
		where "id" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var notification models.NotificationEntity

	if err := selectOne(ctx, q, &notification, query, id, partition.TenantID()); err != nil {
		return nil, err
	}

	return &notification, nil
}

func (notificationDao) FindByEmail(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	emailID int64,
) ([]models.NotificationEntity, error) {
	const query = `
		select *
		from "notifications"
		where "email_id" = $1
		  and "tenant_id" = $2
		order by "id" ;
	`

	var notificationSlice []models.NotificationEntity

	if err := selectSlice(ctx, q, &notificationSlice, query, emailID, partition.TenantID()); err != nil {
		return nil, err
	}

	return notificationSlice, nil
}

func (notificationDao) DeleteByChat(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chatID int64,
) error {
	const query = `
		delete from "notifications"
		where "tenant_id" = $1
		  and "chat_id" = $2 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID(), chatID)
	return err
}

func (notificationDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "notifications"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
