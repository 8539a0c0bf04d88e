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

// ChatDao is a data access object for all chat destination related queries.
// The chat reference is unique across all partitions, because a messaging
// chat can only ever be bound to one tenant at a time.
type ChatDao interface {
	// Insert inserts a new chat destination into the partition.
	Insert(context.Context, Queryer, models.Partition, *models.ChatEntity) error
	// Update updates an existing chat destination.
	Update(context.Context, Queryer, models.Partition, *models.ChatEntity) error
	// Delete deletes an existing chat destination.
	Delete(context.Context, Queryer, models.Partition, *models.ChatEntity) error
	// FindByID returns the chat with the given id.
	FindByID(context.Context, Queryer, models.Partition, int64) (*models.ChatEntity, error)
	// FindByChatRef returns the chat with the given provider reference,
	// regardless of partition.
	FindByChatRef(context.Context, Queryer, int64) (*models.ChatEntity, error)
	// FindActive returns all active chats of the partition.
	FindActive(context.Context, Queryer, models.Partition) ([]models.ChatEntity, error)
	// FindAll returns every chat across all partitions.
	FindAll(context.Context, Queryer) ([]models.ChatEntity, error)
	// DeleteByPartition removes every chat of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// chatDao is the sqlite implementation of ChatDao.
type chatDao struct{}

// NewChatDao creates a new ChatDao.
func NewChatDao() ChatDao {
	return chatDao{}
}

func (chatDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chat *models.ChatEntity,
) error {
	const query = `
		insert into "chats" (
			"tenant_id" ,
			"chat_ref" ,
			"name" ,
			"kind" ,
			"alert_level" ,
			"email_alerts" ,
			"system_alerts" ,
			"is_active" ,
			"created_at" ,
			"updated_at"
		) values (
			:tenant_id ,
			:chat_ref ,
			:name ,
			:kind ,
			:alert_level ,
			:email_alerts ,
			:system_alerts ,
			:is_active ,
			:created_at ,
			:updated_at
		) ;
	`

	chat.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, chat)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	chat.ID, err = result.LastInsertId()
	return err
}

func (chatDao) Update(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chat *models.ChatEntity,
) error {
	const query = `
		update "chats"
		set "name"          = :name ,
		    "kind"          = :kind ,
		    "alert_level"   = :alert_level ,
		    "email_alerts"  = :email_alerts ,
		    "system_alerts" = :system_alerts ,
		    "is_active"     = :is_active ,
		    "updated_at"    = :updated_at
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	chat.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, chat)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (chatDao) Delete(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chat *models.ChatEntity,
) error {
	const query = `
		delete from "chats"
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	chat.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, chat)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (chatDao) FindByID(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	id int64,
) (*models.ChatEntity, error) {
	const query = `
		select *
		from "chats"
		where "id" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var chat models.ChatEntity

	if err := selectOne(ctx, q, &chat, query, id, partition.TenantID()); err != nil {
		return nil, err
	}

	return &chat, nil
}

func (chatDao) FindByChatRef(
	ctx context.Context,
	q Queryer,
	chatRef int64,
) (*models.ChatEntity, error) {
	const query = `
		select *
		from "chats"
		where "chat_ref" = $1
		limit 1 ;
	`

	var chat models.ChatEntity

	if err := selectOne(ctx, q, &chat, query, chatRef); err != nil {
		return nil, err
	}

	return &chat, nil
}

func (chatDao) FindActive(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) ([]models.ChatEntity, error) {
	const query = `
		select *
		from "chats"
		where "tenant_id" = $1
		  and "is_active" = true
		order by "id" ;
	`

	var chatSlice []models.ChatEntity

	if err := selectSlice(ctx, q, &chatSlice, query, partition.TenantID()); err != nil {
		return nil, err
	}

	return chatSlice, nil
}

func (chatDao) FindAll(ctx context.Context, q Queryer) ([]models.ChatEntity, error) {
	const query = `
		select *
		from "chats"
		order by "tenant_id" , "id" ;
	`

	var chatSlice []models.ChatEntity

	if err := selectSlice(ctx, q, &chatSlice, query); err != nil {
		return nil, err
	}

	return chatSlice, nil
}

func (chatDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "chats"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
