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

// UserDao is a data access object for all user related queries. All
// lookups are scoped to a tenant partition.
type UserDao interface {
	// Insert inserts a new user into the partition.
	Insert(context.Context, Queryer, models.Partition, *models.UserEntity) error
	// Update updates an existing user.
	Update(context.Context, Queryer, models.Partition, *models.UserEntity) error
	// Delete deletes an existing user.
	Delete(context.Context, Queryer, models.Partition, *models.UserEntity) error
	// FindByID returns the user with the given id.
	FindByID(context.Context, Queryer, models.Partition, int64) (*models.UserEntity, error)
	// FindByEmail returns the user with the given email address.
	FindByEmail(context.Context, Queryer, models.Partition, string) (*models.UserEntity, error)
	// FindByChatRef returns the users linked to the given chat reference.
	FindByChatRef(context.Context, Queryer, models.Partition, int64) ([]models.UserEntity, error)
	// ClearChatRef unlinks every user pointing at the given chat reference.
	ClearChatRef(context.Context, Queryer, models.Partition, int64, int64) error
	// DeleteByPartition removes every user of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// userDao is the sqlite implementation of UserDao.
type userDao struct{}

// NewUserDao creates a new UserDao.
func NewUserDao() UserDao {
	return userDao{}
}

func (userDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	user *models.UserEntity,
) error {
	const query = `
		insert into "users" (
			"tenant_id" ,
			"name" ,
			"email" ,
			"phone" ,
			"role" ,
			"chat_ref" ,
			"is_active" ,
			"alerts_enabled" ,
			"created_at" ,
			"updated_at"
		) values (
			:tenant_id ,
			:name ,
			:email ,
			:phone ,
			:role ,
			:chat_ref ,
			:is_active ,
			:alerts_enabled ,
			:created_at ,
			:updated_at
		) ;
	`

	user.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, user)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	user.ID, err = result.LastInsertId()
	return err
}

func (userDao) Update(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	user *models.UserEntity,
) error {
	const query = `
		update "users"
		set "name"           = :name ,
		    "email"          = :email ,
		    "phone"          = :phone ,
		    "role"           = :role ,
		    "chat_ref"       = :chat_ref ,
		    "is_active"      = :is_active ,
		    "alerts_enabled" = :alerts_enabled ,
		    "updated_at"     = :updated_at
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	user.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, user)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (userDao) Delete(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	user *models.UserEntity,
) error {
	const query = `
		delete from "users"
		where "id" = :id
		  and "tenant_id" = :tenant_id ;
	`

	user.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, user)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (userDao) FindByID(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	id int64,
) (*models.UserEntity, error) {
	const query = `
		select *
		from "users"
		where "id" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var user models.UserEntity

	if err := selectOne(ctx, q, &user, query, id, partition.TenantID()); err != nil {
		return nil, err
	}

	return &user, nil
}

func (userDao) FindByEmail(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	email string,
) (*models.UserEntity, error) {
	const query = `
		select *
		from "users"
		where "email" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var user models.UserEntity

	if err := selectOne(ctx, q, &user, query, email, partition.TenantID()); err != nil {
		return nil, err
	}

	return &user, nil
}

func (userDao) FindByChatRef(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chatRef int64,
) ([]models.UserEntity, error) {
	const query = `
		select *
		from "users"
		where "chat_ref" = $1
		  and "tenant_id" = $2
		order by "email" ;
	`

	var userSlice []models.UserEntity

	if err := selectSlice(ctx, q, &userSlice, query, chatRef, partition.TenantID()); err != nil {
		return nil, err
	}

	return userSlice, nil
}

func (userDao) ClearChatRef(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chatRef int64,
	updatedAt int64,
) error {
	const query = `
		update "users"
		set "chat_ref"   = null ,
		    "updated_at" = $1
		where "chat_ref" = $2
		  and "tenant_id" = $3 ;
	`

	_, err := execPositional(ctx, q, query, updatedAt, chatRef, partition.TenantID())
	return err
}

func (userDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "users"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
