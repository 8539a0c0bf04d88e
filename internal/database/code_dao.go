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

// CodeDao is a data access object for all binding code related queries.
// Codes are globally unique, because redemption starts from a bare code
// string and resolves the partition from the matched row.
type CodeDao interface {
	// Insert inserts a new binding code.
	Insert(context.Context, Queryer, models.Partition, *models.BindingCodeEntity) error
	// FindByCode returns the code row matching the given code string,
	// regardless of partition.
	FindByCode(context.Context, Queryer, string) (*models.BindingCodeEntity, error)
	// MarkUsed consumes an unused code. It returns sql.ErrNoRows if the
	// code was already consumed by a concurrent redemption.
	MarkUsed(context.Context, Queryer, int64, int64, int64) error
	// CountRedeemedByChat counts consumed codes that were redeemed by the
	// given chat.
	CountRedeemedByChat(context.Context, Queryer, models.Partition, int64) (int64, error)
	// DeleteByUserEmail removes every code issued for the given address.
	DeleteByUserEmail(context.Context, Queryer, models.Partition, string) error
	// DeleteByRedeemedChat removes every code that was redeemed by the given
	// chat.
	DeleteByRedeemedChat(context.Context, Queryer, models.Partition, int64) error
	// DeleteExpired removes unused codes that expired before the given
	// point in time and returns the number of removed rows.
	DeleteExpired(context.Context, Queryer, int64) (int64, error)
	// DeleteByPartition removes every code of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// codeDao is the sqlite implementation of CodeDao.
type codeDao struct{}

// NewCodeDao creates a new CodeDao.
func NewCodeDao() CodeDao {
	return codeDao{}
}

func (codeDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	code *models.BindingCodeEntity,
) error {
	const query = `
		insert into "binding_codes" (
			"tenant_id" ,
			"code" ,
			"user_email" ,
			"created_at" ,
			"expires_at" ,
			"used" ,
			"used_at" ,
			"redeemed_chat_id"
		) values (
			:tenant_id ,
			:code ,
			:user_email ,
			:created_at ,
			:expires_at ,
			:used ,
			:used_at ,
			:redeemed_chat_id
		) ;
	`

	code.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, code)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	code.ID, err = result.LastInsertId()
	return err
}

func (codeDao) FindByCode(
	ctx context.Context,
	q Queryer,
	code string,
) (*models.BindingCodeEntity, error) {
	const query = `
		select *
		from "binding_codes"
		where "code" = $1
		limit 1 ;
	`

	var entity models.BindingCodeEntity

	if err := selectOne(ctx, q, &entity, query, code); err != nil {
		return nil, err
	}

	return &entity, nil
}

func (codeDao) MarkUsed(
	ctx context.Context,
	q Queryer,
	codeID int64,
	chatID int64,
	usedAt int64,
) error {
	// The "used" guard makes the consumption a compare-and-swap. Two
	// concurrent redemptions of the same code cannot both succeed.
	const query = `
		update "binding_codes"
		set "used"             = true ,
		    "used_at"          = $1 ,
		    "redeemed_chat_id" = $2
		where "id" = $3
		  and "used" = false ;
	`

	result, err := execPositional(ctx, q, query, usedAt, chatID, codeID)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (codeDao) CountRedeemedByChat(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chatID int64,
) (int64, error) {
	const query = `
		select count(*)
		from "binding_codes"
		where "tenant_id" = $1
		  and "redeemed_chat_id" = $2
		  and "used" = true ;
	`

	var count int64

	if err := selectOne(ctx, q, &count, query, partition.TenantID(), chatID); err != nil {
		return 0, err
	}

	return count, nil
}

func (codeDao) DeleteByUserEmail(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	email string,
) error {
	const query = `
		delete from "binding_codes"
		where "tenant_id" = $1
		  and "user_email" = $2 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID(), email)
	return err
}

func (codeDao) DeleteByRedeemedChat(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	chatID int64,
) error {
	const query = `
		delete from "binding_codes"
		where "tenant_id" = $1
		  and "redeemed_chat_id" = $2 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID(), chatID)
	return err
}

func (codeDao) DeleteExpired(
	ctx context.Context,
	q Queryer,
	deadline int64,
) (int64, error) {
	const query = `
		delete from "binding_codes"
		where "used" = false
		  and "expires_at" <= $1 ;
	`

	result, err := execPositional(ctx, q, query, deadline)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func (codeDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "binding_codes"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
