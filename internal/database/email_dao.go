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
	"fmt"
	"strings"

	"github.com/vigilmail/vigilmail/internal/models"
)

// EmailFilter narrows down the result set of EmailDao.Find. The zero value
// matches every email of the partition.
type EmailFilter struct {
	// Status filters by email status if non-zero.
	Status models.EmailStatus
	// Priority filters by classified priority if non-zero.
	Priority models.Priority
	// Sender filters by a substring of the sender address if non-empty.
	Sender string
	// Limit caps the number of rows if positive.
	Limit int64
}

// EmailDao is a data access object for all email related queries. All
// lookups are scoped to a tenant partition. The unique constraint on
// (tenant, message id) makes Insert the deduplication point for ingestion.
type EmailDao interface {
	// Insert inserts a new email into the partition.
	Insert(context.Context, Queryer, models.Partition, *models.EmailEntity) error
	// UpdateStatus transitions the status of an email.
	UpdateStatus(context.Context, Queryer, models.Partition, int64, models.EmailStatus, int64) error
	// UpdateAssignee sets the assigned user of an email.
	UpdateAssignee(context.Context, Queryer, models.Partition, int64, int64, int64) error
	// FindByID returns the email with the given id.
	FindByID(context.Context, Queryer, models.Partition, int64) (*models.EmailEntity, error)
	// Find returns emails of the partition matching the filter, newest first.
	Find(context.Context, Queryer, models.Partition, EmailFilter) ([]models.EmailEntity, error)
	// FindUnsettled returns emails across all partitions that are still
	// pending or processing, oldest first.
	FindUnsettled(context.Context, Queryer) ([]models.EmailEntity, error)
	// DeleteByPartition removes every email of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// emailDao is the sqlite implementation of EmailDao.
type emailDao struct{}

// NewEmailDao creates a new EmailDao.
func NewEmailDao() EmailDao {
	return emailDao{}
}

func (emailDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	email *models.EmailEntity,
) error {
	const query = `
		insert into "emails" (
			"tenant_id" ,
			"message_id" ,
			"sender" ,
			"recipient" ,
			"subject" ,
			"body" ,
			"received_at" ,
			"priority" ,
			"status" ,
			"assigned_user_id" ,
			"created_at" ,
			"updated_at"
		) values (
			:tenant_id ,
			:message_id ,
			:sender ,
			:recipient ,
			:subject ,
			:body ,
			:received_at ,
			:priority ,
			:status ,
			:assigned_user_id ,
			:created_at ,
			:updated_at
		) ;
	`

	email.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, email)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	email.ID, err = result.LastInsertId()
	return err
}

func (emailDao) UpdateStatus(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	emailID int64,
	status models.EmailStatus,
	updatedAt int64,
) error {
	const query = `
		update "emails"
		set "status"     = $1 ,
		    "updated_at" = $2
		where "id" = $3
		  and "tenant_id" = $4 ;
	`

	result, err := execPositional(ctx, q, query,
		status, updatedAt, emailID, partition.TenantID())
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (emailDao) UpdateAssignee(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	emailID int64,
	userID int64,
	updatedAt int64,
) error {
	const query = `
		update "emails"
		set "assigned_user_id" = $1 ,
		    "updated_at"       = $2
		where "id" = $3
		  and "tenant_id" = $4 ;
	`

	result, err := execPositional(ctx, q, query,
		userID, updatedAt, emailID, partition.TenantID())
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (emailDao) FindByID(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	id int64,
) (*models.EmailEntity, error) {
	const query = `
		select *
		from "emails"
		where "id" = $1
		  and "tenant_id" = $2
		limit 1 ;
	`

	var email models.EmailEntity

	if err := selectOne(ctx, q, &email, query, id, partition.TenantID()); err != nil {
		return nil, err
	}

	return &email, nil
}

func (emailDao) Find(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	filter EmailFilter,
) ([]models.EmailEntity, error) {
	var (
		clauses = []string{`"tenant_id" = ?`}
		args    = []any{partition.TenantID()}
	)

	if filter.Status != 0 {
		clauses = append(clauses, `"status" = ?`)
		args = append(args, filter.Status)
	}

	if filter.Priority != 0 {
		clauses = append(clauses, `"priority" = ?`)
		args = append(args, filter.Priority)
	}

	if filter.Sender != "" {
		clauses = append(clauses, `"sender" like ?`)
		args = append(args, "%"+filter.Sender+"%")
	}

	limit := ""

	if filter.Limit > 0 {
		limit = "limit ?"
		args = append(args, filter.Limit)
	}

	query := fmt.Sprintf(`
		select *
		from "emails"
		where %s
		order by "received_at" desc
		%s ;
	`, strings.Join(clauses, " and "), limit)

	var emailSlice []models.EmailEntity

	if err := selectSlice(ctx, q, &emailSlice, query, args...); err != nil {
		return nil, err
	}

	return emailSlice, nil
}

func (emailDao) FindUnsettled(
	ctx context.Context,
	q Queryer,
) ([]models.EmailEntity, error) {
	const query = `
		select *
		from "emails"
		where "status" in ( $1, $2 )
		order by "id" ;
	`

	var emailSlice []models.EmailEntity

	err := selectSlice(ctx, q, &emailSlice, query,
		models.EmailPending, models.EmailProcessing)
	if err != nil {
		return nil, err
	}

	return emailSlice, nil
}

func (emailDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "emails"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
