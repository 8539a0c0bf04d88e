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

// IngestLogDao is a data access object for ingestion run records.
type IngestLogDao interface {
	// Insert inserts a new ingestion run record.
	Insert(context.Context, Queryer, models.Partition, *models.IngestLogEntity) error
	// FindRecent returns the most recent run records of the partition.
	FindRecent(context.Context, Queryer, models.Partition, int64) ([]models.IngestLogEntity, error)
	// DeleteByPartition removes every run record of the partition.
	DeleteByPartition(context.Context, Queryer, models.Partition) error
}

// ingestLogDao is the sqlite implementation of IngestLogDao.
type ingestLogDao struct{}

// NewIngestLogDao creates a new IngestLogDao.
func NewIngestLogDao() IngestLogDao {
	return ingestLogDao{}
}

func (ingestLogDao) Insert(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	entry *models.IngestLogEntity,
) error {
	const query = `
		insert into "ingest_logs" (
			"tenant_id" ,
			"config_id" ,
			"status" ,
			"message" ,
			"processed" ,
			"skipped" ,
			"failed" ,
			"duration_ms" ,
			"created_at"
		) values (
			:tenant_id ,
			:config_id ,
			:status ,
			:message ,
			:processed ,
			:skipped ,
			:failed ,
			:duration_ms ,
			:created_at
		) ;
	`

	entry.TenantID = partition.TenantID()

	result, err := execNamed(ctx, q, query, entry)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	entry.ID, err = result.LastInsertId()
	return err
}

func (ingestLogDao) FindRecent(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
	limit int64,
) ([]models.IngestLogEntity, error) {
	const query = `
		select *
		from "ingest_logs"
		where "tenant_id" = $1
		order by "created_at" desc
		limit $2 ;
	`

	var entrySlice []models.IngestLogEntity

	if err := selectSlice(ctx, q, &entrySlice, query, partition.TenantID(), limit); err != nil {
		return nil, err
	}

	return entrySlice, nil
}

func (ingestLogDao) DeleteByPartition(
	ctx context.Context,
	q Queryer,
	partition models.Partition,
) error {
	const query = `
		delete from "ingest_logs"
		where "tenant_id" = $1 ;
	`

	_, err := execPositional(ctx, q, query, partition.TenantID())
	return err
}
