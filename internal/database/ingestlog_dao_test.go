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
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vigilmail/vigilmail/internal/models"
)

func TestIngestLogDaoTestSuite(t *testing.T) {
	suite.Run(t, new(IngestLogDaoTestSuite))
}

type IngestLogDaoTestSuite struct {
	baseDatabaseTestSuite

	ingestLogDao IngestLogDao
}

func (s *IngestLogDaoTestSuite) SetupSuite() {
	s.ingestLogDao = NewIngestLogDao()
}

func (s *IngestLogDaoTestSuite) requireConfig(tenantID int64) {
	_, err := s.conn.ExecContext(s.ctx,
		`
			insert into "mailbox_configs"
				( "id", "tenant_id", "name", "host", "username", "password" )
			values
				( 7, $1, 'support', 'imap.example', 'u', 'p' ) ;
		`,
		tenantID)
	s.Require().NoError(err)
}

func (s *IngestLogDaoTestSuite) TestInsert() {
	partition := s.requirePartition(42, "acme")
	s.requireConfig(42)

	entry := models.IngestLogEntity{
		ConfigID:   7,
		Status:     "success",
		Processed:  3,
		Skipped:    1,
		DurationMS: 1200,
		CreatedAt:  100,
	}

	s.Assert().NoError(s.ingestLogDao.Insert(s.ctx, s.conn, partition, &entry))
	s.Assert().NotZero(entry.ID)

	s.assertQuery(
		`
			select "tenant_id", "config_id", "status", "processed", "skipped", "failed"
			from "ingest_logs" ;
		`,
		[]string{"42", "7", "success", "3", "1", "0"})
}

func (s *IngestLogDaoTestSuite) TestFindRecent() {
	partition := s.requirePartition(42, "acme")
	s.requireConfig(42)

	s.requireExec(
		`
			insert into "ingest_logs"
				( "id", "tenant_id", "config_id", "status", "created_at" )
			values
				( 1, 42, 7, 'success', 100 ) ,
				( 2, 42, 7, 'error', 200 ) ,
				( 3, 42, 7, 'success', 300 ) ;
		`)

	entries, err := s.ingestLogDao.FindRecent(s.ctx, s.conn, partition, 2)
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.Assert().Equal(int64(3), entries[0].ID)
	s.Assert().Equal(int64(2), entries[1].ID)
}
