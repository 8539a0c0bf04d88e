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
	"database/sql"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/vigilmail/vigilmail/internal/models"
)

func TestMailboxConfigDaoTestSuite(t *testing.T) {
	suite.Run(t, new(MailboxConfigDaoTestSuite))
}

type MailboxConfigDaoTestSuite struct {
	baseDatabaseTestSuite

	mailboxConfigDao MailboxConfigDao
}

func (s *MailboxConfigDaoTestSuite) SetupSuite() {
	s.mailboxConfigDao = NewMailboxConfigDao()
}

func (s *MailboxConfigDaoTestSuite) TestInsert() {
	partition := s.requirePartition(42, "acme")

	config := models.MailboxConfigEntity{
		Name:         "support",
		Host:         "imap.acme.example",
		Port:         993,
		Username:     "support@acme.example",
		Password:     "hunter2",
		UseTLS:       true,
		Folder:       "INBOX",
		PollInterval: 300,
		BatchSize:    50,
		IsActive:     true,
	}

	s.Assert().NoError(s.mailboxConfigDao.Insert(s.ctx, s.conn, partition, &config))
	s.Assert().NotZero(config.ID)

	s.assertQuery(
		`
			select "tenant_id", "host", "port"
			from "mailbox_configs" ;
		`,
		[]string{"42", "imap.acme.example", "993"})

	s.assertQuery(
		`
			select count(*)
			from "mailbox_configs"
			where "last_checked_at" is null ;
		`,
		[]string{"1"})
}

func (s *MailboxConfigDaoTestSuite) TestUpdateLastChecked() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "mailbox_configs"
				( "id", "tenant_id", "name", "host", "username", "password" )
			values
				( 7, 42, 'support', 'imap.acme.example', 'u', 'p' ) ;
		`)

	s.Assert().NoError(s.mailboxConfigDao.UpdateLastChecked(s.ctx, s.conn, partition, 7, 500))

	config, err := s.mailboxConfigDao.FindByID(s.ctx, s.conn, partition, 7)
	s.Require().NoError(err)
	s.Assert().Equal(sql.NullInt64{Int64: 500, Valid: true}, config.LastCheckedAt)
}

func (s *MailboxConfigDaoTestSuite) TestFindActive() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	s.requireExec(
		`
			insert into "mailbox_configs"
				( "id", "tenant_id", "name", "host", "username", "password", "is_active" )
			values
				( 7, 42, 'support', 'imap.acme.example', 'u', 'p', true ) ,
				( 8, 42, 'legacy', 'imap.acme.example', 'u', 'p', false ) ,
				( 9, 43, 'support', 'imap.umbrella.example', 'u', 'p', true ) ;
		`)

	configs, err := s.mailboxConfigDao.FindActive(s.ctx, s.conn, partition)
	s.Require().NoError(err)
	s.Require().Len(configs, 1)
	s.Assert().Equal(int64(7), configs[0].ID)

	configs, err = s.mailboxConfigDao.FindActive(s.ctx, s.conn, other)
	s.Require().NoError(err)
	s.Require().Len(configs, 1)
	s.Assert().Equal(int64(9), configs[0].ID)
}

func (s *MailboxConfigDaoTestSuite) TestUpdateForeignPartition() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	config := models.MailboxConfigEntity{
		Name:     "support",
		Host:     "imap.acme.example",
		Username: "u",
		Password: "p",
	}
	s.Require().NoError(s.mailboxConfigDao.Insert(s.ctx, s.conn, partition, &config))

	err := s.mailboxConfigDao.UpdateLastChecked(s.ctx, s.conn, other, config.ID, 500)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
}
