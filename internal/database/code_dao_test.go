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

func TestCodeDaoTestSuite(t *testing.T) {
	suite.Run(t, new(CodeDaoTestSuite))
}

type CodeDaoTestSuite struct {
	baseDatabaseTestSuite

	codeDao CodeDao
}

func (s *CodeDaoTestSuite) SetupSuite() {
	s.codeDao = NewCodeDao()
}

func (s *CodeDaoTestSuite) TestInsert() {
	partition := s.requirePartition(42, "acme")

	code := models.BindingCodeEntity{
		Code:      "a1b2c3d4",
		CreatedAt: 100,
		ExpiresAt: 200,
	}

	s.Assert().NoError(s.codeDao.Insert(s.ctx, s.conn, partition, &code))
	s.Assert().NotZero(code.ID)

	s.assertQuery(
		`
			select "tenant_id", "code", "used"
			from "binding_codes" ;
		`,
		[]string{"42", "a1b2c3d4", "0"})
}

func (s *CodeDaoTestSuite) TestInsertDuplicateCode() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	code := models.BindingCodeEntity{Code: "a1b2c3d4", ExpiresAt: 200}
	s.Require().NoError(s.codeDao.Insert(s.ctx, s.conn, partition, &code))

	// Codes are unique across partitions.
	duplicate := models.BindingCodeEntity{Code: "a1b2c3d4", ExpiresAt: 200}
	err := s.codeDao.Insert(s.ctx, s.conn, other, &duplicate)

	s.Assert().Error(err)
	s.Assert().True(IsErrUnique(err))
}

func (s *CodeDaoTestSuite) TestFindByCode() {
	s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "binding_codes"
				( "id", "tenant_id", "code", "created_at", "expires_at" )
			values
				( 7, 42, 'a1b2c3d4', 100, 200 ) ;
		`)

	code, err := s.codeDao.FindByCode(s.ctx, s.conn, "a1b2c3d4")
	s.Require().NoError(err)
	s.Assert().Equal(int64(7), code.ID)
	s.Assert().Equal(int64(42), code.TenantID)

	_, err = s.codeDao.FindByCode(s.ctx, s.conn, "unknown")
	s.Assert().True(IsErrNoRows(err))
}

func (s *CodeDaoTestSuite) TestMarkUsed() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "chats"
				( "id", "tenant_id", "chat_ref", "kind", "created_at", "updated_at" )
			values
				( 9, 42, 1001, 1, 0, 0 ) ;

			insert into "binding_codes"
				( "id", "tenant_id", "code", "created_at", "expires_at" )
			values
				( 7, 42, 'a1b2c3d4', 100, 200 ) ;
		`)

	s.Assert().NoError(s.codeDao.MarkUsed(s.ctx, s.conn, 7, 9, 150))

	s.assertQuery(
		`
			select "used", "used_at", "redeemed_chat_id"
			from "binding_codes" ;
		`,
		[]string{"1", "150", "9"})

	// A second consumption must not succeed.
	err := s.codeDao.MarkUsed(s.ctx, s.conn, 7, 9, 160)
	s.Assert().ErrorIs(err, sql.ErrNoRows)

	count, err := s.codeDao.CountRedeemedByChat(s.ctx, s.conn, partition, 9)
	s.Require().NoError(err)
	s.Assert().Equal(int64(1), count)
}

func (s *CodeDaoTestSuite) TestDeleteByUserEmail() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "binding_codes"
				( "id", "tenant_id", "code", "user_email", "created_at", "expires_at" )
			values
				( 7, 42, 'code-1', 'alice@acme.example', 100, 200 ) ,
				( 8, 42, 'code-2', 'alice@acme.example', 100, 200 ) ,
				( 9, 42, 'code-3', 'bob@acme.example', 100, 200 ) ;
		`)

	err := s.codeDao.DeleteByUserEmail(s.ctx, s.conn, partition, "alice@acme.example")
	s.Assert().NoError(err)

	s.assertQuery(`select "id" from "binding_codes" ;`, []string{"9"})
}

func (s *CodeDaoTestSuite) TestDeleteByRedeemedChat() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "chats"
				( "id", "tenant_id", "chat_ref", "kind", "created_at", "updated_at" )
			values
				( 9, 42, 1001, 1, 0, 0 ) ;

			insert into "binding_codes"
				( "id", "tenant_id", "code", "created_at", "expires_at"
				, "used", "used_at", "redeemed_chat_id" )
			values
				( 7, 42, 'code-1', 0, 100, true, 50, 9 ) ,
				( 8, 42, 'code-2', 0, 100, false, null, null ) ;
		`)

	err := s.codeDao.DeleteByRedeemedChat(s.ctx, s.conn, partition, 9)
	s.Assert().NoError(err)

	s.assertQuery(`select "id" from "binding_codes" ;`, []string{"8"})
}

func (s *CodeDaoTestSuite) TestDeleteExpired() {
	s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "binding_codes"
				( "id", "tenant_id", "code", "created_at", "expires_at", "used" )
			values
				( 7, 42, 'code-1', 0, 100, false ) ,
				( 8, 42, 'code-2', 0, 100, true ) ,
				( 9, 42, 'code-3', 0, 300, false ) ;
		`)

	// Consumed codes stay around as binding history.
	removed, err := s.codeDao.DeleteExpired(s.ctx, s.conn, 200)
	s.Require().NoError(err)
	s.Assert().Equal(int64(1), removed)

	s.assertQuery(`select "id" from "binding_codes" order by "id" ;`,
		[]string{"8"}, []string{"9"})
}
