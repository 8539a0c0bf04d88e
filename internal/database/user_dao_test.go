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

func TestUserDaoTestSuite(t *testing.T) {
	suite.Run(t, new(UserDaoTestSuite))
}

type UserDaoTestSuite struct {
	baseDatabaseTestSuite

	userDao UserDao
}

func (s *UserDaoTestSuite) SetupSuite() {
	s.userDao = NewUserDao()
}

func (s *UserDaoTestSuite) TestInsert() {
	partition := s.requirePartition(42, "acme")

	user := models.UserEntity{
		Name:  "Alice",
		Email: "alice@acme.example",
		Role:  "client",
	}

	s.Assert().NoError(s.userDao.Insert(s.ctx, s.conn, partition, &user))
	s.Assert().NotZero(user.ID)

	s.assertQuery(
		`
			select "tenant_id", "name", "email"
			from "users" ;
		`,
		[]string{"42", "Alice", "alice@acme.example"})
}

func (s *UserDaoTestSuite) TestInsertDuplicateEmail() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.userDao.Insert(s.ctx, s.conn, partition, &user))

	duplicate := models.UserEntity{Name: "Alice 2", Email: "alice@acme.example"}
	err := s.userDao.Insert(s.ctx, s.conn, partition, &duplicate)

	s.Assert().Error(err)
	s.Assert().True(IsErrUnique(err))

	// The same address may exist in a different partition.
	sibling := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Assert().NoError(s.userDao.Insert(s.ctx, s.conn, other, &sibling))
}

func (s *UserDaoTestSuite) TestFindByEmail() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	s.requireExec(
		`
			insert into "users"
				( "id", "tenant_id", "name", "email", "created_at", "updated_at" )
			values
				( 7, 42, 'Alice', 'alice@acme.example', 0, 0 ) ;
		`)

	user, err := s.userDao.FindByEmail(s.ctx, s.conn, partition, "alice@acme.example")
	s.Require().NoError(err)
	s.Assert().Equal(int64(7), user.ID)

	_, err = s.userDao.FindByEmail(s.ctx, s.conn, other, "alice@acme.example")
	s.Assert().True(IsErrNoRows(err))
}

func (s *UserDaoTestSuite) TestFindByChatRef() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "users"
				( "id", "tenant_id", "name", "email", "chat_ref", "created_at", "updated_at" )
			values
				( 7, 42, 'Alice', 'alice@acme.example', 1001, 0, 0 ) ,
				( 8, 42, 'Bob', 'bob@acme.example', 1001, 0, 0 ) ,
				( 9, 42, 'Carol', 'carol@acme.example', null, 0, 0 ) ;
		`)

	users, err := s.userDao.FindByChatRef(s.ctx, s.conn, partition, 1001)
	s.Require().NoError(err)
	s.Require().Len(users, 2)
	s.Assert().Equal("alice@acme.example", users[0].Email)
	s.Assert().Equal("bob@acme.example", users[1].Email)
}

func (s *UserDaoTestSuite) TestClearChatRef() {
	partition := s.requirePartition(42, "acme")

	s.requireExec(
		`
			insert into "users"
				( "id", "tenant_id", "name", "email", "chat_ref", "created_at", "updated_at" )
			values
				( 7, 42, 'Alice', 'alice@acme.example', 1001, 0, 0 ) ,
				( 8, 42, 'Bob', 'bob@acme.example', 1002, 0, 0 ) ;
		`)

	s.Assert().NoError(s.userDao.ClearChatRef(s.ctx, s.conn, partition, 1001, 500))

	user, err := s.userDao.FindByID(s.ctx, s.conn, partition, 7)
	s.Require().NoError(err)
	s.Assert().False(user.ChatRef.Valid)
	s.Assert().Equal(int64(500), user.UpdatedAt)

	untouched, err := s.userDao.FindByID(s.ctx, s.conn, partition, 8)
	s.Require().NoError(err)
	s.Assert().Equal(sql.NullInt64{Int64: 1002, Valid: true}, untouched.ChatRef)
}

func (s *UserDaoTestSuite) TestUpdateForeignPartition() {
	partition := s.requirePartition(42, "acme")
	other := s.requirePartition(43, "umbrella")

	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.userDao.Insert(s.ctx, s.conn, partition, &user))

	user.Name = "Mallory"
	err := s.userDao.Update(s.ctx, s.conn, other, &user)
	s.Assert().ErrorIs(err, sql.ErrNoRows)
}
