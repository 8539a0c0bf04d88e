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

func TestTenantDaoTestSuite(t *testing.T) {
	suite.Run(t, new(TenantDaoTestSuite))
}

type TenantDaoTestSuite struct {
	baseDatabaseTestSuite

	tenantDao TenantDao
}

func (s *TenantDaoTestSuite) SetupSuite() {
	s.tenantDao = NewTenantDao()
}

func (s *TenantDaoTestSuite) TestInsert() {
	tenant := models.TenantEntity{
		Slug:     "acme",
		Name:     "Acme Corp",
		Domain:   "acme.example",
		IsActive: true,
	}

	s.Assert().Zero(tenant.ID)
	s.Assert().NoError(s.tenantDao.Insert(s.ctx, s.conn, &tenant))
	s.Assert().NotZero(tenant.ID)

	s.assertQuery(
		`
			select "id", "slug", "domain"
			from "tenants" ;
		`,
		[]string{"1", "acme", "acme.example"})
}

func (s *TenantDaoTestSuite) TestInsertDuplicateSlug() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "created_at", "updated_at" )
			values
				( 42, 'acme', 'Acme Corp', 0, 0 ) ;
		`)

	err := s.tenantDao.Insert(s.ctx, s.conn, &models.TenantEntity{
		Slug: "acme",
		Name: "Impostor",
	})

	s.Assert().Error(err)
	s.Assert().True(IsErrUnique(err))
}

func (s *TenantDaoTestSuite) TestUpdate() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "created_at", "updated_at" )
			values
				( 42, 'acme', 'old-name', 0, 0 ) ;
		`)

	tenant := models.TenantEntity{
		ID:       42,
		Slug:     "acme",
		Name:     "new-name",
		IsActive: true,
	}

	s.Assert().NoError(s.tenantDao.Update(s.ctx, s.conn, &tenant))

	s.assertQuery(
		`
			select "id", "name"
			from "tenants" ;
		`,
		[]string{"42", "new-name"})
}

func (s *TenantDaoTestSuite) TestDelete() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "created_at", "updated_at" )
			values
				( 42, 'acme', 'Acme Corp', 0, 0 ) ;
		`)

	s.assertQuery(`select count(*) from "tenants" ;`, []string{"1"})
	s.Assert().NoError(s.tenantDao.Delete(s.ctx, s.conn, &models.TenantEntity{ID: 42}))
	s.assertQuery(`select count(*) from "tenants" ;`, []string{"0"})
}

func (s *TenantDaoTestSuite) TestFindBySlug() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "created_at", "updated_at" )
			values
				( 42, 'acme', 'Acme Corp', 0, 0 ) ,
				( 43, 'umbrella', 'Umbrella Inc', 0, 0 ) ;
		`)

	tenant, err := s.tenantDao.FindBySlug(s.ctx, s.conn, "umbrella")
	s.Require().NoError(err)
	s.Assert().Equal(int64(43), tenant.ID)
	s.Assert().Equal("Umbrella Inc", tenant.Name)

	_, err = s.tenantDao.FindBySlug(s.ctx, s.conn, "unknown")
	s.Assert().True(IsErrNoRows(err))
}

func (s *TenantDaoTestSuite) TestFindByDomain() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "domain", "created_at", "updated_at" )
			values
				( 42, 'acme', 'Acme Corp', 'acme.example', 0, 0 ) ;
		`)

	tenant, err := s.tenantDao.FindByDomain(s.ctx, s.conn, "acme.example")
	s.Require().NoError(err)
	s.Assert().Equal(int64(42), tenant.ID)
}

func (s *TenantDaoTestSuite) TestFindAllActive() {
	s.requireExec(
		`
			insert into "tenants"
				( "id", "slug", "name", "is_active", "created_at", "updated_at" )
			values
				( 42, 'acme', 'Acme Corp', true, 0, 0 ) ,
				( 43, 'umbrella', 'Umbrella Inc', false, 0, 0 ) ,
				( 44, 'wayne', 'Wayne Ltd', true, 0, 0 ) ;
		`)

	tenants, err := s.tenantDao.FindAllActive(s.ctx, s.conn)
	s.Require().NoError(err)
	s.Require().Len(tenants, 2)
	s.Assert().Equal("acme", tenants[0].Slug)
	s.Assert().Equal("wayne", tenants[1].Slug)
}
