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

// TenantDao is a data access object for all tenant related queries.
type TenantDao interface {
	// Insert inserts a new tenant.
	Insert(context.Context, Queryer, *models.TenantEntity) error
	// Update updates an existing tenant.
	Update(context.Context, Queryer, *models.TenantEntity) error
	// Delete deletes an existing tenant.
	Delete(context.Context, Queryer, *models.TenantEntity) error
	// FindByID returns the tenant with the given id.
	FindByID(context.Context, Queryer, int64) (*models.TenantEntity, error)
	// FindBySlug returns the tenant with the given partition identifier.
	FindBySlug(context.Context, Queryer, string) (*models.TenantEntity, error)
	// FindByDomain returns the tenant owning the given routing domain.
	FindByDomain(context.Context, Queryer, string) (*models.TenantEntity, error)
	// FindAllActive returns all active tenants.
	FindAllActive(context.Context, Queryer) ([]models.TenantEntity, error)
}

// tenantDao is the sqlite implementation of TenantDao.
type tenantDao struct{}

// NewTenantDao creates a new TenantDao.
func NewTenantDao() TenantDao {
	return tenantDao{}
}

func (tenantDao) Insert(ctx context.Context, q Queryer, tenant *models.TenantEntity) error {
	const query = `
		insert into "tenants" (
			"slug" ,
			"name" ,
			"domain" ,
			"is_active" ,
			"created_at" ,
			"updated_at"
		) values (
			:slug ,
			:name ,
			:domain ,
			:is_active ,
			:created_at ,
			:updated_at
		) ;
	`

	result, err := execNamed(ctx, q, query, tenant)
	if err != nil {
		return err
	}

	if err := ensureRowsAffected(result); err != nil {
		return err
	}

	tenant.ID, err = result.LastInsertId()
	return err
}

func (tenantDao) Update(ctx context.Context, q Queryer, tenant *models.TenantEntity) error {
	const query = `
		update "tenants"
		set "slug"       = :slug ,
		    "name"       = :name ,
		    "domain"     = :domain ,
		    "is_active"  = :is_active ,
		    "updated_at" = :updated_at
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, tenant)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (tenantDao) Delete(ctx context.Context, q Queryer, tenant *models.TenantEntity) error {
	const query = `
		delete from "tenants"
		where "id" = :id ;
	`

	result, err := execNamed(ctx, q, query, tenant)
	if err != nil {
		return err
	}

	return ensureRowsAffected(result)
}

func (tenantDao) FindByID(ctx context.Context, q Queryer, id int64) (*models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "id" = $1
		limit 1 ;
	`

	var tenant models.TenantEntity

	if err := selectOne(ctx, q, &tenant, query, id); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (tenantDao) FindBySlug(ctx context.Context, q Queryer, slug string) (*models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "slug" = $1
		limit 1 ;
	`

	var tenant models.TenantEntity

	if err := selectOne(ctx, q, &tenant, query, slug); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (tenantDao) FindByDomain(ctx context.Context, q Queryer, domain string) (*models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "domain" = $1
		limit 1 ;
	`

	var tenant models.TenantEntity

	if err := selectOne(ctx, q, &tenant, query, domain); err != nil {
		return nil, err
	}

	return &tenant, nil
}

func (tenantDao) FindAllActive(ctx context.Context, q Queryer) ([]models.TenantEntity, error) {
	const query = `
		select *
		from "tenants"
		where "is_active" = true
		order by "slug" ;
	`

	var tenantSlice []models.TenantEntity

	if err := selectSlice(ctx, q, &tenantSlice, query); err != nil {
		return nil, err
	}

	return tenantSlice, nil
}
