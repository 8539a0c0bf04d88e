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

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vigilmail/vigilmail/internal/admin"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

// provisionCommand creates a new tenant partition.
type provisionCommand struct {
	Conn  database.Conn
	Store *tenant.Store
}

func (c *provisionCommand) run(args []string) error {
	defer c.Conn.Close()

	if len(args) < 2 {
		return errors.New("usage: provision SLUG NAME [DOMAIN]")
	}

	var domain string
	if len(args) > 2 {
		domain = args[2]
	}

	entity, err := c.Store.Provision(context.Background(), args[0], args[1], domain)
	if err != nil {
		return err
	}

	fmt.Printf("provisioned tenant %q (id %d)\n", entity.Slug, entity.ID)
	return nil
}

// codeCommand issues a chat binding code for a tenant.
type codeCommand struct {
	Conn    database.Conn
	Surface *admin.Surface
}

func (c *codeCommand) run(args []string) error {
	defer c.Conn.Close()

	if len(args) < 1 {
		return errors.New("usage: code SLUG [EMAIL]")
	}

	var userEmail string
	if len(args) > 1 {
		userEmail = args[1]
	}

	entity, err := c.Surface.IssueCode(context.Background(), args[0], userEmail)
	if err != nil {
		return err
	}

	fmt.Printf("code: %s (valid until %s)\n", entity.Code,
		time.Unix(entity.ExpiresAt, 0).Format(time.RFC3339))
	return nil
}
