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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/vigilmail/vigilmail/internal/admin"
	"github.com/vigilmail/vigilmail/internal/binding"
	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/dispatch"
	"github.com/vigilmail/vigilmail/internal/mailbox"
	"github.com/vigilmail/vigilmail/internal/reconcile"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

var wireSet = wire.NewSet(
	wire.Struct(new(startCommand), "*"),
	wire.Struct(new(provisionCommand), "*"),
	wire.Struct(new(codeCommand), "*"),

	database.WireSet,
	tenant.WireSet,
	chat.WireSet,
	mailbox.WireSet,
	binding.WireSet,
	dispatch.WireSet,
	reconcile.WireSet,
	admin.WireSet,
)

func newStartCommand() (*startCommand, error) {
	panic(wire.Build(wireSet))
}

func newProvisionCommand() (*provisionCommand, error) {
	panic(wire.Build(wireSet))
}

func newCodeCommand() (*codeCommand, error) {
	panic(wire.Build(wireSet))
}
