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

package models

// Partition is a handle to one tenant's isolated data context. Every
// tenant-scoped operation requires a partition handle; handles are resolved
// through the tenant store and must never be fabricated from untrusted input.
type Partition struct {
	tenantID int64
}

// NewPartition wraps a tenant identifier in a partition handle.
func NewPartition(tenantID int64) Partition {
	return Partition{tenantID: tenantID}
}

// TenantID returns the owning tenant of the partition.
func (p Partition) TenantID() int64 {
	return p.tenantID
}

// IsZero reports whether the handle has not been resolved.
func (p Partition) IsZero() bool {
	return p.tenantID == 0
}
