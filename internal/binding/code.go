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

package binding

import (
	"crypto/rand"
	"encoding/hex"
	"io"
)

// CodeGenerator is a service to generate binding code strings.
type CodeGenerator interface {
	// GenerateCode generates a new random code.
	GenerateCode() (string, error)
}

// NewCodeGenerator creates a new code generator backed by crypto/rand.
func NewCodeGenerator() CodeGenerator {
	return &randomCodeGenerator{random: rand.Reader}
}

type randomCodeGenerator struct {
	random io.Reader
}

func (r randomCodeGenerator) GenerateCode() (string, error) {
	// 8 random bytes encode to a 16 character code. Short enough to type
	// into a chat, long enough to make guessing pointless.
	const byteLength = 8

	b := make([]byte, byteLength)
	if _, err := io.ReadFull(r.random, b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
