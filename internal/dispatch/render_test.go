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

package dispatch

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vigilmail/vigilmail/internal/models"
)

func TestRenderEmailAlert(t *testing.T) {
	email := models.EmailEntity{
		Sender:     "alice@mail.example",
		Subject:    "status <ok> & running",
		Body:       "all good",
		ReceivedAt: 1700000000,
		Priority:   models.PriorityHigh,
	}

	rendered := renderEmailAlert(&email)

	assert.Contains(t, rendered, "🔴")
	assert.Contains(t, rendered, "HIGH")
	assert.Contains(t, rendered, "alice@mail.example")
	assert.Contains(t, rendered, "status &lt;ok&gt; &amp; running")
	assert.Contains(t, rendered, "all good")
	assert.NotContains(t, rendered, "<ok>")
}

func TestRenderEmailAlertTruncatesPreview(t *testing.T) {
	email := models.EmailEntity{
		Sender:   "alice@mail.example",
		Body:     strings.Repeat("x", 500),
		Priority: models.PriorityLow,
	}

	rendered := renderEmailAlert(&email)

	assert.Contains(t, rendered, strings.Repeat("x", previewLength)+"…")
	assert.NotContains(t, rendered, strings.Repeat("x", previewLength+1))
}

func TestRenderSystemAlert(t *testing.T) {
	rendered := renderSystemAlert("disk <80%> full")

	assert.Contains(t, rendered, "System")
	assert.Contains(t, rendered, "disk &lt;80%&gt; full")
}
