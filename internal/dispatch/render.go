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
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/vigilmail/vigilmail/internal/models"
)

const previewLength = 200

// renderEmailAlert formats an email alert as html for chat delivery.
func renderEmailAlert(email *models.EmailEntity) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s <b>%s</b>\n\n", priorityEmoji(email.Priority),
		strings.ToUpper(email.Priority.String()))
	fmt.Fprintf(&b, "<b>From:</b> %s\n", html.EscapeString(email.Sender))
	fmt.Fprintf(&b, "<b>Subject:</b> %s\n", html.EscapeString(email.Subject))
	fmt.Fprintf(&b, "<b>Received:</b> %s\n",
		time.Unix(email.ReceivedAt, 0).UTC().Format("2006-01-02 15:04"))

	if preview := previewOf(email.Body); preview != "" {
		fmt.Fprintf(&b, "\n%s", html.EscapeString(preview))
	}

	return b.String()
}

// renderSystemAlert formats an operational notice.
func renderSystemAlert(text string) string {
	return fmt.Sprintf("⚙️ <b>System</b>\n\n%s", html.EscapeString(text))
}

func priorityEmoji(priority models.Priority) string {
	switch priority {
	case models.PriorityHigh:
		return "🔴"
	case models.PriorityMedium:
		return "🟡"
	default:
		return "🟢"
	}
}

// previewOf truncates a mail body for the alert message.
func previewOf(body string) string {
	body = strings.TrimSpace(body)

	runes := []rune(body)
	if len(runes) <= previewLength {
		return body
	}

	return string(runes[:previewLength]) + "…"
}
