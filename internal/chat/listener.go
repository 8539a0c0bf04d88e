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

package chat

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/log"
)

func init() {
	viper.SetDefault("chat.telegram.updatetimeout", 30)
}

// Redeemer consumes a binding code on behalf of a chat. The returned text
// is sent back to the chat as confirmation or rejection.
type Redeemer interface {
	Redeem(ctx context.Context, code string, profile Profile) (string, error)
}

// Listener polls the telegram bot api for inbound updates and handles the
// registration command. Everything else is ignored.
type Listener struct {
	telegram *Telegram
	redeemer Redeemer
}

// NewListener creates a new Listener.
func NewListener(telegram *Telegram, redeemer Redeemer) *Listener {
	return &Listener{
		telegram: telegram,
		redeemer: redeemer,
	}
}

// Run polls for updates until the context is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	bot, err := l.telegram.api()
	if err != nil {
		return err
	}

	config := tgbotapi.NewUpdate(0)
	config.Timeout = viper.GetInt("chat.telegram.updatetimeout")

	updates := bot.GetUpdatesChan(config)
	defer bot.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case update := <-updates:
			l.handleUpdate(ctx, update)
		}
	}
}

func (l *Listener) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	message := update.Message
	if message == nil || !message.IsCommand() {
		return
	}

	switch message.Command() {
	case "start", "register":
		code := strings.TrimSpace(message.CommandArguments())
		l.handleRegister(ctx, code, profileOf(message.Chat))
	}
}

func (l *Listener) handleRegister(ctx context.Context, code string, profile Profile) {
	ctx = log.WithChat(ctx, profile.ChatRef)

	if code == "" {
		l.reply(ctx, profile.ChatRef,
			"Please provide a registration code: /register <code>")
		return
	}

	reply, err := l.redeemer.Redeem(ctx, code, profile)
	if err != nil {
		log.WarnContext(ctx).
			Err(err).
			Msg("could not redeem binding code")
	}

	if reply != "" {
		l.reply(ctx, profile.ChatRef, reply)
	}
}

func (l *Listener) reply(ctx context.Context, chatRef int64, text string) {
	if _, err := l.telegram.Send(ctx, chatRef, text); err != nil {
		log.WarnContext(ctx).
			Err(err).
			Msg("could not send reply")
	}
}
