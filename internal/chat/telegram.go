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
	"errors"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("chat.telegram.timeout", "10s")
	viper.SetDefault("chat.telegram.endpoint", tgbotapi.APIEndpoint)
}

// Telegram is a Client backed by the telegram bot api. The connection is
// established lazily on first use, so commands that never talk to the
// provider work without a token or a reachable endpoint.
type Telegram struct {
	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

// NewTelegram creates a new Telegram client. No connection is made yet.
func NewTelegram() *Telegram {
	return &Telegram{}
}

// api returns the connected bot api, connecting on the first call.
func (t *Telegram) api() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.bot != nil {
		return t.bot, nil
	}

	token := viper.GetString("chat.telegram.token")
	if token == "" {
		return nil, errors.New("chat: missing telegram token")
	}

	httpClient := &http.Client{
		Timeout: viper.GetDuration("chat.telegram.timeout"),
	}

	bot, err := tgbotapi.NewBotAPIWithClient(
		token, viper.GetString("chat.telegram.endpoint"), httpClient)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("username", bot.Self.UserName).
		Msg("connected to telegram bot api")

	t.bot = bot
	return bot, nil
}

// Send delivers an html formatted message to a telegram chat.
func (t *Telegram) Send(ctx context.Context, chatRef int64, text string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	bot, err := t.api()
	if err != nil {
		return 0, err
	}

	message := tgbotapi.NewMessage(chatRef, text)
	message.ParseMode = tgbotapi.ModeHTML
	message.DisableWebPagePreview = true

	sent, err := bot.Send(message)
	if err != nil {
		return 0, &DeliveryError{
			Kind:    classifyTelegramErr(err),
			ChatRef: chatRef,
			Err:     err,
		}
	}

	return int64(sent.MessageID), nil
}

func classifyTelegramErr(err error) FailureKind {
	var apiErr *tgbotapi.Error

	if !errors.As(err, &apiErr) {
		return FailureUnknown
	}

	switch apiErr.Code {
	case http.StatusTooManyRequests:
		return FailureRateLimited
	case http.StatusForbidden:
		return FailureForbidden
	case http.StatusBadRequest, http.StatusNotFound:
		return FailureNotFound
	default:
		return FailureUnknown
	}
}

func profileOf(raw *tgbotapi.Chat) Profile {
	profile := Profile{
		ChatRef: raw.ID,
		Name:    raw.Title,
	}

	switch raw.Type {
	case "group", "supergroup":
		profile.Kind = models.ChatGroup
	case "channel":
		profile.Kind = models.ChatChannel
	default:
		profile.Kind = models.ChatPrivate
	}

	if profile.Name == "" {
		profile.Name = raw.UserName
		if profile.Name == "" {
			profile.Name = raw.FirstName
		}
	}

	return profile
}
