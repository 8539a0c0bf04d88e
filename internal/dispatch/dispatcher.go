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
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("dispatch.maxattempts", 3)
	viper.SetDefault("dispatch.buffer", 256)
}

// event names a freshly ingested email awaiting dispatch.
type event struct {
	partition models.Partition
	emailID   int64
}

// Dispatcher fans newly ingested emails out to the chat destinations of
// their partition. Every (email, chat) pair is attempted at most once, with
// bounded retries only for transient delivery failures.
type Dispatcher struct {
	conn database.Conn

	emailDao        database.EmailDao
	chatDao         database.ChatDao
	notificationDao database.NotificationDao

	client chat.Client
	events chan event
}

// NewDispatcher creates a new Dispatcher.
func NewDispatcher(
	conn database.Conn,
	emailDao database.EmailDao,
	chatDao database.ChatDao,
	notificationDao database.NotificationDao,
	client chat.Client,
) *Dispatcher {
	return &Dispatcher{
		conn:            conn,
		emailDao:        emailDao,
		chatDao:         chatDao,
		notificationDao: notificationDao,
		client:          client,
		events:          make(chan event, viper.GetInt("dispatch.buffer")),
	}
}

// EmailReceived enqueues an email for dispatch. It never blocks; if the
// queue is full the email stays pending and the recovery pass of the next
// start picks it up again.
func (d *Dispatcher) EmailReceived(ctx context.Context, partition models.Partition, emailID int64) {
	select {
	case d.events <- event{partition: partition, emailID: emailID}:
	default:
		log.WarnContext(ctx).
			Int64("email", emailID).
			Msg("dispatch queue is full")
	}
}

// Run consumes dispatch events until the context is cancelled. Emails left
// unsettled by an earlier run are dispatched again first.
func (d *Dispatcher) Run(ctx context.Context) error {
	log.Info().Msg("starting notification dispatcher")

	if err := d.recoverUnsettled(ctx); err != nil {
		log.Error().
			Err(err).
			Msg("could not recover unsettled emails")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-d.events:
			if err := d.Dispatch(ctx, ev.partition, ev.emailID); err != nil {
				log.ErrorContext(log.WithTenant(ctx, ev.partition.TenantID())).
					Err(err).
					Int64("email", ev.emailID).
					Msg("could not dispatch email")
			}
		}
	}
}

// Dispatch delivers one email to every eligible chat of its partition and
// settles the email status afterwards.
func (d *Dispatcher) Dispatch(ctx context.Context, partition models.Partition, emailID int64) error {
	ctx = log.WithTenant(ctx, partition.TenantID())

	email, err := d.emailDao.FindByID(ctx, d.conn, partition, emailID)
	if err != nil {
		return err
	}

	destinations, err := d.eligibleChats(ctx, partition, email.Priority)
	if err != nil {
		return err
	}

	if len(destinations) == 0 {
		log.DebugContext(ctx).
			Int64("email", emailID).
			Msg("no chat accepts this email")

		return d.emailDao.UpdateStatus(ctx, d.conn, partition, emailID,
			models.EmailIgnored, time.Now().Unix())
	}

	if email.Status == models.EmailPending {
		err := d.emailDao.UpdateStatus(ctx, d.conn, partition, emailID,
			models.EmailProcessing, time.Now().Unix())
		if err != nil {
			return err
		}
	}

	for i := range destinations {
		d.notifyChat(ctx, partition, email, &destinations[i])
	}

	return d.settleEmailStatus(ctx, partition, emailID)
}

// eligibleChats returns the active chats that accept emails of the given
// priority.
func (d *Dispatcher) eligibleChats(
	ctx context.Context,
	partition models.Partition,
	priority models.Priority,
) ([]models.ChatEntity, error) {
	chats, err := d.chatDao.FindActive(ctx, d.conn, partition)
	if err != nil {
		return nil, err
	}

	eligible := chats[:0]
	for _, chatEntity := range chats {
		if chatEntity.EmailAlerts && chatEntity.AlertLevel.Accepts(priority) {
			eligible = append(eligible, chatEntity)
		}
	}

	return eligible, nil
}

// notifyChat claims the (email, chat) pair and runs the first delivery
// attempt. A pair that was already claimed and settled is skipped, one
// whose attempt never settled is resumed.
func (d *Dispatcher) notifyChat(
	ctx context.Context,
	partition models.Partition,
	email *models.EmailEntity,
	chatEntity *models.ChatEntity,
) {
	ctx = log.WithChat(ctx, chatEntity.ChatRef)
	now := time.Now().Unix()

	notification := models.NotificationEntity{
		EmailID:   email.ID,
		ChatID:    chatEntity.ID,
		Status:    models.NotificationPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := d.notificationDao.Insert(ctx, d.conn, partition, &notification); err != nil {
		if database.IsErrUnique(err) {
			d.resumeClaimed(ctx, partition, email, chatEntity)
			return
		}

		log.ErrorContext(ctx).
			Err(err).
			Msg("could not record notification")
		return
	}

	d.attempt(ctx, partition, &notification, chatEntity.ChatRef, renderEmailAlert(email))
}

// resumeClaimed re-attempts a claimed pair that is still pending or waiting
// for a retry, the way a crash between claim and delivery leaves it behind.
// Settled pairs stay settled.
func (d *Dispatcher) resumeClaimed(
	ctx context.Context,
	partition models.Partition,
	email *models.EmailEntity,
	chatEntity *models.ChatEntity,
) {
	notifications, err := d.notificationDao.FindByEmail(ctx, d.conn, partition, email.ID)
	if err != nil {
		log.ErrorContext(ctx).
			Err(err).
			Int64("email", email.ID).
			Msg("could not load claimed notification")
		return
	}

	for i := range notifications {
		notification := &notifications[i]
		if notification.ChatID != chatEntity.ID {
			continue
		}

		switch notification.Status {
		case models.NotificationPending, models.NotificationRetry:
			d.attempt(ctx, partition, notification, chatEntity.ChatRef, renderEmailAlert(email))
		default:
			log.DebugContext(ctx).
				Int64("email", email.ID).
				Msg("notification already attempted")
		}

		return
	}
}

// attempt runs a single delivery attempt and updates the notification
// record. Transient failures are retried with growing delays until the
// attempt budget is spent.
func (d *Dispatcher) attempt(
	ctx context.Context,
	partition models.Partition,
	notification *models.NotificationEntity,
	chatRef int64,
	text string,
) {
	notification.AttemptCount++

	providerMessageID, sendErr := d.client.Send(ctx, chatRef, text)
	now := time.Now()

	switch {
	case sendErr == nil:
		notification.Status = models.NotificationSent
		notification.ProviderMessageID = sql.NullInt64{Int64: providerMessageID, Valid: true}
		notification.SentAt = sql.NullInt64{Int64: now.Unix(), Valid: true}
		notification.ErrorMessage = sql.NullString{}

	case isTransient(sendErr) && notification.AttemptCount < viper.GetInt64("dispatch.maxattempts"):
		notification.Status = models.NotificationRetry
		notification.ErrorMessage = sql.NullString{String: sendErr.Error(), Valid: true}

	default:
		notification.Status = models.NotificationFailed
		notification.ErrorMessage = sql.NullString{String: sendErr.Error(), Valid: true}
	}

	notification.UpdatedAt = now.Unix()

	if err := d.notificationDao.Update(ctx, d.conn, partition, notification); err != nil {
		log.ErrorContext(ctx).
			Err(err).
			Int64("notification", notification.ID).
			Msg("could not update notification")
		return
	}

	if notification.Status == models.NotificationRetry {
		delay := retryDelay(notification.AttemptCount)

		log.DebugContext(ctx).
			Err(sendErr).
			Int64("attempt", notification.AttemptCount).
			Dur("delay", delay).
			Msg("scheduling delivery retry")

		retry := *notification
		time.AfterFunc(delay, func() {
			d.attempt(ctx, partition, &retry, chatRef, text)

			if err := d.settleEmailStatus(ctx, partition, retry.EmailID); err != nil {
				log.ErrorContext(ctx).
					Err(err).
					Int64("email", retry.EmailID).
					Msg("could not settle email status")
			}
		})
		return
	}

	if sendErr != nil {
		log.WarnContext(ctx).
			Err(sendErr).
			Int64("notification", notification.ID).
			Msg("delivery failed permanently")
	}
}

// settleEmailStatus derives the email status from its notification records.
// A single delivered chat counts as sent. As long as retries are pending
// the email stays in processing state.
func (d *Dispatcher) settleEmailStatus(
	ctx context.Context,
	partition models.Partition,
	emailID int64,
) error {
	notifications, err := d.notificationDao.FindByEmail(ctx, d.conn, partition, emailID)
	if err != nil {
		return err
	}

	var sent, unsettled bool

	for _, notification := range notifications {
		switch notification.Status {
		case models.NotificationSent:
			sent = true
		case models.NotificationPending, models.NotificationRetry:
			unsettled = true
		}
	}

	var status models.EmailStatus

	switch {
	case sent:
		status = models.EmailSent
	case unsettled:
		return nil
	default:
		status = models.EmailFailed
	}

	return d.emailDao.UpdateStatus(ctx, d.conn, partition, emailID, status, time.Now().Unix())
}

// recoverUnsettled dispatches every email across all partitions that is
// still pending or processing. A restart loses both the queued events and
// the scheduled retry timers, this pass rebuilds them from the database.
func (d *Dispatcher) recoverUnsettled(ctx context.Context) error {
	emails, err := d.emailDao.FindUnsettled(ctx, d.conn)
	if err != nil {
		return err
	}

	if len(emails) == 0 {
		return nil
	}

	log.Info().
		Int("emails", len(emails)).
		Msg("recovering unsettled emails")

	for i := range emails {
		partition := models.NewPartition(emails[i].TenantID)

		if err := d.Dispatch(ctx, partition, emails[i].ID); err != nil {
			log.ErrorContext(log.WithTenant(ctx, emails[i].TenantID)).
				Err(err).
				Int64("email", emails[i].ID).
				Msg("could not dispatch email")
		}
	}

	return nil
}

// SystemAlert sends an operational notice to all chats of the partition
// that opted into system alerts. Failed deliveries are logged, not retried.
// It returns the number of chats that were reached.
func (d *Dispatcher) SystemAlert(ctx context.Context, partition models.Partition, text string) (int, error) {
	ctx = log.WithTenant(ctx, partition.TenantID())

	chats, err := d.chatDao.FindActive(ctx, d.conn, partition)
	if err != nil {
		return 0, err
	}

	var (
		rendered  = renderSystemAlert(text)
		delivered int
	)

	for _, chatEntity := range chats {
		if !chatEntity.SystemAlerts {
			continue
		}

		if _, err := d.client.Send(ctx, chatEntity.ChatRef, rendered); err != nil {
			log.WarnContext(log.WithChat(ctx, chatEntity.ChatRef)).
				Err(err).
				Msg("could not deliver system alert")
			continue
		}

		delivered++
	}

	return delivered, nil
}

// isTransient classifies a delivery error. Unknown error types count as
// transient, because the provider might just be unreachable.
func isTransient(err error) bool {
	var deliveryErr *chat.DeliveryError

	if errors.As(err, &deliveryErr) {
		return deliveryErr.Temporary()
	}

	return true
}

// retryDelay returns the pause before the next attempt.
func retryDelay(attempt int64) time.Duration {
	switch {
	case attempt < 2:
		return 30 * time.Second
	case attempt < 3:
		return 2 * time.Minute
	default:
		return 10 * time.Minute
	}
}
