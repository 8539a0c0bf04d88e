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

package mailbox

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/log"
	"github.com/vigilmail/vigilmail/internal/models"
)

func init() {
	viper.SetDefault("ingest.timeout", "60s")
}

const (
	runStatusSuccess = "success"
	runStatusPartial = "partial"
	runStatusError   = "error"
)

// Notifier is informed about every newly ingested email after its
// transaction committed.
type Notifier interface {
	EmailReceived(ctx context.Context, partition models.Partition, emailID int64)
}

// Worker ingests unread mails from a single remote mailbox into the
// partition of its owner.
type Worker struct {
	conn             database.Conn
	emailDao         database.EmailDao
	mailboxConfigDao database.MailboxConfigDao
	ingestLogDao     database.IngestLogDao

	client     Client
	classifier *Classifier
	notifier   Notifier
}

// NewWorker creates a new Worker.
func NewWorker(
	conn database.Conn,
	emailDao database.EmailDao,
	mailboxConfigDao database.MailboxConfigDao,
	ingestLogDao database.IngestLogDao,
	client Client,
	classifier *Classifier,
	notifier Notifier,
) *Worker {
	return &Worker{
		conn:             conn,
		emailDao:         emailDao,
		mailboxConfigDao: mailboxConfigDao,
		ingestLogDao:     ingestLogDao,
		client:           client,
		classifier:       classifier,
		notifier:         notifier,
	}
}

// Process runs a single ingestion cycle for one mailbox configuration. A
// cycle that cannot reach the mailbox leaves the last-checked mark alone, so
// that the next tick retries immediately.
func (w *Worker) Process(
	ctx context.Context,
	partition models.Partition,
	config *models.MailboxConfigEntity,
) error {
	ctx = log.WithTenant(ctx, partition.TenantID())
	ctx = log.WithMailbox(ctx, config.ID)
	ctx = log.WithRun(ctx, uuid.NewString())

	ctx, cancel := context.WithTimeout(ctx, viper.GetDuration("ingest.timeout"))
	defer cancel()

	started := time.Now()

	log.DebugContext(ctx).
		Str("host", config.Host).
		Str("folder", config.Folder).
		Msg("starting ingestion cycle")

	session, err := w.client.Connect(ctx, config)
	if err != nil {
		w.recordRun(ctx, partition, config, &runReport{
			status:   runStatusError,
			message:  err.Error(),
			duration: time.Since(started),
		})

		return err
	}

	defer session.Close()

	messages, err := session.Fetch(ctx, config.BatchSize)
	if err != nil {
		w.recordRun(ctx, partition, config, &runReport{
			status:   runStatusError,
			message:  err.Error(),
			duration: time.Since(started),
		})

		return err
	}

	report := &runReport{status: runStatusSuccess}

	var seen []uint32

	for _, message := range messages {
		emailID, err := w.ingestMessage(ctx, partition, &message)

		switch {
		case err == nil && emailID != 0:
			report.processed++
			seen = append(seen, message.UID)
			w.notifier.EmailReceived(ctx, partition, emailID)

		case err == nil:
			// Duplicate within the partition. Flag it as read anyway, so
			// it does not show up again next cycle.
			report.skipped++
			seen = append(seen, message.UID)

		default:
			log.ErrorContext(ctx).
				Err(err).
				Str("messageId", message.MessageID).
				Msg("could not ingest message")

			report.failed++
			report.status = runStatusPartial
		}
	}

	// Only mails that are safely committed are flagged as read. A crash in
	// between leaves them unread and a later cycle deduplicates them.
	if err := session.MarkSeen(ctx, seen); err != nil {
		log.WarnContext(ctx).
			Err(err).
			Msg("could not mark messages as seen")
	}

	now := time.Now()
	err = w.mailboxConfigDao.UpdateLastChecked(ctx, w.conn, partition, config.ID, now.Unix())
	if err != nil {
		return err
	}

	report.duration = now.Sub(started)
	w.recordRun(ctx, partition, config, report)

	log.InfoContext(ctx).
		Int64("processed", report.processed).
		Int64("skipped", report.skipped).
		Int64("failed", report.failed).
		Msg("ingestion cycle completed")

	return nil
}

// ingestMessage stores a single mail. It returns a zero id without an error
// when the mail is a duplicate within the partition.
func (w *Worker) ingestMessage(
	ctx context.Context,
	partition models.Partition,
	message *Message,
) (int64, error) {
	now := time.Now().Unix()

	email := models.EmailEntity{
		MessageID:  message.MessageID,
		Sender:     message.Sender,
		Recipient:  message.Recipient,
		Subject:    message.Subject,
		Body:       message.Body,
		ReceivedAt: message.ReceivedAt.Unix(),
		Priority:   w.classifier.Classify(message.Subject, message.Body),
		Status:     models.EmailPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	tx, err := w.conn.Begin(ctx)
	if err != nil {
		return 0, err
	}

	defer tx.Rollback()

	if err := w.emailDao.Insert(ctx, tx, partition, &email); err != nil {
		if database.IsErrUnique(err) {
			log.DebugContext(ctx).
				Str("messageId", message.MessageID).
				Msg("skipping duplicate message")

			return 0, nil
		}

		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return email.ID, nil
}

type runReport struct {
	status    string
	message   string
	processed int64
	skipped   int64
	failed    int64
	duration  time.Duration
}

func (w *Worker) recordRun(
	ctx context.Context,
	partition models.Partition,
	config *models.MailboxConfigEntity,
	report *runReport,
) {
	entry := models.IngestLogEntity{
		ConfigID:   config.ID,
		Status:     report.status,
		Message:    report.message,
		Processed:  report.processed,
		Skipped:    report.skipped,
		Failed:     report.failed,
		DurationMS: report.duration.Milliseconds(),
		CreatedAt:  time.Now().Unix(),
	}

	if err := w.ingestLogDao.Insert(ctx, w.conn, partition, &entry); err != nil {
		log.ErrorContext(ctx).
			Err(err).
			Msg("could not record ingestion run")
	}
}
