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
	"context"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"

	"github.com/vigilmail/vigilmail/internal/chat"
	"github.com/vigilmail/vigilmail/internal/database"
	"github.com/vigilmail/vigilmail/internal/models"
	"github.com/vigilmail/vigilmail/internal/tenant"
)

func TestManagerTestSuite(t *testing.T) {
	suite.Run(t, new(ManagerTestSuite))
}

type ManagerTestSuite struct {
	suite.Suite

	ctx     context.Context
	conn    database.Conn
	store   *tenant.Store
	manager *Manager

	acme     models.Partition
	umbrella models.Partition
}

func (s *ManagerTestSuite) SetupTest() {
	viper.Set("storage.database.filename", ":memory:")
	viper.Set("storage.database.journalmode", "memory")

	conn, err := database.OpenConnection()
	s.Require().NoError(err)

	s.ctx = context.Background()
	s.conn = conn
	s.store = tenant.NewStore(
		conn,
		database.NewTenantDao(),
		database.NewUserDao(),
		database.NewMailboxConfigDao(),
		database.NewEmailDao(),
		database.NewChatDao(),
		database.NewCodeDao(),
		database.NewNotificationDao(),
		database.NewIngestLogDao(),
	)
	s.manager = NewManager(
		conn,
		database.NewCodeDao(),
		database.NewChatDao(),
		database.NewUserDao(),
		database.NewNotificationDao(),
		NewCodeGenerator(),
		s.store,
	)

	acme, err := s.store.Provision(s.ctx, "acme", "Acme Corp", "")
	s.Require().NoError(err)
	s.acme = models.NewPartition(acme.ID)

	umbrella, err := s.store.Provision(s.ctx, "umbrella", "Umbrella Inc", "")
	s.Require().NoError(err)
	s.umbrella = models.NewPartition(umbrella.ID)
}

func (s *ManagerTestSuite) TearDownTest() {
	s.Require().NoError(s.conn.Close())
}

func (s *ManagerTestSuite) profile(chatRef int64) chat.Profile {
	return chat.Profile{
		ChatRef: chatRef,
		Name:    "Ops",
		Kind:    models.ChatGroup,
	}
}

// insertNotifiedEmail fakes a completed dispatch to the given chat, the
// state a binding is usually in by the time it gets unlinked.
func (s *ManagerTestSuite) insertNotifiedEmail(chatID int64) {
	_, err := s.conn.ExecContext(s.ctx,
		`
			insert into "emails"
				( "id", "tenant_id", "message_id", "sender", "subject", "body"
				, "received_at", "priority", "status", "created_at", "updated_at" )
			values
				( 5, $1, '<msg-1>', 'a@b', '', '', 0, 1, 3, 0, 0 ) ;
		`, s.acme.TenantID())
	s.Require().NoError(err)

	_, err = s.conn.ExecContext(s.ctx,
		`
			insert into "notifications"
				( "tenant_id", "email_id", "chat_id", "status"
				, "attempt_count", "created_at", "updated_at" )
			values
				( $1, 5, $2, 2, 1, 0, 0 ) ;
		`, s.acme.TenantID(), chatID)
	s.Require().NoError(err)
}

func (s *ManagerTestSuite) TestIssueAndRedeem() {
	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)
	s.Require().Len(code.Code, 16)

	reply, err := s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)
	s.Assert().Contains(reply, "successful")

	chatEntity, err := database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Require().NoError(err)
	s.Assert().Equal(s.acme.TenantID(), chatEntity.TenantID)
	s.Assert().Equal(models.ChatGroup, chatEntity.Kind)
	s.Assert().True(chatEntity.EmailAlerts)
}

func (s *ManagerTestSuite) TestRedeemUnknownCode() {
	_, err := s.manager.Redeem(s.ctx, "deadbeefdeadbeef", s.profile(1001))
	s.Assert().ErrorIs(err, ErrInvalidCode)
}

func (s *ManagerTestSuite) TestRedeemTwice() {
	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	// The code is consumed, even for a different chat.
	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1002))
	s.Assert().ErrorIs(err, ErrInvalidCode)
}

func (s *ManagerTestSuite) TestRedeemExpired() {
	viper.Set("binding.codettl", "-1h")
	defer viper.Set("binding.codettl", "168h")

	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Assert().ErrorIs(err, ErrExpiredCode)

	// The code stays unconsumed.
	entity, err := database.NewCodeDao().FindByCode(s.ctx, s.conn, code.Code)
	s.Require().NoError(err)
	s.Assert().False(entity.Used)
}

func (s *ManagerTestSuite) TestRedeemSamePartitionTwice() {
	first, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	second, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, first.Code, s.profile(1001))
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, second.Code, s.profile(1001))
	s.Assert().ErrorIs(err, ErrAlreadyRegistered)
}

func (s *ManagerTestSuite) TestRedeemChatBoundElsewhere() {
	acmeCode, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	umbrellaCode, err := s.manager.Issue(s.ctx, s.umbrella, "")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, acmeCode.Code, s.profile(1001))
	s.Require().NoError(err)

	// One chat serves at most one tenant.
	_, err = s.manager.Redeem(s.ctx, umbrellaCode.Code, s.profile(1001))
	s.Assert().ErrorIs(err, ErrChatAlreadyBound)

	// The foreign code survives the rejection.
	entity, err := database.NewCodeDao().FindByCode(s.ctx, s.conn, umbrellaCode.Code)
	s.Require().NoError(err)
	s.Assert().False(entity.Used)
}

func (s *ManagerTestSuite) TestRedeemLinksUser() {
	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.store.AddUser(s.ctx, s.acme, &user))

	code, err := s.manager.Issue(s.ctx, s.acme, "alice@acme.example")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	linked, err := database.NewUserDao().FindByID(s.ctx, s.conn, s.acme, user.ID)
	s.Require().NoError(err)
	s.Require().True(linked.ChatRef.Valid)
	s.Assert().Equal(int64(1001), linked.ChatRef.Int64)
}

func (s *ManagerTestSuite) TestRedeemWithUnknownUserStillBinds() {
	code, err := s.manager.Issue(s.ctx, s.acme, "ghost@acme.example")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	_, err = database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Assert().NoError(err)
}

func (s *ManagerTestSuite) TestUnlinkChat() {
	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.store.AddUser(s.ctx, s.acme, &user))

	code, err := s.manager.Issue(s.ctx, s.acme, "alice@acme.example")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	chatEntity, err := database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.UnlinkChat(s.ctx, s.acme, chatEntity.ID))

	_, err = database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Assert().True(database.IsErrNoRows(err))

	// The user link is cleared as well.
	linked, err := database.NewUserDao().FindByID(s.ctx, s.conn, s.acme, user.ID)
	s.Require().NoError(err)
	s.Assert().False(linked.ChatRef.Valid)
}

func (s *ManagerTestSuite) TestUnlinkChatRemovesNotifications() {
	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	chatEntity, err := database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Require().NoError(err)

	s.insertNotifiedEmail(chatEntity.ID)

	// The notification history must not block the removal.
	s.Require().NoError(s.manager.UnlinkChat(s.ctx, s.acme, chatEntity.ID))

	_, err = database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Assert().True(database.IsErrNoRows(err))

	notifications, err := database.NewNotificationDao().FindByEmail(s.ctx, s.conn, s.acme, 5)
	s.Require().NoError(err)
	s.Assert().Empty(notifications)
}

func (s *ManagerTestSuite) TestUnlinkChatRemovesCodes() {
	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.store.AddUser(s.ctx, s.acme, &user))

	redeemed, err := s.manager.Issue(s.ctx, s.acme, "alice@acme.example")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, redeemed.Code, s.profile(1001))
	s.Require().NoError(err)

	// A spare code for the same user, issued but never redeemed.
	spare, err := s.manager.Issue(s.ctx, s.acme, "alice@acme.example")
	s.Require().NoError(err)

	chatEntity, err := database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Require().NoError(err)

	s.Require().NoError(s.manager.UnlinkChat(s.ctx, s.acme, chatEntity.ID))

	// Both the consumed and the spare code are gone, so the binding cannot
	// be resurrected.
	_, err = database.NewCodeDao().FindByCode(s.ctx, s.conn, redeemed.Code)
	s.Assert().True(database.IsErrNoRows(err))

	_, err = database.NewCodeDao().FindByCode(s.ctx, s.conn, spare.Code)
	s.Assert().True(database.IsErrNoRows(err))
}

func (s *ManagerTestSuite) TestRedeemConcurrently() {
	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	results := make(chan error, 2)

	var wg sync.WaitGroup
	for _, chatRef := range []int64{1001, 1002} {
		wg.Add(1)
		go func(chatRef int64) {
			defer wg.Done()

			_, err := s.manager.Redeem(s.ctx, code.Code, s.profile(chatRef))
			results <- err
		}(chatRef)
	}

	wg.Wait()
	close(results)

	var succeeded int
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			s.Assert().ErrorIs(err, ErrInvalidCode)
		}
	}

	// The code is consumed exactly once, the losing chat is rolled back.
	s.Assert().Equal(1, succeeded)

	chats, err := database.NewChatDao().FindAll(s.ctx, s.conn)
	s.Require().NoError(err)
	s.Assert().Len(chats, 1)
}

func (s *ManagerTestSuite) TestUserDeletionCascades() {
	user := models.UserEntity{Name: "Alice", Email: "alice@acme.example"}
	s.Require().NoError(s.store.AddUser(s.ctx, s.acme, &user))

	code, err := s.manager.Issue(s.ctx, s.acme, "alice@acme.example")
	s.Require().NoError(err)

	_, err = s.manager.Redeem(s.ctx, code.Code, s.profile(1001))
	s.Require().NoError(err)

	chatEntity, err := database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Require().NoError(err)
	s.insertNotifiedEmail(chatEntity.ID)

	s.Require().NoError(s.store.DeleteUser(s.ctx, s.acme, user.ID))

	// Chat, codes and notification history vanish with the user.
	_, err = database.NewChatDao().FindByChatRef(s.ctx, s.conn, 1001)
	s.Assert().True(database.IsErrNoRows(err))

	_, err = database.NewCodeDao().FindByCode(s.ctx, s.conn, code.Code)
	s.Assert().True(database.IsErrNoRows(err))

	notifications, err := database.NewNotificationDao().FindByEmail(s.ctx, s.conn, s.acme, 5)
	s.Require().NoError(err)
	s.Assert().Empty(notifications)
}

func (s *ManagerTestSuite) TestCleanExpiredCodes() {
	viper.Set("binding.codettl", "-1h")
	code, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	viper.Set("binding.codettl", "168h")
	fresh, err := s.manager.Issue(s.ctx, s.acme, "")
	s.Require().NoError(err)

	s.Require().NoError(s.manager.CleanExpiredCodes(s.ctx))

	_, err = database.NewCodeDao().FindByCode(s.ctx, s.conn, code.Code)
	s.Assert().True(database.IsErrNoRows(err))

	_, err = database.NewCodeDao().FindByCode(s.ctx, s.conn, fresh.Code)
	s.Assert().NoError(err)
}
