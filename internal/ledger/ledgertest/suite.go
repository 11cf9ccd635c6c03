// Package ledgertest holds the behaviour every ledger backend must share.
package ledgertest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"budget/internal/core"
	"budget/internal/ledger"
)

// StoreSuite runs the common store checks. Backends embed it and set
// NewStore, which is called once per test.
type StoreSuite struct {
	suite.Suite
	NewStore func() ledger.Store

	store ledger.Store
	ctx   context.Context
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.NewStore()
}

func (s *StoreSuite) TestLoadMissingReturnsDefault() {
	doc, err := s.store.Load(s.ctx, "nobody")
	s.Require().NoError(err)
	s.Equal(core.DocumentVersion, doc.Version)
	s.NotZero(doc.Categories.Len())
	s.Empty(doc.Months)
}

func (s *StoreSuite) TestSaveLoadRoundTrip() {
	doc := core.NewDocument()
	s.Require().NoError(doc.AddCategory("Gym"))
	s.Require().NoError(doc.SetIncome("2024-01", core.MustParseMoney("5000")))
	s.Require().NoError(doc.SetExpense("2024-01", "Gym", core.MustParseMoney("45.50")))
	s.Require().NoError(s.store.Save(s.ctx, "alice", doc))

	got, err := s.store.Load(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(doc.Categories.List(), got.Categories.List())
	s.Equal([]string{"2024-01"}, got.MonthKeys())
	s.Equal("45.50", got.Months["2024-01"].Expenses["Gym"].String())
	s.Equal("5000.00", got.Months["2024-01"].Income.String())
}

func (s *StoreSuite) TestSaveOverwrites() {
	doc := core.NewDocument()
	s.Require().NoError(doc.SetIncome("2024-01", core.MoneyFromInt(1)))
	s.Require().NoError(s.store.Save(s.ctx, "alice", doc))

	doc = core.NewDocument()
	s.Require().NoError(doc.SetIncome("2024-02", core.MoneyFromInt(2)))
	s.Require().NoError(s.store.Save(s.ctx, "alice", doc))

	got, err := s.store.Load(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal([]string{"2024-02"}, got.MonthKeys())
}

func (s *StoreSuite) TestLoadedDocumentIsDetached() {
	s.Require().NoError(s.store.Save(s.ctx, "alice", core.NewDocument()))
	doc, err := s.store.Load(s.ctx, "alice")
	s.Require().NoError(err)
	s.Require().NoError(doc.SetIncome("2024-01", core.MoneyFromInt(10)))

	again, err := s.store.Load(s.ctx, "alice")
	s.Require().NoError(err)
	s.Empty(again.Months, "unsaved edits must not leak into the store")
}

func (s *StoreSuite) TestInvalidUsername() {
	_, err := s.store.Load(s.ctx, "../etc/passwd")
	s.ErrorIs(err, core.ErrValidation)
	s.ErrorIs(s.store.Save(s.ctx, "a/b", core.NewDocument()), core.ErrValidation)
	s.ErrorIs(s.store.CreateAccount(s.ctx, core.Account{Username: "a b"}), core.ErrInvalidUsername)
}

func (s *StoreSuite) TestAccounts() {
	created := core.Timestamp{Time: time.Date(2024, 1, 2, 15, 4, 5, 0, time.Local)}
	acc := core.Account{Username: "alice", PasswordHash: "h1", Email: "a@x.com", CreatedAt: created}
	s.Require().NoError(s.store.CreateAccount(s.ctx, acc))
	s.ErrorIs(s.store.CreateAccount(s.ctx, acc), core.ErrUserExists)

	got, err := s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("alice", got.Username)
	s.Equal("h1", got.PasswordHash)
	s.Equal("a@x.com", got.Email)
	s.True(created.Equal(got.CreatedAt.Time))

	got.PasswordHash = "h2"
	s.Require().NoError(s.store.UpdateAccount(s.ctx, got))
	got, err = s.store.GetAccount(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal("h2", got.PasswordHash)

	_, err = s.store.GetAccount(s.ctx, "bob")
	s.ErrorIs(err, core.ErrUserNotFound)
	s.ErrorIs(s.store.UpdateAccount(s.ctx, core.Account{Username: "bob"}), core.ErrNotFound)

	s.Require().NoError(s.store.CreateAccount(s.ctx, core.Account{Username: "bob"}))
	all, err := s.store.ListAccounts(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 2)
	s.Equal("alice", all[0].Username)
	s.Equal("bob", all[1].Username)
}
