// Package services orchestrates accounts, sessions and budget edits across
// the ledger store, the sync publisher and the export archive.
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"budget/internal/auth"
	"budget/internal/core"
	"budget/internal/export"
	"budget/internal/ledger"
	applog "budget/internal/log"
)

// Publisher announces saved documents to the sync pipeline.
type Publisher interface {
	PublishLedgerSaved(ctx context.Context, username string, months []string) error
}

// Options wires the optional collaborators of BudgetService.
type Options struct {
	Cascade   core.CascadePolicy
	Publisher Publisher       // nil disables sync events
	Archiver  export.Archiver // nil disables export archiving
	Logger    *applog.Logger
	Now       func() time.Time
}

// BudgetService implements every user-facing operation. Edits apply to the
// session's working copy; only Save writes to the store.
type BudgetService struct {
	store     ledger.Store
	sessions  *SessionStore
	tokens    *auth.Tokens
	cascade   core.CascadePolicy
	publisher Publisher
	archiver  export.Archiver
	logger    *applog.Logger
	events    *applog.StructuredLogger
	now       func() time.Time
}

func NewBudgetService(store ledger.Store, sessions *SessionStore, tokens *auth.Tokens, opts Options) *BudgetService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	logger := opts.Logger.WithComponent(applog.ComponentBudget)
	return &BudgetService{
		store:     store,
		sessions:  sessions,
		tokens:    tokens,
		cascade:   opts.Cascade,
		publisher: opts.Publisher,
		archiver:  opts.Archiver,
		logger:    logger,
		events:    applog.NewStructuredLogger(logger),
		now:       opts.Now,
	}
}

// Signup registers a user and stores a default document for them.
func (s *BudgetService) Signup(ctx context.Context, username, password, email string) error {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return err
	}
	switch _, err := s.store.GetAccount(ctx, username); {
	case err == nil:
		return core.ErrUserExists
	case !errors.Is(err, core.ErrUserNotFound):
		return fmt.Errorf("check account: %w", err)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	acc := core.Account{
		Username:     username,
		PasswordHash: hash,
		Email:        strings.TrimSpace(email),
		CreatedAt:    core.Timestamp{Time: s.now()},
	}
	if err := s.store.CreateAccount(ctx, acc); err != nil {
		return err
	}
	if err := s.store.Save(ctx, username, core.NewDocument()); err != nil {
		return fmt.Errorf("save initial document: %w", err)
	}

	s.logger.InfoContext(ctx, "Account created",
		applog.FieldUsername, username,
		applog.FieldOperation, applog.OpSignup)
	return nil
}

// Login verifies credentials and opens a session. It returns the signed
// token the client presents on later requests.
func (s *BudgetService) Login(ctx context.Context, username, password string) (*Session, string, error) {
	username = strings.TrimSpace(username)
	if err := core.ValidateUsername(username); err != nil {
		return nil, "", core.ErrUserNotFound
	}
	acc, err := s.store.GetAccount(ctx, username)
	if err != nil {
		return nil, "", err
	}

	upgrade, err := auth.Verify(acc, password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			s.logger.WarnContext(ctx, "Login rejected",
				applog.FieldUsername, username,
				applog.FieldErrorType, applog.ErrorTypeAuth)
		}
		return nil, "", err
	}
	if upgrade {
		s.upgradeLegacyPassword(ctx, acc, password)
	}

	token, claims, err := s.tokens.Issue(username)
	if err != nil {
		return nil, "", err
	}
	sess, err := s.sessions.Create(ctx, claims.SessionID(), username)
	if err != nil {
		return nil, "", err
	}

	s.logger.InfoContext(ctx, "Login succeeded",
		applog.FieldUsername, username,
		applog.FieldSessionID, sess.ID,
		applog.FieldOperation, applog.OpLogin)
	return sess, token, nil
}

func (s *BudgetService) upgradeLegacyPassword(ctx context.Context, acc core.Account, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		// legacy passwords may be shorter than today's minimum
		s.logger.WarnContext(ctx, "Legacy password kept", applog.FieldUsername, acc.Username, applog.FieldError, err)
		return
	}
	acc.PasswordHash = hash
	acc.LegacyPassword = ""
	if err := s.store.UpdateAccount(ctx, acc); err != nil {
		s.logger.ErrorContext(ctx, "Failed to upgrade legacy password", applog.FieldUsername, acc.Username, applog.FieldError, err)
		return
	}
	s.logger.InfoContext(ctx, "Upgraded legacy password hash", applog.FieldUsername, acc.Username)
}

// Resume maps a session token back to its session.
func (s *BudgetService) Resume(ctx context.Context, token string) (*Session, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, core.ErrSessionExpired
	}
	return s.sessions.Get(ctx, claims.SessionID(), claims.Username)
}

// Logout drops the session and its unsaved edits.
func (s *BudgetService) Logout(ctx context.Context, sess *Session) {
	s.sessions.Drop(sess.ID)
	s.logger.InfoContext(ctx, "Logged out",
		applog.FieldUsername, sess.Username,
		applog.FieldSessionID, sess.ID)
}

// SessionTTL is how long an issued token stays valid.
func (s *BudgetService) SessionTTL() time.Duration { return s.tokens.TTL() }

// SelectMonth switches the session to key, materializing the month.
func (s *BudgetService) SelectMonth(sess *Session, key string) error {
	key = strings.TrimSpace(key)
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if _, err := sess.doc.View(key); err != nil {
		return err
	}
	sess.month = key
	return nil
}

// SetIncome replaces the selected month's income.
func (s *BudgetService) SetIncome(sess *Session, amount core.Money) error {
	return s.edit(sess, func(doc *core.Document, month string) error {
		return doc.SetIncome(month, amount)
	})
}

// SetDebt replaces the selected month's outstanding debt.
func (s *BudgetService) SetDebt(sess *Session, amount core.Money) error {
	return s.edit(sess, func(doc *core.Document, month string) error {
		return doc.SetDebt(month, amount)
	})
}

// SetExpense replaces one category's amount in the selected month.
func (s *BudgetService) SetExpense(sess *Session, category string, amount core.Money) error {
	category = strings.TrimSpace(category)
	return s.edit(sess, func(doc *core.Document, month string) error {
		return doc.SetExpense(month, category, amount)
	})
}

// QuickAdd evaluates expr and adds it to the category's current amount,
// returning the new amount.
func (s *BudgetService) QuickAdd(sess *Session, category, expr string) (core.Money, error) {
	amount, err := core.EvalAmountExpr(expr)
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	err = s.edit(sess, func(doc *core.Document, month string) error {
		var err error
		total, err = doc.QuickAdd(month, category, amount)
		return err
	})
	return total, err
}

// AddOneTimeExpense evaluates expr and adds it to a month-only expense,
// returning the expense's new amount.
func (s *BudgetService) AddOneTimeExpense(sess *Session, name, expr string) (core.Money, error) {
	if strings.TrimSpace(name) == "" {
		return core.Money{}, core.ErrEmptyExpenseName
	}
	amount, err := core.EvalAmountExpr(expr)
	if err != nil {
		return core.Money{}, err
	}
	var total core.Money
	err = s.edit(sess, func(doc *core.Document, month string) error {
		var err error
		total, err = doc.AddOneTimeExpense(month, name, amount)
		return err
	})
	return total, err
}

// RemoveOneTimeExpense deletes a month-only expense from the selected month.
func (s *BudgetService) RemoveOneTimeExpense(sess *Session, name string) error {
	return s.edit(sess, func(doc *core.Document, month string) error {
		return doc.RemoveOneTimeExpense(month, name)
	})
}

// AddCategory registers a category in the working copy.
func (s *BudgetService) AddCategory(sess *Session, name string) error {
	return s.edit(sess, func(doc *core.Document, _ string) error {
		return doc.AddCategory(name)
	})
}

// RemoveCategory unregisters a category using the configured cascade. The
// selected month drops the key immediately under either policy.
func (s *BudgetService) RemoveCategory(sess *Session, name string) error {
	return s.edit(sess, func(doc *core.Document, month string) error {
		if err := doc.RemoveCategory(name, s.cascade); err != nil {
			return err
		}
		_, err := doc.View(month)
		return err
	})
}

func (s *BudgetService) edit(sess *Session, fn func(doc *core.Document, month string) error) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := fn(sess.doc, sess.month); err != nil {
		return err
	}
	sess.dirty = true
	return nil
}

// Save persists the working copy and announces it to the sync pipeline.
// A failed publish is logged and does not fail the save.
func (s *BudgetService) Save(ctx context.Context, sess *Session) error {
	// Edits wait for the write so dirty is never cleared over an
	// unpersisted change.
	sess.mu.Lock()
	snapshot := sess.doc.Clone()
	if err := s.store.Save(ctx, sess.Username, snapshot); err != nil {
		sess.mu.Unlock()
		s.logger.ErrorContext(ctx, "Failed to save budget",
			applog.FieldUsername, sess.Username,
			applog.FieldErrorType, applog.ErrorTypeDatabase,
			applog.FieldError, err)
		return fmt.Errorf("save budget: %w", err)
	}
	sess.dirty = false
	sess.mu.Unlock()

	months := snapshot.MonthKeys()
	s.events.LogLedgerSaved(ctx, sess.Username, len(months))
	s.publish(ctx, sess.Username, months)
	return nil
}

func (s *BudgetService) publish(ctx context.Context, username string, months []string) {
	if s.publisher == nil {
		s.logger.WarnContext(ctx, "AMQP publisher not configured, skipping sync message",
			applog.FieldUsername, username)
		return
	}
	if err := s.publisher.PublishLedgerSaved(ctx, username, months); err != nil {
		s.events.LogError(ctx, "Failed to publish sync message", err,
			applog.ComponentBudget, applog.OpSave,
			applog.NewFields().WithBudget(username, "").WithErrorType(applog.ErrorTypeNetwork))
	}
}

// Revert discards unsaved edits by reloading the stored document. The
// selected month is kept.
func (s *BudgetService) Revert(ctx context.Context, sess *Session) error {
	doc, err := s.store.Load(ctx, sess.Username)
	if err != nil {
		return fmt.Errorf("reload budget: %w", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.doc = doc
	sess.dirty = false
	_, err = doc.View(sess.month)

	s.logger.InfoContext(ctx, "Reverted unsaved edits",
		applog.FieldUsername, sess.Username,
		applog.FieldOperation, applog.OpRevert)
	return err
}

// BudgetView is the data behind the month input form.
type BudgetView struct {
	Username   string
	Month      string
	Categories []string
	Record     *core.MonthRecord
	Summary    core.MonthSummary
	Dirty      bool
	// Months lists the selectable months, most recent first: every stored
	// month plus the current calendar month.
	Months []string
}

// Budget returns the selected month with every registered category.
func (s *BudgetService) Budget(sess *Session) (BudgetView, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	rec, err := sess.doc.View(sess.month)
	if err != nil {
		return BudgetView{}, err
	}
	return BudgetView{
		Username:   sess.Username,
		Month:      sess.month,
		Categories: sess.doc.Categories.List(),
		Record:     rec.Clone(),
		Summary:    core.Summarize(sess.month, rec),
		Dirty:      sess.dirty,
		Months:     selectableMonths(sess.doc, core.MonthKey(s.now())),
	}, nil
}

func selectableMonths(doc *core.Document, current string) []string {
	keys := doc.MonthKeys()
	if _, ok := doc.Months[current]; !ok {
		keys = append(keys, current)
		slices.Sort(keys)
	}
	slices.Reverse(keys)
	return keys
}

// Analysis is the selected month's derived figures.
type Analysis struct {
	Summary   core.MonthSummary
	Breakdown []core.CategoryAmount
	Top       *core.CategoryAmount
	Insights  []core.Insight
}

// Analyze computes totals, breakdown and insights for the selected month.
func (s *BudgetService) Analyze(sess *Session) (Analysis, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	rec, err := sess.doc.View(sess.month)
	if err != nil {
		return Analysis{}, err
	}
	a := Analysis{
		Summary:   core.Summarize(sess.month, rec),
		Breakdown: core.Breakdown(rec),
		Insights:  core.Insights(sess.month, sess.doc),
	}
	if top, ok := core.TopExpense(rec); ok {
		a.Top = &top
	}
	return a, nil
}

// Trend materializes one metric series in ascending month order.
func (s *BudgetService) Trend(sess *Session, metric string) ([]core.Point, error) {
	m, err := core.ParseMetric(metric)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return core.CollectTrend(core.Trend(sess.doc, m)), nil
}

// Comparison lists every month's summary, most recent first.
func (s *BudgetService) Comparison(sess *Session) []core.MonthSummary {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return core.Comparison(sess.doc)
}

// Export renders the working copy, unsaved edits included, and archives it
// when an archiver is configured. Archive failures are only logged.
func (s *BudgetService) Export(ctx context.Context, sess *Session) (export.Snapshot, error) {
	sess.mu.Lock()
	snap, err := export.Render(sess.Username, sess.doc, s.now())
	sess.mu.Unlock()
	if err != nil {
		return export.Snapshot{}, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, sess.Username, snap); err != nil {
			s.logger.ErrorContext(ctx, "Failed to archive export",
				applog.FieldUsername, sess.Username,
				applog.FieldOperation, applog.OpExport,
				applog.FieldError, err)
		}
	}
	return snap, nil
}
