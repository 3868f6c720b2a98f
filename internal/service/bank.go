package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"demobank/internal/domain"
	"demobank/internal/store"
	"demobank/internal/util"
	"demobank/internal/view"
)

// AccountStore is the persistence contract the bank service depends on.
// *store.AccountStore implements it; tests substitute a mock.
type AccountStore interface {
	Load(ctx context.Context) (store.Collection, error)
	Save(ctx context.Context, collection store.Collection) error
	SetCurrentUser(ctx context.Context, account *domain.Account) error
	CurrentUser(ctx context.Context) (*domain.Account, error)
	ClearCurrentUser(ctx context.Context) error
}

// BankService defines the business logic behind every dashboard action.
type BankService interface {
	Login(ctx context.Context, username, pin string) (*domain.Session, view.Dashboard, error)
	Register(ctx context.Context, owner, pin string, initialBalance decimal.Decimal) (*domain.Session, view.Dashboard, error)
	Resume(ctx context.Context) (*domain.Session, view.Dashboard, error)
	Dashboard(ctx context.Context, token string) (view.Dashboard, error)
	Transfer(ctx context.Context, token, toUsername string, amount decimal.Decimal) (view.Dashboard, error)
	Loan(ctx context.Context, token string, amount decimal.Decimal) error
	ToggleSort(ctx context.Context, token string) (view.Dashboard, error)
	Logout(ctx context.Context, token string) error
}

// bankService implements BankService. A single mutex serializes every
// action, preserving the run-to-completion semantics of the system being
// simulated; the only overlapping activity is the session countdown and the
// deferred loan, both of which re-acquire the lock before touching state.
type bankService struct {
	mu        sync.Mutex
	store     AccountStore
	sessions  *SessionManager
	logger    *slog.Logger
	loanDelay time.Duration
	now       func() time.Time
}

// NewBankService creates a new instance of BankService.
func NewBankService(accountStore AccountStore, sessions *SessionManager, logger *slog.Logger, loanDelay time.Duration) BankService {
	return &bankService{
		store:     accountStore,
		sessions:  sessions,
		logger:    logger,
		loanDelay: loanDelay,
		now:       time.Now,
	}
}

// Login matches username and PIN against the collection. The comparison is
// plaintext; this system simulates a bank, it is not one.
func (s *bankService) Login(ctx context.Context, username, pin string) (*domain.Session, view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	collection, err := s.store.Load(ctx)
	if err != nil {
		return nil, view.Dashboard{}, fmt.Errorf("login: %w", err)
	}

	account, err := collection.FindByUsername(username)
	if err != nil || account.PIN != pin {
		return nil, view.Dashboard{}, util.ErrInvalidCredentials
	}

	return s.openSession(ctx, account)
}

// Register creates an account with a single opening movement and logs the
// new user straight in. The derived username may collide with an existing
// account's initials, in which case the upsert replaces that entry.
func (s *bankService) Register(ctx context.Context, owner, pin string, initialBalance decimal.Decimal) (*domain.Session, view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(owner) == "" || !validPIN(pin) || initialBalance.IsNegative() {
		return nil, view.Dashboard{}, util.ErrValidation
	}

	collection, err := s.store.Load(ctx)
	if err != nil {
		return nil, view.Dashboard{}, fmt.Errorf("register: %w", err)
	}

	account := domain.NewAccount(strings.TrimSpace(owner), pin, initialBalance, s.now())
	collection = collection.Upsert(account)
	if err := s.store.Save(ctx, collection); err != nil {
		return nil, view.Dashboard{}, fmt.Errorf("register: %w", err)
	}

	return s.openSession(ctx, account)
}

// Resume re-opens a session from the persisted current-user pointer, e.g.
// after a restart while someone was logged in. The collection's entry wins
// over the possibly stale persisted session copy.
func (s *bankService) Resume(ctx context.Context) (*domain.Session, view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.store.CurrentUser(ctx)
	if err != nil {
		return nil, view.Dashboard{}, fmt.Errorf("resume: %w", err)
	}
	if current == nil {
		return nil, view.Dashboard{}, util.ErrNoSession
	}

	collection, err := s.store.Load(ctx)
	if err != nil {
		return nil, view.Dashboard{}, fmt.Errorf("resume: %w", err)
	}
	if account, err := collection.FindByUsername(current.Username); err == nil {
		current = account
	}

	return s.openSession(ctx, current)
}

// Dashboard recomputes the full view for the session's account using its
// current sort preference. Viewing is not a qualifying action; the
// countdown keeps running.
func (s *bankService) Dashboard(ctx context.Context, token string) (view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return view.Dashboard{}, err
	}
	return s.render(session), nil
}

// Transfer moves amount from the session's account to another account. Both
// sides get a movement stamped with the same instant, both are persisted,
// and the countdown restarts. Any failed precondition leaves every account
// untouched.
func (s *bankService) Transfer(ctx context.Context, token, toUsername string, amount decimal.Decimal) (view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return view.Dashboard{}, err
	}
	if !amount.IsPositive() {
		return view.Dashboard{}, util.ErrValidation
	}

	collection, err := s.store.Load(ctx)
	if err != nil {
		return view.Dashboard{}, fmt.Errorf("transfer: %w", err)
	}
	receiver, err := collection.FindByUsername(toUsername)
	if err != nil {
		return view.Dashboard{}, util.ErrAccountNotFound
	}
	if receiver.Username == session.Account.Username {
		return view.Dashboard{}, util.ErrSameAccountTransfer
	}
	if session.Account.ComputeBalance().LessThan(amount) {
		return view.Dashboard{}, util.ErrInsufficientFunds
	}

	now := s.now()
	session.Account.Append(amount.Neg(), now)
	receiver.Append(amount, now)
	collection = collection.Upsert(session.Account.Clone())

	if err := s.persist(ctx, collection, session.Account); err != nil {
		return view.Dashboard{}, fmt.Errorf("transfer: %w", err)
	}

	s.sessions.ResetTimer(token)
	return s.render(session), nil
}

// Loan validates the request immediately: the amount must be positive and
// some existing movement must reach 10% of it. The movement itself lands
// after a simulated processing delay, which cannot be cancelled once
// scheduled.
func (s *bankService) Loan(ctx context.Context, token string, amount decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return err
	}
	if !amount.IsPositive() {
		return util.ErrValidation
	}
	threshold := amount.Mul(decimal.New(1, -1))
	if !session.Account.HasDepositAtLeast(threshold) {
		return util.ErrValidation
	}

	username := session.Account.Username
	time.AfterFunc(s.loanDelay, func() {
		s.completeLoan(token, username, amount)
	})
	return nil
}

// completeLoan applies a granted loan after its delay. The collection is
// re-read at fire time, so a loan landing after other state changes simply
// writes last. If the requesting session already ended, only the collection
// entry is updated and the timer is left alone.
func (s *bankService) completeLoan(token, username string, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx := context.Background()
	collection, err := s.store.Load(ctx)
	if err != nil {
		s.logger.Error("loan completion failed to load accounts", "error", err)
		return
	}

	now := s.now()
	session, sessionErr := s.sessions.Lookup(token)
	if sessionErr == nil {
		session.Account.Append(amount, now)
		collection = collection.Upsert(session.Account.Clone())
		if err := s.persist(ctx, collection, session.Account); err != nil {
			s.logger.Error("loan completion failed to persist", "error", err)
			return
		}
		s.sessions.ResetTimer(token)
		return
	}

	account, err := collection.FindByUsername(username)
	if err != nil {
		s.logger.Error("loan completion: account no longer exists", "username", username)
		return
	}
	account.Append(amount, now)
	if err := s.store.Save(ctx, collection); err != nil {
		s.logger.Error("loan completion failed to save accounts", "error", err)
	}
}

// ToggleSort flips the presentation order of the movement list. The stored
// sequence is untouched and the countdown is not reset.
func (s *bankService) ToggleSort(ctx context.Context, token string) (view.Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return view.Dashboard{}, err
	}
	session.SortByAmount = !session.SortByAmount
	return s.render(session), nil
}

// Logout persists the current account one last time, cancels the countdown
// and clears the logged-in pointer.
func (s *bankService) Logout(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.sessions.Lookup(token)
	if err != nil {
		return err
	}

	collection, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	collection = collection.Upsert(session.Account.Clone())
	if err := s.store.Save(ctx, collection); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if err := s.store.ClearCurrentUser(ctx); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	s.sessions.End(token)
	return nil
}

// openSession creates the session, persists the current-user pointer and
// renders the first dashboard. Caller must hold s.mu.
func (s *bankService) openSession(ctx context.Context, account *domain.Account) (*domain.Session, view.Dashboard, error) {
	session := s.sessions.Create(account.Clone())
	if err := s.store.SetCurrentUser(ctx, session.Account); err != nil {
		s.sessions.End(session.Token)
		return nil, view.Dashboard{}, fmt.Errorf("failed to persist current user: %w", err)
	}
	return session, s.render(session), nil
}

// persist writes the collection and the current-user pointer in one step so
// the two copies of the active account cannot diverge.
func (s *bankService) persist(ctx context.Context, collection store.Collection, current *domain.Account) error {
	if err := s.store.Save(ctx, collection); err != nil {
		return err
	}
	return s.store.SetCurrentUser(ctx, current)
}

func (s *bankService) render(session *domain.Session) view.Dashboard {
	return view.BuildDashboard(session.Account, session.SortByAmount, s.now(), s.sessions.Remaining(session.Token))
}

// validPIN requires exactly four ASCII digits.
func validPIN(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
