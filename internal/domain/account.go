package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal" // For precise monetary calculations
)

// DefaultInterestRate is the percentage applied to accounts that never had
// a rate assigned.
var DefaultInterestRate = decimal.NewFromFloat(1.2)

// Movement is a single signed amount recorded against an account: a deposit
// if positive, a withdrawal if negative. Keeping the timestamp on the
// movement itself makes the amount/date pairing structural.
type Movement struct {
	Amount decimal.Decimal `json:"amount"`
	Time   time.Time       `json:"time"`
}

// IsDeposit reports whether the movement is a deposit.
func (m Movement) IsDeposit() bool {
	return m.Amount.IsPositive()
}

// Account represents one user's banking record. Balance is derived from the
// movement list on every render and is never the source of truth.
type Account struct {
	Owner        string          `json:"owner"`
	Username     string          `json:"username"`
	PIN          string          `json:"pin"` // plaintext, demo only
	Movements    []Movement      `json:"movements"`
	Currency     string          `json:"currency"`
	Locale       string          `json:"locale"`
	InterestRate decimal.Decimal `json:"interestRate"`
	Balance      decimal.Decimal `json:"balance"`
}

// NewAccount creates an account for owner with a single opening movement.
// The username is derived from the owner's initials.
func NewAccount(owner, pin string, initialBalance decimal.Decimal, now time.Time) *Account {
	return &Account{
		Owner:        owner,
		Username:     UsernameFor(owner),
		PIN:          pin,
		Movements:    []Movement{{Amount: initialBalance, Time: now}},
		Currency:     "USD",
		Locale:       "en-US",
		InterestRate: DefaultInterestRate,
	}
}

// UsernameFor derives the login identifier from a display name: the first
// letter of each word, lowercased, no separators. Two owners with the same
// initials collide; that gap is inherited from the system being simulated
// and deliberately left open.
func UsernameFor(owner string) string {
	var b strings.Builder
	for _, word := range strings.Fields(owner) {
		r := []rune(word)
		b.WriteRune(r[0])
	}
	return strings.ToLower(b.String())
}

// FirstName returns the first word of the owner's display name.
func (a *Account) FirstName() string {
	fields := strings.Fields(a.Owner)
	if len(fields) == 0 {
		return "User"
	}
	return fields[0]
}

// ComputeBalance sums all movements.
func (a *Account) ComputeBalance() decimal.Decimal {
	sum := decimal.Zero
	for _, m := range a.Movements {
		sum = sum.Add(m.Amount)
	}
	return sum
}

// Append records a signed amount at the given time.
func (a *Account) Append(amount decimal.Decimal, at time.Time) {
	a.Movements = append(a.Movements, Movement{Amount: amount, Time: at})
}

// HasDepositAtLeast reports whether any single deposit reaches threshold.
// Used by the loan precondition (some deposit >= 10% of the requested amount).
func (a *Account) HasDepositAtLeast(threshold decimal.Decimal) bool {
	for _, m := range a.Movements {
		if m.Amount.GreaterThanOrEqual(threshold) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so a session can hold its own account object
// without aliasing the collection's slice.
func (a *Account) Clone() *Account {
	cp := *a
	cp.Movements = make([]Movement, len(a.Movements))
	copy(cp.Movements, a.Movements)
	return &cp
}
