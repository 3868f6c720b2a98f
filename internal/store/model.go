// Package store persists the account collection and the logged-in-user
// pointer through a kv.Store, keeping the wire format of the system being
// simulated: two string keys, each holding a JSON blob, with movements and
// their dates serialized as index-aligned parallel arrays.
package store

import (
	"time"

	"github.com/shopspring/decimal"

	"demobank/internal/domain"
	"demobank/internal/util"
)

func init() {
	// Persisted movement amounts are plain JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// record is the serialized form of one account. It is separate from
// domain.Account so the paired in-memory movement sequence can stay
// structural while the persisted layout keeps its legacy parallel arrays.
type record struct {
	Owner          string            `json:"owner"`
	Username       string            `json:"username"`
	PIN            string            `json:"pin"`
	Movements      []decimal.Decimal `json:"movements"`
	MovementsDates []string          `json:"movementsDates"`
	Currency       string            `json:"currency"`
	Locale         string            `json:"locale"`
	InterestRate   decimal.Decimal   `json:"interestRate"`
	Balance        decimal.Decimal   `json:"balance"`
}

func toRecord(a *domain.Account) record {
	r := record{
		Owner:          a.Owner,
		Username:       a.Username,
		PIN:            a.PIN,
		Movements:      make([]decimal.Decimal, 0, len(a.Movements)),
		MovementsDates: make([]string, 0, len(a.Movements)),
		Currency:       a.Currency,
		Locale:         a.Locale,
		InterestRate:   a.InterestRate,
		Balance:        a.ComputeBalance(),
	}
	for _, m := range a.Movements {
		r.Movements = append(r.Movements, m.Amount)
		r.MovementsDates = append(r.MovementsDates, m.Time.UTC().Format(time.RFC3339Nano))
	}
	return r
}

// toAccount validates the record's shape. A record without a movements
// sequence, or with desynchronized movement/date arrays, is malformed and
// must not surface as a half-valid account.
func toAccount(r record) (*domain.Account, error) {
	if r.Movements == nil {
		return nil, util.ErrMalformedState
	}
	if len(r.Movements) != len(r.MovementsDates) {
		return nil, util.ErrMalformedState
	}
	rate := r.InterestRate
	if rate.IsZero() {
		// Older blobs predate the interestRate field; those accounts accrue
		// the default rate.
		rate = domain.DefaultInterestRate
	}
	a := &domain.Account{
		Owner:        r.Owner,
		Username:     r.Username,
		PIN:          r.PIN,
		Movements:    make([]domain.Movement, 0, len(r.Movements)),
		Currency:     r.Currency,
		Locale:       r.Locale,
		InterestRate: rate,
	}
	for i, amount := range r.Movements {
		t, err := time.Parse(time.RFC3339Nano, r.MovementsDates[i])
		if err != nil {
			return nil, util.ErrMalformedState
		}
		a.Movements = append(a.Movements, domain.Movement{Amount: amount, Time: t})
	}
	a.Balance = a.ComputeBalance()
	return a, nil
}
