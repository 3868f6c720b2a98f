package store

import (
	"time"

	"github.com/shopspring/decimal"

	"demobank/internal/domain"
)

// seedAccounts returns the built-in account set used when nothing has been
// persisted yet, so a fresh install has data to log into.
func seedAccounts() Collection {
	return Collection{
		seedAccount("Sarah Mitchell", "1111", "EUR", "pt-PT", 1.2,
			[]float64{200, 455.23, -306.5, 25000, -642.21, -133.9, 79.97, 1300},
			[]string{
				"2025-11-18T21:31:17Z",
				"2025-12-23T07:42:02Z",
				"2026-01-28T09:15:04Z",
				"2026-04-01T10:17:24Z",
				"2026-05-08T14:11:59Z",
				"2026-07-26T17:01:17Z",
				"2026-08-26T23:36:17Z",
				"2026-08-28T10:51:36Z",
			}),
		seedAccount("James Davis", "2222", "USD", "en-US", 1.5,
			[]float64{5000, 3400, -150, -790, -3210, -1000, 8500, -30},
			[]string{
				"2025-11-01T13:15:33Z",
				"2025-11-30T09:48:16Z",
				"2025-12-25T06:04:23Z",
				"2026-01-25T14:18:46Z",
				"2026-02-05T16:33:06Z",
				"2026-04-10T14:43:26Z",
				"2026-06-25T18:49:59Z",
				"2026-07-26T12:01:20Z",
			}),
	}
}

func seedAccount(owner, pin, currency, locale string, rate float64, amounts []float64, dates []string) *domain.Account {
	a := &domain.Account{
		Owner:        owner,
		Username:     domain.UsernameFor(owner),
		PIN:          pin,
		Currency:     currency,
		Locale:       locale,
		InterestRate: decimal.NewFromFloat(rate),
	}
	for i, amount := range amounts {
		t, _ := time.Parse(time.RFC3339, dates[i])
		a.Movements = append(a.Movements, domain.Movement{
			Amount: decimal.NewFromFloat(amount),
			Time:   t,
		})
	}
	a.Balance = a.ComputeBalance()
	return a
}
