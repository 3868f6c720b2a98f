package view

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"demobank/internal/domain"
)

// Movement row types.
const (
	TypeDeposit    = "deposit"
	TypeWithdrawal = "withdrawal"
)

// MovementRow is one display row of the movement list. Ordinal is the
// 1-based storage position of the movement, which survives re-sorting.
type MovementRow struct {
	Ordinal int    `json:"ordinal"`
	Type    string `json:"type"`
	Date    string `json:"date"`
	Amount  string `json:"amount"`
}

// Dashboard is the complete recomputed view of one account.
type Dashboard struct {
	Welcome         string        `json:"welcome"`
	HeaderDate      string        `json:"header_date"`
	Balance         string        `json:"balance"`
	SummaryIn       string        `json:"summary_in"`
	SummaryOut      string        `json:"summary_out"`
	SummaryInterest string        `json:"summary_interest"`
	Clock           string        `json:"clock"`
	Movements       []MovementRow `json:"movements"`
}

// BuildDashboard recomputes the movement list, balance and summary for the
// account. The movement sequence itself is never reordered or mutated; only
// the derived Balance field is written back. remainingSeconds feeds the
// session countdown label.
func BuildDashboard(a *domain.Account, sortByAmount bool, now time.Time, remainingSeconds int) Dashboard {
	a.Balance = a.ComputeBalance()

	in, out, interest := summarize(a)

	return Dashboard{
		Welcome:         fmt.Sprintf("Welcome back, %s!", a.FirstName()),
		HeaderDate:      FormatDateTime(now, a.Locale),
		Balance:         FormatCurrency(a.Balance, a.Currency),
		SummaryIn:       FormatCurrency(in, a.Currency),
		SummaryOut:      FormatCurrency(out.Abs(), a.Currency),
		SummaryInterest: FormatCurrency(interest, a.Currency),
		Clock:           FormatClock(remainingSeconds),
		Movements:       movementRows(a, sortByAmount, now),
	}
}

// movementRows renders the list most-recent-appended first, or ascending by
// amount when sortByAmount is set. Sorting permutes an index slice rather
// than the movements, so every amount keeps its own date and ordinal.
func movementRows(a *domain.Account, sortByAmount bool, now time.Time) []MovementRow {
	indexes := make([]int, len(a.Movements))
	for i := range indexes {
		indexes[i] = i
	}

	if sortByAmount {
		sort.SliceStable(indexes, func(x, y int) bool {
			return a.Movements[indexes[x]].Amount.LessThan(a.Movements[indexes[y]].Amount)
		})
	} else {
		// Reverse of storage order: newest appended on top.
		for x, y := 0, len(indexes)-1; x < y; x, y = x+1, y-1 {
			indexes[x], indexes[y] = indexes[y], indexes[x]
		}
	}

	rows := make([]MovementRow, 0, len(indexes))
	for _, i := range indexes {
		m := a.Movements[i]
		rowType := TypeWithdrawal
		if m.IsDeposit() {
			rowType = TypeDeposit
		}
		rows = append(rows, MovementRow{
			Ordinal: i + 1,
			Type:    rowType,
			Date:    FormatRelativeDate(m.Time, a.Locale, now),
			Amount:  FormatCurrency(m.Amount, a.Currency),
		})
	}
	return rows
}

// summarize computes total deposits, total withdrawals (negative) and the
// accrued interest. Interest is per-deposit: movement * rate / 100, dropping
// any single contribution under 1 currency unit. The floor applies to each
// contribution, not to the total.
func summarize(a *domain.Account) (in, out, interest decimal.Decimal) {
	one := decimal.New(1, 0)
	hundred := decimal.New(100, 0)
	in, out, interest = decimal.Zero, decimal.Zero, decimal.Zero

	for _, m := range a.Movements {
		if m.IsDeposit() {
			in = in.Add(m.Amount)
			contribution := m.Amount.Mul(a.InterestRate).Div(hundred)
			if contribution.GreaterThanOrEqual(one) {
				interest = interest.Add(contribution)
			}
		} else {
			out = out.Add(m.Amount)
		}
	}
	return in, out, interest
}
