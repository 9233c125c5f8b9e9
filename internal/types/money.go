// README: Common money value object used across modules.
package types

import "fmt"

// CurrencyMAD is the Moroccan dirham, the only currency fares are quoted in.
const CurrencyMAD = "MAD"

type Money struct {
    Amount   int64  `json:"amount"`
    Currency string `json:"currency"`
}

func MAD(amount int64) Money {
    return Money{Amount: amount, Currency: CurrencyMAD}
}

func (m Money) String() string {
    return fmt.Sprintf("%d %s", m.Amount, m.Currency)
}
