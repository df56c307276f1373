package sale

import (
	"errors"
	"fmt"

	"kassapos/internal/money"
)

// cashPayment is the ephemeral settlement calculation for one tendered
// amount against a sale's total. It exists only for the duration of Settle.
type cashPayment struct {
	tendered money.Amount
}

func newCashPayment(tendered money.Amount) cashPayment {
	return cashPayment{tendered: tendered}
}

// settle computes change = tendered - total. An underpayment surfaces as
// ErrInsufficientPayment rather than a raw arithmetic failure.
func (p cashPayment) settle(s *Sale) (money.Amount, error) {
	change, err := p.tendered.Subtract(s.total)
	if err != nil {
		if errors.Is(err, money.ErrNegativeResult) {
			return money.Zero(), fmt.Errorf("%w: tendered %s against total %s", ErrInsufficientPayment, p.tendered, s.total)
		}
		return money.Zero(), err
	}
	return change, nil
}
