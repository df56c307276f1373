package sale

import (
	"errors"
	"fmt"
	"time"

	"kassapos/internal/domain"
	"kassapos/internal/money"
)

var (
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrNoActiveItem        = errors.New("no item to update")
	ErrInsufficientPayment = errors.New("insufficient payment")
)

// State tracks the advisory one-way lifecycle Open -> Finalized -> Settled.
// Transitions are informational; call sequencing is the orchestrator's job.
type State string

const (
	StateOpen      State = "open"
	StateFinalized State = "finalized"
	StateSettled   State = "settled"
)

// Sale is a single retail transaction: an insertion-ordered set of line
// items keyed by item id, with running totals recomputed on every mutation.
// A Sale is owned by exactly one orchestrating call sequence; it does no
// locking of its own.
type Sale struct {
	id            string
	items         map[string]*LineItem
	order         []string
	lastTouchedID string
	drawer        *CashDrawer
	total         money.Amount
	totalVAT      money.Amount
	state         State
	receipt       *ReceiptContent
}

func New(id string, drawer *CashDrawer) *Sale {
	return &Sale{
		id:     id,
		items:  make(map[string]*LineItem),
		drawer: drawer,
		state:  StateOpen,
	}
}

// Entry is the per-scan view returned after each item mutation: the touched
// item, its quantity in the sale, and the running totals.
type Entry struct {
	Item     domain.Item
	Quantity int
	Removed  bool
	Total    money.Amount
	TotalVAT money.Amount
}

// AddItem records one more unit of the given catalog item: a new line with
// quantity 1 on first entry, an increment on re-entry. Either way the item
// becomes the target of subsequent quantity updates. The caller has already
// resolved the item against the catalog; AddItem assumes it is valid.
func (s *Sale) AddItem(item domain.Item) (Entry, error) {
	line, exists := s.items[item.ID]
	if exists {
		line.increment()
	} else {
		line = newLineItem(item)
		s.items[item.ID] = line
		s.order = append(s.order, item.ID)
	}
	s.lastTouchedID = item.ID

	if err := s.recompute(); err != nil {
		return Entry{}, err
	}
	return Entry{
		Item:     line.item,
		Quantity: line.quantity,
		Total:    s.total,
		TotalVAT: s.totalVAT,
	}, nil
}

// UpdateLastQuantity changes the quantity of the most recently touched item.
// Zero removes the line (quantity never sits at zero inside a sale); a
// negative quantity is rejected with no state change; with no items in the
// sale there is nothing to update.
func (s *Sale) UpdateLastQuantity(quantity int) (Entry, error) {
	if len(s.order) == 0 || s.lastTouchedID == "" {
		return Entry{}, ErrNoActiveItem
	}
	if quantity < 0 {
		return Entry{}, fmt.Errorf("%w: %d", ErrInvalidQuantity, quantity)
	}

	line := s.items[s.lastTouchedID]
	if quantity == 0 {
		delete(s.items, s.lastTouchedID)
		for i, id := range s.order {
			if id == s.lastTouchedID {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
		removed := line.item
		s.lastTouchedID = ""
		if err := s.recompute(); err != nil {
			return Entry{}, err
		}
		return Entry{
			Item:     removed,
			Removed:  true,
			Total:    s.total,
			TotalVAT: s.totalVAT,
		}, nil
	}

	line.setQuantity(quantity)
	if err := s.recompute(); err != nil {
		return Entry{}, err
	}
	return Entry{
		Item:     line.item,
		Quantity: line.quantity,
		Total:    s.total,
		TotalVAT: s.totalVAT,
	}, nil
}

// End freezes the sale and returns the amount due. The transition is
// advisory; the totals were already final after the last mutation.
func (s *Sale) End() money.Amount {
	if s.state == StateOpen {
		s.state = StateFinalized
	}
	return s.total
}

// Settle records a cash payment. The tendered amount must cover the total;
// on success the drawer is credited with the full tendered amount, the
// receipt snapshot is taken, and the change is returned. On failure the sale
// is untouched and may be settled again with a sufficient amount.
//
// Precondition: the sale has not been settled before. The orchestrator
// clears its reference to a settled sale, so a second call never happens in
// a well-behaved sequence.
func (s *Sale) Settle(tendered money.Amount) (money.Amount, error) {
	payment := newCashPayment(tendered)
	change, err := payment.settle(s)
	if err != nil {
		return money.Zero(), err
	}

	s.drawer.Credit(tendered)
	s.receipt = s.snapshotReceipt(tendered, change, time.Now().UTC())
	s.state = StateSettled
	return change, nil
}

// Receipt returns the snapshot taken at settlement, or false before then.
func (s *Sale) Receipt() (*ReceiptContent, bool) {
	if s.receipt == nil {
		return nil, false
	}
	return s.receipt, true
}

func (s *Sale) ID() string {
	return s.id
}

func (s *Sale) State() State {
	return s.state
}

func (s *Sale) Total() money.Amount {
	return s.total
}

func (s *Sale) TotalVAT() money.Amount {
	return s.totalVAT
}

func (s *Sale) ItemCount() int {
	return len(s.order)
}

// Lines returns the current line items in insertion order.
func (s *Sale) Lines() []*LineItem {
	lines := make([]*LineItem, 0, len(s.order))
	for _, id := range s.order {
		lines = append(lines, s.items[id])
	}
	return lines
}

// recompute re-sums both totals over the full line set. Full re-summation
// keeps the totals exactly consistent with the line items after every
// mutation, at O(n) per call.
func (s *Sale) recompute() error {
	total := money.Zero()
	totalVAT := money.Zero()
	for _, id := range s.order {
		line := s.items[id]
		lineTotal, err := line.LineTotal()
		if err != nil {
			return err
		}
		lineVAT, err := line.LineVAT()
		if err != nil {
			return err
		}
		total = total.Add(lineTotal)
		totalVAT = totalVAT.Add(lineVAT)
	}
	s.total = total
	s.totalVAT = totalVAT
	return nil
}
