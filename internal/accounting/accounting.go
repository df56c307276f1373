// Package accounting keeps a running revenue figure fed by settled
// sales. It stands in for the external bookkeeping system the register
// reports to after every payment.
package accounting

import (
	"log"
	"sync"

	"kassapos/internal/domain"
	"kassapos/internal/money"
)

type Registry struct {
	mu      sync.Mutex
	revenue money.Amount
	sales   int
}

func NewRegistry() *Registry {
	return &Registry{revenue: money.Zero()}
}

// RecordSale adds a settled sale's total to the accumulated revenue.
func (r *Registry) RecordSale(settled domain.SettledSale) {
	r.mu.Lock()
	r.revenue = r.revenue.Add(settled.Total)
	r.sales++
	revenue := r.revenue
	r.mu.Unlock()

	log.Printf("[accounting] sale %s recorded, total %s, accumulated revenue %s",
		settled.ID, settled.Total, revenue)
}

func (r *Registry) Revenue() money.Amount {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revenue
}

func (r *Registry) SaleCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sales
}
