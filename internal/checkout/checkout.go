// Package checkout runs one customer purchase: line items are applied to the
// catalog's in-memory table, then settled against a payment. Inventory and
// the sales ledger are written together on settlement, or not at all.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"martcli/internal/catalog"
	"martcli/internal/domain"
	"martcli/internal/ledger"
	"martcli/internal/logger"
	"martcli/internal/store"
)

type State int

const (
	Browsing State = iota
	ItemSelected
	QuantityEntered
	Accepted
	Rejected
	Checkout
	Settled
	Aborted
)

func (s State) String() string {
	switch s {
	case Browsing:
		return "browsing"
	case ItemSelected:
		return "item_selected"
	case QuantityEntered:
		return "quantity_entered"
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Checkout:
		return "checkout"
	case Settled:
		return "settled"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var ErrSessionClosed = errors.New("checkout session closed")

type Session struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	customer string
	state    State
	selected domain.Product
	snapshot []domain.Product
	lines    []domain.CheckoutLine
	total    int64
	log      *zap.Logger
}

func NewSession(c *catalog.Catalog, l *ledger.Ledger, customer string, log *zap.Logger) *Session {
	return &Session{
		catalog:  c,
		ledger:   l,
		customer: customer,
		state:    Browsing,
		snapshot: c.Snapshot(),
		lines:    make([]domain.CheckoutLine, 0, 4),
		log:      logger.OrNop(log),
	}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Total() int64 {
	return s.total
}

func (s *Session) Lines() []domain.CheckoutLine {
	return slices.Clone(s.lines)
}

// Select resolves a product by name. An unknown name keeps the session
// browsing.
func (s *Session) Select(name string) (domain.Product, error) {
	if s.closed() {
		return domain.Product{}, ErrSessionClosed
	}
	product, err := s.catalog.Find(name)
	if err != nil {
		s.state = Browsing
		return domain.Product{}, err
	}
	s.selected = product
	s.state = ItemSelected
	return product, nil
}

// Quantity applies qty units of the selected product. The line is accepted
// when stock covers it and rejected otherwise; either way the session returns
// to browsing on the next Select.
func (s *Session) Quantity(qty int) (domain.CheckoutLine, error) {
	if s.closed() {
		return domain.CheckoutLine{}, ErrSessionClosed
	}
	if s.state != ItemSelected {
		return domain.CheckoutLine{}, fmt.Errorf("no product selected: %w", store.ErrInvalidInput)
	}
	s.state = QuantityEntered

	if qty > 0 && !catalog.FitsCost(qty, s.selected.Price, s.total) {
		s.state = ItemSelected
		return domain.CheckoutLine{}, fmt.Errorf("running total: %w: %w", catalog.ErrAmountTooLarge, store.ErrInvalidInput)
	}

	line, err := s.catalog.ApplyPurchase(s.selected.Name, qty)
	if err != nil {
		if errors.Is(err, store.ErrInvalidInput) {
			s.state = ItemSelected
		} else {
			s.state = Rejected
		}
		return domain.CheckoutLine{}, err
	}

	s.lines = append(s.lines, line)
	s.total += line.Cost
	s.state = Accepted
	return line, nil
}

// Finish stops taking line items and moves to payment.
func (s *Session) Finish() int64 {
	if !s.closed() {
		s.state = Checkout
	}
	return s.total
}

// Pay settles the session when payment covers the total: the catalog is
// flushed and one sale for the total is recorded. Short payment discards the
// session's inventory changes. If the sale cannot be recorded, the catalog
// as it was when the session opened is written back.
func (s *Session) Pay(ctx context.Context, payment int64, now time.Time) (domain.Receipt, error) {
	if s.closed() {
		return domain.Receipt{}, ErrSessionClosed
	}
	s.state = Checkout

	if payment < 0 {
		return domain.Receipt{}, fmt.Errorf("payment must not be negative: %w", store.ErrInvalidInput)
	}
	if payment < s.total {
		if err := s.abort(ctx); err != nil {
			return domain.Receipt{}, err
		}
		s.log.Info("checkout aborted",
			zap.String("customer", s.customer),
			zap.Int64("total", s.total),
			zap.Int64("paid", payment),
		)
		return domain.Receipt{}, fmt.Errorf("paid %d of %d: %w", payment, s.total, store.ErrInsufficientPayment)
	}

	receipt := domain.Receipt{
		Lines:  s.Lines(),
		Total:  s.total,
		Paid:   payment,
		Change: payment - s.total,
		Date:   domain.CalendarDate(now).Format(domain.DateLayout),
	}
	if len(s.lines) == 0 {
		s.state = Settled
		return receipt, nil
	}

	if err := s.catalog.Flush(ctx); err != nil {
		_ = s.abort(ctx)
		return domain.Receipt{}, err
	}
	if _, err := s.ledger.RecordSale(ctx, s.total, now); err != nil {
		s.state = Aborted
		if restoreErr := s.catalog.Restore(ctx, s.snapshot); restoreErr != nil {
			s.log.Error("checkout rollback failed",
				zap.String("customer", s.customer),
				zap.Error(restoreErr),
			)
			return domain.Receipt{}, errors.Join(err, restoreErr)
		}
		return domain.Receipt{}, err
	}

	s.state = Settled
	s.log.Info("checkout settled",
		zap.String("customer", s.customer),
		zap.Int("lines", len(s.lines)),
		zap.Int64("total", s.total),
	)
	return receipt, nil
}

// Cancel drops every line item without touching storage.
func (s *Session) Cancel(ctx context.Context) error {
	if s.closed() {
		return nil
	}
	return s.abort(ctx)
}

func (s *Session) abort(ctx context.Context) error {
	s.state = Aborted
	if len(s.lines) == 0 {
		return nil
	}
	if err := s.catalog.Reload(ctx); err != nil {
		return fmt.Errorf("discard checkout changes: %w", err)
	}
	return nil
}

func (s *Session) closed() bool {
	return s.state == Settled || s.state == Aborted
}
