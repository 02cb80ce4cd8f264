package wallet

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/walletly/backend/internal/audit"
	"github.com/walletly/backend/internal/metrics"
	"github.com/walletly/backend/internal/models"
	"github.com/walletly/backend/internal/store"
)

var (
	// ErrConfirmationPending is returned when a second mutation is staged
	// while an earlier one has not been confirmed or cancelled. The slot is
	// never silently overwritten.
	ErrConfirmationPending = errors.New("another action is awaiting confirmation")

	ErrEmptyName      = errors.New("payment method name must not be empty")
	ErrNegativeAmount = errors.New("amount must not be negative")
)

// sequence hands out process-wide unique ids. Seeding from wall-clock millis
// keeps ids compatible with records created by older clients, while the
// atomic increment makes them distinct under rapid creation.
type sequence struct {
	last int64
}

func newSequence() *sequence {
	return &sequence{last: time.Now().UnixMilli()}
}

func (s *sequence) Next() int64 {
	return atomic.AddInt64(&s.last, 1)
}

// Coordinator gates every destructive or balance-affecting mutation behind an
// explicit confirmation step. One pending action at a time; execution happens
// exactly once on confirm and never on cancel.
type Coordinator struct {
	ledger *store.LedgerStore
	audit  *audit.Logger
	ids    *sequence

	mu      sync.Mutex
	pending *PendingAction
}

// PendingAction is a staged mutation waiting for a yes/cancel decision.
type PendingAction struct {
	ID    string
	Label string

	coord *Coordinator
	run   func(ctx context.Context) error
	done  bool
}

func NewCoordinator(ledger *store.LedgerStore, auditLogger *audit.Logger) *Coordinator {
	return &Coordinator{
		ledger: ledger,
		audit:  auditLogger,
		ids:    newSequence(),
	}
}

// stage captures an action into the single confirmation slot.
func (c *Coordinator) stage(label string, run func(ctx context.Context) error) (*PendingAction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending != nil {
		return nil, ErrConfirmationPending
	}
	p := &PendingAction{
		ID:    uuid.NewString(),
		Label: label,
		coord: c,
		run:   run,
	}
	c.pending = p
	return p, nil
}

// Pending returns the staged action with the given id, or nil.
func (c *Coordinator) Pending(id string) *PendingAction {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil && c.pending.ID == id {
		return c.pending
	}
	return nil
}

// Confirm executes the staged action exactly once and clears the slot. A
// failed execution surfaces the error and still returns the coordinator to
// idle; already-applied writes are not rolled back.
func (p *PendingAction) Confirm(ctx context.Context) error {
	p.coord.mu.Lock()
	if p.done || p.coord.pending != p {
		p.coord.mu.Unlock()
		return errors.New("action already resolved")
	}
	p.done = true
	p.coord.pending = nil
	p.coord.mu.Unlock()

	return p.run(ctx)
}

// Cancel discards the staged action. The ledger is left untouched.
func (p *PendingAction) Cancel() {
	p.coord.mu.Lock()
	defer p.coord.mu.Unlock()
	if p.coord.pending == p {
		p.coord.pending = nil
	}
	p.done = true
}

// StageAddMethod stages creation of a payment method with a zero balance.
func (c *Coordinator) StageAddMethod(name string) (*PendingAction, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	return c.stage("add payment method", func(ctx context.Context) error {
		method := models.PaymentMethod{ID: c.ids.Next(), Name: name, Balance: 0}
		if err := c.ledger.AddMethod(ctx, method); err != nil {
			c.audit.LogWriteFailure("ADD_METHOD", method.ID, err)
			return err
		}
		c.audit.LogMutation("ADD_METHOD", method.ID, name)
		metrics.MutationsTotal.WithLabelValues("add_method").Inc()
		return nil
	})
}

// StageRename stages a rename. Unknown ids execute as a silent no-op.
func (c *Coordinator) StageRename(id int64, newName string) (*PendingAction, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, ErrEmptyName
	}
	return c.stage("rename payment method", func(ctx context.Context) error {
		if err := c.ledger.RenameMethod(ctx, id, newName); err != nil {
			c.audit.LogWriteFailure("RENAME_METHOD", id, err)
			return err
		}
		c.audit.LogMutation("RENAME_METHOD", id, newName)
		metrics.MutationsTotal.WithLabelValues("rename_method").Inc()
		return nil
	})
}

// StageDelete stages a delete. Deletion never cascades to transactions.
func (c *Coordinator) StageDelete(id int64) (*PendingAction, error) {
	return c.stage("delete payment method", func(ctx context.Context) error {
		if err := c.ledger.DeleteMethod(ctx, id); err != nil {
			c.audit.LogWriteFailure("DELETE_METHOD", id, err)
			return err
		}
		c.audit.LogMutation("DELETE_METHOD", id, "")
		metrics.MutationsTotal.WithLabelValues("delete_method").Inc()
		return nil
	})
}

// StageAddFunds stages a top-up. The amount comes in as user text: empty or
// non-numeric input becomes a zero top-up that still records a transaction.
func (c *Coordinator) StageAddFunds(id int64, amountText string) (*PendingAction, error) {
	amount := ParseAmount(amountText)
	if amount < 0 {
		return nil, ErrNegativeAmount
	}
	return c.stage("add funds", func(ctx context.Context) error {
		tx, err := c.ledger.AddFunds(ctx, c.ids.Next(), id, amount, time.Now())
		if err != nil {
			c.audit.LogWriteFailure("TOP_UP", id, err)
			return err
		}
		c.audit.LogTopUp(id, amount, tx.MethodName)
		metrics.MutationsTotal.WithLabelValues("add_funds").Inc()
		metrics.FundsAddedTotal.Add(amount)
		return nil
	})
}

// ParseAmount converts user-entered amount text to a number. Unparseable
// input is treated as 0, not rejected.
func ParseAmount(text string) float64 {
	amount, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return amount
}
