package wallet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/walletly/backend/internal/audit"
	"github.com/walletly/backend/internal/store"
)

func newTestCoordinator() (*Coordinator, *store.LedgerStore) {
	ledger := store.NewLedgerStore(store.NewMemoryKV())
	return NewCoordinator(ledger, audit.NewLogger()), ledger
}

func TestCoordinator_ConfirmationGate(t *testing.T) {
	ctx := context.Background()

	t.Run("staging does not touch the ledger", func(t *testing.T) {
		coord, ledger := newTestCoordinator()

		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		assert.NotEmpty(t, pending.ID)

		methods, err := ledger.LoadMethods(ctx)
		assert.NoError(t, err)
		assert.Empty(t, methods)
	})

	t.Run("confirm applies the staged action", func(t *testing.T) {
		coord, ledger := newTestCoordinator()

		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))

		methods, err := ledger.LoadMethods(ctx)
		assert.NoError(t, err)
		assert.Len(t, methods, 1)
		assert.Equal(t, "Visa", methods[0].Name)
		assert.Equal(t, 0.0, methods[0].Balance)
	})

	t.Run("cancel leaves the ledger unchanged", func(t *testing.T) {
		coord, ledger := newTestCoordinator()

		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		pending.Cancel()

		methods, err := ledger.LoadMethods(ctx)
		assert.NoError(t, err)
		assert.Empty(t, methods)
	})

	t.Run("second staging is rejected while one is pending", func(t *testing.T) {
		coord, _ := newTestCoordinator()

		_, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)

		_, err = coord.StageAddMethod("Mastercard")
		assert.ErrorIs(t, err, ErrConfirmationPending)

		_, err = coord.StageDelete(1)
		assert.ErrorIs(t, err, ErrConfirmationPending)
	})

	t.Run("slot frees up after cancel", func(t *testing.T) {
		coord, ledger := newTestCoordinator()

		first, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		first.Cancel()

		second, err := coord.StageAddMethod("Mastercard")
		assert.NoError(t, err)
		assert.NoError(t, second.Confirm(ctx))

		methods, _ := ledger.LoadMethods(ctx)
		assert.Len(t, methods, 1)
		assert.Equal(t, "Mastercard", methods[0].Name)
	})

	t.Run("an action resolves at most once", func(t *testing.T) {
		coord, ledger := newTestCoordinator()

		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))
		assert.Error(t, pending.Confirm(ctx))

		methods, _ := ledger.LoadMethods(ctx)
		assert.Len(t, methods, 1)
	})

	t.Run("pending lookup by id", func(t *testing.T) {
		coord, _ := newTestCoordinator()

		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)

		assert.Equal(t, pending, coord.Pending(pending.ID))
		assert.Nil(t, coord.Pending("unknown"))

		pending.Cancel()
		assert.Nil(t, coord.Pending(pending.ID))
	})
}

func TestCoordinator_StageValidation(t *testing.T) {
	coord, _ := newTestCoordinator()

	t.Run("empty names are rejected at staging", func(t *testing.T) {
		_, err := coord.StageAddMethod("   ")
		assert.ErrorIs(t, err, ErrEmptyName)

		_, err = coord.StageRename(1, "")
		assert.ErrorIs(t, err, ErrEmptyName)
	})

	t.Run("negative amounts are rejected at staging", func(t *testing.T) {
		_, err := coord.StageAddFunds(1, "-5")
		assert.ErrorIs(t, err, ErrNegativeAmount)
	})
}

func TestCoordinator_UniqueIDs(t *testing.T) {
	ctx := context.Background()
	coord, ledger := newTestCoordinator()

	// Rapid creation must never hand out a duplicate id.
	for i := 0; i < 50; i++ {
		pending, err := coord.StageAddMethod("Card")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))
	}

	methods, err := ledger.LoadMethods(ctx)
	assert.NoError(t, err)
	assert.Len(t, methods, 50)

	seen := make(map[int64]bool, len(methods))
	for _, m := range methods {
		assert.False(t, seen[m.ID], "duplicate id %d", m.ID)
		seen[m.ID] = true
	}
}

func TestCoordinator_AddFunds(t *testing.T) {
	ctx := context.Background()

	seed := func(t *testing.T) (*Coordinator, *store.LedgerStore, int64) {
		coord, ledger := newTestCoordinator()
		pending, err := coord.StageAddMethod("Visa")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))
		methods, _ := ledger.LoadMethods(ctx)
		return coord, ledger, methods[0].ID
	}

	t.Run("numeric text credits the balance", func(t *testing.T) {
		coord, ledger, id := seed(t)

		pending, err := coord.StageAddFunds(id, "50.75")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))

		methods, _ := ledger.LoadMethods(ctx)
		assert.Equal(t, 50.75, methods[0].Balance)

		txs, _ := ledger.LoadTransactions(ctx)
		assert.Len(t, txs, 1)
		assert.Equal(t, "Visa", txs[0].MethodName)
		assert.Equal(t, 50.75, txs[0].Amount)
	})

	t.Run("unparseable text becomes a zero top-up", func(t *testing.T) {
		coord, ledger, id := seed(t)

		pending, err := coord.StageAddFunds(id, "abc")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))

		methods, _ := ledger.LoadMethods(ctx)
		assert.Equal(t, 0.0, methods[0].Balance)

		// The zero-amount transaction is still recorded.
		txs, _ := ledger.LoadTransactions(ctx)
		assert.Len(t, txs, 1)
		assert.Equal(t, 0.0, txs[0].Amount)
	})

	t.Run("empty text becomes a zero top-up", func(t *testing.T) {
		coord, ledger, id := seed(t)

		pending, err := coord.StageAddFunds(id, "")
		assert.NoError(t, err)
		assert.NoError(t, pending.Confirm(ctx))

		txs, _ := ledger.LoadTransactions(ctx)
		assert.Len(t, txs, 1)
		assert.Equal(t, 0.0, txs[0].Amount)
	})

	t.Run("unknown method surfaces on confirm", func(t *testing.T) {
		coord, _, _ := seed(t)

		pending, err := coord.StageAddFunds(999, "10")
		assert.NoError(t, err)
		assert.ErrorIs(t, pending.Confirm(ctx), store.ErrMethodNotFound)
	})
}

func TestCoordinator_MethodLifecycle(t *testing.T) {
	ctx := context.Background()
	coord, ledger := newTestCoordinator()

	confirm := func(p *PendingAction, err error) {
		t.Helper()
		assert.NoError(t, err)
		assert.NoError(t, p.Confirm(ctx))
	}

	// Create "Visa" and top it up.
	confirm(coord.StageAddMethod("Visa"))
	methods, _ := ledger.LoadMethods(ctx)
	id := methods[0].ID

	confirm(coord.StageAddFunds(id, "50.75"))

	methods, _ = ledger.LoadMethods(ctx)
	assert.Equal(t, 50.75, methods[0].Balance)

	// Rename; the earlier transaction keeps the original name.
	confirm(coord.StageRename(id, "Visa Credit"))

	methods, _ = ledger.LoadMethods(ctx)
	assert.Equal(t, "Visa Credit", methods[0].Name)

	txs, _ := ledger.LoadTransactions(ctx)
	assert.Len(t, txs, 1)
	assert.Equal(t, "Visa", txs[0].MethodName)

	// Delete; the history survives.
	confirm(coord.StageDelete(id))

	methods, _ = ledger.LoadMethods(ctx)
	assert.Empty(t, methods)

	txs, _ = ledger.LoadTransactions(ctx)
	assert.Len(t, txs, 1)
	assert.Equal(t, 50.75, txs[0].Amount)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		input string
		want  float64
	}{
		{"50.75", 50.75},
		{" 10 ", 10},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"12abc", 0},
		{"-3.5", -3.5},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseAmount(tc.input), "input %q", tc.input)
	}
}
