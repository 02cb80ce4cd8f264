package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/walletly/backend/internal/models"
)

const (
	methodsKey      = "paymentMethods"
	transactionsKey = "transactions"
)

// dateLayout matches the human-readable timestamps already present in stored
// transaction records.
const dateLayout = "1/2/2006, 3:04:05 PM"

var (
	// ErrDeserialization means a stored value could not be parsed. The read
	// fails outright; no defaults are substituted.
	ErrDeserialization = errors.New("stored data is not valid JSON")

	ErrMethodNotFound = errors.New("payment method not found")
)

// LedgerStore owns both persisted collections and is their only writer.
// Every mutation is a read-modify-write of the full list under one mutex,
// so concurrent mutations cannot silently drop each other's updates.
type LedgerStore struct {
	mu sync.Mutex
	kv KV
}

func NewLedgerStore(kv KV) *LedgerStore {
	return &LedgerStore{kv: kv}
}

// storedMethod uses a pointer balance so records written before the balance
// field existed are coerced to 0 on read instead of rejected.
type storedMethod struct {
	ID      int64    `json:"id"`
	Name    string   `json:"name"`
	Balance *float64 `json:"balance"`
}

// LoadMethods reads the full payment method list. A key that has never been
// written yields an empty list.
func (s *LedgerStore) LoadMethods(ctx context.Context) ([]models.PaymentMethod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadMethodsLocked(ctx)
}

func (s *LedgerStore) loadMethodsLocked(ctx context.Context) ([]models.PaymentMethod, error) {
	data, err := s.kv.Get(ctx, methodsKey)
	if err == ErrKeyNotFound {
		return []models.PaymentMethod{}, nil
	}
	if err != nil {
		return nil, err
	}

	var raw []storedMethod
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}

	methods := make([]models.PaymentMethod, 0, len(raw))
	for _, m := range raw {
		balance := 0.0
		if m.Balance != nil {
			balance = *m.Balance
		}
		methods = append(methods, models.PaymentMethod{ID: m.ID, Name: m.Name, Balance: balance})
	}
	return methods, nil
}

// SaveMethods overwrites the entire collection. This is a full-replace write,
// not a patch.
func (s *LedgerStore) SaveMethods(ctx context.Context, methods []models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveMethodsLocked(ctx, methods)
}

func (s *LedgerStore) saveMethodsLocked(ctx context.Context, methods []models.PaymentMethod) error {
	data, err := json.Marshal(methods)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, methodsKey, data)
}

func (s *LedgerStore) LoadTransactions(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTransactionsLocked(ctx)
}

func (s *LedgerStore) loadTransactionsLocked(ctx context.Context) ([]models.Transaction, error) {
	data, err := s.kv.Get(ctx, transactionsKey)
	if err == ErrKeyNotFound {
		return []models.Transaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	var txs []models.Transaction
	if err := json.Unmarshal(data, &txs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialization, err)
	}
	return txs, nil
}

// AppendTransaction reads the full transaction list, appends the record and
// writes the list back. Records are never mutated or removed afterwards.
func (s *LedgerStore) AppendTransaction(ctx context.Context, tx models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs, err := s.loadTransactionsLocked(ctx)
	if err != nil {
		return err
	}
	txs = append(txs, tx)
	data, err := json.Marshal(txs)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, transactionsKey, data)
}

// AddMethod appends a new payment method and persists the full list.
func (s *LedgerStore) AddMethod(ctx context.Context, method models.PaymentMethod) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods, err := s.loadMethodsLocked(ctx)
	if err != nil {
		return err
	}
	methods = append(methods, method)
	return s.saveMethodsLocked(ctx, methods)
}

// RenameMethod replaces the name of the matching entry. Unknown ids are a
// silent no-op; historical transactions keep the old name.
func (s *LedgerStore) RenameMethod(ctx context.Context, id int64, newName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods, err := s.loadMethodsLocked(ctx)
	if err != nil {
		return err
	}
	for i := range methods {
		if methods[i].ID == id {
			methods[i].Name = newName
		}
	}
	return s.saveMethodsLocked(ctx, methods)
}

// DeleteMethod filters the matching entry out. Unknown ids are a silent
// no-op. Transactions referencing the method are left intact.
func (s *LedgerStore) DeleteMethod(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods, err := s.loadMethodsLocked(ctx)
	if err != nil {
		return err
	}
	kept := methods[:0]
	for _, m := range methods {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	return s.saveMethodsLocked(ctx, kept)
}

// AddFunds credits the matching method and records the top-up transaction.
// The method name on the record is snapshotted from the pre-update list.
// Both keys are written in one atomic batch so the balance can never be
// updated without its transaction record, or vice versa.
func (s *LedgerStore) AddFunds(ctx context.Context, txID, methodID int64, amount float64, now time.Time) (models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	methods, err := s.loadMethodsLocked(ctx)
	if err != nil {
		return models.Transaction{}, err
	}

	var methodName string
	found := false
	for i := range methods {
		if methods[i].ID == methodID {
			methodName = methods[i].Name
			methods[i].Balance += amount
			found = true
		}
	}
	if !found {
		return models.Transaction{}, ErrMethodNotFound
	}

	txs, err := s.loadTransactionsLocked(ctx)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		ID:         txID,
		MethodName: methodName,
		Amount:     amount,
		Date:       now.Format(dateLayout),
	}
	txs = append(txs, tx)

	methodsData, err := json.Marshal(methods)
	if err != nil {
		return models.Transaction{}, err
	}
	txsData, err := json.Marshal(txs)
	if err != nil {
		return models.Transaction{}, err
	}

	if err := s.kv.SetMulti(ctx, map[string][]byte{
		methodsKey:      methodsData,
		transactionsKey: txsData,
	}); err != nil {
		return models.Transaction{}, err
	}
	return tx, nil
}
