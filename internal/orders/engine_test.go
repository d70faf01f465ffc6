package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-api/pkg/apperror"
)

// fakeStore keeps the whole data set in memory. ExecTx runs fn against
// a deep copy under a single lock and swaps the copy in only when fn
// succeeds, which models both the all-or-nothing commit and the
// serialization the row locks provide.
type fakeStore struct {
	mu           sync.Mutex
	state        storeState
	restoreOrder []string // book ids in the order RestoreStock saw them
}

type storeState struct {
	books  map[string]*fakeBook
	carts  map[string]*fakeCart // keyed by userID
	orders map[string]*Order
}

type fakeBook struct {
	price   int
	stock   int
	deleted bool
}

type fakeCart struct {
	id    string
	lines map[string]int // bookID -> quantity
}

func newFakeStore() *fakeStore {
	return &fakeStore{state: storeState{
		books:  map[string]*fakeBook{},
		carts:  map[string]*fakeCart{},
		orders: map[string]*Order{},
	}}
}

func (s *fakeStore) addBook(id string, price, stock int) {
	s.state.books[id] = &fakeBook{price: price, stock: stock}
}

func (s *fakeStore) fillCart(userID string, lines map[string]int) {
	s.state.carts[userID] = &fakeCart{id: "cart-" + userID, lines: lines}
}

func (s *storeState) clone() storeState {
	out := storeState{
		books:  map[string]*fakeBook{},
		carts:  map[string]*fakeCart{},
		orders: map[string]*Order{},
	}
	for id, b := range s.books {
		cp := *b
		out.books[id] = &cp
	}
	for uid, c := range s.carts {
		lines := map[string]int{}
		for bid, q := range c.lines {
			lines[bid] = q
		}
		out.carts[uid] = &fakeCart{id: c.id, lines: lines}
	}
	for id, o := range s.orders {
		cp := *o
		cp.Items = append([]OrderItem(nil), o.Items...)
		out.orders[id] = &cp
	}
	return out
}

func (s *fakeStore) ExecTx(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.state.clone()
	if err := fn(&fakeTx{state: &staged, restored: &s.restoreOrder}); err != nil {
		return err
	}
	s.state = staged
	return nil
}

func (s *fakeStore) GetOrder(_ context.Context, orderID string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.state.orders[orderID]
	if !ok {
		return Order{}, apperror.NotFound("order not found")
	}
	return *o, nil
}

func (s *fakeStore) ListOrders(_ context.Context, f ListFilter) ([]Order, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Order
	for _, o := range s.state.orders {
		if f.UserID != "" && o.UserID != f.UserID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, len(out), nil
}

type fakeTx struct {
	state    *storeState
	restored *[]string
}

func (t *fakeTx) CartLines(userID string) (string, []CartLine, error) {
	c, ok := t.state.carts[userID]
	if !ok {
		return "", nil, nil
	}
	var lines []CartLine
	for bookID, qty := range c.lines {
		line := CartLine{BookID: bookID, Quantity: qty}
		if b, ok := t.state.books[bookID]; ok && !b.deleted {
			line.Available = true
			line.UnitPrice = b.price
			line.Stock = b.stock
		}
		lines = append(lines, line)
	}
	return c.id, lines, nil
}

func (t *fakeTx) InsertOrder(o Order) error {
	cp := o
	cp.Items = append([]OrderItem(nil), o.Items...)
	t.state.orders[o.ID] = &cp
	return nil
}

func (t *fakeTx) DecrementStock(bookID string, quantity int) error {
	b := t.state.books[bookID]
	if b == nil || b.stock < quantity {
		return apperror.StateConflict("insufficient stock").WithDetail("bookId", bookID)
	}
	b.stock -= quantity
	return nil
}

func (t *fakeTx) RestoreStock(bookID string, quantity int) error {
	t.state.books[bookID].stock += quantity
	*t.restored = append(*t.restored, bookID)
	return nil
}

func (t *fakeTx) ClearCart(cartID string) error {
	for _, c := range t.state.carts {
		if c.id == cartID {
			c.lines = map[string]int{}
		}
	}
	return nil
}

func (t *fakeTx) GetOrderForUpdate(orderID string) (Order, error) {
	o, ok := t.state.orders[orderID]
	if !ok {
		return Order{}, apperror.NotFound("order not found")
	}
	return *o, nil
}

func (t *fakeTx) SetStatus(orderID, status string) error {
	t.state.orders[orderID].Status = status
	return nil
}

func setup(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc, err := NewService(store, nil)
	require.NoError(t, err)
	return svc, store
}

func TestCreateOrderFromCart(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)
	store.addBook("bookB", 50, 5)
	store.fillCart("u1", map[string]int{"bookA": 2, "bookB": 1})

	order, err := svc.CreateOrderFromCart(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, int64(250), order.TotalAmount)
	require.Len(t, order.Items, 2)

	prices := map[string]int{}
	for _, item := range order.Items {
		prices[item.BookID] = item.UnitPrice
	}
	assert.Equal(t, 100, prices["bookA"])
	assert.Equal(t, 50, prices["bookB"])

	// Stock decremented, cart emptied.
	assert.Equal(t, 8, store.state.books["bookA"].stock)
	assert.Equal(t, 4, store.state.books["bookB"].stock)
	assert.Empty(t, store.state.carts["u1"].lines)
}

func TestCreateOrderSnapshotsPrices(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)
	store.fillCart("u1", map[string]int{"bookA": 2})

	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)

	// Raising the catalog price later must not touch the order.
	store.state.books["bookA"].price = 900

	got, err := store.GetOrder(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.TotalAmount)
	assert.Equal(t, 100, got.Items[0].UnitPrice)
}

func TestCreateOrderEmptyCart(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)

	t.Run("no cart at all", func(t *testing.T) {
		_, err := svc.CreateOrderFromCart(context.Background(), "u1")
		assert.ErrorIs(t, err, apperror.StateConflict(""))
	})

	t.Run("cart exists but is empty", func(t *testing.T) {
		store.fillCart("u1", map[string]int{})
		_, err := svc.CreateOrderFromCart(context.Background(), "u1")
		assert.ErrorIs(t, err, apperror.StateConflict(""))
	})

	assert.Equal(t, 10, store.state.books["bookA"].stock)
	assert.Empty(t, store.state.orders)
}

func TestCreateOrderInsufficientStockIsAllOrNothing(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)
	store.addBook("bookB", 50, 1)
	store.fillCart("u1", map[string]int{"bookA": 2, "bookB": 3})

	_, err := svc.CreateOrderFromCart(context.Background(), "u1")

	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.StateConflict(""))
	var e *apperror.Error
	require.True(t, errors.As(err, &e))
	assert.Equal(t, "bookB", e.Details["bookId"])

	// The valid line must not have been decremented and the cart must
	// still hold both lines.
	assert.Equal(t, 10, store.state.books["bookA"].stock)
	assert.Equal(t, 1, store.state.books["bookB"].stock)
	assert.Len(t, store.state.carts["u1"].lines, 2)
	assert.Empty(t, store.state.orders)
}

func TestCreateOrderDeletedBook(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)
	store.fillCart("u1", map[string]int{"bookA": 1})
	store.state.books["bookA"].deleted = true

	_, err := svc.CreateOrderFromCart(context.Background(), "u1")

	assert.ErrorIs(t, err, apperror.NotFound(""))
	assert.Len(t, store.state.carts["u1"].lines, 1)
}

func TestConcurrentOrdersOverlappingStock(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 3)
	store.fillCart("u1", map[string]int{"bookA": 2})
	store.fillCart("u2", map[string]int{"bookA": 2})

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, uid := range []string{"u1", "u2"} {
		wg.Add(1)
		go func(i int, uid string) {
			defer wg.Done()
			_, errs[i] = svc.CreateOrderFromCart(context.Background(), uid)
		}(i, uid)
	}
	wg.Wait()

	// Together the carts demand 4 of 3: exactly one order succeeds.
	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperror.StateConflict(""))
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, store.state.books["bookA"].stock)
	assert.GreaterOrEqual(t, store.state.books["bookA"].stock, 0)
}

func TestCancelOrder(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 10)
	store.fillCart("u1", map[string]int{"bookA": 4})
	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 6, store.state.books["bookA"].stock)

	t.Run("not found", func(t *testing.T) {
		_, err := svc.CancelOrder(context.Background(), "u1", "nope")
		assert.ErrorIs(t, err, apperror.NotFound(""))
	})

	t.Run("wrong owner", func(t *testing.T) {
		_, err := svc.CancelOrder(context.Background(), "intruder", order.ID)
		assert.ErrorIs(t, err, apperror.Forbidden(""))
	})

	t.Run("success restores snapshotted quantities", func(t *testing.T) {
		// Unrelated stock movement in the meantime.
		store.state.books["bookA"].stock = 2

		cancelled, err := svc.CancelOrder(context.Background(), "u1", order.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, cancelled.Status)
		assert.Equal(t, 6, store.state.books["bookA"].stock)
	})

	t.Run("second cancel conflicts and does not double-restore", func(t *testing.T) {
		_, err := svc.CancelOrder(context.Background(), "u1", order.ID)
		assert.ErrorIs(t, err, apperror.StateConflict(""))
		assert.Equal(t, 6, store.state.books["bookA"].stock)
	})
}

func TestCancelPaidOrderIsAllowed(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 5)
	store.fillCart("u1", map[string]int{"bookA": 1})
	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)

	_, err = svc.AdminSetStatus(context.Background(), order.ID, StatusPaid)
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, 5, store.state.books["bookA"].stock)
}

func TestAdminSetStatus(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 5)
	store.fillCart("u1", map[string]int{"bookA": 2})
	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)

	t.Run("unknown status", func(t *testing.T) {
		_, err := svc.AdminSetStatus(context.Background(), order.ID, "SHIPPED")
		assert.ErrorIs(t, err, apperror.Validation(""))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.AdminSetStatus(context.Background(), "nope", StatusPaid)
		assert.ErrorIs(t, err, apperror.NotFound(""))
	})

	t.Run("pending to paid has no stock side effects", func(t *testing.T) {
		updated, err := svc.AdminSetStatus(context.Background(), order.ID, StatusPaid)
		require.NoError(t, err)
		assert.Equal(t, StatusPaid, updated.Status)
		assert.Equal(t, 3, store.state.books["bookA"].stock)
	})

	t.Run("cancelled is terminal for the admin path", func(t *testing.T) {
		_, err := svc.CancelOrder(context.Background(), "u1", order.ID)
		require.NoError(t, err)

		_, err = svc.AdminSetStatus(context.Background(), order.ID, StatusPending)
		assert.ErrorIs(t, err, apperror.StateConflict(""))

		// Re-asserting CANCELLED stays a no-op success.
		updated, err := svc.AdminSetStatus(context.Background(), order.ID, StatusCancelled)
		require.NoError(t, err)
		assert.Equal(t, StatusCancelled, updated.Status)
	})
}

func TestCancelRestoresInBookIDOrder(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookC", 10, 5)
	store.addBook("bookA", 10, 5)
	store.addBook("bookB", 10, 5)
	store.fillCart("u1", map[string]int{"bookC": 1, "bookA": 1, "bookB": 1})

	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)

	_, err = svc.CancelOrder(context.Background(), "u1", order.ID)
	require.NoError(t, err)

	// Stock restitution walks books in id order, the same order the
	// create path locks them in.
	assert.Equal(t, []string{"bookA", "bookB", "bookC"}, store.restoreOrder)
}

func TestGetOrderDetailOwnership(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 100, 5)
	store.fillCart("u1", map[string]int{"bookA": 1})
	order, err := svc.CreateOrderFromCart(context.Background(), "u1")
	require.NoError(t, err)

	got, err := svc.GetOrderDetail(context.Background(), "u1", order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = svc.GetOrderDetail(context.Background(), "u2", order.ID)
	assert.ErrorIs(t, err, apperror.Forbidden(""))

	_, err = svc.GetOrderDetail(context.Background(), "u1", "nope")
	assert.ErrorIs(t, err, apperror.NotFound(""))
}

func TestStockNeverNegativeAcrossSequence(t *testing.T) {
	svc, store := setup(t)
	store.addBook("bookA", 10, 5)

	for i := 0; i < 4; i++ {
		store.fillCart("u1", map[string]int{"bookA": 2})
		order, err := svc.CreateOrderFromCart(context.Background(), "u1")
		if err != nil {
			assert.ErrorIs(t, err, apperror.StateConflict(""))
		} else if i%2 == 1 {
			_, err := svc.CancelOrder(context.Background(), "u1", order.ID)
			require.NoError(t, err)
		}
		assert.GreaterOrEqual(t, store.state.books["bookA"].stock, 0)
	}
}
