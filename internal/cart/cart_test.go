package cart

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookstore-api/pkg/apperror"
)

// fakeStore keeps every cart in memory. ExecTx runs fn against a deep
// copy under a single lock and swaps the copy in only when fn succeeds,
// the same commit model the orders fake uses.
type fakeStore struct {
	mu    sync.Mutex
	carts map[string]*fakeCart // keyed by userID
}

type fakeCart struct {
	id    string
	items []CartItem
}

func newFakeStore() *fakeStore {
	return &fakeStore{carts: map[string]*fakeCart{}}
}

func (s *fakeStore) clone() map[string]*fakeCart {
	out := map[string]*fakeCart{}
	for uid, c := range s.carts {
		out[uid] = &fakeCart{id: c.id, items: append([]CartItem(nil), c.items...)}
	}
	return out
}

func (s *fakeStore) ExecTx(_ context.Context, fn func(Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.clone()
	if err := fn(&fakeTx{carts: staged}); err != nil {
		return err
	}
	s.carts = staged
	return nil
}

func (s *fakeStore) SetItemQuantity(_ context.Context, userID, itemID string, quantity int) (CartItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return CartItem{}, apperror.NotFound("cart item not found")
	}
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items[i].Quantity = quantity
			return c.items[i], nil
		}
	}
	return CartItem{}, apperror.NotFound("cart item not found")
}

func (s *fakeStore) RemoveItem(_ context.Context, userID, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.carts[userID]
	if !ok {
		return nil
	}
	for i := range c.items {
		if c.items[i].ID == itemID {
			c.items = append(c.items[:i], c.items[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) ClearCart(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.carts[userID]; ok {
		c.items = nil
	}
	return nil
}

type fakeTx struct {
	carts map[string]*fakeCart
}

func (t *fakeTx) GetOrCreateCartID(userID string) (string, error) {
	if c, ok := t.carts[userID]; ok {
		return c.id, nil
	}
	c := &fakeCart{id: "cart-" + userID}
	t.carts[userID] = c
	return c.id, nil
}

func (t *fakeTx) byCartID(cartID string) *fakeCart {
	for _, c := range t.carts {
		if c.id == cartID {
			return c
		}
	}
	return nil
}

func (t *fakeTx) CartHeader(cartID string) (Cart, error) {
	for uid, c := range t.carts {
		if c.id == cartID {
			return Cart{ID: c.id, UserID: uid}, nil
		}
	}
	return Cart{}, apperror.NotFound("cart not found")
}

func (t *fakeTx) Items(cartID string) ([]CartItem, error) {
	c := t.byCartID(cartID)
	if c == nil {
		return nil, nil
	}
	return append([]CartItem(nil), c.items...), nil
}

func (t *fakeTx) ItemForUpdate(cartID, bookID string) (CartItem, bool, error) {
	c := t.byCartID(cartID)
	if c == nil {
		return CartItem{}, false, nil
	}
	for _, item := range c.items {
		if item.BookID == bookID {
			return item, true, nil
		}
	}
	return CartItem{}, false, nil
}

func (t *fakeTx) InsertItem(cartID string, item CartItem) error {
	t.byCartID(cartID).items = append(t.byCartID(cartID).items, item)
	return nil
}

func (t *fakeTx) UpdateItemQuantity(itemID string, quantity int) error {
	for _, c := range t.carts {
		for i := range c.items {
			if c.items[i].ID == itemID {
				c.items[i].Quantity = quantity
				return nil
			}
		}
	}
	return apperror.NotFound("cart item not found")
}

func setup(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	svc, err := NewService(store)
	require.NoError(t, err)
	return svc, store
}

func TestGetOrCreateCart(t *testing.T) {
	svc, _ := setup(t)

	first, err := svc.GetOrCreateCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", first.UserID)
	assert.Empty(t, first.Items)

	second, err := svc.GetOrCreateCart(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
}

func TestAddItemIncrementsExistingLine(t *testing.T) {
	svc, store := setup(t)

	_, err := svc.AddItem(context.Background(), "u1", "bookA", 2, 50)
	require.NoError(t, err)
	item, err := svc.AddItem(context.Background(), "u1", "bookA", 3, 50)
	require.NoError(t, err)

	// The second add increments, it never duplicates the line.
	assert.Equal(t, 5, item.Quantity)
	require.Len(t, store.carts["u1"].items, 1)
	assert.Equal(t, 5, store.carts["u1"].items[0].Quantity)

	_, err = svc.AddItem(context.Background(), "u1", "bookB", 1, 50)
	require.NoError(t, err)
	assert.Len(t, store.carts["u1"].items, 2)
}

func TestAddItemStockAndMaxChecks(t *testing.T) {
	svc, store := setup(t)

	t.Run("new line beyond stock", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), "u1", "bookA", 5, 3)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.StateConflict(""))
		assert.Equal(t, "bookA", apperror.From(err).Details["bookId"])
		// The rollback discards the cart created in the same tx.
		assert.Nil(t, store.carts["u1"])
	})

	t.Run("increment beyond stock", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), "u1", "bookA", 3, 4)
		require.NoError(t, err)

		_, err = svc.AddItem(context.Background(), "u1", "bookA", 2, 4)
		assert.ErrorIs(t, err, apperror.StateConflict(""))
		assert.Equal(t, 3, store.carts["u1"].items[0].Quantity)
	})

	t.Run("increment beyond line maximum", func(t *testing.T) {
		_, err := svc.AddItem(context.Background(), "u2", "bookA", MaxQuantity, 500)
		require.NoError(t, err)

		_, err = svc.AddItem(context.Background(), "u2", "bookA", 1, 500)
		assert.ErrorIs(t, err, apperror.StateConflict(""))
		assert.Equal(t, MaxQuantity, store.carts["u2"].items[0].Quantity)
	})
}

func TestAddItemQuantityBounds(t *testing.T) {
	svc, _ := setup(t)

	for _, quantity := range []int{0, -3, MaxQuantity + 1} {
		_, err := svc.AddItem(context.Background(), "u1", "bookA", quantity, 500)
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.Validation(""))
	}
}

func TestSetItemQuantity(t *testing.T) {
	svc, _ := setup(t)
	item, err := svc.AddItem(context.Background(), "u1", "bookA", 2, 50)
	require.NoError(t, err)

	t.Run("own item", func(t *testing.T) {
		updated, err := svc.SetItemQuantity(context.Background(), "u1", item.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, 7, updated.Quantity)
	})

	t.Run("another user's item is not found, not forbidden", func(t *testing.T) {
		_, err := svc.SetItemQuantity(context.Background(), "u2", item.ID, 1)
		assert.ErrorIs(t, err, apperror.NotFound(""))
	})

	t.Run("out of bounds", func(t *testing.T) {
		_, err := svc.SetItemQuantity(context.Background(), "u1", item.ID, 0)
		assert.ErrorIs(t, err, apperror.Validation(""))
		_, err = svc.SetItemQuantity(context.Background(), "u1", item.ID, MaxQuantity+1)
		assert.ErrorIs(t, err, apperror.Validation(""))
	})
}

func TestRemoveAndClearAreIdempotent(t *testing.T) {
	svc, store := setup(t)
	item, err := svc.AddItem(context.Background(), "u1", "bookA", 2, 50)
	require.NoError(t, err)

	require.NoError(t, svc.RemoveItem(context.Background(), "u1", item.ID))
	require.NoError(t, svc.RemoveItem(context.Background(), "u1", item.ID))
	assert.Empty(t, store.carts["u1"].items)

	require.NoError(t, svc.ClearCart(context.Background(), "u1"))
	require.NoError(t, svc.ClearCart(context.Background(), "nobody"))
}
