package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLine(price string, size, color string, qty int) Line {
	return Line{
		ProductID: uuid.New(),
		Name:      "Wool Overcoat",
		Price:     decimal.RequireFromString(price),
		Size:      size,
		Color:     color,
		Quantity:  qty,
	}
}

func TestReduceAddItemTotals(t *testing.T) {
	t.Parallel()

	coat := newLine("85.00", "M", "Charcoal", 1)
	scarf := newLine("45.00", "OS", "Camel", 2)

	state := Reduce(State{}, AddItem{Line: coat})
	state = Reduce(state, AddItem{Line: scarf})

	require.Len(t, state.Lines, 2)
	assert.True(t, state.Total().Equal(decimal.RequireFromString("175.00")),
		"total = %s", state.Total())
	assert.Equal(t, 3, state.Count())
}

func TestReduceAddItemMergesSameVariant(t *testing.T) {
	t.Parallel()

	line := newLine("30.00", "L", "Ivory", 2)
	again := line
	again.Quantity = 3

	state := Reduce(State{}, AddItem{Line: line})
	state = Reduce(state, AddItem{Line: again})

	require.Len(t, state.Lines, 1)
	assert.Equal(t, 5, state.Lines[0].Quantity)
	assert.True(t, state.Total().Equal(decimal.RequireFromString("150.00")))
}

func TestReduceAddItemKeepsVariantsSeparate(t *testing.T) {
	t.Parallel()

	line := newLine("30.00", "L", "Ivory", 1)
	otherSize := line
	otherSize.Size = "M"
	otherColor := line
	otherColor.Color = "Black"

	state := Reduce(State{}, AddItem{Line: line})
	state = Reduce(state, AddItem{Line: otherSize})
	state = Reduce(state, AddItem{Line: otherColor})

	assert.Len(t, state.Lines, 3)
}

func TestReduceUpdateQuantity(t *testing.T) {
	t.Parallel()

	line := newLine("20.00", "S", "Navy", 1)
	state := Reduce(State{}, AddItem{Line: line})

	state = Reduce(state, UpdateQuantity{ProductID: line.ProductID, Quantity: 4})
	require.Len(t, state.Lines, 1)
	assert.Equal(t, 4, state.Lines[0].Quantity)
	assert.True(t, state.Total().Equal(decimal.RequireFromString("80.00")))
}

func TestReduceUpdateQuantityAppliesToEveryVariant(t *testing.T) {
	t.Parallel()

	small := newLine("30.00", "S", "Ivory", 1)
	medium := small
	medium.Size = "M"

	state := Reduce(State{}, AddItem{Line: small})
	state = Reduce(state, AddItem{Line: medium})
	state = Reduce(state, UpdateQuantity{ProductID: small.ProductID, Quantity: 3})

	require.Len(t, state.Lines, 2)
	assert.Equal(t, 3, state.Lines[0].Quantity)
	assert.Equal(t, 3, state.Lines[1].Quantity)
	assert.True(t, state.Total().Equal(decimal.RequireFromString("180.00")))
}

func TestReduceUpdateQuantityZeroRemovesLine(t *testing.T) {
	t.Parallel()

	line := newLine("20.00", "S", "Navy", 2)
	state := Reduce(State{}, AddItem{Line: line})

	state = Reduce(state, UpdateQuantity{ProductID: line.ProductID, Quantity: 0})
	assert.True(t, state.IsEmpty())
	assert.True(t, state.Total().IsZero())
}

func TestReduceUpdateQuantityNegativeRemovesLine(t *testing.T) {
	t.Parallel()

	line := newLine("20.00", "S", "Navy", 2)
	state := Reduce(State{}, AddItem{Line: line})

	state = Reduce(state, UpdateQuantity{ProductID: line.ProductID, Quantity: -1})
	assert.True(t, state.IsEmpty())
}

func TestReduceUpdateQuantityUnknownProductIsNoop(t *testing.T) {
	t.Parallel()

	line := newLine("20.00", "S", "Navy", 2)
	state := Reduce(State{}, AddItem{Line: line})

	next := Reduce(state, UpdateQuantity{ProductID: uuid.New(), Quantity: 9})
	assert.Equal(t, state.Lines, next.Lines)
}

func TestReduceRemoveItem(t *testing.T) {
	t.Parallel()

	keep := newLine("10.00", "M", "Ivory", 1)
	drop := newLine("25.00", "L", "Black", 1)
	state := Reduce(State{}, AddItem{Line: keep})
	state = Reduce(state, AddItem{Line: drop})

	state = Reduce(state, RemoveItem{ProductID: drop.ProductID})
	require.Len(t, state.Lines, 1)
	assert.Equal(t, keep.Key(), state.Lines[0].Key())
	assert.True(t, state.Total().Equal(decimal.RequireFromString("10.00")))
}

func TestReduceRemoveItemDropsEveryVariant(t *testing.T) {
	t.Parallel()

	small := newLine("30.00", "S", "Ivory", 1)
	medium := small
	medium.Size = "M"
	other := newLine("45.00", "OS", "Camel", 1)

	state := Reduce(State{}, AddItem{Line: small})
	state = Reduce(state, AddItem{Line: medium})
	state = Reduce(state, AddItem{Line: other})

	state = Reduce(state, RemoveItem{ProductID: small.ProductID})
	require.Len(t, state.Lines, 1)
	assert.Equal(t, other.ProductID, state.Lines[0].ProductID)
}

func TestReduceClear(t *testing.T) {
	t.Parallel()

	state := Reduce(State{}, AddItem{Line: newLine("10.00", "M", "Ivory", 1)})
	state = Reduce(state, AddItem{Line: newLine("25.00", "L", "Black", 3)})

	state = Reduce(state, Clear{})
	assert.True(t, state.IsEmpty())
	assert.True(t, state.Total().IsZero())
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	line := newLine("10.00", "M", "Ivory", 1)
	before := Reduce(State{}, AddItem{Line: line})

	_ = Reduce(before, UpdateQuantity{ProductID: line.ProductID, Quantity: 7})
	_ = Reduce(before, RemoveItem{ProductID: line.ProductID})

	require.Len(t, before.Lines, 1)
	assert.Equal(t, 1, before.Lines[0].Quantity)
}

func TestStoreDispatchNotifiesSubscribers(t *testing.T) {
	t.Parallel()

	store := NewStore(State{})
	var seen []int
	store.Subscribe(func(s State) {
		seen = append(seen, s.Count())
	})

	line := newLine("15.00", "M", "Olive", 1)
	store.Dispatch(AddItem{Line: line})
	store.Dispatch(UpdateQuantity{ProductID: line.ProductID, Quantity: 3})
	store.Dispatch(Clear{})

	assert.Equal(t, []int{1, 3, 0}, seen)
	assert.True(t, store.Snapshot().IsEmpty())
}

func TestStoreSubscribeCancelStopsNotifications(t *testing.T) {
	t.Parallel()

	store := NewStore(State{})
	var seen int
	cancel := store.Subscribe(func(State) { seen++ })

	store.Dispatch(AddItem{Line: newLine("15.00", "M", "Olive", 1)})
	cancel()
	store.Dispatch(Clear{})

	assert.Equal(t, 1, seen)
}
