package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineKey identifies a cart line. The same product in a different size or
// color is a separate line.
type LineKey struct {
	ProductID uuid.UUID
	Size      string
	Color     string
}

// Line is a single cart entry with the price snapshotted at add time.
type Line struct {
	ProductID uuid.UUID
	Name      string
	Price     decimal.Decimal
	Image     string
	Size      string
	Color     string
	Quantity  int
}

// Key returns the identity of the line within a cart.
func (l Line) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// Subtotal returns price multiplied by quantity for the line.
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// State is an immutable cart snapshot. Total is always derived from the
// lines, never stored independently.
type State struct {
	Lines []Line
}

// Total recomputes the cart total from scratch.
func (s State) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range s.Lines {
		total = total.Add(line.Subtotal())
	}
	return total
}

// Count returns the total number of units across all lines.
func (s State) Count() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

// IsEmpty reports whether the cart has no lines.
func (s State) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Action is a cart mutation request consumed by Reduce.
type Action interface {
	isCartAction()
}

// AddItem appends a line, merging quantities when a line with the same
// identity already exists.
type AddItem struct {
	Line Line
}

// UpdateQuantity replaces the quantity of every line carrying the product,
// whatever its size or color. A quantity of zero or below removes those
// lines.
type UpdateQuantity struct {
	ProductID uuid.UUID
	Quantity  int
}

// RemoveItem drops every line carrying the product.
type RemoveItem struct {
	ProductID uuid.UUID
}

// Clear empties the cart.
type Clear struct{}

func (AddItem) isCartAction()        {}
func (UpdateQuantity) isCartAction() {}
func (RemoveItem) isCartAction()     {}
func (Clear) isCartAction()          {}

// Reduce applies the action to the state and returns the next state. The
// input state is never mutated; unknown actions return the state unchanged.
func Reduce(state State, action Action) State {
	switch act := action.(type) {
	case AddItem:
		return reduceAdd(state, act.Line)
	case UpdateQuantity:
		if act.Quantity <= 0 {
			return reduceRemove(state, act.ProductID)
		}
		return reduceSetQuantity(state, act.ProductID, act.Quantity)
	case RemoveItem:
		return reduceRemove(state, act.ProductID)
	case Clear:
		return State{}
	default:
		return state
	}
}

func reduceAdd(state State, line Line) State {
	if line.Quantity <= 0 {
		line.Quantity = 1
	}
	next := make([]Line, len(state.Lines))
	copy(next, state.Lines)

	for i := range next {
		if next[i].Key() == line.Key() {
			next[i].Quantity += line.Quantity
			return State{Lines: next}
		}
	}
	return State{Lines: append(next, line)}
}

func reduceSetQuantity(state State, productID uuid.UUID, quantity int) State {
	next := make([]Line, len(state.Lines))
	copy(next, state.Lines)
	for i := range next {
		if next[i].ProductID == productID {
			next[i].Quantity = quantity
		}
	}
	return State{Lines: next}
}

func reduceRemove(state State, productID uuid.UUID) State {
	next := make([]Line, 0, len(state.Lines))
	for _, line := range state.Lines {
		if line.ProductID == productID {
			continue
		}
		next = append(next, line)
	}
	return State{Lines: next}
}
