package cart

import "slices"

const (
	MaxQty   = 99
	MaxLines = 50
)

type Line struct {
	ProductID string `json:"p"`
	Qty       int    `json:"q"`
}

// Cart is a guest or member cart. Lines keep insertion order and hold each
// product once.
type Cart struct {
	Lines []Line
}

// New builds a cart, merging duplicate products and dropping empty lines.
func New(lines ...Line) Cart {
	var c Cart
	for _, l := range lines {
		c = c.Add(l.ProductID, l.Qty)
	}
	return c
}

func (c Cart) Empty() bool { return len(c.Lines) == 0 }

// Count is the number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Qty
	}
	return n
}

func (c Cart) Qty(productID string) int {
	if i := c.index(productID); i >= 0 {
		return c.Lines[i].Qty
	}
	return 0
}

// Add increases the quantity of a product, capped at MaxQty.
func (c Cart) Add(productID string, qty int) Cart {
	if productID == "" || qty <= 0 {
		return c
	}
	return c.Update(productID, c.Qty(productID)+qty)
}

// Update sets the quantity of a product; zero or less removes it.
func (c Cart) Update(productID string, qty int) Cart {
	if qty <= 0 {
		return c.Remove(productID)
	}
	qty = min(qty, MaxQty)
	lines := slices.Clone(c.Lines)
	if i := c.index(productID); i >= 0 {
		lines[i].Qty = qty
		return Cart{Lines: lines}
	}
	if len(lines) >= MaxLines {
		return c
	}
	return Cart{Lines: append(lines, Line{ProductID: productID, Qty: qty})}
}

func (c Cart) Remove(productID string) Cart {
	i := c.index(productID)
	if i < 0 {
		return c
	}
	return Cart{Lines: slices.Delete(slices.Clone(c.Lines), i, i+1)}
}

func (c Cart) index(productID string) int {
	return slices.IndexFunc(c.Lines, func(l Line) bool { return l.ProductID == productID })
}
