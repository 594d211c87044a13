package checkout

import "vibeshop.com/app/internal/modules/cart"

// checkStock reports every line the catalog can no longer fill.
func checkStock(page cart.Page) error {
	var oos []OutOfStockItem
	for _, it := range page.Items {
		if it.Available {
			continue
		}
		avail := it.Product.Stock
		if !it.Product.Purchasable() {
			avail = 0
		}
		oos = append(oos, OutOfStockItem{
			ProductID: it.Product.ID,
			Name:      it.Product.Name,
			Requested: it.Qty,
			Available: avail,
		})
	}
	if len(oos) > 0 {
		return &OutOfStockError{Items: oos}
	}
	return nil
}
