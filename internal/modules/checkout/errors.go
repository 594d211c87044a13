package checkout

import (
	"fmt"

	"vibeshop.com/app/internal/shared/apperr"
)

var (
	ErrEmptyCart        = apperr.InvalidErr("장바구니가 비어 있습니다.", nil)
	ErrMethodDisabled   = apperr.InvalidErr("사용할 수 없는 결제 수단입니다.", map[string]string{"payment_method": "사용할 수 없는 결제 수단입니다."})
	ErrOrderNotFoundPub = apperr.NotFoundErr("주문을 찾을 수 없습니다.")
)

type OutOfStockItem struct {
	ProductID string
	Name      string
	Requested int
	Available int
}

// OutOfStockError lists the cart lines that can no longer be filled.
type OutOfStockError struct {
	Items []OutOfStockItem
}

func (e *OutOfStockError) Error() string {
	if len(e.Items) == 0 {
		return "out of stock"
	}
	it := e.Items[0]
	return fmt.Sprintf("out of stock: product=%s requested=%d available=%d", it.ProductID, it.Requested, it.Available)
}

// Public converts the error for display.
func (e *OutOfStockError) Public() *apperr.AppError {
	msg := "재고가 부족한 상품이 있습니다."
	if len(e.Items) > 0 {
		it := e.Items[0]
		msg = fmt.Sprintf("%s 상품의 재고가 부족합니다. (요청 %d개, 남은 수량 %d개)", it.Name, it.Requested, it.Available)
	}
	return apperr.ConflictErr(msg).WithCause(e)
}
