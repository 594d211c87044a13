package orders

import (
	"errors"
	"strconv"

	"vibeshop.com/app/internal/shared/apperr"
)

var ErrNotFound = errors.New("order not found")

// Transition outcomes surfaced to admins.
var (
	ErrTerminal          = apperr.ConflictErr("취소 또는 환불된 주문은 상태를 변경할 수 없습니다.")
	ErrDeliveredNoCancel = apperr.ConflictErr("배송완료된 주문은 취소할 수 없습니다.")
	ErrAlreadyCancelled  = apperr.ConflictErr("이미 취소된 주문입니다.")
	ErrAlreadyRefunded   = apperr.ConflictErr("이미 환불된 주문입니다.")
	ErrNotRefundable     = apperr.ConflictErr("결제가 완료되지 않은 주문은 환불할 수 없습니다.")
	ErrNotFoundPub       = apperr.NotFoundErr("주문을 찾을 수 없습니다.")
)

func itoa(n int) string { return strconv.Itoa(n) }
