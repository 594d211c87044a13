package payments

import "vibeshop.com/app/internal/shared/apperr"

var (
	ErrAmountMismatch   = apperr.InvalidErr("결제 금액이 주문 금액과 일치하지 않습니다.", nil)
	ErrInvalidRedirect  = apperr.InvalidErr("잘못된 결제 요청입니다.", nil)
	ErrOrderNotPayable  = apperr.ConflictErr("결제할 수 없는 주문 상태입니다.")
	ErrMethodNotWidget  = apperr.InvalidErr("위젯 결제를 지원하지 않는 결제 수단입니다.", nil)
	ErrOrderNotFoundPub = apperr.NotFoundErr("주문을 찾을 수 없습니다.")
	ErrConfirmFailed    = apperr.ConflictErr("결제 승인에 실패했습니다. 잠시 후 다시 시도해 주세요.")
	ErrCancelFailed     = apperr.ConflictErr("결제 취소에 실패했습니다.")
	ErrBadWebhook       = apperr.InvalidErr("invalid webhook payload", nil)
)
