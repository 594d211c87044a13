// Package validation turns gin binding errors into form field messages.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"vibeshop.com/app/internal/shared/apperr"
	"vibeshop.com/app/pkg/view"
)

// FromBindError maps each failed rule to the form field name of dst.
func FromBindError(err error, dst any) view.FieldErrors {
	out := view.FieldErrors{}

	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			out[fieldKey(dst, fe.StructField())] = messageForTag(fe.Tag(), fe.Param())
		}
		return out
	}
	out["_"] = "입력값을 확인해 주세요."
	return out
}

// FromAppError returns the field messages of an invalid AppError, falling
// back to the public message under "_".
func FromAppError(err error) view.FieldErrors {
	out := view.FieldErrors{}
	ae, ok := apperr.As(err)
	if !ok {
		out["_"] = apperr.PublicMessage(err)
		return out
	}
	for k, v := range ae.Fields {
		out[k] = v
	}
	if len(out) == 0 {
		out["_"] = ae.PublicMsg
	}
	return out
}

// IsInvalid reports whether err should be shown next to the form instead
// of on an error page.
func IsInvalid(err error) bool {
	return apperr.Is(err, apperr.Invalid) || apperr.Is(err, apperr.Conflict)
}

func fieldKey(dst any, structField string) string {
	t := reflect.TypeOf(dst)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return strings.ToLower(structField)
	}
	f, ok := t.FieldByName(structField)
	if !ok {
		return strings.ToLower(structField)
	}
	tag, _, _ := strings.Cut(f.Tag.Get("form"), ",")
	if tag == "" || tag == "-" {
		return strings.ToLower(structField)
	}
	return tag
}

func messageForTag(tag, param string) string {
	switch tag {
	case "required":
		return "필수 입력 항목입니다."
	case "email":
		return "올바른 이메일 주소를 입력해 주세요."
	case "min":
		return param + "자 이상 입력해 주세요."
	case "max":
		return param + "자 이하로 입력해 주세요."
	case "len":
		return param + "자로 입력해 주세요."
	case "numeric":
		return "숫자만 입력해 주세요."
	case "oneof":
		return "선택할 수 없는 값입니다."
	case "eqfield":
		return "입력한 값이 일치하지 않습니다."
	default:
		return "올바르지 않은 값입니다."
	}
}
