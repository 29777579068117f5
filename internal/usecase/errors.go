package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	//400 入力不足・形式不正
	ErrInvalidInput = errors.New("invalid input")
	//404 商品・履歴が存在しない
	ErrNotFound = errors.New("not found")
	//400 在庫不足
	ErrInsufficientStock = errors.New("insufficient stock")
	//400 投入金額不足
	ErrInsufficientPayment = errors.New("insufficient payment")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403 権限・トークン不正
	ErrForbidden = errors.New("forbidden")
	//409 競合
	ErrConflict = errors.New("conflict")
	//500
	ErrInternal = errors.New("internal error")
)

// HTTPError はhandlerがそのままレスポンスにできるエラー。
// Kindで種類を判定できる（errors.Is）。
type HTTPError struct {
	Status  int
	Message string
	Kind    error
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

func (e *HTTPError) Unwrap() error {
	return e.Kind
}

// NewHTTPError は種類からステータスを決める
func NewHTTPError(kind error, message string) error {
	return &HTTPError{
		Status:  statusOf(kind),
		Message: message,
		Kind:    kind,
	}
}

func AsHTTPError(err error) (*HTTPError, bool) {
	var he *HTTPError
	ok := errors.As(err, &he)
	return he, ok
}

func statusOf(kind error) int {
	switch kind {
	case ErrInvalidInput, ErrInsufficientStock, ErrInsufficientPayment:
		return http.StatusBadRequest
	case ErrNotFound:
		return http.StatusNotFound
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrForbidden:
		return http.StatusForbidden
	case ErrConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
