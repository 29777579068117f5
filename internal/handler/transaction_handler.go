package handler

import (
	"net/http"

	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 購入履歴（管理者のみ）
type TransactionHandler struct {
	uc *usecase.TransactionUsecase
}

// DI
func NewTransactionHandler(uc *usecase.TransactionUsecase) *TransactionHandler {
	return &TransactionHandler{uc: uc}
}

func (h *TransactionHandler) RegisterRoutes(e *echo.Echo, admin ...echo.MiddlewareFunc) {
	e.GET("/transactions", h.list, admin...)
	e.DELETE("/transactions/:id", h.delete, admin...)
}

func (h *TransactionHandler) list(c echo.Context) error {
	items, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *TransactionHandler) delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, MsgResponse{Msg: "Transaction not found"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, MsgResponse{Msg: "Transaction Deleted Successfully"})
}
