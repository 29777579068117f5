package handler

import (
	"net/http"

	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
)

// POST /purchase のボディ
type purchaseRequest struct {
	ProductID      *int64 `json:"productId"`
	InsertedAmount *int64 `json:"insertedAmount"`
	Quantity       *int64 `json:"quantity"`
}

type PurchaseHandler struct {
	uc *usecase.PurchaseUsecase
}

// DI
func NewPurchaseHandler(uc *usecase.PurchaseUsecase) *PurchaseHandler {
	return &PurchaseHandler{uc: uc}
}

// 購入は認証なし
func (h *PurchaseHandler) RegisterRoutes(e *echo.Echo) {
	e.POST("/purchase", h.purchase)
}

func (h *PurchaseHandler) purchase(c echo.Context) error {
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid request body"})
	}

	out, err := h.uc.Purchase(c.Request().Context(), usecase.PurchaseInput{
		ProductID:      req.ProductID,
		InsertedAmount: req.InsertedAmount,
		Quantity:       req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
