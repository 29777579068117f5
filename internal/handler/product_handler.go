package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"vending/internal/domain/model"
	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
)

// JSONで来たとき用。multipartはフォーム値から読む
type productRequest struct {
	Name  *string `json:"name"`
	Price *int64  `json:"price"`
	Stock *int64  `json:"stock"`
}

type productCreatedResponse struct {
	Msg     string        `json:"msg"`
	Product model.Product `json:"product"`
}

// /products の公開APIと管理API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

// admin には AuthJWT / TokenVersionGuard / AdminRoleGuard を渡す
func (h *ProductHandler) RegisterRoutes(e *echo.Echo, admin ...echo.MiddlewareFunc) {
	e.GET("/products", h.list)
	e.GET("/products/:id", h.detail)

	e.POST("/products", h.create, admin...)
	e.PUT("/products/:id", h.update, admin...)
	e.DELETE("/products/:id", h.delete, admin...)
}

func (h *ProductHandler) list(c echo.Context) error {
	// limit（なければ全件、0なら空）
	var limit *int
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 0 {
			return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid limit"})
		}
		limit = &l
	}

	items, err := h.uc.List(c.Request().Context(), limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *ProductHandler) detail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, MsgResponse{Msg: "Product not found"})
	}

	p, err := h.uc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProductHandler) create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Unauthorized"})
	}

	in, closeImage, err := bindProductInput(c)
	if err != nil {
		return writeError(c, err)
	}
	defer closeImage()

	p, err := h.uc.Create(c.Request().Context(), adminID, in)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, productCreatedResponse{Msg: "Product Created Successfully", Product: p})
}

func (h *ProductHandler) update(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, MsgResponse{Msg: "Product not found"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Unauthorized"})
	}

	in, closeImage, err := bindProductInput(c)
	if err != nil {
		return writeError(c, err)
	}
	defer closeImage()

	if err := h.uc.Update(c.Request().Context(), adminID, id, in); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MsgResponse{Msg: "Product Updated Successfully"})
}

func (h *ProductHandler) delete(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return c.JSON(http.StatusNotFound, MsgResponse{Msg: "Product not found"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Unauthorized"})
	}

	if err := h.uc.Delete(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, MsgResponse{Msg: "Product Deleted Successfully"})
}

// JSONかフォーム（multipart の image も）から入力を作る。
// 空文字のフォーム値は未指定扱い
func bindProductInput(c echo.Context) (usecase.ProductInput, func(), error) {
	noop := func() {}

	ct := c.Request().Header.Get(echo.HeaderContentType)
	if strings.HasPrefix(ct, echo.MIMEApplicationJSON) {
		var req productRequest
		if err := c.Bind(&req); err != nil {
			return usecase.ProductInput{}, noop, usecase.NewHTTPError(usecase.ErrInvalidInput, "Invalid request body")
		}
		return usecase.ProductInput{Name: req.Name, Price: req.Price, Stock: req.Stock}, noop, nil
	}

	var in usecase.ProductInput
	if v := c.FormValue("name"); v != "" {
		in.Name = &v
	}
	price, err := formInt(c, "price")
	if err != nil {
		return usecase.ProductInput{}, noop, usecase.NewHTTPError(usecase.ErrInvalidInput, "Price must be a number")
	}
	in.Price = price
	stock, err := formInt(c, "stock")
	if err != nil {
		return usecase.ProductInput{}, noop, usecase.NewHTTPError(usecase.ErrInvalidInput, "Stock must be a number")
	}
	in.Stock = stock

	if !strings.HasPrefix(ct, echo.MIMEMultipartForm) {
		return in, noop, nil
	}
	fh, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return in, noop, nil
	}
	if err != nil {
		return usecase.ProductInput{}, noop, usecase.NewHTTPError(usecase.ErrInvalidInput, "Invalid image upload")
	}
	f, err := fh.Open()
	if err != nil {
		return usecase.ProductInput{}, noop, usecase.NewHTTPError(usecase.ErrInternal, "Error reading image")
	}
	in.Image = f
	return in, func() { _ = f.Close() }, nil
}

func formInt(c echo.Context, key string) (*int64, error) {
	v := strings.TrimSpace(c.FormValue(key))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &n, nil
}
