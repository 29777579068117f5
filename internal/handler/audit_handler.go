package handler

import (
	"net/http"
	"strconv"

	"vending/internal/domain/model"
	repo "vending/internal/repository"
	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AuditHandler struct {
	uc *usecase.AuditLogUsecase
}

func NewAuditHandler(uc *usecase.AuditLogUsecase) *AuditHandler {
	return &AuditHandler{uc: uc}
}

func (h *AuditHandler) RegisterRoutes(e *echo.Echo, admin ...echo.MiddlewareFunc) {
	e.GET("/audit-logs", h.list, admin...)
}

// ?action=&resourceType=&resourceId=&actorUserId=&limit=&offset=
func (h *AuditHandler) list(c echo.Context) error {
	var f repo.AuditLogFilter

	if v := c.QueryParam("action"); v != "" {
		a := model.AuditAction(v)
		f.Action = &a
	}
	if v := c.QueryParam("resourceType"); v != "" {
		rt := model.AuditResourceType(v)
		f.ResourceType = &rt
	}

	ints := []struct {
		key string
		dst **int64
	}{
		{"resourceId", &f.ResourceID},
		{"actorUserId", &f.ActorUserID},
	}
	for _, q := range ints {
		v := c.QueryParam(q.key)
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid " + q.key})
		}
		*q.dst = &n
	}

	var err error
	if f.Limit, err = queryInt(c, "limit"); err != nil {
		return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid limit"})
	}
	if f.Offset, err = queryInt(c, "offset"); err != nil {
		return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid offset"})
	}

	items, err := h.uc.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

func queryInt(c echo.Context, key string) (int, error) {
	v := c.QueryParam(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
