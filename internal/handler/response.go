package handler

import (
	"errors"
	"net/http"
	"strconv"

	"vending/internal/middleware"
	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// 失敗レスポンスは全部 {msg}
type MsgResponse struct {
	Msg string `json:"msg"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, MsgResponse{Msg: he.Message})
	}

	//500
	zap.L().Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
	return c.JSON(http.StatusInternalServerError, MsgResponse{Msg: "Internal server error"})
}

// ErrorHandler はechoが返すエラー（404ルート・413など）も {msg} にそろえる
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(he.Code)
			return
		}
		_ = c.JSON(he.Code, MsgResponse{Msg: msg})
		return
	}

	_ = writeError(c, err)
}

// middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}
