package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func RegisterHealthRoutes(e *echo.Echo) {
	e.GET("/test", func(c echo.Context) error {
		return c.JSON(http.StatusOK, MsgResponse{Msg: "Server is running!"})
	})
}
