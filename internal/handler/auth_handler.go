package handler

import (
	"net/http"
	"time"

	"vending/internal/usecase"

	"github.com/labstack/echo/v4"
)

const refreshCookieName = "refreshToken"

// POST /users のボディ
type registerRequest struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Password     string `json:"password"`
	ConfPassword string `json:"confPassword"`
}

// POST /login のボディ
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type registerResponse struct {
	Msg  string          `json:"msg"`
	User usecase.UserDTO `json:"user"`
}

type AuthHandler struct {
	uc           *usecase.AuthUsecase
	refreshTTL   time.Duration // refresh cookie の有効期限
	cookieSecure bool
}

// DIコンストラクタ
func NewAuthHandler(uc *usecase.AuthUsecase, refreshTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{
		uc:           uc,
		refreshTTL:   refreshTTL,
		cookieSecure: cookieSecure,
	}
}

// allowRegistrationがfalseなら POST /users も admin のみ
func (h *AuthHandler) RegisterRoutes(e *echo.Echo, allowRegistration bool, admin ...echo.MiddlewareFunc) {
	if allowRegistration {
		e.POST("/users", h.register)
	} else {
		e.POST("/users", h.register, admin...)
	}
	e.GET("/users", h.listUsers, admin...)

	e.POST("/login", h.login)
	e.GET("/token", h.refresh)
	e.DELETE("/logout", h.logout)
}

func (h *AuthHandler) register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid request body"})
	}

	//管理者経由なら監査ログに残す
	actorID, _ := getUserIDFromContext(c)

	user, err := h.uc.Register(c.Request().Context(), actorID, usecase.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Password:     req.Password,
		ConfPassword: req.ConfPassword,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, registerResponse{Msg: "Register Successfully", User: *user})
}

func (h *AuthHandler) listUsers(c echo.Context) error {
	users, err := h.uc.ListUsers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, users)
}

func (h *AuthHandler) login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, MsgResponse{Msg: "Invalid request body"})
	}

	out, err := h.uc.Login(c.Request().Context(), req.Email, req.Password, c.Request().UserAgent())
	if err != nil {
		return writeError(c, err)
	}

	h.setRefreshCookie(c, out.RefreshTokenPlain)
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: out.AccessToken})
}

func (h *AuthHandler) refresh(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.JSON(http.StatusUnauthorized, MsgResponse{Msg: "Unauthorized"})
	}

	out, err := h.uc.Refresh(c.Request().Context(), cookie.Value, c.Request().UserAgent())
	if err != nil {
		//使えないcookieは消しておく
		h.clearRefreshCookie(c)
		return writeError(c, err)
	}

	h.setRefreshCookie(c, out.RefreshTokenPlain)
	return c.JSON(http.StatusOK, accessTokenResponse{AccessToken: out.AccessToken})
}

// cookieがなければ204
func (h *AuthHandler) logout(c echo.Context) error {
	cookie, err := c.Cookie(refreshCookieName)
	if err != nil || cookie.Value == "" {
		return c.NoContent(http.StatusNoContent)
	}

	if err := h.uc.Logout(c.Request().Context(), cookie.Value); err != nil {
		return writeError(c, err)
	}

	h.clearRefreshCookie(c)
	return c.JSON(http.StatusOK, MsgResponse{Msg: "Logout Successfully"})
}

// refreshtoken をCookieにセット。
func (h *AuthHandler) setRefreshCookie(c echo.Context, plain string) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    plain,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.refreshTTL.Seconds()),
		Expires:  time.Now().Add(h.refreshTTL),
	})
}

func (h *AuthHandler) clearRefreshCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
	})
}
