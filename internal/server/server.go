package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"vending/internal/config"
	"vending/internal/handler"
	"vending/internal/infra/cache"
	infraRepo "vending/internal/infra/repository"
	"vending/internal/infra/storage"
	"vending/internal/middleware"
	"vending/internal/usecase"
	"vending/internal/validator"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const productCacheTTL = 5 * time.Minute

type Server struct {
	cfg      config.Config
	echo     *echo.Echo
	products *usecase.ProductUsecase
	auth     *usecase.AuthUsecase
}

// New はRepository→Usecase→Handlerを組み立ててルートを登録する。
// rdbがnilなら商品一覧キャッシュは使わない
func New(cfg config.Config, gormDB *gorm.DB, rdb *redis.Client) (*Server, error) {
	images, err := storage.NewLocalImageStore(cfg.UploadDir)
	if err != nil {
		return nil, fmt.Errorf("upload dir: %w", err)
	}

	var productCache usecase.ProductCache = usecase.NoopProductCache{}
	if rdb != nil {
		productCache = cache.NewProductListCache(rdb, productCacheTTL)
	}

	//Repository（GORM実装）
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	transactionRepo := infraRepo.NewTransactionGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	userRepo := infraRepo.NewUserRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	txm := infraRepo.NewTxManagerGorm(gormDB)

	//Usecase
	purchaseUC := usecase.NewPurchaseUsecase(txm, productCache)
	productUC := usecase.NewProductUsecase(productRepo, txm, images, productCache)
	transactionUC := usecase.NewTransactionUsecase(transactionRepo, txm)
	auditUC := usecase.NewAuditLogUsecase(auditRepo)
	authUC := usecase.NewAuthUsecase(cfg, userRepo, rtRepo, auditRepo, validator.NewAuthValidator(userRepo))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler

	e.Use(middleware.RequestLogger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FEURL},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
	}))
	//画像アップロードの上限 + フォーム分の余裕
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", (cfg.MaxUploadSize>>20)+1)))

	e.Static(strings.TrimSuffix(storage.PublicPrefix, "/"), images.Dir())

	admin := []echo.MiddlewareFunc{
		middleware.AuthJWT(cfg),
		middleware.TokenVersionGuard(userRepo),
		middleware.AdminRoleGuard(),
	}

	handler.RegisterHealthRoutes(e)
	handler.NewPurchaseHandler(purchaseUC).RegisterRoutes(e)
	handler.NewProductHandler(productUC).RegisterRoutes(e, admin...)
	handler.NewTransactionHandler(transactionUC).RegisterRoutes(e, admin...)
	handler.NewAuditHandler(auditUC).RegisterRoutes(e, admin...)
	handler.NewAuthHandler(authUC, cfg.RefreshTokenTTL, cfg.IsProd()).
		RegisterRoutes(e, cfg.AllowRegistration, admin...)

	return &Server{
		cfg:      cfg,
		echo:     e,
		products: productUC,
		auth:     authUC,
	}, nil
}

// httptest用
func (s *Server) Handler() http.Handler {
	return s.echo
}

// 初期商品と初期管理者
func (s *Server) Seed(ctx context.Context) error {
	if s.cfg.SeedProducts {
		seeded, err := s.products.SeedDefaults(ctx)
		if err != nil {
			return fmt.Errorf("seed products: %w", err)
		}
		if seeded {
			zap.L().Info("default products seeded")
		}
	}

	created, err := s.auth.EnsureAdmin(ctx, s.cfg.AdminEmail, s.cfg.AdminPassword)
	if err != nil {
		return fmt.Errorf("ensure admin: %w", err)
	}
	if created {
		zap.L().Info("initialized admin account", zap.String("email", s.cfg.AdminEmail))
	}
	return nil
}

// Start はShutdownされるまでブロックする
func (s *Server) Start() error {
	addr := ":" + s.cfg.Port
	zap.L().Info("server listening", zap.String("addr", addr))

	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
