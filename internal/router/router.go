package router

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"apptracker/internal/auth"
	"apptracker/internal/config"
	apperrors "apptracker/internal/errors"
	"apptracker/internal/handler"
	"apptracker/internal/metrics"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log zerolog.Logger,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	jwtService *auth.JWTService,
	authHandler *handler.AuthHandler,
	applicationHandler *handler.ApplicationHandler,
	statsHandler *handler.StatsHandler,
) {
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler
	e.Validator = NewCustomValidator()

	e.Use(middleware.RequestID())
	e.Use(ContextLogger(log))
	e.Use(RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("1M"))
	if m != nil {
		e.Use(m.Middleware())
	}

	e.GET("/health", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)

	// Secured routes (require JWT authentication). Attached per route so
	// unknown paths still 404.
	requireAuth := JWTMiddleware(jwtService)

	e.GET("/applications", applicationHandler.List, requireAuth)
	e.POST("/applications", applicationHandler.Create, requireAuth)
	e.GET("/applications/:id", applicationHandler.Get, requireAuth)
	e.PATCH("/applications/:id", applicationHandler.Update, requireAuth)
	e.DELETE("/applications/:id", applicationHandler.Delete, requireAuth)

	e.GET("/stats", statsHandler.Stats, requireAuth)
}

// JWTMiddleware verifies "Authorization: Bearer <token>" and stores the
// resulting *auth.Claims under handler.ContextKeyUser.
func JWTMiddleware(jwtService *auth.JWTService) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  handler.ContextKeyUser,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return jwtService.Verify(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			msg := "invalid token"
			var extractErr *echojwt.TokenExtractionError
			if errors.As(err, &extractErr) {
				msg = "missing token"
			}
			return echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
				Error: msg,
				Code:  "UNAUTHORIZED",
			})
		},
	})
}

// ErrorHandler renders every error as an ErrorResponse body.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := apperrors.ErrorResponse{Error: "internal server error", Code: "INTERNAL_ERROR"}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		switch msg := he.Message.(type) {
		case apperrors.ErrorResponse:
			body = msg
		case string:
			if status < http.StatusInternalServerError {
				body = apperrors.ErrorResponse{Error: strings.ToLower(msg), Code: apperrors.CodeForStatus(status)}
			}
		default:
			if status < http.StatusInternalServerError {
				body = apperrors.ErrorResponse{Error: strings.ToLower(http.StatusText(status)), Code: apperrors.CodeForStatus(status)}
			}
		}
	} else {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).Msg("write error response")
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// NewCustomValidator reports field names by their json tag.
func NewCustomValidator() *CustomValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
