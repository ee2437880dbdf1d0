package router

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.uber.org/zap"

	"clfadmin/internal/auth"
	"clfadmin/internal/config"
	"clfadmin/internal/errors"
	"clfadmin/internal/handler"
	"clfadmin/internal/logger"
	"clfadmin/internal/service"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	log *zap.Logger,
	access service.AccessControl,
	tokenStore auth.TokenStoreInterface,
	historyHandler *handler.HistoryHandler,
	userHandler *handler.UserHandler,
	modelHandler *handler.ModelHandler,
	authHandler *handler.AuthHandler,
) {
	e.HTTPErrorHandler = errorHandler(log)
	e.Use(middleware.RequestID())
	e.Use(logger.RequestLogger(log))
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Every API route requires a verified bearer token and an existing caller.
	api := e.Group("/api",
		echojwt.WithConfig(echojwt.Config{
			SigningKey:    []byte(cfg.JWTSecret),
			SigningMethod: jwt.SigningMethodHS256.Alg(),
			TokenLookup:   "header:" + echo.HeaderAuthorization + ":Bearer ",
			ContextKey:    auth.ContextKey,
			NewClaimsFunc: func(c echo.Context) jwt.Claims {
				return new(auth.Claims)
			},
			ErrorHandler: func(c echo.Context, err error) error {
				return handler.RespondError(errors.Unauthorized("missing or invalid token"))
			},
		}),
		rejectRevoked(tokenStore),
		resolveCaller(access),
	)
	adminOnly := requireAdmin(access)

	api.GET("/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	// Model registry routes
	api.GET("/models", modelHandler.ListModels)
	api.POST("/models", modelHandler.AddModel, adminOnly)
	api.DELETE("/models/:name", modelHandler.DeleteModel, adminOnly)

	// User management routes
	users := api.Group("/users", adminOnly)
	users.GET("", userHandler.ListUsers)
	users.PUT("/:id", userHandler.UpdateUser)
	users.DELETE("/:id", userHandler.DeleteUser)

	// History routes
	api.GET("/history", historyHandler.ListHistory)
	api.DELETE("/history/clear", historyHandler.ClearHistory)
	api.GET("/history/:id", historyHandler.GetHistory)
	api.PUT("/history/:id/update", historyHandler.UpdatePredictions)
	api.DELETE("/history/:id", historyHandler.DeleteHistory)
}

// rejectRevoked refuses tokens on the revocation list. A token that cannot be
// checked is refused as well.
func rejectRevoked(tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, err := auth.TokenFromContext(c)
			if err != nil {
				return handler.RespondError(errors.Unauthorized("invalid token"))
			}
			if claims.ID == "" {
				return next(c)
			}

			revoked, err := tokenStore.IsAccessTokenRevoked(c.Request().Context(), claims.ID)
			if err != nil {
				return handler.RespondError(fmt.Errorf("check token revocation: %w", err))
			}
			if revoked {
				return handler.RespondError(errors.Unauthorized("token has been revoked"))
			}
			return next(c)
		}
	}
}

// resolveCaller turns the token subject into a caller.
func resolveCaller(access service.AccessControl) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			subject, err := auth.SubjectFromContext(c)
			if err != nil {
				return handler.RespondError(errors.Unauthorized("invalid token"))
			}

			caller, err := access.ResolveCaller(c.Request().Context(), subject)
			if err != nil {
				return handler.RespondError(err)
			}
			handler.SetCaller(c, caller)
			return next(c)
		}
	}
}

// requireAdmin refuses non-admin callers before the request is parsed. A
// caller deleting their own account is passed on so the service can refuse
// the self-deletion.
func requireAdmin(access service.AccessControl) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller, err := handler.CallerFromContext(c)
			if err != nil {
				return handler.RespondError(err)
			}
			if err := access.RequireAdmin(caller); err != nil {
				if isSelfDelete(c, caller.ID) {
					return next(c)
				}
				return handler.RespondError(err)
			}
			return next(c)
		}
	}
}

func isSelfDelete(c echo.Context, callerID uint) bool {
	if c.Request().Method != http.MethodDelete {
		return false
	}
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	return err == nil && uint(id) == callerID
}

// errorHandler renders every error in the response envelope and logs server
// failures with their internal cause.
func errorHandler(log *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var he *echo.HTTPError
		if !stderrors.As(err, &he) {
			httpErr := errors.MapErrorToHTTP(err)
			he = echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse()).SetInternal(err)
		}
		if he.Code >= http.StatusInternalServerError {
			cause := he.Internal
			if cause == nil {
				cause = err
			}
			log.Error("request failed",
				zap.Error(cause),
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)
		}

		body, ok := he.Message.(errors.ErrorResponse)
		if !ok {
			message := http.StatusText(he.Code)
			if msg, isString := he.Message.(string); isString && he.Code < http.StatusInternalServerError {
				message = msg
			}
			body = errors.ErrorResponse{Status: errors.StatusError, Error: message, Code: codeForStatus(he.Code)}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(he.Code)
		} else {
			err = c.JSON(he.Code, body)
		}
		if err != nil {
			log.Warn("write error response", zap.Error(err))
		}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "INVALID_OPERATION"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusInternalServerError:
		return "INTERNAL_ERROR"
	}
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
