package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"clfadmin/internal/errors"
	"clfadmin/internal/model"
)

// CallerKey is where the router stores the resolved caller.
const CallerKey = "caller"

// SuccessResponse is the minimal success envelope.
type SuccessResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// SetCaller stores the resolved caller on the request context.
func SetCaller(c echo.Context, caller *model.User) {
	c.Set(CallerKey, caller)
}

// CallerFromContext returns the caller resolved by the router middleware.
func CallerFromContext(c echo.Context) (*model.User, error) {
	caller, ok := c.Get(CallerKey).(*model.User)
	if !ok || caller == nil {
		return nil, errors.Unauthorized("invalid token")
	}
	return caller, nil
}

// RespondError converts a service error into the error envelope. Internal
// causes stay attached for the server log only.
func RespondError(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	he := echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
	if errors.IsInternal(err) {
		he.SetInternal(err)
	}
	return he
}

func badRequest(message string) error {
	return RespondError(errors.InvalidOperation(message))
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryInt returns the named query parameter, or 0 when it is missing or not an integer.
func queryInt(c echo.Context, name string) int {
	v, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0
	}
	return v
}
