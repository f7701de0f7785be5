package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

const operatorKey = "operator_id"

// OperatorID returns the operator id JWTAuth stored in the context.
func OperatorID(c echo.Context) (int64, bool) {
	id, ok := c.Get(operatorKey).(int64)
	return id, ok
}

// operatorLabel identifies the caller in rate limit keys; "anon" before
// authentication.
func operatorLabel(c echo.Context) string {
	if id, ok := OperatorID(c); ok {
		return strconv.FormatInt(id, 10)
	}
	return "anon"
}
