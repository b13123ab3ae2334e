package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// BodyLimit returns middleware that rejects request bodies larger than the
// given limit with HTTP 413. Limits are human-readable strings: "5M", "512K",
// "1G"; a bare number is treated as bytes. Document uploads carry base64
// image/PDF payloads, so the default limit is megabytes, not kilobytes.
func BodyLimit(limit string) echo.MiddlewareFunc {
	max := parseLimit(limit)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}
			if req.ContentLength > max {
				return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "request body too large")
			}
			req.Body = http.MaxBytesReader(c.Response(), req.Body, max)
			return next(c)
		}
	}
}

func parseLimit(limit string) int64 {
	limit = strings.TrimSpace(strings.ToUpper(limit))
	if limit == "" {
		return 5 << 20
	}
	mult := int64(1)
	switch {
	case strings.HasSuffix(limit, "G"):
		mult = 1 << 30
		limit = strings.TrimSuffix(limit, "G")
	case strings.HasSuffix(limit, "M"):
		mult = 1 << 20
		limit = strings.TrimSuffix(limit, "M")
	case strings.HasSuffix(limit, "K"):
		mult = 1 << 10
		limit = strings.TrimSuffix(limit, "K")
	}
	n, err := strconv.ParseInt(limit, 10, 64)
	if err != nil || n <= 0 {
		return 5 << 20
	}
	return n * mult
}
