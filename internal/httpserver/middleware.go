package httpserver

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/yannouuuu/hotaru/internal/correlation"
	"github.com/yannouuuu/hotaru/internal/domain"
)

const rateLimiterExpiry = 5 * time.Minute

// newRateLimiter limits requests per client IP.
func newRateLimiter(ratePerSecond float64, burst int) echo.MiddlewareFunc {
	store := middleware.NewRateLimiterMemoryStoreWithConfig(
		middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(ratePerSecond),
			Burst:     burst,
			ExpiresIn: rateLimiterExpiry,
		},
	)
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		Store: store,
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return c.JSON(http.StatusTooManyRequests, map[string]string{
				"error": "rate limit exceeded",
			})
		},
	})
}

// correlationMiddleware stamps every request context with a correlation ID
// so request logs and engine logs line up.
func correlationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			ctx := correlation.WithID(req.Context(), correlation.NewID())
			c.SetRequest(req.WithContext(ctx))
			return next(c)
		}
	}
}

// errorMappingMiddleware translates domain sentinels into JSON error
// responses with the right status code.
func errorMappingMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				return err
			}

			status := statusFor(err)
			if status == http.StatusInternalServerError {
				slog.ErrorContext(c.Request().Context(), "Request failed",
					"path", c.Request().URL.Path, "error", err)
			}
			return c.JSON(status, map[string]string{"error": err.Error()})
		}
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidCandidateID),
		errors.Is(err, domain.ErrEmptyBallot),
		errors.Is(err, domain.ErrUnknownResetScope):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrCandidateNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrCandidateExists),
		errors.Is(err, domain.ErrAlreadyVoted):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
