package middleware

import (
	"strconv"
	"time"

	"github.com/dmitrymomot/onion"
)

// ResponseTime sets the X-Response-Time header to the time spent in the
// rest of the chain, in milliseconds ("12.345ms").
func ResponseTime() onion.Middleware {
	return ResponseTimeWithHeader("X-Response-Time")
}

// ResponseTimeWithHeader is ResponseTime writing to a custom header.
func ResponseTimeWithHeader(header string) onion.Middleware {
	return func(c *onion.Context, next onion.Next) error {
		start := time.Now()
		err := next()
		ms := float64(time.Since(start).Microseconds()) / 1000
		c.Set(header, strconv.FormatFloat(ms, 'f', 3, 64)+"ms")
		return err
	}
}
