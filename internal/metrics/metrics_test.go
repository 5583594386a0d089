package metrics

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareCountsByRoute(t *testing.T) {
	m := New(prometheus.NewRegistry())

	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/spots/:id", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.ErrTeapot })

	for _, path := range []string{"/spots/1", "/spots/2", "/boom"} {
		_, err := app.Test(httptest.NewRequest("GET", path, nil))
		require.NoError(t, err)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/spots/:id", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestCounter.WithLabelValues("GET", "/boom", "418")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RequestsInFlight))
}

func TestDomainCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ReportCreated("public")
	m.ReportCreated("public")
	m.ReportRejected("cooldown")
	m.FriendTransition("accept")
	m.ReadDefaulted("friend_status")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ReportsCreated.WithLabelValues("public")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ReportsRejected.WithLabelValues("cooldown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FriendTransitions.WithLabelValues("accept")))

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.ReportCreated("public") })
}
