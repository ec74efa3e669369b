package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/i474232898/airspace-emissions/internal/chart"
	"github.com/i474232898/airspace-emissions/internal/common"
	"github.com/i474232898/airspace-emissions/internal/emissions"
	"github.com/i474232898/airspace-emissions/internal/store"
	"github.com/i474232898/airspace-emissions/internal/visits"
)

var validate = validator.New()

// Options carries what the handlers need besides the service.
type Options struct {
	Airspaces []chart.EntityID
	Chart     chart.Options
	// Now is the clock used when a request does not pin the time; nil means time.Now.
	Now func() time.Time
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *emissions.Service, tracker *visits.Tracker, opts Options) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	v1 := app.Group("/api/v1")

	v1.Get("/airspaces", func(c *fiber.Ctx) error {
		resp := fiber.Map{"airspaces": opts.Airspaces}

		bounds, err := service.Bounds(c.UserContext(), opts.Airspaces)
		switch {
		case err == nil:
			resp["bounds"] = bounds
		case !errors.Is(err, emissions.ErrNoCatalog):
			log.WithError(err).Warn("airspace bounds unavailable")
		}

		return c.JSON(resp)
	})

	v1.Get("/serverstart", func(c *fiber.Ctx) error {
		started, err := service.ServerStart(c.UserContext())
		if err != nil {
			return catalogError(err, "failed to fetch server start time")
		}
		return c.JSON(fiber.Map{"timestamp": started.Unix()})
	})

	v1.Get("/leaderboard", func(c *fiber.Ctx) error {
		var req leaderboardQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		entries, err := service.Leaderboard(c.UserContext(), req.Limit)
		if err != nil {
			return catalogError(err, "failed to fetch leaderboard")
		}
		return c.JSON(fiber.Map{"leaderboard": entries})
	})

	v1.Get("/chart", func(c *fiber.Ctx) error {
		var req chartQuery
		if err := req.bind(c, opts, now()); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		chartOpts := opts.Chart
		chartOpts.Deltas = req.Deltas
		if req.Fill != "" {
			chartOpts.Fill = chart.FillPolicy(req.Fill)
		}

		result, err := service.Chart(req.Airspaces, time.Unix(req.Now, 0), chartOpts)
		if err != nil {
			switch {
			case errors.Is(err, chart.ErrNoSharedRange):
				return fiber.NewError(fiber.StatusUnprocessableEntity, "no timestamp is shared by all airspaces with data")
			case errors.Is(err, chart.ErrNowBeforeRange):
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
			log.WithError(err).Error("chart build failed")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to build chart")
		}

		return c.JSON(result)
	})

	v1.Get("/airspaces/:name/total", func(c *fiber.Ctx) error {
		airspace := common.NormalizeAirspace(c.Params("name"))
		latest, err := service.Latest(airspace)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no emission data for requested airspace")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch emission data")
		}

		return c.JSON(fiber.Map{
			"airspace":  airspace,
			"timestamp": latest.Timestamp,
			"total":     latest.Value,
		})
	})

	v1.Get("/airspaces/:name/readings", func(c *fiber.Ctx) error {
		var req readingsQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		readings, err := service.Readings(req.Airspace, req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no emission readings for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch emission readings")
		}

		return c.JSON(fiber.Map{
			"airspace": req.Airspace,
			"from":     req.From,
			"to":       req.To,
			"readings": readings,
		})
	})

	v1.Get("/visits", func(c *fiber.Ctx) error {
		visit, err := tracker.Visit(c.Query("client"), now())
		if err != nil {
			log.WithError(err).Error("visit tracking failed")
			return fiber.NewError(fiber.StatusInternalServerError, "failed to record visit")
		}

		since := make([]emissions.Since, 0, len(opts.Airspaces))
		if visit.Previous != nil {
			for _, a := range opts.Airspaces {
				s, err := service.EmissionSince(a, time.Unix(*visit.Previous, 0))
				if err != nil {
					if errors.Is(err, store.ErrNotFound) {
						continue
					}
					return fiber.NewError(fiber.StatusInternalServerError, "failed to compute emission since last visit")
				}
				since = append(since, s)
			}
		}

		return c.JSON(fiber.Map{
			"visit": visit,
			"since": since,
		})
	})
}

// catalogError maps a metadata lookup failure onto an HTTP error.
func catalogError(err error, msg string) error {
	if errors.Is(err, emissions.ErrNoCatalog) {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	log.WithError(err).Error(msg)
	return fiber.NewError(fiber.StatusBadGateway, msg)
}

// leaderboardQuery holds query parameters for the leaderboard endpoint.
type leaderboardQuery struct {
	Limit int `validate:"gte=0,lte=1000"`
}

func (q *leaderboardQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("limit")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("limit must be an integer")
	}
	q.Limit = n
	return nil
}

// chartQuery holds query parameters for the chart endpoint.
type chartQuery struct {
	Airspaces []chart.EntityID `validate:"required,min=1,dive,required"`
	Deltas    bool
	Fill      string `validate:"omitempty,oneof=none zero previous"`
	Now       int64  `validate:"gte=0,lte=253402300799"`
}

func (q *chartQuery) bind(c *fiber.Ctx, opts Options, now time.Time) error {
	q.Airspaces = opts.Airspaces
	if raw := c.Query("airspaces"); raw != "" {
		q.Airspaces = common.ParseAirspaces(raw)
	}

	q.Deltas = opts.Chart.Deltas
	if raw := c.Query("deltas"); raw != "" {
		d, err := strconv.ParseBool(raw)
		if err != nil {
			return errors.New("deltas must be a boolean")
		}
		q.Deltas = d
	}

	q.Fill = c.Query("fill")

	q.Now = now.Unix()
	if raw := c.Query("now"); raw != "" {
		ts, err := parseTime(raw)
		if err != nil {
			return err
		}
		q.Now = ts.Unix()
	}
	return nil
}

// readingsQuery holds parameters for the readings endpoint.
type readingsQuery struct {
	Airspace chart.EntityID `validate:"required"`
	From     time.Time      `validate:"required"`
	To       time.Time      `validate:"required,gtefield=From"`
}

func (r *readingsQuery) bind(c *fiber.Ctx) error {
	r.Airspace = common.NormalizeAirspace(c.Params("name"))

	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	r.From = from
	r.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
