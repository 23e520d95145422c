package main

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

const stubPageLimit = 1000

// stubStations is the fixed station inventory served by the metadata
// endpoints.
var stubStations = []fiber.Map{
	{
		"id": "GHCND:US1PAAL0001", "name": "PITTSBURGH 1.2 NE, PA US",
		"latitude": 40.46, "longitude": -79.95,
		"mindate": "2008-07-01", "maxdate": "2024-12-31", "datacoverage": 0.97,
	},
	{
		"id": "GHCND:USW00094823", "name": "PITTSBURGH INTERNATIONAL AIRPORT, PA US",
		"latitude": 40.48, "longitude": -80.21,
		"mindate": "1948-01-01", "maxdate": "2024-12-31", "datacoverage": 1.0,
	},
}

func registerRoutes(app *fiber.App) {
	v2 := app.Group("/cdo-web/api/v2")

	v2.Get("/data", func(c *fiber.Ctx) error {
		if c.Get("token") == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "token required")
		}
		start, err1 := time.Parse("2006-01-02", c.Query("startdate"))
		end, err2 := time.Parse("2006-01-02", c.Query("enddate"))
		if err1 != nil || err2 != nil || start.After(end) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date range")
		}

		limit, _ := strconv.Atoi(c.Query("limit", "1000"))
		if limit <= 0 || limit > stubPageLimit {
			limit = stubPageLimit
		}
		offset, _ := strconv.Atoi(c.Query("offset", "1"))
		if offset < 1 {
			offset = 1
		}

		records := syntheticRecords(c.Query("stationid"), c.Query("datatypeid", "PRCP"), start, end)
		total := len(records)

		from := offset - 1
		if from > total {
			from = total
		}
		to := from + limit
		if to > total {
			to = total
		}

		return c.JSON(fiber.Map{
			"metadata": fiber.Map{
				"resultset": fiber.Map{"count": total, "limit": limit, "offset": offset},
			},
			"results": records[from:to],
		})
	})

	v2.Get("/stations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"results": stubStations})
	})

	v2.Get("/datasets", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"results": []fiber.Map{
				{"id": "GHCND", "name": "Daily Summaries", "mindate": "1763-01-01", "maxdate": "2024-12-31"},
				{"id": "GSOM", "name": "Global Summary of the Month", "mindate": "1763-01-01", "maxdate": "2024-12-01"},
			},
		})
	})

	v2.Get("/datatypes", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"results": []fiber.Map{
				{"id": "PRCP", "name": "Precipitation", "mindate": "1781-01-01", "maxdate": "2024-12-31"},
				{"id": "SNOW", "name": "Snowfall", "mindate": "1840-01-01", "maxdate": "2024-12-31"},
			},
		})
	})

	// ADS-shaped endpoint: raw station ids, flat JSON array, datatype-named
	// value column.
	app.Get("/access/services/data/v1", func(c *fiber.Ctx) error {
		start, err1 := time.Parse("2006-01-02", c.Query("startDate"))
		end, err2 := time.Parse("2006-01-02", c.Query("endDate"))
		if err1 != nil || err2 != nil || start.After(end) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid date range")
		}

		datatype := c.Query("dataTypes", "PRCP")
		var records []fiber.Map
		for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
			records = append(records, fiber.Map{
				"DATE":    cur.Format("2006-01-02"),
				"STATION": c.Query("stations"),
				datatype:  fmt.Sprintf("%.2f", syntheticValue(cur)),
			})
		}
		return c.JSON(records)
	})
}

// syntheticRecords generates one CDO-shaped record per day in [start, end].
func syntheticRecords(stationID, datatype string, start, end time.Time) []fiber.Map {
	var records []fiber.Map
	for cur := start; !cur.After(end); cur = cur.AddDate(0, 0, 1) {
		records = append(records, fiber.Map{
			"date":     cur.Format("2006-01-02") + "T00:00:00",
			"datatype": datatype,
			"station":  stationID,
			"value":    syntheticValue(cur),
		})
	}
	return records
}

// syntheticValue derives a deterministic non-negative rainfall depth from
// the date, so repeated runs produce identical fixtures.
func syntheticValue(day time.Time) float64 {
	phase := float64(day.YearDay()) / 366.0 * 2 * math.Pi
	v := 0.15 * (1 + math.Sin(phase)) * float64(day.Day()%5)
	return math.Round(v*100) / 100
}
