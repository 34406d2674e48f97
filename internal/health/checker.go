package health

import (
	"net/http"
	"os"
	"time"

	"github.com/dmaher/gearbay/internal/database"
	"github.com/sirupsen/logrus"
)

// HealthChecker probes the dependencies behind the catalog: PostgreSQL,
// Redis, the marketplace provider endpoint and the GeoIP database file.
type HealthChecker struct {
	dbManager  *database.Manager
	logger     *logrus.Logger
	findingURL string
	geoDBPath  string
	httpClient *http.Client
}

func NewHealthChecker(dbManager *database.Manager, logger *logrus.Logger, findingURL, geoDBPath string) *HealthChecker {
	return &HealthChecker{
		dbManager:  dbManager,
		logger:     logger,
		findingURL: findingURL,
		geoDBPath:  geoDBPath,
		httpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

// ServiceHealth represents the health status of a dependency
type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

// OverallHealth represents the overall system health
type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}

// CheckPostgreSQL checks catalog database health
func (h *HealthChecker) CheckPostgreSQL() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingDatabase()
	return h.report("postgresql", start, err)
}

// CheckRedis checks the geo-cache health
func (h *HealthChecker) CheckRedis() ServiceHealth {
	start := time.Now()
	err := h.dbManager.PingRedis()
	return h.report("redis", start, err)
}

// CheckProvider checks that the marketplace endpoint is reachable. Any
// HTTP response counts; an unauthenticated probe still proves the path.
func (h *HealthChecker) CheckProvider() ServiceHealth {
	start := time.Now()

	resp, err := h.httpClient.Head(h.findingURL)
	if resp != nil {
		resp.Body.Close()
	}

	return h.report("ebay", start, err)
}

// CheckGeoDatabase verifies the GeoIP file is present. A missing
// database degrades searches but does not break them.
func (h *HealthChecker) CheckGeoDatabase() ServiceHealth {
	start := time.Now()

	var err error
	if h.geoDBPath != "" {
		_, err = os.Stat(h.geoDBPath)
	}

	check := h.report("geoip", start, err)
	if h.geoDBPath == "" {
		check.Status = "degraded"
		check.Error = "no GeoIP database configured"
	}
	return check
}

// CheckAll aggregates every dependency check.
func (h *HealthChecker) CheckAll() OverallHealth {
	services := []ServiceHealth{
		h.CheckPostgreSQL(),
		h.CheckRedis(),
		h.CheckProvider(),
		h.CheckGeoDatabase(),
	}

	status := "healthy"
	for _, svc := range services {
		switch svc.Status {
		case "unhealthy":
			status = "unhealthy"
		case "degraded":
			if status == "healthy" {
				status = "degraded"
			}
		}
	}

	return OverallHealth{Status: status, Services: services}
}

func (h *HealthChecker) report(name string, start time.Time, err error) ServiceHealth {
	responseTime := int(time.Since(start).Milliseconds())

	status := "healthy"
	errorMsg := ""
	if err != nil {
		status = "unhealthy"
		errorMsg = err.Error()
		h.logger.WithError(err).WithField("service", name).Error("Health check failed")
	}

	return ServiceHealth{
		Name:         name,
		Status:       status,
		ResponseTime: responseTime,
		Error:        errorMsg,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
}
