package geo

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	geoip2 "github.com/oschwald/geoip2-golang"
	"github.com/sirupsen/logrus"
)

// ErrNotFound means the address resolved to no postal code. Callers
// treat every resolver failure as non-fatal and search without the
// geographic bias.
var ErrNotFound = errors.New("postal code not found")

const cacheKeyFormat = "geo:postal:%s"
const cacheTTL = time.Hour

// Resolver turns a client IP into a postal code used to bias search
// relevance.
type Resolver interface {
	PostalCode(ctx context.Context, ip string) (string, error)
}

// cityReader is the subset of geoip2.Reader the resolver uses.
type cityReader interface {
	City(net.IP) (*geoip2.City, error)
	Close() error
}

// MaxMindResolver reads a local GeoIP2/GeoLite2 City database and
// memoizes lookups in Redis.
type MaxMindResolver struct {
	db     cityReader
	redis  *redis.Client
	logger *logrus.Logger
}

func NewMaxMindResolver(dbPath string, redisClient *redis.Client, logger *logrus.Logger) (*MaxMindResolver, error) {
	db, err := geoip2.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open GeoIP database: %w", err)
	}
	return &MaxMindResolver{
		db:     db,
		redis:  redisClient,
		logger: logger,
	}, nil
}

func (r *MaxMindResolver) PostalCode(ctx context.Context, ip string) (string, error) {
	key := fmt.Sprintf(cacheKeyFormat, ip)
	if r.redis != nil {
		if cached, err := r.redis.Get(ctx, key).Result(); err == nil && cached != "" {
			return cached, nil
		}
	}

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid IP address %q", ip)
	}

	city, err := r.db.City(parsed)
	if err != nil {
		return "", fmt.Errorf("geo lookup failed: %w", err)
	}

	postal := city.Postal.Code
	if postal == "" {
		return "", ErrNotFound
	}

	if r.redis != nil {
		if err := r.redis.Set(ctx, key, postal, cacheTTL).Err(); err != nil {
			r.logger.WithError(err).Debug("Failed to cache postal code")
		}
	}

	return postal, nil
}

func (r *MaxMindResolver) Close() error {
	return r.db.Close()
}

// ClientIP picks the left-most X-Forwarded-For entry when present,
// otherwise the direct peer address.
func ClientIP(req *http.Request) string {
	if forwarded := req.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
