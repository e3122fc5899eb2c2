package config

import (
	"errors"
	"fmt"
	"slices"
)

// validate reports every problem at once
func (c *Config) validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	db := c.Database
	check(db.MaxOpenConns > 0, "database.max_open_conns must be positive")
	check(db.MaxIdleConns >= 0, "database.max_idle_conns cannot be negative")
	check(db.MaxIdleConns <= db.MaxOpenConns,
		"database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)

	check(slices.Contains([]string{"chromedp", "wkhtmltopdf"}, c.Printing.Engine),
		"printing.engine must be chromedp or wkhtmltopdf, got %q", c.Printing.Engine)
	check(c.Printing.Timeout > 0, "printing.timeout must be positive")
	check(c.Asset.MaxBytes >= 0, "asset.max_bytes cannot be negative")
	check(c.HTTP.RateLimitRPS >= 0, "http.rate_limit_rps cannot be negative")
	check(c.Telemetry.SamplingRatio >= 0 && c.Telemetry.SamplingRatio <= 1,
		"telemetry.sampling_ratio must be between 0.0 and 1.0, got %g", c.Telemetry.SamplingRatio)
	check(c.Invoice.LockTTL > 0, "invoice.lock_ttl must be positive")

	switch c.Storage.Driver {
	case "none", "filesystem":
	case "s3":
		check(c.Storage.Bucket != "", "storage.bucket is required for the s3 driver")
	default:
		check(false, "storage.driver must be none, s3 or filesystem, got %q", c.Storage.Driver)
	}

	if c.App.IsProduction() {
		check(db.Password != "", "database.password is required in production")
		check(db.SSLMode != "disable", "database.sslmode cannot be 'disable' in production")
		check(!slices.Contains(c.HTTP.CORSAllowOrigins, "*"), "http.cors_allow_origins cannot be '*' in production")
		check(!c.Telemetry.DBLogFullSQL, "telemetry.db_log_full_sql must be off in production")
	}

	return errors.Join(errs...)
}
