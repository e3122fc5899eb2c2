package config

import (
	"time"

	"github.com/spf13/viper"
)

// defaults lists every key. Keys must be known to viper for INVOICE_*
// overrides to reach Unmarshal, so empty values are listed too.
var defaults = map[string]any{
	"app.name": "invoice-backend",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "invoices",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,

	"redis.enabled":  false,
	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout": 15 * time.Second,
	// cold browsers make the first render slow
	"http.write_timeout":      60 * time.Second,
	"http.idle_timeout":       60 * time.Second,
	"http.max_header_bytes":   1 << 20,
	"http.max_body_size":      int64(2 << 20),
	"http.cors_allow_origins": []string{},
	"http.cors_allow_methods": []string{"GET", "POST", "OPTIONS"},
	"http.cors_allow_headers": []string{"Content-Type", "Authorization", "X-Request-ID"},
	"http.trusted_proxies":    []string{},
	"http.rate_limit_rps":     0.0,
	"http.rate_limit_burst":   0,

	"telemetry.enabled":                 false,
	"telemetry.collector_endpoint":      "localhost:4317",
	"telemetry.sampling_ratio":          1.0,
	"telemetry.service_name":            "invoice-backend",
	"telemetry.insecure":                false,
	"telemetry.metrics_enabled":         false,
	"telemetry.metrics_interval":        60 * time.Second,
	"telemetry.logs_enabled":            false,
	"telemetry.db_trace_enabled":        false,
	"telemetry.db_log_full_sql":         false,
	"telemetry.db_slow_query_threshold": 200 * time.Millisecond,
	"telemetry.profiling_enabled":       false,
	"telemetry.profiling_endpoint":      "http://localhost:4040",

	"printing.engine":            "chromedp",
	"printing.timeout":           30 * time.Second,
	"printing.chrome_remote_url": "",
	"printing.chrome_no_sandbox": false,
	"printing.wkhtmltopdf_path":  "",

	"asset.timeout":    8 * time.Second,
	"asset.max_bytes":  int64(5 << 20),
	"asset.user_agent": "invoice-backend/1.0",

	"storage.driver":             "none",
	"storage.endpoint":           "",
	"storage.region":             "us-east-1",
	"storage.bucket":             "",
	"storage.access_key":         "",
	"storage.secret_key":         "",
	"storage.use_ssl":            false,
	"storage.use_path_style":     false,
	"storage.presign_expiration": 15 * time.Minute,
	"storage.base_path":          "./data/archive",
	"storage.public_base_url":    "",

	"invoice.strict_cache_write": false,
	"invoice.lock_ttl":           30 * time.Second,
	"invoice.idempotency_ttl":    24 * time.Hour,
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
