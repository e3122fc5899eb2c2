package invoice

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ConfigIDPrefix prefixes generated configuration identifiers
const ConfigIDPrefix = "invcfg_"

// NewConfigID generates a prefixed configuration identifier
func NewConfigID() string {
	return ConfigIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Config is the tenant's invoice configuration. There is at most one record;
// every field is optional and blank fields are left out of documents.
type Config struct {
	ID             string
	CompanyName    string
	CompanyAddress string
	CompanyPhone   string
	CompanyEmail   string
	CompanyLogo    string
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ConfigUpdate carries a partial update. Nil fields are left untouched.
type ConfigUpdate struct {
	CompanyName    *string
	CompanyAddress *string
	CompanyPhone   *string
	CompanyEmail   *string
	CompanyLogo    *string
	Notes          *string
}

// Apply copies the set fields of u into c and reports whether anything changed
func (c *Config) Apply(u ConfigUpdate) bool {
	changed := false
	set := func(dst *string, src *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if *dst != v {
			*dst = v
			changed = true
		}
	}
	set(&c.CompanyName, u.CompanyName)
	set(&c.CompanyAddress, u.CompanyAddress)
	set(&c.CompanyPhone, u.CompanyPhone)
	set(&c.CompanyEmail, u.CompanyEmail)
	set(&c.CompanyLogo, u.CompanyLogo)
	set(&c.Notes, u.Notes)
	if changed {
		c.UpdatedAt = time.Now()
	}
	return changed
}

// HasLogo reports whether a logo URL is configured
func (c *Config) HasLogo() bool {
	return c != nil && strings.TrimSpace(c.CompanyLogo) != ""
}
