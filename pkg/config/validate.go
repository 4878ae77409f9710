package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/matzehuels/ruleflow/pkg/errors"
)

// validate is a singleton validator instance reporting TOML key names.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("toml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every section. The first violation is returned as an
// INVALID_CONFIG error naming the key.
func (c *Config) Validate() error {
	if err := validate.Struct(&c.Render); err != nil {
		return formatValidationError("render", err)
	}
	if err := validate.Struct(&c.Trace); err != nil {
		return formatValidationError("trace", err)
	}
	if err := validate.Struct(&c.Cache); err != nil {
		// Redis settings only matter for the redis backend.
		if c.Cache.Backend == BackendRedis || !onlyRedisErrors(err) {
			return formatValidationError("cache", err)
		}
	}
	if err := validate.Struct(&c.Serve); err != nil {
		return formatValidationError("serve", err)
	}

	if c.Cache.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.ttl: must not be negative")
	}
	if d := c.Watch.Debounce.Duration; d < 0 || d > time.Minute {
		return errors.New(errors.ErrCodeInvalidConfig, "watch.debounce: must be between 0 and 1m, got %s", d)
	}
	if c.Serve.Timeout.Duration <= 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "serve.timeout: must be positive")
	}
	return nil
}

func onlyRedisErrors(err error) bool {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	for _, e := range verrs {
		if !strings.HasPrefix(e.StructNamespace(), "CacheConfig.Redis.") {
			return false
		}
	}
	return true
}

func formatValidationError(section string, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", section)
	}

	// Return the first validation error in a user-friendly format
	e := verrs[0]
	_, key, _ := strings.Cut(e.Namespace(), ".")
	field := section + "." + key
	switch e.Tag() {
	case "required":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: field is required", field)
	case "oneof":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: %v is not one of: %s", field, e.Value(), e.Param())
	case "min":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must have at least %s entries", field, e.Param())
	case "gt", "gte":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must be greater than %s", field, e.Param())
	case "lte":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: must not exceed %s", field, e.Param())
	case "hostname_port":
		return errors.New(errors.ErrCodeInvalidConfig, "%s: %q is not a host:port address", field, e.Value())
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "%s: validation failed (%s)", field, e.Tag())
	}
}
