package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate checks every section against its struct-tag rules and the
// cross-field constraints the tags cannot express.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := validate.Struct(c); err != nil {
		var errs validator.ValidationErrors
		if errors.As(err, &errs) {
			messages := make([]string, 0, len(errs))
			for _, e := range errs {
				messages = append(messages, describe(e))
			}
			return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(messages, "\n  "))
		}
		return fmt.Errorf("configuration validation error: %w", err)
	}

	if c.Discovery.Concurrency > c.Browser.MaxPages {
		return fmt.Errorf("configuration validation failed:\n  discovery.concurrency (%d) exceeds browser.max_pages (%d)",
			c.Discovery.Concurrency, c.Browser.MaxPages)
	}

	return nil
}

// describe turns a field error into "section.key: rule" using YAML key names.
func describe(e validator.FieldError) string {
	field := yamlPath(e.Namespace())
	msg := fmt.Sprintf("%s: failed rule '%s'", field, e.Tag())
	if e.Param() != "" {
		msg += fmt.Sprintf(" (expected: %s)", e.Param())
	}
	if v := e.Value(); v != nil && v != "" {
		msg += fmt.Sprintf(", actual: '%v'", v)
	}
	return msg
}

// yamlPath drops the root struct name from "Config.browser.max_pages".
func yamlPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}
