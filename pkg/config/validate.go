package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/multierr"
)

// assembleDSN builds a postgres URL from the individual DB variables when no
// DSN was given.
func (db *DBConfig) assembleDSN() error {
	if db.DSN != "" {
		return nil
	}
	var missing []string
	for env, value := range map[string]string{EnvDBHost: db.Host, EnvDBUser: db.User, EnvDBName: db.Name} {
		if value == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.User(db.User),
		Host:   db.Host + ":" + strconv.Itoa(db.Port),
		Path:   db.Name,
	}
	if db.Password != "" {
		u.User = url.UserPassword(db.User, db.Password)
	}
	if db.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {db.SSLMode}}.Encode()
	}
	db.DSN = u.String()
	return nil
}

func (c *Config) validate() error {
	var err error
	check := func(ok bool, msg string) {
		if !ok {
			err = multierr.Append(err, errors.New(msg))
		}
	}
	s := c.Shipping
	check(s.StandardFeeCents >= 0 && s.ExpressFeeCents >= 0 && s.PickupFeeCents >= 0, "shipping fees must not be negative")
	check(s.FreeThresholdCents >= 0 && s.RemoteSurchargeCents >= 0, "shipping threshold and surcharge must not be negative")
	check(c.Checkout.RetryAttempts > 0, "checkout retry attempts must be positive")
	check(c.Outbox.MaxAttempts > 0, "outbox max attempts must be positive")
	check(c.Outbox.BatchSize > 0, "outbox batch size must be positive")
	check(c.Cron.Interval > 0, "cron interval must be positive")
	if c.FeatureFlags.GatewayPayments {
		check(c.Square.AccessToken != "" && c.Square.LocationID != "", "gateway payments need a square access token and location id")
	}
	if env := c.Square.Environment(); env != "sandbox" && env != "production" {
		check(false, fmt.Sprintf("unknown square environment %q", env))
	}
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// splitCSV trims and drops empty entries; transform, when set, is applied to each.
func splitCSV(raw string, transform func(string) string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if transform != nil {
			part = transform(part)
		}
		out = append(out, part)
	}
	return out
}
