package cfg

import (
	"errors"
	"os"
	"time"
)

// Loader accumulates env parsing errors so Load can report every missing
// or invalid setting at once instead of failing on the first.
type Loader struct {
	errs []error
}

func NewLoader() *Loader {
	return &Loader{errs: make([]error, 0)}
}

func (l *Loader) HasErrors() bool {
	return len(l.errs) > 0
}

func (l *Loader) Error() error {
	if len(l.errs) > 0 {
		return errors.Join(l.errs...)
	}
	return nil
}

func (l *Loader) requireEnv(key string) string {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		l.errs = append(l.errs, errors.New("missing env: "+key))
	}
	return value
}

func (l *Loader) getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func (l *Loader) getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		l.errs = append(l.errs, errors.New("invalid duration for "+key+": "+value))
	}
	return defaultValue
}
