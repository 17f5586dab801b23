package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ekaya-inc/ekaya-procure/pkg/models"
)

// storedTimeLayouts covers how timestamps come back from SQLite: the driver's
// own format for values we wrote, and CURRENT_TIMESTAMP for column defaults.
var storedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

// timeScanner reads a timestamp column from either store into dest.
type timeScanner struct {
	dest *time.Time
}

func scanTime(dest *time.Time) *timeScanner {
	return &timeScanner{dest: dest}
}

func (s *timeScanner) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		*s.dest = v.UTC()
		return nil
	case string:
		for _, layout := range storedTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				*s.dest = t.UTC()
				return nil
			}
		}
		return fmt.Errorf("unrecognized timestamp %q", v)
	case []byte:
		return s.Scan(string(v))
	case nil:
		*s.dest = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into time.Time", src)
	}
}

// dateScanner reads a nullable DATE/TEXT column into dest.
type dateScanner struct {
	dest **models.Date
}

func scanDate(dest **models.Date) *dateScanner {
	return &dateScanner{dest: dest}
}

func (s *dateScanner) Scan(src any) error {
	if src == nil {
		*s.dest = nil
		return nil
	}
	if str, ok := src.(string); ok && strings.TrimSpace(str) == "" {
		*s.dest = nil
		return nil
	}
	var d models.Date
	if err := d.Scan(src); err != nil {
		return err
	}
	*s.dest = &d
	return nil
}

// jsonText marshals v for a JSONB (PostgreSQL) or TEXT (SQLite) column.
func jsonText(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// dateArg converts an optional date to a query parameter.
func dateArg(d *models.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func now() time.Time {
	return time.Now().UTC()
}
