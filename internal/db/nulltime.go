package db

import (
	"fmt"
	"time"
)

// sqliteTimeLayout matches CURRENT_TIMESTAMP, which is UTC.
const sqliteTimeLayout = "2006-01-02 15:04:05"

// Layouts accepted when a DATETIME column comes back as text: the
// CURRENT_TIMESTAMP form, the driver's own time.Time encoding, then RFC 3339.
var timeLayouts = []string{
	sqliteTimeLayout,
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

type sqlNullTime struct {
	Time  time.Time
	Valid bool
}

func (nt *sqlNullTime) Scan(value any) error {
	if value == nil {
		nt.Time, nt.Valid = time.Time{}, false
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		nt.Time, nt.Valid = v, true
		return nil
	case string:
		if v == "" {
			nt.Time, nt.Valid = time.Time{}, false
			return nil
		}
		var err error
		for _, layout := range timeLayouts {
			var t time.Time
			if t, err = time.Parse(layout, v); err == nil {
				nt.Time, nt.Valid = t, true
				return nil
			}
		}
		return err
	case []byte:
		return nt.Scan(string(v))
	default:
		return fmt.Errorf("unsupported Scan value for sqlNullTime: %T", value)
	}
}
