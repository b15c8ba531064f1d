package entity

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// DeliveryDate carries the day-granular target date across the JSON and SQL
// boundaries. Incoming payloads may send either a bare date or a full
// timestamp; only the calendar day is meaningful.
type DeliveryDate struct {
	time.Time
}

const deliveryDateLayout = "2006-01-02"

func (d *DeliveryDate) UnmarshalJSON(b []byte) error {
	if len(b) < 2 || b[0] != '"' || b[len(b)-1] != '"' {
		return fmt.Errorf("invalid delivery date %s: expected a quoted string", string(b))
	}
	s := string(b[1 : len(b)-1]) // Remove quotes
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, err = time.ParseInLocation(deliveryDateLayout, s, time.Local)
		if err != nil {
			return fmt.Errorf("invalid delivery date %q: expected RFC3339 or YYYY-MM-DD", s)
		}
	}
	d.Time = t
	return nil
}

func (d DeliveryDate) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(time.RFC3339) + `"`), nil
}

func (d DeliveryDate) Value() (driver.Value, error) {
	return d.Time, nil
}

func (d *DeliveryDate) Scan(value interface{}) error {
	if value == nil {
		return nil
	}

	switch v := value.(type) {
	case time.Time:
		d.Time = v
	case []byte:
		t, err := time.Parse("2006-01-02 15:04:05", string(v))
		if err != nil {
			return err
		}
		d.Time = t
	default:
		return fmt.Errorf("cannot scan type %T into DeliveryDate", value)
	}
	return nil
}
