package models

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// FlexTime decodes coupon validity bounds whether they were stored as a BSON
// date or as an RFC3339 string.
type FlexTime struct {
	time.Time
}

func NewFlexTime(t time.Time) FlexTime {
	return FlexTime{Time: t}
}

// UnmarshalBSONValue accepts date, string and null values so legacy
// documents decode without failing the whole request.
func (f *FlexTime) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	switch t {
	case bsontype.Null, bsontype.Undefined:
		f.Time = time.Time{}
		return nil
	case bsontype.DateTime:
		var value time.Time
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}
		f.Time = value.UTC()
		return nil
	case bsontype.String:
		var value string
		if err := bson.UnmarshalValue(t, data, &value); err != nil {
			return err
		}

		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			f.Time = time.Time{}
			return nil
		}
		parsed, err := parseFlexTime(trimmed)
		if err != nil {
			return err
		}
		f.Time = parsed
		return nil
	default:
		return fmt.Errorf("cannot decode %s into FlexTime", t)
	}
}

// MarshalBSONValue always stores a BSON date.
func (f FlexTime) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(f.Time)
}

func parseFlexTime(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time value %q", value)
}
