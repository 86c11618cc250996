package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestFlexTimeDecodesStringAndDate(t *testing.T) {
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	raw, err := bson.Marshal(bson.M{
		"code":      "SAVE10",
		"validFrom": "2025-03-01T00:00:00Z",
		"validTo":   want.AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	var coupon Coupon
	require.NoError(t, bson.Unmarshal(raw, &coupon))

	assert.True(t, coupon.ValidFrom.Equal(want))
	assert.True(t, coupon.ValidTo.Equal(want.AddDate(0, 1, 0)))
}

func TestFlexTimeDecodesDateOnlyString(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"validFrom": "2025-03-01"})
	require.NoError(t, err)

	var coupon Coupon
	require.NoError(t, bson.Unmarshal(raw, &coupon))
	assert.Equal(t, 2025, coupon.ValidFrom.Year())
	assert.Equal(t, time.March, coupon.ValidFrom.Month())
}

func TestFlexTimeRejectsGarbage(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"validFrom": "next tuesday"})
	require.NoError(t, err)

	var coupon Coupon
	assert.Error(t, bson.Unmarshal(raw, &coupon))
}

func TestFlexTimeMarshalsAsDate(t *testing.T) {
	when := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	raw, err := bson.Marshal(Coupon{Code: "X", ValidFrom: NewFlexTime(when)})
	require.NoError(t, err)

	var doc bson.M
	require.NoError(t, bson.Unmarshal(raw, &doc))
	_, isString := doc["validFrom"].(string)
	assert.False(t, isString)
}

func TestFlexTimeJSONRoundsThroughRFC3339(t *testing.T) {
	var coupon Coupon
	require.NoError(t, json.Unmarshal([]byte(`{"code":"X","validFrom":"2025-06-01T12:00:00Z"}`), &coupon))
	assert.Equal(t, 12, coupon.ValidFrom.Hour())
}
