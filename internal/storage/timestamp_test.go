package storage

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimestamp(t *testing.T) {
	utc := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, time.UTC)
	}
	cases := map[string]time.Time{
		"2026-01-14T15:00:00Z":      utc(2026, 1, 14, 15, 0),
		"2026-01-14T10:00:00-05:00": utc(2026, 1, 14, 15, 0),
		"2026-01-14T15:00:00":       utc(2026, 1, 14, 15, 0),
		"2026-01-14 15:00:00":       utc(2026, 1, 14, 15, 0),
		"2026-01-14":                utc(2026, 1, 14, 0, 0),
		"1768402800":                utc(2026, 1, 14, 15, 0),
	}
	for in, want := range cases {
		got := ParseTimestamp(in)
		assert.True(t, want.Equal(got), "%s: got %v", in, got)
	}

	assert.True(t, ParseTimestamp("").IsZero())
	assert.True(t, ParseTimestamp("yesterday").IsZero())
}

func TestTimestampAttributeRoundTrip(t *testing.T) {
	ts := Timestamp{Time: time.Unix(1768402800, 0)}
	av, err := ts.MarshalDynamoDBAttributeValue()
	require.NoError(t, err)
	assert.Equal(t, &types.AttributeValueMemberN{Value: "1768402800"}, av)

	var back Timestamp
	require.NoError(t, back.UnmarshalDynamoDBAttributeValue(av))
	assert.True(t, back.Equal(ts.Time))

	require.NoError(t, back.UnmarshalDynamoDBAttributeValue(&types.AttributeValueMemberBOOL{Value: true}))
	assert.Nil(t, back.Ptr())
}
