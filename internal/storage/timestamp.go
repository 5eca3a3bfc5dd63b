package storage

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Timestamp is stored as integer unix seconds. On read it also accepts
// fractional seconds and ISO-8601 strings, since some attributes are set by
// hand in the console. Anything unparseable reads as the zero time.
type Timestamp struct {
	time.Time
}

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (t Timestamp) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	if t.IsZero() {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (t *Timestamp) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	t.Time = time.Time{}
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		t.Time = parseUnix(v.Value)
	case *types.AttributeValueMemberS:
		t.Time = ParseTimestamp(v.Value)
	}
	return nil
}

// Ptr returns nil for the zero time.
func (t *Timestamp) Ptr() *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

// NewTimestamp wraps p, returning nil for nil.
func NewTimestamp(p *time.Time) *Timestamp {
	if p == nil || p.IsZero() {
		return nil
	}
	return &Timestamp{Time: *p}
}

// ParseTimestamp reads unix seconds or an ISO-8601 string with an optional
// trailing Z. Strings without an offset are taken as UTC.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	if ts := parseUnix(s); !ts.IsZero() {
		return ts
	}
	for _, layout := range isoLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func parseUnix(s string) time.Time {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

// Step is a sequence step stored as a number. Hand-edited items sometimes
// hold it as a string; those are read as integers too. A value that is not
// an integer reads as -1 so the contact is treated as malformed, not reset.
type Step int

// MarshalDynamoDBAttributeValue implements attributevalue.Marshaler.
func (s Step) MarshalDynamoDBAttributeValue() (types.AttributeValue, error) {
	return &types.AttributeValueMemberN{Value: strconv.Itoa(int(s))}, nil
}

// UnmarshalDynamoDBAttributeValue implements attributevalue.Unmarshaler.
func (s *Step) UnmarshalDynamoDBAttributeValue(av types.AttributeValue) error {
	*s = 0
	switch v := av.(type) {
	case *types.AttributeValueMemberN:
		*s = parseStep(v.Value)
	case *types.AttributeValueMemberS:
		*s = parseStep(v.Value)
	}
	return nil
}

func parseStep(raw string) Step {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return -1
	}
	return Step(n)
}
