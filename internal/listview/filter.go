package listview

import (
	"strings"
	"time"
)

// AnyValue is the select option that disables an enum criterion.
const AnyValue = "Any"

const dateLayout = "2006-01-02"

type Predicate[T any] func(T) bool

// Filter keeps the records every predicate accepts, in their original order.
// It never modifies items.
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
next:
	for _, item := range items {
		for _, pred := range preds {
			if pred != nil && !pred(item) {
				continue next
			}
		}
		out = append(out, item)
	}
	return out
}

// DateRange bounds a timestamp by calendar day. From and To are YYYY-MM-DD
// and either may be empty. A bound that does not parse is ignored.
type DateRange struct {
	From string
	To   string
}

func (d DateRange) IsZero() bool {
	return strings.TrimSpace(d.From) == "" && strings.TrimSpace(d.To) == ""
}

// Contains reports start-of-day(From) <= ts <= end-of-day(To), with both
// days taken in loc.
func (d DateRange) Contains(ts time.Time, loc *time.Location) bool {
	if loc == nil {
		loc = time.Local
	}
	if start, ok := parseDay(d.From, loc); ok && ts.Before(start) {
		return false
	}
	if day, ok := parseDay(d.To, loc); ok {
		end := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		if ts.After(end) {
			return false
		}
	}
	return true
}

func parseDay(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation(dateLayout, value, loc)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type TextMatch struct {
	Term string
}

// Match tests the term against the first non-empty field, so callers list
// fields in fallback order.
func (m TextMatch) Match(fields ...string) bool {
	term := strings.ToLower(strings.TrimSpace(m.Term))
	if term == "" {
		return true
	}
	for _, field := range fields {
		if strings.TrimSpace(field) == "" {
			continue
		}
		return strings.Contains(strings.ToLower(field), term)
	}
	return false
}

// EnumMatch is exact equality. "Any" and the empty string match everything.
type EnumMatch struct {
	Value string
}

func (m EnumMatch) Bypass() bool {
	v := strings.TrimSpace(m.Value)
	return v == "" || strings.EqualFold(v, AnyValue)
}

func (m EnumMatch) Match(value string) bool {
	return m.Bypass() || strings.TrimSpace(m.Value) == value
}

type ExperienceBucket struct {
	Key   string
	Label string
	Min   int
	// Max is inclusive. A negative Max makes the bucket open-ended and its
	// lower bound exclusive.
	Max int
}

// ExperienceBuckets are the options of the applicant experience filter.
// Closed buckets include both ends, so 1 is in both "0-1" and "1-2", and
// "5+" means strictly more than five years.
var ExperienceBuckets = []ExperienceBucket{
	{Key: "0-1", Label: "0–1 Year", Min: 0, Max: 1},
	{Key: "1-2", Label: "1–2 Years", Min: 1, Max: 2},
	{Key: "3-5", Label: "3–5 Years", Min: 3, Max: 5},
	{Key: "5+", Label: "5+ Years", Min: 5, Max: -1},
}

func LookupExperienceBucket(key string) (ExperienceBucket, bool) {
	key = strings.TrimSpace(key)
	for _, b := range ExperienceBuckets {
		if b.Key == key {
			return b, true
		}
	}
	return ExperienceBucket{}, false
}

func (b ExperienceBucket) Contains(years int) bool {
	if b.Max < 0 {
		return years > b.Min
	}
	return years >= b.Min && years <= b.Max
}

// MatchExperience applies the bucket named by key. An empty or unknown key
// matches everything; a record without a value matches no bucket.
func MatchExperience(key string, years *int) bool {
	bucket, ok := LookupExperienceBucket(key)
	if !ok {
		return true
	}
	if years == nil {
		return false
	}
	return bucket.Contains(*years)
}
