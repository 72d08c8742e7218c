package tasks

import (
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/monthlies/internal/models"
	"github.com/desertthunder/monthlies/internal/shared"
)

// DefaultBucketCap is the most tracks a single month can hold.
const DefaultBucketCap = 10000

const addedAtLayout = "2006-01-02T15:04:05Z"

// MonthKey identifies a calendar month by its zero-padded year and month.
type MonthKey struct {
	Year  string // "2016"
	Month string // "10"
}

// Name is the playlist name for the month, "MM YYYY".
func (k MonthKey) Name() string {
	return k.Month + " " + k.Year
}

func (k MonthKey) String() string {
	return k.Year + "-" + k.Month
}

func (k MonthKey) less(o MonthKey) bool {
	if k.Year != o.Year {
		return k.Year < o.Year
	}
	return k.Month < o.Month
}

// ParseMonthKey extracts the month of a saved-track timestamp (YYYY-MM-DDTHH:MM:SSZ).
func ParseMonthKey(ts string) (MonthKey, error) {
	t, err := time.Parse(addedAtLayout, ts)
	if err != nil {
		return MonthKey{}, &shared.MalformedTimestampError{Value: ts, Err: err}
	}

	return MonthKey{
		Year:  fmt.Sprintf("%04d", t.Year()),
		Month: fmt.Sprintf("%02d", int(t.Month())),
	}, nil
}

// Buckets groups tracks by year, then month. Each bucket keeps insertion order and holds at most cap tracks.
type Buckets struct {
	cap     int
	years   map[string]map[string][]models.Track
	dropped map[MonthKey]int
}

// NewBuckets creates an empty [Buckets]. A non-positive cap uses [DefaultBucketCap].
func NewBuckets(capacity int) *Buckets {
	if capacity <= 0 {
		capacity = DefaultBucketCap
	}
	return &Buckets{
		cap:     capacity,
		years:   make(map[string]map[string][]models.Track),
		dropped: make(map[MonthKey]int),
	}
}

// Add appends t to the bucket for key, creating it if needed. Returns false if the bucket is full and t was dropped.
func (b *Buckets) Add(key MonthKey, t models.Track) bool {
	months, ok := b.years[key.Year]
	if !ok {
		months = make(map[string][]models.Track)
		b.years[key.Year] = months
	}

	if len(months[key.Month]) >= b.cap {
		b.dropped[key]++
		return false
	}

	months[key.Month] = append(months[key.Month], t)
	return true
}

// Get returns the tracks in the bucket for key.
func (b *Buckets) Get(key MonthKey) []models.Track {
	return b.years[key.Year][key.Month]
}

// Keys returns every non-empty bucket, oldest month first.
func (b *Buckets) Keys() []MonthKey {
	var keys []MonthKey
	for year, months := range b.years {
		for month, tracks := range months {
			if len(tracks) > 0 {
				keys = append(keys, MonthKey{Year: year, Month: month})
			}
		}
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i].less(keys[j]) })
	return keys
}

// Len is the number of non-empty buckets.
func (b *Buckets) Len() int {
	return len(b.Keys())
}

// Dropped is the number of tracks rejected by the full bucket for key.
func (b *Buckets) Dropped(key MonthKey) int {
	return b.dropped[key]
}

// TotalDropped is the number of tracks rejected across all buckets.
func (b *Buckets) TotalDropped() int {
	n := 0
	for _, d := range b.dropped {
		n += d
	}
	return n
}

// Bucketize groups tracks by the month they were saved, preserving their order within each month.
//
// Tracks beyond capacity in a month are dropped; the first drop per month is logged. A malformed timestamp aborts
// bucketizing.
func Bucketize(tracks []models.Track, capacity int, logger *log.Logger) (*Buckets, error) {
	if logger == nil {
		logger = shared.DiscardLogger()
	}

	b := NewBuckets(capacity)
	for _, t := range tracks {
		key, err := ParseMonthKey(t.AddedAt)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", t.URI, err)
		}

		if !b.Add(key, t) && b.Dropped(key) == 1 {
			logger.Warn("bucket full, dropping tracks", "month", key.Name(), "cap", b.cap)
		}
	}

	return b, nil
}
