// Package flatten maps heterogeneous raw post records into the uniform
// post table consumed by the analytics pipeline.
package flatten

import (
	"context"
	"time"

	"github.com/okian/campwatch/internal/domain/dedupe"
	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/internal/domain/normalize"
	"github.com/okian/campwatch/pkg/logger"
)

// timestampLayouts are tried in order when parsing created_at. The
// upstream API emits RFC3339, but offline samples are looser.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Flattener turns raw records into Post rows.
type Flattener struct {
	logger logger.Logger
}

// Option applies a configuration option to the Flattener.
type Option func(*Flattener)

// WithLogger sets a custom logger for the flattener.
func WithLogger(l logger.Logger) Option {
	return func(f *Flattener) {
		if l != nil {
			f.logger = l
		}
	}
}

// New creates a Flattener.
func New(opts ...Option) *Flattener {
	f := &Flattener{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Result carries the flattened table plus bookkeeping about dropped rows.
type Result struct {
	Posts             []model.Post
	DuplicatesDropped int
}

// Flatten maps each raw record to a Post with explicit defaults for
// every missing field. Records whose created_at cannot be parsed keep a
// zero Bucket and are excluded from temporal aggregation only. Records
// reusing an already-seen id are dropped, first occurrence wins.
//
// Flatten never fails; a nil or empty batch yields an empty table.
func (f *Flattener) Flatten(ctx context.Context, records []model.RawRecord) Result {
	posts := make([]model.Post, 0, len(records))
	seen := dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(0))
	dropped := 0

	for _, r := range records {
		if seen.SeenAndRecord(ctx, r.ID) {
			dropped++
			if f.logger != nil {
				f.logger.Debug(ctx, "dropping duplicate post id", logger.String("id", r.ID))
			}
			continue
		}

		createdAt, bucket := parseBucket(r.CreatedAt)
		posts = append(posts, model.Post{
			ID:             r.ID,
			Text:           r.Text,
			NormalizedText: normalize.Text(r.Text),
			CreatedAt:      createdAt,
			AuthorID:       r.AuthorID,
			Username:       r.Username(),
			Bucket:         bucket,
			Metrics:        r.Metrics(),
			Lang:           r.Lang,
			Mentions:       r.MentionUsernames(),
			Hashtags:       r.HashtagTags(),
			References:     r.References(),
		})
	}

	return Result{Posts: posts, DuplicatesDropped: dropped}
}

// parseBucket parses a created_at value to an absolute UTC instant and
// its minute bucket. Unparsable or absent timestamps yield zero values.
func parseBucket(raw string) (createdAt, bucket time.Time) {
	if raw == "" {
		return time.Time{}, time.Time{}
	}
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, raw)
		if err != nil {
			continue
		}
		ts = ts.UTC()
		return ts, ts.Truncate(time.Minute)
	}
	return time.Time{}, time.Time{}
}
