// Package export writes analysis artifacts as CSV files.
//
// Column contracts:
//   - tweets.csv: the flattened post table
//   - timeseries.csv: bucket,count,zscore,anomaly
//   - similarity_clusters.csv: cluster_id,tweet_id,username,text
//     sorted by (cluster_id, tweet_id)
//   - network.csv: source,target,kind,weight
//   - summary.csv: one row of the campaign signals
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
)

// CSVExporter writes a report's artifacts into a directory.
type CSVExporter struct {
	logger logger.Logger
}

// NewCSVExporter creates a CSV exporter.
func NewCSVExporter(opts ...Option) *CSVExporter {
	e := &CSVExporter{
		logger: logger.Get().Named("export"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export writes all artifact files for the report into dir, creating the
// directory when missing.
func (e *CSVExporter) Export(ctx context.Context, report *model.Report, dir string) error {
	if report == nil {
		return ErrNilReport
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExport, dir, err)
	}

	files := []struct {
		name  string
		write func(w *csv.Writer) error
	}{
		{"tweets.csv", func(w *csv.Writer) error { return writeTweets(w, report.Posts) }},
		{"timeseries.csv", func(w *csv.Writer) error { return writeTimeseries(w, report.Buckets) }},
		{"similarity_clusters.csv", func(w *csv.Writer) error { return writeClusters(w, report.Clusters, report.Posts) }},
		{"network.csv", func(w *csv.Writer) error { return writeNetwork(w, report.Network) }},
		{"summary.csv", func(w *csv.Writer) error { return writeSummary(w, report.Summary) }},
	}

	for _, f := range files {
		if err := e.writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}

	e.logger.Info(ctx, "artifacts exported",
		logger.String("dir", dir),
		logger.Int("posts", len(report.Posts)),
	)
	return nil
}

func (e *CSVExporter) writeFile(path string, write func(w *csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrExport, path, err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := write(w); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrExport, path, err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("%w: flush %s: %w", ErrExport, path, err)
	}
	return nil
}

func writeTweets(w *csv.Writer, posts []model.Post) error {
	header := []string{
		"id", "text", "created_at", "author_id", "username", "lang",
		"retweet_count", "reply_count", "like_count", "quote_count",
		"normalized", "bucket", "mentions", "hashtags", "referenced",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range posts {
		refs := make([]string, 0, len(p.References))
		for _, ref := range p.References {
			refs = append(refs, ref.ID+":"+ref.Kind)
		}
		bucket := ""
		if p.HasBucket() {
			bucket = p.Bucket.Format(time.RFC3339)
		}
		createdAt := ""
		if !p.CreatedAt.IsZero() {
			createdAt = p.CreatedAt.Format(time.RFC3339)
		}
		row := []string{
			p.ID,
			p.Text,
			createdAt,
			p.AuthorID,
			p.Username,
			p.Lang,
			strconv.Itoa(p.Metrics.RetweetCount),
			strconv.Itoa(p.Metrics.ReplyCount),
			strconv.Itoa(p.Metrics.LikeCount),
			strconv.Itoa(p.Metrics.QuoteCount),
			p.NormalizedText,
			bucket,
			strings.Join(p.Mentions, "|"),
			strings.Join(p.Hashtags, "|"),
			strings.Join(refs, "|"),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeTimeseries(w *csv.Writer, buckets []model.TimeBucket) error {
	if err := w.Write([]string{"bucket", "count", "zscore", "anomaly"}); err != nil {
		return err
	}
	for _, b := range buckets {
		row := []string{
			b.BucketStart.Format(time.RFC3339),
			strconv.Itoa(b.Count),
			strconv.FormatFloat(b.ZScore, 'g', -1, 64),
			strconv.FormatBool(b.IsAnomaly),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeClusters(w *csv.Writer, clusters []model.Cluster, posts []model.Post) error {
	if err := w.Write([]string{"cluster_id", "tweet_id", "username", "text"}); err != nil {
		return err
	}

	byID := make(map[string]model.Post, len(posts))
	for _, p := range posts {
		byID[p.ID] = p
	}

	type row struct {
		clusterID int
		tweetID   string
	}
	rows := make([]row, 0, len(posts))
	for _, c := range clusters {
		for _, id := range c.PostIDs {
			rows = append(rows, row{clusterID: c.ID, tweetID: id})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].clusterID != rows[j].clusterID {
			return rows[i].clusterID < rows[j].clusterID
		}
		return rows[i].tweetID < rows[j].tweetID
	})

	for _, r := range rows {
		p := byID[r.tweetID]
		record := []string{
			strconv.Itoa(r.clusterID),
			r.tweetID,
			p.Username,
			p.Text,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeNetwork(w *csv.Writer, network model.Network) error {
	if err := w.Write([]string{"source", "target", "kind", "weight"}); err != nil {
		return err
	}
	for _, e := range network.Edges {
		row := []string{
			e.From,
			e.To,
			e.Kind,
			strconv.Itoa(e.Count),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(w *csv.Writer, s model.Summary) error {
	header := []string{
		"total_tweets", "unique_users", "anomalous_minutes",
		"largest_cluster_size", "network_nodes", "network_edges",
		"network_density", "connected_components",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	row := []string{
		strconv.Itoa(s.TotalTweets),
		strconv.Itoa(s.UniqueUsers),
		strconv.Itoa(s.AnomalousMinutes),
		strconv.Itoa(s.LargestClusterSize),
		strconv.Itoa(s.NetworkNodes),
		strconv.Itoa(s.NetworkEdges),
		strconv.FormatFloat(s.NetworkDensity, 'g', -1, 64),
		strconv.Itoa(s.ConnectedComponents),
	}
	return w.Write(row)
}
