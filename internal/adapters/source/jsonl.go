package source

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/okian/campwatch/internal/domain/model"
	"github.com/okian/campwatch/pkg/logger"
)

// maxLineBytes bounds a single JSONL line; posts are short but entity
// annotations can pad a record well past the bufio default.
const maxLineBytes = 1 << 20

// JSONLSource loads raw records from a local file with one JSON object per
// line. It serves offline analysis and tests.
type JSONLSource struct {
	path   string
	logger logger.Logger
}

// NewJSONLSource creates a source reading from the given file path.
func NewJSONLSource(path string) *JSONLSource {
	return &JSONLSource{
		path:   path,
		logger: logger.Get().Named("jsonl-source"),
	}
}

// Fetch reads the whole file, honoring the query's MaxResults cap when set.
func (s *JSONLSource) Fetch(ctx context.Context, q model.Query) ([]model.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrFetch, s.path, err)
	}
	defer func() { _ = f.Close() }()

	var records []model.RawRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var rec model.RawRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrBadRecord, lineNo, err)
		}
		records = append(records, rec)

		if q.MaxResults > 0 && len(records) >= q.MaxResults {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrFetch, s.path, err)
	}

	s.logger.Info(ctx, "sample loaded",
		logger.String("path", s.path),
		logger.Int("records", len(records)),
	)
	return records, nil
}
