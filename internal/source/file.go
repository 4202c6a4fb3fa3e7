package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/DaveOps97/SmartJobHunter/internal/model"
	"github.com/DaveOps97/SmartJobHunter/internal/retry"
)

// maxLineSize bounds a single JSONL row; descriptions can be long.
const maxLineSize = 4 << 20

// FileSource reads scraper exports matching a glob. Files ending in .jsonl
// hold one record per line; anything else must be a JSON array.
type FileSource struct {
	name      string
	pattern   string
	cleanHTML bool
}

// NewFileSource creates a source over every file matching pattern.
func NewFileSource(name, pattern string, cleanHTML bool) *FileSource {
	return &FileSource{
		name:      name,
		pattern:   pattern,
		cleanHTML: cleanHTML,
	}
}

func (s *FileSource) Name() string { return s.name }

// FetchBatch reads all matching files in lexical order. Decode failures are
// permanent: the files will not change between retries.
func (s *FileSource) FetchBatch(ctx context.Context) (model.Batch, error) {
	paths, err := filepath.Glob(s.pattern)
	if err != nil {
		return model.Batch{}, retry.Permanent(fmt.Errorf("source %s: %w", s.name, err))
	}
	if len(paths) == 0 {
		return model.Batch{}, retry.Permanent(fmt.Errorf("source %s: no files match %q", s.name, s.pattern))
	}
	sort.Strings(paths)

	var rows []row
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return model.Batch{}, err
		}
		recs, err := readFile(path)
		if err != nil {
			return model.Batch{}, retry.Permanent(fmt.Errorf("source %s: %w", s.name, err))
		}
		rows = append(rows, recs...)
	}

	return model.Batch{Source: s.name, Records: normalize(rows, s.cleanHTML)}, nil
}

func readFile(path string) ([]row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if strings.EqualFold(filepath.Ext(path), ".jsonl") {
		return decodeLines(path, data)
	}

	var recs []row
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return recs, nil
}

func decodeLines(path string, data []byte) ([]row, error) {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var recs []row
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var rec row
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("decoding %s line %d: %w", path, line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return recs, nil
}
