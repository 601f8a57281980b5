// Package batch summarizes, exports and imports post summaries across
// topic files on disk.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ziadkadry99/topicreader/internal/export"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// placeholderSummaries are stand-in texts older exports carry for posts
// that were never really summarized. They count as empty.
var placeholderSummaries = []string{
	"這是一般文章的文字摘要 (AI生成)。",
	"這是一段關於 YouTube 影片的摘要 (AI生成)。",
}

// ErrNoMatches is returned when a pattern matches no files.
var ErrNoMatches = errors.New("no files match")

// NeedsSummary reports whether a post has no real summary yet.
func NeedsSummary(p *topic.Post) bool {
	s := strings.TrimSpace(p.Summary)
	if s == "" {
		return true
	}
	for _, ph := range placeholderSummaries {
		if s == ph {
			return true
		}
	}
	return false
}

// Expand resolves file arguments. Arguments containing glob metacharacters
// are expanded with doublestar (so "exports/**/*.json" works); plain paths
// are kept as given. The result is sorted and free of duplicates.
func Expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pat := range patterns {
		var matches []string
		if strings.ContainsAny(pat, "*?[{") {
			m, err := doublestar.FilepathGlob(pat)
			if err != nil {
				return nil, fmt.Errorf("bad pattern %q: %w", pat, err)
			}
			matches = m
		} else if _, err := os.Stat(pat); err == nil {
			matches = []string{pat}
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%s: %w", pat, ErrNoMatches)
		}
		for _, m := range matches {
			if strings.HasSuffix(m, ".bak") || seen[m] {
				continue
			}
			seen[m] = true
			out = append(out, m)
		}
	}
	sort.Strings(out)
	return out, nil
}

// Backup copies path to path+".bak" unless that backup already exists,
// so the first backup always holds the untouched original.
func Backup(path string) (string, error) {
	bak := path + ".bak"
	if _, err := os.Stat(bak); err == nil {
		return bak, nil
	}
	in, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer in.Close()
	out, err := os.Create(bak)
	if err != nil {
		return "", fmt.Errorf("creating backup %s: %w", bak, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("writing backup %s: %w", bak, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", bak, err)
	}
	log.Printf("batch: created backup %s", filepath.Base(bak))
	return bak, nil
}

func readTopic(path string) (*topic.Topic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	t, err := topic.Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func writeTopic(path string, t *topic.Topic) error {
	data, err := export.MarshalTopic(t)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ExportFile writes the summaries of every post in source to output as a
// {"<post_id>": "<summary>"} object. It returns the number of entries.
func ExportFile(source, output string) (int, error) {
	t, err := readTopic(source)
	if err != nil {
		return 0, err
	}
	s := export.ExportSummaries(topic.NewDocument(t, filepath.Base(source)))
	data, err := export.MarshalSummaries(s)
	if err != nil {
		return 0, err
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return 0, fmt.Errorf("writing %s: %w", output, err)
	}
	return len(s), nil
}

// ImportFile copies summaries from a summaries file into target, backing
// target up first. It returns the number of posts updated.
func ImportFile(summaries, target string) (int, error) {
	data, err := os.ReadFile(summaries)
	if err != nil {
		return 0, fmt.Errorf("reading %s: %w", summaries, err)
	}
	s, err := export.ParseSummaries(data)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", summaries, err)
	}
	if _, err := Backup(target); err != nil {
		return 0, err
	}
	t, err := readTopic(target)
	if err != nil {
		return 0, err
	}
	doc := topic.NewDocument(t, filepath.Base(target))
	n := export.ImportSummaries(doc, s)
	if err := writeTopic(target, doc.Snapshot()); err != nil {
		return 0, err
	}
	return n, nil
}

// Summarizer is the part of the AI service a batch run needs.
type Summarizer interface {
	Summarize(ctx context.Context, apiKey, postHTML string) (string, error)
}

// prompter is implemented by summarizers that can show the exact prompt
// they would send, for cost estimates.
type prompter interface {
	SummaryPrompt(ctx context.Context, postHTML string) string
}
