// Package export serializes an annotated topic back to JSON.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/ziadkadry99/topicreader/internal/topic"
)

const (
	editedSuffix    = "_edited"
	defaultFileName = "topic_edited.json"
	indent          = "    "
)

// Marshal serializes the current state of every post in the document.
// Output is indented with four spaces and leaves HTML unescaped.
func Marshal(doc *topic.Document) ([]byte, error) {
	return MarshalTopic(doc.Snapshot())
}

// MarshalTopic serializes t the same way Marshal does.
func MarshalTopic(t *topic.Topic) ([]byte, error) {
	return encode(t)
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encoding topic: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// FileName derives the download name from the name the topic was loaded
// under. Names already marked as edited are kept so repeated exports do
// not stack suffixes.
func FileName(original string) string {
	name := path.Base(strings.ReplaceAll(original, "\\", "/"))
	if original == "" || name == "." || name == "/" {
		return defaultFileName
	}
	if strings.Contains(name, editedSuffix) {
		return name
	}
	ext := path.Ext(name)
	if ext == "" || ext == name {
		return name + editedSuffix
	}
	return strings.TrimSuffix(name, ext) + editedSuffix + ext
}

// Summaries maps post_id (as a string) to summary text.
type Summaries map[string]string

// ExportSummaries collects the summary of every post, empty ones included.
func ExportSummaries(doc *topic.Document) Summaries {
	out := make(Summaries)
	for _, p := range doc.Posts() {
		out[strconv.FormatInt(p.ID, 10)] = p.Summary
	}
	return out
}

// MarshalSummaries encodes a summary map for writing to disk.
func MarshalSummaries(s Summaries) ([]byte, error) {
	return encode(s)
}

// ParseSummaries decodes a summary map.
func ParseSummaries(data []byte) (Summaries, error) {
	var s Summaries
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing summaries: %w", err)
	}
	return s, nil
}

// ImportSummaries copies summaries onto matching posts and returns how many
// posts were updated. Keys that are not post ids of doc are ignored.
func ImportSummaries(doc *topic.Document, s Summaries) int {
	n := 0
	for key, text := range s {
		id, err := strconv.ParseInt(strings.TrimSpace(key), 10, 64)
		if err != nil {
			continue
		}
		if doc.ApplyEdit(id, topic.SetSummary{Text: text}) {
			n++
		}
	}
	return n
}
