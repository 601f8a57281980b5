package batch

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ziadkadry99/topicreader/internal/ai"
	"github.com/ziadkadry99/topicreader/internal/llm"
	"github.com/ziadkadry99/topicreader/internal/progress"
	"github.com/ziadkadry99/topicreader/internal/topic"
)

// outputTokensPerSummary approximates a 50-100 word summary.
const outputTokensPerSummary = 180

// ErrBudget is returned when the estimated cost of a run exceeds the
// configured budget.
var ErrBudget = errors.New("estimated cost exceeds max_cost_usd")

// Options controls a generate run.
type Options struct {
	// Selective processes only posts marked ai_summarize and clears the
	// mark once their summary is written.
	Selective bool

	// Overwrite re-summarizes posts that already have a summary.
	Overwrite bool

	// DryRun estimates tokens and cost without calling the model or
	// touching the file.
	DryRun bool

	Concurrency int
	APIKey      string
	Model       string  // for cost estimates
	MaxCostUSD  float64 // 0 disables the budget check
	Reporter    progress.Reporter
}

// Result summarizes one generate run over one file.
type Result struct {
	File           string
	Posts          int
	Selected       int
	Summarized     int
	Errors         []error
	QuotaExhausted bool
	InputTokens    int
	OutputTokens   int
	EstimatedCost  float64
	BackupPath     string
}

// Select returns the posts a run would summarize, in topic order.
func Select(t *topic.Topic, opts Options) []*topic.Post {
	var out []*topic.Post
	for _, p := range t.Posts {
		switch {
		case opts.Selective:
			if p.AISummarize {
				out = append(out, p)
			}
		case opts.Overwrite || NeedsSummary(p):
			out = append(out, p)
		}
	}
	return out
}

// estimate returns the input tokens a run would send.
func estimate(ctx context.Context, svc Summarizer, posts []*topic.Post) int {
	pr, _ := svc.(prompter)
	tokens := 0
	for _, p := range posts {
		var prompt string
		if pr != nil {
			prompt = pr.SummaryPrompt(ctx, p.HTML)
		} else {
			prompt = ai.Truncate(ai.PlainText(p.HTML), ai.MaxPromptRunes)
		}
		tokens += llm.EstimateTokens(prompt)
	}
	return tokens
}

// Generate summarizes the selected posts of the topic file at path and
// writes the file back. A one-time backup is made before the first write.
// Quota errors from the provider stop the run early; summaries finished
// before that are still saved.
func Generate(ctx context.Context, path string, svc Summarizer, opts Options) (*Result, error) {
	t, err := readTopic(path)
	if err != nil {
		return nil, err
	}
	posts := Select(t, opts)
	res := &Result{File: path, Posts: len(t.Posts), Selected: len(posts)}
	if len(posts) == 0 {
		return res, nil
	}

	res.InputTokens = estimate(ctx, svc, posts)
	res.OutputTokens = outputTokensPerSummary * len(posts)
	res.EstimatedCost = llm.EstimateCost(opts.Model, res.InputTokens, res.OutputTokens)
	if opts.DryRun {
		return res, nil
	}
	if opts.MaxCostUSD > 0 && res.EstimatedCost > opts.MaxCostUSD {
		return res, fmt.Errorf("%s: $%.4f > $%.2f: %w", filepath.Base(path), res.EstimatedCost, opts.MaxCostUSD, ErrBudget)
	}

	if res.BackupPath, err = Backup(path); err != nil {
		return nil, err
	}

	doc := topic.NewDocument(t, filepath.Base(path))
	summarized := runSummaries(ctx, doc, posts, svc, opts, res)
	res.Summarized = summarized
	if summarized == 0 {
		return res, nil
	}
	if err := writeTopic(path, doc.Snapshot()); err != nil {
		return res, err
	}
	log.Printf("batch: wrote %d summaries to %s", summarized, filepath.Base(path))
	return res, nil
}

func runSummaries(ctx context.Context, doc *topic.Document, posts []*topic.Post, svc Summarizer, opts Options, res *Result) int {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	reporter := opts.Reporter
	if reporter == nil {
		reporter = progress.Nop{}
	}
	total := len(posts)
	reporter.Start(total)
	defer reporter.Finish()

	// Circuit breaker: cancel remaining work once the quota is exhausted.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	var quotaExhausted int64

	sem := make(chan struct{}, concurrency)
	var mu sync.Mutex
	var processed int64
	summarized := 0

	done := func(id int64) {
		count := atomic.AddInt64(&processed, 1)
		mu.Lock()
		reporter.Update(int(count), fmt.Sprintf("post %d", id))
		mu.Unlock()
	}
	fail := func(err error) {
		mu.Lock()
		res.Errors = append(res.Errors, err)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, post := range posts {
		if atomic.LoadInt64(&quotaExhausted) > 0 {
			fail(fmt.Errorf("post %d: skipped (API quota exhausted)", post.ID))
			done(post.ID)
			continue
		}

		select {
		case <-ctx.Done():
			fail(fmt.Errorf("post %d: %w", post.ID, ctx.Err()))
			done(post.ID)
			continue
		case sem <- struct{}{}:
		}
		if atomic.LoadInt64(&quotaExhausted) > 0 {
			<-sem
			fail(fmt.Errorf("post %d: skipped (API quota exhausted)", post.ID))
			done(post.ID)
			continue
		}

		wg.Add(1)
		go func(p *topic.Post) {
			defer wg.Done()
			defer func() { <-sem }()
			defer done(p.ID)

			summary, err := svc.Summarize(ctx, opts.APIKey, p.HTML)
			if err != nil {
				fail(fmt.Errorf("post %d: %w", p.ID, err))
				if llm.IsQuotaError(err) {
					atomic.StoreInt64(&quotaExhausted, 1)
					cancel()
				}
				return
			}
			doc.ApplyEdit(p.ID, topic.SetSummary{Text: summary})
			if opts.Selective {
				doc.ApplyEdit(p.ID, topic.SetAISummarize{On: false})
			}
			mu.Lock()
			summarized++
			mu.Unlock()
		}(post)
	}

	wg.Wait()
	res.QuotaExhausted = atomic.LoadInt64(&quotaExhausted) > 0
	return summarized
}
