package issue

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/tsanders/violation-issues/pkg/build"
	"github.com/tsanders/violation-issues/pkg/contexthash"
	"github.com/tsanders/violation-issues/pkg/identity"
	"github.com/tsanders/violation-issues/pkg/priority"
	"github.com/tsanders/violation-issues/pkg/violation"
)

// Config configures how findings are collected.
type Config struct {
	// Parallelism is the number of findings fingerprinted concurrently
	// Default: 4
	Parallelism int

	// Encoding is the charset of the analysed sources; empty means UTF-8
	Encoding string
}

// DefaultConfig returns the recommended collection configuration
func DefaultConfig() Config {
	return Config{
		Parallelism: 4,
	}
}

// Provider turns violations findings into issues.
type Provider struct {
	fingerprinter *contexthash.Fingerprinter
	config        Config
	log           logrus.FieldLogger
	onProgress    func()
}

// Option configures a Provider.
type Option func(*Provider)

// WithLogger sets the logger used for per-finding diagnostics.
func WithLogger(log logrus.FieldLogger) Option {
	return func(p *Provider) { p.log = log }
}

// WithProgress registers a callback invoked once per processed finding.
// It is called from worker goroutines and must be safe for concurrent use.
func WithProgress(fn func()) Option {
	return func(p *Provider) { p.onProgress = fn }
}

// NewProvider creates a provider. A nil fingerprinter uses contexthash defaults.
func NewProvider(fp *contexthash.Fingerprinter, config Config, opts ...Option) *Provider {
	if fp == nil {
		fp = contexthash.New()
	}
	if config.Parallelism < 1 {
		config.Parallelism = 1
	}
	p := &Provider{
		fingerprinter: fp,
		config:        config,
		log:           logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ExistingIssues collects the issues of a build. found is false when the
// build has no violations report; err is set only when the report exists but
// could not be loaded.
func (p *Provider) ExistingIssues(ctx context.Context, b *build.Build) (Result, bool, error) {
	lookup, err := build.LoadReport(b)
	if err != nil {
		return Result{}, false, err
	}
	if !lookup.Found {
		return Result{}, false, nil
	}
	return p.Collect(ctx, lookup.Report.Findings()), true, nil
}

// job is one finding queued for conversion
type job struct {
	index   int
	finding violation.Finding
}

// outcome is the conversion result for one finding
type outcome struct {
	index int
	issue Issue
	err   error
}

// Collect converts findings into issues. A finding that fails is recorded in
// Result.Failures and does not stop the others. Issues keep the input order.
func (p *Provider) Collect(ctx context.Context, findings []violation.Finding) Result {
	if len(findings) == 0 {
		return Result{}
	}

	jobs := make(chan job, len(findings))
	outcomes := make(chan outcome, len(findings))

	// Start worker pool
	var wg sync.WaitGroup
	workers := min(p.config.Parallelism, len(findings))
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go p.worker(ctx, jobs, outcomes, &wg)
	}

	for i, f := range findings {
		jobs <- job{index: i, finding: f}
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(outcomes)
	}()

	ordered := make([]outcome, len(findings))
	for o := range outcomes {
		ordered[o.index] = o
	}

	var result Result
	for i, o := range ordered {
		if o.err != nil {
			result.Failures = append(result.Failures, Failure{Finding: findings[i], Err: o.err})
			continue
		}
		result.Issues = append(result.Issues, o.issue)
	}
	return result
}

// worker converts findings from the job channel until it is drained
func (p *Provider) worker(ctx context.Context, jobs <-chan job, outcomes chan<- outcome, wg *sync.WaitGroup) {
	defer wg.Done()

	for j := range jobs {
		o := outcome{index: j.index}
		if err := ctx.Err(); err != nil {
			o.err = err
		} else {
			o.issue, o.err = p.convert(j.finding)
		}

		if o.err != nil {
			p.log.WithFields(logrus.Fields{
				"file":     j.finding.Path,
				"line":     j.finding.Line,
				"category": j.finding.Category,
			}).WithError(o.err).Warn("skipping finding")
		} else {
			p.log.WithFields(logrus.Fields{
				"file": j.finding.Path,
				"line": j.finding.Line,
				"id":   o.issue.ID.String(),
			}).Debug("issue created")
		}

		if p.onProgress != nil {
			p.onProgress()
		}
		outcomes <- o
	}
}

// convert maps a single finding to an issue.
func (p *Provider) convert(f violation.Finding) (Issue, error) {
	if err := f.Validate(); err != nil {
		return Issue{}, err
	}

	fp, err := p.fingerprinter.Create(f.Path, f.Line, p.config.Encoding)
	if err != nil {
		return Issue{}, err
	}

	return Issue{
		ID:       identity.ForFinding(fp, f),
		Message:  f.Message,
		Priority: priority.Classify(f.Severity),
		File:     f.Path,
		Line:     f.Line,
		Category: f.Category,
		Source:   f.Source,
		Origin:   Origin,
	}, nil
}
