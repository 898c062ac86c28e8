package engine

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dynaform/internal/logging"
	"dynaform/internal/model"
)

// SourceCache keeps fetched remote choice documents. Get returns (nil, nil)
// on a miss.
type SourceCache interface {
	Get(ctx context.Context, source string) ([]byte, error)
	Set(ctx context.Context, source string, body []byte) error
}

var yesNoChoices = []model.Choice{{Label: "Yes", Value: "1"}, {Label: "No", Value: "0"}}

// ChoiceResolver materializes the choice list of choice questions. Results
// are memoized per question for the life of the resolver, which should not
// outlive one evaluation.
type ChoiceResolver struct {
	sourceDir  string
	httpClient *http.Client
	cache      SourceCache
	memo       map[string][]model.Choice
	errs       map[string]error
}

// NewChoiceResolver creates a resolver reading local sources below
// sourceDir. cache may be nil.
func NewChoiceResolver(sourceDir string, timeout time.Duration, cache SourceCache) *ChoiceResolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ChoiceResolver{
		sourceDir:  sourceDir,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache,
		memo:       make(map[string][]model.Choice),
		errs:       make(map[string]error),
	}
}

// Choices returns the ordered choices of q. A source failure yields an
// empty list and a source error; callers treat it as non-fatal.
func (r *ChoiceResolver) Choices(ctx context.Context, q *model.Question) ([]model.Choice, error) {
	if c, ok := r.memo[q.ID]; ok {
		return c, r.errs[q.ID]
	}
	choices, err := r.resolve(ctx, q)
	if err != nil {
		logging.FromContext(ctx).Warn("choice source failed", "question", q.ID, "error", err)
		choices = []model.Choice{}
		r.errs[q.ID] = err
	}
	r.memo[q.ID] = choices
	return choices, err
}

func (r *ChoiceResolver) resolve(ctx context.Context, q *model.Question) ([]model.Choice, error) {
	if q.Style == model.StyleYesNo || q.Style == model.StyleAcceptance {
		return append([]model.Choice(nil), yesNoChoices...), nil
	}
	opts := q.Choice
	if opts == nil {
		return []model.Choice{}, nil
	}
	if opts.Source == "" {
		return ParseChoiceContent(opts.Content), nil
	}

	body, origin, err := r.load(ctx, opts.Source)
	if err != nil {
		choiceFetches.WithLabelValues(origin, "error").Inc()
		return nil, sourcef(q.ID, err, "load %s", opts.Source)
	}
	choices, err := extractChoices(body, opts.TextPath, opts.ValuePath)
	if err != nil {
		choiceFetches.WithLabelValues(origin, "error").Inc()
		return nil, sourcef(q.ID, err, "parse %s", opts.Source)
	}
	choiceFetches.WithLabelValues(origin, "ok").Inc()
	return choices, nil
}

// ParseChoiceContent reads inline "value;label" lines. A line without a
// separator is used as both label and value; blank lines are skipped.
func ParseChoiceContent(content string) []model.Choice {
	choices := []model.Choice{}
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		value, label, ok := strings.Cut(line, ";")
		if !ok {
			choices = append(choices, model.Choice{Label: line, Value: line})
			continue
		}
		choices = append(choices, model.Choice{Label: strings.TrimSpace(label), Value: strings.TrimSpace(value)})
	}
	return choices
}

func (r *ChoiceResolver) load(ctx context.Context, source string) ([]byte, string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, err := r.fetch(ctx, source)
		return body, "remote", err
	}
	body, err := r.readLocal(source)
	return body, "local", err
}

func (r *ChoiceResolver) readLocal(source string) ([]byte, error) {
	if r.sourceDir == "" {
		return nil, fmt.Errorf("local choice sources are disabled")
	}
	clean := filepath.Clean("/" + source)
	return os.ReadFile(filepath.Join(r.sourceDir, clean))
}

// fetch performs a single GET with no retry
func (r *ChoiceResolver) fetch(ctx context.Context, url string) ([]byte, error) {
	if r.cache != nil {
		if body, err := r.cache.Get(ctx, url); err == nil && body != nil {
			return body, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, url, body); err != nil {
			logging.FromContext(ctx).Debug("choice cache write failed", "source", url, "error", err)
		}
	}
	return body, nil
}
