// Package seo performs on-page analysis of a URL: a handful of heuristic
// checks producing a 0-100 score and a recommendation list. The individual
// weights are tuning knobs, not contracts.
package seo

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const maxBodyBytes = 2 << 20

type Analyzer struct {
	client *http.Client
}

func NewAnalyzer() *Analyzer {
	return &Analyzer{client: &http.Client{Timeout: 10 * time.Second}}
}

// NewAnalyzerWithClient is used by tests and callers with custom transport
// needs.
func NewAnalyzerWithClient(client *http.Client) *Analyzer {
	return &Analyzer{client: client}
}

type Result struct {
	URL             string   `json:"url"`
	Score           int      `json:"score"`
	Findings        []string `json:"findings"`
	Recommendations []string `json:"recommendations"`
}

var (
	titleRe    = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
	metaDescRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']description["'][^>]*>`)
	h1Re       = regexp.MustCompile(`(?is)<h1[^>]*>`)
	imgRe      = regexp.MustCompile(`(?is)<img[^>]*>`)
	altRe      = regexp.MustCompile(`(?i)alt=["'][^"']+["']`)
	viewportRe = regexp.MustCompile(`(?is)<meta[^>]+name=["']viewport["'][^>]*>`)
	canonRe    = regexp.MustCompile(`(?is)<link[^>]+rel=["']canonical["'][^>]*>`)
)

// Analyze fetches the page and scores it. A fetch failure is the only error;
// every on-page shortcoming just lowers the score.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (Result, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return Result{}, fmt.Errorf("invalid url: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("User-Agent", "AstraPilotBot/1.0 (+https://astrapilot.io)")

	resp, err := a.client.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("failed to fetch website: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return Result{}, fmt.Errorf("failed to fetch website: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read website body: %w", err)
	}

	return score(rawURL, parsed, string(body)), nil
}

func score(rawURL string, parsed *url.URL, body string) Result {
	res := Result{URL: rawURL, Score: 100}

	deduct := func(points int, finding, recommendation string) {
		res.Score -= points
		res.Findings = append(res.Findings, finding)
		res.Recommendations = append(res.Recommendations, recommendation)
	}

	if parsed.Scheme != "https" {
		deduct(15, "page served over plain http", "Serve the site over HTTPS")
	}

	if m := titleRe.FindStringSubmatch(body); m == nil || strings.TrimSpace(m[1]) == "" {
		deduct(15, "missing <title>", "Add a descriptive title tag")
	} else if n := len(strings.TrimSpace(m[1])); n < 10 || n > 70 {
		deduct(5, "title length outside 10-70 characters", "Rewrite the title to 10-70 characters")
	}

	if !metaDescRe.MatchString(body) {
		deduct(10, "missing meta description", "Add a meta description")
	}
	if !h1Re.MatchString(body) {
		deduct(10, "no <h1> heading", "Add a single <h1> heading")
	}
	if !viewportRe.MatchString(body) {
		deduct(10, "missing viewport meta tag", "Add a viewport meta tag for mobile rendering")
	}
	if !canonRe.MatchString(body) {
		deduct(5, "missing canonical link", "Declare a canonical URL")
	}

	images := imgRe.FindAllString(body, -1)
	missingAlt := 0
	for _, img := range images {
		if !altRe.MatchString(img) {
			missingAlt++
		}
	}
	if missingAlt > 0 {
		deduct(10, fmt.Sprintf("%d image(s) without alt text", missingAlt), "Add alt text to all images")
	}

	if len(body) < 512 {
		deduct(10, "very little page content", "Add substantive textual content")
	}

	if res.Score < 0 {
		res.Score = 0
	}
	return res
}
