// Package summarize downloads a news article, extracts its readable text
// and produces a short extractive summary.
package summarize

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JesusIslam/tldr"
	readability "github.com/go-shiori/go-readability"
	"go.uber.org/zap"
)

// DefaultSentences is how many sentences a summary contains unless
// configured otherwise.
const DefaultSentences = 3

// Summary is the result of summarizing one article.
type Summary struct {
	URL       string
	Title     string
	Sentences []string
}

// Text joins the summary sentences into one block.
func (s *Summary) Text() string {
	return strings.Join(s.Sentences, " ")
}

// Summarizer fetches articles over HTTP and condenses them with an LSA
// extractive summarizer.
type Summarizer struct {
	httpClient *http.Client
	sentences  int
	logger     *zap.Logger
}

// Options configures a Summarizer.
type Options struct {
	// HTTPClient fetches articles. Defaults to a client with a 30 second
	// timeout. Pass a client with an OAuth transport for protected feeds.
	HTTPClient *http.Client
	// Sentences per summary. Defaults to DefaultSentences.
	Sentences int
	Logger    *zap.Logger
}

// New builds a Summarizer.
func New(opts Options) *Summarizer {
	s := &Summarizer{
		httpClient: opts.HTTPClient,
		sentences:  opts.Sentences,
		logger:     opts.Logger,
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if s.sentences < 1 {
		s.sentences = DefaultSentences
	}
	if s.logger == nil {
		s.logger = zap.L().Named("summarize")
	}
	return s
}

// SummarizeURL downloads the article at articleURL and summarizes it.
func (s *Summarizer) SummarizeURL(ctx context.Context, articleURL string) (*Summary, error) {
	parsed, err := url.Parse(articleURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("article url %q is not an absolute URL", articleURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, articleURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch article: server returned status %d", resp.StatusCode)
	}

	article, err := readability.FromReader(resp.Body, parsed)
	if err != nil {
		return nil, fmt.Errorf("extract article text: %w", err)
	}

	return s.SummarizeText(article.Title, articleURL, article.TextContent)
}

// SummarizeText condenses already extracted article text.
func (s *Summarizer) SummarizeText(title, articleURL, text string) (*Summary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("article contains no readable text")
	}

	bag := tldr.New()
	sentences, err := bag.Summarize(text, s.sentences)
	if err != nil {
		return nil, fmt.Errorf("summarize article: %w", err)
	}
	if len(sentences) == 0 {
		return nil, fmt.Errorf("summarizer produced no sentences")
	}

	for i, sent := range sentences {
		sentences[i] = strings.Join(strings.Fields(sent), " ")
	}

	s.logger.Debug("article summarized",
		zap.String("url", articleURL),
		zap.Int("sentences", len(sentences)),
		zap.Int("input_chars", len(text)))

	return &Summary{
		URL:       articleURL,
		Title:     title,
		Sentences: sentences,
	}, nil
}
