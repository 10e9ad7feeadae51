package fetcher

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/temoto/robotstxt"
	"golang.org/x/time/rate"

	"github.com/taforge/taforge/internal/models"
	"github.com/taforge/taforge/internal/types"
)

// RawWriter persists fetched text content-addressably. The fetcher only
// writes complete, extracted text; identical content collapses to one
// artifact.
type RawWriter interface {
	WriteRaw(text string) (uri string, fingerprint string, err error)
}

type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// Fetcher resolves URLs to clean-text Documents while honoring robots
// directives and a process-wide politeness budget. The rate limiter is
// injected and shared by every worker: concurrency raises throughput but
// actual network sends still serialize through the one budget.
type Fetcher struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	writer  RawWriter
	log     zerolog.Logger

	mu     sync.Mutex
	robots map[string]*robotstxt.RobotsData // scheme://host -> parsed policy
}

func NewWithConfig(config types.FetcherConfig, limiter *rate.Limiter, writer RawWriter, log zerolog.Logger) *Fetcher {
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.UserAgent == "" {
		config.UserAgent = "taforge/0.1 (+contact)"
	}
	if config.MaxBodyBytes == 0 {
		config.MaxBodyBytes = 20 << 20
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Every(config.MinInterval), 1)
	}

	return &Fetcher{
		config: Config{
			UserAgent:    config.UserAgent,
			Timeout:      config.Timeout,
			MaxBodyBytes: config.MaxBodyBytes,
		},
		client:  &http.Client{Timeout: config.Timeout},
		limiter: limiter,
		writer:  writer,
		log:     log,
		robots:  make(map[string]*robotstxt.RobotsData),
	}
}

// Fetch resolves url to a Document. All returned errors wrap one of the
// package sentinels so callers can skip-and-continue by class.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (models.Document, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return models.Document{}, fmt.Errorf("%w: bad url %q", ErrParseFailure, rawURL)
	}

	allowed, err := f.robotsAllowed(ctx, u)
	if err != nil {
		return models.Document{}, err
	}
	if !allowed {
		return models.Document{}, fmt.Errorf("%w: %s", ErrPolicyDenied, rawURL)
	}

	body, ctype, status, err := f.get(ctx, rawURL)
	if err != nil {
		return models.Document{}, err
	}

	kind, text, err := extractText(rawURL, ctype, body)
	if err != nil {
		return models.Document{}, err
	}

	doc := models.Document{
		URL:         rawURL,
		ContentType: kind,
		Text:        text,
		Fingerprint: Fingerprint(text),
		FetchedAt:   time.Now().UTC(),
		HTTPStatus:  status,
	}

	if f.writer != nil {
		if _, _, err := f.writer.WriteRaw(text); err != nil {
			return models.Document{}, err
		}
	}

	f.log.Debug().
		Str("url", rawURL).
		Str("content_type", kind).
		Str("fingerprint", doc.Fingerprint).
		Int("chars", len(text)).
		Msg("fetched document")

	return doc, nil
}

// Fingerprint content-addresses extracted text.
func Fingerprint(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (body []byte, ctype string, status int, err error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", 0, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, "", 0, fmt.Errorf("%w: %s", ErrFetchTimeout, rawURL)
		}
		return nil, "", 0, fmt.Errorf("%w: %v", ErrFetchTimeout, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", resp.StatusCode, fmt.Errorf("%w: status %d for %s", ErrParseFailure, resp.StatusCode, rawURL)
	}

	body, err = io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		if isTimeout(err) {
			return nil, "", resp.StatusCode, fmt.Errorf("%w: %s", ErrFetchTimeout, rawURL)
		}
		return nil, "", resp.StatusCode, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}

	return body, strings.ToLower(resp.Header.Get("Content-Type")), resp.StatusCode, nil
}

// robotsAllowed resolves and caches the robots policy for the target origin.
// An unreachable or unparseable robots.txt is treated as unknown: allow.
func (f *Fetcher) robotsAllowed(ctx context.Context, u *url.URL) (bool, error) {
	base := u.Scheme + "://" + u.Host

	f.mu.Lock()
	data, ok := f.robots[base]
	f.mu.Unlock()

	if !ok {
		data = f.loadRobots(ctx, base)
		f.mu.Lock()
		f.robots[base] = data
		f.mu.Unlock()
	}

	if data == nil {
		return true, nil
	}
	path := u.Path
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return data.TestAgent(path, f.config.UserAgent), nil
}

func (f *Fetcher) loadRobots(ctx context.Context, base string) *robotstxt.RobotsData {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", f.config.UserAgent)

	if err := f.limiter.Wait(ctx); err != nil {
		return nil
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}
	// A robots endpoint erroring out means the policy is unknown, not that
	// crawling is forbidden.
	if resp.StatusCode >= 500 {
		return nil
	}
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		f.log.Debug().Str("origin", base).Err(err).Msg("unparseable robots.txt, treating as allow")
		return nil
	}
	return data
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
