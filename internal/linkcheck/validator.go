package linkcheck

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/musicnerd/musicnerd/internal/constants"
	"github.com/musicnerd/musicnerd/internal/domain"
	"github.com/musicnerd/musicnerd/internal/logger"
	"github.com/musicnerd/musicnerd/internal/metrics"
)

const (
	ReasonTimeout       = "request timed out"
	ReasonRequestFailed = "request failed"
	ReasonNoPlatform    = "url does not match any known platform"
)

// Result is the outcome of a validation. Handle and SiteName are set whenever the
// URL matched a platform format, even if the probe later failed.
type Result struct {
	Valid    bool   `json:"valid"`
	Reason   string `json:"reason,omitempty"`
	SiteName string `json:"siteName,omitempty"`
	Handle   string `json:"handle,omitempty"`
}

// Validator checks a URL against the platform catalog and then probes it once.
type Validator struct {
	client  *http.Client
	timeout time.Duration
	logger  *logger.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	compiled map[string]*regexp.Regexp
}

// New builds a validator. A nil client gets a default one that follows redirects.
func New(client *http.Client, timeout time.Duration, log *logger.Logger, m *metrics.Metrics) *Validator {
	if client == nil {
		client = &http.Client{}
	}
	if timeout <= 0 {
		timeout = constants.DefaultProbeTimeout
	}
	if log == nil {
		log = logger.Default()
	}
	return &Validator{
		client:   client,
		timeout:  timeout,
		logger:   log.WithComponent("linkcheck"),
		metrics:  m,
		compiled: make(map[string]*regexp.Regexp),
	}
}

// Validate matches rawURL against the hinted platform, or the first enabled rule
// whose pattern matches, and probes it when the format is right.
func (v *Validator) Validate(ctx context.Context, rawURL string, rules []domain.LinkConfig, platformHint string) Result {
	res, ok := v.Match(rawURL, rules, platformHint)
	if !ok {
		v.metrics.LinkValidated(res.SiteName, false)
		return res
	}

	res.Valid, res.Reason = v.probe(ctx, strings.TrimSpace(rawURL))
	v.metrics.LinkValidated(res.SiteName, res.Valid)
	if !res.Valid {
		v.logger.Debug("link probe failed", "site", res.SiteName, "url", rawURL, "reason", res.Reason)
	}
	return res
}

// Match runs only the format check. ok is false when no rule accepts the URL;
// the returned Result then carries the reason.
func (v *Validator) Match(rawURL string, rules []domain.LinkConfig, platformHint string) (Result, bool) {
	rawURL = strings.TrimSpace(rawURL)
	hint := strings.ToLower(strings.TrimSpace(platformHint))

	if hint != "" {
		rule, found := findRule(rules, hint)
		if !found {
			return Result{Reason: fmt.Sprintf("unknown platform %q", platformHint)}, false
		}
		handle, matched := v.extract(rule, rawURL)
		if !matched {
			return Result{
				SiteName: rule.SiteName,
				Reason:   fmt.Sprintf("url does not match %s format", rule.SiteName),
			}, false
		}
		return Result{SiteName: rule.SiteName, Handle: handle}, true
	}

	for _, rule := range rules {
		if !rule.IsEnabled {
			continue
		}
		if handle, matched := v.extract(rule, rawURL); matched {
			return Result{SiteName: rule.SiteName, Handle: handle}, true
		}
	}
	return Result{Reason: ReasonNoPlatform}, false
}

func findRule(rules []domain.LinkConfig, siteName string) (domain.LinkConfig, bool) {
	for _, r := range rules {
		if r.SiteName == siteName {
			return r, true
		}
	}
	return domain.LinkConfig{}, false
}

// extract reports whether rawURL matches the whole pattern and returns the first
// capture group, normalized for the platform.
func (v *Validator) extract(rule domain.LinkConfig, rawURL string) (string, bool) {
	re, err := v.pattern(rule)
	if err != nil {
		v.logger.Warn("invalid platform regex", "site", rule.SiteName, "error", err)
		return "", false
	}
	m := re.FindStringSubmatch(rawURL)
	if m == nil {
		return "", false
	}
	handle := ""
	if len(m) > 1 {
		handle = m[1]
	}
	if p, ok := domain.LookupPlatform(rule.SiteName); ok {
		handle = p.Normalize(handle)
	}
	return handle, true
}

// pattern compiles rule.Regex anchored at both ends and caches it by source text.
func (v *Validator) pattern(rule domain.LinkConfig) (*regexp.Regexp, error) {
	src := "^(?:" + rule.Regex + ")$"

	v.mu.RLock()
	re, ok := v.compiled[src]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}

	re, err := regexp.Compile(src)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.compiled[src] = re
	v.mu.Unlock()
	return re, nil
}

func (v *Validator) probe(ctx context.Context, rawURL string) (bool, string) {
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, ReasonRequestFailed
	}
	req.Header.Set("User-Agent", "MusicNerd-LinkCheck/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return false, ReasonTimeout
		}
		return false, ReasonRequestFailed
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return true, ""
	}
	return false, fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
