package extract

import (
	"context"
	"html"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/research-agent/internal/model"
	"github.com/sells-group/research-agent/internal/resilience"
)

// maxFetchBytes caps how much of a page the local method reads.
const maxFetchBytes = 4 << 20

// LocalMethod fetches pages directly and strips markup itself. It needs
// no external service, so it backs up the reader method and carries the
// whole chain when no API key is configured.
type LocalMethod struct {
	http    *http.Client
	breaker *resilience.Breaker
	policy  resilience.Policy
}

// LocalOption configures the local method.
type LocalOption func(*LocalMethod)

// WithLocalHTTPClient overrides the default http.Client.
func WithLocalHTTPClient(hc *http.Client) LocalOption {
	return func(m *LocalMethod) {
		m.http = hc
	}
}

// NewLocalMethod creates the direct-fetch extraction method.
func NewLocalMethod(opts ...LocalOption) *LocalMethod {
	p := resilience.DefaultPolicy()
	p.Attempts = 2
	p.OnRetry = resilience.RetryLogger("local", "extract")
	m := &LocalMethod{
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
		breaker: resilience.NewBreaker(5, 0, 0),
		policy:  p,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *LocalMethod) Name() string { return "local" }

func (m *LocalMethod) Available() bool { return !m.breaker.Open() }

func (m *LocalMethod) Extract(ctx context.Context, url string) (*model.ExtractedArticle, error) {
	page, err := resilience.DoVal(ctx, m.policy, func(ctx context.Context) (string, error) {
		return m.fetch(ctx, url)
	})
	if err != nil {
		m.breaker.Failure()
		return nil, err
	}
	m.breaker.Success()

	content := stripHTML(page)
	if IsBlockPage(content) {
		return nil, eris.Errorf("extract: block page at %s", url)
	}

	return &model.ExtractedArticle{
		URL:     url,
		Title:   pageTitle(page),
		Content: content,
		Method:  m.Name(),
	}, nil
}

func (m *LocalMethod) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", eris.Wrapf(err, "extract: create request for %s", url)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := m.http.Do(req)
	if err != nil {
		return "", eris.Wrapf(err, "extract: fetch %s", url)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes))
	if err != nil {
		return "", eris.Wrapf(err, "extract: read %s", url)
	}

	if resp.StatusCode != http.StatusOK {
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return "", resilience.NewTransient(eris.Errorf("extract: status %d at %s", resp.StatusCode, url), resp.StatusCode)
		}
		return "", eris.Errorf("extract: status %d at %s", resp.StatusCode, url)
	}
	return string(body), nil
}

var (
	scriptRe = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe  = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	navRe    = regexp.MustCompile(`(?is)<(nav|header|footer|aside)[^>]*>.*?</(nav|header|footer|aside)>`)
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	titleRe  = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)
)

// stripHTML reduces a page to its visible text: scripts, styles, and
// chrome elements go first, then every remaining tag, then entity
// decoding and whitespace collapse.
func stripHTML(page string) string {
	s := scriptRe.ReplaceAllString(page, " ")
	s = styleRe.ReplaceAllString(s, " ")
	s = navRe.ReplaceAllString(s, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.Join(strings.Fields(s), " ")
}

func pageTitle(page string) string {
	m := titleRe.FindStringSubmatch(page)
	if m == nil {
		return ""
	}
	return strings.Join(strings.Fields(html.UnescapeString(m[1])), " ")
}
