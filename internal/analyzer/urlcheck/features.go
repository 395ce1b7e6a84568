// Package urlcheck screens URLs for phishing using lexical features, best-effort
// network signals, an allow-list, user reports and a trained classifier.
package urlcheck

import (
	"context"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"

	"github.com/mikey/fraud-detector/internal/analyzer/typo"
	"github.com/mikey/fraud-detector/internal/core"
)

// Network sub-calls are individually bounded and fall back to these defaults.
const (
	LookupTimeout    = 5 * time.Second
	DefaultDomainAge = 0
	DefaultRedirect  = 0
	DefaultFavicon   = 0
)

// Feature names produced by Extract, in order
const (
	FeatURLLength       = "url_length"
	FeatDomainLength    = "domain_length"
	FeatSubdomainCount  = "subdomain_count"
	FeatPathLength      = "path_length"
	FeatQueryLength     = "query_length"
	FeatSpecialChars    = "special_chars"
	FeatAtSymbol        = "at_symbol"
	FeatDoubleSlash     = "double_slash"
	FeatDashCount       = "dash_count"
	FeatUnderscoreCount = "underscore_count"
	FeatDotCount        = "dot_count"
	FeatEqualCount      = "equal_count"
	FeatQuestionCount   = "question_count"
	FeatHashCount       = "hash_count"
	FeatPercentCount    = "percent_count"
	FeatDomainAge       = "domain_age"
	FeatHTTPSUsed       = "https_used"
	FeatPortPresent     = "port_present"
	FeatIPInDomain      = "ip_in_domain"
	FeatSuspiciousWords = "suspicious_words"
	FeatRedirectCount   = "redirect_count"
	FeatURLDepth        = "url_depth"
	FeatFaviconMatch    = "favicon_domain_match"
	FeatIsTypoDomain    = "is_typo_domain"
	FeatIsJudol         = "is_judol"
)

// FeatureNames is the fixed shape of the URL feature set
var FeatureNames = []string{
	FeatURLLength, FeatDomainLength, FeatSubdomainCount, FeatPathLength, FeatQueryLength,
	FeatSpecialChars, FeatAtSymbol, FeatDoubleSlash, FeatDashCount, FeatUnderscoreCount,
	FeatDotCount, FeatEqualCount, FeatQuestionCount, FeatHashCount, FeatPercentCount,
	FeatDomainAge, FeatHTTPSUsed, FeatPortPresent, FeatIPInDomain, FeatSuspiciousWords,
	FeatRedirectCount, FeatURLDepth, FeatFaviconMatch, FeatIsTypoDomain, FeatIsJudol,
}

// SuspiciousWords are substrings commonly found in credential-harvesting URLs
var SuspiciousWords = []string{
	"login", "signin", "banking", "secure", "account", "update", "verify",
	"confirm", "password", "credit", "card", "paypal", "amazon", "ebay",
	"facebook", "google", "microsoft", "apple",
}

var (
	ipPattern      = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	redirectStatus = map[int]bool{301: true, 302: true, 303: true, 307: true, 308: true}
)

// Parts is a URL split into its registrable components
type Parts struct {
	URL       *url.URL
	Host      string
	Subdomain string
	Domain    string
	Suffix    string
}

// RegisteredDomain returns domain.suffix, or the bare domain when there is no suffix
func (p Parts) RegisteredDomain() string {
	if p.Suffix == "" {
		return p.Domain
	}
	return p.Domain + "." + p.Suffix
}

// Split parses raw and splits its host with the public suffix list.
// URLs without a scheme are read as if they started with "//".
func Split(raw string) (Parts, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return Parts{}, err
	}

	host := u.Hostname()
	if host == "" && u.Scheme == "" {
		if alt, err := url.Parse("//" + strings.TrimSpace(raw)); err == nil {
			host = alt.Hostname()
		}
	}
	if host == "" {
		return Parts{URL: u}, errNoHost
	}

	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if ascii, err := idna.Lookup.ToASCII(host); err == nil {
		host = ascii
	}

	p := Parts{URL: u, Host: host}
	if net.ParseIP(host) != nil {
		p.Domain = host
		return p, nil
	}

	suffix, _ := publicsuffix.PublicSuffix(host)
	registered, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// host is itself a suffix or a single label such as localhost
		p.Domain = host
		return p, nil
	}

	p.Suffix = suffix
	p.Domain = strings.TrimSuffix(registered, "."+suffix)
	p.Subdomain = strings.TrimSuffix(strings.TrimSuffix(host, registered), ".")
	return p, nil
}

// Extractor computes the URL feature set. The WHOIS lookup and HEAD prober are
// optional; nil collaborators always yield their defaults.
type Extractor struct {
	whois     core.DomainAgeLookup
	prober    core.Prober
	popular   []string
	threshold float64
	logger    *zap.Logger
}

// NewExtractor creates a new URL feature extractor
func NewExtractor(
	whois core.DomainAgeLookup,
	prober core.Prober,
	popular []string,
	threshold float64,
	logger *zap.Logger,
) *Extractor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{
		whois:     whois,
		prober:    prober,
		popular:   popular,
		threshold: threshold,
		logger:    logger,
	}
}

// Extract computes all features for raw. Unparseable input yields a zero-filled set.
func (e *Extractor) Extract(ctx context.Context, raw string) core.FeatureSet {
	fs := core.NewFeatureSet(FeatureNames...)

	parts, err := Split(raw)
	if err != nil {
		e.logger.Debug("URL could not be parsed, using zero features",
			zap.String("url", raw),
			zap.Error(err))
		return fs
	}
	u := parts.URL
	lower := strings.ToLower(raw)
	path := u.EscapedPath()

	fs.Set(FeatURLLength, float64(utf8.RuneCountInString(raw)))
	fs.Set(FeatDomainLength, float64(utf8.RuneCountInString(parts.Domain)))
	if parts.Subdomain != "" {
		fs.Set(FeatSubdomainCount, float64(len(strings.Split(parts.Subdomain, "."))))
	}
	fs.Set(FeatPathLength, float64(len(path)))
	fs.Set(FeatQueryLength, float64(len(u.RawQuery)))
	fs.Set(FeatSpecialChars, float64(countSpecial(raw)))
	fs.SetBool(FeatAtSymbol, strings.Contains(raw, "@"))
	fs.SetBool(FeatDoubleSlash, strings.Contains(raw, "//"))
	fs.Set(FeatDashCount, float64(strings.Count(raw, "-")))
	fs.Set(FeatUnderscoreCount, float64(strings.Count(raw, "_")))
	fs.Set(FeatDotCount, float64(strings.Count(raw, ".")))
	fs.Set(FeatEqualCount, float64(strings.Count(raw, "=")))
	fs.Set(FeatQuestionCount, float64(strings.Count(raw, "?")))
	fs.Set(FeatHashCount, float64(strings.Count(raw, "#")))
	fs.Set(FeatPercentCount, float64(strings.Count(raw, "%")))
	fs.Set(FeatDomainAge, float64(e.domainAge(ctx, parts)))
	fs.SetBool(FeatHTTPSUsed, strings.EqualFold(u.Scheme, "https"))
	fs.SetBool(FeatPortPresent, u.Port() != "")
	fs.SetBool(FeatIPInDomain, ipPattern.MatchString(parts.Domain))
	fs.Set(FeatSuspiciousWords, float64(countWords(lower, SuspiciousWords)))
	fs.Set(FeatRedirectCount, float64(e.redirect(ctx, raw)))
	fs.Set(FeatURLDepth, float64(urlDepth(path)))
	fs.Set(FeatFaviconMatch, float64(e.favicon(ctx, raw)))
	fs.SetBool(FeatIsTypoDomain, typo.IsTypoDomain(parts.Domain, e.popular, e.threshold))
	fs.SetBool(FeatIsJudol, strings.Contains(lower, "judol"))

	return fs
}

// domainAge returns the registration age in days or DefaultDomainAge
func (e *Extractor) domainAge(ctx context.Context, parts Parts) int {
	if e.whois == nil || parts.Suffix == "" {
		return DefaultDomainAge
	}

	ctx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	age, err := e.whois.DomainAgeDays(ctx, parts.RegisteredDomain())
	if err != nil {
		e.logger.Debug("Domain age lookup failed",
			zap.String("domain", parts.RegisteredDomain()),
			zap.Error(err))
		return DefaultDomainAge
	}
	return age
}

// redirect returns 1 when a HEAD request answers with a redirect status
func (e *Extractor) redirect(ctx context.Context, raw string) int {
	status, ok := e.head(ctx, raw)
	if !ok {
		return DefaultRedirect
	}
	if redirectStatus[status] {
		return 1
	}
	return 0
}

// favicon returns 1 when the site serves /favicon.ico
func (e *Extractor) favicon(ctx context.Context, raw string) int {
	status, ok := e.head(ctx, strings.TrimRight(raw, "/")+"/favicon.ico")
	if !ok {
		return DefaultFavicon
	}
	if status == 200 {
		return 1
	}
	return 0
}

func (e *Extractor) head(ctx context.Context, target string) (int, bool) {
	if e.prober == nil {
		return 0, false
	}

	ctx, cancel := context.WithTimeout(ctx, LookupTimeout)
	defer cancel()

	status, err := e.prober.Head(ctx, target)
	if err != nil {
		e.logger.Debug("HEAD probe failed", zap.String("target", target), zap.Error(err))
		return 0, false
	}
	return status, true
}

func countSpecial(s string) int {
	n := 0
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			continue
		}
		n++
	}
	return n
}

func countWords(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

func urlDepth(path string) int {
	n := 0
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			n++
		}
	}
	return n
}
