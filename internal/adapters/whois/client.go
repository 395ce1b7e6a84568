// Package whois looks up domain registration dates over the port-43 WHOIS protocol.
package whois

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/mikey/fraud-detector/internal/core"
	"go.uber.org/zap"
)

var (
	// ErrNoServer is returned for TLDs without a known WHOIS server
	ErrNoServer = errors.New("no whois server for tld")
	// ErrNoCreationDate is returned when the response carries no parseable creation date
	ErrNoCreationDate = errors.New("whois response has no creation date")
)

const (
	// DefaultPort is the WHOIS TCP port
	DefaultPort = "43"
	// maxResponseBytes bounds how much of a response is read
	maxResponseBytes = 64 * 1024
)

// DefaultServers maps TLDs to their registry WHOIS servers
var DefaultServers = map[string]string{
	"com": "whois.verisign-grs.com", "net": "whois.verisign-grs.com",
	"org": "whois.pir.org", "io": "whois.nic.io",
	"dev": "whois.nic.google", "app": "whois.nic.google",
	"co": "whois.nic.co", "me": "whois.nic.me",
	"uk": "whois.nic.uk", "us": "whois.nic.us",
	"ca": "whois.cira.ca", "au": "whois.auda.org.au",
	"de": "whois.denic.de", "fr": "whois.nic.fr",
	"nl": "whois.sidn.nl", "eu": "whois.eu",
	"it": "whois.nic.it", "ch": "whois.nic.ch",
	"se": "whois.iis.se", "pl": "whois.dns.pl",
	"xyz": "whois.nic.xyz", "tech": "whois.nic.tech",
	"site": "whois.nic.site", "store": "whois.nic.store",
	"info": "whois.afilias.net", "biz": "whois.nic.biz",
	"mobi": "whois.nic.mobi", "pro": "whois.nic.pro",
	"cloud": "whois.nic.cloud", "online": "whois.nic.online",
	"live": "whois.nic.live", "space": "whois.nic.space",
	"top": "whois.nic.top", "id": "whois.id",
	"my": "whois.mynic.my", "sg": "whois.sgnic.sg",
}

var creationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)^\s*creation date:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*created on:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*created:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*registered on:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*registration time:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*domain registration date:\s*(.+)$`),
	regexp.MustCompile(`(?im)^\s*registered:\s*(.+)$`),
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 MST",
	"2006-01-02",
	"02-Jan-2006",
	"02-Jan-2006 15:04:05 MST",
	"2006.01.02",
	"02.01.2006",
	"Mon Jan 2 15:04:05 MST 2006",
}

// Client is a minimal WHOIS client
type Client struct {
	servers map[string]string
	port    string
	dialer  *net.Dialer
	now     func() time.Time
	logger  *zap.Logger
}

var _ core.DomainAgeLookup = (*Client)(nil)

// Option configures a Client
type Option func(*Client)

// WithServers overrides the TLD to server map
func WithServers(servers map[string]string) Option {
	return func(c *Client) { c.servers = servers }
}

// WithPort overrides the WHOIS port
func WithPort(port string) Option {
	return func(c *Client) { c.port = port }
}

// WithClock overrides the clock used to compute ages
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a new WHOIS client
func NewClient(logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		servers: DefaultServers,
		port:    DefaultPort,
		dialer:  &net.Dialer{},
		now:     time.Now,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Lookup returns the raw WHOIS response for domain. The context deadline bounds
// both the dial and the read.
func (c *Client) Lookup(ctx context.Context, domain string) (string, error) {
	domain = strings.TrimSuffix(strings.ToLower(domain), ".")
	tld := domain
	if i := strings.LastIndex(domain, "."); i >= 0 {
		tld = domain[i+1:]
	}
	server, ok := c.servers[tld]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNoServer, tld)
	}

	conn, err := c.dialer.DialContext(ctx, "tcp", net.JoinHostPort(server, c.port))
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", server, err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			return "", fmt.Errorf("failed to set deadline: %w", err)
		}
	}

	if _, err := conn.Write([]byte(domain + "\r\n")); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}

	data, err := io.ReadAll(io.LimitReader(conn, maxResponseBytes))
	if err != nil && len(data) == 0 {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	return string(data), nil
}

// DomainAgeDays returns the whole days since the domain was registered
func (c *Client) DomainAgeDays(ctx context.Context, domain string) (int, error) {
	resp, err := c.Lookup(ctx, domain)
	if err != nil {
		return 0, err
	}

	created, err := ParseCreationDate(resp)
	if err != nil {
		return 0, err
	}

	days := int(c.now().Sub(created).Hours() / 24)
	if days < 0 {
		days = 0
	}
	c.logger.Debug("Resolved domain age",
		zap.String("domain", domain),
		zap.Time("created", created),
		zap.Int("age_days", days))
	return days, nil
}

// ParseCreationDate finds the earliest creation date in a WHOIS response
func ParseCreationDate(resp string) (time.Time, error) {
	var earliest time.Time
	for _, re := range creationPatterns {
		for _, m := range re.FindAllStringSubmatch(resp, -1) {
			t, ok := parseDate(strings.TrimSpace(m[1]))
			if !ok {
				continue
			}
			if earliest.IsZero() || t.Before(earliest) {
				earliest = t
			}
		}
	}
	if earliest.IsZero() {
		return time.Time{}, ErrNoCreationDate
	}
	return earliest, nil
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Some registries append a timezone note after the timestamp.
	if fields := strings.Fields(s); len(fields) > 1 {
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, fields[0]); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
