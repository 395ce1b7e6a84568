package urlcheck

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/mikey/fraud-detector/internal/analyzer/typo"
	"github.com/mikey/fraud-detector/internal/core"
)

var errNoHost = errors.New("url has no host")

// ModelFeatureNames is the exact schema the phishing model was trained on
var ModelFeatureNames = []string{
	"having_IP_Address",
	"URL_Length",
	"Shortining_Service",
	"having_At_Symbol",
	"double_slash_redirecting",
	"Prefix_Suffix",
	"having_Sub_Domain",
	"SSLfinal_State",
	"Domain_registeration_length",
	"Favicon",
	"port",
	"HTTPS_token",
	"Request_URL",
	"URL_of_Anchor",
	"Links_in_tags",
	"SFH",
	"Submitting_to_email",
	"Abnormal_URL",
	"Redirect",
	"on_mouseover",
	"RightClick",
	"popUpWidnow",
	"Iframe",
	"age_of_domain",
	"DNSRecord",
	"web_traffic",
	"Page_Rank",
	"Google_Index",
	"Links_pointing_to_page",
	"Statistical_report",
	"is_typo_domain",
}

// Page-content features cannot be computed from the URL alone; these are the
// constants the model was fed for them.
var modelPlaceholders = map[string]float64{
	"Favicon":                1,
	"URL_of_Anchor":          0,
	"Links_in_tags":          0,
	"SFH":                    0,
	"Submitting_to_email":    -1,
	"Redirect":               0,
	"on_mouseover":           1,
	"RightClick":             1,
	"popUpWidnow":            1,
	"Iframe":                 1,
	"age_of_domain":          1,
	"DNSRecord":              1,
	"web_traffic":            -1,
	"Page_Rank":              -1,
	"Google_Index":           -1,
	"Links_pointing_to_page": 1,
	"Statistical_report":     1,
}

var (
	shortenerServices = []string{"bit.ly", "goo.gl", "tinyurl"}
	abnormalWords     = []string{"login", "secure", "verify"}
)

// LongURLThreshold is the length above which URL_Length is set
const LongURLThreshold = 75

// ModelAdapter encodes URLs into the model feature schema
type ModelAdapter struct {
	popular   []string
	threshold float64
}

// NewModelAdapter creates a model feature adapter sharing the typo-domain configuration
func NewModelAdapter(popular []string, threshold float64) *ModelAdapter {
	return &ModelAdapter{popular: popular, threshold: threshold}
}

// Adapt returns the model feature vector for raw. It fails when the URL has no host.
func (a *ModelAdapter) Adapt(raw string) (core.FeatureSet, error) {
	parts, err := Split(raw)
	if err != nil {
		return core.FeatureSet{}, err
	}
	u := parts.URL
	host := strings.ToLower(u.Hostname())
	if host == "" {
		host = parts.Host
	}

	fs := core.NewFeatureSet(ModelFeatureNames...)
	for name, v := range modelPlaceholders {
		fs.Set(name, v)
	}

	fs.Set("having_IP_Address", ternary(isDigits(strings.ReplaceAll(host, ".", "")), -1, 1))
	fs.Set("URL_Length", ternary(utf8.RuneCountInString(raw) > LongURLThreshold, 1, 0))
	fs.Set("Shortining_Service", ternary(containsAny(raw, shortenerServices), 1, -1))
	fs.Set("having_At_Symbol", ternary(strings.Contains(raw, "@"), 1, -1))
	fs.Set("double_slash_redirecting", ternary(len(raw) > 8 && strings.Contains(raw[8:], "//"), 1, -1))
	fs.Set("Prefix_Suffix", ternary(strings.Contains(host, "-"), 1, -1))
	fs.Set("having_Sub_Domain", ternary(len(strings.Split(host, ".")) > 2 && !strings.HasPrefix(host, "www."), 1, 0))
	fs.Set("SSLfinal_State", ternary(u.Scheme == "https", 1, -1))
	fs.Set("Domain_registeration_length", ternary(len(host) > 10, 1, -1))
	fs.Set("port", ternary(u.Port() != "" && u.Port() != "0", 1, -1))
	fs.Set("HTTPS_token", ternary(strings.Contains(host, "https"), 1, -1))
	fs.Set("Request_URL", ternary(len(u.EscapedPath()) > 0, 1, -1))
	fs.Set("Abnormal_URL", ternary(containsAny(raw, abnormalWords), 1, -1))
	fs.SetBool("is_typo_domain", typo.IsTypoDomain(parts.Domain, a.popular, a.threshold))

	return fs, nil
}

func ternary(cond bool, yes, no float64) float64 {
	if cond {
		return yes
	}
	return no
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
