// Package emailcheck scores email text and sender addresses for spam.
package emailcheck

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mikey/fraud-detector/internal/core"
)

// Feature names produced by Extract, in order
const (
	FeatLength           = "length"
	FeatWordCount        = "word_count"
	FeatSpamKeywords     = "spam_keyword_count"
	FeatSuspiciousCount  = "suspicious_pattern_count"
	FeatAllCapsRatio     = "all_caps_ratio"
	FeatExclamationCount = "exclamation_count"
	FeatQuestionCount    = "question_count"
	FeatURLCount         = "url_count"
	FeatNumberCount      = "number_count"
	FeatEmailCount       = "email_count"
)

// FeatureNames is the fixed shape of the email feature set
var FeatureNames = []string{
	FeatLength, FeatWordCount, FeatSpamKeywords, FeatSuspiciousCount, FeatAllCapsRatio,
	FeatExclamationCount, FeatQuestionCount, FeatURLCount, FeatNumberCount, FeatEmailCount,
}

// SpamKeywords is the Indonesian list followed by the English one. Words shared by
// both lists appear twice, and every entry present in the text adds one to the count.
var SpamKeywords = []string{
	// Indonesian
	"menang", "hadiah", "undian", "lotre", "jackpot", "kaya", "uang",
	"dollar", "rupiah", "transfer", "bank", "pinjaman", "kredit",
	"gratis", "free", "discount", "diskon", "promo", "promosi",
	"urgent", "penting", "segera", "terbatas", "limited", "terakhir",
	"last", "chance", "kesempatan", "beruntung", "lucky", "winner",
	"pemenang", "million", "juta", "billion", "miliar", "cash",
	"tunai", "prize", "hadiah", "reward", "imbalan", "bonus",
	// English
	"winner", "won", "prize", "money", "cash", "million", "billion",
	"dollar", "free", "urgent", "limited", "offer", "discount",
	"credit", "loan", "bank", "transfer", "account", "password",
	"verify", "confirm", "update", "security", "suspended", "blocked",
	"unlock", "activate", "claim", "inheritance", "lottery", "jackpot",
	"investment", "profit", "earn", "income", "wealth", "rich",
	"exclusive", "vip", "premium", "special", "unique", "amazing",
	"incredible", "unbelievable", "shocking", "secret", "hidden",
}

var (
	urlPattern    = regexp.MustCompile(`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`)
	emailPattern  = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Z|a-z]{2,}\b`)
	numberPattern = regexp.MustCompile(`\d+`)

	// Matches of every pattern are summed; a token may be counted by several.
	suspiciousPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b\d{10,}\b`),
		regexp.MustCompile(`\b[A-Z]{5,}\b`),
		regexp.MustCompile(`\$\d+`),
		regexp.MustCompile(`\b\d{1,3}(,\d{3})*\b`),
		urlPattern,
		emailPattern,
	}
)

// Extract computes the email feature set for content
func Extract(content string) core.FeatureSet {
	fs := core.NewFeatureSet(FeatureNames...)
	words := strings.Fields(content)
	lower := strings.ToLower(content)

	fs.Set(FeatLength, float64(utf8.RuneCountInString(content)))
	fs.Set(FeatWordCount, float64(len(words)))
	fs.Set(FeatExclamationCount, float64(strings.Count(content, "!")))
	fs.Set(FeatQuestionCount, float64(strings.Count(content, "?")))
	fs.Set(FeatURLCount, float64(len(urlPattern.FindAllString(content, -1))))
	fs.Set(FeatNumberCount, float64(len(numberPattern.FindAllString(content, -1))))
	fs.Set(FeatEmailCount, float64(len(emailPattern.FindAllString(content, -1))))

	keywords := 0
	for _, k := range SpamKeywords {
		if strings.Contains(lower, k) {
			keywords++
		}
	}
	fs.Set(FeatSpamKeywords, float64(keywords))

	patterns := 0
	for _, re := range suspiciousPatterns {
		patterns += len(re.FindAllStringIndex(content, -1))
	}
	fs.Set(FeatSuspiciousCount, float64(patterns))

	if len(words) > 0 {
		caps := 0
		for _, w := range words {
			if utf8.RuneCountInString(w) > 2 && isUpper(w) {
				caps++
			}
		}
		fs.Set(FeatAllCapsRatio, float64(caps)/float64(len(words)))
	}

	return fs
}

// isUpper reports whether w has at least one cased letter and no lowercase ones
func isUpper(w string) bool {
	upper := false
	for _, r := range w {
		switch {
		case unicode.IsLower(r):
			return false
		case unicode.IsUpper(r) || unicode.IsTitle(r):
			upper = true
		}
	}
	return upper
}
