package core

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrModelUnavailable is returned when the phishing model cannot be loaded or queried
	ErrModelUnavailable = errors.New("phishing model unavailable")
	// ErrSchemaMismatch is returned when the model expects a different feature schema
	ErrSchemaMismatch = errors.New("model feature schema mismatch")
)

// Classifier predicts whether a URL is phishing from its model feature vector
type Classifier interface {
	// Predict returns label 1 for phishing, 0 for legitimate, and the confidence of that label
	Predict(ctx context.Context, rawURL string, features FeatureSet) (*Prediction, error)
}

// ReputationStore is a set of confirmed-bad keys (reported URLs, scam numbers)
type ReputationStore interface {
	// Contains reports whether the key has been reported
	Contains(ctx context.Context, key string) (bool, error)

	// Add records the key; adding an existing key is a no-op
	Add(ctx context.Context, key string) error
}

// DomainAgeLookup resolves the registration age of a domain in days
type DomainAgeLookup interface {
	DomainAgeDays(ctx context.Context, domain string) (int, error)
}

// Prober issues HEAD requests without following redirects
type Prober interface {
	Head(ctx context.Context, url string) (int, error)
}

// CacheRepository stores domain age lookups
type CacheRepository interface {
	// Get retrieves a cached entry for a domain
	Get(ctx context.Context, domain string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, domain string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// URLAnalyzer screens URLs for phishing
type URLAnalyzer interface {
	Analyze(ctx context.Context, rawURL string) (*URLResult, error)
	Report(ctx context.Context, rawURL string) error
}

// EmailAnalyzer screens email text for spam
type EmailAnalyzer interface {
	Analyze(ctx context.Context, content, sender string) *EmailResult
}

// PhoneAnalyzer screens phone numbers for scams
type PhoneAnalyzer interface {
	Analyze(ctx context.Context, number string) *PhoneResult
	Report(ctx context.Context, number string) error
}

// APKAnalyzer screens Android packages for malware
type APKAnalyzer interface {
	Analyze(ctx context.Context, r io.ReaderAt, size int64) *APKResult
	AnalyzeFile(ctx context.Context, path string) *APKResult
}
