package core

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// FeatureSet is an ordered mapping of feature names to numeric values.
// The key set is fixed at construction; Set never adds new keys.
type FeatureSet struct {
	keys   []string
	values map[string]float64
}

// NewFeatureSet creates a zero-filled feature set with the given keys
func NewFeatureSet(keys ...string) FeatureSet {
	fs := FeatureSet{
		keys:   make([]string, 0, len(keys)),
		values: make(map[string]float64, len(keys)),
	}
	for _, k := range keys {
		if _, ok := fs.values[k]; ok {
			continue
		}
		fs.keys = append(fs.keys, k)
		fs.values[k] = 0
	}
	return fs
}

// Set updates a declared feature. It reports false for unknown keys.
func (f FeatureSet) Set(key string, value float64) bool {
	if _, ok := f.values[key]; !ok {
		return false
	}
	f.values[key] = value
	return true
}

// SetBool stores a boolean feature as 0 or 1
func (f FeatureSet) SetBool(key string, value bool) bool {
	if value {
		return f.Set(key, 1)
	}
	return f.Set(key, 0)
}

// Get returns the value of a feature, or 0 when the key is unknown
func (f FeatureSet) Get(key string) float64 {
	return f.values[key]
}

// Has reports whether the key belongs to the feature set shape
func (f FeatureSet) Has(key string) bool {
	_, ok := f.values[key]
	return ok
}

// Keys returns the feature names in order
func (f FeatureSet) Keys() []string {
	out := make([]string, len(f.keys))
	copy(out, f.keys)
	return out
}

// Values returns the feature values in key order
func (f FeatureSet) Values() []float64 {
	out := make([]float64, len(f.keys))
	for i, k := range f.keys {
		out[i] = f.values[k]
	}
	return out
}

// Len returns the number of features
func (f FeatureSet) Len() int {
	return len(f.keys)
}

// Clone returns an independent copy
func (f FeatureSet) Clone() FeatureSet {
	c := NewFeatureSet(f.keys...)
	for k, v := range f.values {
		c.values[k] = v
	}
	return c
}

// MarshalJSON encodes the features as an object in key order
func (f FeatureSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.FormatFloat(f.values[k], 'g', -1, 64))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// AnalysisResult is the uniform record returned by every analyzer
type AnalysisResult struct {
	RiskScore       int        `json:"risk_score"`
	Verdict         bool       `json:"verdict"`
	Level           string     `json:"risk_level"`
	Issues          []string   `json:"issues"`
	Features        FeatureSet `json:"features"`
	Recommendations []string   `json:"recommendations"`
}

// URLResult is the outcome of a phishing URL analysis
type URLResult struct {
	AnalysisResult
	URL             string     `json:"url"`
	Label           int        `json:"label"`
	Confidence      float64    `json:"confidence"`
	ConfidenceLevel string     `json:"confidence_level"`
	Decision        string     `json:"decision"`
	Reported        bool       `json:"reported"`
	AllowListed     bool       `json:"allow_listed"`
	ModelFeatures   FeatureSet `json:"model_features"`
}

// EmailResult is the outcome of an email spam analysis
type EmailResult struct {
	AnalysisResult
	Sender string `json:"sender,omitempty"`
}

// PhoneResult is the outcome of a phone number analysis
type PhoneResult struct {
	AnalysisResult
	Valid           bool   `json:"is_valid"`
	FormattedNumber string `json:"formatted_number"`
	CountryCode     string `json:"country_code"`
	NumberType      string `json:"number_type"`
}

// Manifest holds the fields extracted from an APK manifest
type Manifest struct {
	PackageName string   `json:"package_name"`
	AppName     string   `json:"app_name"`
	VersionName string   `json:"version_name"`
	VersionCode int      `json:"version_code"`
	Permissions []string `json:"permissions"`
}

// APKResult is the outcome of an APK analysis
type APKResult struct {
	AnalysisResult
	Manifest Manifest `json:"manifest"`
}

// Prediction is a classifier output for a URL
type Prediction struct {
	Label       int
	Confidence  float64
	Model       string
	Explanation string
}

// Email represents an email message
type Email struct {
	From    string
	To      []string
	Subject string
	Body    string
	Headers map[string][]string
}

// Content returns the text screened by the email analyzer
func (e *Email) Content() string {
	if e.Subject == "" {
		return e.Body
	}
	return e.Subject + "\n" + e.Body
}

// CacheEntry is a cached domain age lookup
type CacheEntry struct {
	Domain    string
	AgeDays   int
	LastSeen  time.Time
	ExpiresAt time.Time
}
