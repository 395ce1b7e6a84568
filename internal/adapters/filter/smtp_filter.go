package filter

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
	"github.com/mikey/fraud-detector/internal/config"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/utils"
	"go.uber.org/zap"
)

const (
	// Status header values
	StatusClean    = "clean"
	StatusSpam     = "spam"
	StatusPhishing = "phishing"

	maxReasonBytes = 512
	analysisBudget = 60 * time.Second
	forwardTimeout = 30 * time.Second
)

// SMTPFilter is an SMTP content filter. It receives mail from the MTA, screens
// it, adds verdict headers and re-injects it at the forward address.
type SMTPFilter struct {
	service       *core.DetectionService
	cfg           config.ServerConfig
	textProcessor *utils.TextProcessor
	logger        *zap.Logger
	server        *smtp.Server
}

// NewSMTPFilter creates a new SMTP content filter
func NewSMTPFilter(
	service *core.DetectionService,
	cfg config.ServerConfig,
	textProcessor *utils.TextProcessor,
	logger *zap.Logger,
) *SMTPFilter {
	return &SMTPFilter{
		service:       service,
		cfg:           cfg,
		textProcessor: textProcessor,
		logger:        logger,
	}
}

// Start starts accepting connections in the background
func (f *SMTPFilter) Start() error {
	f.server = smtp.NewServer(&smtpBackend{filter: f})
	f.server.Addr = f.cfg.ListenAddress
	f.server.Domain = "localhost"
	f.server.ReadTimeout = 30 * time.Second
	f.server.WriteTimeout = 30 * time.Second
	f.server.MaxMessageBytes = f.cfg.MaxMessageBytes
	f.server.MaxRecipients = 50
	f.server.AllowInsecureAuth = true

	f.logger.Info("SMTP filter starting",
		zap.String("address", f.cfg.ListenAddress),
		zap.String("forward_address", f.cfg.ForwardAddress))

	go func() {
		if err := f.server.ListenAndServe(); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()
	return nil
}

// Stop closes the listener and all open sessions
func (f *SMTPFilter) Stop() error {
	if f.server != nil {
		return f.server.Close()
	}
	return nil
}

// ProcessEmail screens a parsed message
func (f *SMTPFilter) ProcessEmail(ctx context.Context, email *core.Email) (*core.MessageVerdict, error) {
	maxLinks := 0
	if f.cfg.CheckLinks {
		maxLinks = f.cfg.MaxLinks
	}
	return f.service.AnalyzeMessage(ctx, email, maxLinks), nil
}

// status maps a verdict onto the status header value
func status(v *core.MessageVerdict) string {
	switch {
	case len(v.PhishingLinks) > 0:
		return StatusPhishing
	case v.Email.Verdict:
		return StatusSpam
	default:
		return StatusClean
	}
}

// annotate returns raw with the verdict headers prepended. Incoming copies
// of those headers are dropped, and the subject is prefixed for suspicious
// mail when a prefix is configured.
func (f *SMTPFilter) annotate(raw []byte, v *core.MessageVerdict, id string) []byte {
	head, body := splitMessage(raw)

	h := f.cfg.Headers
	drop := map[string]bool{}
	for _, name := range []string{h.Status, h.Score, h.Level, h.Reason, h.Links, h.ID} {
		if name != "" {
			drop[strings.ToLower(name)] = true
		}
	}

	var subject string
	rewriteSubject := v.Suspicious() && f.cfg.SubjectPrefix != ""
	if rewriteSubject {
		subject = headerValue(head, "Subject")
		if decoded, err := decodeEncodedHeader(subject); err == nil {
			subject = decoded
		}
		if strings.HasPrefix(subject, f.cfg.SubjectPrefix) {
			rewriteSubject = false
		} else {
			drop["subject"] = true
		}
	}

	score := v.RiskScore()
	var out bytes.Buffer
	writeHeader(&out, h.Status, status(v))
	writeHeader(&out, h.Score, strconv.Itoa(score))
	writeHeader(&out, h.Level, core.RiskLevel(score))
	writeHeader(&out, h.Reason, f.textProcessor.HeaderValue(v.Reason(), maxReasonBytes))
	if len(v.PhishingLinks) > 0 {
		writeHeader(&out, h.Links, strings.Join(v.PhishingLinks, ", "))
	}
	writeHeader(&out, h.ID, id)
	if rewriteSubject {
		writeHeader(&out, "Subject", encodeHeader(f.cfg.SubjectPrefix+subject))
	}

	out.Write(filterHeaders(head, drop))
	out.WriteString("\r\n")
	out.Write(body)
	return out.Bytes()
}

func writeHeader(w *bytes.Buffer, name, value string) {
	if name == "" {
		return
	}
	fmt.Fprintf(w, "%s: %s\r\n", name, value)
}

// encodeHeader RFC 2047 encodes non-ASCII values
func encodeHeader(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return mime.QEncoding.Encode("utf-8", s)
		}
	}
	return s
}

// splitMessage separates the raw header block from the body. The returned
// head has no trailing blank line.
func splitMessage(raw []byte) (head, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+4:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+2:]
	}
	return raw, nil
}

// filterHeaders copies header lines, skipping fields named in drop together
// with their folded continuation lines
func filterHeaders(head []byte, drop map[string]bool) []byte {
	var out bytes.Buffer
	skipping := false
	sc := bufio.NewScanner(bytes.NewReader(head))
	sc.Buffer(make([]byte, 0, 64*1024), len(head)+1)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" {
			continue
		}
		if line[0] == ' ' || line[0] == '\t' {
			if !skipping {
				out.WriteString(line)
				out.WriteString("\r\n")
			}
			continue
		}
		name, _, _ := strings.Cut(line, ":")
		skipping = drop[strings.ToLower(strings.TrimSpace(name))]
		if !skipping {
			out.WriteString(line)
			out.WriteString("\r\n")
		}
	}
	return out.Bytes()
}

// headerValue returns the unfolded value of the first field called name
func headerValue(head []byte, name string) string {
	var value strings.Builder
	found := false
	sc := bufio.NewScanner(bytes.NewReader(head))
	sc.Buffer(make([]byte, 0, 64*1024), len(head)+1)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if found {
			if line != "" && (line[0] == ' ' || line[0] == '\t') {
				value.WriteString(" ")
				value.WriteString(strings.TrimSpace(line))
				continue
			}
			break
		}
		key, v, ok := strings.Cut(line, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			found = true
			value.WriteString(strings.TrimSpace(v))
		}
	}
	return value.String()
}

// forward re-injects the message into the MTA
func (f *SMTPFilter) forward(sender string, recipients []string, data []byte) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", f.cfg.ForwardAddress, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", f.cfg.ForwardAddress, err)
	}
	if err := conn.SetDeadline(time.Now().Add(forwardTimeout)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	accepted := 0
	for _, rcpt := range recipients {
		if err := c.Rcpt(rcpt, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient", zap.String("recipient", rcpt), zap.Error(err))
			continue
		}
		accepted++
	}
	if accepted == 0 {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// Already delivered
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

type smtpBackend struct {
	filter *SMTPFilter
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{filter: b.filter}, nil
}

type smtpSession struct {
	filter     *SMTPFilter
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Logout() error {
	return nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

func (s *smtpSession) Data(r io.Reader) error {
	f := s.filter
	id := uuid.NewString()
	logger := f.logger.With(zap.String("processing_id", id), zap.String("sender", s.sender))

	raw, err := io.ReadAll(r)
	if err != nil {
		logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	email, err := ParseMessage(bytes.NewReader(raw), s.sender, s.recipients)
	if err != nil {
		logger.Error("Failed to parse message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 6, 0},
			Message:      "Unable to parse message",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), analysisBudget)
	defer cancel()

	verdict, err := f.ProcessEmail(ctx, email)
	if err != nil {
		logger.Error("Failed to screen message", zap.Error(err))
		return err
	}

	score := verdict.RiskScore()
	if verdict.Suspicious() && f.cfg.BlockSpam {
		logger.Info("Rejecting message",
			zap.String("status", status(verdict)),
			zap.Int("risk_score", score),
			zap.String("reason", verdict.Reason()))
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      fmt.Sprintf("Rejected as %s (score: %d)", status(verdict), score),
		}
	}

	annotated := f.annotate(raw, verdict, id)

	if f.cfg.ForwardAddress == "" {
		logger.Warn("No forward address configured, message dropped after screening")
		return nil
	}
	if err := f.forward(s.sender, s.recipients, annotated); err != nil {
		logger.Error("Failed to forward message", zap.Error(err))
		return err
	}

	logger.Info("Processed message",
		zap.String("status", status(verdict)),
		zap.Int("risk_score", score),
		zap.Int("phishing_links", len(verdict.PhishingLinks)))
	return nil
}
