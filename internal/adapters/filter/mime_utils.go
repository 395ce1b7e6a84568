package filter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/mikey/fraud-detector/internal/core"
	"golang.org/x/text/encoding/htmlindex"
)

// maxMultipartDepth bounds recursion into nested multipart bodies
const maxMultipartDepth = 5

var wordDecoder = &mime.WordDecoder{CharsetReader: charsetReader}

// charsetReader converts input in any WHATWG-known charset to UTF-8
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", charset, err)
	}
	return enc.NewDecoder().Reader(input), nil
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value
func decodeEncodedHeader(value string) (string, error) {
	return wordDecoder.DecodeHeader(value)
}

// ParseMessage reads an RFC 5322 message into an Email. envelopeFrom, when
// set, takes precedence over the From header.
func ParseMessage(r io.Reader, envelopeFrom string, recipients []string) (*core.Email, error) {
	msg, err := mail.ReadMessage(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("failed to extract text content: %w", err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	from := envelopeFrom
	if from == "" {
		if addr, err := mail.ParseAddress(msg.Header.Get("From")); err == nil {
			from = addr.Address
		}
	}

	return &core.Email{
		From:    from,
		To:      recipients,
		Subject: subject,
		Body:    body,
		Headers: msg.Header,
	}, nil
}

// extractTextFromMessage returns the readable text of a message. Multipart
// bodies contribute their text/plain parts, falling back to text/html.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(textproto.MIMEHeader(msg.Header), msg.Body, 0)
}

func extractText(header textproto.MIMEHeader, body io.Reader, depth int) (string, error) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		mediaType = "text/plain"
		params = nil
	}

	if !strings.HasPrefix(mediaType, "multipart/") || depth >= maxMultipartDepth {
		data, err := io.ReadAll(decodeTransfer(header.Get("Content-Transfer-Encoding"), body))
		if err != nil {
			return "", err
		}
		return toUTF8(data, params["charset"]), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	var plain, html bytes.Buffer
	mr := multipart.NewReader(body, boundary)
	for {
		part, err := mr.NextPart()
		if err != nil {
			// io.EOF ends the body; on damage keep what was readable
			break
		}

		partType, _, _ := mime.ParseMediaType(part.Header.Get("Content-Type"))
		if partType == "" {
			partType = "text/plain"
		}
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			text, err := extractText(part.Header, part, depth+1)
			if err == nil && text != "" {
				plain.WriteString(text)
				plain.WriteString("\n")
			}
		case partType == "text/plain" && part.FileName() == "":
			text, err := extractText(part.Header, part, depth+1)
			if err == nil {
				plain.WriteString(text)
				plain.WriteString("\n")
			}
		case partType == "text/html" && part.FileName() == "":
			text, err := extractText(part.Header, part, depth+1)
			if err == nil {
				html.WriteString(text)
				html.WriteString("\n")
			}
		}
	}

	if plain.Len() > 0 {
		return plain.String(), nil
	}
	return html.String(), nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, r)
	default:
		return r
	}
}

// toUTF8 converts data from charset, leaving it untouched when the charset
// is unknown or already UTF-8
func toUTF8(data []byte, charset string) string {
	charset = strings.ToLower(strings.TrimSpace(charset))
	if charset == "" || charset == "utf-8" || charset == "us-ascii" {
		return string(data)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(data)
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return string(data)
	}
	return string(out)
}
