package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/fraud-detector/internal/adapters/filter"
	"github.com/mikey/fraud-detector/internal/core"
	"github.com/mikey/fraud-detector/internal/di"
	"github.com/mikey/fraud-detector/internal/ports"
)

// screener runs one CLI request against the detection service
type screener struct {
	flags   *di.CLIFlags
	service *core.DetectionService
	filter  ports.EmailFilter
	in      io.Reader
	out     io.Writer
}

// run screens or reports the input and returns whether it was flagged
func (s *screener) run(ctx context.Context) (bool, error) {
	switch s.flags.Type {
	case di.TypeURL:
		if s.flags.Report {
			if err := s.service.ReportURL(ctx, s.flags.Input); err != nil {
				return false, err
			}
			fmt.Fprintf(s.out, "Reported %s as phishing\n", s.flags.Input)
			return false, nil
		}
		r, err := s.service.AnalyzeURL(ctx, s.flags.Input)
		if err != nil {
			return false, err
		}
		return r.Verdict, s.emit(r, func() { printURL(s.out, r) })

	case di.TypePhone:
		if s.flags.Report {
			if err := s.service.ReportPhone(ctx, s.flags.Input); err != nil {
				return false, err
			}
			fmt.Fprintf(s.out, "Reported %s as a scam number\n", s.flags.Input)
			return false, nil
		}
		r := s.service.AnalyzePhone(ctx, s.flags.Input)
		return r.Verdict, s.emit(r, func() { printPhone(s.out, r) })

	case di.TypeEmail:
		content := s.flags.Input
		if content == "" {
			data, err := s.readInput()
			if err != nil {
				return false, err
			}
			content = string(data)
		}
		r := s.service.AnalyzeEmail(ctx, content, s.flags.Sender)
		return r.Verdict, s.emit(r, func() { printEmail(s.out, r) })

	case di.TypeMessage:
		data, err := s.readInput()
		if err != nil {
			return false, err
		}
		email, err := filter.ParseMessage(bytes.NewReader(data), s.flags.Sender, nil)
		if err != nil {
			return false, err
		}
		if s.flags.JSON {
			v := s.service.AnalyzeMessage(ctx, email, s.flags.MaxLinks)
			return v.Suspicious(), writeJSON(s.out, newMessageReport(v))
		}
		v, err := s.filter.ProcessEmail(ctx, email)
		if err != nil {
			return false, err
		}
		return v.Suspicious(), nil

	case di.TypeAPK:
		r := s.service.AnalyzeAPKFile(ctx, s.flags.File)
		return r.Verdict, s.emit(r, func() { printAPK(s.out, r) })

	default:
		return false, fmt.Errorf("unsupported input type: %s", s.flags.Type)
	}
}

// emit writes v as JSON or runs the human-readable printer
func (s *screener) emit(v interface{}, human func()) error {
	if s.flags.JSON {
		return writeJSON(s.out, v)
	}
	human()
	return nil
}

// readInput reads the -file argument, or stdin when none was given
func (s *screener) readInput() ([]byte, error) {
	if s.flags.File != "" {
		data, err := os.ReadFile(s.flags.File)
		if err != nil {
			return nil, fmt.Errorf("failed to read input file: %w", err)
		}
		return data, nil
	}
	data, err := io.ReadAll(s.in)
	if err != nil {
		return nil, fmt.Errorf("failed to read stdin: %w", err)
	}
	return data, nil
}
