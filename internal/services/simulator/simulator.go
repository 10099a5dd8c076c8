// Package simulator runs a request descriptor locally, standing in for the DON.
package simulator

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/sandbox"
)

type executor interface {
	Execute(ctx context.Context, source string, secrets entity.Secrets, args []string) sandbox.Result
}

// Report is the outcome of one simulated request.
type Report struct {
	Source                 string
	ReturnType             domain.ReturnType
	ResponseBytesHexstring string
	Decoded                string
	ErrorString            string
	CapturedLogs           []string
}

// Failed reports whether the script returned an error instead of a value.
func (r Report) Failed() bool {
	return r.ErrorString != ""
}

type Simulator struct {
	exec executor
	l    *zap.Logger
}

func New(exec executor, l *zap.Logger) *Simulator {
	if l == nil {
		l = zap.NewNop()
	}
	return &Simulator{exec: exec, l: l}
}

// Simulate executes cfg. A script error is part of the report, not an
// error; an invalid descriptor or an undecodable response is.
func (s *Simulator) Simulate(ctx context.Context, cfg entity.RequestConfig) (Report, error) {
	if err := cfg.Validate(); err != nil {
		return Report{}, err
	}

	res := s.exec.Execute(ctx, cfg.Source, cfg.Secrets, cfg.Args)
	report := Report{
		Source:       cfg.Source,
		ReturnType:   cfg.ExpectedReturnType,
		ErrorString:  res.ErrorString,
		CapturedLogs: res.CapturedLogs,
	}
	if report.Failed() {
		s.l.Warn("script returned an error", zap.String("source", cfg.Source), zap.String("error", res.ErrorString))
		return report, nil
	}

	report.ResponseBytesHexstring = res.ResponseBytesHexstring
	decoded, err := cfg.ExpectedReturnType.DecodeResult(res.ResponseBytesHexstring)
	if err != nil {
		return report, errors.Wrapf(err, "decode response as %s", cfg.ExpectedReturnType)
	}
	report.Decoded = decoded

	s.l.Info("simulation finished",
		zap.String("source", cfg.Source),
		zap.String("response", res.ResponseBytesHexstring),
		zap.String("decoded", decoded))
	return report, nil
}
