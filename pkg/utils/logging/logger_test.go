package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/recollect-dev/recollect/pkg/utils/logging"
)

func TestNew(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf)
	gt.NotNil(t, logger)

	logger.Info("hello")
	gt.S(t, buf.String()).Contains("hello")
}

func TestLevelFiltering(t *testing.T) {
	cases := map[string]struct {
		wantDebug bool
		wantInfo  bool
	}{
		"debug":   {wantDebug: true, wantInfo: true},
		"info":    {wantDebug: false, wantInfo: true},
		"warn":    {wantDebug: false, wantInfo: false},
		"warning": {wantDebug: false, wantInfo: false},
		"error":   {wantDebug: false, wantInfo: false},
		"WARN":    {wantDebug: false, wantInfo: false},
		"bogus":   {wantDebug: false, wantInfo: true},
	}

	for level, tc := range cases {
		t.Run(level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(level, buf)

			logger.Debug("debug line")
			logger.Info("info line")
			logger.Error("error line")

			out := buf.String()
			if tc.wantDebug {
				gt.S(t, out).Contains("debug line")
			} else {
				gt.S(t, out).NotContains("debug line")
			}
			if tc.wantInfo {
				gt.S(t, out).Contains("info line")
			} else {
				gt.S(t, out).NotContains("info line")
			}
			gt.S(t, out).Contains("error line")
		})
	}
}

func TestContextCarrier(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf)
	ctx := logging.With(context.Background(), logger)

	gt.Equal(t, logging.From(ctx), logger)

	logging.From(ctx).Info("carried")
	gt.S(t, buf.String()).Contains("carried")
}

func TestFromBareContext(t *testing.T) {
	gt.NotNil(t, logging.From(context.Background()))
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	replacement := logging.New("debug", buf)
	logging.SetDefault(replacement)

	gt.Equal(t, logging.Default(), replacement)

	logging.Default().Info("replaced")
	gt.S(t, buf.String()).Contains("replaced")
}
