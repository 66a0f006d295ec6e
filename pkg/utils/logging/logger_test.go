package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"
	"github.com/reel-ai/reel/pkg/utils/logging"
)

func TestLevels(t *testing.T) {
	testCases := []struct {
		level string
		shown []string
		muted []string
	}{
		{"debug", []string{"dbg", "inf", "wrn", "err"}, nil},
		{"info", []string{"inf", "wrn", "err"}, []string{"dbg"}},
		{"WARNING", []string{"wrn", "err"}, []string{"dbg", "inf"}},
		{"error", []string{"err"}, []string{"dbg", "inf", "wrn"}},
		{"verbose", []string{"inf", "wrn", "err"}, []string{"dbg"}},
	}

	for _, tc := range testCases {
		t.Run(tc.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)

			logger.Debug("dbg-message")
			logger.Info("inf-message")
			logger.Warn("wrn-message")
			logger.Error("err-message")

			for _, s := range tc.shown {
				gt.S(t, buf.String()).Contains(s + "-message")
			}
			for _, s := range tc.muted {
				gt.S(t, buf.String()).NotContains(s + "-message")
			}
		})
	}
}

func TestGoerrValuesAreLogged(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf)

	err := goerr.New("index is not ensured", goerr.V("index", "movie"))
	logger.Error("command failed", "error", err)

	gt.S(t, buf.String()).Contains("index is not ensured")
	gt.S(t, buf.String()).Contains("movie")
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("info", buf).With("session_id", "abc-123")

	ctx := logging.With(context.Background(), logger)
	gt.Equal(t, logging.From(ctx), logger)

	logging.From(ctx).Info("records loaded")
	gt.S(t, buf.String()).Contains("records loaded")
	gt.S(t, buf.String()).Contains("abc-123")
}

func TestFromFallsBackToDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	custom := logging.New("warn", buf)
	logging.SetDefault(custom)

	retrieved := logging.From(context.Background())
	gt.Equal(t, retrieved, custom)

	retrieved.Warn("from default")
	gt.S(t, buf.String()).Contains("from default")
}

func TestNewWithNilWriter(t *testing.T) {
	gt.V(t, logging.New("info", nil)).NotNil()
}
