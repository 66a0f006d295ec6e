package check_test

import (
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/reel-ai/reel/pkg/usecase/check"
)

func TestInspectKey(t *testing.T) {
	testCases := []struct {
		name string
		key  string
		want check.Verdict
	}{
		{"empty", "", check.VerdictMissing},
		{"legacy key", "sk-abcdef", check.VerdictBadPrefix},
		{"leading space", " sk-proj-abc", check.VerdictBadPrefix},
		{"trailing newline", "sk-proj-abc\n", check.VerdictWhitespace},
		{"trailing tab", "sk-proj-abc\t", check.VerdictWhitespace},
		{"valid", "sk-proj-abc", check.VerdictOK},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gt.Equal(t, check.InspectKey(tc.key), tc.want)
		})
	}
}

func TestVerdictMessage(t *testing.T) {
	gt.S(t, check.VerdictMissing.Message()).Contains("No API key was found")
	gt.S(t, check.VerdictBadPrefix.Message()).Contains("doesn't start sk-proj-")
	gt.S(t, check.VerdictWhitespace.Message()).Contains("space or tab characters")
	gt.Equal(t, check.VerdictOK.Message(), "API key found and looks good so far!")

	gt.True(t, check.VerdictMissing.Fatal())
	gt.False(t, check.VerdictBadPrefix.Fatal())
	gt.False(t, check.VerdictOK.Fatal())
}
