package check

import "strings"

// KeyPrefix is the prefix of OpenAI project keys
const KeyPrefix = "sk-proj-"

type Verdict string

const (
	VerdictMissing    Verdict = "missing"
	VerdictBadPrefix  Verdict = "bad_prefix"
	VerdictWhitespace Verdict = "whitespace"
	VerdictOK         Verdict = "ok"
)

var messages = map[Verdict]string{
	VerdictMissing:    "No API key was found - please head over to the troubleshooting notebook in this folder to identify & fix!",
	VerdictBadPrefix:  "An API key was found, but it doesn't start sk-proj-; please check you're using the right key - see troubleshooting notebook",
	VerdictWhitespace: "An API key was found, but it looks like it might have space or tab characters at the start or end - please remove them - see troubleshooting notebook",
	VerdictOK:         "API key found and looks good so far!",
}

// Message returns the diagnostic shown to the user
func (v Verdict) Message() string {
	return messages[v]
}

// Fatal reports whether no request can be attempted with the key
func (v Verdict) Fatal() bool {
	return v == VerdictMissing
}

// InspectKey classifies an API key. Checks run in order and the first
// failing one wins, so a key with leading space reports bad_prefix.
func InspectKey(key string) Verdict {
	switch {
	case key == "":
		return VerdictMissing
	case !strings.HasPrefix(key, KeyPrefix):
		return VerdictBadPrefix
	case strings.TrimSpace(key) != key:
		return VerdictWhitespace
	default:
		return VerdictOK
	}
}
