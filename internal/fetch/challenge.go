package fetch

import "strings"

const minChallengeBodyLen = 512

var challengeMarkers = []string{
	"just a moment",
	"verify you are human",
	"cf-challenge",
	"captcha",
	"checking your browser",
	"enable javascript and cookies to continue",
	"attention required! | cloudflare",
}

// looksLikeChallenge implements the spec §4.3 step 8 heuristic: a title
// or body containing a known challenge marker, or a suspiciously short
// body (below minChallengeBodyLen) that carries an interstitial stub
// phrase (see looksTruncatedChallenge).
func looksLikeChallenge(title, body string) bool {
	lowerTitle := strings.ToLower(title)
	lowerBody := strings.ToLower(body)

	for _, marker := range challengeMarkers {
		if strings.Contains(lowerTitle, marker) || strings.Contains(lowerBody, marker) {
			return true
		}
	}

	return len(body) < minChallengeBodyLen && len(body) > 0 && looksTruncatedChallenge(lowerBody)
}

// looksTruncatedChallenge catches challenge pages whose body is too short
// to repeat a marker verbatim but still smells like an interstitial
// rather than real content (e.g. a bare "Please wait..." redirect stub).
func looksTruncatedChallenge(lowerBody string) bool {
	for _, stub := range []string{"please wait", "redirecting", "one moment"} {
		if strings.Contains(lowerBody, stub) {
			return true
		}
	}
	return false
}
