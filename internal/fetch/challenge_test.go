package fetch

import "testing"

func TestLooksLikeChallengeMarkerInTitle(t *testing.T) {
	if !looksLikeChallenge("Just a moment...", "<html>loading</html>") {
		t.Fatalf("expected challenge detected via title marker")
	}
}

func TestLooksLikeChallengeMarkerInBody(t *testing.T) {
	if !looksLikeChallenge("Example", "please complete the captcha to continue") {
		t.Fatalf("expected challenge detected via body marker")
	}
}

func TestLooksLikeChallengeNormalPage(t *testing.T) {
	body := "This is a perfectly ordinary article about gardening with plenty of real content describing soil types, watering schedules, and seasonal planting advice for home gardeners who want to grow vegetables year round."
	if looksLikeChallenge("Gardening Tips", body) {
		t.Fatalf("expected no challenge detected for ordinary content")
	}
}

func TestLooksLikeChallengeShortStub(t *testing.T) {
	if !looksLikeChallenge("", "Please wait, redirecting...") {
		t.Fatalf("expected short redirect stub to be treated as a challenge")
	}
}
