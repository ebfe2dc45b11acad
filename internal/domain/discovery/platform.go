package discovery

import (
	"net/url"
	"strings"
	"unicode"
)

// Platform is the closed set of networks the UI knows how to present.
type Platform string

const (
	PlatformLinkedIn  Platform = "LinkedIn"
	PlatformX         Platform = "X"
	PlatformInstagram Platform = "Instagram"
	PlatformGitHub    Platform = "GitHub"
	PlatformYouTube   Platform = "YouTube"
	PlatformTikTok    Platform = "TikTok"
	PlatformMedium    Platform = "Medium"
	PlatformReddit    Platform = "Reddit"
	PlatformPinterest Platform = "Pinterest"
	PlatformFacebook  Platform = "Facebook"
	PlatformBehance   Platform = "Behance"
	PlatformOther     Platform = "Other"
)

var allPlatforms = []Platform{
	PlatformLinkedIn,
	PlatformX,
	PlatformInstagram,
	PlatformGitHub,
	PlatformYouTube,
	PlatformTikTok,
	PlatformMedium,
	PlatformReddit,
	PlatformPinterest,
	PlatformFacebook,
	PlatformBehance,
	PlatformOther,
}

// searchPlatforms are the ten sources the provider is asked to spread suggestions over.
var searchPlatforms = []string{
	"LinkedIn",
	"X (Twitter)",
	"Instagram",
	"GitHub",
	"YouTube",
	"TikTok",
	"Medium",
	"Reddit",
	"Pinterest",
	"Facebook or Behance",
}

// Platforms lists every Platform in display order, Other last.
func Platforms() []Platform {
	out := make([]Platform, len(allPlatforms))
	copy(out, allPlatforms)
	return out
}

// Label is the human readable name of the platform.
func (p Platform) Label() string {
	if p == PlatformX {
		return "X (Twitter)"
	}
	return string(p)
}

// exact matches on the normalized label.
var platformAliases = map[string]Platform{
	"linkedin":  PlatformLinkedIn,
	"x":         PlatformX,
	"xcom":      PlatformX,
	"twitter":   PlatformX,
	"xtwitter":  PlatformX,
	"twitterx":  PlatformX,
	"instagram": PlatformInstagram,
	"ig":        PlatformInstagram,
	"insta":     PlatformInstagram,
	"github":    PlatformGitHub,
	"youtube":   PlatformYouTube,
	"yt":        PlatformYouTube,
	"tiktok":    PlatformTikTok,
	"medium":    PlatformMedium,
	"reddit":    PlatformReddit,
	"pinterest": PlatformPinterest,
	"facebook":  PlatformFacebook,
	"fb":        PlatformFacebook,
	"meta":      PlatformFacebook,
	"behance":   PlatformBehance,
}

// substring matches for labels like "LinkedIn (company page)". Order matters:
// the first keyword found wins.
var platformKeywords = []struct {
	keyword  string
	platform Platform
}{
	{"linkedin", PlatformLinkedIn},
	{"twitter", PlatformX},
	{"instagram", PlatformInstagram},
	{"github", PlatformGitHub},
	{"youtube", PlatformYouTube},
	{"tiktok", PlatformTikTok},
	{"medium", PlatformMedium},
	{"reddit", PlatformReddit},
	{"pinterest", PlatformPinterest},
	{"facebook", PlatformFacebook},
	{"behance", PlatformBehance},
}

var platformHosts = []struct {
	domain   string
	platform Platform
}{
	{"linkedin.com", PlatformLinkedIn},
	{"x.com", PlatformX},
	{"twitter.com", PlatformX},
	{"instagram.com", PlatformInstagram},
	{"github.com", PlatformGitHub},
	{"youtube.com", PlatformYouTube},
	{"youtu.be", PlatformYouTube},
	{"tiktok.com", PlatformTikTok},
	{"medium.com", PlatformMedium},
	{"reddit.com", PlatformReddit},
	{"pinterest.com", PlatformPinterest},
	{"facebook.com", PlatformFacebook},
	{"fb.com", PlatformFacebook},
	{"behance.net", PlatformBehance},
}

// ClassifyPlatform maps the provider's free-form label onto the closed Platform set.
// It never fails: the label is tried first, then the profile url host, then Other.
func ClassifyPlatform(label, profileURL string) Platform {
	normalized := normalizeLabel(label)
	if p, ok := platformAliases[normalized]; ok {
		return p
	}
	if normalized != "" {
		for _, kw := range platformKeywords {
			if strings.Contains(normalized, kw.keyword) {
				return kw.platform
			}
		}
	}
	if p, ok := platformFromHost(profileURL); ok {
		return p
	}
	return PlatformOther
}

func normalizeLabel(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(label) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func platformFromHost(raw string) (Platform, bool) {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return "", false
	}
	host := strings.ToLower(parsed.Hostname())
	for _, h := range platformHosts {
		if host == h.domain || strings.HasSuffix(host, "."+h.domain) {
			return h.platform, true
		}
	}
	return "", false
}
