package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPlatform(t *testing.T) {
	cases := []struct {
		label string
		url   string
		want  Platform
	}{
		{"LinkedIn", "", PlatformLinkedIn},
		{"X (Twitter)", "", PlatformX},
		{"x", "", PlatformX},
		{"Twitter", "", PlatformX},
		{"instagram", "", PlatformInstagram},
		{"GitHub", "", PlatformGitHub},
		{"YouTube Channel", "", PlatformYouTube},
		{"Tik Tok", "", PlatformTikTok},
		{"Medium", "", PlatformMedium},
		{"Reddit", "", PlatformReddit},
		{"Pinterest", "", PlatformPinterest},
		{"Facebook or Behance", "https://www.behance.net/bob", PlatformFacebook},
		{"Behance", "", PlatformBehance},
		{"", "https://www.linkedin.com/in/alice", PlatformLinkedIn},
		{"Website", "https://alice.medium.com/", PlatformMedium},
		{"Blog", "https://youtu.be/abc", PlatformYouTube},
		{"Mastodon", "https://mastodon.social/@alice", PlatformOther},
		{"", "not a url", PlatformOther},
		{"", "", PlatformOther},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyPlatform(tc.label, tc.url), "%q %q", tc.label, tc.url)
	}
}

func TestPlatformsEndsWithOther(t *testing.T) {
	all := Platforms()
	require.Len(t, all, 12)
	require.Equal(t, PlatformOther, all[len(all)-1])
	require.Equal(t, "X (Twitter)", PlatformX.Label())
	require.Equal(t, "GitHub", PlatformGitHub.Label())

	all[0] = "mutated"
	require.Equal(t, PlatformLinkedIn, Platforms()[0])
}
