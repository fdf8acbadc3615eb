package tags

import "testing"

func TestHashLinkTarget(t *testing.T) {
	cases := []struct {
		href string
		want string
		ok   bool
	}{
		{"#productivity", "/tags/productivity", true},
		{"#time-management", "/tags/time-management", true},
		{"#mp4", "/tags/mp4", true},
		{"/docs/tools/foo#video", "", false},
		{"#Video", "", false},
		{"#a/b", "", false},
		{"#", "", false},
		{"#under_score", "", false},
		{"/docs/tools/foo", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := HashLinkTarget(tc.href)
		if ok != tc.ok || got != tc.want {
			t.Errorf("HashLinkTarget(%q) = %q, %v; want %q, %v", tc.href, got, ok, tc.want, tc.ok)
		}
	}
}
