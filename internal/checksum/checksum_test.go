package checksum

import "testing"

func TestSum_Stable(t *testing.T) {
	a := Sum([]byte("hello"))
	b := Sum([]byte("hello"))
	if a != b {
		t.Fatalf("digest not stable: %q != %q", a, b)
	}
	if len(a) != 64 {
		t.Errorf("len = %d, want 64", len(a))
	}
	if Sum([]byte("hello!")) == a {
		t.Error("different content produced same digest")
	}
}

func TestETag(t *testing.T) {
	if got := ETag(""); got != "" {
		t.Errorf("ETag(\"\") = %q, want empty", got)
	}
	if got := ETag("abc"); got != `"abc"` {
		t.Errorf("ETag = %q", got)
	}
}
