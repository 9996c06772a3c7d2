package checksum

import "testing"

func TestSum(t *testing.T) {
	// sha256("") is a well-known constant.
	const empty = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got := Sum(nil); got != empty {
		t.Errorf("Sum(nil) = %s", got)
	}
	if Sum([]byte("a")) == Sum([]byte("b")) {
		t.Error("different inputs share a digest")
	}
}

func TestETag(t *testing.T) {
	tag := ETag([]byte("doc"))
	if tag[0] != '"' || tag[len(tag)-1] != '"' {
		t.Fatalf("ETag not quoted: %s", tag)
	}
	cases := []struct {
		header string
		want   bool
	}{
		{tag, true},
		{"W/" + tag, true},
		{`"other", ` + tag, true},
		{"*", true},
		{`"other"`, false},
		{"", false},
	}
	for _, tc := range cases {
		if got := MatchesETag(tc.header, tag); got != tc.want {
			t.Errorf("MatchesETag(%q) = %v, want %v", tc.header, got, tc.want)
		}
	}
}
