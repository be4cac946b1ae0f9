package relay

import (
	"strings"
	"testing"
)

func TestBuildHeader(t *testing.T) {
	header := buildHeader(555, "Jamie Doe", 1700000000)
	for _, want := range []string{
		"tg://user?id=555",
		"Jamie Doe",
		"<b>ID:</b> 555",
		"2023-11-14 22:13:20",
	} {
		if !strings.Contains(header, want) {
			t.Errorf("header missing %q: %q", want, header)
		}
	}
}

func TestBuildHeaderEscapesSenderName(t *testing.T) {
	header := buildHeader(1, "<script>bold</script>", 0)
	if strings.Contains(header, "<script>") {
		t.Errorf("sender name not escaped: %q", header)
	}
	if !strings.Contains(header, "&lt;script&gt;") {
		t.Errorf("escaped name missing: %q", header)
	}
}

func TestBuildForwardTextEscapesBody(t *testing.T) {
	body := buildForwardText(1, "Jamie", 0, "a < b & c")
	if !strings.Contains(body, "a &lt; b &amp; c") {
		t.Errorf("body not escaped: %q", body)
	}
	if !strings.Contains(body, "<b>Message:</b>") {
		t.Errorf("message marker missing: %q", body)
	}
}
