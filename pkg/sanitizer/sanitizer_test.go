package sanitizer_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teamdocs/notifier/pkg/sanitizer"
)

func TestStripScriptTags(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "<p>hello</p>", sanitizer.StripScriptTags(`<p>hello</p><script>alert(1)</script>`))
	assert.Equal(t, "safe", sanitizer.StripScriptTags(`safe<SCRIPT src="x.js"></SCRIPT>`))
}

func TestRemoveJavaScriptEvents(t *testing.T) {
	t.Parallel()

	assert.Equal(t, `<a href="#">x</a>`, sanitizer.RemoveJavaScriptEvents(`<a href="#" onclick="evil()">x</a>`))
	assert.NotContains(t, sanitizer.RemoveJavaScriptEvents(`<a href="javascript:evil()">x</a>`), "javascript:")
}

func TestRemoveControlSequences(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "red line\nnext", sanitizer.RemoveControlSequences("\x1b[31mred\x07 line\nnext"))
}

func TestLimitLength(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "abc", sanitizer.LimitLength("abcdef", 3))
	assert.Equal(t, "", sanitizer.LimitLength("abc", 0))
	assert.Equal(t, "héllo", sanitizer.LimitLength("héllo", 10))
}

func TestMessageHTML(t *testing.T) {
	t.Parallel()

	got := sanitizer.MessageHTML("  <p>Update</p><script>alert(1)</script>  ")
	assert.Equal(t, "<p>Update</p>", got)

	long := strings.Repeat("a", 20000)
	assert.Len(t, sanitizer.MessageHTML(long), 10000)
}

func TestApplyCompose(t *testing.T) {
	t.Parallel()

	upper := func(s string) string { return strings.ToUpper(s) }
	trim := strings.TrimSpace

	assert.Equal(t, "HI", sanitizer.Apply(" hi ", trim, upper))
	pipeline := sanitizer.Compose(trim, upper)
	assert.Equal(t, "HI", pipeline(" hi "))
}
