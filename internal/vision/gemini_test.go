package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScrapeJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare", `{"text":"a","confidence":0.9}`, `{"text":"a","confidence":0.9}`},
		{"fenced", "```json\n{\"text\":\"a\"}\n```", `{"text":"a"}`},
		{"prose wrapped", `Here is the result: {"text":"a"} hope it helps`, `{"text":"a"}`},
		{"no object", "no json at all", "no json at all"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, scrapeJSON(tc.in))
		})
	}
}

func TestImageMIME(t *testing.T) {
	assert.Equal(t, "image/png", imageMIME("/tmp/sheet.png"))
	assert.Equal(t, "image/jpeg", imageMIME("/tmp/sheet.jpg"))
	assert.Equal(t, "image/jpeg", imageMIME("/tmp/sheet.unknown"))
}
