package video

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr error
	}{
		{name: "empty", raw: "", wantErr: ErrNoURLProvided},
		{name: "blank", raw: "   ", wantErr: ErrNoURLProvided},
		{name: "watch", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "watch with params", raw: "https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42s&list=PL1", want: "dQw4w9WgXcQ"},
		{name: "watch param not first", raw: "https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short link", raw: "https://youtu.be/dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short link with query", raw: "https://youtu.be/dQw4w9WgXcQ?si=abcdef", want: "dQw4w9WgXcQ"},
		{name: "shorts", raw: "https://www.youtube.com/shorts/aB3_-xYz09Q", want: "aB3_-xYz09Q"},
		{name: "embed", raw: "https://www.youtube.com/embed/dQw4w9WgXcQ?rel=0", want: "dQw4w9WgXcQ"},
		{name: "surrounding whitespace", raw: "  https://youtu.be/dQw4w9WgXcQ \n", want: "dQw4w9WgXcQ"},
		{name: "bare id", raw: "dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "short id after marker falls back to scan", raw: "https://youtu.be/abc?x=dQw4w9WgXcQ", want: "dQw4w9WgXcQ"},
		{name: "too short", raw: "https://youtu.be/abc", wantErr: ErrInvalidLink},
		{name: "bad chars", raw: "v=ab!cd@ef#g", wantErr: ErrInvalidLink},
		{name: "garbage", raw: "not a link", wantErr: ErrInvalidLink},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.raw)
			if err != tt.wantErr {
				t.Fatalf("Resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_Idempotent(t *testing.T) {
	for _, raw := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/aB3_-xYz09Q",
		"https://www.youtube.com/shorts/Zz-9_yy8XxW",
	} {
		id, err := Resolve(raw)
		assert.NoError(t, err)
		again, err := Resolve(id)
		assert.NoError(t, err)
		assert.Equal(t, id, again)
	}
}

func TestEmbedURL(t *testing.T) {
	got := EmbedURL("dQw4w9WgXcQ", "https://app.classesx.com")
	want := "https://www.youtube.com/embed/dQw4w9WgXcQ?enablejsapi=1&origin=https%3A%2F%2Fapp.classesx.com" +
		"&playsinline=1&rel=0&modestbranding=1&widget_referrer=https%3A%2F%2Fapp.classesx.com"
	assert.Equal(t, want, got)
}

func TestRender(t *testing.T) {
	s := Render("", "http://localhost")
	assert.True(t, s.Awaiting)
	assert.Equal(t, "No video URL provided.", s.Message)

	s = Render("https://youtu.be/abc", "http://localhost")
	assert.True(t, s.Awaiting)
	assert.Equal(t, "Invalid YouTube Link. Please update in Manage.", s.Message)

	s = Render("https://youtu.be/dQw4w9WgXcQ", "http://localhost")
	assert.False(t, s.Awaiting)
	assert.Equal(t, "dQw4w9WgXcQ", s.VideoID)
	assert.True(t, strings.HasPrefix(s.EmbedURL, "https://www.youtube.com/embed/dQw4w9WgXcQ?"))
}
