package storage

import "testing"

func TestImageContentType(t *testing.T) {
	tests := []struct {
		contentType, filename string
		want                  string
		ok                    bool
	}{
		{"image/png", "", "image/png", true},
		{"IMAGE/JPEG; charset=binary", "", "image/jpeg", true},
		{"image/jpg", "x.jpg", "image/jpeg", true},
		{"", "pizza.WEBP", "image/webp", true},
		{"application/octet-stream", "pizza.gif", "image/gif", true},
		{"video/mp4", "clip.png", "", false},
		{"", "notes.txt", "", false},
		{"", "", "", false},
	}
	for _, tt := range tests {
		got, ok := ImageContentType(tt.contentType, tt.filename)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ImageContentType(%q, %q) = %q, %v; want %q, %v", tt.contentType, tt.filename, got, ok, tt.want, tt.ok)
		}
	}
}

func TestMenuImageKey(t *testing.T) {
	if got := MenuImageKey("DEFAULT", "abc", "image/png"); got != "menu-images/DEFAULT/abc.png" {
		t.Errorf("key = %s", got)
	}
}
