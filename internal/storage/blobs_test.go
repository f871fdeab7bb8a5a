package storage

import "testing"

func TestResolveName(t *testing.T) {
	b := &BlobStore{bucket: "gomemo"}

	cases := []struct {
		url  string
		want string
		ok   bool
	}{
		{"https://proj.supabase.co/storage/v1/object/public/gomemo/abc.mp3", "abc.mp3", true},
		{"https://proj.supabase.co/storage/v1/object/public/gomemo/sub/abc.mp3", "sub/abc.mp3", true},
		{"https://proj.supabase.co/storage/v1/object/public/other/abc.mp3", "", false},
		{"https://youtu.be/dQw4w9WgXcQ", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := b.ResolveName(tc.url)
		if ok != tc.ok || got != tc.want {
			t.Errorf("ResolveName(%q) = %q, %v; want %q, %v", tc.url, got, ok, tc.want, tc.ok)
		}
	}
}
