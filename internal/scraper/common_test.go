package scraper

import "testing"

func TestAbsoluteURL(t *testing.T) {
	base := "https://example.com/platform/talent/jobs?page=2"
	cases := []struct {
		href string
		want string
	}{
		{"/jobs/1", "https://example.com/jobs/1"},
		{"?page=3", "https://example.com/platform/talent/jobs?page=3"},
		{"https://other.com/a", "https://other.com/a"},
		{"//cdn.example.com/asset", "https://cdn.example.com/asset"},
		{"  ", base},
	}

	for _, tc := range cases {
		got := absoluteURL(base, tc.href)
		if got != tc.want {
			t.Fatalf("absoluteURL(%q) = %q, want %q", tc.href, got, tc.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  Job   Posted \n", "job posted"},
		{"Go&amp;Rust", "go&rust"},
		{"CAFÉ", "café"},
		{"", ""},
	}

	for _, tc := range cases {
		if got := normalize(tc.in); got != tc.want {
			t.Fatalf("normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
