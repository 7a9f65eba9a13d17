package extract

import (
	"errors"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		data     string
		want     string
		contains []string
		excludes []string
		wantErr  error
	}{
		{
			name: "plain text passes through",
			file: "policy.txt",
			data: "Privacy Policy\r\nWe collect your name.",
			want: "Privacy Policy\nWe collect your name.",
		},
		{
			name:     "html is stripped",
			file:     "policy.html",
			data:     "<html><head><style>p{}</style><script>var x=1;</script></head><body><h1>Privacy Policy</h1><p>We collect your name &amp; email.</p></body></html>",
			contains: []string{"Privacy Policy\n", "We collect your name & email."},
			excludes: []string{"<p>", "var x", "p{}"},
		},
		{
			name:     "html detected by content",
			file:     "upload",
			data:     "<!DOCTYPE html><html><body><p>Terms of Service apply to all users.</p></body></html>",
			contains: []string{"Terms of Service apply to all users."},
			excludes: []string{"<body>"},
		},
		{
			name:    "too short",
			file:    "short.txt",
			data:    "   hello   ",
			wantErr: ErrNoText,
		},
		{
			name:    "binary",
			file:    "policy.pdf",
			data:    "%PDF-1.7\x00\x01\x02 binary stream content here",
			wantErr: ErrNoText,
		},
		{
			name:    "invalid utf8",
			file:    "policy.txt",
			data:    "valid prefix that is long enough \xff\xfe",
			wantErr: ErrNoText,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(tt.file, []byte(tt.data))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if tt.want != "" && got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
			for _, c := range tt.contains {
				if !strings.Contains(got, c) {
					t.Errorf("Expected output to contain %q, got %q", c, got)
				}
			}
			for _, e := range tt.excludes {
				if strings.Contains(got, e) {
					t.Errorf("Expected output not to contain %q, got %q", e, got)
				}
			}
		})
	}
}
