package s3

import (
	"errors"
	"fmt"
	"testing"

	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

func TestApplyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		prefix string
		key    string
		want   string
	}{
		{name: "no prefix", prefix: "", key: "u1/abc_report.pdf", want: "u1/abc_report.pdf"},
		{name: "simple prefix", prefix: "files", key: "u1/abc_report.pdf", want: "files/u1/abc_report.pdf"},
		{name: "prefix trailing slash", prefix: "files/", key: "u1/abc_report.pdf", want: "files/u1/abc_report.pdf"},
		{name: "prefix and key slashes", prefix: "/files/", key: "/u1/abc_report.pdf", want: "files/u1/abc_report.pdf"},
		{name: "nested prefix", prefix: "files/prod", key: "u1/abc_report.pdf", want: "files/prod/u1/abc_report.pdf"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := applyPrefix(tt.prefix, tt.key); got != tt.want {
				t.Fatalf("applyPrefix(%q, %q) = %q, want %q", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	t.Parallel()

	if !isNotFound(fmt.Errorf("wrapped: %w", &s3types.NoSuchKey{})) {
		t.Fatal("expected NoSuchKey to be not found")
	}
	if !isNotFound(&s3types.NotFound{}) {
		t.Fatal("expected NotFound to be not found")
	}
	if isNotFound(errors.New("access denied")) {
		t.Fatal("expected generic error to not be not found")
	}
}
