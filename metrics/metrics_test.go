package metrics

import "testing"

func TestHTTPStatusBucket(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code int
		want string
	}{
		{0, "transport"},
		{-1, "transport"},
		{101, "1xx"},
		{200, "2xx"},
		{207, "2xx"},
		{302, "3xx"},
		{404, "4xx"},
		{500, "5xx"},
		{503, "5xx"},
	}
	for _, tt := range tests {
		if got := httpStatusBucket(tt.code); got != tt.want {
			t.Fatalf("httpStatusBucket(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
