package main

import (
	"strings"
	"testing"
)

func TestCheckSegmentFlags(t *testing.T) {
	tests := []struct {
		name    string
		segment int
		url     string
		query   string
		wantErr string
	}{
		{"no overrides", -1, "", "", ""},
		{"url with segment", 2, "https://youtu.be/x", "", ""},
		{"query with segment", 0, "", "onboard lap", ""},
		{"url without segment", -1, "https://youtu.be/x", "", "--segment"},
		{"query without segment", -1, "", "onboard lap", "--segment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkSegmentFlags(tt.segment, tt.url, tt.query)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("checkSegmentFlags() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("checkSegmentFlags() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}
