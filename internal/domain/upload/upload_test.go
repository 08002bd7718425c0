package upload

import "testing"

func TestPolicies(t *testing.T) {
	tests := []struct {
		policy Policy
		mime   string
		want   bool
	}{
		{PublicPolicy, "image/svg+xml", true},
		{ImagePolicy, "image/svg+xml", false},
		{PublicPolicy, "application/pdf", true},
		{ImagePolicy, "application/pdf", false},
		{ImagePolicy, "image/png", true},
		{ImagePolicy, "IMAGE/JPEG", true},
		{PublicPolicy, "text/plain; charset=utf-8", true},
		{PublicPolicy, "application/x-msdownload", false},
	}
	for _, tt := range tests {
		if got := tt.policy.Allows(tt.mime); got != tt.want {
			t.Errorf("%s.Allows(%q) = %v, want %v", tt.policy.Name, tt.mime, got, tt.want)
		}
	}
}

func TestPolicyExt(t *testing.T) {
	if got := PublicPolicy.Ext("image/svg+xml"); got != "svg" {
		t.Fatalf("ext = %q", got)
	}
	if got := ImagePolicy.Ext("image/jpeg"); got != "jpg" {
		t.Fatalf("ext = %q", got)
	}
}
