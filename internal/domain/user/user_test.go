package user

import "testing"

func TestCreateRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateRequest
		wantErr string
	}{
		{name: "tenant admin", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "12345678", Role: RoleAdmin, TenantID: "t1"}},
		{name: "owner", req: CreateRequest{Email: "o@b.com", Name: "O", Password: "12345678", Role: RoleOwner}},
		{name: "email normalized", req: CreateRequest{Email: "  A@B.com ", Name: "A", Password: "12345678", Role: RoleStaff, TenantID: "t1"}},
		{name: "missing email", req: CreateRequest{Name: "A", Password: "12345678", Role: RoleAdmin, TenantID: "t1"}, wantErr: "email is required"},
		{name: "invalid email", req: CreateRequest{Email: "bad", Name: "A", Password: "12345678", Role: RoleAdmin, TenantID: "t1"}, wantErr: "invalid email format"},
		{name: "short password", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "short", Role: RoleAdmin, TenantID: "t1"}, wantErr: "password must be at least 8 characters"},
		{name: "invalid role", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "12345678", Role: "superadmin", TenantID: "t1"}, wantErr: "invalid role: must be OWNER, ADMIN, STAFF or CUSTOMER"},
		{name: "owner with tenant", req: CreateRequest{Email: "o@b.com", Name: "O", Password: "12345678", Role: RoleOwner, TenantID: "t1"}, wantErr: "owner users cannot belong to a tenant"},
		{name: "admin without tenant", req: CreateRequest{Email: "a@b.com", Name: "A", Password: "12345678", Role: RoleAdmin}, wantErr: "non-owner users must belong to a tenant"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error %q, got nil", tt.wantErr)
			}
			if got := err.Error(); got != tt.wantErr {
				t.Fatalf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}
}

func TestCreateRequest_ValidateLowercasesEmail(t *testing.T) {
	req := CreateRequest{Email: " Shop@Example.BE", Name: "A", Password: "12345678", Role: RoleCustomer, TenantID: "t1"}
	if err := req.Validate(); err != nil {
		t.Fatal(err)
	}
	if req.Email != "shop@example.be" {
		t.Fatalf("email = %q", req.Email)
	}
}
