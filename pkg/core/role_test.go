package core

import "testing"

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{"data", RoleData, false},
		{"forecast", RoleForecast, false},
		{"insights", RoleInsights, false},
		{"root", RoleRoot, false},
		{"oracle", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestRoleSets(t *testing.T) {
	if got := len(ResponderRoles()); got != 3 {
		t.Fatalf("expected 3 responder roles, got %d", got)
	}
	want := []Role{RoleForecast, RoleData, RoleInsights}
	for i, r := range EmergencyRoles() {
		if r != want[i] {
			t.Fatalf("expected emergency role %s at %d, got %s", want[i], i, r)
		}
	}
	if RoleRoot.IsResponder() {
		t.Errorf("root must not be dispatchable")
	}
}

func TestResultVariants(t *testing.T) {
	ok := SuccessResult(RoleForecast, &Payload{Summary: "clear"})
	if !ok.Succeeded() {
		t.Fatalf("expected success")
	}
	if ok.At.IsZero() {
		t.Errorf("expected timestamp to be set")
	}

	bad := FailureResult(RoleData, FailureTimeout, "deadline exceeded")
	if bad.Succeeded() {
		t.Fatalf("expected failure")
	}
	if bad.Failure.Kind != FailureTimeout {
		t.Errorf("expected timeout kind, got %s", bad.Failure.Kind)
	}
}
