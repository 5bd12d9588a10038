package admin

import "testing"

func TestGetAccessLevel_KnownLevels(t *testing.T) {
	tests := []struct {
		level     int32
		wantName  string
		wantGM    bool
		wantAdmin bool
	}{
		{0, "User", false, false},
		{1, "Moderator", true, true},
		{2, "Game Master", true, true},
		{100, "Administrator", true, true},
	}
	for _, tt := range tests {
		al := GetAccessLevel(tt.level)
		if al == nil {
			t.Fatalf("GetAccessLevel(%d) = nil, want %q", tt.level, tt.wantName)
		}
		if al.Name != tt.wantName {
			t.Errorf("GetAccessLevel(%d).Name = %q, want %q", tt.level, al.Name, tt.wantName)
		}
		if al.IsGM != tt.wantGM {
			t.Errorf("GetAccessLevel(%d).IsGM = %v, want %v", tt.level, al.IsGM, tt.wantGM)
		}
		if al.CanUseAdminCommands != tt.wantAdmin {
			t.Errorf("GetAccessLevel(%d).CanUseAdminCommands = %v, want %v", tt.level, al.CanUseAdminCommands, tt.wantAdmin)
		}
	}
}

func TestGetAccessLevel_NegativeIsBanned(t *testing.T) {
	if al := GetAccessLevel(-1); al != nil {
		t.Errorf("GetAccessLevel(-1) = %+v, want nil (banned)", al)
	}
}

func TestGetAccessLevel_InheritsBelow(t *testing.T) {
	tests := []struct {
		level    int32
		wantName string
	}{
		{5, "Game Master"},
		{99, "Game Master"},
		{500, "Administrator"},
	}
	for _, tt := range tests {
		al := GetAccessLevel(tt.level)
		if al == nil || al.Name != tt.wantName {
			t.Errorf("GetAccessLevel(%d) = %+v, want %q", tt.level, al, tt.wantName)
		}
	}
}
