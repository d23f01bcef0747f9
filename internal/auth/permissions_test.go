package auth

import (
	"testing"

	"market-backend/internal/models"
)

// İzin tablosunun tamamı: her rol-modül çifti için beklenen sonuç.
// Tablo değişirse bu test de bilinçli olarak güncellenmeli.
func TestCanAccess(t *testing.T) {
	allModules := []Module{ModuleAdmin, ModuleCashSession, ModulePurchasing, ModuleReports, ModuleAudit}

	expected := map[models.UserRole]map[Module]bool{
		models.RoleSuperAdmin: {
			ModuleAdmin:       true,
			ModuleCashSession: true,
			ModulePurchasing:  true,
			ModuleReports:     true,
			ModuleAudit:       true,
		},
		models.RoleBranchAdmin: {
			ModuleAdmin:       false,
			ModuleCashSession: true,
			ModulePurchasing:  true,
			ModuleReports:     true,
			ModuleAudit:       true,
		},
		models.RoleCashier: {
			ModuleAdmin:       false,
			ModuleCashSession: true,
			ModulePurchasing:  false,
			ModuleReports:     false,
			ModuleAudit:       false,
		},
	}

	for role, mods := range expected {
		for _, m := range allModules {
			if got := CanAccess(role, m); got != mods[m] {
				t.Errorf("CanAccess(%s, %s) = %v, beklenen %v", role, m, got, mods[m])
			}
		}
	}
}

func TestCanAccessUnknownRole(t *testing.T) {
	if CanAccess(models.UserRole("ghost"), ModuleCashSession) {
		t.Error("bilinmeyen rol için erişim verilmemeli")
	}
	if CanAccess(models.RoleSuperAdmin, Module("ghost_module")) {
		t.Error("bilinmeyen modül için erişim verilmemeli")
	}
}
