package auth

import "market-backend/internal/models"

type Module string

const (
	ModuleAdmin       Module = "admin"         // kullanıcı/şube/kasa yönetimi
	ModuleCashSession Module = "cash_sessions" // kasa oturumları
	ModulePurchasing  Module = "purchasing"    // tedarikçi ve siparişler
	ModuleReports     Module = "reports"       // finansal raporlar
	ModuleAudit       Module = "audit"         // denetim logları
)

// rolePermissions: hangi rol hangi modüle erişebilir.
// Yeni modül eklerken bu tabloyu ve permissions_test.go'yu güncelle.
var rolePermissions = map[models.UserRole]map[Module]struct{}{
	models.RoleSuperAdmin: {
		ModuleAdmin:       {},
		ModuleCashSession: {},
		ModulePurchasing:  {},
		ModuleReports:     {},
		ModuleAudit:       {},
	},
	models.RoleBranchAdmin: {
		ModuleCashSession: {},
		ModulePurchasing:  {},
		ModuleReports:     {},
		ModuleAudit:       {},
	},
	models.RoleCashier: {
		ModuleCashSession: {},
	},
}

// CanAccess: rolün modüle erişimi var mı? Bilinmeyen rol veya modül
// için her zaman false döner.
func CanAccess(role models.UserRole, module Module) bool {
	mods, ok := rolePermissions[role]
	if !ok {
		return false
	}
	_, ok = mods[module]
	return ok
}
