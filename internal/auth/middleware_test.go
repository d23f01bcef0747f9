package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"market-backend/internal/models"

	"github.com/gofiber/fiber/v2"
)

// guardApp: JWT middleware yerine rolü doğrudan Locals'a koyar, böylece
// guard'lar token üretmeden test edilir.
func guardApp(role models.UserRole, guard fiber.Handler) *fiber.App {
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(CtxUserRoleKey, role)
		return c.Next()
	})
	app.Get("/korunan", guard, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func requestStatus(t *testing.T, app *fiber.App) int {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/korunan", nil))
	if err != nil {
		t.Fatalf("istek başarısız: %v", err)
	}
	defer resp.Body.Close()
	return resp.StatusCode
}

func TestRequireRoleAllowsListedRole(t *testing.T) {
	app := guardApp(models.RoleSuperAdmin, RequireRole(models.RoleSuperAdmin))
	if code := requestStatus(t, app); code != fiber.StatusOK {
		t.Errorf("super_admin için 200 bekleniyordu, %d geldi", code)
	}
}

func TestRequireRoleRejectsOtherRole(t *testing.T) {
	app := guardApp(models.RoleCashier, RequireRole(models.RoleSuperAdmin, models.RoleBranchAdmin))
	if code := requestStatus(t, app); code != fiber.StatusForbidden {
		t.Errorf("kasiyer için 403 bekleniyordu, %d geldi", code)
	}
}

func TestRequireRoleRejectsMissingRole(t *testing.T) {
	// Locals'a rol yazılmamış: guard geçit vermemeli
	app := fiber.New()
	app.Get("/korunan", RequireRole(models.RoleSuperAdmin), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	if code := requestStatus(t, app); code != fiber.StatusForbidden {
		t.Errorf("rolsüz istek için 403 bekleniyordu, %d geldi", code)
	}
}

func TestRequireModuleFollowsPermissionTable(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		module Module
		want   int
	}{
		{"super admin yönetime girer", models.RoleSuperAdmin, ModuleAdmin, fiber.StatusOK},
		{"kasiyer yönetime giremez", models.RoleCashier, ModuleAdmin, fiber.StatusForbidden},
		{"kasiyer kasa oturumlarına girer", models.RoleCashier, ModuleCashSession, fiber.StatusOK},
		{"şube admini raporlara girer", models.RoleBranchAdmin, ModuleReports, fiber.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := guardApp(tc.role, RequireModule(tc.module))
			if code := requestStatus(t, app); code != tc.want {
				t.Errorf("%s / %s: %d bekleniyordu, %d geldi", tc.role, tc.module, tc.want, code)
			}
		})
	}
}
