// internal/app/bootstrap/startup_test.go
package bootstrap

import (
	"testing"

	userstore "github.com/moimhub/moimhub/internal/app/store/users"
	"github.com/moimhub/moimhub/internal/domain/models"
	"github.com/moimhub/moimhub/internal/testutil"
	"go.uber.org/zap"
)

func TestEnsureSuperAdmin_PromotesExistingUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Admin Person", "admin@example.com")

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "Admin@Example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	got, err := userstore.New(db).Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.GlobalRole != models.RoleSuperAdmin {
		t.Errorf("global role = %q, want %q", got.GlobalRole, models.RoleSuperAdmin)
	}
}

func TestEnsureSuperAdmin_MissingAccountIsDeferred(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "nobody@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	// No document is created; promotion waits for sign-up.
	u, err := userstore.New(db).GetByEmail(ctx, "nobody@example.com")
	if err != nil {
		t.Fatalf("get by email: %v", err)
	}
	if u != nil {
		t.Errorf("expected no user document, got %+v", u)
	}
}

func TestEnsureSuperAdmin_AlreadyPromotedIsNoop(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	u := fx.CreateUser(ctx, "Root", "root@example.com")

	users := userstore.New(db)
	if err := users.SetGlobalRole(ctx, u.ID, models.RoleSuperAdmin); err != nil {
		t.Fatalf("set role: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureSuperAdmin(ctx, deps, "root@example.com", zap.NewNop()); err != nil {
		t.Fatalf("ensureSuperAdmin: %v", err)
	}

	got, err := users.Get(ctx, u.ID)
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.GlobalRole != models.RoleSuperAdmin {
		t.Errorf("global role = %q, want %q", got.GlobalRole, models.RoleSuperAdmin)
	}
}
