package commission

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Commission{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(db))
}

func TestNewFolioFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	folio, err := NewFolio(now)
	if err != nil {
		t.Fatalf("NewFolio: %v", err)
	}
	if ok, _ := regexp.MatchString(`^PV-20250601-[0-9A-F]{4}$`, folio); !ok {
		t.Fatalf("unexpected folio %q", folio)
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{DriverID: "driver-1", VehicleID: "vehicle-1", Route: "plant A -> plant B"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.Folio == "" || !c.Active {
		t.Fatalf("unexpected commission %+v", c)
	}

	got, err := svc.Get(ctx, c.Folio)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != c.ID {
		t.Fatalf("id mismatch: %s != %s", got.ID, c.ID)
	}
}

func TestCreateValidatesInput(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateInput{VehicleID: "vehicle-1"}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("missing driver: expected validation, got %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{DriverID: "driver-1"}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("missing vehicle: expected validation, got %v", err)
	}
}

func TestGetUnknownFolio(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.Get(context.Background(), "PV-20250601-ZZZZ"); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestSoftDeleteAndRestoreIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, CreateInput{DriverID: "d", VehicleID: "v"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	changed, err := svc.SoftDelete(ctx, c.Folio)
	if err != nil || !changed {
		t.Fatalf("first delete: changed=%v err=%v", changed, err)
	}
	// 重复删不报错，也不再算变更
	changed, err = svc.SoftDelete(ctx, c.Folio)
	if err != nil || changed {
		t.Fatalf("second delete: changed=%v err=%v", changed, err)
	}

	got, err := svc.Get(ctx, c.Folio)
	if err != nil {
		t.Fatalf("Get after delete: %v", err)
	}
	if got.Active {
		t.Fatalf("expected inactive commission")
	}

	changed, err = svc.Restore(ctx, c.Folio)
	if err != nil || !changed {
		t.Fatalf("restore: changed=%v err=%v", changed, err)
	}
	changed, err = svc.Restore(ctx, c.Folio)
	if err != nil || changed {
		t.Fatalf("second restore: changed=%v err=%v", changed, err)
	}
}

func TestCreateRetriesOnFolioCollision(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, CreateInput{DriverID: "d", VehicleID: "v"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	// 前两次生成撞上已有 folio，第三次换到新号
	calls := 0
	svc.folio = func(now time.Time) (string, error) {
		calls++
		if calls <= 2 {
			return existing.Folio, nil
		}
		return "PV-20250601-FRE3", nil
	}
	c, err := svc.Create(ctx, CreateInput{DriverID: "d2", VehicleID: "v2"})
	if err != nil {
		t.Fatalf("Create with collisions: %v", err)
	}
	if c.Folio != "PV-20250601-FRE3" {
		t.Fatalf("unexpected folio %s", c.Folio)
	}
	if calls != 3 {
		t.Fatalf("expected 3 folio generations, got %d", calls)
	}
}

func TestCreateGivesUpAfterRetriesExhausted(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	existing, err := svc.Create(ctx, CreateInput{DriverID: "d", VehicleID: "v"})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc.folio = func(now time.Time) (string, error) {
		return existing.Folio, nil
	}
	if _, err := svc.Create(ctx, CreateInput{DriverID: "d2", VehicleID: "v2"}); !errs.IsKind(err, errs.KindConflict) {
		t.Fatalf("expected conflict after retries, got %v", err)
	}
}

func TestListFiltersByActive(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, CreateInput{DriverID: "d1", VehicleID: "v1"})
	if err != nil {
		t.Fatalf("create a: %v", err)
	}
	if _, err := svc.Create(ctx, CreateInput{DriverID: "d2", VehicleID: "v2"}); err != nil {
		t.Fatalf("create b: %v", err)
	}
	if _, err := svc.SoftDelete(ctx, a.Folio); err != nil {
		t.Fatalf("delete a: %v", err)
	}

	active := true
	items, total, err := svc.List(ctx, &active, 0, 10)
	if err != nil {
		t.Fatalf("List active: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("active list: total=%d len=%d", total, len(items))
	}

	items, total, err = svc.List(ctx, nil, 0, 10)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("full list: total=%d len=%d", total, len(items))
	}
}
