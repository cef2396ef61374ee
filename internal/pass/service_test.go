package pass

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/SmartFleetPass/SmartFleetPass/internal/commission"
	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&commission.Commission{}, &Pass{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func newTestService(t *testing.T) (*Service, *commission.Repo) {
	t.Helper()
	db := newTestDB(t)
	cRepo := commission.NewRepo(db)
	return NewService(NewRepo(db), cRepo), cRepo
}

func seedCommission(t *testing.T, cRepo *commission.Repo, active bool) *commission.Commission {
	t.Helper()
	c := &commission.Commission{
		ID:        uuid.NewString(),
		Folio:     "PV-20250601-" + uuid.NewString()[:4],
		DriverID:  "driver-1",
		VehicleID: "vehicle-1",
		Active:    active,
	}
	if err := cRepo.Create(context.Background(), c); err != nil {
		t.Fatalf("seed commission: %v", err)
	}
	return c
}

func int64p(v int64) *int64 { return &v }

func TestRecordDepartureCreatesPass(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	p, err := svc.RecordDeparture(ctx, DepartureInput{
		Folio:   c.Folio,
		Mileage: int64p(12000),
		Fuel:    6,
		Comment: "scratch on rear bumper",
	})
	if err != nil {
		t.Fatalf("RecordDeparture: %v", err)
	}
	if p.CommissionID != c.ID {
		t.Fatalf("commission id mismatch: %s", p.CommissionID)
	}
	if p.StartDate.IsZero() {
		t.Fatalf("expected StartDate to be set")
	}
	if !p.EndDate.Equal(EndDateSentinel) {
		t.Fatalf("expected sentinel EndDate, got %v", p.EndDate)
	}
	if got := StatusOf(p); got != StatusDeparted {
		t.Fatalf("status = %s, want %s", got, StatusDeparted)
	}
}

func TestRecordDepartureAmendKeepsStartDateAndID(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	first, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(100), Fuel: 4})
	if err != nil {
		t.Fatalf("first departure: %v", err)
	}

	// 同一委派单重复出车提交是改单，不是建新单
	second, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(150), Fuel: 5, Comment: "corrected"})
	if err != nil {
		t.Fatalf("second departure: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("amend created a new pass: %s != %s", second.ID, first.ID)
	}
	if !second.StartDate.Equal(first.StartDate) {
		t.Fatalf("amend changed StartDate: %v != %v", second.StartDate, first.StartDate)
	}
	if second.DepartureMileage == nil || *second.DepartureMileage != 150 {
		t.Fatalf("mileage not amended: %v", second.DepartureMileage)
	}
	if second.DepartureComment != "corrected" {
		t.Fatalf("comment not amended: %q", second.DepartureComment)
	}
}

func TestRecordDepartureAmendByPassID(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	p, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Fuel: 3})
	if err != nil {
		t.Fatalf("departure: %v", err)
	}

	// pass_id 改单路径允许补录，即使委派单已软删
	c.Active = false
	if err := cRepo.Update(ctx, c); err != nil {
		t.Fatalf("deactivate commission: %v", err)
	}
	amended, err := svc.RecordDeparture(ctx, DepartureInput{PassID: p.ID, Mileage: int64p(200), Fuel: 4})
	if err != nil {
		t.Fatalf("amend by pass_id: %v", err)
	}
	if amended.ID != p.ID {
		t.Fatalf("unexpected pass id %s", amended.ID)
	}
}

func TestRecordDepartureRejectsInactiveCommission(t *testing.T) {
	svc, cRepo := newTestService(t)
	c := seedCommission(t, cRepo, false)

	_, err := svc.RecordDeparture(context.Background(), DepartureInput{Folio: c.Folio, Fuel: 4})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordDepartureUnknownFolio(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordDeparture(context.Background(), DepartureInput{Folio: "PV-20250601-XXXX", Fuel: 4})
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRecordDepartureValidatesFields(t *testing.T) {
	svc, cRepo := newTestService(t)
	c := seedCommission(t, cRepo, true)
	ctx := context.Background()

	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Fuel: 9}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("fuel>8: expected validation, got %v", err)
	}
	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Fuel: -1}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("fuel<0: expected validation, got %v", err)
	}
	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(-5), Fuel: 4}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("negative mileage: expected validation, got %v", err)
	}
	if _, err := svc.RecordDeparture(ctx, DepartureInput{Fuel: 4}); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("no folio, no pass_id: expected validation, got %v", err)
	}
}

func TestRecordArrivalWithoutDeparture(t *testing.T) {
	svc, cRepo := newTestService(t)
	c := seedCommission(t, cRepo, true)

	_, err := svc.RecordArrival(context.Background(), ArrivalInput{Folio: c.Folio, Fuel: 4})
	if !errs.IsKind(err, errs.KindState) {
		t.Fatalf("expected state error, got %v", err)
	}
	// 状态机违规不应该偷偷建单
	p, err := svc.GetByCommission(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("GetByCommission: %v", err)
	}
	if p != nil {
		t.Fatalf("arrival must not create a pass, got %+v", p)
	}
}

func TestRecordArrivalMileageOrdering(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(500), Fuel: 6}); err != nil {
		t.Fatalf("departure: %v", err)
	}
	_, err := svc.RecordArrival(ctx, ArrivalInput{Folio: c.Folio, Mileage: int64p(400), Fuel: 3})
	if !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if errs.FieldOf(err) != "mileage" {
		t.Fatalf("expected field=mileage, got %q", errs.FieldOf(err))
	}
}

func TestRecordArrivalCompletesRoundTrip(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(500), Fuel: 6}); err != nil {
		t.Fatalf("departure: %v", err)
	}
	at := time.Date(2025, 6, 2, 18, 30, 0, 0, time.UTC)
	p, err := svc.RecordArrival(ctx, ArrivalInput{Folio: c.Folio, Mileage: int64p(650), Fuel: 2, Comment: "all good", EndDate: &at})
	if err != nil {
		t.Fatalf("arrival: %v", err)
	}
	if !p.IsArrived() {
		t.Fatalf("expected arrived pass")
	}
	if !p.EndDate.Equal(at) {
		t.Fatalf("EndDate = %v, want %v", p.EndDate, at)
	}
	if got := StatusOf(p); got != StatusReturned {
		t.Fatalf("status = %s, want %s", got, StatusReturned)
	}
}

func TestRecordArrivalUnknownPassID(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.RecordArrival(context.Background(), ArrivalInput{PassID: uuid.NewString(), Fuel: 4})
	if !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestRecordDepartureAmendCannotExceedArrivalMileage(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	p, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(1000), Fuel: 6})
	if err != nil {
		t.Fatalf("departure: %v", err)
	}
	if _, err := svc.RecordArrival(ctx, ArrivalInput{Folio: c.Folio, Mileage: int64p(1200), Fuel: 3}); err != nil {
		t.Fatalf("arrival: %v", err)
	}

	// 回场后把出车里程改到回场里程之上：folio 改单路径拒绝
	_, err = svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(1500), Fuel: 6})
	if !errs.IsKind(err, errs.KindValidation) || errs.FieldOf(err) != "mileage" {
		t.Fatalf("folio amend: expected validation on mileage, got %v", err)
	}
	// pass_id 改单路径同样拒绝
	_, err = svc.RecordDeparture(ctx, DepartureInput{PassID: p.ID, Mileage: int64p(1500), Fuel: 6})
	if !errs.IsKind(err, errs.KindValidation) || errs.FieldOf(err) != "mileage" {
		t.Fatalf("pass_id amend: expected validation on mileage, got %v", err)
	}
	// 存量数据未被破坏
	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DepartureMileage == nil || *got.DepartureMileage != 1000 {
		t.Fatalf("departure mileage corrupted: %v", got.DepartureMileage)
	}

	// 不超过回场里程的改单仍然放行
	amended, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(1100), Fuel: 6})
	if err != nil {
		t.Fatalf("legal amend: %v", err)
	}
	if amended.DepartureMileage == nil || *amended.DepartureMileage != 1100 {
		t.Fatalf("legal amend not applied: %v", amended.DepartureMileage)
	}
}

func TestRecordArrivalAmendKeepsCommittedFields(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	if _, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(1000), Fuel: 6}); err != nil {
		t.Fatalf("departure: %v", err)
	}
	if _, err := svc.RecordArrival(ctx, ArrivalInput{Folio: c.Folio, Mileage: int64p(1200), Fuel: 3, Comment: "all good"}); err != nil {
		t.Fatalf("arrival: %v", err)
	}

	// 只补油量的回场改单：已提交的里程和备注不能被清掉
	p, err := svc.RecordArrival(ctx, ArrivalInput{Folio: c.Folio, Fuel: 4})
	if err != nil {
		t.Fatalf("comment-only amend: %v", err)
	}
	if p.ArrivalMileage == nil || *p.ArrivalMileage != 1200 {
		t.Fatalf("arrival mileage lost on amend: %v", p.ArrivalMileage)
	}
	if p.ArrivalComment != "all good" {
		t.Fatalf("arrival comment lost on amend: %q", p.ArrivalComment)
	}
	if p.FuelLevel != 4 {
		t.Fatalf("fuel not amended: %d", p.FuelLevel)
	}
}

func TestRecordDepartureConcurrentCreateLoserAmends(t *testing.T) {
	svc, cRepo := newTestService(t)
	ctx := context.Background()
	c := seedCommission(t, cRepo, true)

	// 在本次提交读空、插入之间，让另一提交抢先落单
	var winner *Pass
	svc.beforeCreate = func(ctx context.Context) {
		winner = &Pass{
			ID:           uuid.NewString(),
			CommissionID: c.ID,
			StartDate:    time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC),
			EndDate:      EndDateSentinel,
			Active:       true,
		}
		if err := svc.passes.Create(ctx, winner); err != nil {
			t.Fatalf("seed winner: %v", err)
		}
	}

	p, err := svc.RecordDeparture(ctx, DepartureInput{Folio: c.Folio, Mileage: int64p(700), Fuel: 5, Comment: "late submit"})
	if err != nil {
		t.Fatalf("loser departure: %v", err)
	}
	// 输家不建新单，回读赢家的记录改单
	if p.ID != winner.ID {
		t.Fatalf("loser created a second pass: %s != %s", p.ID, winner.ID)
	}
	if !p.StartDate.Equal(winner.StartDate) {
		t.Fatalf("loser overwrote StartDate: %v", p.StartDate)
	}
	if p.DepartureMileage == nil || *p.DepartureMileage != 700 {
		t.Fatalf("loser's fields not amended: %v", p.DepartureMileage)
	}
}

func TestRepoRejectsDuplicateCommissionID(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepo(db)
	ctx := context.Background()

	commissionID := uuid.NewString()
	p1 := &Pass{ID: uuid.NewString(), CommissionID: commissionID, StartDate: time.Now(), EndDate: EndDateSentinel, Active: true}
	if err := repo.Create(ctx, p1); err != nil {
		t.Fatalf("first create: %v", err)
	}
	p2 := &Pass{ID: uuid.NewString(), CommissionID: commissionID, StartDate: time.Now(), EndDate: EndDateSentinel, Active: true}
	err := repo.Create(ctx, p2)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected ErrDuplicatedKey, got %v", err)
	}
}
