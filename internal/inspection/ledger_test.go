package inspection

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
	"github.com/SmartFleetPass/SmartFleetPass/internal/evidence"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

// passCheckerStub 让测试控制“出车单是否存在”的判定。
type passCheckerStub struct {
	exists bool
}

func (s passCheckerStub) ExistsActive(ctx context.Context, id string) (bool, error) {
	return s.exists, nil
}

func newTestLedger(t *testing.T, passes PassChecker) *Ledger {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	store, err := evidence.NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	return NewLedger(NewRepo(db), store, passes)
}

func TestUpsertCreatesRecord(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	rec, err := l.Upsert(ctx, UpsertInput{
		PassID:        "pass-1",
		Leg:           LegDeparture,
		Part:          "front",
		Type:          TypePhoto,
		Comment:       "small dent",
		Evidence:      []byte("jpeg"),
		SuggestedName: "front.jpg",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if rec.ID == "" || rec.EvidenceLocator == "" || !rec.Active {
		t.Fatalf("unexpected record %+v", rec)
	}
}

func TestUpsertReplacesSlotKeepingID(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	first, err := l.Upsert(ctx, UpsertInput{
		PassID: "pass-1", Leg: LegDeparture, Part: "front", Type: TypePhoto,
		Evidence: []byte("v1"), SuggestedName: "front.jpg",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}

	// 同槽位重传：locator 换新，id 不变，active 记录仍只有一条
	second, err := l.Upsert(ctx, UpsertInput{
		PassID: "pass-1", Leg: LegDeparture, Part: "front", Type: TypePhoto,
		Comment: "retaken", Evidence: []byte("v2"), SuggestedName: "front2.jpg",
	})
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("slot replace minted a new id: %s != %s", second.ID, first.ID)
	}
	if second.EvidenceLocator == first.EvidenceLocator {
		t.Fatalf("locator not replaced")
	}
	if second.Comment != "retaken" {
		t.Fatalf("comment not updated: %q", second.Comment)
	}

	recs, err := l.ListFor(ctx, "pass-1")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected single active record, got %d", len(recs))
	}
}

func TestUpsertWithoutEvidenceKeepsLocator(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	first, err := l.Upsert(ctx, UpsertInput{
		PassID: "pass-1", Leg: LegArrival, Part: "mileage", Type: TypePhoto,
		Evidence: []byte("odometer"), SuggestedName: "odo.jpg",
	})
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	second, err := l.Upsert(ctx, UpsertInput{
		PassID: "pass-1", Leg: LegArrival, Part: "mileage", Type: TypePhoto,
		Comment: "comment only",
	})
	if err != nil {
		t.Fatalf("comment-only upsert: %v", err)
	}
	if second.EvidenceLocator != first.EvidenceLocator {
		t.Fatalf("locator should be preserved, got %q", second.EvidenceLocator)
	}
}

func TestUpsertDistinguishesLegAndType(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	inputs := []UpsertInput{
		{PassID: "pass-1", Leg: LegDeparture, Part: "front", Type: TypePhoto, Evidence: []byte("a"), SuggestedName: "a.jpg"},
		{PassID: "pass-1", Leg: LegArrival, Part: "front", Type: TypePhoto, Evidence: []byte("b"), SuggestedName: "b.jpg"},
		{PassID: "pass-1", Leg: LegDeparture, Part: "conductor", Type: TypeSignature, Evidence: []byte("c"), SuggestedName: "c.png"},
	}
	ids := map[string]bool{}
	for _, in := range inputs {
		rec, err := l.Upsert(ctx, in)
		if err != nil {
			t.Fatalf("Upsert(%s/%s/%s): %v", in.Leg, in.Part, in.Type, err)
		}
		ids[rec.ID] = true
	}
	if len(ids) != 3 {
		t.Fatalf("expected 3 distinct slots, got %d", len(ids))
	}

	// 列表按插入序稳定返回
	recs, err := l.ListFor(ctx, "pass-1")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if recs[0].Part != "front" || recs[0].Leg != LegDeparture {
		t.Fatalf("unexpected first record %+v", recs[0])
	}
	if recs[2].Type != TypeSignature {
		t.Fatalf("unexpected last record %+v", recs[2])
	}
}

func TestUpsertValidatesInput(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	cases := []UpsertInput{
		{PassID: "p", Leg: LegDeparture, Part: "", Type: TypePhoto},
		{PassID: "p", Leg: "sideways", Part: "front", Type: TypePhoto},
		{PassID: "p", Leg: LegDeparture, Part: "front", Type: "video"},
	}
	for i, in := range cases {
		if _, err := l.Upsert(ctx, in); !errs.IsKind(err, errs.KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestRemoveSoftDeletes(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: true})
	ctx := context.Background()

	rec, err := l.Upsert(ctx, UpsertInput{
		PassID: "pass-1", Leg: LegDeparture, Part: "front", Type: TypePhoto,
		Evidence: []byte("x"), SuggestedName: "x.jpg",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	if err := l.Remove(ctx, rec.ID); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	recs, err := l.ListFor(ctx, "pass-1")
	if err != nil {
		t.Fatalf("ListFor: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no active records, got %d", len(recs))
	}
	// 已删记录再删：not_found
	if err := l.Remove(ctx, rec.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found on second remove, got %v", err)
	}
}

func TestRemoveRejectsOrphanRecord(t *testing.T) {
	l := newTestLedger(t, passCheckerStub{exists: false})
	ctx := context.Background()

	rec, err := l.Upsert(ctx, UpsertInput{
		PassID: "gone-pass", Leg: LegDeparture, Part: "front", Type: TypePhoto,
		Evidence: []byte("x"), SuggestedName: "x.jpg",
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := l.Remove(ctx, rec.ID); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found for orphan record, got %v", err)
	}
}
