package evidence

import (
	"context"
	"strings"
	"testing"

	"github.com/SmartFleetPass/SmartFleetPass/internal/common/errs"
)

func TestDiskStorePutAndResolve(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	ctx := context.Background()

	locator, err := store.Put(ctx, []byte("jpeg-bytes"), "front.jpg")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if locator == "" {
		t.Fatalf("expected non-empty locator")
	}
	if !strings.HasSuffix(locator, "_front.jpg") {
		t.Fatalf("expected locator to keep suggested name, got %s", locator)
	}

	data, err := store.Resolve(ctx, locator)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("bytes mismatch: %q", data)
	}
}

func TestDiskStorePutRejectsEmptyBytes(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := store.Put(context.Background(), nil, "x.jpg"); !errs.IsKind(err, errs.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDiskStoreResolveUnknownLocator(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	if _, err := store.Resolve(context.Background(), "no-such-locator"); !errs.IsKind(err, errs.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
}

func TestDiskStoreResolveRejectsPathTraversal(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewDiskStore: %v", err)
	}
	for _, locator := range []string{"../secret", "a/b", "a\\b", ""} {
		if _, err := store.Resolve(context.Background(), locator); !errs.IsKind(err, errs.KindValidation) {
			t.Fatalf("locator %q: expected validation error, got %v", locator, err)
		}
	}
}

func TestSanitizeName(t *testing.T) {
	cases := map[string]string{
		"front.jpg":       "front.jpg",
		"../../etc/猫.png": "_.png",
		"con ductor.png":  "con_ductor.png",
		"":                "",
	}
	for in, want := range cases {
		if got := sanitizeName(in); got != want {
			t.Fatalf("sanitizeName(%q) = %q, want %q", in, got, want)
		}
	}
}
