package ids

import (
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
)

func TestNewIsMonotonicAndParsable(t *testing.T) {
	prev := New()
	for i := 0; i < 100; i++ {
		next := New()
		if next <= prev {
			t.Fatalf("ids not increasing: %s then %s", prev, next)
		}
		if _, err := ulid.ParseStrict(next); err != nil {
			t.Fatalf("invalid ulid %q: %v", next, err)
		}
		prev = next
	}
}

func TestSourceFixedClock(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	src := NewSource(func() time.Time { return at })
	a, b := src.New(), src.New()
	if b <= a {
		t.Fatalf("ids minted in the same millisecond not increasing: %s then %s", a, b)
	}
	got, ok := Time(b)
	if !ok || !got.Equal(at) {
		t.Fatalf("Time(%s) = %v, %v; want %v", b, got, ok, at)
	}
}

func TestTimeRejectsGarbage(t *testing.T) {
	if _, ok := Time("not-an-id"); ok {
		t.Fatal("expected garbage to be rejected")
	}
}
