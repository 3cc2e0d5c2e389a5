package audit

import (
	"os"
	"testing"
)

func testLog(t *testing.T) *Log {
	t.Helper()
	f, err := os.CreateTemp("", "atrium-audit-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	l, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndList(t *testing.T) {
	l := testLog(t)

	entries := []Entry{
		{Actor: "ada@example.com", Action: "create", Resource: "skill", TargetID: "s1", Label: "TypeScript"},
		{Actor: "ada@example.com", Action: "delete", Resource: "blog", TargetID: "b1", Label: "Hello World"},
	}
	for _, e := range entries {
		if err := l.Record(e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, total, err := l.List(10, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 || len(got) != 2 {
		t.Fatalf("total=%d len=%d, want 2/2", total, len(got))
	}
	// Newest first.
	if got[0].Resource != "blog" || got[0].Action != "delete" {
		t.Errorf("got[0] = %+v", got[0])
	}
	if got[1].Label != "TypeScript" {
		t.Errorf("got[1] = %+v", got[1])
	}
	if got[0].CreatedAt.IsZero() {
		t.Error("created_at not populated")
	}
}

func TestListPagination(t *testing.T) {
	l := testLog(t)
	for i := 0; i < 5; i++ {
		if err := l.Record(Entry{Actor: "a", Action: "update", Resource: "project"}); err != nil {
			t.Fatal(err)
		}
	}

	page, total, err := l.List(2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 || len(page) != 2 {
		t.Errorf("total=%d len=%d, want 5/2", total, len(page))
	}
}

func TestListEmpty(t *testing.T) {
	l := testLog(t)
	got, total, err := l.List(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(got) != 0 {
		t.Errorf("total=%d len=%d, want 0/0", total, len(got))
	}
}
