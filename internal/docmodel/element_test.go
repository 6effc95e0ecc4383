package docmodel

import (
	"encoding/json"
	"strings"
	"testing"
)

// --- Helper ---

func testElement(id string, kind Kind) DocElement {
	return DocElement{
		ID:           id,
		Kind:         kind,
		Title:        "Some Title",
		File:         FileSoftwareDesign,
		HeadingLevel: 2,
		Anchor:       "some-title",
		BodyMarkdown: "Body text.",
	}
}

// --- New ---

func TestNew_EmptyIDRejected(t *testing.T) {
	_, err := New(testElement("", KindComponent))
	if err == nil {
		t.Fatal("New with empty id should fail")
	}
}

func TestNew_TaskDefaultsToPending(t *testing.T) {
	e, err := New(testElement("T:0001", KindTask))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Status != StatusPending {
		t.Errorf("Status = %q, want %q", e.Status, StatusPending)
	}
}

func TestNew_StatusOnNonTaskRejected(t *testing.T) {
	el := testElement("C:Foo", KindComponent)
	el.Status = StatusCompleted
	_, err := New(el)
	if err == nil {
		t.Fatal("status on non-task should fail")
	}
	if !strings.Contains(err.Error(), "Task") {
		t.Errorf("error %q should mention Task", err)
	}
}

func TestNew_InvalidKindRejected(t *testing.T) {
	el := testElement("C:Foo", Kind("Widget"))
	if _, err := New(el); err == nil {
		t.Fatal("invalid kind should fail")
	}
}

func TestNew_NilSlicesBecomeEmpty(t *testing.T) {
	e, err := New(testElement("R:Purpose", KindRequirement))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Refs == nil || e.Backlinks == nil {
		t.Error("Refs and Backlinks should be non-nil empty slices")
	}
}

// --- Serialization ---

func TestJSONRoundTrip(t *testing.T) {
	el := testElement("T:0042", KindTask)
	el.Refs = []string{"C:Indexer", "D:DocElement"}
	el.Status = StatusInProgress
	e, err := New(el)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	got, err := FromJSON(data)
	if err != nil {
		t.Fatalf("FromJSON: %v", err)
	}

	if got.ID != e.ID || got.Kind != e.Kind || got.Status != e.Status {
		t.Errorf("round trip mismatch: got %+v, want %+v", got, e)
	}
	if len(got.Refs) != 2 || got.Refs[0] != "C:Indexer" {
		t.Errorf("Refs = %v, want %v", got.Refs, e.Refs)
	}
}

func TestMarshal_NonTaskOmitsStatus(t *testing.T) {
	e, err := New(testElement("C:Foo", KindComponent))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "status") {
		t.Errorf("serialized non-task should omit status, got %s", data)
	}
}

func TestMarshal_TaskIncludesStatus(t *testing.T) {
	e, err := New(testElement("T:0001", KindTask))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !strings.Contains(string(data), `"status":"pending"`) {
		t.Errorf("serialized task should carry status, got %s", data)
	}
}

// --- Mutators ---

func TestAddRef_Deduplicates(t *testing.T) {
	e, _ := New(testElement("C:Foo", KindComponent))
	e.AddRef("C:Bar")
	e.AddRef("C:Bar")
	e.AddRef("D:Baz")
	if len(e.Refs) != 2 {
		t.Errorf("Refs = %v, want 2 unique entries", e.Refs)
	}
}

func TestAddBacklink_Deduplicates(t *testing.T) {
	e, _ := New(testElement("C:Foo", KindComponent))
	e.AddBacklink("R:Purpose")
	e.AddBacklink("R:Purpose")
	if len(e.Backlinks) != 1 {
		t.Errorf("Backlinks = %v, want 1 entry", e.Backlinks)
	}
}
