package registry

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

const sampleRecordJSON = `{
	"range": "3.2.1.0/24",
	"ds_rdatas": [
		"60485 5 2 d4b7d520e7bb5f0f67674a0cceb1e3e0614b93c4f9e99b8383f6a1e4469da50a"
	],
	"apnic_id": 4221,
	"whois_disclaimer": "this object is maintained by the registry",
	"_links": {
		"self": {"href": "/rdns/3.2.1.0%2F24"}
	}
}`

func TestDelegationRecord_Unmarshal(t *testing.T) {
	var rec DelegationRecord
	if err := json.Unmarshal([]byte(sampleRecordJSON), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Range != "3.2.1.0/24" {
		t.Errorf("expected range 3.2.1.0/24, got %s", rec.Range)
	}
	if len(rec.DSRdatas) != 1 {
		t.Fatalf("expected 1 DS rdata, got %d", len(rec.DSRdatas))
	}
}

// TestDelegationRecord_PreservesUnknownFields checks that fields this tool
// does not model survive a fetch-mutate-push round trip untouched.
func TestDelegationRecord_PreservesUnknownFields(t *testing.T) {
	var rec DelegationRecord
	if err := json.Unmarshal([]byte(sampleRecordJSON), &rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec.AddDS("1234 8 2 aabbcc")

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got["range"] != "3.2.1.0/24" {
		t.Errorf("range not preserved: %v", got["range"])
	}
	if got["apnic_id"] != float64(4221) {
		t.Errorf("apnic_id not preserved: %v", got["apnic_id"])
	}
	if got["whois_disclaimer"] != "this object is maintained by the registry" {
		t.Errorf("whois_disclaimer not preserved: %v", got["whois_disclaimer"])
	}
	links, ok := got["_links"].(map[string]any)
	if !ok {
		t.Fatalf("_links not preserved: %v", got["_links"])
	}
	if _, ok := links["self"]; !ok {
		t.Errorf("_links.self not preserved: %v", links)
	}

	rdatas, ok := got["ds_rdatas"].([]any)
	if !ok || len(rdatas) != 2 {
		t.Fatalf("expected 2 ds_rdatas, got %v", got["ds_rdatas"])
	}
	if rdatas[1] != "1234 8 2 aabbcc" {
		t.Errorf("appended DS missing: %v", rdatas)
	}
}

func TestDelegationRecord_MarshalEmptyDSList(t *testing.T) {
	rec := DelegationRecord{Range: "2001:db8::/32"}

	out, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rdatas, ok := got["ds_rdatas"].([]any); !ok || len(rdatas) != 0 {
		t.Errorf("expected empty ds_rdatas array, got %v", got["ds_rdatas"])
	}
}

func TestDelegationRecord_FindDS(t *testing.T) {
	rec := DelegationRecord{
		DSRdatas: []string{
			"1234 8 2 aabbcc",
			"12345 8 2 ddeeff",
		},
	}

	// 123 is a string prefix of both entries but matches neither keytag.
	if _, ok := rec.FindDS(123); ok {
		t.Error("keytag 123 must not match entries 1234 and 12345")
	}

	got, ok := rec.FindDS(1234)
	if !ok {
		t.Fatal("expected keytag 1234 to match")
	}
	if got != "1234 8 2 aabbcc" {
		t.Errorf("unexpected match: %s", got)
	}

	if _, ok := rec.FindDS(999); ok {
		t.Error("keytag 999 must not match")
	}
}

func TestDelegationRecord_RemoveDS(t *testing.T) {
	rec := DelegationRecord{
		DSRdatas: []string{
			"1234 8 2 aabbcc",
			"5678 8 2 ddeeff",
			"1234 8 1 001122",
		},
	}

	if removed := rec.RemoveDS(1234); removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}
	if !reflect.DeepEqual(rec.DSRdatas, []string{"5678 8 2 ddeeff"}) {
		t.Errorf("unexpected remaining entries: %v", rec.DSRdatas)
	}

	// Removing again is a no-op.
	if removed := rec.RemoveDS(1234); removed != 0 {
		t.Errorf("expected 0 removed, got %d", removed)
	}
}

func TestFindDelegation(t *testing.T) {
	records := []DelegationRecord{
		{Range: "3.2.1.0/24"},
		{Range: "2001:db8::/32"},
	}

	rec, err := FindDelegation(records, "2001:db8::/32")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Range != "2001:db8::/32" {
		t.Errorf("unexpected record: %s", rec.Range)
	}
}

func TestFindDelegation_NotFound(t *testing.T) {
	records := []DelegationRecord{{Range: "3.2.1.0/24"}}

	_, err := FindDelegation(records, "10.0.0.0/8")
	if !errors.Is(err, ErrDelegationNotFound) {
		t.Errorf("expected ErrDelegationNotFound, got %v", err)
	}
	if !IsDelegationNotFound(err) {
		t.Error("IsDelegationNotFound should report true")
	}
}

func TestFindDelegation_Ambiguous(t *testing.T) {
	records := []DelegationRecord{
		{Range: "3.2.1.0/24"},
		{Range: "3.2.1.0/24"},
	}

	_, err := FindDelegation(records, "3.2.1.0/24")
	if !errors.Is(err, ErrAmbiguousDelegation) {
		t.Errorf("expected ErrAmbiguousDelegation, got %v", err)
	}
}
