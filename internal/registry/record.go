package registry

import (
	"encoding/json"
	"strconv"
	"strings"
)

// DelegationRecord is the registry's representation of one reverse-DNS
// delegation: a range (CIDR prefix) and its DS RDATA strings.
//
// The registry owns these records and returns more fields than this tool
// models. Updates push the whole record back (last writer wins), so the
// JSON round-trip preserves every field it does not understand.
type DelegationRecord struct {
	Range    string
	DSRdatas []string

	// extra holds the registry fields this tool does not model, keyed by
	// JSON field name, so an update echoes them back untouched.
	extra map[string]json.RawMessage
}

// UnmarshalJSON decodes range and ds_rdatas and stashes every other field
// for the round-trip.
func (r *DelegationRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if raw, ok := fields["range"]; ok {
		if err := json.Unmarshal(raw, &r.Range); err != nil {
			return err
		}
		delete(fields, "range")
	}
	if raw, ok := fields["ds_rdatas"]; ok {
		if err := json.Unmarshal(raw, &r.DSRdatas); err != nil {
			return err
		}
		delete(fields, "ds_rdatas")
	}

	r.extra = fields
	return nil
}

// MarshalJSON re-assembles the record, preserved fields included.
func (r DelegationRecord) MarshalJSON() ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(r.extra)+2)
	for k, v := range r.extra {
		fields[k] = v
	}

	rng, err := json.Marshal(r.Range)
	if err != nil {
		return nil, err
	}
	fields["range"] = rng

	ds := r.DSRdatas
	if ds == nil {
		ds = []string{}
	}
	rdatas, err := json.Marshal(ds)
	if err != nil {
		return nil, err
	}
	fields["ds_rdatas"] = rdatas

	return json.Marshal(fields)
}

// dsKeyTag extracts the leading decimal keytag token of a DS RDATA string.
func dsKeyTag(rdata string) (string, bool) {
	f := strings.Fields(rdata)
	if len(f) == 0 {
		return "", false
	}
	return f[0], true
}

// FindDS returns the DS RDATA whose keytag equals tag, if present. The
// match is exact string equality of the leading decimal token, never a
// bare prefix test.
func (r *DelegationRecord) FindDS(tag uint16) (string, bool) {
	want := strconv.FormatUint(uint64(tag), 10)
	for _, rdata := range r.DSRdatas {
		if got, ok := dsKeyTag(rdata); ok && got == want {
			return rdata, true
		}
	}
	return "", false
}

// AddDS appends a DS RDATA string to the record.
func (r *DelegationRecord) AddDS(rdata string) {
	r.DSRdatas = append(r.DSRdatas, rdata)
}

// RemoveDS deletes every DS RDATA whose keytag equals tag and reports how
// many entries were removed.
func (r *DelegationRecord) RemoveDS(tag uint16) int {
	want := strconv.FormatUint(uint64(tag), 10)
	kept := r.DSRdatas[:0]
	removed := 0
	for _, rdata := range r.DSRdatas {
		if got, ok := dsKeyTag(rdata); ok && got == want {
			removed++
			continue
		}
		kept = append(kept, rdata)
	}
	r.DSRdatas = kept
	return removed
}

// FindDelegation returns the single record whose range equals the canonical
// prefix. Zero matches yields ErrDelegationNotFound; more than one match is
// ErrAmbiguousDelegation rather than a silent pick.
func FindDelegation(records []DelegationRecord, prefix string) (*DelegationRecord, error) {
	var found *DelegationRecord
	for i := range records {
		if records[i].Range != prefix {
			continue
		}
		if found != nil {
			return nil, ErrAmbiguousDelegation
		}
		found = &records[i]
	}
	if found == nil {
		return nil, ErrDelegationNotFound
	}
	return found, nil
}
