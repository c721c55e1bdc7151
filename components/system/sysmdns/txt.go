package sysmdns

import "strings"

// TxtEntry is a single key/value pair of the service TXT record.
type TxtEntry struct {
	Key   string
	Value string
}

// Metadata is an ordered set of TXT record entries.
//
// References:
//   - https://datatracker.ietf.org/doc/html/rfc6763#section-6
type Metadata []TxtEntry

// Get returns the value of the last entry with the key.
func (m Metadata) Get(key string) (string, bool) {
	value, found := "", false

	for _, e := range m {
		if e.Key == key {
			value, found = e.Value, true
		}
	}

	return value, found
}

// Map returns metadata as a map, later entries win on duplicate keys.
func (m Metadata) Map() map[string]string {
	ret := make(map[string]string, len(m))

	for _, e := range m {
		ret[e.Key] = e.Value
	}

	return ret
}

// TxtRecords renders metadata as TXT strings, e.g. ["version=1.0", "region=LAN"].
func (m Metadata) TxtRecords() []string {
	var records []string

	for _, e := range m {
		records = append(records, e.Key+"="+e.Value)
	}

	return records
}

// Equal reports whether both metadata contain the same entries in the same order.
func (m Metadata) Equal(other Metadata) bool {
	if len(m) != len(other) {
		return false
	}

	for n := range m {
		if m[n] != other[n] {
			return false
		}
	}

	return true
}

// ParseTxtRecords parses TXT strings of the form "key=value".
//
// Remarks:
//   - "key" without "=" is a boolean attribute, its value is empty.
//   - Entries with an empty key are dropped.
func ParseTxtRecords(records []string) Metadata {
	var metadata Metadata

	for _, record := range records {
		key, value, _ := strings.Cut(record, "=")
		if key == "" {
			continue
		}

		metadata = append(metadata, TxtEntry{Key: key, Value: value})
	}

	return metadata
}
