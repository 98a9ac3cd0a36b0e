package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/rubiojr/regsearch/pkg/log"
)

var logger = log.ForService("core")

// SourceType is the discriminant carried by every search hit in its
// "source_type" field. It decides which record variant a hit decodes into
// and which category bucket it is classified under.
type SourceType string

const (
	SourceChangeOfName    SourceType = "change_of_name"
	SourceDateOfBirth     SourceType = "correction_of_date_of_birth"
	SourcePlaceOfBirth    SourceType = "correction_of_place_of_birth"
	SourceMarriageOfficer SourceType = "marriage_officer"
)

// Categories lists the four record categories in display order.
var Categories = []SourceType{
	SourceChangeOfName,
	SourceDateOfBirth,
	SourcePlaceOfBirth,
	SourceMarriageOfficer,
}

// Known reports whether s is one of the four record categories.
func (s SourceType) Known() bool {
	switch s {
	case SourceChangeOfName, SourceDateOfBirth, SourcePlaceOfBirth, SourceMarriageOfficer:
		return true
	}
	return false
}

// Label returns a human readable category name.
func (s SourceType) Label() string {
	switch s {
	case SourceChangeOfName:
		return "change of name"
	case SourceDateOfBirth:
		return "date of birth corrections"
	case SourcePlaceOfBirth:
		return "place of birth corrections"
	case SourceMarriageOfficer:
		return "marriage officers"
	}
	return string(s)
}

// ParseSourceType validates a category key coming from user input.
func ParseSourceType(s string) (SourceType, error) {
	st := SourceType(strings.TrimSpace(s))
	if !st.Known() {
		return "", fmt.Errorf("unknown record category %q", s)
	}
	return st, nil
}

// ID is a record identifier. The registry API is not consistent about
// sending ids as numbers or strings, so both are accepted.
type ID string

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding id: %w", err)
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("decoding id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// ParseID validates a record identifier coming from user input.
func ParseID(s string) (ID, error) {
	id := ID(strings.TrimSpace(s))
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate rejects ids that cannot stand as a single URL path segment.
func (id ID) Validate() error {
	s := string(id)
	switch {
	case strings.TrimSpace(s) == "":
		return fmt.Errorf("record id is required")
	case s == "." || s == "..":
		return fmt.Errorf("invalid record id %q", s)
	case strings.ContainsAny(s, `/\`):
		return fmt.Errorf("invalid record id %q: contains a path separator", s)
	}
	return nil
}

// Int returns the id as an integer when it is numeric.
func (id ID) Int() (int64, bool) {
	n, err := strconv.ParseInt(string(id), 10, 64)
	return n, err == nil
}

// Record is a single search hit. Every variant is an immutable value type;
// the concrete type is selected by the hit's source_type.
type Record interface {
	// SourceType returns the discriminant the record was decoded from.
	SourceType() SourceType

	// RecordID returns the identifier used for detail lookups.
	RecordID() ID

	// Source returns the data_source label the registry attached to the hit.
	Source() string

	// DisplayName resolves the record's display name following the
	// current_name, name, person_name, officer_name fallback chain, limited
	// to the fields the variant actually has.
	DisplayName() string

	// SearchKey returns the lower-cased text local filtering matches against.
	SearchKey() string

	// Summary returns a one-line description for compact listings.
	Summary() string
}

// MatchType tells which name of a change of name record matched the query.
type MatchType string

const (
	MatchCurrentName MatchType = "current_name"
	MatchOldName     MatchType = "old_name"
	MatchAlias       MatchType = "alias"
)

// NameChange is a change_of_name hit.
type NameChange struct {
	ID          ID        `json:"id"`
	DataSource  string    `json:"data_source"`
	Name        string    `json:"name,omitempty"`
	CurrentName string    `json:"current_name,omitempty"`
	OldName     string    `json:"old_name,omitempty"`
	AliasNames  []string  `json:"alias_names,omitempty"`
	MatchType   MatchType `json:"match_type,omitempty"`
}

func (r NameChange) SourceType() SourceType { return SourceChangeOfName }
func (r NameChange) RecordID() ID           { return r.ID }
func (r NameChange) Source() string         { return r.DataSource }

func (r NameChange) DisplayName() string {
	return firstNonEmpty(r.CurrentName, r.Name)
}

func (r NameChange) SearchKey() string {
	return searchKey(r.Name, r.CurrentName, r.OldName, strings.Join(r.AliasNames, " "))
}

func (r NameChange) Summary() string {
	if r.OldName != "" {
		return fmt.Sprintf("%s (formerly %s)", r.DisplayName(), r.OldName)
	}
	return r.DisplayName()
}

func (r NameChange) MarshalJSON() ([]byte, error) {
	type alias NameChange
	return json.Marshal(struct {
		SourceType SourceType `json:"source_type"`
		alias
	}{SourceChangeOfName, alias(r)})
}

// DateOfBirthCorrection is a correction_of_date_of_birth hit.
type DateOfBirthCorrection struct {
	ID             ID     `json:"id"`
	DataSource     string `json:"data_source"`
	Name           string `json:"name,omitempty"`
	PersonName     string `json:"person_name,omitempty"`
	OldDateOfBirth string `json:"old_date_of_birth,omitempty"`
	NewDateOfBirth string `json:"new_date_of_birth,omitempty"`
}

func (r DateOfBirthCorrection) SourceType() SourceType { return SourceDateOfBirth }
func (r DateOfBirthCorrection) RecordID() ID           { return r.ID }
func (r DateOfBirthCorrection) Source() string         { return r.DataSource }

func (r DateOfBirthCorrection) DisplayName() string {
	return firstNonEmpty(r.Name, r.PersonName)
}

func (r DateOfBirthCorrection) SearchKey() string {
	return searchKey(firstNonEmpty(r.PersonName, r.Name))
}

func (r DateOfBirthCorrection) Summary() string {
	return fmt.Sprintf("%s: %s -> %s", r.DisplayName(), r.OldDateOfBirth, r.NewDateOfBirth)
}

func (r DateOfBirthCorrection) MarshalJSON() ([]byte, error) {
	type alias DateOfBirthCorrection
	return json.Marshal(struct {
		SourceType SourceType `json:"source_type"`
		alias
	}{SourceDateOfBirth, alias(r)})
}

// PlaceOfBirthCorrection is a correction_of_place_of_birth hit.
type PlaceOfBirthCorrection struct {
	ID              ID     `json:"id"`
	DataSource      string `json:"data_source"`
	Name            string `json:"name,omitempty"`
	PersonName      string `json:"person_name,omitempty"`
	OldPlaceOfBirth string `json:"old_place_of_birth,omitempty"`
	NewPlaceOfBirth string `json:"new_place_of_birth,omitempty"`
}

func (r PlaceOfBirthCorrection) SourceType() SourceType { return SourcePlaceOfBirth }
func (r PlaceOfBirthCorrection) RecordID() ID           { return r.ID }
func (r PlaceOfBirthCorrection) Source() string         { return r.DataSource }

func (r PlaceOfBirthCorrection) DisplayName() string {
	return firstNonEmpty(r.Name, r.PersonName)
}

func (r PlaceOfBirthCorrection) SearchKey() string {
	return searchKey(firstNonEmpty(r.PersonName, r.Name))
}

func (r PlaceOfBirthCorrection) Summary() string {
	return fmt.Sprintf("%s: %s -> %s", r.DisplayName(), r.OldPlaceOfBirth, r.NewPlaceOfBirth)
}

func (r PlaceOfBirthCorrection) MarshalJSON() ([]byte, error) {
	type alias PlaceOfBirthCorrection
	return json.Marshal(struct {
		SourceType SourceType `json:"source_type"`
		alias
	}{SourcePlaceOfBirth, alias(r)})
}

// MarriageOfficer is a marriage_officer appointment hit.
type MarriageOfficer struct {
	ID          ID     `json:"id"`
	DataSource  string `json:"data_source"`
	Name        string `json:"name,omitempty"`
	OfficerName string `json:"officer_name,omitempty"`
	Church      string `json:"church,omitempty"`
	Location    string `json:"location,omitempty"`
	Region      string `json:"region,omitempty"`
}

func (r MarriageOfficer) SourceType() SourceType { return SourceMarriageOfficer }
func (r MarriageOfficer) RecordID() ID           { return r.ID }
func (r MarriageOfficer) Source() string         { return r.DataSource }

func (r MarriageOfficer) DisplayName() string {
	return firstNonEmpty(r.Name, r.OfficerName)
}

func (r MarriageOfficer) SearchKey() string {
	return searchKey(firstNonEmpty(r.OfficerName, r.Name), r.Church, r.Location, r.Region)
}

func (r MarriageOfficer) Summary() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{r.Church, r.Location, r.Region} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return r.DisplayName()
	}
	return fmt.Sprintf("%s (%s)", r.DisplayName(), strings.Join(parts, ", "))
}

func (r MarriageOfficer) MarshalJSON() ([]byte, error) {
	type alias MarriageOfficer
	return json.Marshal(struct {
		SourceType SourceType `json:"source_type"`
		alias
	}{SourceMarriageOfficer, alias(r)})
}

// Unrecognized holds a hit whose source_type is not one of the known
// categories. It is kept only so the classifier can drop it.
type Unrecognized struct {
	Tag        string `json:"source_type"`
	ID         ID     `json:"id"`
	DataSource string `json:"data_source"`
}

func (r Unrecognized) SourceType() SourceType { return SourceType(r.Tag) }
func (r Unrecognized) RecordID() ID           { return r.ID }
func (r Unrecognized) Source() string         { return r.DataSource }
func (r Unrecognized) DisplayName() string    { return "" }
func (r Unrecognized) SearchKey() string      { return "" }
func (r Unrecognized) Summary() string        { return fmt.Sprintf("unrecognized %s record %s", r.Tag, r.ID) }

// DecodeRecord decodes a single search hit into its variant.
// Unknown source types decode into Unrecognized without error.
func DecodeRecord(data []byte) (Record, error) {
	var tag struct {
		SourceType string `json:"source_type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return DecodeRecordAs(SourceType(tag.SourceType), data)
}

// DecodeRecordAs decodes data as the variant for st regardless of any
// source_type present in the payload.
func DecodeRecordAs(st SourceType, data []byte) (Record, error) {
	var (
		rec Record
		err error
	)
	switch st {
	case SourceChangeOfName:
		var r NameChange
		err = json.Unmarshal(data, &r)
		rec = r
	case SourceDateOfBirth:
		var r DateOfBirthCorrection
		err = json.Unmarshal(data, &r)
		rec = r
	case SourcePlaceOfBirth:
		var r PlaceOfBirthCorrection
		err = json.Unmarshal(data, &r)
		rec = r
	case SourceMarriageOfficer:
		var r MarriageOfficer
		err = json.Unmarshal(data, &r)
		rec = r
	default:
		var r Unrecognized
		err = json.Unmarshal(data, &r)
		r.Tag = string(st)
		rec = r
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s record: %w", st, err)
	}
	return rec, nil
}

// Records decodes a JSON array of heterogeneous search hits. A hit that
// cannot be decoded, even leniently, is skipped so the rest of the page
// survives.
type Records []Record

func (rs *Records) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding results: %w", err)
	}
	out := make(Records, 0, len(raw))
	for i, item := range raw {
		rec, err := DecodeRecord(item)
		if err != nil {
			rec, err = decodeLenient(item)
		}
		if err != nil {
			logger.Debugf("skipping result %d: %v", i, err)
			continue
		}
		out = append(out, rec)
	}
	*rs = out
	return nil
}

// decodeLenient retries a hit whose scalar fields arrived with the wrong
// JSON type, rendering numbers and booleans as strings.
func decodeLenient(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	for k, v := range fields {
		switch v := v.(type) {
		case json.Number:
			fields[k] = v.String()
		case bool:
			fields[k] = strconv.FormatBool(v)
		}
	}

	fixed, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("re-encoding record: %w", err)
	}
	return DecodeRecord(fixed)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func searchKey(fields ...string) string {
	return strings.ToLower(strings.Join(fields, " "))
}
