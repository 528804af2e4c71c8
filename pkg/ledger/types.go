package ledger

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// maxCommitIDLength bounds commit IDs read from the shared folder. Generated
// IDs are much shorter.
const maxCommitIDLength = 64

// commitIDLength is the length of generated commit IDs.
const commitIDLength = 12

// CommitID identifies one published snapshot of a world. The zero value means
// "no commit", and is serialized as null.
type CommitID string

// NewCommitID returns a fresh random commit ID.
func NewCommitID() CommitID {
	return CommitID(strings.Replace(uuid.New().String(), "-", "", -1)[:commitIDLength])
}

// ParseCommitID validates `s` as a commit ID. The empty string parses to the
// zero CommitID.
func ParseCommitID(s string) (CommitID, error) {
	if len(s) > maxCommitIDLength {
		return "", fmt.Errorf("commit ID is longer than %d characters", maxCommitIDLength)
	}
	if strings.ContainsAny(s, " \t\r\n/\\") {
		return "", fmt.Errorf("commit ID %q contains whitespace or a path separator", s)
	}
	return CommitID(s), nil
}

// IsZero returns whether the ID is the zero "no commit" value.
func (id CommitID) IsZero() bool {
	return id == ""
}

func (id CommitID) String() string {
	if id.IsZero() {
		return "<none>"
	}
	return string(id)
}

// MarshalJSON implements json.Marshaler.
func (id CommitID) MarshalJSON() ([]byte, error) {
	if id.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler. IDs are validated here so that
// malformed lineage never makes it past the deserialization boundary.
func (id *CommitID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*id = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	parsed, err := ParseCommitID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// TimestampLayout is the layout of every timestamp in the shared folder.
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a local wall-clock time with second precision. Timestamps are
// compared as strings, so two records share a timestamp only if they were
// written from the same publish.
type Timestamp string

// NewTimestamp formats `t` as a Timestamp.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp(t.Format(TimestampLayout))
}

// Time parses the timestamp in the local time zone.
func (ts Timestamp) Time() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, string(ts), time.Local)
}

// IsZero returns whether the timestamp is unset.
func (ts Timestamp) IsZero() bool {
	return ts == ""
}

// PointerEntry is the index's record of the latest published version of a
// world, and which machine published it.
type PointerEntry struct {
	CommitID  CommitID  `json:"commit_id"`
	MachineID string    `json:"pc_id"`
	Timestamp Timestamp `json:"timestamp"`
	Comment   string    `json:"comment"`
}

// Index is the shared record of each world's currently published commit.
type Index struct {
	Worlds map[string]PointerEntry `json:"mundos"`
}

// CommitRecord is a machine's own record of the commit its copy of a world
// derives from.
type CommitRecord struct {
	CommitID   CommitID  `json:"commit_id"`
	BaseCommit CommitID  `json:"base_commit"`
	Comment    string    `json:"comment"`
	Timestamp  Timestamp `json:"timestamp"`

	// OriginalTimestamp is the publish timestamp of the commit this record was
	// pulled from. It's only set by pulls.
	OriginalTimestamp Timestamp `json:"original_timestamp,omitempty"`
}

// Matches returns whether the record corresponds to the index entry, either
// because the record is the publish that created the entry, or because it
// was pulled from it.
func (rec CommitRecord) Matches(entry PointerEntry) bool {
	if rec.Timestamp == entry.Timestamp {
		return true
	}
	return !rec.OriginalTimestamp.IsZero() &&
		rec.OriginalTimestamp == entry.Timestamp &&
		rec.CommitID == entry.CommitID
}

// Before returns whether `ts` is strictly earlier than `other`. Unparseable
// timestamps are never before anything.
func (ts Timestamp) Before(other Timestamp) bool {
	a, err := ts.Time()
	if err != nil {
		return false
	}
	b, err := other.Time()
	if err != nil {
		return false
	}
	return a.Before(b)
}
