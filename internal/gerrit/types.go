package gerrit

import "time"

// ChangeInfo is the Gerrit JSON representation of a change.
type ChangeInfo struct {
	ID              string                   `json:"id"`
	Project         string                   `json:"project"`
	Branch          string                   `json:"branch"`
	Topic           string                   `json:"topic"`
	ChangeID        string                   `json:"change_id"`
	Subject         string                   `json:"subject"`
	Status          string                   `json:"status"`
	Created         Timestamp                `json:"created"`
	Updated         Timestamp                `json:"updated"`
	Number          int                      `json:"_number"`
	Owner           *AccountInfo             `json:"owner"`
	WorkInProgress  bool                     `json:"work_in_progress"`
	Starred         bool                     `json:"starred"`
	Reviewed        bool                     `json:"reviewed"`
	CurrentRevision string                   `json:"current_revision"`
	Revisions       map[string]*RevisionInfo `json:"revisions"`
	Labels          map[string]*LabelInfo    `json:"labels"`
	Reviewers       map[string][]*AccountInfo `json:"reviewers"`
	Assignee        *AccountInfo             `json:"assignee"`
}

// Change statuses as reported by the server.
const (
	StatusNew       = "NEW"
	StatusMerged    = "MERGED"
	StatusAbandoned = "ABANDONED"
	StatusDraft     = "DRAFT"
)

// Open reports whether the change is still reviewable.
func (c *ChangeInfo) Open() bool {
	return c.Status == StatusNew || c.Status == StatusDraft
}

// Draft reports whether the change is hidden from general review, either as
// an old-style draft or a work-in-progress change.
func (c *ChangeInfo) Draft() bool {
	return c.Status == StatusDraft || c.WorkInProgress
}

// CurrentPatchSet returns the number of the current patch set, or 0 when
// revisions were not requested.
func (c *ChangeInfo) CurrentPatchSet() int {
	if rev, ok := c.Revisions[c.CurrentRevision]; ok {
		return rev.Number
	}
	return 0
}

// AccountInfo is the Gerrit JSON representation of an account.
type AccountInfo struct {
	ID       int    `json:"_account_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Identity returns the best human identifier for the account.
func (a *AccountInfo) Identity() string {
	if a == nil {
		return ""
	}
	if a.Username != "" {
		return a.Username
	}
	if a.Email != "" {
		return a.Email
	}
	return a.Name
}

// RevisionInfo is the Gerrit JSON representation of one patch set.
type RevisionInfo struct {
	Number int                   `json:"_number"`
	Ref    string                `json:"ref"`
	Fetch  map[string]*FetchInfo `json:"fetch"`
}

// FetchInfo describes how to fetch a patch set.
type FetchInfo struct {
	URL string `json:"url"`
	Ref string `json:"ref"`
}

// LabelInfo is the Gerrit JSON representation of a review label.
type LabelInfo struct {
	Optional bool           `json:"optional"`
	Approved *AccountInfo   `json:"approved"`
	Rejected *AccountInfo   `json:"rejected"`
	All      []*ApprovalInfo `json:"all"`
}

// ApprovalInfo is one account's vote on a label.
type ApprovalInfo struct {
	AccountInfo
	Value int `json:"value"`
}

// ReviewInput is the payload for posting a review.
type ReviewInput struct {
	Message string         `json:"message,omitempty"`
	Labels  map[string]int `json:"labels,omitempty"`
}

// gerritTimeLayout is the timestamp format Gerrit uses ("2006-01-02
// 15:04:05.000000000", UTC, no zone designator).
const gerritTimeLayout = "2006-01-02 15:04:05.000000000"

// Timestamp unmarshals Gerrit's timestamp format.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		return nil
	}
	s = s[1 : len(s)-1] // strip quotes
	parsed, err := time.Parse(gerritTimeLayout, s)
	if err != nil {
		// Some servers omit fractional seconds.
		parsed, err = time.Parse("2006-01-02 15:04:05", s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(gerritTimeLayout) + `"`), nil
}
