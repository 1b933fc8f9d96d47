package roster

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"
)

// Roster is one generated (or imported) batch of employee records.
// Rosters are handed around by value; use Clone before changing records.
type Roster []Employee

// Len returns the number of records.
func (r Roster) Len() int {
	return len(r)
}

// Clone returns a deep copy of the roster.
func (r Roster) Clone() Roster {
	if r == nil {
		return nil
	}
	out := make(Roster, len(r))
	for i, e := range r {
		out[i] = e.Clone()
	}
	return out
}

// Active returns the employees whose status is Active.
func (r Roster) Active() Roster {
	return r.Where(func(e Employee) bool { return e.IsActive() })
}

// Separated returns the employees whose status is Separated.
func (r Roster) Separated() Roster {
	return r.Where(func(e Employee) bool { return e.Status == Separated })
}

// HighRisk returns active employees whose risk score exceeds threshold.
func (r Roster) HighRisk(threshold float64) Roster {
	return r.Where(func(e Employee) bool {
		risk, ok := e.RiskScore()
		return e.IsActive() && ok && risk > threshold
	})
}

// Where returns copies of the records matching keep.
func (r Roster) Where(keep func(Employee) bool) Roster {
	out := make(Roster, 0, len(r))
	for _, e := range r {
		if keep(e) {
			out = append(out, e.Clone())
		}
	}
	return out
}

// Validate checks every record and returns the first violation.
func (r Roster) Validate() error {
	seen := make(map[string]bool, len(r))
	for _, e := range r {
		if err := e.Validate(); err != nil {
			return err
		}
		if seen[e.ID] {
			return fmt.Errorf("%w: duplicate id %s", ErrInvalidRecord, e.ID)
		}
		seen[e.ID] = true
	}
	return nil
}

// Fingerprint identifies the roster content: the row count plus a content hash.
// Two rosters with equal fingerprints produce identical trained models.
func (r Roster) Fingerprint() string {
	h := sha256.New()
	for _, e := range r {
		for _, field := range canonicalFields(e) {
			h.Write([]byte(field))
			h.Write([]byte{0x1f})
		}
		h.Write([]byte{0x1e})
	}
	return strconv.Itoa(len(r)) + ":" + hex.EncodeToString(h.Sum(nil)[:12])
}

func canonicalFields(e Employee) []string {
	risk, sepType, sepDate := "", "", ""
	if e.Risk != nil {
		risk = strconv.FormatFloat(*e.Risk, 'f', -1, 64)
	}
	if e.SeparationType != nil {
		sepType = string(*e.SeparationType)
	}
	if e.SeparationDate != nil {
		sepDate = e.SeparationDate.Format(time.DateOnly)
	}
	return []string{
		e.ID, e.Name, string(e.Department), string(e.Level), string(e.Generation),
		strconv.Itoa(e.BirthYear), strconv.Itoa(e.Age),
		strconv.FormatFloat(e.TenureYears, 'f', -1, 64),
		e.HireDate.Format(time.DateOnly), strconv.Itoa(e.Salary),
		strconv.FormatFloat(e.Engagement, 'f', -1, 64),
		strconv.FormatFloat(e.Performance, 'f', -1, 64),
		risk, string(e.Status), sepType, sepDate, string(e.Trend),
	}
}
