package models

import (
	"fmt"
	"strings"
	"time"
)

// Semester names a term within an academic year.
type Semester string

const (
	SemesterFirst  Semester = "FIRST"
	SemesterSecond Semester = "SECOND"
	SemesterSummer Semester = "SUMMER"
)

// ParseSemester normalises user input such as "1st", "second" or "SUMMER".
func ParseSemester(raw string) (Semester, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "FIRST", "1", "1ST":
		return SemesterFirst, nil
	case "SECOND", "2", "2ND":
		return SemesterSecond, nil
	case "SUMMER", "MIDYEAR", "3":
		return SemesterSummer, nil
	}
	return "", fmt.Errorf("unknown semester %q", raw)
}

// TermKey identifies a term by semester and academic year (the calendar year
// the academic year starts in).
type TermKey struct {
	Semester Semester `json:"semester"`
	Year     int      `json:"year"`
}

func (k TermKey) String() string {
	return fmt.Sprintf("%s %d-%d", k.Semester, k.Year, k.Year+1)
}

// AcademicTerm is an entry of the institutional calendar.
type AcademicTerm struct {
	ID        string    `db:"id" json:"id"`
	Semester  Semester  `db:"semester" json:"semester"`
	Year      int       `db:"academic_year" json:"year"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	EndDate   time.Time `db:"end_date" json:"end_date"`
}

// Key returns the term identity.
func (t AcademicTerm) Key() TermKey {
	return TermKey{Semester: t.Semester, Year: t.Year}
}

// Contains reports whether at falls inside the term (dates inclusive).
func (t AcademicTerm) Contains(at time.Time) bool {
	return !at.Before(t.StartDate) && !at.After(t.EndDate)
}
