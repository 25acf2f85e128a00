package resultsdomain

import (
	"fmt"
	"strconv"
	"strings"
)

// SortBy is the statistic a round is ranked by.
type SortBy string

const (
	SortByBest    SortBy = "best"
	SortByAverage SortBy = "average"
)

// Format is the attempt count and ranking statistic of a round.
type Format struct {
	ID               string `json:"id"`
	NumberOfAttempts int    `json:"number_of_attempts"`
	SortBy           SortBy `json:"sort_by"`
}

var formats = map[string]Format{
	"1": {ID: "1", NumberOfAttempts: 1, SortBy: SortByBest},
	"2": {ID: "2", NumberOfAttempts: 2, SortBy: SortByBest},
	"3": {ID: "3", NumberOfAttempts: 3, SortBy: SortByBest},
	"5": {ID: "5", NumberOfAttempts: 5, SortBy: SortByBest},
	"m": {ID: "m", NumberOfAttempts: 3, SortBy: SortByAverage},
	"a": {ID: "a", NumberOfAttempts: 5, SortBy: SortByAverage},
}

// FormatByID resolves a registry format id such as "a" or "3".
func FormatByID(id string) (Format, error) {
	f, ok := formats[id]
	if !ok {
		return Format{}, fmt.Errorf("unknown format %q", id)
	}
	return f, nil
}

// RoundID identifies a round within a competition, e.g. "333-r1".
type RoundID struct {
	EventCode string
	Number    int
}

func (id RoundID) String() string {
	return fmt.Sprintf("%s-r%d", id.EventCode, id.Number)
}

// ParseRoundID parses the "<event>-r<number>" form.
func ParseRoundID(s string) (RoundID, error) {
	idx := strings.LastIndex(s, "-r")
	if idx <= 0 {
		return RoundID{}, fmt.Errorf("invalid round id %q", s)
	}
	number, err := strconv.Atoi(s[idx+2:])
	if err != nil || number < 1 {
		return RoundID{}, fmt.Errorf("invalid round number in %q", s)
	}
	return RoundID{EventCode: s[:idx], Number: number}, nil
}

func (id RoundID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *RoundID) UnmarshalText(text []byte) error {
	parsed, err := ParseRoundID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
