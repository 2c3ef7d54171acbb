package student

import (
	"fmt"
	"strconv"
	"strings"
)

// nextID returns the next free id "{year}-{code}-{seq:03d}" of course, looking at
// current students and graduates.
func nextID(year string, course Course, rosters ...[]Student) string {
	prefix := fmt.Sprintf("%s-%s-", year, course.Code())
	var max int
	for _, roster := range rosters {
		for _, s := range roster {
			rest := strings.TrimPrefix(strings.ToLower(s.ID), prefix)
			if rest == strings.ToLower(s.ID) {
				continue
			}
			if seq, err := strconv.Atoi(rest); err == nil && seq > max {
				max = seq
			}
		}
	}
	return fmt.Sprintf("%s%03d", prefix, max+1)
}
