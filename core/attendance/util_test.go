package attendance

import "fmt"

// dateOf renders a date of the school year starting in sy; months above 12 wrap to the next year.
func dateOf(sy, month, day int) string {
	year := sy
	if month > 12 {
		month -= 12
		year++
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
