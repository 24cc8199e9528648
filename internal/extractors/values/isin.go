package values

import "regexp"

var isinShape = regexp.MustCompile(`^[A-Z]{2}[A-Z0-9]{9}[0-9]$`)

// ValidISIN reports whether s is a well-formed ISIN with a correct check
// digit. Letters expand to two digits (A=10 .. Z=35) before the Luhn sum.
func ValidISIN(s string) bool {
	if !isinShape.MatchString(s) {
		return false
	}
	digits := make([]int, 0, 24)
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
			digits = append(digits, int(c-'0'))
		default:
			v := int(c-'A') + 10
			digits = append(digits, v/10, v%10)
		}
	}
	sum := 0
	for i := len(digits) - 1; i >= 0; i-- {
		d := digits[i]
		if (len(digits)-1-i)%2 == 1 {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
	}
	return sum%10 == 0
}
