package student

import (
	"strings"

	"golang.org/x/text/width"
)

var dashes = strings.NewReplacer("-", "", "ー", "", "―", "", "−", "", " ", "")

// normalizePhone folds full-width digits and dashes then drops dashes and spaces,
// so "０９０－１２３４" matches "0901234".
func normalizePhone(s string) string {
	return strings.ToLower(dashes.Replace(width.Fold.String(s)))
}

// matches reports whether keyword is found in the name, kana or id of s,
// or in one of its phone numbers.
func (s Student) matches(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	for _, f := range []string{s.Name, s.Kana, s.ID} {
		if strings.Contains(strings.ToLower(f), kw) {
			return true
		}
	}
	phoneKw := normalizePhone(kw)
	if phoneKw == "" {
		return false
	}
	for _, f := range []string{s.Phone, s.Emergency1, s.Emergency2} {
		if strings.Contains(normalizePhone(f), phoneKw) {
			return true
		}
	}
	return false
}

func search(students []Student, keyword string) []Student {
	found := make([]Student, 0)
	for _, s := range students {
		if s.matches(keyword) {
			found = append(found, s)
		}
	}
	return found
}
