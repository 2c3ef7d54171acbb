package user

import (
	"bufio"
	_ "embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/gakuseki/gakuseki/core"
)

var (
	allRolesTag  = "allroles"
	allRolesText = "invalid roles"

	usernameOrEmailTag  = "username_or_email"
	usernameOrEmailText = "one of username or email is required"

	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	//go:embed common-passwords.txt
	commonPasswordsTxt string
	commonPasswords    = loadCommonPasswords(commonPasswordsTxt)
)

// InitValidators registers the validations of user requests.
// core.InitValidators must have been called on validate first.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(allRolesTag, allRolesValidation)
	core.RegisterCustomTranslation(validate, translator, allRolesTag, allRolesText)

	validate.RegisterStructValidation(userStructValidation, NewUser{}, UpdateUser{})
	core.RegisterCustomTranslation(validate, translator, usernameOrEmailTag, usernameOrEmailText)
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords(txt string) []string {
	pwds := make([]string, 0, 64)
	scanner := bufio.NewScanner(strings.NewReader(txt))
	for scanner.Scan() {
		if pwd := strings.ToLower(strings.TrimSpace(scanner.Text())); pwd != "" {
			pwds = append(pwds, pwd)
		}
	}
	sort.Strings(pwds)
	return pwds
}

func isCommonPassword(pwd string) bool {
	lpwd := strings.ToLower(pwd)
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}

// allRolesValidation checks that provided user roles are all in AllRoles
func allRolesValidation(fl validator.FieldLevel) bool {
	roles, ok := fl.Field().Interface().([]string)
	if !ok {
		return false
	}
	for _, role := range roles {
		if RolePriority(role) == 0 {
			return false
		}
	}
	return true
}

// userStructValidation does struct level validation on NewUser and UpdateUser structs.
func userStructValidation(sl validator.StructLevel) {
	switch usr := sl.Current().Interface().(type) {
	case NewUser:
		if usr.Username == "" && usr.Email == "" {
			sl.ReportError(usr.Username, "username", "Username", usernameOrEmailTag, "")
			sl.ReportError(usr.Email, "email", "Email", usernameOrEmailTag, "")
		}
		validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
	case UpdateUser:
		if usr.Password != "" {
			validatePassword(usr.Password, usr.Name, usr.Username, usr.Email, sl)
		}
	}
}

// validatePassword applies the password policy, reporting the first broken rule:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
// - no common password
func validatePassword(pwd, name, uname, email string, sl validator.StructLevel) {
	if tag := passwordPolicy(pwd, name, uname, email); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// passwordPolicy returns the tag of the first rule pwd breaks, if any.
func passwordPolicy(pwd string, attrs ...string) string {
	runes := []rune(pwd)
	if len(runes) < pwdMinLen {
		return pwdMinLenTag
	}

	var (
		digitCount         int
		hasUpper, hasLower bool
	)
	for _, char := range runes {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		hasUpper = hasUpper || unicode.IsUpper(char)
		hasLower = hasLower || unicode.IsLower(char)
	}
	if digitCount == len(runes) {
		return pwdNotAllNumTag
	}
	if !(hasUpper && hasLower && digitCount > 0 && specialRegex.MatchString(pwd)) {
		return pwdComplexityTag
	}

	lpwd := strings.ToLower(pwd)
	for _, attr := range attrs {
		if attr == "" {
			continue
		}
		ratio := difflib.NewMatcher(strings.Split(lpwd, ""), strings.Split(strings.ToLower(attr), "")).QuickRatio()
		if ratio >= pwdMaxSim {
			return pwdAttrSimTag
		}
	}

	if isCommonPassword(pwd) {
		return pwdNoCommonTag
	}
	return ""
}

var pwdPolicyTexts = map[string]string{
	pwdMinLenTag:     pwdMinLenText,
	pwdNoSpaceTag:    pwdNoSpaceText,
	pwdNotAllNumTag:  pwdNotAllNumText,
	pwdComplexityTag: pwdComplexityText,
	pwdAttrSimTag:    pwdAttrSimText,
	pwdNoCommonTag:   pwdNoCommonText,
}

// CheckPasswordPolicy returns an error describing the first password rule pwd breaks.
// attrs are the user attributes pwd must not look like.
func CheckPasswordPolicy(pwd string, attrs ...string) error {
	if tag := passwordPolicy(pwd, attrs...); tag != "" {
		return errors.New(pwdPolicyTexts[tag])
	}
	return nil
}
