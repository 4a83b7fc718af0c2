// Attentia - Transformer Attention Visualization and Collaboration
// Copyright 2026 Nils K. (nilskoch)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nilskoch/attentia

package config

import (
	"fmt"
	"strings"
	"unicode"
)

// PasswordPolicy defines password strength requirements.
type PasswordPolicy struct {
	MinLength           int
	RequireUppercase    bool
	RequireLowercase    bool
	RequireDigit        bool
	RequireSpecial      bool
	MaxRepeatedChars    int
	RejectCommon        bool
	RejectUsernameMatch bool
}

// DefaultPasswordPolicy returns the policy applied to admin-created accounts.
func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:           12,
		RequireUppercase:    true,
		RequireLowercase:    true,
		RequireDigit:        true,
		RequireSpecial:      false,
		MaxRepeatedChars:    3,
		RejectCommon:        true,
		RejectUsernameMatch: true,
	}
}

// RelaxedPasswordPolicy returns the policy applied to self-service signups.
// Less strict than the default so casual users can register, while still
// rejecting trivially guessable passwords.
func RelaxedPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:           8,
		RequireUppercase:    false,
		RequireLowercase:    true,
		RequireDigit:        false,
		RequireSpecial:      false,
		MaxRepeatedChars:    4,
		RejectCommon:        true,
		RejectUsernameMatch: true,
	}
}

// PasswordValidationResult holds the outcome of a password validation.
type PasswordValidationResult struct {
	Valid    bool
	Errors   []string
	Strength PasswordStrength
}

// PasswordStrength indicates the estimated strength of a password.
type PasswordStrength int

const (
	// PasswordStrengthWeak indicates a weak password.
	PasswordStrengthWeak PasswordStrength = iota
	// PasswordStrengthFair indicates a fair password.
	PasswordStrengthFair
	// PasswordStrengthGood indicates a good password.
	PasswordStrengthGood
	// PasswordStrengthStrong indicates a strong password.
	PasswordStrengthStrong
)

// String returns a human-readable strength label.
func (s PasswordStrength) String() string {
	switch s {
	case PasswordStrengthWeak:
		return "weak"
	case PasswordStrengthFair:
		return "fair"
	case PasswordStrengthGood:
		return "good"
	case PasswordStrengthStrong:
		return "strong"
	default:
		return "unknown"
	}
}

type charClasses struct {
	hasUpper   bool
	hasLower   bool
	hasDigit   bool
	hasSpecial bool
	count      int
}

func analyzeCharClasses(password string) charClasses {
	var c charClasses
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			c.hasUpper = true
		case unicode.IsLower(r):
			c.hasLower = true
		case unicode.IsDigit(r):
			c.hasDigit = true
		default:
			c.hasSpecial = true
		}
	}
	if c.hasUpper {
		c.count++
	}
	if c.hasLower {
		c.count++
	}
	if c.hasDigit {
		c.count++
	}
	if c.hasSpecial {
		c.count++
	}
	return c
}

func maxConsecutiveRepeats(password string) int {
	if password == "" {
		return 0
	}
	maxRun := 1
	run := 1
	runes := []rune(password)
	for i := 1; i < len(runes); i++ {
		if runes[i] == runes[i-1] {
			run++
			if run > maxRun {
				maxRun = run
			}
		} else {
			run = 1
		}
	}
	return maxRun
}

// Validate checks a password against the policy and returns a detailed result.
// The username is used to reject passwords derived from the account name.
func (p PasswordPolicy) Validate(password, username string) PasswordValidationResult {
	result := PasswordValidationResult{Valid: true}

	if len(password) < p.MinLength {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("password must be at least %d characters", p.MinLength))
	}

	classes := analyzeCharClasses(password)
	result.Errors = append(result.Errors, p.validateCharClasses(classes)...)
	if len(result.Errors) > 0 {
		result.Valid = false
	}

	if p.MaxRepeatedChars > 0 && maxConsecutiveRepeats(password) > p.MaxRepeatedChars {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("password must not repeat a character more than %d times in a row", p.MaxRepeatedChars))
	}

	if p.RejectCommon && isCommonPassword(password) {
		result.Valid = false
		result.Errors = append(result.Errors, "password is too common")
	}

	if p.RejectUsernameMatch && username != "" && isSimilarToUsername(password, username) {
		result.Valid = false
		result.Errors = append(result.Errors, "password must not be derived from the username")
	}

	result.Strength = calculatePasswordStrength(password, classes)
	return result
}

func (p PasswordPolicy) validateCharClasses(classes charClasses) []string {
	var errs []string
	if p.RequireUppercase && !classes.hasUpper {
		errs = append(errs, "password must contain an uppercase letter")
	}
	if p.RequireLowercase && !classes.hasLower {
		errs = append(errs, "password must contain a lowercase letter")
	}
	if p.RequireDigit && !classes.hasDigit {
		errs = append(errs, "password must contain a digit")
	}
	if p.RequireSpecial && !classes.hasSpecial {
		errs = append(errs, "password must contain a special character")
	}
	return errs
}

// ValidateWithError is a convenience wrapper returning a single error
// combining all validation failures.
func (p PasswordPolicy) ValidateWithError(password, username string) error {
	result := p.Validate(password, username)
	if result.Valid {
		return nil
	}
	return fmt.Errorf("password validation failed: %s", strings.Join(result.Errors, "; "))
}

func calculatePasswordStrength(password string, classes charClasses) PasswordStrength {
	score := 0

	switch {
	case len(password) >= 16:
		score += 3
	case len(password) >= 12:
		score += 2
	case len(password) >= 8:
		score++
	}

	score += classes.count - 1

	if hasSequentialChars(password) {
		score--
	}
	if hasKeyboardPattern(password) {
		score--
	}
	if maxConsecutiveRepeats(password) > 2 {
		score--
	}

	switch {
	case score >= 5:
		return PasswordStrengthStrong
	case score >= 3:
		return PasswordStrengthGood
	case score >= 2:
		return PasswordStrengthFair
	default:
		return PasswordStrengthWeak
	}
}

// isCommonPassword checks against a small built-in list of frequently used
// passwords, including domain words an attacker would try first.
func isCommonPassword(password string) bool {
	common := map[string]bool{
		"password": true, "password1": true, "password123": true,
		"123456": true, "12345678": true, "123456789": true, "1234567890": true,
		"qwerty": true, "qwerty123": true, "qwertyuiop": true,
		"abc123": true, "abcd1234": true,
		"letmein": true, "welcome": true, "welcome1": true,
		"admin": true, "admin123": true, "administrator": true,
		"root": true, "toor": true, "changeme": true,
		"iloveyou": true, "monkey": true, "dragon": true,
		"sunshine": true, "princess": true, "football": true,
		"baseball": true, "master": true, "shadow": true,
		"superman": true, "batman": true, "trustno1": true,
		"111111": true, "000000": true, "654321": true,
		"access": true, "passw0rd": true, "p@ssword": true,
		"p@ssw0rd": true, "secret": true, "login": true,
		"starwars": true, "whatever": true, "freedom": true,
		"hello123": true, "charlie": true, "donald": true,
		"michael": true, "jordan": true, "buster": true,
		"pepper": true, "ginger": true, "summer": true,
		"ashley": true, "bailey": true, "qazwsx": true,
		"zaq12wsx": true, "1qaz2wsx": true, "asdfgh": true,
		"asdfghjkl": true, "zxcvbnm": true,
		// Domain words users of this service reach for
		"attentia": true, "attentia123": true,
		"attention": true, "attention123": true,
		"transformer": true, "transformers": true,
		"bertviz": true, "huggingface": true,
		"gemma": true, "gemma2b": true,
		"gpt2": true, "llama": true, "llama123": true,
		"visualize": true, "visualization": true,
	}
	return common[strings.ToLower(password)]
}

// isSimilarToUsername rejects passwords containing the username, its
// reverse, or a simple leetspeak substitution of it.
func isSimilarToUsername(password, username string) bool {
	if len(username) < 3 {
		return false
	}

	lowerPass := strings.ToLower(password)
	lowerUser := strings.ToLower(username)

	if strings.Contains(lowerPass, lowerUser) {
		return true
	}
	if strings.Contains(lowerPass, reverseString(lowerUser)) {
		return true
	}

	leet := strings.NewReplacer(
		"a", "4", "e", "3", "i", "1",
		"o", "0", "s", "5", "t", "7",
	)
	if strings.Contains(lowerPass, leet.Replace(lowerUser)) {
		return true
	}

	return false
}

func hasSequentialChars(password string) bool {
	lower := strings.ToLower(password)
	runs := 1
	for i := 1; i < len(lower); i++ {
		if lower[i] == lower[i-1]+1 {
			runs++
			if runs >= 4 {
				return true
			}
		} else {
			runs = 1
		}
	}
	return false
}

func hasKeyboardPattern(password string) bool {
	lower := strings.ToLower(password)
	patterns := []string{
		"qwerty", "asdf", "zxcv", "qazwsx",
		"1qaz", "wsx", "edc", "poiuy",
	}
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func reverseString(s string) string {
	runes := []rune(s)
	for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
		runes[i], runes[j] = runes[j], runes[i]
	}
	return string(runes)
}
