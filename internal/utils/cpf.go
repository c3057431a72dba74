package utils

import "strings"

// OnlyDigits strips every non-digit rune.
func OnlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ValidCPF checks length, repeated digits and both verifier digits of a CPF.
// The input may carry the usual punctuation.
func ValidCPF(cpf string) (bool, string) {
	d := OnlyDigits(cpf)
	if len(d) != 11 {
		return false, "CPF deve conter 11 dígitos"
	}
	if strings.Count(d, d[:1]) == 11 {
		return false, "CPF inválido"
	}
	if checkDigit(d[:9], 10) != int(d[9]-'0') {
		return false, "CPF inválido"
	}
	if checkDigit(d[:10], 11) != int(d[10]-'0') {
		return false, "CPF inválido"
	}
	return true, "CPF válido"
}

func checkDigit(digits string, weight int) int {
	sum := 0
	for i, r := range digits {
		sum += int(r-'0') * (weight - i)
	}
	rest := sum % 11
	if rest < 2 {
		return 0
	}
	return 11 - rest
}
