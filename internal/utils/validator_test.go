// internal/utils/validator_test.go
package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSlugValidation(t *testing.T) {
	type form struct {
		Slug string `validate:"required,slug"`
	}

	// Case is accepted on input; the write paths lowercase slugs before
	// storing them.
	valid := []string{"tee", "Tee", "summer-tee", "a1-b2-c3"}
	for _, s := range valid {
		assert.NoError(t, ValidateStruct(&form{Slug: s}), s)
	}

	invalid := []string{"summer tee", "-tee", "tee-", "tee--shirt", "tee_shirt"}
	for _, s := range invalid {
		assert.Error(t, ValidateStruct(&form{Slug: s}), s)
	}
}

func TestDomainNameValidation(t *testing.T) {
	type form struct {
		Domain string `validate:"required,domainname"`
	}

	valid := []string{"acme.com", "shop.acme.com", "a-b.example.co"}
	for _, d := range valid {
		assert.NoError(t, ValidateStruct(&form{Domain: d}), d)
	}

	invalid := []string{"acme", "-acme.com", "acme-.com", "acme.c", "acme..com", "ACME.COM "}
	for _, d := range invalid {
		assert.Error(t, ValidateStruct(&form{Domain: d}), d)
	}
}
