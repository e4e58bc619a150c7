package domainlist_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/optimode/verifykit/internal/domainlist"
)

func TestIsDisposable(t *testing.T) {
	assert.True(t, domainlist.IsDisposable("mailinator.com"))
	assert.True(t, domainlist.IsDisposable("YOPMAIL.COM"))
	assert.False(t, domainlist.IsDisposable("acme.com"))
	assert.False(t, domainlist.IsDisposable("gmail.com"))
}

func TestIsFree(t *testing.T) {
	assert.True(t, domainlist.IsFree("gmail.com"))
	assert.True(t, domainlist.IsFree("Outlook.com"))
	assert.False(t, domainlist.IsFree("acme.com"))
}

func TestIsRole(t *testing.T) {
	assert.True(t, domainlist.IsRole("support"))
	assert.True(t, domainlist.IsRole("Postmaster"))
	assert.False(t, domainlist.IsRole("jane.doe"))
}

func TestSuggest(t *testing.T) {
	assert.Equal(t, "gmail.com", domainlist.Suggest("gmial.com"))
	assert.Equal(t, "", domainlist.Suggest("gmail.com"))
	assert.Equal(t, "", domainlist.Suggest("acme-corp.example"))
}
