package source

import (
	"testing"

	"github.com/emersion/go-imap"
	"github.com/stretchr/testify/assert"
)

func TestBuildSearchCriteria_UnseenAlwaysPresent(t *testing.T) {
	s := &EmailSource{}
	c := s.buildSearchCriteria()
	assert.Contains(t, c.WithoutFlags, imap.SeenFlag)
}

func TestBuildSearchCriteria_SenderAndSubjects(t *testing.T) {
	s := &EmailSource{Filter: EmailFilter{
		Sender:          "news@example.com",
		Subjects:        []string{"Daily digest"},
		ExcludeSubjects: []string{"spam"},
	}}
	c := s.buildSearchCriteria()
	assert.Equal(t, []string{"news@example.com"}, c.Header["From"])
	assert.Equal(t, []string{"Daily digest"}, c.Header["Subject"])
	assert.Len(t, c.Not, 1)
}
