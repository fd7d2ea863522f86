package testutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// recordingT captures Errorf calls instead of failing the test.
type recordingT struct {
	messages []string
}

func (r *recordingT) Errorf(format string, args ...interface{}) {
	r.messages = append(r.messages, format)
}

func newRecordedAsserter(opts ...TextOption) (*TextAsserter, *recordingT) {
	rec := &recordingT{}
	options := TextAssertOptions{IgnoreTrailingWhitespace: true}
	for _, opt := range opts {
		opt(&options)
	}
	return &TextAsserter{t: rec, options: options}, rec
}

func TestAssertEqualText(t *testing.T) {
	ta, rec := newRecordedAsserter()
	ta.Assert("a\nb\n", "a\nb\n")
	require.Empty(t, rec.messages)
}

func TestAssertReportsDiff(t *testing.T) {
	ta, rec := newRecordedAsserter()
	ta.Assert("a\nb\n", "a\nc\n")
	require.Len(t, rec.messages, 1)
	require.True(t, strings.Contains(rec.messages[0], "unified diff"))
}

func TestAssertIgnoresTrailingWhitespace(t *testing.T) {
	ta, rec := newRecordedAsserter()
	ta.Assert("a  \nb\t\n", "a\nb\n")
	require.Empty(t, rec.messages)
}

func TestAssertIgnoresEmptyLines(t *testing.T) {
	ta, rec := newRecordedAsserter(WithIgnoreEmptyLines(true))
	ta.Assert("a\n\n\nb", "a\nb")
	require.Empty(t, rec.messages)
}

func TestAssertTrimSpace(t *testing.T) {
	ta, rec := newRecordedAsserter(WithTrimSpace(true))
	ta.Assert("\n  a\nb  \n", "a\nb")
	require.Empty(t, rec.messages)
}

func TestNewTextAsserterDefaults(t *testing.T) {
	ta := NewTextAsserter(t)
	require.True(t, ta.options.IgnoreTrailingWhitespace)
	require.False(t, ta.options.IgnoreEmptyLines)
	require.False(t, ta.options.TrimSpace)
}
