package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProfileRecordNormalize(t *testing.T) {
	r := ProfileRecord{Name: "Jane Doe"}
	r.Normalize()

	assert.Equal(t, "Jane Doe", r.Name)
	assert.Equal(t, Unknown, r.Company)
	assert.Equal(t, Unknown, r.Role)
	assert.Equal(t, Unknown, r.Industry)
	assert.Equal(t, Unknown, r.Seniority)
	assert.NotNil(t, r.Education)
	assert.NotNil(t, r.KeyInsights)
	assert.NotNil(t, r.PsychologicalProfile.PainPoints)
	assert.NotNil(t, r.PsychologicalProfile.Goals)
	assert.Empty(t, r.Education)
}

func TestMessageBundleEmpty(t *testing.T) {
	var nilBundle *MessageBundle
	assert.True(t, nilBundle.Empty())
	assert.True(t, (&MessageBundle{}).Empty())
	assert.False(t, (&MessageBundle{LinkedIn: "hi"}).Empty())
	assert.False(t, (&MessageBundle{Email: EmailMessage{Body: "hi"}}).Empty())
	assert.True(t, (&MessageBundle{Email: EmailMessage{Subject: "only subject"}}).Empty())
}

func TestBatchItemResultRetryable(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{BatchStatusSuccess, false},
		{BatchStatusPartial, true},
		{BatchStatusFailedScrape, true},
		{BatchStatusErrorPrefix + "timeout", true},
		{"", false},
	}
	for _, tc := range cases {
		r := BatchItemResult{Status: tc.status}
		assert.Equal(t, tc.want, r.Retryable(), tc.status)
	}
}
