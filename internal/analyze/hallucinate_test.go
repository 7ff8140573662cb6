package analyze

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/outreach-cli/internal/model"
)

func TestBundleLeaks(t *testing.T) {
	assert.False(t, BundleLeaks(nil))
	assert.False(t, BundleLeaks(&model.MessageBundle{
		Email:    model.EmailMessage{Subject: "Quick question", Body: "Hi Jane, saw your work at Acme."},
		LinkedIn: "Hi Jane!",
	}))
	assert.True(t, BundleLeaks(&model.MessageBundle{
		Email: model.EmailMessage{Body: "Hi Sarah, loved what CloudScale is doing."},
	}))
	// Case-insensitive, any channel.
	assert.True(t, BundleLeaks(&model.MessageBundle{SMS: "hey SARAH JONES"}))
	assert.True(t, BundleLeaks(&model.MessageBundle{WhatsApp: "Congrats on the Zeta Labs internship!"}))
}
