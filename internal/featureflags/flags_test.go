package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled(t *testing.T) {
	assert.False(t, Enabled("unset_flag"))

	t.Setenv("FLAG_TEST_FEATURE", "true")
	assert.True(t, Enabled("test_feature"))

	t.Setenv("FLAG_TEST_FEATURE", "off")
	assert.False(t, Enabled("test_feature"))
}

func TestEnabledDefault(t *testing.T) {
	assert.True(t, EnabledDefault("unset_flag", true))
	assert.False(t, EnabledDefault("unset_flag", false))

	t.Setenv("FLAG_SWEEP", "0")
	assert.False(t, EnabledDefault("sweep", true))

	t.Setenv("FLAG_SWEEP", "garbage")
	assert.True(t, EnabledDefault("sweep", true), "unparseable values fall back to the default")
}
