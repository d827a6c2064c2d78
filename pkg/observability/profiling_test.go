package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stream-service/pkg/config"
)

func TestStartProfilingDisabled(t *testing.T) {
	assert.Nil(t, StartProfiling("stream-service", config.ProfilingConfig{}))
	assert.Nil(t, StartProfiling("stream-service", config.ProfilingConfig{Enabled: true}))
}
