package logger

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigure(t *testing.T) {
	var buf bytes.Buffer

	require.NoError(t, Configure("debug", &buf))
	assert.Equal(t, logrus.DebugLevel, GetProjectLogger().GetLevel())

	GetProjectLogger().WithField("step", 3).Debug("beat")
	assert.Contains(t, buf.String(), "step=3")

	require.Error(t, Configure("loud", nil))

	require.NoError(t, Configure("info", &buf))
	assert.Same(t, GetProjectLogger(), GetProjectLogger())
}
