package logging

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesTimestampedAccountTaggedLines(t *testing.T) {
	var out bytes.Buffer

	logger, err := New(&out, "debug")
	require.NoError(t, err)

	ForAccount(logger, "alice").Info("tickets available: 6")

	line := out.String()
	assert.Contains(t, line, "account=alice")
	assert.Contains(t, line, "msg=tickets available: 6")
	assert.Regexp(t, `time=\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}`, line)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    logrus.Level
		wantErr bool
	}{
		{in: "", want: logrus.InfoLevel},
		{in: "warn", want: logrus.WarnLevel},
		{in: " DEBUG ", want: logrus.DebugLevel},
		{in: "loud", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if tt.wantErr {
			assert.ErrorContains(t, err, "parse log level")
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
