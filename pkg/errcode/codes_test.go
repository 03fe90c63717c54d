package errcode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCodeError(t *testing.T) {
	require.Equal(t, "(-11) JSON parsing failed", JSONParseFailed.Error())
	require.Equal(t, "(4) booting", Booting.Error())
	require.Equal(t, "(99) unknown code", Code(99).Error())
}

func TestCodeIsError(t *testing.T) {
	require.False(t, OK.IsError())
	require.False(t, Booting.IsError())
	require.True(t, ValueOutOfRange.IsError())
	require.True(t, SonarParamInvalid.IsError())
}

func TestTextsCoverEveryCode(t *testing.T) {
	for c := SonarParamInvalid; c <= Booting; c++ {
		require.Contains(t, texts, c, "code %d has no text", int(c))
	}
}
