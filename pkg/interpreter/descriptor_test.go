package interpreter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParamCategories(t *testing.T) {
	got, err := ParamCategories("(IJFDLjava/lang/Object;[I)V")
	require.NoError(t, err)
	require.Equal(t, []byte{'I', 'J', 'F', 'D', 'A', 'A'}, got)
}

func TestReturnCategory(t *testing.T) {
	require.Equal(t, byte('V'), ReturnCategory("()V"))
	require.Equal(t, byte('I'), ReturnCategory("()I"))
	require.Equal(t, byte('J'), ReturnCategory("()J"))
	require.Equal(t, byte('F'), ReturnCategory("()F"))
	require.Equal(t, byte('D'), ReturnCategory("()D"))
	require.Equal(t, byte('A'), ReturnCategory("()Ljava/lang/Object;"))
	require.Equal(t, byte('A'), ReturnCategory("()[I"))
}
