package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValidEmail(t *testing.T) {
	require.True(t, IsValidEmail("user@example.com"))
	require.True(t, IsValidEmail("first.last+tag@sub.example.com"))
	require.False(t, IsValidEmail(""))
	require.False(t, IsValidEmail("not-an-email"))
	require.False(t, IsValidEmail("@example.com"))
}

func TestIsTaiwanMobile(t *testing.T) {
	require.True(t, IsTaiwanMobile("0912345678"))
	require.False(t, IsTaiwanMobile("912345678"))
	require.False(t, IsTaiwanMobile("09123456789"))
	require.False(t, IsTaiwanMobile("0812345678"))
	require.False(t, IsTaiwanMobile("09123A5678"))
}

func TestCoalesce(t *testing.T) {
	require.Equal(t, "a", Coalesce("", " ", "a", "b"))
	require.Equal(t, "", Coalesce("", "  "))
	require.Equal(t, "x", DefaultIfEmpty("", "x"))
	require.Equal(t, "y", DefaultIfEmpty("y", "x"))
}
