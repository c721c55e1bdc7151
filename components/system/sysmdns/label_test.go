package sysmdns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnescapeLabel(t *testing.T) {
	for _, tc := range []struct {
		label    string
		expected string
	}{
		{"my-instance", "my-instance"},
		{`Test\ Server`, "Test Server"},
		{`Mark\'s\ Server`, "Mark's Server"},
		{`a\.b`, "a.b"},
		{`back\\slash`, `back\slash`},
		{`\065BC`, "ABC"},
		{`\999`, "999"},
		{`trailing\`, `trailing\`},
	} {
		require.Equal(t, tc.expected, unescapeLabel(tc.label), tc.label)
	}
}
