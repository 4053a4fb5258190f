package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/docsync/pkg/version"
)

func TestPrintVersion(t *testing.T) {
	tests := []struct {
		version   string
		expOutput string
	}{
		{
			version:   version.EmptyValue,
			expOutput: "docsync version: dev\nThis is a development build.\n",
		},
		{
			version:   "1.2.0",
			expOutput: "docsync version: 1.2.0\n",
		},
		{
			version: "1.3.0-rc1",
			expOutput: "docsync version: 1.3.0-rc1\n" +
				"This is a pre-release build of 1.3.0.\n",
		},
		{
			version: "v1.3.0-4-gabc1234",
			expOutput: "docsync version: v1.3.0-4-gabc1234\n" +
				"This is a pre-release build of 1.3.0.\n",
		},
		{
			version:   "abc1234",
			expOutput: "docsync version: abc1234\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.version, func(t *testing.T) {
			var out bytes.Buffer
			printVersion(&out, test.version)
			assert.Equal(t, test.expOutput, out.String())
		})
	}
}
