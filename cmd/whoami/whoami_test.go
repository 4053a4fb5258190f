package whoami

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sidkik/docsync/pkg/session"
)

func TestPrintStatus(t *testing.T) {
	tests := []struct {
		name      string
		bundle    session.Bundle
		ok        bool
		expOutput string
	}{
		{
			name:      "NotLoggedIn",
			expOutput: "Not logged in.\n",
		},
		{
			name:   "LoggedIn",
			bundle: session.Bundle{Account: "ada@example.com", ExpiresAt: 1709294400},
			ok:     true,
			expOutput: "Logged in as ada@example.com.\n" +
				"The session expires on Fri, 01 Mar 2024 12:00:00 UTC.\n",
		},
		{
			name:   "UnknownAccount",
			bundle: session.Bundle{ExpiresAt: 1709294400},
			ok:     true,
			expOutput: "Logged in as an unknown account.\n" +
				"The session expires on Fri, 01 Mar 2024 12:00:00 UTC.\n",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			printStatus(&out, test.bundle, test.ok, time.UTC)
			assert.Equal(t, test.expOutput, out.String())
		})
	}
}
