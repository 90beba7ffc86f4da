package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestSlotsCommand(t *testing.T) {
	out, err := run(t, "slots", "--at", "2025-03-12T23:45:00")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-03-13T02:00:00")
	assert.Contains(t, out, "Today at 9:00 PM ET")
}

func TestRebalanceCommand(t *testing.T) {
	out, err := run(t, "rebalance", "AML=33", "KYC=33", "Fraud=33")
	require.NoError(t, err)
	assert.Regexp(t, `AML\s+34`, out)
	assert.Regexp(t, `KYC\s+33`, out)

	_, err = run(t, "rebalance", "AML=0", "KYC=0")
	assert.Error(t, err)
}
