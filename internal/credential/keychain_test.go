package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"menubar/internal/credential"
)

func TestKeychainPassword(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, keyring.Set("swiftbar_coffee-tracker", "tester", "s3cret"))

	k := credential.Keychain{Service: "swiftbar_coffee-tracker", Account: "tester"}
	pw, err := k.Password()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", pw)

	tok, err := k.Source().Token()
	require.NoError(t, err)
	assert.Equal(t, "s3cret", tok.AccessToken)
}

func TestKeychainMissing(t *testing.T) {
	keyring.MockInit()

	k := credential.Keychain{Service: "nothing-here", Account: "tester"}
	_, err := k.Password()
	assert.ErrorIs(t, err, credential.ErrNotFound)

	_, err = k.Token()
	assert.ErrorIs(t, err, credential.ErrNotFound)
}
