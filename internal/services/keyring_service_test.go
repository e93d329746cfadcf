package services_test

import (
	"testing"

	"github.com/99designs/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sidepanel/internal/services"
)

func TestKeyringService_StoreGetDelete(t *testing.T) {
	svc := services.NewKeyringService(keyring.NewArrayKeyring(nil))

	require.NoError(t, svc.StoreApiKey("openai", []byte("sk-test")))
	key, err := svc.GetApiKey("openai")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", key)

	require.NoError(t, svc.DeleteApiKey("openai"))
	_, err = svc.GetApiKey("openai")
	assert.ErrorIs(t, err, services.ErrApiKeyNotFound)
}

func TestKeyringService_Validation(t *testing.T) {
	svc := services.NewKeyringService(keyring.NewArrayKeyring(nil))

	assert.EqualError(t, svc.StoreApiKey("openai", nil), "API key is empty")
	assert.EqualError(t, svc.StoreApiKey("", []byte("k")), "provider is required")
	_, err := svc.GetApiKey("")
	assert.EqualError(t, err, "provider is required")
	assert.EqualError(t, svc.DeleteApiKey(""), "provider is required")
}

func TestKeyringService_ListApiKeys(t *testing.T) {
	svc := services.NewKeyringService(keyring.NewArrayKeyring([]keyring.Item{
		{Key: "openai", Data: []byte("a")},
		{Key: "anthropic", Data: []byte("b")},
	}))

	list, err := svc.ListApiKeys()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "anthropic", list[0]["provider"])
	assert.Equal(t, "openai API key", list[1]["label"])
}

func TestKeyringService_BacksModelConfigStore(t *testing.T) {
	svc := services.NewKeyringService(keyring.NewArrayKeyring(nil))
	var vault services.SecretVault = svc

	_, err := vault.GetApiKey("anthropic")
	assert.ErrorIs(t, err, services.ErrApiKeyNotFound)
}
