package services_test

import (
	"testing"

	"ajatus_server/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultModelCatalog(t *testing.T) {
	catalog := services.DefaultModelCatalog()
	require.NotEmpty(t, catalog.List())
	assert.Equal(t, services.DefaultModelID, catalog.Default().ID)
	assert.Equal(t, "available", catalog.Default().Status)
}

func TestLoadModelCatalog(t *testing.T) {
	catalog, err := services.LoadModelCatalog([]byte(`
models:
  - id: poro-34b
    name: Poro 34B
    status: loading
  - id: mistral-7b-instruct
    name: Mistral 7B Instruct
    status: available
`))
	require.NoError(t, err)
	assert.Len(t, catalog.List(), 2)
	assert.Equal(t, "poro-34b", catalog.Default().ID)

	_, err = services.LoadModelCatalog([]byte("models: []"))
	assert.Error(t, err)

	_, err = services.LoadModelCatalog([]byte("models: ["))
	assert.Error(t, err)
}
