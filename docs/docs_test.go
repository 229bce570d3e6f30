package docs_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"

	"marketplace/docs"
)

func TestSwaggerDocument_RendersValidJSON(t *testing.T) {
	raw, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc struct {
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	assert.Equal(t, "/v1", doc.BasePath)
	for _, path := range []string{"/registry", "/products", "/products/{id}/purchase", "/events", "/events/stream", "/accounts/me"} {
		assert.Contains(t, doc.Paths, path)
	}
}
