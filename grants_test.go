package fulcrum_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fulcrum "github.com/fulcrumapi/go-fulcrum"
)

func TestGrantService_Create(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/grants", r.URL.Path)

			var body fulcrum.CreateGrantRequest
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "id-1", body.Identity)
			assert.Equal(t, "app-1", body.ToApp)

			writeJSON(t, w, &fulcrum.Grant{ID: "grant-1", Identity: "id-1", ToApp: "app-1"})
		})

		grant, err := client.Grants.Create(context.Background(), &fulcrum.CreateGrantRequest{
			Identity: "id-1",
			ToApp:    "app-1",
		})
		require.NoError(t, err)
		assert.Equal(t, "grant-1", grant.ID)
	})

	t.Run("requires identity and toApp", func(t *testing.T) {
		client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected")
		})

		_, err := client.Grants.Create(context.Background(), &fulcrum.CreateGrantRequest{
			Identity: "id-1",
		})

		var validationErr *fulcrum.ValidationError
		require.ErrorAs(t, err, &validationErr)
	})
}

func TestGrantService_Delete(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/grants/grant-1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	err := client.Grants.Delete(context.Background(), "grant-1")
	require.NoError(t, err)
}

func TestGrantService_List(t *testing.T) {
	client := setupTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/grants", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "id-1", q.Get("identity"))
		assert.Equal(t, "app-1", q.Get("to-app"))

		writeJSON(t, w, &fulcrum.GrantPage{
			Results: []*fulcrum.Grant{{ID: "grant-1"}},
		})
	})

	grants, err := fulcrum.Collect(client.Grants.List(context.Background(),
		&fulcrum.GrantFilter{Identity: "id-1", ToApp: "app-1"}))
	require.NoError(t, err)
	require.Len(t, grants, 1)
}
