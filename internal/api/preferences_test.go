package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rnkp755/chefcognito/internal/models"
)

func TestGetPreferencesDefaults(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	w := env.request(t, http.MethodGet, "/api/v1/preferences", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var prefs models.Preferences
	decodeBody(t, w, &prefs)
	assert.Equal(t, "u1", prefs.UserID)
	assert.Equal(t, "beginner", prefs.SkillLevel)
}

func TestUpdatePreferencesRoundTrip(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	in := models.Preferences{
		DietaryRestrictions: models.StringArray{"vegan"},
		Allergies:           models.StringArray{"soy"},
		SkillLevel:          "advanced",
	}
	w := env.request(t, http.MethodPut, "/api/v1/preferences", in, token)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.request(t, http.MethodGet, "/api/v1/preferences", nil, token)
	require.Equal(t, http.StatusOK, w.Code)

	var out models.Preferences
	decodeBody(t, w, &out)
	assert.Equal(t, "u1", out.UserID)
	assert.Equal(t, models.StringArray{"vegan"}, out.DietaryRestrictions)
	assert.Equal(t, models.StringArray{"soy"}, out.Allergies)
	assert.Equal(t, "advanced", out.SkillLevel)
}

func TestPreferencesIgnoreBodyUserID(t *testing.T) {
	env := newTestEnv(t, &stubModel{replies: []string{"hi"}})
	token := env.token(t, "u1")

	in := models.Preferences{UserID: "someone-else", SkillLevel: "advanced"}
	w := env.request(t, http.MethodPut, "/api/v1/preferences", in, token)
	require.Equal(t, http.StatusOK, w.Code)

	var out models.Preferences
	decodeBody(t, w, &out)
	assert.Equal(t, "u1", out.UserID)
}
