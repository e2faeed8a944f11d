package test

import (
	"encoding/json"
	"net/http"
	"testing"
)

type settingResp struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func TestSettings(t *testing.T) {
	env, err := NewTestEnv(t, "setting_test")
	if err != nil {
		t.Fatalf("initializing test env: %v", err)
	}

	values := func() map[string]string {
		var ss []settingResp
		env.do(t, http.MethodGet, "/settings", nil, http.StatusOK, &ss)

		m := make(map[string]string, len(ss))
		for _, s := range ss {
			m[s.Key] = string(s.Value)
		}
		return m
	}

	if got := values()["maintenance_mode"]; got != "false" {
		t.Fatalf("expected default maintenance_mode false, got %s", got)
	}

	body := func(v string) any { return map[string]json.RawMessage{"value": json.RawMessage(v)} }

	env.do(t, http.MethodPut, "/admin/settings/trial_days", body("14"), http.StatusUnauthorized, nil)

	defer env.asAdmin(t)()

	env.do(t, http.MethodPut, "/admin/settings/trial_days", body("14"), http.StatusOK, nil)
	env.do(t, http.MethodPut, "/admin/settings/maintenance_mode", body("true"), http.StatusOK, nil)
	env.do(t, http.MethodPut, "/admin/settings/trial_days", body(`"soon"`), http.StatusBadRequest, nil)
	env.do(t, http.MethodPut, "/admin/settings/colour", body(`"red"`), http.StatusNotFound, nil)

	got := values()
	if got["trial_days"] != "14" || got["maintenance_mode"] != "true" {
		t.Fatalf("unexpected settings: %v", got)
	}
}
