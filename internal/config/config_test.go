package config

import "testing"

func TestEnvInt(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		def      int
		expected int
	}{
		{"unset uses default", "", 25, 25},
		{"valid value", "10", 25, 10},
		{"invalid value uses default", "abc", 25, 25},
		{"zero uses default", "0", 25, 25},
		{"negative uses default", "-3", 25, 25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.value != "" {
				t.Setenv("TEST_ENV_INT", tc.value)
			}
			if got := envInt("TEST_ENV_INT", tc.def); got != tc.expected {
				t.Errorf("envInt(%q, %d) = %d; want %d", tc.value, tc.def, got, tc.expected)
			}
		})
	}
}

func TestEnvBool(t *testing.T) {
	t.Setenv("TEST_ENV_BOOL", "false")
	if envBool("TEST_ENV_BOOL", true) {
		t.Error("expected false for explicit false")
	}
	if !envBool("TEST_ENV_BOOL_UNSET", true) {
		t.Error("expected default true for unset variable")
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Embedding.VisualDim != 1024 {
		t.Errorf("VisualDim = %d; want 1024", cfg.Embedding.VisualDim)
	}
	if cfg.Embedding.SemanticDim != 768 {
		t.Errorf("SemanticDim = %d; want 768", cfg.Embedding.SemanticDim)
	}
	if cfg.Embedding.CompositeDim() != 1792 {
		t.Errorf("CompositeDim() = %d; want 1792", cfg.Embedding.CompositeDim())
	}
	if cfg.Album.FaceMatchThreshold != 0.5 {
		t.Errorf("FaceMatchThreshold = %f; want 0.5", cfg.Album.FaceMatchThreshold)
	}
	if cfg.Prompts.Describe.System == "" {
		t.Error("embedded describe system prompt should not be empty")
	}
}
