package config

import (
	"errors"
	"strings"
	"testing"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	loader := Loader{Lookup: envLookup(map[string]string{
		"WHISPERD_USE_STUB_ENGINE": "true",
	})}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != DefaultListenAddr {
		t.Errorf("listen addr: got %q, want %q", cfg.ListenAddr, DefaultListenAddr)
	}
	if cfg.Language != DefaultLanguage {
		t.Errorf("language: got %q, want %q", cfg.Language, DefaultLanguage)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log level: got %q, want %q", cfg.LogLevel, DefaultLogLevel)
	}
	if !cfg.UseStubEngine {
		t.Error("stub engine flag not applied")
	}
}

func TestLoad_ModelPathRequired(t *testing.T) {
	loader := Loader{Lookup: envLookup(nil)}

	if _, err := loader.Load(); err == nil {
		t.Fatal("expected error when model path is missing and stub engine is off")
	}
}

func TestLoad_ConfigFile(t *testing.T) {
	const doc = `
listen_addr: "0.0.0.0:9000"
model_path: /models/ggml-base.bin
language: pl
threads: 8
beam_size: 5
temperature: 0.2
`
	loader := Loader{
		Lookup: envLookup(map[string]string{
			"WHISPERD_CONFIG_FILE": "/etc/whisperd.yaml",
		}),
		ReadFile: func(path string) ([]byte, error) {
			if path != "/etc/whisperd.yaml" {
				t.Fatalf("unexpected read of %s", path)
			}
			return []byte(doc), nil
		},
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != "0.0.0.0:9000" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.ModelPath != "/models/ggml-base.bin" {
		t.Errorf("model path: got %q", cfg.ModelPath)
	}
	if cfg.Language != "pl" {
		t.Errorf("language: got %q", cfg.Language)
	}
	if cfg.Threads == nil || *cfg.Threads != 8 {
		t.Errorf("threads: got %v", cfg.Threads)
	}
	if cfg.BeamSize == nil || *cfg.BeamSize != 5 {
		t.Errorf("beam size: got %v", cfg.BeamSize)
	}
	if cfg.Temperature == nil || *cfg.Temperature != 0.2 {
		t.Errorf("temperature: got %v", cfg.Temperature)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	loader := Loader{
		Lookup: envLookup(map[string]string{
			"WHISPERD_CONFIG_FILE": "/etc/whisperd.yaml",
			"WHISPERD_LISTEN_ADDR": "127.0.0.1:7001",
			"WHISPERD_LANGUAGE":    "de",
			"WHISPERD_THREADS":     "2",
		}),
		ReadFile: func(string) ([]byte, error) {
			return []byte("listen_addr: 0.0.0.0:9000\nmodel_path: /models/x.bin\nlanguage: pl\n"), nil
		},
	}

	cfg, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ListenAddr != "127.0.0.1:7001" {
		t.Errorf("listen addr: got %q", cfg.ListenAddr)
	}
	if cfg.Language != "de" {
		t.Errorf("language: got %q", cfg.Language)
	}
	if cfg.Threads == nil || *cfg.Threads != 2 {
		t.Errorf("threads: got %v", cfg.Threads)
	}
}

func TestLoad_FileReadError(t *testing.T) {
	readErr := errors.New("no such file")
	loader := Loader{
		Lookup: envLookup(map[string]string{
			"WHISPERD_CONFIG_FILE": "/etc/whisperd.yaml",
		}),
		ReadFile: func(string) ([]byte, error) { return nil, readErr },
	}

	if _, err := loader.Load(); !errors.Is(err, readErr) {
		t.Fatalf("got %v, want wrapped read error", err)
	}
}

func TestLoad_ParseErrors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad bool": {
			"WHISPERD_USE_STUB_ENGINE": "maybe",
		},
		"bad int": {
			"WHISPERD_USE_STUB_ENGINE": "true",
			"WHISPERD_THREADS":         "many",
		},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (Loader{Lookup: envLookup(env)}).Load(); err == nil {
				t.Fatal("expected parse error")
			} else if !strings.Contains(err.Error(), "config: parse") {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidate_Ranges(t *testing.T) {
	neg := -1
	zeroBeam := 0
	badTemp := -0.5

	cases := []struct {
		name string
		cfg  Config
	}{
		{"negative threads", Config{ListenAddr: "x", UseStubEngine: true, Threads: &neg}},
		{"zero beam size", Config{ListenAddr: "x", UseStubEngine: true, BeamSize: &zeroBeam}},
		{"negative temperature", Config{ListenAddr: "x", UseStubEngine: true, Temperature: &badTemp}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
