package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"JOB_FILE", "LOG_LEVEL", "LOG_FILE", "WORKER_COUNT"} {
		t.Setenv(key, "")
	}

	config := Load()

	if config.JobFile != "./job.yaml" {
		t.Errorf("Load() JobFile = %v, want %v", config.JobFile, "./job.yaml")
	}

	if config.LogLevel != "info" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "info")
	}

	if config.LogFile != "" {
		t.Errorf("Load() LogFile = %v, want empty", config.LogFile)
	}

	if config.WorkerCount != 0 {
		t.Errorf("Load() WorkerCount = %v, want %v", config.WorkerCount, 0)
	}
}

func TestLoadWithEnvironmentVariables(t *testing.T) {
	t.Setenv("JOB_FILE", "/etc/jobs/exposure.yaml")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FILE", "/var/log/datajoin.log")
	t.Setenv("WORKER_COUNT", "8")

	config := Load()

	if config.JobFile != "/etc/jobs/exposure.yaml" {
		t.Errorf("Load() JobFile = %v, want %v", config.JobFile, "/etc/jobs/exposure.yaml")
	}

	if config.LogLevel != "debug" {
		t.Errorf("Load() LogLevel = %v, want %v", config.LogLevel, "debug")
	}

	if config.LogFile != "/var/log/datajoin.log" {
		t.Errorf("Load() LogFile = %v, want %v", config.LogFile, "/var/log/datajoin.log")
	}

	if config.WorkerCount != 8 {
		t.Errorf("Load() WorkerCount = %v, want %v", config.WorkerCount, 8)
	}
}

func TestLoadInvalidWorkerCount(t *testing.T) {
	t.Setenv("WORKER_COUNT", "not-a-number")

	config := Load()

	if config.WorkerCount != 0 {
		t.Errorf("Load() WorkerCount = %v, want default %v", config.WorkerCount, 0)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *Config
		wantErr bool
	}{
		{
			name:    "valid defaults",
			config:  &Config{JobFile: "./job.yaml", LogLevel: "info"},
			wantErr: false,
		},
		{
			name:    "uppercase level",
			config:  &Config{JobFile: "./job.yaml", LogLevel: "DEBUG"},
			wantErr: false,
		},
		{
			name:    "empty job file",
			config:  &Config{JobFile: "", LogLevel: "info"},
			wantErr: true,
		},
		{
			name:    "bad log level",
			config:  &Config{JobFile: "./job.yaml", LogLevel: "verbose"},
			wantErr: true,
		},
		{
			name:    "negative worker count",
			config:  &Config{JobFile: "./job.yaml", LogLevel: "info", WorkerCount: -1},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
