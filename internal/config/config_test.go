package config

import (
	"testing"
)

func TestDefaults(t *testing.T) {
	// Clear the env overrides so the built-in values show through.
	for _, key := range []string{"DRISHTI_MODEL", "DRISHTI_IMGSZ", "DRISHTI_DEVICE", "DRISHTI_PROJECT", "DRISHTI_BACKEND"} {
		t.Setenv(key, "")
	}

	cfg := Defaults()

	if cfg.Source != "0" {
		t.Errorf("Source = %q, want %q", cfg.Source, "0")
	}
	if cfg.Model != "yolov8n.onnx" {
		t.Errorf("Model = %q, want %q", cfg.Model, "yolov8n.onnx")
	}
	if cfg.ImgSize != 640 {
		t.Errorf("ImgSize = %d, want 640", cfg.ImgSize)
	}
	if cfg.Conf != 0.25 {
		t.Errorf("Conf = %f, want 0.25", cfg.Conf)
	}
	if cfg.Project != "runs/detect" {
		t.Errorf("Project = %q, want %q", cfg.Project, "runs/detect")
	}
	if cfg.FPS != 25.0 {
		t.Errorf("FPS = %f, want 25.0", cfg.FPS)
	}
	if cfg.Backend != BackendAuto {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendAuto)
	}
}

func TestDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("DRISHTI_MODEL", "custom.onnx")
	t.Setenv("DRISHTI_IMGSZ", "320")
	t.Setenv("DRISHTI_PROJECT", "out/runs")
	t.Setenv("DRISHTI_BACKEND", "opencv")

	cfg := Defaults()

	if cfg.Model != "custom.onnx" {
		t.Errorf("Model = %q, want %q", cfg.Model, "custom.onnx")
	}
	if cfg.ImgSize != 320 {
		t.Errorf("ImgSize = %d, want 320", cfg.ImgSize)
	}
	if cfg.Project != "out/runs" {
		t.Errorf("Project = %q, want %q", cfg.Project, "out/runs")
	}
	if cfg.Backend != BackendOpenCV {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendOpenCV)
	}
}

func TestDefaults_BadEnvIntIgnored(t *testing.T) {
	t.Setenv("DRISHTI_IMGSZ", "not-a-number")

	cfg := Defaults()
	if cfg.ImgSize != 640 {
		t.Errorf("ImgSize = %d, want 640 when env value is unparseable", cfg.ImgSize)
	}
}

func TestRunConfig_Validate(t *testing.T) {
	valid := Defaults()

	tests := []struct {
		name    string
		mutate  func(*RunConfig)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(c *RunConfig) {},
			wantErr: false,
		},
		{
			name:    "conf zero is valid",
			mutate:  func(c *RunConfig) { c.Conf = 0.0 },
			wantErr: false,
		},
		{
			name:    "conf one is valid",
			mutate:  func(c *RunConfig) { c.Conf = 1.0 },
			wantErr: false,
		},
		{
			name:    "conf below zero",
			mutate:  func(c *RunConfig) { c.Conf = -0.1 },
			wantErr: true,
		},
		{
			name:    "conf above one",
			mutate:  func(c *RunConfig) { c.Conf = 1.5 },
			wantErr: true,
		},
		{
			name:    "zero image size",
			mutate:  func(c *RunConfig) { c.ImgSize = 0 },
			wantErr: true,
		},
		{
			name:    "zero fps",
			mutate:  func(c *RunConfig) { c.FPS = 0 },
			wantErr: true,
		},
		{
			name:    "negative fps",
			mutate:  func(c *RunConfig) { c.FPS = -25 },
			wantErr: true,
		},
		{
			name:    "delete-avi without reencode",
			mutate:  func(c *RunConfig) { c.DeleteAVI = true },
			wantErr: true,
		},
		{
			name: "delete-avi with reencode",
			mutate: func(c *RunConfig) {
				c.DeleteAVI = true
				c.ReencodeMP4 = true
			},
			wantErr: false,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *RunConfig) { c.Backend = "tensorrt" },
			wantErr: true,
		},
		{
			name:    "onnx backend",
			mutate:  func(c *RunConfig) { c.Backend = BackendONNX },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunConfig_SavingActive(t *testing.T) {
	tests := []struct {
		name   string
		save   bool
		direct bool
		want   bool
	}{
		{"neither", false, false, false},
		{"save only", true, false, true},
		{"direct only", false, true, true},
		{"both", true, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := RunConfig{Save: tt.save, SaveMP4Direct: tt.direct}
			if got := cfg.SavingActive(); got != tt.want {
				t.Errorf("SavingActive() = %v, want %v", got, tt.want)
			}
		})
	}
}
