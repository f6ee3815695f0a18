package main

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/picsim/internal/config"
	"github.com/san-kum/picsim/internal/storage"
)

// newTestCommand registers --data on a root and --config on its child, as
// main does, and resets both to their defaults.
func newTestCommand(t *testing.T, cfgPath string) *cobra.Command {
	t.Helper()
	dataDir, configFile = config.DefaultDataDir, ""
	t.Cleanup(func() { dataDir, configFile = config.DefaultDataDir, "" })

	root := &cobra.Command{Use: "picsim"}
	root.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "")
	cmd := &cobra.Command{Use: "list"}
	addConfigFlag(cmd)
	root.AddCommand(cmd)
	if cfgPath != "" {
		if err := cmd.Flags().Set("config", cfgPath); err != nil {
			t.Fatal(err)
		}
	}
	return cmd
}

func TestRunsDir(t *testing.T) {
	fromConfig := config.DefaultConfig()
	fromConfig.Output.Dir = "from-config"
	empty := config.DefaultConfig()
	empty.Output.Dir = ""

	tests := []struct {
		name string
		data string
		cfg  *config.Config
		want string
	}{
		{"defaults", "", nil, config.DefaultDataDir},
		{"config output dir", "", fromConfig, "from-config"},
		{"empty output dir", "", empty, config.DefaultDataDir},
		{"explicit data wins", "from-flag", fromConfig, "from-flag"},
		{"explicit data without config", "from-flag", nil, "from-flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := newTestCommand(t, "")
			if tt.data != "" {
				if err := cmd.Root().PersistentFlags().Set("data", tt.data); err != nil {
					t.Fatal(err)
				}
			}
			if got := runsDir(cmd, tt.cfg); got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestOpenStoreFindsRunsWrittenWithConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Output.Dir = filepath.Join(dir, "runs")
	cfgPath := filepath.Join(dir, "picsim.yaml")
	if err := config.Save(cfgPath, cfg); err != nil {
		t.Fatal(err)
	}

	// what run writes for --config picsim.yaml
	writer := newTestCommand(t, cfgPath)
	loaded, err := loadConfig(writer)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Output.Dir != cfg.Output.Dir {
		t.Fatalf("expected run dir %s, got %s", cfg.Output.Dir, loaded.Output.Dir)
	}
	st := storage.New(loaded.Output.Dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	run, err := st.Create(loaded)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := run.Finish(nil, time.Millisecond); err != nil {
		t.Fatal(err)
	}

	// what list, plot and export-json read for the same flags
	reader := newTestCommand(t, cfgPath)
	got, err := openStore(reader)
	if err != nil {
		t.Fatal(err)
	}
	latest, err := got.Latest()
	if err != nil {
		t.Fatalf("run not visible to readers: %v", err)
	}
	if latest != run.ID {
		t.Errorf("expected %s, got %s", run.ID, latest)
	}

	if _, err := openStore(newTestCommand(t, filepath.Join(dir, "missing.yaml"))); err == nil {
		t.Error("expected an error for a missing config file")
	}
}
