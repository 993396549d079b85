package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/econcal/econ-calendars/internal/source"
)

func TestNew(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "public")

	store, err := New(dir)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if info, err := os.Stat(store.Dir()); err != nil || !info.IsDir() {
		t.Errorf("expected output directory to be created, stat err = %v", err)
	}

	if _, err := New(""); err == nil {
		t.Error("New(\"\") should fail")
	}
}

func TestNew_ExpandsHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := New("~/calendars")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if want := filepath.Join(home, "calendars"); store.Dir() != want {
		t.Errorf("Dir() = %q, want %q", store.Dir(), want)
	}
}

func TestSaveCalendar(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		src      source.Source
		data     string
		wantFile string
		wantErr  bool
	}{
		{
			name:     "named by id",
			src:      source.Source{ID: "macro", Name: "Macro Seminar"},
			data:     "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
			wantFile: "macro.ics",
		},
		{
			name:     "named by name",
			src:      source.Source{Name: "Micro Theory"},
			data:     "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n",
			wantFile: "Micro Theory.ics",
		},
		{
			name:     "overwrite existing",
			src:      source.Source{ID: "macro"},
			data:     "updated",
			wantFile: "macro.ics",
		},
		{
			name:    "no key",
			src:     source.Source{URL: "https://example.com"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := store.SaveCalendar(tt.src, []byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Fatalf("SaveCalendar() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}

			if filepath.Base(path) != tt.wantFile {
				t.Errorf("SaveCalendar() path = %q, want file %q", path, tt.wantFile)
			}

			got, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("reading saved calendar: %v", err)
			}
			if string(got) != tt.data {
				t.Errorf("saved data = %q, want %q", got, tt.data)
			}

			info, err := os.Stat(path)
			if err != nil {
				t.Fatal(err)
			}
			if info.Mode().Perm() != 0644 {
				t.Errorf("file mode = %v, want 0644", info.Mode().Perm())
			}
		})
	}

	entries, err := os.ReadDir(store.Dir())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temporary file left behind: %s", e.Name())
		}
	}
}

func TestSaveIndex(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	path, err := store.SaveIndex([]byte("<html></html>"))
	if err != nil {
		t.Fatalf("SaveIndex() error = %v", err)
	}
	if filepath.Base(path) != IndexFile {
		t.Errorf("SaveIndex() path = %q", path)
	}
}
