package source

import "testing"

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		want string
	}{
		{"id wins over name", Source{ID: "micro", Name: "Micro Theory"}, "micro.ics"},
		{"name when id empty", Source{Name: "Micro Theory"}, "Micro Theory.ics"},
		{"blank id falls back", Source{ID: "  ", Name: "Macro"}, "Macro.ics"},
		{"separators replaced", Source{ID: "econ/macro"}, "econ-macro.ics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.src.FileName(); got != tt.want {
				t.Errorf("FileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHost(t *testing.T) {
	src := Source{URL: "https://economics.yale.edu/events?page=1"}
	if got := src.Host(); got != "economics.yale.edu" {
		t.Errorf("Host() = %q, want economics.yale.edu", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     Source
		wantErr bool
	}{
		{"valid", Source{ID: "macro", Name: "Macro", URL: "https://economics.yale.edu/events"}, false},
		{"no key", Source{URL: "https://economics.yale.edu/events"}, true},
		{"no url", Source{ID: "macro"}, true},
		{"bad scheme", Source{ID: "macro", URL: "ftp://economics.yale.edu/events"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
