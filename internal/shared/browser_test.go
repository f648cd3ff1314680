package shared

import (
	"errors"
	"testing"
)

func TestOpenURL(t *testing.T) {
	for _, target := range []string{"", "file:///etc/passwd", "javascript:alert(1)", "https://"} {
		t.Run(target, func(t *testing.T) {
			if err := OpenURL(target); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("OpenURL(%q) = %v, want ErrInvalidArgument", target, err)
			}
		})
	}

	t.Run("unsupported platform", func(t *testing.T) {
		orig := getRuntime
		getRuntime = func() string { return "plan9" }
		defer func() { getRuntime = orig }()

		if err := OpenURL("https://rr1.example.com/videoplayback?expire=1"); err == nil {
			t.Error("expected an error for an unsupported platform")
		}
	})
}

func TestOpenerCommand(t *testing.T) {
	tc := []struct {
		goos string
		want string
	}{
		{"darwin", "open"},
		{"linux", "xdg-open"},
		{"windows", "cmd"},
	}
	for _, tt := range tc {
		t.Run(tt.goos, func(t *testing.T) {
			cmd, err := openerCommand(tt.goos, "https://example.com")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cmd.Args[0])
			}
			if cmd.Args[len(cmd.Args)-1] != "https://example.com" {
				t.Errorf("expected url as last argument, got %v", cmd.Args)
			}
		})
	}
}
