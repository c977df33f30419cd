package tools

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDownloadURL(t *testing.T) {
	r := DefaultReleases()
	base := "https://github.com/tailwindlabs/tailwindcss/releases"
	cases := []struct {
		spec         string
		osID, archID string
		want         string
	}{
		{"latest", "linux", "x64", base + "/latest/download/tailwindcss-linux-x64"},
		{"4", "macos", "arm64", base + "/latest/download/tailwindcss-macos-arm64"},
		{"3", "linux", "arm64", base + "/download/v3.4.17/tailwindcss-linux-arm64"},
		{"3.4.1", "windows", "x64", base + "/download/v3.4.1/tailwindcss-windows-x64.exe"},
		{"v4.1", "linux", "x64", base + "/download/v4.1/tailwindcss-linux-x64"},
	}
	for _, tc := range cases {
		got := r.DownloadURL(MustParseVersion(tc.spec), tc.osID, tc.archID)
		if got != tc.want {
			t.Errorf("DownloadURL(%s, %s, %s) = %q, want %q", tc.spec, tc.osID, tc.archID, got, tc.want)
		}
	}
}

func TestReleasesOverrides(t *testing.T) {
	r := DefaultReleases().WithOverrides("https://mirror.example/releases/", map[int]string{3: "v3.4.3", 5: "v5.0.0"}, map[int]string{3: "https://cdn.example/v3.js"})

	got := r.DownloadURL(MustParseVersion("3"), "linux", "x64")
	if want := "https://mirror.example/releases/download/v3.4.3/tailwindcss-linux-x64"; got != want {
		t.Fatalf("override url = %q, want %q", got, want)
	}
	if got := r.DownloadURL(MustParseVersion("5"), "linux", "x64"); got != "https://mirror.example/releases/download/v5.0.0/tailwindcss-linux-x64" {
		t.Fatalf("new major line url = %q", got)
	}
	if got := r.CDNURL(MustParseVersion("3.4")); got != "https://cdn.example/v3.js" {
		t.Fatalf("CDNURL(3.4) = %q", got)
	}
	if got := r.CDNURL(Latest()); got != "https://cdn.jsdelivr.net/npm/@tailwindcss/browser@4" {
		t.Fatalf("CDNURL(latest) = %q", got)
	}
	if DefaultReleases().MajorLines[3] != "v3.4.17" {
		t.Fatal("WithOverrides must not mutate the defaults")
	}
}

func TestPlatformIdentifier(t *testing.T) {
	cases := []struct {
		goos, goarch string
		osID, archID string
	}{
		{"linux", "amd64", "linux", "x64"},
		{"darwin", "arm64", "macos", "arm64"},
		{"windows", "386", "windows", "x86"},
	}
	for _, tc := range cases {
		osID, archID, err := PlatformIdentifier(tc.goos, tc.goarch)
		if err != nil {
			t.Fatalf("PlatformIdentifier(%s, %s): %v", tc.goos, tc.goarch, err)
		}
		if osID != tc.osID || archID != tc.archID {
			t.Fatalf("PlatformIdentifier(%s, %s) = %s, %s", tc.goos, tc.goarch, osID, archID)
		}
	}

	for _, bad := range [][2]string{{"freebsd", "amd64"}, {"linux", "riscv64"}} {
		if _, _, err := PlatformIdentifier(bad[0], bad[1]); !errors.Is(err, ErrUnsupportedPlatform) {
			t.Fatalf("PlatformIdentifier(%s, %s) error = %v", bad[0], bad[1], err)
		}
	}
}

func TestCommandLineArgs(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "tailwind.config.js")

	cl := CommandLine{Input: "in.css", Output: "out.css", Config: cfg, Watch: true, Minify: true, Extra: "  --poll   --optimize "}
	want := []string{"-i", "in.css", "-o", "out.css", "--watch", "--minify", "--poll", "--optimize"}
	if got := cl.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() without config file = %v, want %v", got, want)
	}

	if err := os.WriteFile(cfg, []byte("export default {}"), 0o644); err != nil {
		t.Fatal(err)
	}
	cl = CommandLine{Input: "in.css", Output: "out.css", Config: cfg}
	want = []string{"-i", "in.css", "-o", "out.css", "-c", cfg}
	if got := cl.Args(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Args() with config file = %v, want %v", got, want)
	}
}

func TestInstallHints(t *testing.T) {
	if InstallHints(nil, "/x") != nil {
		t.Fatal("expected no hints without an error")
	}
	hints := InstallHints(ErrUnsupportedPlatform, "/opt/tw")
	if len(hints) != 2 {
		t.Fatalf("unsupported platform hints = %v", hints)
	}
	if hints := InstallHints(ErrInstallationFailed, "/opt/tw"); len(hints) < 3 {
		t.Fatalf("install failure hints = %v", hints)
	}
}
