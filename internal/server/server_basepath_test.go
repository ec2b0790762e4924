package server

import "testing"

func TestTemplateBasePath(t *testing.T) {
	tests := []struct {
		name     string
		basePath string
		want     string
	}{
		{name: "root", basePath: "/", want: ""},
		{name: "subpath", basePath: "/filelist", want: "/filelist"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &App{opts: Options{BasePath: tt.basePath}}
			got := app.templateBasePath()
			if got != tt.want {
				t.Fatalf("templateBasePath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRoute(t *testing.T) {
	tests := []struct {
		basePath string
		in       string
		want     string
	}{
		{basePath: "/", in: "/", want: "/"},
		{basePath: "/", in: "/file", want: "/file"},
		{basePath: "/wiki", in: "/", want: "/wiki/"},
		{basePath: "/wiki", in: "/file", want: "/wiki/file"},
	}
	for _, tt := range tests {
		app := &App{opts: Options{BasePath: tt.basePath}}
		if got := app.route(tt.in); got != tt.want {
			t.Fatalf("route(%q) with base %q = %q, want %q", tt.in, tt.basePath, got, tt.want)
		}
	}
}

func TestJoinRoot(t *testing.T) {
	tests := []struct {
		root, rel, want string
	}{
		{"/data/", "a.txt", "/data/a.txt"},
		{"/data", "/sub/a.txt", "/data/sub/a.txt"},
		{"pub/", "", "pub/"},
		{`C:\files\`, `x\y.txt`, `C:\files/x\y.txt`},
	}
	for _, tt := range tests {
		if got := joinRoot(tt.root, tt.rel); got != tt.want {
			t.Fatalf("joinRoot(%q, %q) = %q, want %q", tt.root, tt.rel, got, tt.want)
		}
	}
}
