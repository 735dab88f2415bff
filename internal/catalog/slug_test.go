package catalog

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Linux & Shell", "linux-shell"},
		{"CI/CD Pipelines", "cicd-pipelines"},
		{"OSI and TCP/IP", "osi-and-tcpip"},
		{"  Leading and trailing  ", "leading-and-trailing"},
		{"Résumé Building", "resume-building"},
		{"snake_case_name", "snake-case-name"},
		{"Already-slugged", "already-slugged"},
		{"Node.js 20", "nodejs-20"},
		{"!!!", ""},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestSlugify_Idempotent(t *testing.T) {
	for _, in := range []string{"Linux & Shell", "Zero-downtime Releases", "Ça va"} {
		once := Slugify(in)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify(Slugify(%q)) = %q, want %q", in, twice, once)
		}
	}
}
