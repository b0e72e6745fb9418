package assets

import (
	"bytes"
	"testing"
)

func TestRender(t *testing.T) {
	page, err := Render(PageData{
		Title:       "Antipode <Explorer>",
		Description: "Find the other side",
		Config:      map[string]string{"note": "</script>"},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	checks := []struct {
		name string
		want []byte
	}{
				{"go to button", []byte("Go to Antipode")},
		{"go back button", []byte("Go Back")},
		{"tile layer", []byte("/tiles/{z}/{x}/{y}.webp")},
		{"config", []byte("app-config")},
	}
	for _, c := range checks {
		if !bytes.Contains(page, c.want) {
			t.Errorf("%s: page does not contain %q", c.name, c.want)
		}
	}

	if bytes.Contains(page, []byte("<Explorer>")) {
		t.Error("title was not escaped")
	}
	if bytes.Contains(page, []byte(`"</script>"`)) {
		t.Error("config value was not escaped")
	}
}

func TestFavicon(t *testing.T) {
	if !bytes.HasPrefix(Favicon, []byte("<svg")) {
		t.Fatalf("favicon is not svg: %q", Favicon[:20])
	}
}
