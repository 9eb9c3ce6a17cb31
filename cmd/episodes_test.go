package cmd

import (
	"strings"
	"testing"

	"podsh/internal/model"
)

func TestUpdateSkipsPausedSubscription(t *testing.T) {
	app, out := newTestApp(t, "", false)

	p := &model.Podcast{
		Title:             "Paused Show",
		URL:               "http://example.com/feed",
		PauseSubscription: true,
	}
	if err := app.store.Add(p); err != nil {
		t.Fatal(err)
	}

	if !app.cmdUpdate(nil) {
		t.Fatal("cmdUpdate failed")
	}

	output := out.String()
	if !strings.Contains(output, "Skipping Paused Show") {
		t.Errorf("output %q lacks the skip label", output)
	}
	if strings.Contains(output, "Updating Paused Show") {
		t.Errorf("paused subscription announced as updating: %q", output)
	}
	if !strings.Contains(output, "[SKIP]") {
		t.Errorf("output %q lacks the skip marker", output)
	}
}
