package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(logrus.WarnLevel, &buf)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message should be filtered: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("warn message missing: %q", out)
	}
}

func TestComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(logrus.InfoLevel, &buf), "revision")
	log.Info("sampled")

	if !strings.Contains(buf.String(), "revision") {
		t.Errorf("prefix missing: %q", buf.String())
	}
}
