package logging_test

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/KaramelBytes/surveyfa/internal/logging"
)

func TestSetLogger(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	var buf bytes.Buffer
	logging.SetLogger(logging.New(&buf, true))
	logging.Logger().Debug("dropped column", slog.String("column", "Pertinence_3"))

	if !strings.Contains(buf.String(), "column=Pertinence_3") {
		t.Fatalf("expected debug line in output, got %q", buf.String())
	}
}

func TestNewInfoLevelSuppressesDebug(t *testing.T) {
	var buf bytes.Buffer
	l := logging.New(&buf, false)
	l.Debug("hidden")
	l.Info("shown")
	if strings.Contains(buf.String(), "hidden") {
		t.Fatalf("debug line leaked at info level: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "shown") {
		t.Fatalf("missing info line: %q", buf.String())
	}
}

func TestSetLoggerNilDiscards(t *testing.T) {
	old := logging.Logger()
	defer logging.SetLogger(old)

	logging.SetLogger(nil)
	if logging.Logger() == nil {
		t.Fatal("expected non-nil logger after SetLogger(nil)")
	}
}

func TestRecorderSharesStoreAcrossWith(t *testing.T) {
	rec := logging.NewRecorder()
	l := slog.New(rec).With(slog.String("block", "Utilisation"))
	l.Info("column dropped", slog.String("reason", "zero variance"))

	if !rec.Contains("block=Utilisation") || !rec.Contains("reason=zero variance") {
		t.Fatalf("records = %#v", rec.Records())
	}
}
