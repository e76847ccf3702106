package logging_test

import (
	"errors"
	"os"

	"github.com/rs/zerolog"

	"thesisgen/internal/infra/logging"
)

func ExampleInfo() {
	logging.SetLoggerForTest(zerolog.New(os.Stdout))
	logging.Info("Document created", "path", "SkripsiBelumFix.docx", "blocks", 42)
	// Output: {"level":"info","path":"SkripsiBelumFix.docx","blocks":42,"message":"Document created"}
}

func ExampleError() {
	logging.SetLoggerForTest(zerolog.New(os.Stdout))
	logging.Error("Saving document failed", "error", errors.New("disk full"))
	// Output: {"level":"error","error":"disk full","message":"Saving document failed"}
}
