package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/Lllllllleong/pdfdigest/internal/httpapi"
	"github.com/Lllllllleong/pdfdigest/internal/logger"
	"github.com/Lllllllleong/pdfdigest/internal/models"
	"github.com/Lllllllleong/pdfdigest/internal/services"
)

var (
	processor *services.Processor
	router    http.Handler
	once      sync.Once
	initErr   error
)

func init() {
	slog.SetDefault(logger.New("pdf-summarizer"))

	functions.CloudEvent("SummarizeUploadedPDF", summarizeUploadedPDF)
	functions.HTTP("PDFDigestAPI", handleAPI)
}

// main is required by the Go Functions Framework.
func main() {}

func setup() error {
	once.Do(func() {
		processor, initErr = services.NewProcessorFromEnv(context.Background(), nil)
		if initErr != nil {
			return
		}
		router = httpapi.NewRouter(processor, httpapi.Options{
			MaxUploadBytes: processor.Config().MaxUploadBytes,
			Logger:         slog.Default(),
		})
	})
	return initErr
}

func handleAPI(w http.ResponseWriter, r *http.Request) {
	if err := setup(); err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	router.ServeHTTP(w, r)
}

// summarizeUploadedPDF handles Cloud Storage object-finalized events.
func summarizeUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	if err := setup(); err != nil {
		slog.Error("Critical error during function initialization", "error", err)
		return err
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}
	if !strings.EqualFold(path.Ext(gcsEvent.Name), ".pdf") {
		slog.Info("Ignoring non-PDF object.", "gcsBucket", gcsEvent.Bucket, "gcsObject", gcsEvent.Name)
		return nil
	}

	ref := models.Reference{
		Name:   fmt.Sprintf("gs://%s/%s", gcsEvent.Bucket, gcsEvent.Name),
		Origin: models.OriginRemote,
	}
	res := processor.ProcessDocument(ctx, ref)
	if res.Status != models.OutcomeError || res.Error == nil {
		return nil
	}
	// Only failures that may clear up on redelivery are returned to the platform.
	switch services.ErrorKind(res.Error.Kind) {
	case services.KindAcquisition, services.KindPersistence:
		return fmt.Errorf("%s: %s", res.Error.Kind, res.Error.Message)
	}
	return nil
}
