package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/invoice-cli/internal/model"
	"github.com/sells-group/invoice-cli/internal/pipeline"
	"github.com/sells-group/invoice-cli/internal/segment"
)

var (
	servePort     int
	serveStrategy string
)

// maxUploadBytes caps attachment uploads at 32 MiB.
const maxUploadBytes = 32 << 20

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		p, err := initPipeline(serveStrategy, false)
		if err != nil {
			return err
		}

		mux := http.NewServeMux()

		mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		})

		mux.HandleFunc("POST /v1/extract", func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()

			doc, err := readDocument(r)
			if err != nil {
				writeError(w, http.StatusBadRequest, requestID, err)
				return
			}

			res, err := p.Run(r.Context(), doc)
			if err != nil {
				status := http.StatusInternalServerError
				if eris.Is(err, segment.ErrUnreadableAttachment) {
					status = http.StatusUnprocessableEntity
				}
				zap.L().Error("extraction request failed",
					zap.String("request_id", requestID),
					zap.String("name", doc.Name),
					zap.Error(err),
				)
				writeError(w, status, requestID, err)
				return
			}

			zap.L().Info("extraction request complete",
				zap.String("request_id", requestID),
				zap.String("name", doc.Name),
				zap.String("status", string(res.Status)),
			)

			resp := map[string]any{
				"request_id": requestID,
				"status":     res.Status,
			}
			if res.Status == pipeline.StatusExtracted {
				resp["record"] = res.Record
				resp["artifact"] = res.Record.Fenced()
				if res.Evidence != nil {
					resp["evidence"] = res.Evidence
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(resp)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: mux,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// readDocument accepts either a multipart upload under the "file" field
// or a raw body with its Content-Type header.
func readDocument(r *http.Request) (model.Document, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, maxUploadBytes)

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		file, header, err := r.FormFile("file")
		if err != nil {
			return model.Document{}, eris.Wrap(err, "serve: read multipart file")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return model.Document{}, eris.Wrap(err, "serve: read multipart body")
		}
		return model.Document{
			Name:        header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        data,
		}, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return model.Document{}, eris.Wrap(err, "serve: read body")
	}
	if len(data) == 0 {
		return model.Document{}, eris.New("serve: empty request body")
	}
	return model.Document{
		Name:        r.URL.Query().Get("name"),
		ContentType: contentType,
		Data:        data,
	}, nil
}

func writeError(w http.ResponseWriter, status int, requestID string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"request_id": requestID,
		"error":      err.Error(),
	})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().StringVar(&serveStrategy, "strategy", "", "extraction strategy: batch or per_page (default from config)")
	rootCmd.AddCommand(serveCmd)
}
