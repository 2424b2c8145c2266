// Package server exposes export runs over HTTP.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/repoctx/internal/export"
	"github.com/temirov/repoctx/internal/forge"
)

const (
	defaultListenAddress    = "127.0.0.1:0"
	defaultShutdownDuration = 5 * time.Second
	defaultMaxBodyBytes     = 1 << 20
	headerContentType       = "Content-Type"
	headerDisposition       = "Content-Disposition"
	headerAuthorization     = "Authorization"
	headerRunID             = "X-Repoctx-Run-Id"
	headerFileCount         = "X-Repoctx-Files"
	mimeTypeJSON            = "application/json"
	dispositionAttachment   = "attachment"
	exportsPath             = "/exports"
	healthPath              = "/healthz"
	metricsPath             = "/metrics"
	errorInvalidBody        = "invalid request body"
	errorMissingExporter    = "export service is not configured"
)

// ExportRequest is the JSON body of POST /exports.
type ExportRequest struct {
	RepositoryURL string   `json:"repositoryUrl"`
	Branch        string   `json:"branch"`
	Exclude       []string `json:"exclude"`
	Token         string   `json:"token"`
}

// ErrorResponse is returned for every failed request.
type ErrorResponse struct {
	Error                  string `json:"error"`
	Kind                   string `json:"kind,omitempty"`
	AuthenticationRequired bool   `json:"authenticationRequired,omitempty"`
	SessionExpired         bool   `json:"sessionExpired,omitempty"`
}

// Exporter runs one export.
type Exporter interface {
	Run(ctx context.Context, request export.Request) (export.Result, error)
}

// ExporterFactory builds an Exporter bound to a request-scoped session.
type ExporterFactory func(session *forge.Session) (Exporter, error)

// Config defines runtime options for the server.
type Config struct {
	Address         string
	NewExporter     ExporterFactory
	DefaultToken    string
	MetricsHandler  http.Handler
	Logger          *zap.Logger
	ShutdownTimeout time.Duration
	MaxBodyBytes    int64
}

// Server serves export requests over HTTP.
type Server struct {
	config Config
}

// NewServer creates a new Server with defaults applied.
func NewServer(config Config) Server {
	normalized := config
	if normalized.Address == "" {
		normalized.Address = defaultListenAddress
	}
	if normalized.ShutdownTimeout <= 0 {
		normalized.ShutdownTimeout = defaultShutdownDuration
	}
	if normalized.MaxBodyBytes <= 0 {
		normalized.MaxBodyBytes = defaultMaxBodyBytes
	}
	if normalized.Logger == nil {
		normalized.Logger = zap.NewNop()
	}
	return Server{config: normalized}
}

// Handler returns the routing handler without binding a listener.
func (server Server) Handler() http.Handler {
	router := http.NewServeMux()
	router.HandleFunc(exportsPath, server.handleExport)
	router.HandleFunc(healthPath, server.handleHealth)
	if server.config.MetricsHandler != nil {
		router.Handle(metricsPath, server.config.MetricsHandler)
	}
	return router
}

// Run starts the server and blocks until ctx is canceled.
// The notify callback receives the bound address once the listener is active.
func (server Server) Run(ctx context.Context, notify func(string)) error {
	listener, listenErr := net.Listen("tcp", server.config.Address)
	if listenErr != nil {
		return fmt.Errorf("listen on %s: %w", server.config.Address, listenErr)
	}
	actualAddress := listener.Addr().String()

	httpServer := &http.Server{Handler: server.Handler(), ReadHeaderTimeout: 10 * time.Second}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		serveErr := httpServer.Serve(listener)
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("serve exports: %w", serveErr)
		}
		return nil
	})

	server.config.Logger.Info("export service listening", zap.String("address", actualAddress))
	if notify != nil {
		notify(actualAddress)
	}

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), server.config.ShutdownTimeout)
		defer cancel()
		shutdownErr := httpServer.Shutdown(shutdownCtx)
		if shutdownErr != nil && !errors.Is(shutdownErr, context.Canceled) && !errors.Is(shutdownErr, http.ErrServerClosed) {
			return fmt.Errorf("shutdown exports: %w", shutdownErr)
		}
		return nil
	})

	return group.Wait()
}

func (server Server) handleHealth(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodGet {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writer.WriteHeader(http.StatusOK)
}

func (server Server) handleExport(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		writer.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if server.config.NewExporter == nil {
		server.writeJSON(writer, http.StatusInternalServerError, ErrorResponse{Error: errorMissingExporter})
		return
	}
	body, readErr := io.ReadAll(io.LimitReader(request.Body, server.config.MaxBodyBytes))
	if readErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, ErrorResponse{Error: fmt.Sprintf("read request body: %v", readErr)})
		return
	}
	var exportRequest ExportRequest
	if decodeErr := json.Unmarshal(body, &exportRequest); decodeErr != nil {
		server.writeJSON(writer, http.StatusBadRequest, ErrorResponse{Error: errorInvalidBody})
		return
	}

	session := forge.NewSession(server.requestToken(request, exportRequest))
	exporter, factoryErr := server.config.NewExporter(session)
	if factoryErr != nil {
		server.config.Logger.Error("build exporter", zap.Error(factoryErr))
		server.writeJSON(writer, http.StatusInternalServerError, ErrorResponse{Error: factoryErr.Error()})
		return
	}

	result, runErr := exporter.Run(request.Context(), export.Request{
		RepositoryURL:     exportRequest.RepositoryURL,
		Branch:            exportRequest.Branch,
		ExclusionPatterns: exportRequest.Exclude,
	})
	if runErr != nil {
		kind := export.ClassifyError(runErr)
		server.writeJSON(writer, StatusCodeForKind(kind), ErrorResponse{
			Error:                  export.UserMessage(runErr),
			Kind:                   string(kind),
			AuthenticationRequired: kind == export.KindAuthenticationRequired,
			SessionExpired:         kind == export.KindSessionExpired,
		})
		return
	}

	writer.Header().Set(headerContentType, result.Artifact.MimeType)
	writer.Header().Set(headerDisposition, mime.FormatMediaType(dispositionAttachment, map[string]string{"filename": result.Artifact.FileName}))
	writer.Header().Set(headerRunID, result.RunID)
	writer.Header().Set(headerFileCount, strconv.Itoa(result.Summary.TotalFiles))
	writer.WriteHeader(http.StatusOK)
	_, _ = writer.Write(result.Artifact.Data)
}

// requestToken prefers the body token, then a bearer Authorization header, then the configured default.
func (server Server) requestToken(request *http.Request, exportRequest ExportRequest) string {
	if token := strings.TrimSpace(exportRequest.Token); token != "" {
		return token
	}
	if header := strings.TrimSpace(request.Header.Get(headerAuthorization)); header != "" {
		return header
	}
	return server.config.DefaultToken
}

// StatusCodeForKind maps an export error kind onto the HTTP status returned to clients.
func StatusCodeForKind(kind export.ErrorKind) int {
	switch kind {
	case export.KindNone:
		return http.StatusOK
	case export.KindAuthenticationRequired, export.KindSessionExpired:
		return http.StatusUnauthorized
	case export.KindInvalidURL:
		return http.StatusBadRequest
	case export.KindNotFound:
		return http.StatusNotFound
	case export.KindNoCompatibleFiles:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}

func (server Server) writeJSON(writer http.ResponseWriter, statusCode int, payload interface{}) {
	var buffer bytes.Buffer
	if encodeErr := json.NewEncoder(&buffer).Encode(payload); encodeErr != nil {
		fallback := ErrorResponse{Error: fmt.Sprintf("encode response: %v", encodeErr)}
		writer.Header().Set(headerContentType, mimeTypeJSON)
		writer.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(writer).Encode(fallback)
		return
	}
	writer.Header().Set(headerContentType, mimeTypeJSON)
	writer.WriteHeader(statusCode)
	_, _ = writer.Write(buffer.Bytes())
}
