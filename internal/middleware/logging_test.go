package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type logLine struct {
	Level     string `json:"level"`
	Msg       string `json:"msg"`
	Method    string `json:"method"`
	Path      string `json:"path"`
	Status    int    `json:"status"`
	LatencyMS *int64 `json:"latency_ms"`
	Size      int64  `json:"size"`
	ClientIP  string `json:"client_ip"`
	RequestID string `json:"request_id"`
	UserEmail string `json:"user_email"`
	ErrorCode string `json:"error_code"`
}

// logRequest serves one request through Logging and returns the parsed line.
func logRequest(t *testing.T, h http.HandlerFunc, req *http.Request) logLine {
	t.Helper()
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	Logging(logger)(h).ServeHTTP(httptest.NewRecorder(), req)

	var line logLine
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("parse log line %q: %v", buf.String(), err)
	}
	return line
}

func TestLogging(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantLevel string
		wantCode  int
		wantSize  int64
		wantError string
		wantEmail string
	}{
		{
			name: "implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`["rice"]`))
			},
			wantLevel: "INFO", wantCode: 200, wantSize: 8,
		},
		{
			name: "success ignores error code",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetErrorCode(r.Context(), "stale")
				w.WriteHeader(http.StatusCreated)
			},
			wantLevel: "INFO", wantCode: 201,
		},
		{
			name: "client error from derived context",
			handler: func(w http.ResponseWriter, r *http.Request) {
				ctx := SetUserEmail(r.Context(), "farmer@example.com")
				_ = SetErrorCode(ctx, "crop_not_found")
				w.WriteHeader(http.StatusNotFound)
			},
			wantLevel: "WARN", wantCode: 404, wantError: "crop_not_found", wantEmail: "farmer@example.com",
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				SetErrorCode(r.Context(), "internal_error")
				w.WriteHeader(http.StatusServiceUnavailable)
				w.WriteHeader(http.StatusOK) // ignored
			},
			wantLevel: "ERROR", wantCode: 503, wantError: "internal_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/recommend-crop/", nil)
			req.RemoteAddr = "192.0.2.10:4000"
			line := logRequest(t, tt.handler, req)

			if line.Msg != "request completed" || line.Level != tt.wantLevel {
				t.Errorf("level/msg = %s/%q, want %s/request completed", line.Level, line.Msg, tt.wantLevel)
			}
			if line.Method != "POST" || line.Path != "/recommend-crop/" || line.ClientIP != "192.0.2.10" {
				t.Errorf("request fields = %s %s %s", line.Method, line.Path, line.ClientIP)
			}
			if line.Status != tt.wantCode || line.Size != tt.wantSize {
				t.Errorf("status/size = %d/%d, want %d/%d", line.Status, line.Size, tt.wantCode, tt.wantSize)
			}
			if line.LatencyMS == nil {
				t.Error("latency_ms missing")
			}
			if line.ErrorCode != tt.wantError || line.UserEmail != tt.wantEmail {
				t.Errorf("error_code/user_email = %q/%q, want %q/%q", line.ErrorCode, line.UserEmail, tt.wantError, tt.wantEmail)
			}
		})
	}
}

func TestLogging_RequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "trace-me")

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	RequestID(Logging(logger)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))).ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), `"request_id":"trace-me"`) {
		t.Errorf("log line = %s, want request_id", buf.String())
	}
}

func TestContextAccessors_OutsideLogging(t *testing.T) {
	ctx := SetErrorCode(SetUserEmail(context.Background(), "a@example.com"), "conflict")
	if GetUserEmail(ctx) != "a@example.com" || GetErrorCode(ctx) != "conflict" {
		t.Errorf("accessors = %q/%q", GetUserEmail(ctx), GetErrorCode(ctx))
	}
	if GetUserEmail(context.Background()) != "" || GetErrorCode(context.Background()) != "" {
		t.Error("empty context should yield empty values")
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "production").Debug("hidden")
	NewLogger(&buf, "production").Info("shown", "k", "v")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("production logger output = %q, want JSON at info", out)
	}

	buf.Reset()
	NewLogger(&buf, "development").Debug("visible", "k", "v")
	if out := buf.String(); !strings.Contains(out, "k=v") || !strings.Contains(out, "level=DEBUG") {
		t.Errorf("development logger output = %q, want text at debug", out)
	}
}
