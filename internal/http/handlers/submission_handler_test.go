package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/0xVampirot/justZappIt/internal/services"
)

// submissionRouter mounts the intake endpoint over the given submission stub.
func submissionRouter(t *testing.T, sub SubmissionAPI) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := New(stubModSvc{}, sub, nil, nil, testHasher(t))
	r := gin.New()
	r.POST("/submissions", h.CreateSubmission)
	return r
}

const validSubmissionBody = `{
	"type":"new_store",
	"payload":{"operator_name":"Acme","city":"Lisbon","country":"Portugal","lat":38.7,"lng":-9.1},
	"hcaptcha_token":"tok",
	"loaded_at":1756400000000
}`

func TestCreateSubmission_Success(t *testing.T) {
	var got services.SubmissionRequest
	r := submissionRouter(t, stubSubSvc{submit: func(_ context.Context, req services.SubmissionRequest) (*services.SubmissionResult, error) {
		got = req
		return &services.SubmissionResult{SubmissionID: "sub-9", StoreID: "store-7"}, nil
	}})

	w := postJSON(t, r, "/submissions", validSubmissionBody, "203.0.113.9")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}
	var out CreateSubmissionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("json: %v", err)
	}
	if !out.Success || out.SubmissionID != "sub-9" || out.StoreID != "store-7" {
		t.Fatalf("body = %+v", out)
	}

	if got.Type != "new_store" || got.LoadedAt != 1756400000000 || got.CaptchaToken != "tok" {
		t.Fatalf("passthrough wrong: %+v", got)
	}
	if got.IPHash != testHasher(t).Hash("203.0.113.9") {
		t.Fatalf("ip hash wrong: %q", got.IPHash)
	}
}

func TestCreateSubmission_BindingRejections(t *testing.T) {
	r := submissionRouter(t, stubSubSvc{})

	cases := map[string]string{
		"malformed json":  `{bad`,
		"missing payload": `{"type":"new_store","hcaptcha_token":"t"}`,
		"bad type":        `{"type":"bulk","payload":{},"hcaptcha_token":"t"}`,
		"bad store id":    `{"type":"edit","store_id":"nope","payload":{},"hcaptcha_token":"t"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if w := postJSON(t, r, "/submissions", body, ""); w.Code != http.StatusBadRequest {
				t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCreateSubmission_HoneypotMasksAsSuccess(t *testing.T) {
	r := submissionRouter(t, stubSubSvc{submit: func(context.Context, services.SubmissionRequest) (*services.SubmissionResult, error) {
		return nil, services.ErrBotDetected
	}})

	body := `{"type":"new_store","payload":{},"hcaptcha_token":"t","website":"https://spam.example"}`
	w := postJSON(t, r, "/submissions", body, "")
	if w.Code != http.StatusOK {
		t.Fatalf("code = %d; honeypot must look like success", w.Code)
	}
	var out CreateSubmissionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil || !out.Success {
		t.Fatalf("body = %s (%v)", w.Body.String(), err)
	}
	// The fake acknowledgement must not leak record identifiers.
	if out.SubmissionID != "" || out.StoreID != "" {
		t.Fatalf("masked response leaked ids: %+v", out)
	}
}

func TestCreateSubmission_ServiceErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"too fast", services.ErrTooFast, http.StatusBadRequest},
		{"invalid type", services.ErrInvalidSubmissionType, http.StatusBadRequest},
		{"captcha failed", services.ErrCaptchaFailed, http.StatusBadRequest},
		{"rate limited", services.ErrRateLimited, http.StatusTooManyRequests},
		{"edit target missing", services.ErrStoreNotFound, http.StatusNotFound},
		{"geocode failed", services.ErrGeocodeFailed, http.StatusBadRequest},
		{"captcha unavailable", services.ErrCaptchaUnavailable, http.StatusInternalServerError},
		{"db broke", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := submissionRouter(t, stubSubSvc{submit: func(context.Context, services.SubmissionRequest) (*services.SubmissionResult, error) {
				return nil, tc.err
			}})
			w := postJSON(t, r, "/submissions", validSubmissionBody, "")
			if w.Code != tc.code {
				t.Fatalf("code = %d; want %d (body=%s)", w.Code, tc.code, w.Body.String())
			}
		})
	}
}

func TestCreateSubmission_PayloadErrorCarriesDetails(t *testing.T) {
	r := submissionRouter(t, stubSubSvc{submit: func(context.Context, services.SubmissionRequest) (*services.SubmissionResult, error) {
		return nil, &services.PayloadError{Fields: map[string]string{
			"operator_name": "required",
			"lat":           "must be within [-90, 90]",
		}}
	}})

	w := postJSON(t, r, "/submissions", validSubmissionBody, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("code = %d body=%s", w.Code, w.Body.String())
	}
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("json: %v", err)
	}
	if body.Details["operator_name"] != "required" || body.Details["lat"] == "" {
		t.Fatalf("details = %v", body.Details)
	}
}
