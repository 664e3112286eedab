package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func signRequest(authToken, fullURL string, params map[string]string) string {
	data := fullURL
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	// two params at most in these tests, sorted by hand below
	if len(keys) == 2 && keys[0] > keys[1] {
		keys[0], keys[1] = keys[1], keys[0]
	}
	for _, k := range keys {
		data += k + params[k]
	}
	mac := hmac.New(sha1.New, []byte(authToken))
	mac.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func runMiddleware(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	h := TwilioAuth(func() string { return "secret-token" })(func(c echo.Context) error {
		return c.String(http.StatusOK, "handled")
	})
	if err := h(c); err != nil {
		t.Fatalf("middleware returned error: %v", err)
	}
	return rec
}

func TestTwilioAuth_ValidSignature(t *testing.T) {
	body := "CallSid=CA123&From=%2B15550100"
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(body))
	req.Host = "claims.example.com"
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)

	sig := signRequest("secret-token", "https://claims.example.com/incoming-call",
		map[string]string{"CallSid": "CA123", "From": "+15550100"})
	req.Header.Set("X-Twilio-Signature", sig)

	rec := runMiddleware(t, req)
	if rec.Code != http.StatusOK || rec.Body.String() != "handled" {
		t.Fatalf("valid signature rejected: %d %q", rec.Code, rec.Body.String())
	}
}

func TestTwilioAuth_InvalidSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader("CallSid=CA123"))
	req.Host = "claims.example.com"
	req.Header.Set("X-Twilio-Signature", "bogus")

	rec := runMiddleware(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("invalid signature passed: %d", rec.Code)
	}
}

func TestTwilioAuth_MissingSignature(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/incoming-call", strings.NewReader(""))
	req.Host = "claims.example.com"

	rec := runMiddleware(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing signature passed: %d", rec.Code)
	}
}

func TestTwilioAuth_GuardsRecordingStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/recording-status", strings.NewReader("RecordingSid=RE1"))
	req.Host = "claims.example.com"

	rec := runMiddleware(t, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unsigned recording callback passed: %d", rec.Code)
	}
}

func TestTwilioAuth_OtherPathsUnguarded(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	rec := runMiddleware(t, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unguarded path blocked: %d", rec.Code)
	}
}
