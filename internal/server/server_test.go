package server

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/gravadigital/eventmaster-api/internal/auth"
	"github.com/gravadigital/eventmaster-api/internal/blob"
	"github.com/gravadigital/eventmaster-api/internal/config"
	"github.com/gravadigital/eventmaster-api/internal/storage/memory"
	"github.com/gravadigital/eventmaster-api/internal/ticket"
)

type fixedGenerator struct{}

func (fixedGenerator) Generate(context.Context, string) string { return "A night to remember." }

type testServer struct {
	t      *testing.T
	router http.Handler
	repos  *memory.Container
	blobs  *blob.MemoryStore
	token  string
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.GinMode = gin.TestMode
	cfg.Server.Environment = "test"
	cfg.Upload.MaxFileSize = 5 << 20
	cfg.Upload.ImageMaxSide = 64
	cfg.Upload.JPEGQuality = 70
	cfg.CORS.AllowOrigins = "*"
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.Issuer = "eventmaster-test"
	cfg.Auth.TokenTTL = time.Hour
	return cfg
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	cfg := testConfig()
	repos := memory.NewContainer()
	blobs := blob.NewMemoryStore("https://cdn.test/event-images")
	provider := auth.NewProvider(repos, cfg)
	provider.SetHashCost(bcrypt.MinCost)

	srv := New(cfg, Dependencies{
		Repos:     repos,
		Blobs:     blobs,
		Generator: fixedGenerator{},
		Auth:      provider,
	})
	ts := &testServer{t: t, router: srv.Handler(), repos: repos, blobs: blobs}

	rec := ts.do(http.MethodPost, "/api/auth/signup", map[string]string{
		"email":        "door@example.com",
		"password":     "secret1",
		"display_name": "Door A",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var session struct {
		Token string `json:"token"`
	}
	ts.decode(rec, &session)
	require.NotEmpty(t, session.Token)
	ts.token = session.Token
	return ts
}

func (ts *testServer) send(req *http.Request) *httptest.ResponseRecorder {
	if ts.token != "" {
		req.Header.Set("Authorization", "Bearer "+ts.token)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func (ts *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return ts.send(req)
}

func (ts *testServer) upload(path, field, filename string, data []byte, fields map[string]string) *httptest.ResponseRecorder {
	ts.t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(ts.t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile(field, filename)
	require.NoError(ts.t, err)
	_, err = part.Write(data)
	require.NoError(ts.t, err)
	require.NoError(ts.t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return ts.send(req)
}

func (ts *testServer) decode(rec *httptest.ResponseRecorder, dst any) {
	ts.t.Helper()
	require.NoError(ts.t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

type eventBody struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ImageURL string `json:"image_url"`
}

type guestBody struct {
	ID           string  `json:"id"`
	EventID      string  `json:"event_id"`
	RegistryID   *string `json:"registry_id"`
	CheckedIn    bool    `json:"checked_in"`
	AuthorizedBy *string `json:"authorized_by"`
	QRCodeData   string  `json:"qr_code_data"`
}

type checkInBody struct {
	Status       string     `json:"status"`
	Guest        *guestBody `json:"guest"`
	AuthorizedBy string     `json:"authorized_by"`
	CheckedInAt  *time.Time `json:"checked_in_at"`
}

func (ts *testServer) createEvent(name string) eventBody {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/events", map[string]any{
		"name":     name,
		"date":     "2026-12-01T20:00:00Z",
		"location": "Main Hall",
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var e eventBody
	ts.decode(rec, &e)
	return e
}

func (ts *testServer) createGuest(eventID, name, nationalID string) guestBody {
	ts.t.Helper()
	rec := ts.do(http.MethodPost, "/api/events/"+eventID+"/guests", map[string]string{
		"name":        name,
		"national_id": nationalID,
	})
	require.Equal(ts.t, http.StatusCreated, rec.Code, rec.Body.String())
	var g guestBody
	ts.decode(rec, &g)
	return g
}

func TestPing(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)
	token := ts.token
	ts.token = ""

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/events", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodPost, "/api/checkin/scan", map[string]string{"payload": "x"}).Code)

	ts.token = "not-a-jwt"
	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/events", nil).Code)

	ts.token = token
	rec := ts.do(http.MethodGet, "/api/auth/me", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "door@example.com")
}

func TestSignOutRevokesToken(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/auth/signout", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusUnauthorized, ts.do(http.MethodGet, "/api/events", nil).Code)

	ts.token = ""
	rec = ts.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "DOOR@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/signin", map[string]string{"email": "door@example.com", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ts.do(http.MethodPost, "/api/auth/signup", map[string]string{"email": "door@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestScanFlow(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Launch Party")
	g := ts.createGuest(e.ID, "Maria", "123.456.789-00")
	require.NotEmpty(t, g.QRCodeData)
	require.NotNil(t, g.RegistryID)

	rec := ts.do(http.MethodPost, "/api/checkin/scan", map[string]string{"payload": g.QRCodeData})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first checkInBody
	ts.decode(rec, &first)
	assert.Equal(t, "SUCCESS", first.Status)
	require.NotNil(t, first.Guest)
	assert.True(t, first.Guest.CheckedIn)
	require.NotNil(t, first.Guest.AuthorizedBy)
	assert.Equal(t, "Door A", *first.Guest.AuthorizedBy)

	rec = ts.do(http.MethodPost, "/api/checkin/scan", map[string]string{"payload": g.QRCodeData})
	require.Equal(t, http.StatusConflict, rec.Code)
	var second checkInBody
	ts.decode(rec, &second)
	assert.Equal(t, "ALREADY_CHECKED_IN", second.Status)
	assert.Equal(t, "Door A", second.AuthorizedBy)
	assert.NotNil(t, second.CheckedInAt)

	rec = ts.do(http.MethodPost, "/api/checkin/scan", map[string]string{"payload": "{not json"})
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var invalid checkInBody
	ts.decode(rec, &invalid)
	assert.Equal(t, "INVALID_CODE", invalid.Status)
}

func TestScanBoundToEvent(t *testing.T) {
	ts := newTestServer(t)
	a := ts.createEvent("A")
	b := ts.createEvent("B")
	g := ts.createGuest(a.ID, "Ana", "")

	rec := ts.do(http.MethodPost, "/api/events/"+b.ID+"/checkin/scan", map[string]string{"payload": g.QRCodeData})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.do(http.MethodPost, "/api/events/"+a.ID+"/checkin/scan", map[string]string{"payload": g.QRCodeData})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestScanImage(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Frames")
	g := ts.createGuest(e.ID, "Bruno", "")

	frame, err := ticket.Render(g.QRCodeData, 256)
	require.NoError(t, err)

	rec := ts.upload("/api/checkin/scan-image", "frame", "frame.png", frame, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	blank := encodePNG(t, 64, 64)
	rec = ts.upload("/api/checkin/scan-image", "frame", "blank.png", blank, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = ts.upload("/api/checkin/scan-image", "frame", "notes.txt", []byte("hello"), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManualCheckIn(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Manual")
	g := ts.createGuest(e.ID, "Carla", "")

	rec := ts.do(http.MethodPost, "/api/guests/"+g.ID+"/checkin", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = ts.do(http.MethodPost, "/api/guests/"+g.ID+"/checkin", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(http.MethodPost, "/api/guests/00000000-0000-0000-0000-000000000001/checkin", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(http.MethodPost, "/api/guests/not-a-uuid/checkin", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicTicket(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Public")
	g := ts.createGuest(e.ID, "Dora", "")
	ts.token = ""

	rec := ts.do(http.MethodGet, "/api/public/tickets?ticket="+g.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body struct {
		Guest guestBody `json:"guest"`
		Event eventBody `json:"event"`
	}
	ts.decode(rec, &body)
	assert.Equal(t, g.ID, body.Guest.ID)
	assert.Equal(t, "Public", body.Event.Name)

	rec = ts.do(http.MethodGet, "/api/public/tickets/"+g.ID+"/qr.png", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	assert.NoError(t, err)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/public/tickets/00000000-0000-0000-0000-000000000002", nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/public/tickets?ticket=garbage", nil).Code)
}

func TestEventDeleteCascades(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Doomed")
	ts.createGuest(e.ID, "One", "1")
	ts.createGuest(e.ID, "Two", "2")

	rec := ts.do(http.MethodDelete, "/api/events/"+e.ID, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodGet, "/api/events/"+e.ID, nil).Code)

	rec = ts.do(http.MethodGet, "/api/guests", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Count int `json:"count"`
	}
	ts.decode(rec, &list)
	assert.Zero(t, list.Count)

	rec = ts.do(http.MethodGet, "/api/registry", nil)
	ts.decode(rec, &list)
	assert.Equal(t, 2, list.Count)
}

func TestImportEndpoints(t *testing.T) {
	ts := newTestServer(t)
	e := ts.createEvent("Imported")
	csv := []byte("Nome;CPF;Celular\nAna;111;9999\nBruno;222;\nAna;111;8888\n")

	rec := ts.upload("/api/events/"+e.ID+"/import/preview", "file", "guests.csv", csv, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Nome")

	rec = ts.upload("/api/events/"+e.ID+"/import", "file", "guests.csv", csv, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var result struct {
		Created int `json:"created"`
	}
	ts.decode(rec, &result)
	assert.Equal(t, 2, result.Created)

	rec = ts.upload("/api/events/"+e.ID+"/import", "file", "guests.csv", csv, nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	ts.decode(rec, &result)
	assert.Zero(t, result.Created)

	rec = ts.do(http.MethodGet, "/api/events/"+e.ID+"/imports", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var history struct {
		Count int `json:"count"`
	}
	ts.decode(rec, &history)
	assert.Equal(t, 2, history.Count)

	rec = ts.upload("/api/events/"+e.ID+"/import", "file", "guests.csv", []byte("a,b\n1,2\n"), map[string]string{"name": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImageUpload(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.upload("/api/uploads/images", "file", "cover.png", encodePNG(t, 200, 100), nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body struct {
		URL string `json:"url"`
	}
	ts.decode(rec, &body)
	assert.True(t, strings.HasPrefix(body.URL, "https://cdn.test/event-images/"))
	assert.Equal(t, 1, ts.blobs.Len())

	req := httptest.NewRequest(http.MethodDelete, "/api/uploads/images?url="+body.URL, nil)
	assert.Equal(t, http.StatusNoContent, ts.send(req).Code)
	assert.Zero(t, ts.blobs.Len())

	req = httptest.NewRequest(http.MethodDelete, "/api/uploads/images?url=https://elsewhere.test/x.jpg", nil)
	assert.Equal(t, http.StatusBadRequest, ts.send(req).Code)
}

func TestDescribeEvent(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(http.MethodPost, "/api/events/describe", map[string]string{"name": "Gala", "location": "Rooftop"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "A night to remember.")

	rec = ts.do(http.MethodPost, "/api/events/describe", map[string]string{"location": "Rooftop"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRemindersAndStaff(t *testing.T) {
	ts := newTestServer(t)

	rec := ts.do(http.MethodPost, "/api/reminders", map[string]any{"text": "Book the DJ"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var r struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
	}
	ts.decode(rec, &r)
	assert.False(t, r.Completed)

	rec = ts.do(http.MethodPost, "/api/reminders/"+r.ID+"/toggle", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ts.decode(rec, &r)
	assert.True(t, r.Completed)

	assert.Equal(t, http.StatusBadRequest, ts.do(http.MethodPost, "/api/reminders", map[string]any{"text": "  "}).Code)
	assert.Equal(t, http.StatusNoContent, ts.do(http.MethodDelete, "/api/reminders/"+r.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(http.MethodPost, "/api/reminders/"+r.ID+"/toggle", nil).Code)

	rec = ts.do(http.MethodPost, "/api/staff", map[string]string{"name": "Rita", "role": "admin"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"role":"ADMIN"`)

	rec = ts.do(http.MethodPost, "/api/staff", map[string]string{"name": "Rita", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
