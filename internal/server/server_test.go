package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/auth"
	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/db"
	"github.com/Devkz19/Take-Home-inventory/internal/handlers"
	"github.com/Devkz19/Take-Home-inventory/internal/metrics"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
	"github.com/Devkz19/Take-Home-inventory/internal/service"
)

const testSecret = "router-secret"

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type memStore struct {
	products map[string]models.Product
	seq      int
	pingErr  error
}

func (m *memStore) Create(ctx context.Context, p *models.Product) error {
	m.seq++
	p.ID = fmt.Sprintf("p%d", m.seq)
	p.CreatedAt = time.Date(2024, 1, 1, 0, m.seq, 0, 0, time.UTC)
	p.UpdatedAt = p.CreatedAt
	m.products[p.ID] = *p
	return nil
}

func (m *memStore) ListByOwner(ctx context.Context, owner string) ([]models.Product, error) {
	var out []models.Product
	for _, p := range m.products {
		if p.Owner == owner {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) GetByID(ctx context.Context, id string) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memStore) Update(ctx context.Context, id string, u models.ProductUpdate) (*models.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	p.Name, p.Category, p.Quantity, p.Price, p.Description = u.Name, u.Category, u.Quantity, u.Price, u.Description
	if u.Image != nil {
		p.Image = u.Image
	}
	m.products[id] = p
	return &p, nil
}

func (m *memStore) Delete(ctx context.Context, id string) error {
	delete(m.products, id)
	return nil
}

func (m *memStore) AdjustQuantity(ctx context.Context, id string, delta int) (*models.Product, error) {
	return nil, db.ErrAdjustRejected
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }

type memMedia struct {
	removed []string
}

func (f *memMedia) Upload(ctx context.Context, file *models.UploadedFile) (*models.ImageDescriptor, error) {
	key := "photos/" + file.StoredName
	return &models.ImageDescriptor{
		FileName:  file.OriginalName,
		FilePath:  "http://media.test/inventory/" + key,
		FileType:  file.ContentType,
		FileSize:  "80 Bytes",
		ObjectKey: key,
	}, nil
}

func (f *memMedia) Remove(ctx context.Context, image *models.ImageDescriptor) error {
	f.removed = append(f.removed, image.ObjectKey)
	return nil
}

type harness struct {
	router *gin.Engine
	store  *memStore
	media  *memMedia
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	cfg := &config.Config{
		Server: config.ServerConfig{Name: "product-service", APIPrefix: "/api", AllowedOrigins: []string{"http://localhost:3000"}},
		Upload: config.UploadConfig{Field: "image", MaxSize: 5 << 20, AllowedTypes: []string{"image/jpeg", "image/jpg", "image/png"}},
		Auth:   config.AuthConfig{JWTSecret: testSecret, CookieName: "token"},
	}

	store := &memStore{products: map[string]models.Product{}}
	mediaStore := &memMedia{}
	m := metrics.New("product-service")
	svc := service.NewProductService(store, mediaStore, nil, m, zap.NewNop())

	router := NewRouter(cfg, Dependencies{
		Products: handlers.NewProductHandler(svc),
		Health:   handlers.NewHealthHandler("product-service", store, nil, zap.NewNop()),
		Metrics:  m,
	}, zap.NewNop())

	return &harness{router: router, store: store, media: mediaStore}
}

func (h *harness) do(t *testing.T, user string, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	if user != "" {
		token, err := auth.GenerateToken(testSecret, user, time.Hour)
		require.NoError(t, err)
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func multipartRequest(t *testing.T, method, path string, fields map[string]string, filename string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if filename != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
		h.Set("Content-Type", "image/png")
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(pngBytes)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

const penJSON = `{"name":"Pen","category":"Stationery","quantity":10,"price":2,"description":"Blue pen"}`

func TestCreatePenWithoutImage(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "alice", jsonRequest(http.MethodPost, "/api/products", penJSON))
	require.Equal(t, http.StatusCreated, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Pen", body["name"])
	assert.Equal(t, float64(10), body["quantity"])
	assert.Equal(t, "alice", body["user"])
	assert.NotContains(t, body, "image")
	assert.NotEmpty(t, body["_id"])
}

func TestCreateMissingFields(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "alice", jsonRequest(http.MethodPost, "/api/products", `{"name":"Pen"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Please fill in all fields"}`, rec.Body.String())
	assert.Empty(t, h.store.products)
}

func TestRequiresAuthentication(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "", jsonRequest(http.MethodPost, "/api/products", penJSON))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Not authorized, please login"}`, rec.Body.String())
}

func TestMultipartLifecycle(t *testing.T) {
	h := newHarness(t)
	fields := map[string]string{
		"name": "Pen", "category": "Stationery", "quantity": "10", "price": "2", "description": "Blue pen",
	}

	rec := h.do(t, "alice", multipartRequest(t, http.MethodPost, "/api/products", fields, "pen.png"))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotNil(t, created.Image)
	assert.Equal(t, "pen.png", created.Image.FileName)
	assert.Equal(t, "image/png", created.Image.FileType)

	path := "/api/products/" + created.ID

	rec = h.do(t, "alice", httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fetched))
	assert.Equal(t, created.Image.FilePath, fetched.Image.FilePath)

	rec = h.do(t, "bob", httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"User not authorized"}`, rec.Body.String())

	fields["name"] = "Gel Pen"
	rec = h.do(t, "alice", multipartRequest(t, http.MethodPatch, path, fields, ""))
	require.Equal(t, http.StatusOK, rec.Code)
	var updated models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(t, "Gel Pen", updated.Name)
	assert.Equal(t, created.Image, updated.Image)

	rec = h.do(t, "alice", httptest.NewRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Product deleted successfully"}`, rec.Body.String())
	assert.Equal(t, []string{created.Image.ObjectKey}, h.media.removed)

	rec = h.do(t, "alice", httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Product not found"}`, rec.Body.String())
}

func TestZeroStockThroughMultipart(t *testing.T) {
	h := newHarness(t)
	fields := map[string]string{
		"name": "Pen", "category": "Stationery", "quantity": "0", "price": "2", "description": "Blue pen",
	}

	rec := h.do(t, "alice", multipartRequest(t, http.MethodPost, "/api/products", fields, ""))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Zero(t, created.Quantity)

	fields["quantity"] = "5"
	rec = h.do(t, "alice", multipartRequest(t, http.MethodPatch, "/api/products/"+created.ID, fields, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	fields["quantity"] = "0"
	fields["price"] = "0"
	rec = h.do(t, "alice", multipartRequest(t, http.MethodPatch, "/api/products/"+created.ID, fields, ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Zero(t, updated.Quantity)
	assert.Zero(t, updated.Price)
}

func TestCreateWithoutQuantityIsRejected(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "alice", jsonRequest(http.MethodPost, "/api/products",
		`{"name":"Pen","category":"Stationery","price":2,"description":"Blue pen"}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Please fill in all fields"}`, rec.Body.String())
}

func TestRejectsGIFUpload(t *testing.T) {
	h := newHarness(t)

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	require.NoError(t, w.WriteField("name", "Pen"))
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="image"; filename="pen.gif"`)
	hdr.Set("Content-Type", "image/gif")
	part, err := w.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write([]byte("GIF89a"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/products", body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	rec := h.do(t, "alice", req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Only JPEG, JPG, and PNG files are allowed!"}`, rec.Body.String())
}

func TestListAndStats(t *testing.T) {
	h := newHarness(t)

	require.Equal(t, http.StatusCreated, h.do(t, "alice", jsonRequest(http.MethodPost, "/api/products", penJSON)).Code)
	require.Equal(t, http.StatusCreated, h.do(t, "bob", jsonRequest(http.MethodPost, "/api/products", penJSON)).Code)

	rec := h.do(t, "alice", httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "alice", list[0].Owner)

	rec = h.do(t, "carol", httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = h.do(t, "alice", httptest.NewRequest(http.MethodGet, "/api/products/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.InventoryStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalProducts)
	assert.Equal(t, 20.0, stats.TotalStoreValue)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.do(t, "", httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	h.store.pingErr = fmt.Errorf("server selection timeout")
	rec = h.do(t, "", httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.NotContains(t, rec.Body.String(), "server selection timeout")

	rec = h.do(t, "", httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "inventory_product_service_http_requests_total")
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := h.do(t, "", req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec = h.do(t, "", req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
