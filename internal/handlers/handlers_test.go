package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"github.com/developia-II/storeblog-backend/internal/adapters/repository/memrepo"
	"github.com/developia-II/storeblog-backend/internal/models"
	"github.com/developia-II/storeblog-backend/internal/notify"
	"github.com/developia-II/storeblog-backend/internal/services/admin"
	"github.com/developia-II/storeblog-backend/internal/services/auth"
	"github.com/developia-II/storeblog-backend/internal/services/blog"
	"github.com/developia-II/storeblog-backend/internal/services/cart"
	"github.com/developia-II/storeblog-backend/internal/services/catalog"
	"github.com/developia-II/storeblog-backend/internal/services/checkout"
	"github.com/developia-II/storeblog-backend/internal/services/tag"
	"github.com/developia-II/storeblog-backend/internal/uploads"
	"github.com/developia-II/storeblog-backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret-of-at-least-32-bytes"

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

type server struct {
	store  *memrepo.Store
	mail   *notify.Recorder
	files  *uploads.Store
	tokens *utils.TokenManager
	router *gin.Engine
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := memrepo.New()
	mail := &notify.Recorder{}
	notifier, err := notify.New(mail, notify.Config{AppName: "Storeblog", OTPTTL: 20 * time.Minute, ResetTTL: 20 * time.Minute})
	require.NoError(t, err)
	files, err := uploads.NewStore(t.TempDir(), 1<<20)
	require.NoError(t, err)
	tokens := utils.NewTokenManager(testSecret, time.Hour)
	tags := tag.NewService(store.Tags(), store.Blogs())

	svc := Services{
		Auth: auth.NewService(store.Users(), tokens, notifier, files, auth.Config{
			OTPTTL:      20 * time.Minute,
			ResetTTL:    20 * time.Minute,
			BcryptCost:  4,
			FrontendURL: "https://shop.example.com",
		}),
		Admin:    admin.NewService(store.Users(), store.Products(), store.Checkouts(), notifier),
		Catalog:  catalog.NewService(store.Categories(), store.Subcategories(), store.Products(), files),
		Cart:     cart.NewService(store.Carts(), store.Products()),
		Checkout: checkout.NewService(store.Checkouts(), store.Products(), store.Carts(), notifier),
		Blog:     blog.NewService(store.Blogs(), store.Users(), tags, files, blog.Config{MaxReplyDepth: 32, SaveRetries: 3}),
		Tags:     tags,
	}
	cfg := RouterConfig{
		ServiceName:    "storeblog-test",
		AllowedOrigins: []string{"http://localhost:3000"},
		RequestTimeout: 5 * time.Second,
		UploadsDir:     files.Root(),
		MaxBodyBytes:   8 << 20,
		Cookie:         CookieConfig{Name: "token"},
		Files:          files,
	}
	router := NewRouter(cfg)
	SetupRoutes(router, svc, cfg)

	return &server{store: store, mail: mail, files: files, tokens: tokens, router: router}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *server) serve(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.serve(req, token)
}

type filePart struct {
	field, name string
	content     []byte
}

func (s *server) multipart(t *testing.T, method, path string, fields map[string][]string, files []filePart, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range fields {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(t, err)
		_, err = fw.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.serve(req, token)
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data), string(env.Data))
	}
	return env
}

// seedUser stores an active, verified account and returns a session token for it.
func (s *server) seedUser(t *testing.T, username string, role models.Role) (models.User, string) {
	t.Helper()
	u := models.User{
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
		IsActive: true,
		Verified: true,
	}
	require.NoError(t, s.store.Users().Create(context.Background(), &u))
	token, err := s.tokens.GenerateToken(u.ID.Hex(), string(role))
	require.NoError(t, err)
	return u, token
}

func (s *server) seedProduct(t *testing.T, name string, price float64, qty int) models.Product {
	t.Helper()
	p := models.Product{
		Name:            name,
		Slug:            name,
		Price:           price,
		DiscountedPrice: price,
		Quantity:        qty,
		IsPublic:        true,
		Status:          models.ProductStatusActive,
	}
	require.NoError(t, s.store.Products().Create(context.Background(), &p))
	return p
}

func dirEntries(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	return len(entries)
}

func TestHealthEndpoints(t *testing.T) {
	s := newServer(t)

	for _, path := range []string{"/", "/health", "/ready"} {
		w := s.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
	assert.NotEmpty(t, s.do(t, http.MethodGet, "/health", nil, "").Header().Get("X-Request-ID"))
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestReadinessReportsDatabaseFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h := &HealthHandler{DB: failingPinger{}, ServiceName: "storeblog"}
	router.GET("/ready", h.Readiness)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "Database unavailable", decode(t, w, nil).Error)
}

var sixDigits = regexp.MustCompile(`\b\d{6}\b`)

func TestSignupVerifyAndProfile(t *testing.T) {
	s := newServer(t)

	w := s.multipart(t, http.MethodPost, "/api/auth/signup", map[string][]string{
		"username": {"ayesha"},
		"email":    {"ayesha@example.com"},
		"password": {"secret1"},
	}, []filePart{{"profileImage", "me.png", pngHeader}}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var user models.User
	decode(t, w, &user)
	assert.False(t, user.Verified)
	require.Regexp(t, `^/uploads/profiles/.+\.png$`, user.ProfileImage)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, user.ProfileImage, nil, "").Code)

	w = s.do(t, http.MethodGet, "/api/auth/user-details", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	msg, ok := s.mail.Last()
	require.True(t, ok)
	otp := sixDigits.FindString(msg.Text)
	require.NotEmpty(t, otp)

	w = s.do(t, http.MethodPost, "/api/auth/verify-otp", gin.H{"email": "ayesha@example.com", "otp": otp}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	// The session cookie alone authenticates.
	req := httptest.NewRequest(http.MethodGet, "/api/auth/user-details", nil)
	req.AddCookie(cookies[0])
	w = s.serve(req, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var me models.User
	decode(t, w, &me)
	assert.Equal(t, "ayesha@example.com", me.Email)
	assert.True(t, me.Verified)

	w = s.do(t, http.MethodPost, "/api/auth/logout", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, w.Result().Cookies(), 1)
	assert.Equal(t, "", w.Result().Cookies()[0].Value)
}

func TestSignupRejectedAfterUploadRemovesFile(t *testing.T) {
	s := newServer(t)

	// Missing password: the image is written before binding fails.
	w := s.multipart(t, http.MethodPost, "/api/auth/signup", map[string][]string{
		"username": {"ayesha"},
		"email":    {"ayesha@example.com"},
	}, []filePart{{"profileImage", "me.png", pngHeader}}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "password is required", decode(t, w, nil).Error)
	assert.Zero(t, dirEntries(t, filepath.Join(s.files.Root(), "profiles")))
}

func TestBindingErrorsNameTheField(t *testing.T) {
	s := newServer(t)

	tests := []struct {
		name string
		body any
		want string
	}{
		{"invalid email", gin.H{"email": "nope", "password": "x"}, "email is not a valid email"},
		{"missing password", gin.H{"email": "a@example.com"}, "password is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/auth/login", tt.body, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			env := decode(t, w, nil)
			assert.False(t, env.Success)
			assert.Equal(t, tt.want, env.Error)
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := s.serve(req, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid request body", decode(t, w, nil).Error)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newServer(t)
	_, userToken := s.seedUser(t, "reader", models.RoleUser)
	_, adminToken := s.seedUser(t, "boss", models.RoleAdmin)

	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/users", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, "/api/admin/users", nil, "garbage").Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/admin/users", nil, userToken).Code)

	w := s.do(t, http.MethodGet, "/api/admin/users", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var users []models.User
	decode(t, w, &users)
	assert.Len(t, users, 2)

	w = s.do(t, http.MethodGet, "/api/admin/users/not-an-id", nil, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid user id", decode(t, w, nil).Error)
}

func TestDeactivatedUserIsLockedOut(t *testing.T) {
	s := newServer(t)
	reader, userToken := s.seedUser(t, "reader", models.RoleUser)
	_, adminToken := s.seedUser(t, "boss", models.RoleAdmin)

	w := s.do(t, http.MethodPost, "/api/admin/users/"+reader.ID.Hex()+"/toggle-status", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "User deactivated", decode(t, w, nil).Message)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/cart", nil, userToken).Code)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	s := newServer(t)
	_, token := s.seedUser(t, "buyer", models.RoleUser)
	shoe := s.seedProduct(t, "shoe", 49.99, 5)
	ctx := context.Background()

	w := s.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": shoe.ID.Hex(), "quantity": 2}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var cartView models.CartView
	decode(t, w, &cartView)
	require.Len(t, cartView.Items, 1)
	assert.InDelta(t, 99.98, cartView.CartTotal, 0.001)

	w = s.do(t, http.MethodPost, "/api/checkout", gin.H{
		"name":           "Sara Khan",
		"email":          "buyer@example.com",
		"contactNumber":  "03001234567",
		"billingAddress": "1 Mall Road",
		"city":           "Lahore",
		"state":          "Punjab",
		"zipCode":        "54000",
		"paymentMethod":  "Cash on Delivery",
		"products":       []gin.H{{"productId": shoe.ID.Hex(), "quantity": 2}},
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var order models.Checkout
	decode(t, w, &order)
	assert.Equal(t, models.StatusPending, order.OrderStatus)
	assert.InDelta(t, 99.98, order.TotalAmount, 0.001)

	p, err := s.store.Products().GetByID(ctx, shoe.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Quantity)

	w = s.do(t, http.MethodGet, "/api/checkout/orders", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	var orders []models.Checkout
	decode(t, w, &orders)
	assert.Len(t, orders, 1)

	w = s.do(t, http.MethodPost, "/api/checkout/orders/"+order.ID.Hex()+"/cancel", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p, err = s.store.Products().GetByID(ctx, shoe.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, p.Quantity)

	w = s.do(t, http.MethodPost, "/api/checkout/orders/"+order.ID.Hex()+"/cancel", nil, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutRejectsInsufficientStock(t *testing.T) {
	s := newServer(t)
	_, token := s.seedUser(t, "buyer", models.RoleUser)
	hat := s.seedProduct(t, "hat", 10, 1)

	w := s.do(t, http.MethodPost, "/api/checkout", gin.H{
		"name":           "Sara Khan",
		"email":          "buyer@example.com",
		"contactNumber":  "03001234567",
		"billingAddress": "1 Mall Road",
		"city":           "Lahore",
		"state":          "Punjab",
		"zipCode":        "54000",
		"paymentMethod":  "Cash on Delivery",
		"products":       []gin.H{{"productId": hat.ID.Hex(), "quantity": 3}},
	}, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w, nil).Error, "Insufficient stock")
}

func TestBlogCommentThread(t *testing.T) {
	s := newServer(t)
	_, adminToken := s.seedUser(t, "editor", models.RoleAdmin)
	_, readerToken := s.seedUser(t, "reader", models.RoleUser)

	w := s.multipart(t, http.MethodPost, "/api/admin/blog", map[string][]string{
		"title":   {"Hello Go"},
		"content": {"First post"},
		"tags":    {"go", "backend"},
	}, []filePart{{"images", "cover.png", pngHeader}}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.BlogView
	decode(t, w, &post)
	assert.Equal(t, "hello-go", post.Slug)
	assert.Len(t, post.Tags, 2)
	require.Len(t, post.Images, 1)

	w = s.do(t, http.MethodPost, "/api/blog/comment", gin.H{"blogId": post.ID.Hex(), "comment": "Nice"}, readerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &post)
	require.Len(t, post.Comments, 1)
	comment := post.Comments[0]
	require.NotNil(t, comment.User)
	assert.Equal(t, "reader", comment.User.Username)

	w = s.do(t, http.MethodPost, "/api/blog/comment/reply", gin.H{
		"blogId": post.ID.Hex(), "commentId": comment.ID.Hex(), "comment": "Thanks",
	}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &post)
	require.Len(t, post.Comments[0].Replies, 1)
	reply := post.Comments[0].Replies[0]

	w = s.do(t, http.MethodPost, "/api/blog/comment/reply", gin.H{
		"blogId": post.ID.Hex(), "commentId": comment.ID.Hex(), "replyId": reply.ID.Hex(), "comment": "Welcome",
	}, readerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &post)
	require.Len(t, post.Comments[0].Replies[0].Replies, 1)

	// Removing the first reply takes its nested answer with it.
	w = s.do(t, http.MethodDelete, "/api/blog/comment", gin.H{
		"blogId": post.ID.Hex(), "commentId": comment.ID.Hex(), "replyId": reply.ID.Hex(),
	}, adminToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &post)
	require.Len(t, post.Comments, 1)
	assert.Empty(t, post.Comments[0].Replies)

	w = s.do(t, http.MethodPost, "/api/blog/review", gin.H{"blogId": post.ID.Hex(), "rating": 4, "review": "Good read"}, readerToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &post)
	assert.InDelta(t, 4.0, post.AverageRating, 0.001)

	w = s.do(t, http.MethodPost, "/api/blog/review", gin.H{"blogId": post.ID.Hex(), "rating": 9, "review": "x"}, readerToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDraftBlogsHiddenFromReaders(t *testing.T) {
	s := newServer(t)
	_, adminToken := s.seedUser(t, "editor", models.RoleAdmin)
	_, readerToken := s.seedUser(t, "reader", models.RoleUser)

	w := s.multipart(t, http.MethodPost, "/api/admin/blog", map[string][]string{
		"title":   {"Draft"},
		"content": {"Not yet"},
		"tags":    {"news"},
	}, []filePart{{"blogImages", "cover.png", pngHeader}}, adminToken)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var post models.BlogView
	decode(t, w, &post)

	w = s.do(t, http.MethodPut, "/api/admin/blog/"+post.ID.Hex()+"/toggle-status", nil, adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Blog unpublished", decode(t, w, nil).Message)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/blog/blogs/"+post.ID.Hex(), nil, readerToken).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/blog/blogs/"+post.ID.Hex(), nil, adminToken).Code)

	var page models.BlogPage
	decode(t, s.do(t, http.MethodGet, "/api/blog/blogs", nil, readerToken), &page)
	assert.Zero(t, page.Total)
}

func TestCreateProductRejectedRemovesUploads(t *testing.T) {
	s := newServer(t)
	_, adminToken := s.seedUser(t, "boss", models.RoleAdmin)
	missing := primitive.NewObjectID().Hex()

	w := s.multipart(t, http.MethodPost, "/api/admin/product", map[string][]string{
		"name":          {"Shoe"},
		"heading":       {"Running shoe"},
		"description":   {"Light"},
		"price":         {"40"},
		"categoryId":    {missing},
		"subCategoryId": {missing},
	}, []filePart{{"files", "a.png", pngHeader}, {"files", "b.png", pngHeader}}, adminToken)
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
	assert.Zero(t, dirEntries(t, filepath.Join(s.files.Root(), "products")))

	w = s.multipart(t, http.MethodPost, "/api/admin/product", map[string][]string{
		"name": {"Shoe"},
	}, []filePart{{"files", "a.png", []byte("plain text")}}, adminToken)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, dirEntries(t, filepath.Join(s.files.Root(), "products")))
}
