package menu

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fooder/backend/internal/auth"
	"github.com/fooder/backend/internal/models"
	"github.com/fooder/backend/pkg/apperr"
)

var (
	admin    = auth.Identity{UserID: "admin-1", TenantID: "T1", Role: models.RoleAdmin}
	customer = auth.Identity{UserID: "cust-1", TenantID: "T1", Role: models.RoleCustomer}
)

// memStore is an in-memory Store keyed by tenant and id.
type memStore struct {
	items map[string]models.MenuItem
	err   error
}

func newMemStore() *memStore { return &memStore{items: make(map[string]models.MenuItem)} }

func key(tenantID, id string) string { return tenantID + "/" + id }

func (m *memStore) Create(_ context.Context, item *models.MenuItem) error {
	if m.err != nil {
		return m.err
	}
	m.items[key(item.TenantID, item.MenuItemID)] = *item
	return nil
}

func (m *memStore) Get(_ context.Context, tenantID, id string) (*models.MenuItem, error) {
	item, ok := m.items[key(tenantID, id)]
	if !ok {
		return nil, apperr.NotFound("Menu item not found")
	}
	return &item, nil
}

func (m *memStore) GetMany(_ context.Context, tenantID string, ids []string) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, id := range ids {
		if item, ok := m.items[key(tenantID, id)]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

func (m *memStore) List(_ context.Context, tenantID string, includeInactive bool) ([]models.MenuItem, error) {
	var out []models.MenuItem
	for _, item := range m.items {
		if item.TenantID == tenantID && (includeInactive || item.IsActive) {
			out = append(out, item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuItemID < out[j].MenuItemID })
	return out, nil
}

func (m *memStore) Update(_ context.Context, tenantID, id string, p models.MenuItemPatch, updatedAt time.Time) (*models.MenuItem, error) {
	item, ok := m.items[key(tenantID, id)]
	if !ok {
		return nil, apperr.NotFound("Menu item not found")
	}
	if p.Name != nil {
		item.Name = *p.Name
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.ImageURL != nil {
		item.ImageURL = p.ImageURL
	}
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.IsActive != nil {
		item.IsActive = *p.IsActive
	}
	item.UpdatedAt = updatedAt
	m.items[key(tenantID, id)] = item
	return &item, nil
}

type fakeImages struct {
	presignedKey string
	uploadedKey  string
	uploadedType string
	body         string
}

func (f *fakeImages) PresignMenuImageUpload(_ context.Context, key, contentType string) (string, time.Duration, error) {
	f.presignedKey = key
	return "https://bucket.s3.amazonaws.com/" + key + "?X-Amz-Signature=abc", 15 * time.Minute, nil
}

func (f *fakeImages) UploadMenuImage(_ context.Context, key, contentType string, body io.Reader, size int64) (string, error) {
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	f.uploadedKey, f.uploadedType, f.body = key, contentType, string(b)
	return f.MenuImageURL(key), nil
}

func (f *fakeImages) MenuImageURL(key string) string {
	return "https://bucket.s3.us-east-1.amazonaws.com/" + key
}

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store Store) (*Service, *fakeImages) {
	images := &fakeImages{}
	s := NewService(store, images, nil)
	s.nowF = func() time.Time { return fixedNow }
	return s, images
}

func TestCreate(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)

	item, err := svc.Create(context.Background(), admin, models.CreateMenuItemInput{
		Name: "Margherita Pizza", Price: price("12.99"), Category: "main",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if item.MenuItemID == "" || !item.IsActive || item.TenantID != "T1" {
		t.Errorf("item = %+v", item)
	}
	if !item.Price.Equal(decimal.RequireFromString("12.99")) {
		t.Errorf("price = %s", item.Price)
	}
	if !item.CreatedAt.Equal(fixedNow) || !item.UpdatedAt.Equal(fixedNow) {
		t.Errorf("timestamps = %v / %v", item.CreatedAt, item.UpdatedAt)
	}
	if _, ok := store.items[key("T1", item.MenuItemID)]; !ok {
		t.Error("item not persisted")
	}
}

func TestCreate_IDsAreTimeOrdered(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	in := models.CreateMenuItemInput{Name: "Soup", Price: price("4.50"), Category: "starter"}
	a, _ := svc.Create(context.Background(), admin, in)
	b, _ := svc.Create(context.Background(), admin, in)
	if a.MenuItemID == b.MenuItemID || a.MenuItemID > b.MenuItemID {
		t.Errorf("ids not increasing: %s then %s", a.MenuItemID, b.MenuItemID)
	}
}

func TestCreate_RequiresAdmin(t *testing.T) {
	store := newMemStore()
	svc, _ := newTestService(store)
	_, err := svc.Create(context.Background(), customer, models.CreateMenuItemInput{
		Name: "Margherita Pizza", Price: price("12.99"), Category: "main",
	})
	if !apperr.IsKind(err, apperr.KindForbidden) {
		t.Fatalf("err = %v, want forbidden", err)
	}
	if len(store.items) != 0 {
		t.Error("nothing should be stored")
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	tests := []struct {
		name string
		in   models.CreateMenuItemInput
		msg  string
	}{
		{"missing name", models.CreateMenuItemInput{Price: price("1"), Category: "main"}, "Name is required"},
		{"blank name", models.CreateMenuItemInput{Name: "  ", Price: price("1"), Category: "main"}, "Name is required"},
		{"missing price", models.CreateMenuItemInput{Name: "A", Category: "main"}, "Price must be positive"},
		{"zero price", models.CreateMenuItemInput{Name: "A", Price: price("0"), Category: "main"}, "Price must be positive"},
		{"negative price", models.CreateMenuItemInput{Name: "A", Price: price("-2.5"), Category: "main"}, "Price must be positive"},
		{"sub-cent price", models.CreateMenuItemInput{Name: "A", Price: price("0.001"), Category: "main"}, "Price must have at most 2 decimal places"},
		{"three decimal places", models.CreateMenuItemInput{Name: "A", Price: price("12.345"), Category: "main"}, "Price must have at most 2 decimal places"},
		{"price overflows column", models.CreateMenuItemInput{Name: "A", Price: price("99999999999.5"), Category: "main"}, "Price must be less than 10000000000"},
		{"price at column limit", models.CreateMenuItemInput{Name: "A", Price: price("10000000000"), Category: "main"}, "Price must be less than 10000000000"},
		{"missing category", models.CreateMenuItemInput{Name: "A", Price: price("1")}, "Category is required"},
		{"bad image url", models.CreateMenuItemInput{Name: "A", Price: price("1"), Category: "main", ImageURL: strPtr("not a url")}, "Image URL must be a valid URL"},
		{"ftp image url", models.CreateMenuItemInput{Name: "A", Price: price("1"), Category: "main", ImageURL: strPtr("ftp://x/y.png")}, "Image URL must be a valid URL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, tt.in)
			if !apperr.IsKind(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if err.Error() != tt.msg {
				t.Errorf("message = %q, want %q", err.Error(), tt.msg)
			}
		})
	}
}

func seed(store *memStore, id string, active bool) {
	store.items[key("T1", id)] = models.MenuItem{
		TenantID: "T1", MenuItemID: id, Name: "Item " + id, Price: decimal.RequireFromString("5.00"),
		Category: "main", IsActive: active, CreatedAt: fixedNow.Add(-time.Hour), UpdatedAt: fixedNow.Add(-time.Hour),
	}
}

func TestList_NonAdminForcedActiveOnly(t *testing.T) {
	store := newMemStore()
	seed(store, "a", true)
	seed(store, "b", false)
	store.items[key("T2", "c")] = models.MenuItem{TenantID: "T2", MenuItemID: "c", IsActive: true}
	svc, _ := newTestService(store)
	ctx := context.Background()

	tests := []struct {
		name            string
		caller          auth.Identity
		includeInactive bool
		want            int
	}{
		{"admin active only", admin, false, 1},
		{"admin include inactive", admin, true, 2},
		{"customer", customer, false, 1},
		{"customer asking for inactive", customer, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := svc.List(ctx, tt.caller, tt.includeInactive)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(items) != tt.want {
				t.Errorf("len = %d, want %d", len(items), tt.want)
			}
		})
	}
}

func TestList_EmptyIsNotNil(t *testing.T) {
	svc, _ := newTestService(newMemStore())
	items, err := svc.List(context.Background(), customer, false)
	if err != nil || items == nil {
		t.Errorf("items = %v, err = %v", items, err)
	}
}

func TestGet(t *testing.T) {
	store := newMemStore()
	seed(store, "a", false)
	svc, _ := newTestService(store)

	if _, err := svc.Get(context.Background(), customer, "a"); err != nil {
		t.Errorf("Get inactive item: %v", err)
	}
	if _, err := svc.Get(context.Background(), customer, "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("err = %v, want not found", err)
	}
	other := auth.Identity{UserID: "x", TenantID: "T2", Role: models.RoleAdmin}
	if _, err := svc.Get(context.Background(), other, "a"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("cross-tenant err = %v, want not found", err)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	store := newMemStore()
	seed(store, "a", true)
	svc, _ := newTestService(store)

	item, err := svc.Update(context.Background(), admin, "a", models.MenuItemPatch{Price: price("7.25")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !item.Price.Equal(decimal.RequireFromString("7.25")) {
		t.Errorf("price = %s", item.Price)
	}
	if item.Name != "Item a" || item.Category != "main" || !item.IsActive {
		t.Errorf("untouched fields changed: %+v", item)
	}
	if !item.UpdatedAt.Equal(fixedNow) {
		t.Errorf("UpdatedAt = %v, want refreshed", item.UpdatedAt)
	}

	reactivate := true
	seed(store, "b", false)
	item, err = svc.Update(context.Background(), admin, "b", models.MenuItemPatch{IsActive: &reactivate, Name: strPtr("  Renamed ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !item.IsActive || item.Name != "Renamed" {
		t.Errorf("item = %+v", item)
	}
}

func TestUpdate_Errors(t *testing.T) {
	store := newMemStore()
	seed(store, "a", true)
	svc, _ := newTestService(store)
	ctx := context.Background()

	if _, err := svc.Update(ctx, customer, "a", models.MenuItemPatch{Name: strPtr("x")}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("customer err = %v", err)
	}
	if _, err := svc.Update(ctx, admin, "a", models.MenuItemPatch{Price: price("0")}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("zero price err = %v", err)
	}
	for _, p := range []string{"0.001", "12.345", "99999999999.5", "10000000000"} {
		if _, err := svc.Update(ctx, admin, "a", models.MenuItemPatch{Price: price(p)}); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("price %s err = %v", p, err)
		}
	}
	if got := store.items[key("T1", "a")].Price; !got.Equal(decimal.RequireFromString("5")) {
		t.Errorf("stored price = %s, want unchanged 5.00", got)
	}
	if _, err := svc.Update(ctx, admin, "a", models.MenuItemPatch{Name: strPtr("")}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("empty name err = %v", err)
	}
	if _, err := svc.Update(ctx, admin, "missing", models.MenuItemPatch{Name: strPtr("x")}); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestDelete_IsSoft(t *testing.T) {
	store := newMemStore()
	seed(store, "a", true)
	svc, _ := newTestService(store)
	ctx := context.Background()

	if err := svc.Delete(ctx, customer, "a"); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("customer err = %v", err)
	}
	if err := svc.Delete(ctx, admin, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	item, err := svc.Get(ctx, admin, "a")
	if err != nil {
		t.Fatalf("record should remain: %v", err)
	}
	if item.IsActive || !item.UpdatedAt.Equal(fixedNow) {
		t.Errorf("item = %+v", item)
	}
	if err := svc.Delete(ctx, admin, "missing"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestImageUploadURL(t *testing.T) {
	svc, images := newTestService(newMemStore())
	ctx := context.Background()

	ticket, err := svc.ImageUploadURL(ctx, admin, ImageUploadRequest{ContentType: "image/png", Size: 1024})
	if err != nil {
		t.Fatalf("ImageUploadURL: %v", err)
	}
	if !strings.HasPrefix(ticket.Key, "menu-images/T1/") || !strings.HasSuffix(ticket.Key, ".png") {
		t.Errorf("key = %s", ticket.Key)
	}
	if images.presignedKey != ticket.Key || ticket.ImageURL != images.MenuImageURL(ticket.Key) {
		t.Errorf("ticket = %+v", ticket)
	}
	if !ticket.ExpiresAt.Equal(fixedNow.Add(15 * time.Minute)) {
		t.Errorf("ExpiresAt = %v", ticket.ExpiresAt)
	}

	if _, err := svc.ImageUploadURL(ctx, customer, ImageUploadRequest{ContentType: "image/png"}); !apperr.IsKind(err, apperr.KindForbidden) {
		t.Errorf("customer err = %v", err)
	}
	if _, err := svc.ImageUploadURL(ctx, admin, ImageUploadRequest{ContentType: "application/pdf"}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("pdf err = %v", err)
	}
	if _, err := svc.ImageUploadURL(ctx, admin, ImageUploadRequest{ContentType: "image/png", Size: 6 << 20}); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("oversize err = %v", err)
	}
}

func TestUploadImage(t *testing.T) {
	store := newMemStore()
	seed(store, "a", true)
	svc, images := newTestService(store)
	ctx := context.Background()

	item, err := svc.UploadImage(ctx, admin, "a", "", "pizza.jpeg", strings.NewReader("jpegbytes"), 9)
	if err != nil {
		t.Fatalf("UploadImage: %v", err)
	}
	if images.uploadedType != "image/jpeg" || images.body != "jpegbytes" {
		t.Errorf("upload = %+v", images)
	}
	if item.ImageURL == nil || *item.ImageURL != images.MenuImageURL(images.uploadedKey) {
		t.Errorf("ImageURL = %v", item.ImageURL)
	}

	images.uploadedKey = ""
	if _, err := svc.UploadImage(ctx, admin, "missing", "image/png", "", strings.NewReader("x"), 1); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("missing err = %v", err)
	}
	if images.uploadedKey != "" {
		t.Error("nothing should be uploaded for a missing item")
	}
}

func TestNoImageStore(t *testing.T) {
	svc := NewService(newMemStore(), nil, nil)
	_, err := svc.ImageUploadURL(context.Background(), admin, ImageUploadRequest{ContentType: "image/png"})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, ok := apperr.As(err); ok {
		t.Errorf("err should be unclassified: %v", err)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	store := newMemStore()
	store.err = errors.New("db down")
	svc, _ := newTestService(store)
	_, err := svc.Create(context.Background(), admin, models.CreateMenuItemInput{Name: "A", Price: price("1"), Category: "main"})
	if err == nil || apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("err = %v", err)
	}
}
