package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rj-tabelon/rentalrabbit/internal/auth"
	"github.com/rj-tabelon/rentalrabbit/internal/events"
	"github.com/rj-tabelon/rentalrabbit/internal/geocode"
	"github.com/rj-tabelon/rentalrabbit/internal/models"
	"github.com/rj-tabelon/rentalrabbit/internal/repository"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "api-test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

var errBoom = errors.New("connection reset")

type fakeManagers struct {
	byID map[string]*models.Manager
	err  error
}

func (f *fakeManagers) GetByCognitoID(_ context.Context, id string) (*models.Manager, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byID[id], nil
}

func (f *fakeManagers) Create(_ context.Context, m models.Manager) (*models.Manager, error) {
	if f.err != nil {
		return nil, f.err
	}
	if _, ok := f.byID[m.CognitoID]; ok {
		return nil, repository.ErrAlreadyExists
	}
	m.ID = int64(len(f.byID) + 1)
	f.byID[m.CognitoID] = &m
	return &m, nil
}

func (f *fakeManagers) Update(_ context.Context, id string, m models.Manager) (*models.Manager, error) {
	existing, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	existing.Name, existing.Email, existing.PhoneNumber = m.Name, m.Email, m.PhoneNumber
	return existing, nil
}

type fakeTenants struct {
	byID      map[string]*models.Tenant
	favorites map[string]map[int64]bool
	known     map[int64]bool
}

func newFakeTenants() *fakeTenants {
	return &fakeTenants{
		byID:      make(map[string]*models.Tenant),
		favorites: make(map[string]map[int64]bool),
		known:     map[int64]bool{1: true, 2: true},
	}
}

func (f *fakeTenants) withFavorites(id string) *models.Tenant {
	t := *f.byID[id]
	t.Favorites = make([]models.Property, 0)
	for pid := range f.favorites[id] {
		t.Favorites = append(t.Favorites, models.Property{ID: pid})
	}
	return &t
}

func (f *fakeTenants) GetByCognitoID(_ context.Context, id string) (*models.Tenant, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, nil
	}
	return f.withFavorites(id), nil
}

func (f *fakeTenants) Create(_ context.Context, t models.Tenant) (*models.Tenant, error) {
	if _, ok := f.byID[t.CognitoID]; ok {
		return nil, repository.ErrAlreadyExists
	}
	f.byID[t.CognitoID] = &t
	return &t, nil
}

func (f *fakeTenants) Update(_ context.Context, id string, t models.Tenant) (*models.Tenant, error) {
	existing, ok := f.byID[id]
	if !ok {
		return nil, nil
	}
	existing.Name, existing.Email, existing.PhoneNumber = t.Name, t.Email, t.PhoneNumber
	return existing, nil
}

func (f *fakeTenants) AddFavorite(_ context.Context, id string, propertyID int64) (*models.Tenant, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, repository.NotFound("Tenant")
	}
	if !f.known[propertyID] {
		return nil, repository.NotFound("Property")
	}
	if f.favorites[id] == nil {
		f.favorites[id] = make(map[int64]bool)
	}
	if f.favorites[id][propertyID] {
		return nil, repository.ErrAlreadyFavorite
	}
	f.favorites[id][propertyID] = true
	return f.withFavorites(id), nil
}

func (f *fakeTenants) RemoveFavorite(_ context.Context, id string, propertyID int64) (*models.Tenant, error) {
	if _, ok := f.byID[id]; !ok {
		return nil, repository.NotFound("Tenant")
	}
	delete(f.favorites[id], propertyID)
	return f.withFavorites(id), nil
}

type fakeProperties struct {
	mu         sync.Mutex
	lastFilter models.PropertyFilter
	byID       map[int64]*models.Property
	created    *models.Property
	createdLoc models.Location
	createErr  error
	err        error
}

func (f *fakeProperties) Search(_ context.Context, filter models.PropertyFilter) ([]models.Property, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	return make([]models.Property, 0), nil
}

func (f *fakeProperties) GetByID(_ context.Context, id int64) (*models.Property, error) {
	return f.byID[id], nil
}

func (f *fakeProperties) ListByManager(context.Context, string) ([]models.Property, error) {
	return []models.Property{{ID: 1}}, nil
}

func (f *fakeProperties) ListResidences(context.Context, string) ([]models.Property, error) {
	return make([]models.Property, 0), nil
}

func (f *fakeProperties) Create(_ context.Context, p models.Property, loc models.Location) (*models.Property, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	p.ID = 42
	loc.ID = 7
	p.LocationID = loc.ID
	p.Location = &loc
	f.created = &p
	f.createdLoc = loc
	return &p, nil
}

type fakeLeases struct{}

func (fakeLeases) List(context.Context) ([]models.Lease, error) {
	return make([]models.Lease, 0), nil
}

func (fakeLeases) ListPayments(_ context.Context, leaseID int64) ([]models.Payment, error) {
	return []models.Payment{{ID: 1, LeaseID: leaseID, PaymentStatus: models.PaymentPaid}}, nil
}

type fakeApplications struct {
	created  *models.NewApplication
	decided  time.Time
	list     []models.Application
	filter   models.ApplicationFilter
	status   map[int64]models.ApplicationStatus
	property map[int64]string
}

func newFakeApplications() *fakeApplications {
	return &fakeApplications{
		status:   map[int64]models.ApplicationStatus{1: models.ApplicationPending, 2: models.ApplicationApproved},
		property: map[int64]string{10: "manager-1"},
	}
}

func (f *fakeApplications) Create(_ context.Context, in models.NewApplication) (*models.Application, error) {
	manager, ok := f.property[in.PropertyID]
	if !ok {
		return nil, repository.NotFound("Property")
	}
	f.created = &in
	leaseID := int64(100)
	return &models.Application{
		ID:              3,
		ApplicationDate: in.ApplicationDate,
		Status:          models.ApplicationPending,
		PropertyID:      in.PropertyID,
		TenantCognitoID: in.TenantCognitoID,
		Name:            in.Name,
		LeaseID:         &leaseID,
		Property:        &models.Property{ID: in.PropertyID, ManagerCognitoID: manager},
	}, nil
}

func (f *fakeApplications) UpdateStatus(_ context.Context, id int64, status models.ApplicationStatus, decidedAt time.Time) (*models.Application, error) {
	current, ok := f.status[id]
	if !ok {
		return nil, repository.NotFound("Application")
	}
	if current != models.ApplicationPending {
		return nil, repository.ErrApplicationClosed
	}
	f.status[id] = status
	f.decided = decidedAt
	return &models.Application{
		ID:              id,
		Status:          status,
		PropertyID:      10,
		TenantCognitoID: "tenant-1",
		Property:        &models.Property{ID: 10, ManagerCognitoID: "manager-1"},
	}, nil
}

func (f *fakeApplications) List(_ context.Context, filter models.ApplicationFilter) ([]models.Application, error) {
	f.filter = filter
	out := make([]models.Application, len(f.list))
	copy(out, f.list)
	return out, nil
}

type publishedEvent struct {
	msg        events.Message
	recipients []string
}

type fakePublisher struct {
	events []publishedEvent
}

func (f *fakePublisher) Publish(msg events.Message, userIDs ...string) {
	f.events = append(f.events, publishedEvent{msg: msg, recipients: userIDs})
}

type fakeGeocoder struct {
	res  geocode.Result
	err  error
	last geocode.Address
}

func (f *fakeGeocoder) Lookup(_ context.Context, addr geocode.Address) (geocode.Result, error) {
	f.last = addr
	return f.res, f.err
}

type fakeUploader struct {
	mu   sync.Mutex
	keys []string
	err  error
}

func (f *fakeUploader) Upload(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	io.Copy(io.Discard, data)
	f.mu.Lock()
	f.keys = append(f.keys, key)
	f.mu.Unlock()
	return "https://cdn.test/" + key, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Health(context.Context) error { return f.err }

// testServer bundles a router with the fakes behind it.
type testServer struct {
	router       *gin.Engine
	managers     *fakeManagers
	tenants      *fakeTenants
	properties   *fakeProperties
	applications *fakeApplications
	publisher    *fakePublisher
	geocoder     *fakeGeocoder
	uploader     *fakeUploader
	appHandler   *ApplicationHandler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	verifier, err := auth.NewVerifier(testSecret, nil)
	require.NoError(t, err)

	s := &testServer{
		managers:     &fakeManagers{byID: make(map[string]*models.Manager)},
		tenants:      newFakeTenants(),
		properties:   &fakeProperties{byID: make(map[int64]*models.Property)},
		applications: newFakeApplications(),
		publisher:    &fakePublisher{},
		geocoder:     &fakeGeocoder{},
		uploader:     &fakeUploader{},
	}

	resp := NewResponder(zap.NewNop(), false)
	s.appHandler = NewApplicationHandler(s.applications, s.publisher, resp)

	s.router = NewRouter(Handlers{
		Managers:     NewManagerHandler(s.managers, s.properties, resp),
		Tenants:      NewTenantHandler(s.tenants, s.properties, resp),
		Properties:   NewPropertyHandler(s.properties, s.uploader, s.geocoder, resp),
		Applications: s.appHandler,
		Leases:       NewLeaseHandler(fakeLeases{}, resp),
		DB:           fakePinger{},
	}, verifier, zap.NewNop())

	return s
}

func bearer(t *testing.T, subject, role string) string {
	t.Helper()
	tok, err := auth.GenerateToken(subject, role, testSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (s *testServer) do(method, path, authorization, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) serve(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}
