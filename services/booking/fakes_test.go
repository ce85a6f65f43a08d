package booking

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	bookingRepo "bookwell/database/repository/booking"
	catalogRepo "bookwell/database/repository/catalog"
	providerRepo "bookwell/database/repository/provider"
	userRepo "bookwell/database/repository/user"
	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memBookings struct {
	mu    sync.Mutex
	items map[string]models.Booking
	locks map[string]int
}

func newMemBookings() *memBookings {
	return &memBookings{items: map[string]models.Booking{}, locks: map[string]int{}}
}

func (m *memBookings) snapshot() map[string]models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make(map[string]models.Booking, len(m.items))
	for k, v := range m.items {
		cp[k] = v
	}
	return cp
}

func (m *memBookings) restore(items map[string]models.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = items
}

func (m *memBookings) put(b models.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	b.StartMinute = b.Hour*60 + b.Minute
	m.items[b.PublicID] = b
}

func (m *memBookings) get(publicID string) models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[publicID]
}

func (m *memBookings) Create(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.ID = primitive.NewObjectID()
	b.Version = 1
	m.items[b.PublicID] = *b
	return nil
}

func (m *memBookings) GetByPublicID(_ context.Context, publicID string) (*models.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.items[publicID]
	if !ok {
		return nil, bookingRepo.ErrNotFound
	}
	return &b, nil
}

func (m *memBookings) Update(_ context.Context, b *models.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[b.PublicID]
	if !ok || cur.Version != b.Version {
		return bookingRepo.ErrVersionConflict
	}
	b.Version++
	m.items[b.PublicID] = *b
	return nil
}

func (m *memBookings) filter(keep func(b models.Booking) bool) []models.Booking {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Booking
	for _, b := range m.items {
		if keep(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].PublicID < out[j].PublicID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *memBookings) ListActiveBySlotKey(_ context.Context, slotKey, date string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool {
		return b.SlotKey == slotKey && b.Date == date && b.Status.IsActive()
	}), nil
}

func (m *memBookings) ListActiveByProvider(_ context.Context, providerID, date string) ([]models.Booking, error) {
	return m.filter(func(b models.Booking) bool {
		return b.ProviderID == providerID && b.Date == date && b.Status.IsActive()
	}), nil
}

func (m *memBookings) FindCustomerActiveAt(_ context.Context, customerID, date string, hour, minute int) (*models.Booking, error) {
	found := m.filter(func(b models.Booking) bool {
		return b.CustomerID == customerID && b.Date == date && b.Hour == hour && b.Minute == minute && b.Status.IsActive()
	})
	if len(found) == 0 {
		return nil, bookingRepo.ErrNotFound
	}
	return &found[0], nil
}

func (m *memBookings) List(_ context.Context, f bookingRepo.BookingFilter) ([]models.Booking, int64, error) {
	all := m.filter(func(b models.Booking) bool {
		switch {
		case f.CustomerID != "" && b.CustomerID != f.CustomerID,
			f.ProviderID != "" && b.ProviderID != f.ProviderID,
			f.ShopID != "" && b.ShopID != f.ShopID,
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, b.Status),
			f.From != "" && b.Date < f.From,
			f.To != "" && b.Date > f.To:
			return false
		case f.Owner != nil:
			return b.ProviderID == f.Owner.OwnerID ||
				(f.Owner.ShopID != "" && (b.ShopID == f.Owner.ShopID || b.ProviderShopID == f.Owner.ShopID))
		}
		return true
	})
	return all, int64(len(all)), nil
}

func (m *memBookings) FindUnassignedShopRequests(_ context.Context, createdBefore time.Time, limit int) ([]models.Booking, error) {
	out := m.filter(func(b models.Booking) bool {
		return b.Status == models.StatusPending && b.ShopID != "" &&
			b.ProviderKind == models.KindShopOwner && b.CreatedAt.Before(createdBefore)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBookings) FindStale(_ context.Context, statuses []models.BookingStatus, createdBefore time.Time, limit int) ([]models.Booking, error) {
	out := m.filter(func(b models.Booking) bool {
		return slices.Contains(statuses, b.Status) && b.CreatedAt.Before(createdBefore)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memBookings) summary(keep func(b models.Booking) bool) models.RatingSummary {
	rated := m.filter(func(b models.Booking) bool {
		return keep(b) && b.Status == models.StatusCompleted && b.Rating > 0
	})
	if len(rated) == 0 {
		return models.RatingSummary{}
	}
	total := 0
	for _, b := range rated {
		total += b.Rating
	}
	return models.RatingSummary{Average: float64(total) / float64(len(rated)), Count: len(rated)}
}

func (m *memBookings) ProviderRatingSummary(_ context.Context, providerID string) (models.RatingSummary, error) {
	return m.summary(func(b models.Booking) bool { return b.ProviderID == providerID }), nil
}

func (m *memBookings) ShopRatingSummary(_ context.Context, shopID string) (models.RatingSummary, error) {
	return m.summary(func(b models.Booking) bool { return b.ShopID == shopID }), nil
}

func (m *memBookings) LockSchedule(_ context.Context, slotKey, date string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[slotKey+"|"+date]++
	return nil
}

type memProviders struct {
	providers map[string]*models.Provider
	owners    map[string]*models.ShopOwner
	shops     map[string]*models.Shop
}

func newMemProviders() *memProviders {
	return &memProviders{
		providers: map[string]*models.Provider{},
		owners:    map[string]*models.ShopOwner{},
		shops:     map[string]*models.Shop{},
	}
}

func (m *memProviders) GetByID(_ context.Context, id string) (*models.Provider, error) {
	if p, ok := m.providers[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, providerRepo.ErrNotFound
}

func (m *memProviders) ListShopStaff(_ context.Context, shopID string) ([]models.Provider, error) {
	var out []models.Provider
	for _, p := range m.providers {
		if p.ShopID == shopID && p.Kind == models.KindStaff && p.Active {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}

func (m *memProviders) UpdateRating(_ context.Context, id string, s models.RatingSummary) error {
	p, ok := m.providers[id]
	if !ok {
		return providerRepo.ErrNotFound
	}
	p.Rating, p.ReviewCount = s.Average, s.Count
	return nil
}

func (m *memProviders) GetShopOwner(_ context.Context, id string) (*models.ShopOwner, error) {
	if o, ok := m.owners[id]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, providerRepo.ErrNotFound
}

func (m *memProviders) UpdateShopOwnerRating(_ context.Context, id string, s models.RatingSummary) error {
	o, ok := m.owners[id]
	if !ok {
		return providerRepo.ErrNotFound
	}
	o.Rating, o.ReviewCount = s.Average, s.Count
	return nil
}

func (m *memProviders) GetShop(_ context.Context, id string) (*models.Shop, error) {
	if s, ok := m.shops[id]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, providerRepo.ErrNotFound
}

func (m *memProviders) GetShopByOwner(_ context.Context, ownerID string) (*models.Shop, error) {
	for _, s := range m.shops {
		if s.OwnerID == ownerID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, providerRepo.ErrNotFound
}

func (m *memProviders) UpdateShopRating(_ context.Context, id string, s models.RatingSummary) error {
	shop, ok := m.shops[id]
	if !ok {
		return providerRepo.ErrNotFound
	}
	shop.Rating, shop.ReviewCount = s.Average, s.Count
	return nil
}

type memCatalog struct {
	services map[string]*models.Service
}

func (m *memCatalog) GetServiceByID(_ context.Context, id string) (*models.Service, error) {
	if s, ok := m.services[id]; ok && s.Active {
		cp := *s
		return &cp, nil
	}
	return nil, catalogRepo.ErrNotFound
}

type memCustomers struct {
	customers map[string]*models.Customer
}

func (m *memCustomers) GetByID(_ context.Context, id string) (*models.Customer, error) {
	if c, ok := m.customers[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, userRepo.ErrNotFound
}

// memTx rolls the booking store back when fn fails.
type memTx struct {
	store *memBookings
	runs  int
}

func (t *memTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.runs++
	saved := t.store.snapshot()
	if err := fn(ctx); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}

type recordingDispatcher struct {
	mu       sync.Mutex
	outboxes []models.Outbox
}

func (d *recordingDispatcher) Dispatch(_ context.Context, o models.Outbox) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outboxes = append(d.outboxes, o)
}

func (d *recordingDispatcher) notifications() []models.NotificationIntent {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.NotificationIntent
	for _, o := range d.outboxes {
		out = append(out, o.Notifications...)
	}
	return out
}

func (d *recordingDispatcher) payments() []models.PaymentRequest {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.PaymentRequest
	for _, o := range d.outboxes {
		out = append(out, o.Payments...)
	}
	return out
}

func (d *recordingDispatcher) reminders() []models.Reminder {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.Reminder
	for _, o := range d.outboxes {
		out = append(out, o.Reminders...)
	}
	return out
}

func (d *recordingDispatcher) recipients(kind string) []string {
	var out []string
	for _, n := range d.notifications() {
		if n.Type == kind {
			out = append(out, n.RecipientID)
		}
	}
	return out
}

func (d *recordingDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outboxes = nil
}

// Fixture ids.
const (
	testDate     = "2030-01-08" // a Tuesday
	shopID       = "shop-1"
	ownerID      = "owner-1"
	staffAlice   = "staff-alice"
	staffBob     = "staff-bob"
	freelancerID = "free-1"
	otherStaff   = "staff-other"
	customerID   = "cust-1"
	customer2ID  = "cust-2"
	haircutID    = "svc-haircut"
	homeCutID    = "svc-home"
	anyCutID     = "svc-any"
)

var testNow = time.Date(2030, 1, 7, 8, 0, 0, 0, time.UTC)

func everyDay(open, close string) models.OpeningHours {
	h := models.OpeningHours{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		h[d] = models.DayHours{Open: open, Close: close}
	}
	return h
}

func weekly(start, end string) models.WeeklyAvailability {
	w := models.WeeklyAvailability{}
	for _, d := range []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"} {
		w[d] = models.DayAvailability{Available: true, Start: start, End: end}
	}
	return w
}

type fixture struct {
	svc        *DefaultBookingService
	bookings   *memBookings
	providers  *memProviders
	catalog    *memCatalog
	tx         *memTx
	dispatcher *recordingDispatcher
	now        time.Time
}

func newFixture() *fixture {
	f := &fixture{
		bookings:   newMemBookings(),
		providers:  newMemProviders(),
		dispatcher: &recordingDispatcher{},
		now:        testNow,
	}
	f.tx = &memTx{store: f.bookings}

	f.providers.shops[shopID] = &models.Shop{ID: shopID, Name: "Fade Lab", OwnerID: ownerID, OpeningHours: everyDay("09:00", "18:00")}
	f.providers.shops["shop-2"] = &models.Shop{ID: "shop-2", Name: "Other", OwnerID: "owner-2", OpeningHours: everyDay("09:00", "18:00")}
	f.providers.owners[ownerID] = &models.ShopOwner{ID: ownerID, Name: "Olive", Schedule: weekly("10:00", "16:00")}
	f.providers.owners["owner-2"] = &models.ShopOwner{ID: "owner-2", Name: "Otto"}
	f.providers.providers[staffAlice] = &models.Provider{ID: staffAlice, Kind: models.KindStaff, Name: "Alice", ShopID: shopID, Active: true, Schedule: weekly("09:00", "18:00")}
	f.providers.providers[staffBob] = &models.Provider{ID: staffBob, Kind: models.KindStaff, Name: "Bob", ShopID: shopID, Active: true, Schedule: weekly("09:00", "18:00")}
	f.providers.providers[otherStaff] = &models.Provider{ID: otherStaff, Kind: models.KindStaff, Name: "Zed", ShopID: "shop-2", Active: true}
	f.providers.providers[freelancerID] = &models.Provider{ID: freelancerID, Kind: models.KindFreelancer, Name: "Frida", Active: true, Schedule: weekly("08:00", "20:00")}

	f.catalog = &memCatalog{services: map[string]*models.Service{
		haircutID: {ID: haircutID, Name: "Haircut", Price: 25, Currency: "usd", Duration: 30, Mode: models.ModeShop, Active: true},
		homeCutID: {ID: homeCutID, Name: "Home haircut", Price: 40, Currency: "usd", Duration: 60, Mode: models.ModeHome, Active: true},
		anyCutID:  {ID: anyCutID, Name: "Trim", Price: 15, Duration: 15, Mode: models.ModeBoth, Active: true},
	}}
	customers := &memCustomers{customers: map[string]*models.Customer{
		customerID:  {ID: customerID, Name: "Carla"},
		customer2ID: {ID: customer2ID, Name: "Chris"},
		ownerID:     {ID: ownerID, Name: "Olive"},
	}}

	f.svc = &DefaultBookingService{
		Bookings:   f.bookings,
		Providers:  f.providers,
		Catalog:    f.catalog,
		Customers:  customers,
		Tx:         f.tx,
		Dispatcher: f.dispatcher,
		Policy:     DefaultPolicy(),
		Location:   time.UTC,
		Now:        func() time.Time { return f.now },
	}
	return f
}

func shopRequest(customer, provider string, hour, minute int) CreateRequest {
	return CreateRequest{
		CustomerID: customer,
		ProviderID: provider,
		ServiceID:  haircutID,
		Date:       testDate,
		Hour:       hour,
		Minute:     minute,
	}
}

func homeRequest(customer, provider string, hour, minute int) CreateRequest {
	return CreateRequest{
		CustomerID: customer,
		ProviderID: provider,
		ServiceID:  homeCutID,
		Date:       testDate,
		Hour:       hour,
		Minute:     minute,
		Address:    &models.Address{Formatted: "1 Main St"},
	}
}

// seed stores a booking directly, bypassing the use-cases.
func (f *fixture) seed(b models.Booking) models.Booking {
	if b.Version == 0 {
		b.Version = 1
	}
	if b.Date == "" {
		b.Date = testDate
	}
	if b.Duration == 0 {
		b.Duration = 30
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = f.now
	}
	if b.CustomerID == "" {
		b.CustomerID = customerID
	}
	f.bookings.put(b)
	return f.bookings.get(b.PublicID)
}
