package service

import (
	"context"
	"sync"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	"github.com/Payphone-Digital/fleet-registry/internal/model"
	"github.com/Payphone-Digital/fleet-registry/internal/repository"
)

var (
	confirmedCaller = dto.Caller{UserID: "caller", Confirmed: true}
	adminCaller     = dto.Caller{UserID: "admin", Admin: true, Confirmed: true}
)

type sentMail struct {
	To       string
	Subject  string
	Template string
	Data     map[string]any
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) SendTemplate(ctx context.Context, to, subject, template string, data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Template: template, Data: data})
}

func (m *fakeMailer) last(t *testing.T) sentMail {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("Expected a mail to be sent")
	}
	return m.sent[len(m.sent)-1]
}

func (m *fakeMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type fleetFixture struct {
	vehicles *VehicleService
	drivers  *DriverService
	tasks    *TaskService
	trips    *TripService
}

func newFleetFixture() *fleetFixture {
	vehicleStore := repository.NewMemoryStore(func() *model.Vehicle { return &model.Vehicle{} }, "car_id", "license_plate")
	driverStore := repository.NewMemoryStore(func() *model.Driver { return &model.Driver{} }, "driver_id")
	taskStore := repository.NewMemoryStore(func() *model.Task { return &model.Task{} })
	tripStore := repository.NewMemoryStore(func() *model.Trip { return &model.Trip{} })

	return &fleetFixture{
		vehicles: NewVehicleService(vehicleStore, repository.NewExecutor[*model.Vehicle](vehicleStore)),
		drivers:  NewDriverService(driverStore, repository.NewExecutor[*model.Driver](driverStore), vehicleStore),
		tasks:    NewTaskService(taskStore, repository.NewExecutor[*model.Task](taskStore), vehicleStore, driverStore),
		trips:    NewTripService(tripStore, repository.NewExecutor[*model.Trip](tripStore), vehicleStore, driverStore),
	}
}

type accountFixture struct {
	store  *repository.MemoryStore[*model.User]
	users  *UserService
	auth   *AuthService
	tokens *TokenService
	mailer *fakeMailer
}

const testAdminEmail = "admin@example.com"

func newAccountFixture() *accountFixture {
	store := repository.NewMemoryStore(func() *model.User { return &model.User{} }, "email", "username")
	tokens := NewTokenService("test-secret")
	mailer := &fakeMailer{}

	users := NewUserService(store, repository.NewExecutor[*model.User](store), tokens, mailer, testAdminEmail)
	users.bcryptCost = bcrypt.MinCost
	auth := NewAuthService(store, tokens, mailer, testAdminEmail)
	auth.bcryptCost = bcrypt.MinCost

	return &accountFixture{store: store, users: users, auth: auth, tokens: tokens, mailer: mailer}
}

// register creates a user through the admin service and returns it.
func (f *accountFixture) register(t *testing.T, email, username, password string) *dto.UserResponse {
	t.Helper()
	u, err := f.users.Create(context.Background(), adminCaller, dto.CreateUserRequest{
		Email:    email,
		Username: username,
		Password: password,
		Name:     username,
	})
	if err != nil {
		t.Fatalf("Create(%s) error = %v", email, err)
	}
	return u
}

func (f *accountFixture) callerFor(t *testing.T, id string) dto.Caller {
	t.Helper()
	u, err := f.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s) error = %v", id, err)
	}
	return callerOf(u, false)
}
