package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Payphone-Digital/fleet-registry/internal/dto"
	domainerrors "github.com/Payphone-Digital/fleet-registry/internal/errors"
	"github.com/Payphone-Digital/fleet-registry/pkg/mail"
)

func TestUserCreate(t *testing.T) {
	f := newAccountFixture()

	u := f.register(t, "  Rina@Example.com ", "rina", "secret1")
	if u.Email != "rina@example.com" {
		t.Errorf("Email = %q, want normalized address", u.Email)
	}
	if u.Confirmed || u.Admin {
		t.Errorf("Confirmed/Admin = %v/%v, want false/false", u.Confirmed, u.Admin)
	}

	sent := f.mailer.last(t)
	if sent.To != "rina@example.com" || sent.Template != mail.TemplateConfirm {
		t.Errorf("mail = %+v", sent)
	}
	if _, ok := sent.Data["token"].(string); !ok {
		t.Error("Expected confirmation mail to carry a token")
	}
}

func TestUserCreateAdminEmail(t *testing.T) {
	f := newAccountFixture()

	u := f.register(t, "ADMIN@example.com", "root", "secret1")
	if !u.Admin {
		t.Error("Expected the configured admin email to be granted admin")
	}
}

func TestUserCreateDuplicates(t *testing.T) {
	f := newAccountFixture()
	f.register(t, "a@example.com", "alpha", "secret1")

	tests := []struct {
		name     string
		email    string
		username string
		want     error
	}{
		{"email", "A@example.com", "other", domainerrors.ErrEmailExists},
		{"username", "b@example.com", "alpha", domainerrors.ErrUsernameExists},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.users.Create(context.Background(), adminCaller, dto.CreateUserRequest{
				Email: tt.email, Username: tt.username, Password: "secret1", Name: "x",
			})
			if !errors.Is(err, tt.want) {
				t.Errorf("Create() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUserAdminOnly(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	if _, err := f.users.List(ctx, confirmedCaller, nil, 1); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Errorf("List() error = %v, want forbidden", err)
	}
	if _, err := f.users.Get(ctx, confirmedCaller, "id"); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Errorf("Get() error = %v, want forbidden", err)
	}
	if err := f.users.Delete(ctx, confirmedCaller, "id"); !errors.Is(err, domainerrors.ErrForbidden) {
		t.Errorf("Delete() error = %v, want forbidden", err)
	}
}

func TestUserUpdateEmailResetsConfirmation(t *testing.T) {
	f := newAccountFixture()
	ctx := context.Background()

	u := f.register(t, "c@example.com", "charlie", "secret1")
	stored, _ := f.store.Get(ctx, u.ID)
	stored.Confirmed = true
	if err := f.store.Update(ctx, stored); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	before := f.mailer.count()

	updated, err := f.users.Update(ctx, adminCaller, u.ID, dto.UpdateUserRequest{
		Email: "new-c@example.com", Username: "charlie", Name: "Charlie",
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Confirmed {
		t.Error("Expected a changed email to reset confirmation")
	}
	if f.mailer.count() != before+1 {
		t.Errorf("mails sent = %d, want %d", f.mailer.count(), before+1)
	}

	res, err := f.users.List(ctx, adminCaller, map[string]string{"confirmed": "0"}, 1)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Total = %d, want 1", res.Total)
	}
}

func TestUserDeleteSelf(t *testing.T) {
	f := newAccountFixture()
	u := f.register(t, "d@example.com", "delta", "secret1")

	self := dto.Caller{UserID: u.ID, Admin: true, Confirmed: true}
	if err := f.users.Delete(context.Background(), self, u.ID); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Errorf("Delete(self) error = %v, want invalid input", err)
	}
	if err := f.users.Delete(context.Background(), adminCaller, u.ID); err != nil {
		t.Errorf("Delete() error = %v", err)
	}
}
